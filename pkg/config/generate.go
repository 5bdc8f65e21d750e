package config

import (
	_ "embed"
	"strings"
)

//go:embed embedded/sample.toml
var sampleConfig []byte

// GenerateSample returns the documented sample configuration with every
// value commented out.
func GenerateSample() string {
	return commentOutConfigValues(string(sampleConfig))
}

// commentOutConfigValues comments out every line that is not blank, a
// comment or a table header.
func commentOutConfigValues(content string) string {
	lines := strings.Split(content, "\n")
	var result []string

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			result = append(result, line)
			continue
		}
		if strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") {
			result = append(result, line)
			continue
		}
		result = append(result, "# "+line)
	}

	return strings.Join(result, "\n")
}
