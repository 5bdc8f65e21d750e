package copyfold

import (
	_ "embed"
	"strings"
)

// Short messages (one-liners)
const (
	// Command descriptions
	MsgRootShort       = "Copy component output into target folders, keeping provenance"
	MsgBuildShort      = "Run a pass for every composer"
	MsgCleanShort      = "Remove everything composers copied"
	MsgStatusShort     = "Show what each composer recorded"
	MsgWatchShort      = "Rebuild incrementally when component files change"
	MsgConfigShort     = "Print the merged configuration"
	MsgVersionShort    = "Print version information"
	MsgCompletionShort = "Generate shell completion script"
	MsgManShort        = "Generate man pages"

	// Result messages
	MsgBuildResult   = "%s: %d applied, %d collected, %d failed (%s)\n"
	MsgCleanResult   = "%s: %d removed, %d failed\n"
	MsgWatchStarted  = "Watching %d components, press Ctrl+C to stop\n"
	MsgManWritten    = "Man pages written to %s\n"
	MsgVersionFormat = "copyfold version %s\n  commit: %s\n  built:  %s\n"

	// Error messages
	MsgErrInitPaths = "failed to initialize paths: %w"
	MsgErrFailures  = "%d operations failed"
	MsgErrNoCommand = "no command specified"

	// Flag descriptions
	MsgFlagVerbose  = "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)"
	MsgFlagProject  = "Project root (default: search for copyfold.toml)"
	MsgFlagConfig   = "Configuration file (default: <project>/copyfold.toml)"
	MsgFlagNoColor  = "Disable colored output"
	MsgFlagFormat   = "Output format: auto, term, text or json"
	MsgFlagComposer = "Only run the named composer (repeatable)"
	MsgFlagChanged  = "Changed source path as item:path[:kind] (repeatable)"
	MsgFlagSample   = "Print a commented sample configuration"
	MsgFlagManDir   = "Folder the man pages are written to"
)

// Long messages from embedded files
var (
	//go:embed msgs/root-long.txt
	msgRootLongRaw string
	MsgRootLong    = strings.TrimSpace(msgRootLongRaw)

	//go:embed msgs/build-long.txt
	msgBuildLongRaw string
	MsgBuildLong    = strings.TrimSpace(msgBuildLongRaw)

	//go:embed msgs/build-example.txt
	msgBuildExampleRaw string
	MsgBuildExample    = strings.TrimRight(msgBuildExampleRaw, "\n")

	//go:embed msgs/clean-long.txt
	msgCleanLongRaw string
	MsgCleanLong    = strings.TrimSpace(msgCleanLongRaw)

	//go:embed msgs/status-long.txt
	msgStatusLongRaw string
	MsgStatusLong    = strings.TrimSpace(msgStatusLongRaw)

	//go:embed msgs/watch-long.txt
	msgWatchLongRaw string
	MsgWatchLong    = strings.TrimSpace(msgWatchLongRaw)

	//go:embed msgs/config-long.txt
	msgConfigLongRaw string
	MsgConfigLong    = strings.TrimSpace(msgConfigLongRaw)

	//go:embed msgs/completion-long.txt
	msgCompletionLongRaw string
	MsgCompletionLong    = strings.TrimSpace(msgCompletionLongRaw)

	//go:embed msgs/fallback-warning.txt
	msgFallbackWarningRaw string
	MsgFallbackWarning    = strings.TrimSpace(msgFallbackWarningRaw) + "\n"

	//go:embed msgs/usage-template.txt
	msgUsageTemplateRaw string
	MsgUsageTemplate    = strings.TrimSpace(msgUsageTemplateRaw)

	//go:embed msgs/help-template.txt
	msgHelpTemplateRaw string
	MsgHelpTemplate    = strings.TrimSpace(msgHelpTemplateRaw)
)
