package repository

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/arthur-debert/copyfold/pkg/errors"
	"github.com/arthur-debert/copyfold/pkg/types"
	"gopkg.in/yaml.v3"
)

type linkFile struct {
	Links []types.Link `yaml:"links"`
}

// BeginTransaction starts collecting a new link set.
func (r *Repository) BeginTransaction() {
	r.staging = make(map[string]types.Link)
}

// RecordLink adds l to the link set being collected.
func (r *Repository) RecordLink(l types.Link) {
	if r.staging == nil {
		r.BeginTransaction()
	}
	r.staging[l.Key()] = l
}

// CommitTransaction persists the collected set, replacing the previous one.
func (r *Repository) CommitTransaction() error {
	if r.staging == nil {
		return errors.New(errors.ErrStructural, "no link transaction in progress")
	}
	doc := linkFile{Links: sortedLinks(r.staging)}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, errors.ErrPersistenceWrite, "cannot encode link set")
	}
	primary, backup := filepath.Join(r.dir, linksFile), filepath.Join(r.dir, linksBackup)
	if err := r.writeStaged(primary, backup, data); err != nil {
		return errors.Wrap(err, errors.ErrPersistenceWrite, "cannot store link set")
	}
	r.links = r.staging
	r.linksLoaded = true
	r.staging = nil
	return nil
}

// Contains reports whether l was part of the last committed link set.
func (r *Repository) Contains(l types.Link) bool {
	r.loadLinks()
	_, ok := r.links[l.Key()]
	return ok
}

// Links returns the last committed link set.
func (r *Repository) Links() []types.Link {
	r.loadLinks()
	return sortedLinks(r.links)
}

func (r *Repository) loadLinks() {
	if r.linksLoaded {
		return
	}
	r.linksLoaded = true
	r.links = make(map[string]types.Link)
	for _, name := range []string{linksFile, linksBackup} {
		file := filepath.Join(r.dir, name)
		data, err := r.fs.ReadFile(file)
		if err != nil {
			if !os.IsNotExist(err) {
				r.logger.Warn().Err(err).Str("file", file).Msg("Cannot read link set")
			}
			continue
		}
		var doc linkFile
		if err := yaml.Unmarshal(data, &doc); err != nil {
			r.logger.Warn().Err(err).Str("file", file).Msg("Deleting corrupt link set")
			_ = r.fs.Remove(file)
			continue
		}
		for _, l := range doc.Links {
			r.links[l.Key()] = l
		}
		return
	}
}

func sortedLinks(m map[string]types.Link) []types.Link {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]types.Link, 0, len(keys))
	for _, k := range keys {
		out = append(out, m[k])
	}
	return out
}
