package exporter

import (
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/arthur-debert/copyfold/pkg/content"
	"github.com/arthur-debert/copyfold/pkg/delta"
	"github.com/arthur-debert/copyfold/pkg/types"
)

// filter decides which paths below an exported location are exported.
type filter struct {
	pattern  *regexp.Regexp
	exclude  []string
	skipDirs map[string]bool
}

// compilePattern anchors expr so it has to match the whole relative path.
func compilePattern(expr string) (*regexp.Regexp, error) {
	if expr == "" {
		return nil, nil
	}
	return regexp.Compile(`^(?:` + expr + `)$`)
}

func (f filter) acceptFile(rel string) bool {
	if f.skipped(rel) {
		return false
	}
	for _, ext := range f.exclude {
		if strings.HasSuffix(rel, ext) {
			return false
		}
	}
	return f.pattern == nil || f.pattern.MatchString(rel)
}

// allFolders reports whether folders are exported for their own sake. With
// a pattern in place they only show up as parents of accepted files.
func (f filter) allFolders() bool {
	return f.pattern == nil
}

func (f filter) skipped(rel string) bool {
	for _, seg := range strings.Split(rel, "/") {
		if f.skipDirs[seg] {
			return true
		}
	}
	return false
}

// listing is what an exporter exported last time, relative to the exported
// location. It lets removals be reported after the sources are gone.
type listing struct {
	files   map[string]bool
	folders map[string]bool
}

func newListing(files, folders []string) *listing {
	l := &listing{files: map[string]bool{}, folders: map[string]bool{}}
	for _, f := range files {
		l.files[f] = true
	}
	for _, f := range folders {
		l.folders[f] = true
	}
	return l
}

func (l *listing) addFile(rel string) {
	l.files[rel] = true
	for dir := path.Dir(rel); dir != "."; dir = path.Dir(dir) {
		l.folders[dir] = true
	}
}

func (l *listing) addFolder(rel string) {
	for dir := rel; dir != "."; dir = path.Dir(dir) {
		l.folders[dir] = true
	}
}

// drop forgets rel and everything below it, returning what was forgotten.
func (l *listing) drop(rel string) (files, folders []string) {
	prefix := rel + "/"
	for f := range l.files {
		if f == rel || strings.HasPrefix(f, prefix) {
			files = append(files, f)
			delete(l.files, f)
		}
	}
	for f := range l.folders {
		if f == rel || strings.HasPrefix(f, prefix) {
			folders = append(folders, f)
			delete(l.folders, f)
		}
	}
	sort.Strings(files)
	sort.Strings(folders)
	return files, folders
}

func (l *listing) sorted() (files, folders []string) {
	for f := range l.files {
		files = append(files, f)
	}
	for f := range l.folders {
		folders = append(folders, f)
	}
	sort.Strings(files)
	sort.Strings(folders)
	return files, folders
}

// location is one exported source folder and the tree node its content is
// added under.
type location struct {
	fs     types.FS
	src    string
	into   *content.Node
	filter filter
	seen   *listing
}

// exportAll walks the location and flags everything d.
func (loc location) exportAll(d types.Delta) error {
	return loc.exportBelow("", d)
}

func (loc location) exportBelow(base string, d types.Delta) error {
	root := loc.src
	if base != "" {
		root = filepath.Join(loc.src, filepath.FromSlash(base))
	}
	return loc.fs.Walk(root, func(file string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		rel, err := filepath.Rel(loc.src, file)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}
		if info.IsDir() {
			if loc.filter.skipDirs[info.Name()] {
				return filepath.SkipDir
			}
			if loc.filter.allFolders() {
				if _, err := loc.into.AddFolder(rel, d); err != nil {
					return err
				}
				loc.seen.addFolder(rel)
			}
			return nil
		}
		if !loc.filter.acceptFile(rel) {
			return nil
		}
		if _, err := loc.into.AddFile(rel, file, d); err != nil {
			return err
		}
		loc.seen.addFile(rel)
		return nil
	})
}

// exportRemoved flags files and folders as removed.
func (loc location) exportRemoved(files, folders []string) error {
	for _, f := range folders {
		if _, err := loc.into.AddFolder(f, types.DeltaRemoved); err != nil {
			return err
		}
	}
	for _, f := range files {
		if _, err := loc.into.AddFile(f, filepath.Join(loc.src, filepath.FromSlash(f)), types.DeltaRemoved); err != nil {
			return err
		}
	}
	return nil
}

// exportDelta reports the changes of tree, which is relative to the
// location.
func (loc location) exportDelta(tree *delta.Tree) error {
	for _, e := range tree.Entries() {
		if loc.filter.skipped(e.Path) {
			continue
		}
		if e.Kind == delta.Removed {
			files, folders := loc.seen.drop(e.Path)
			if len(files) == 0 && len(folders) == 0 && loc.filter.acceptFile(e.Path) {
				files = []string{e.Path}
			}
			if err := loc.exportRemoved(files, folders); err != nil {
				return err
			}
			continue
		}

		abs := filepath.Join(loc.src, filepath.FromSlash(e.Path))
		info, err := loc.fs.Stat(abs)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return err
		}
		d := e.Kind.Delta()
		if info.IsDir() {
			if e.Kind == delta.Changed {
				if loc.filter.allFolders() {
					if _, err := loc.into.AddFolder(e.Path, d); err != nil {
						return err
					}
					loc.seen.addFolder(e.Path)
				}
				continue
			}
			if loc.filter.allFolders() {
				if _, err := loc.into.AddFolder(e.Path, d); err != nil {
					return err
				}
				loc.seen.addFolder(e.Path)
			}
			if err := loc.exportBelow(e.Path, d); err != nil {
				return err
			}
			continue
		}
		if !loc.filter.acceptFile(e.Path) {
			continue
		}
		if _, err := loc.into.AddFile(e.Path, abs, d); err != nil {
			return err
		}
		loc.seen.addFile(e.Path)
	}
	return nil
}
