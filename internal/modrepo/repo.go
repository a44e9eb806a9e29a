// Package modrepo locates modules in the on-disk repository for one
// kernel release and resolves names and aliases to module files.
package modrepo

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/samber/lo"

	"github.com/modscope/modscope/internal/modfile"
)

// Repo is the module repository for one kernel release, rooted at
// <basedir>/lib/modules/<release>. Indexes are read once, on first
// lookup.
type Repo struct {
	dir string

	names   map[string]string // module name -> module file path
	aliases []aliasEntry
	loaded  bool
}

// aliasEntry is one "alias PATTERN MODULE" line from modules.alias or
// modules.symbols. Patterns use fnmatch-style globbing.
type aliasEntry struct {
	pattern string
	module  string
}

// New returns the repository for the given filesystem root and kernel
// release.
func New(basedir, release string) *Repo {
	return &Repo{dir: filepath.Join(basedir, "lib", "modules", release)}
}

// Dir returns the repository directory.
func (r *Repo) Dir() string { return r.dir }

// Lookup resolves one command-line argument to module handles. An
// argument naming a regular file resolves to that file directly;
// anything else is treated as a module name or alias and resolved
// against the repository indexes. Multiple alias matches all resolve,
// de-duplicated by path in index order.
func (r *Repo) Lookup(arg string) ([]*modfile.Module, error) {
	if fi, err := os.Stat(arg); err == nil && fi.Mode().IsRegular() {
		return []*modfile.Module{modfile.New(arg)}, nil
	}

	if err := r.load(); err != nil {
		return nil, err
	}

	var paths []string
	if p, ok := r.names[normalize(arg)]; ok {
		paths = append(paths, p)
	}
	for _, a := range r.aliases {
		matched, err := path.Match(a.pattern, arg)
		if err != nil {
			log.Printf("modrepo: bad alias pattern %q: %v", a.pattern, err)
			continue
		}
		if !matched {
			continue
		}
		if p, ok := r.names[a.module]; ok {
			paths = append(paths, p)
		}
	}

	paths = lo.Uniq(paths)
	if len(paths) == 0 {
		return nil, fmt.Errorf("module %s not found in %s", arg, r.dir)
	}
	return lo.Map(paths, func(p string, _ int) *modfile.Module {
		return modfile.New(p)
	}), nil
}

func (r *Repo) load() error {
	if r.loaded {
		return nil
	}

	names, err := r.loadDep()
	if err != nil {
		return err
	}
	r.names = names

	for _, f := range []string{"modules.alias", "modules.symbols"} {
		entries, err := loadAliases(filepath.Join(r.dir, f))
		if err != nil {
			if os.IsNotExist(err) {
				log.Printf("modrepo: %s not present, skipping", f)
				continue
			}
			return err
		}
		r.aliases = append(r.aliases, entries...)
	}

	r.loaded = true
	return nil
}

// loadDep parses modules.dep into a module name -> file path map.
// Only the target of each line matters here; dependency lists after
// the colon are ignored.
func (r *Repo) loadDep() (map[string]string, error) {
	f, err := os.Open(filepath.Join(r.dir, "modules.dep"))
	if err != nil {
		return nil, fmt.Errorf("opening module index: %w", err)
	}
	defer f.Close()

	names := make(map[string]string)
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		rel, _, _ := strings.Cut(line, ":")
		p := rel
		if !filepath.IsAbs(p) {
			p = filepath.Join(r.dir, rel)
		}
		names[modfile.NameOf(rel)] = p
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading modules.dep: %w", err)
	}
	return names, nil
}

// loadAliases parses "alias PATTERN MODULE" lines. modules.alias and
// modules.symbols share the format.
func loadAliases(path string) ([]aliasEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var entries []aliasEntry
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) != 3 || fields[0] != "alias" {
			continue
		}
		entries = append(entries, aliasEntry{pattern: fields[1], module: normalize(fields[2])})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return entries, nil
}

// normalize maps dashes to underscores; module names treat the two as
// equivalent.
func normalize(name string) string {
	return strings.ReplaceAll(name, "-", "_")
}
