// Package loader is the reference host module loader (spec §6.2's
// load contract): it implements internal/module.Loader by resolving a
// specifier against the filesystem, relative to the requesting
// module, and feeding the result through internal/frontend into
// internal/module.NewRecord. Grounded on the teacher's
// internal/scanner.Scanner — same include/exclude glob
// configuration and recursive-root confinement, minus the
// language-provider dispatch scanner.go has no use for here.
package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/oxhq/esengine/internal/builtins"
	"github.com/oxhq/esengine/internal/frontend"
	"github.com/oxhq/esengine/internal/module"
	"github.com/oxhq/esengine/internal/vm"
)

// DefaultExtensions are tried, in order, when a specifier names a
// path with no extension of its own.
var DefaultExtensions = []string{".js", ".mjs", ".cjs"}

// FSLoader resolves bare specifiers against internal/builtins'
// registered native modules first, then everything else against Root
// on disk. One FSLoader is bound to one Engine (spec's "Loader field
// captured at parse_module time") since building a native module's
// export map requires a live Engine to allocate objects against.
type FSLoader struct {
	Engine     *vm.Engine
	Parser     frontend.Parser
	Root       string
	Extensions []string

	// Include, if non-empty, restricts servable files to paths
	// matching at least one doublestar glob (relative to Root).
	// Exclude is checked after Include and always wins.
	Include []string
	Exclude []string

	mu    sync.Mutex
	cache map[string]*module.Record
}

// NewFSLoader returns a loader confined to root, parsing files with
// parser and building native modules against eng.
func NewFSLoader(eng *vm.Engine, root string, parser frontend.Parser) *FSLoader {
	abs, err := filepath.Abs(root)
	if err != nil {
		abs = root
	}
	return &FSLoader{
		Engine:     eng,
		Parser:     parser,
		Root:       abs,
		Extensions: DefaultExtensions,
		cache:      make(map[string]*module.Record),
	}
}

// Load implements module.Loader.
func (l *FSLoader) Load(referrer *module.Record, specifier string, done func(*module.Record, error)) {
	if factory, ok := builtins.Lookup(specifier); ok {
		l.mu.Lock()
		rec, cached := l.cache[specifier]
		if !cached {
			rec = module.NewNativeRecord(specifier, factory(l.Engine))
			l.cache[specifier] = rec
		}
		l.mu.Unlock()
		done(rec, nil)
		return
	}
	if isBareSpecifier(specifier) {
		done(nil, fmt.Errorf("loader: bare specifier %q is not a registered native module", specifier))
		return
	}

	path, err := l.resolvePath(referrer, specifier)
	if err != nil {
		done(nil, err)
		return
	}

	l.mu.Lock()
	if rec, ok := l.cache[path]; ok {
		l.mu.Unlock()
		done(rec, nil)
		return
	}
	l.mu.Unlock()

	if err := l.checkAllowed(path); err != nil {
		done(nil, err)
		return
	}

	src, err := os.ReadFile(path)
	if err != nil {
		done(nil, fmt.Errorf("loader: reading %s: %w", path, err))
		return
	}

	prog, errs := l.Parser.Parse(string(src), frontend.Options{Module: true})
	if len(errs) > 0 {
		done(nil, joinErrors("loader: parsing "+path, errs))
		return
	}

	rec, errs := module.NewRecord(path, string(src), prog)
	if len(errs) > 0 {
		done(nil, joinErrors("loader: building module record for "+path, errs))
		return
	}

	l.mu.Lock()
	l.cache[path] = rec
	l.mu.Unlock()
	done(rec, nil)
}

func isBareSpecifier(specifier string) bool {
	if specifier == "" {
		return true
	}
	if strings.HasPrefix(specifier, "./") || strings.HasPrefix(specifier, "../") {
		return false
	}
	return !filepath.IsAbs(specifier)
}

// resolvePath turns a relative or absolute specifier into an absolute
// path on disk, trying Extensions and a directory's "index" file the
// way Node's CommonJS resolution does, but without package.json
// "main"/exports-map lookups — out of scope for an embedded engine
// with no package manager of its own.
func (l *FSLoader) resolvePath(referrer *module.Record, specifier string) (string, error) {
	base := l.Root
	if referrer != nil {
		base = filepath.Dir(referrer.Specifier)
	}
	candidate := specifier
	if !filepath.IsAbs(candidate) {
		candidate = filepath.Join(base, candidate)
	}
	candidate = filepath.Clean(candidate)

	if p, ok := l.tryCandidates(candidate); ok {
		return p, nil
	}
	return "", fmt.Errorf("loader: cannot resolve specifier %q (tried %s with extensions %v)", specifier, candidate, l.Extensions)
}

func (l *FSLoader) tryCandidates(path string) (string, bool) {
	if fi, err := os.Stat(path); err == nil && !fi.IsDir() {
		return path, true
	}
	exts := l.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	if filepath.Ext(path) == "" {
		for _, ext := range exts {
			if fi, err := os.Stat(path + ext); err == nil && !fi.IsDir() {
				return path + ext, true
			}
		}
	}
	for _, ext := range exts {
		idx := filepath.Join(path, "index"+ext)
		if fi, err := os.Stat(idx); err == nil && !fi.IsDir() {
			return idx, true
		}
	}
	return "", false
}

// checkAllowed enforces Root confinement (no specifier may resolve
// outside the configured root, however many "../" segments it used)
// and the Include/Exclude glob lists.
func (l *FSLoader) checkAllowed(path string) error {
	rel, err := filepath.Rel(l.Root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return fmt.Errorf("loader: %s escapes loader root %s", path, l.Root)
	}
	rel = filepath.ToSlash(rel)

	if len(l.Include) > 0 {
		matched := false
		for _, pat := range l.Include {
			if ok, _ := doublestar.Match(pat, rel); ok {
				matched = true
				break
			}
		}
		if !matched {
			return fmt.Errorf("loader: %s does not match any include pattern", rel)
		}
	}
	for _, pat := range l.Exclude {
		if ok, _ := doublestar.Match(pat, rel); ok {
			return fmt.Errorf("loader: %s matches exclude pattern %q", rel, pat)
		}
	}
	return nil
}

func joinErrors(prefix string, errs []error) error {
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, e.Error())
	}
	sort.Strings(msgs)
	return fmt.Errorf("%s: %s", prefix, strings.Join(msgs, "; "))
}
