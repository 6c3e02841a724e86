// Package discover walks a plugin root directory and yields the candidate
// shared-object files found within it. It mirrors the two-pass scan used by
// the framework's original C ancestor: a counting pass and a populating
// pass, which must agree on how many candidates exist or the caller treats
// the mismatch as "the directory changed under us".
package discover

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Extension is the default platform shared-library suffix plugins are
// recognized by. Callers may override it (see Enumerate) for other
// platforms' shared-library conventions.
const Extension = ".so"

// Candidate is one discovered plugin file.
type Candidate struct {
	FullPath string // absolute path on disk
	Name     string // path relative to root, extension stripped
}

// Count performs the counting-only pass: it walks root and returns how
// many candidate files matching ext it finds, without allocating any
// records for them.
func Count(root, ext string) (int, error) {
	n := 0
	err := walk(root, ext, func(string, os.FileInfo) {
		n++
	})
	return n, err
}

// Populate performs the populating pass: it walks root and returns one
// Candidate per file matching ext, sorted by full path.
func Populate(root, ext string) ([]Candidate, error) {
	var out []Candidate
	err := walk(root, ext, func(path string, info os.FileInfo) {
		out = append(out, Candidate{
			FullPath: path,
			Name:     logicalName(root, path, ext),
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullPath < out[j].FullPath })
	return out, nil
}

// Enumerate runs both passes and fails if they disagree on the number of
// candidates found, which would mean the directory tree was modified
// concurrently with discovery. ext is the shared-library suffix a file
// must contain to be considered a candidate (see Extension).
func Enumerate(root, ext string) ([]Candidate, error) {
	count, err := Count(root, ext)
	if err != nil {
		return nil, err
	}
	candidates, err := Populate(root, ext)
	if err != nil {
		return nil, err
	}
	if len(candidates) != count {
		return nil, errors.Errorf(
			"discover: plugin directory %q changed during scan (counted %d, populated %d)",
			root, count, len(candidates))
	}
	return candidates, nil
}

// walk recursively visits root depth-first, skipping "." and "..", and
// invokes visit for every regular file whose name contains ext.
func walk(root, ext string, visit func(path string, info os.FileInfo)) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return errors.Wrapf(err, "discover: walking %q", path)
		}
		if info.IsDir() {
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		if strings.Contains(info.Name(), ext) {
			visit(path, info)
		}
		return nil
	})
}

// logicalName computes the logical name of a plugin: its full path with
// "root/" stripped from the front and ext stripped from the end. A
// plugin at <root>/sub/foo.so has logical name "sub/foo".
func logicalName(root, fullPath, ext string) string {
	rel := strings.TrimPrefix(fullPath, strings.TrimSuffix(root, "/")+"/")
	return strings.TrimSuffix(rel, ext)
}
