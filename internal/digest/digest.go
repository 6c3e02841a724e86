// Package digest computes a stable, fixed-size content digest of a file,
// used by the plugin framework to detect whether a shared object on disk
// has changed between two scans of the plugin directory.
package digest

import (
	"crypto/sha256"
	"io"
	"os"

	"github.com/pkg/errors"
)

// Size is the length in bytes of a Sum.
const Size = sha256.Size

// Sum is a fixed-size content digest. Only equality comparison is ever
// performed on it; the algorithm behind it is an implementation detail.
type Sum [Size]byte

// Of returns the digest of the file at path. Any failure to open or read
// the file is a fatal condition for the caller (the loader treats it the
// same way it treats any other unreadable plugin file).
func Of(path string) (Sum, error) {
	f, err := os.Open(path)
	if err != nil {
		return Sum{}, errors.Wrapf(err, "digest: open %q", path)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return Sum{}, errors.Wrapf(err, "digest: read %q", path)
	}

	var sum Sum
	copy(sum[:], h.Sum(nil))
	return sum, nil
}
