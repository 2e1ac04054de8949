// Package digest computes the fixed-length content fingerprints used to confirm
// that two same-sized files are byte-identical.
package digest

import (
	"crypto/sha1"
	"encoding/hex"
	"io"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// Size of a digest in bytes.
const Size = sha1.Size

// ChunkSize bounds how much of a file is held in memory while streaming it.
const ChunkSize = 16 << 20

// Digest is a sha1 content hash. The all-zero value is reserved for failures.
type Digest [Size]byte

// Zero marks a failed hash.
var Zero Digest

func (d Digest) IsZero() bool {
	return d == Zero
}

// Key returns the digest as a content key for the grouping index.
func (d Digest) Key() string {
	return string(d[:])
}

func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// FromBytes hashes an in-memory buffer.
func FromBytes(b []byte) Digest {
	return Digest(sha1.Sum(b))
}

// Small hashes a file expected to fit in buf, reading exactly size bytes.
// buf must hold at least size bytes.
func Small(fs afero.Fs, path string, size int64, buf []byte) (Digest, error) {
	if int64(len(buf)) < size {
		return Zero, errors.Errorf("buffer too small for %s: %d < %d", path, len(buf), size)
	}

	f, err := fs.Open(path)
	if err != nil {
		return Zero, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	if _, err := io.ReadFull(f, buf[:size]); err != nil {
		return Zero, errors.Wrapf(err, "read %s", path)
	}

	return FromBytes(buf[:size]), nil
}

// Hasher streams files through sha1 in ChunkSize pieces, reusing one buffer.
// A Hasher is not safe for concurrent use.
type Hasher struct {
	fs  afero.Fs
	buf []byte
}

func NewHasher(fs afero.Fs) *Hasher {
	return &Hasher{fs: fs}
}

// File hashes the whole content of path. On failure it returns Zero and the error.
func (h *Hasher) File(path string) (Digest, error) {
	f, err := h.fs.Open(path)
	if err != nil {
		return Zero, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	if h.buf == nil {
		h.buf = make([]byte, ChunkSize)
	}

	hs := sha1.New()
	if _, err := io.CopyBuffer(hs, onlyReader{f}, h.buf); err != nil {
		return Zero, errors.Wrapf(err, "read %s", path)
	}

	var d Digest
	copy(d[:], hs.Sum(nil))
	return d, nil
}

// onlyReader hides WriterTo/ReaderFrom so io.CopyBuffer really uses the buffer.
type onlyReader struct {
	io.Reader
}

// Parse reads one Size-byte digest from a raw stream.
func Parse(b []byte) (Digest, error) {
	var d Digest
	if len(b) != Size {
		return Zero, errors.Errorf("digest must be %d bytes, got %d", Size, len(b))
	}
	copy(d[:], b)
	return d, nil
}
