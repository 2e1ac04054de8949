package digest

import (
	"crypto/sha1"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSmall(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/a", []byte("hello world"), 0o644))

	buf := make([]byte, 64)
	d, err := Small(fs, "/a", 11, buf)
	require.NoError(t, err)
	assert.Equal(t, Digest(sha1.Sum([]byte("hello world"))), d)
	assert.False(t, d.IsZero())
}

func TestSmall_Errors(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/short", []byte("abc"), 0o644))

	tests := []struct {
		name string
		path string
		size int64
		buf  int
	}{
		{name: "missing", path: "/missing", size: 3, buf: 8},
		{name: "truncated", path: "/short", size: 6, buf: 8},
		{name: "buffer_too_small", path: "/short", size: 3, buf: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Small(fs, tt.path, tt.size, make([]byte, tt.buf))
			assert.Error(t, err)
			assert.True(t, d.IsZero())
		})
	}
}

func TestHasher_File(t *testing.T) {
	fs := afero.NewMemMapFs()
	content := strings.Repeat("0123456789", 1000)
	require.NoError(t, afero.WriteFile(fs, "/big", []byte(content), 0o644))

	h := NewHasher(fs)
	d, err := h.File("/big")
	require.NoError(t, err)
	assert.Equal(t, FromBytes([]byte(content)), d)

	// hashing twice yields the same digest
	again, err := h.File("/big")
	require.NoError(t, err)
	assert.Equal(t, d, again)

	_, err = h.File("/nope")
	assert.Error(t, err)
}

func TestParse(t *testing.T) {
	d := FromBytes([]byte("x"))
	parsed, err := Parse(d[:])
	require.NoError(t, err)
	assert.Equal(t, d, parsed)
	assert.Equal(t, string(d[:]), parsed.Key())
	assert.Len(t, d.String(), 40)

	_, err = Parse([]byte{1, 2, 3})
	assert.Error(t, err)
}
