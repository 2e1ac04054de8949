// Package fsys is the filesystem capability the dedup pipeline mutates files through.
package fsys

import (
	"os"

	"github.com/spf13/afero"
)

// FS extends afero.Fs with hard link creation, which afero does not model.
type FS interface {
	afero.Fs
	Link(oldname, newname string) error
}

// OsFs is the real filesystem.
type OsFs struct {
	afero.OsFs
}

func NewOsFs() FS {
	return &OsFs{}
}

func (*OsFs) Link(oldname, newname string) error {
	return os.Link(oldname, newname)
}
