//go:build !windows

package linkinfo

import (
	"io/fs"
	"syscall"

	"github.com/pkg/errors"
)

// FromFileInfo returns the device, inode and link count behind info.
// The stat data already carried by info is used when present, otherwise path is lstat-ed.
func FromFileInfo(path string, info fs.FileInfo) (Info, error) {
	if info != nil {
		if stat, ok := info.Sys().(*syscall.Stat_t); ok {
			return fromStat(stat), nil
		}
	}

	return Lookup(path)
}

// Lookup lstat-s path directly.
func Lookup(path string) (Info, error) {
	var stat syscall.Stat_t
	if err := syscall.Lstat(path, &stat); err != nil {
		return Info{}, errors.Wrapf(err, "lstat %s", path)
	}

	return fromStat(&stat), nil
}

func fromStat(stat *syscall.Stat_t) Info {
	return Info{
		FileID: FileID{
			Device: uint64(stat.Dev),
			Inode:  uint64(stat.Ino),
		},
		Nlink: uint64(stat.Nlink),
	}
}
