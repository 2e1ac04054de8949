package linkinfo

import (
	"fmt"
)

// FileID represents a unique file identifier (device ID + inode number).
type FileID struct {
	Device uint64 // Device ID
	Inode  uint64 // Inode number
}

// String returns a string representation of the FileID.
func (f FileID) String() string {
	return fmt.Sprintf("%d:%d", f.Device, f.Inode)
}

// Info is the link identity of a path plus how many names the inode has.
type Info struct {
	FileID
	Nlink uint64
}
