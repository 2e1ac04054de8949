// Package groupindex holds candidate files nested by
// device → size → content key → inode → paths, each level iterated in key order.
package groupindex

// Unhashed is the content key of inodes that were not hashed yet. It sorts before any digest.
const Unhashed = ""

// PathList holds every recorded name of one inode. All of them are interchangeable link sources.
type PathList []string

type (
	InodeMap   = Map[uint64, *PathList]
	ContentMap = Map[string, *InodeMap]
	SizeMap    = Map[int64, *ContentMap]
	DeviceMap  = Map[uint64, *SizeMap]
)

func NewInodeMap() *InodeMap     { return NewMap[uint64, *PathList]() }
func NewContentMap() *ContentMap { return NewMap[string, *InodeMap]() }
func NewSizeMap() *SizeMap       { return NewMap[int64, *ContentMap]() }

func newPathList() *PathList { return &PathList{} }

type Index struct {
	Devices *DeviceMap
}

func New() *Index {
	return &Index{Devices: NewMap[uint64, *SizeMap]()}
}

// Add records path under (device, size, Unhashed, inode).
func (ix *Index) Add(device uint64, size int64, inode uint64, path string) {
	sizes := ix.Devices.GetOrInsert(device, NewSizeMap)
	contents := sizes.GetOrInsert(size, NewContentMap)
	AddPath(contents, Unhashed, inode, path)
}

// AddPath appends path to the inode's list under the given content key.
func AddPath(contents *ContentMap, key string, inode uint64, path string) {
	inodes := contents.GetOrInsert(key, NewInodeMap)
	list := inodes.GetOrInsert(inode, newPathList)
	*list = append(*list, path)
}

// Rekey stores an inode's path list under a content key.
func Rekey(contents *ContentMap, key string, inode uint64, paths *PathList) {
	contents.GetOrInsert(key, NewInodeMap).Set(inode, paths)
}

// Counts returns how many inodes and paths the index holds.
func (ix *Index) Counts() (inodes int, paths int) {
	ix.Devices.Ascend(func(_ uint64, sizes *SizeMap) bool {
		sizes.Ascend(func(_ int64, contents *ContentMap) bool {
			contents.Ascend(func(_ string, im *InodeMap) bool {
				inodes += im.Len()
				im.Ascend(func(_ uint64, pl *PathList) bool {
					paths += len(*pl)
					return true
				})
				return true
			})
			return true
		})
		return true
	})
	return inodes, paths
}
