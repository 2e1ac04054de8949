// Package planner turns a hashed index into link instructions.
package planner

import (
	"github.com/samber/lo"

	"github.com/autobrr/lndup/pkg/groupindex"
	"github.com/autobrr/lndup/pkg/logger"
)

// Solution makes every destination a hard link to Source.
// All paths share Size bytes of identical content on one device.
type Solution struct {
	Size         int64
	Source       string
	Destinations []string
}

type inodePaths struct {
	inode uint64
	paths groupindex.PathList
}

// Plan emits one Solution per content group holding more than one inode.
// The inode with the most recorded paths is kept, ties go to the smallest inode.
// Devices are visited ascending, sizes descending, digests ascending.
func Plan(ix *groupindex.Index) []Solution {
	log := logger.GetLogger("plan")

	var solutions []Solution
	ix.Devices.Ascend(func(_ uint64, sizes *groupindex.SizeMap) bool {
		sizes.Descend(func(size int64, contents *groupindex.ContentMap) bool {
			contents.Ascend(func(key string, inodes *groupindex.InodeMap) bool {
				if key == groupindex.Unhashed || inodes.Len() < 2 {
					return true
				}

				solutions = append(solutions, solve(size, inodes))
				return true
			})
			return true
		})
		return true
	})

	log.Debugf("Planned %d solutions", len(solutions))
	return solutions
}

func solve(size int64, inodes *groupindex.InodeMap) Solution {
	group := make([]inodePaths, 0, inodes.Len())
	inodes.Ascend(func(inode uint64, paths *groupindex.PathList) bool {
		group = append(group, inodePaths{inode: inode, paths: *paths})
		return true
	})

	keep := lo.MaxBy(group, func(a, b inodePaths) bool {
		return len(a.paths) > len(b.paths)
	})

	var dsts []string
	for _, g := range group {
		if g.inode != keep.inode {
			dsts = append(dsts, g.paths...)
		}
	}

	return Solution{
		Size:         size,
		Source:       keep.paths[0],
		Destinations: dsts,
	}
}
