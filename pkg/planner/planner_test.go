package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/autobrr/lndup/pkg/groupindex"
)

func add(ix *groupindex.Index, device uint64, size int64, key string, inode uint64, paths ...string) {
	sizes := ix.Devices.GetOrInsert(device, groupindex.NewSizeMap)
	contents := sizes.GetOrInsert(size, groupindex.NewContentMap)
	for _, p := range paths {
		groupindex.AddPath(contents, key, inode, p)
	}
}

func TestPlan_KeepsMostLinkedInode(t *testing.T) {
	ix := groupindex.New()
	add(ix, 1, 100, "h1", 10, "/a")
	add(ix, 1, 100, "h1", 11, "/b", "/b2")
	add(ix, 1, 100, "h1", 12, "/c")
	add(ix, 1, 100, "h2", 13, "/d")

	assert.Equal(t, []Solution{
		{Size: 100, Source: "/b", Destinations: []string{"/a", "/c"}},
	}, Plan(ix))
}

func TestPlan_TieBreaksOnSmallestInode(t *testing.T) {
	ix := groupindex.New()
	add(ix, 1, 10, "h", 30, "/z")
	add(ix, 1, 10, "h", 20, "/y")
	add(ix, 1, 10, "h", 25, "/x1", "/x2")
	add(ix, 1, 10, "h", 5, "/w1", "/w2")

	assert.Equal(t, []Solution{
		{Size: 10, Source: "/w1", Destinations: []string{"/y", "/x1", "/x2", "/z"}},
	}, Plan(ix))
}

func TestPlan_Skips(t *testing.T) {
	ix := groupindex.New()
	// one inode with many names is already deduplicated
	add(ix, 1, 10, "h", 1, "/a", "/b")
	// unhashed leftovers are never linked
	add(ix, 1, 20, groupindex.Unhashed, 2, "/c")
	add(ix, 1, 20, groupindex.Unhashed, 3, "/d")

	assert.Empty(t, Plan(ix))
}

func TestPlan_NeverCrossesDevices(t *testing.T) {
	ix := groupindex.New()
	add(ix, 1, 10, "h", 1, "/dev1/a")
	add(ix, 2, 10, "h", 2, "/dev2/a")

	assert.Empty(t, Plan(ix))
}

func TestPlan_Order(t *testing.T) {
	ix := groupindex.New()
	add(ix, 2, 10, "h", 1, "/d2-a")
	add(ix, 2, 10, "h", 2, "/d2-b")
	add(ix, 1, 10, "h", 1, "/small-a")
	add(ix, 1, 10, "h", 2, "/small-b")
	add(ix, 1, 99, "b", 3, "/big-b1")
	add(ix, 1, 99, "b", 4, "/big-b2")
	add(ix, 1, 99, "a", 5, "/big-a1")
	add(ix, 1, 99, "a", 6, "/big-a2")

	var sources []string
	for _, s := range Plan(ix) {
		sources = append(sources, s.Source)
	}
	assert.Equal(t, []string{"/big-a1", "/big-b1", "/small-a", "/d2-a"}, sources)
}
