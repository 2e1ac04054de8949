// Package verifier splits (device, size) groups by content hash.
package verifier

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/autobrr/lndup/pkg/digest"
	"github.com/autobrr/lndup/pkg/groupindex"
	"github.com/autobrr/lndup/pkg/hashpool"
	"github.com/autobrr/lndup/pkg/logger"
	"github.com/autobrr/lndup/pkg/stats"
)

type Verifier struct {
	log   *logrus.Entry
	fs    afero.Fs
	pool  *hashpool.Pool
	sched *Scheduler
	run   *stats.Run
	buf   []byte
}

// New returns a verifier whose inline threshold starts at threshold, capped at
// digest.ChunkSize so inline reads never exceed one chunk.
func New(fs afero.Fs, pool *hashpool.Pool, threshold int64, run *stats.Run) *Verifier {
	if threshold > digest.ChunkSize {
		threshold = digest.ChunkSize
	}

	return &Verifier{
		log:   logger.GetLogger("verify"),
		fs:    fs,
		pool:  pool,
		sched: NewScheduler(threshold),
		run:   run,
	}
}

// Verify re-keys every (device, size) group holding more than one inode by content
// digest and drops the unhashed key from every group. Sizes are visited largest
// first so big files reach the pool early. The pool is closed before returning.
func (v *Verifier) Verify(ix *groupindex.Index) {
	ix.Devices.Ascend(func(device uint64, sizes *groupindex.SizeMap) bool {
		sizes.Descend(func(size int64, contents *groupindex.ContentMap) bool {
			inodes, ok := contents.Get(groupindex.Unhashed)
			if !ok {
				return true
			}

			if inodes.Len() > 1 {
				v.log.Tracef("Hashing %d inodes of %d bytes on device %d", inodes.Len(), size, device)
				inodes.Ascend(func(inode uint64, paths *groupindex.PathList) bool {
					v.hash(contents, size, inode, paths)
					return true
				})
			}

			contents.Delete(groupindex.Unhashed)
			return true
		})
		return true
	})

	v.log.Debugf("Waiting for %d delegated hashes on %d workers", v.pool.Inflight(), v.pool.Size())
	v.pool.Close()
}

func (v *Verifier) hash(contents *groupindex.ContentMap, size int64, inode uint64, paths *groupindex.PathList) {
	path := (*paths)[0]
	inline := v.sched.Inline(size)

	if inline {
		v.run.Verify.Inline.Add(uint64(size))
		if int64(len(v.buf)) < size {
			v.buf = make([]byte, size)
		}

		d, err := digest.Small(v.fs, path, size, v.buf)
		v.store(contents, inode, paths, d, err)
	} else {
		v.run.Verify.Delegated.Add(uint64(size))
		v.pool.Submit(path, func(d digest.Digest, err error) {
			v.store(contents, inode, paths, d, err)
		})
	}

	v.sched.Record(size, inline)
	v.run.Verify.SampleThreshold(v.sched.Threshold())

	v.pool.Poll()
}

func (v *Verifier) store(contents *groupindex.ContentMap, inode uint64, paths *groupindex.PathList, d digest.Digest, err error) {
	if err != nil || d.IsZero() {
		v.run.Verify.Failed++
		v.log.WithError(err).Errorf("Dropping inode %d, hashing failed: %q", inode, (*paths)[0])
		return
	}

	groupindex.Rekey(contents, d.Key(), inode, paths)
}
