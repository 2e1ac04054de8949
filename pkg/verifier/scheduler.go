package verifier

// DefaultThreshold is the starting inline hashing limit in bytes.
const DefaultThreshold = 8192

// flowWindow is the number of samples after which both flows are halved.
// The window then restarts at half its length, so after the first 8 samples
// the flows halve every 4 hashed files.
const flowWindow = 8

// Scheduler decides whether a file is hashed inline or by the worker pool.
//
// It tracks the decayed byte volume sent each way and moves the threshold to
// base * flowExt / (flowInt + flowExt). A run of small inline files pulls the
// threshold down so the next files go to the pool, a run of delegated files
// pushes it back up toward base.
type Scheduler struct {
	base      int64
	threshold int64
	flowInt   int64
	flowExt   int64
	flowN     int
}

func NewScheduler(base int64) *Scheduler {
	if base < 0 {
		base = 0
	}
	return &Scheduler{base: base, threshold: base}
}

func (s *Scheduler) Threshold() int64 {
	return s.threshold
}

// Inline reports whether a file of the given size should be hashed on the caller.
func (s *Scheduler) Inline(size int64) bool {
	return size <= s.threshold
}

// Record accounts one hashed file and retunes the threshold.
func (s *Scheduler) Record(size int64, inline bool) {
	if inline {
		s.flowInt += size
	} else {
		s.flowExt += size
	}
	s.flowN++

	if total := s.flowInt + s.flowExt; total > 0 {
		s.threshold = int64(float64(s.base) * float64(s.flowExt) / float64(total))
	}

	if s.flowN == flowWindow {
		s.flowN = flowWindow / 2
		s.flowInt >>= 1
		s.flowExt >>= 1
	}
}
