// Package stats is the run-scoped counter sink shared by the pipeline stages.
package stats

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shirou/gopsutil/process"
	"github.com/sirupsen/logrus"
)

type Stage string

const (
	StageProbe   Stage = "1-probe"
	StageVerify  Stage = "2-verify"
	StageAnswer  Stage = "3-answer"
	StageExecute Stage = "execute"
)

// Counter is a count of items and the bytes they account for.
type Counter struct {
	N    uint64
	Size uint64
}

func (c *Counter) Add(size uint64) {
	c.N++
	c.Size += size
}

type Probe struct {
	Readdir Counter // Size is the total length of listed names
	Stat    Counter
	Select  Counter
	Linked  Counter // selected files whose inode already has other names
	Errors  uint64
}

type Verify struct {
	Inline    Counter
	Delegated Counter
	Failed    uint64

	thresholdSum uint64
	thresholdN   uint64
}

// SampleThreshold records the threshold in effect after one scheduling decision.
func (v *Verify) SampleThreshold(threshold int64) {
	v.thresholdSum += uint64(threshold)
	v.thresholdN++
}

// AverageThreshold is the mean threshold over all samples, 0 without samples.
func (v *Verify) AverageThreshold() float64 {
	if v.thresholdN == 0 {
		return 0
	}
	return float64(v.thresholdSum) / float64(v.thresholdN)
}

// Tally counts bytes, sources and destinations of link operations.
type Tally struct {
	Size uint64
	Src  uint64
	Dst  uint64
}

type Execute struct {
	Todo Tally
	Done Tally
	Fail Tally
}

// Run aggregates every stage's counters for one invocation.
type Run struct {
	Probe   Probe
	Verify  Verify
	Execute Execute

	started time.Time
	stages  []Stage
	begin   map[Stage]time.Time
	elapsed map[Stage]time.Duration
	nowFunc func() time.Time
}

func New() *Run {
	r := &Run{
		begin:   make(map[Stage]time.Time),
		elapsed: make(map[Stage]time.Duration),
		nowFunc: time.Now,
	}
	r.started = r.nowFunc()
	return r
}

func (r *Run) Begin(stage Stage) {
	if _, ok := r.begin[stage]; !ok {
		r.stages = append(r.stages, stage)
	}
	r.begin[stage] = r.nowFunc()
}

func (r *Run) End(stage Stage) time.Duration {
	start, ok := r.begin[stage]
	if !ok {
		return 0
	}
	d := r.nowFunc().Sub(start)
	r.elapsed[stage] = d
	return d
}

func (r *Run) Elapsed(stage Stage) time.Duration {
	return r.elapsed[stage]
}

// Scheme is the time spent deciding what to link, before any mutation.
func (r *Run) Scheme() time.Duration {
	return r.Elapsed(StageProbe) + r.Elapsed(StageVerify) + r.Elapsed(StageAnswer)
}

func percent(part, total uint64) string {
	if total == 0 {
		return "0.00%"
	}
	return fmt.Sprintf("%.2f%%", float64(part)*100/float64(total))
}

func average(c Counter) string {
	if c.N == 0 {
		return "NaN"
	}
	return humanize.IBytes(c.Size / c.N)
}

func ratio(a, b Counter) string {
	if a.N == 0 || b.N == 0 || b.Size == 0 {
		return "NaN"
	}
	return fmt.Sprintf("%.2fx", (float64(a.Size)/float64(a.N))/(float64(b.Size)/float64(b.N)))
}

func (r *Run) ReportProbe(log *logrus.Entry) {
	p := r.Probe
	log.Infof("Readdir: %d %s", p.Readdir.N, humanize.IBytes(p.Readdir.Size))
	log.Infof("Stat:    %d %s", p.Stat.N, humanize.IBytes(p.Stat.Size))
	log.Infof("Select:  %d %s", p.Select.N, humanize.IBytes(p.Select.Size))
	log.Infof("Linked:  %d %s", p.Linked.N, humanize.IBytes(p.Linked.Size))
	if p.Errors > 0 {
		log.Warnf("Skipped %d entries due to errors", p.Errors)
	}
}

func (r *Run) ReportVerify(log *logrus.Entry) {
	v := r.Verify
	n := v.Inline.N + v.Delegated.N
	size := v.Inline.Size + v.Delegated.Size

	log.Infof("Hash-Int: %s %s %d %s %s 1.00x",
		humanize.IBytes(v.Inline.Size), percent(v.Inline.Size, size),
		v.Inline.N, percent(v.Inline.N, n), average(v.Inline))
	log.Infof("Hash-Ext: %s %s %d %s %s %s",
		humanize.IBytes(v.Delegated.Size), percent(v.Delegated.Size, size),
		v.Delegated.N, percent(v.Delegated.N, n), average(v.Delegated), ratio(v.Delegated, v.Inline))
	log.Infof("Threshold: avg: %s", humanize.IBytes(uint64(v.AverageThreshold())))
	if v.Failed > 0 {
		log.Warnf("Dropped %d inodes that could not be hashed", v.Failed)
	}
}

func (r *Run) ReportResult(log *logrus.Entry) {
	e := r.Execute
	for _, row := range []struct {
		name  string
		tally Tally
	}{
		{"TODO", e.Todo},
		{"DONE", e.Done},
		{"FAIL", e.Fail},
	} {
		log.Infof("%s: %s %d %d %d", row.name, humanize.IBytes(row.tally.Size), row.tally.Size,
			row.tally.Src, row.tally.Dst)
	}
}

func (r *Run) ReportProfile(log *logrus.Entry) {
	for _, stage := range r.stages {
		log.Infof("Time: %s: %s", stage, r.Elapsed(stage).Truncate(time.Millisecond))
	}
	log.Infof("Time: scheme: %s", r.Scheme().Truncate(time.Millisecond))
	log.Infof("Time: total: %s", r.nowFunc().Sub(r.started).Truncate(time.Millisecond))

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	log.Infof("Memory: heapInUse: %s", humanize.IBytes(mem.HeapInuse))
	log.Infof("Memory: heapSys: %s", humanize.IBytes(mem.HeapSys))

	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		log.WithError(err).Debug("Failed reading process info")
		return
	}
	info, err := proc.MemoryInfo()
	if err != nil {
		log.WithError(err).Debug("Failed reading process memory")
		return
	}
	log.Infof("Memory: rss: %s", humanize.IBytes(info.RSS))
}
