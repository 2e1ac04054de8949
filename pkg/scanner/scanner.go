// Package scanner enumerates regular files below a set of roots and groups them
// by device and size in a groupindex.Index.
package scanner

import (
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/charlievieth/fastwalk"
	"github.com/dlclark/regexp2"
	"github.com/pkg/errors"
	"github.com/scylladb/go-set/strset"
	"github.com/sirupsen/logrus"

	"github.com/autobrr/lndup/pkg/expression"
	"github.com/autobrr/lndup/pkg/groupindex"
	"github.com/autobrr/lndup/pkg/linkinfo"
	"github.com/autobrr/lndup/pkg/logger"
	"github.com/autobrr/lndup/pkg/stats"
)

// FileRecord is one regular file found by the traversal.
type FileRecord struct {
	Path   string
	Device uint64
	Inode  uint64
	Size   int64
	Nlink  uint64
}

type Options struct {
	// Filters must all hold for a file to be selected.
	Filters []expression.CompiledExpression
	// Exclude skips matching directories and files.
	Exclude []*regexp2.Regexp
	// Workers is the fastwalk concurrency, 0 picks the library default.
	Workers int
}

type eventKind int

const (
	eventEntry eventKind = iota
	eventError
)

type event struct {
	kind eventKind
	root bool
	path string
	mode fs.FileMode
	size int64
	link linkinfo.Info
	err  error
}

type Scanner struct {
	log  *logrus.Entry
	opts Options
	run  *stats.Run
}

func New(opts Options, run *stats.Run) *Scanner {
	return &Scanner{
		log:  logger.GetLogger("scan"),
		opts: opts,
		run:  run,
	}
}

// CompileExcludes turns exclude patterns into regexps.
func CompileExcludes(patterns []string) ([]*regexp2.Regexp, error) {
	res := make([]*regexp2.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp2.Compile(p, regexp2.None)
		if err != nil {
			return nil, errors.Wrapf(err, "compile exclude pattern %q", p)
		}
		res = append(res, re)
	}
	return res, nil
}

// Scan walks every root concurrently and returns the populated index.
// Per-entry failures are logged and counted, never returned.
func (s *Scanner) Scan(roots []string) *groupindex.Index {
	events := make(chan event, 1024)

	var wg sync.WaitGroup
	for _, root := range roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			s.report(errors.Wrapf(err, "resolve %s", root))
			continue
		}

		wg.Add(1)
		go func(root string) {
			defer wg.Done()
			s.walk(root, events)
		}(abs)
	}

	go func() {
		wg.Wait()
		close(events)
	}()

	ix := groupindex.New()
	seen := strset.New()
	for ev := range events {
		if ev.kind == eventError {
			s.report(ev.err)
			continue
		}

		if seen.Has(ev.path) {
			continue
		}
		seen.Add(ev.path)

		s.record(ix, ev)
	}

	return ix
}

func (s *Scanner) record(ix *groupindex.Index, ev event) {
	p := &s.run.Probe

	p.Stat.N++
	if !ev.root {
		p.Readdir.Size += uint64(len(ev.path))
	}

	switch {
	case ev.mode.IsDir():
		p.Readdir.N++
		return
	case !ev.mode.IsRegular():
		s.log.Tracef("Skipping non-regular file: %q", ev.path)
		return
	}

	p.Stat.Size += uint64(ev.size)

	if ev.size == 0 {
		return
	}

	rec := FileRecord{
		Path:   ev.path,
		Device: ev.link.Device,
		Inode:  ev.link.Inode,
		Size:   ev.size,
		Nlink:  ev.link.Nlink,
	}

	if !s.accept(rec) {
		return
	}

	ix.Add(rec.Device, rec.Size, rec.Inode, rec.Path)
	p.Select.Add(uint64(rec.Size))
	if rec.Nlink > 1 {
		p.Linked.Add(uint64(rec.Size))
		s.log.Tracef("Already linked %q: %s has %d names", rec.Path, ev.link.FileID, rec.Nlink)
	}
}

func (s *Scanner) accept(rec FileRecord) bool {
	if len(s.opts.Filters) == 0 {
		return true
	}

	match, reasons, err := expression.CheckAllMatch(&expression.File{
		Path:   rec.Path,
		Name:   filepath.Base(rec.Path),
		Dir:    filepath.Dir(rec.Path),
		Size:   rec.Size,
		Device: rec.Device,
		Inode:  rec.Inode,
		Links:  rec.Nlink,
	}, s.opts.Filters)
	if err != nil {
		s.report(errors.Wrapf(err, "filter %s", rec.Path))
		return false
	}

	if !match {
		s.log.Tracef("Filtered out %q: %v", rec.Path, reasons)
	}
	return match
}

func (s *Scanner) report(err error) {
	s.run.Probe.Errors++
	s.log.WithError(err).Error("Skipping entry")
}

func (s *Scanner) excluded(path string) bool {
	for _, re := range s.opts.Exclude {
		ok, err := re.MatchString(path)
		if err != nil {
			s.log.WithError(err).Warnf("Failed matching exclude %q against %q", re.String(), path)
			continue
		}
		if ok {
			return true
		}
	}
	return false
}

func (s *Scanner) walk(root string, events chan<- event) {
	info, err := os.Lstat(root)
	if err != nil {
		events <- event{kind: eventError, path: root, err: errors.Wrapf(err, "lstat %s", root)}
		return
	}

	if s.excluded(root) {
		return
	}

	events <- s.entry(root, true, info)
	if !info.IsDir() {
		return
	}

	conf := fastwalk.Config{
		Follow:     false,
		NumWorkers: s.opts.Workers,
	}

	err = fastwalk.Walk(&conf, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			events <- event{kind: eventError, path: path, err: errors.Wrapf(err, "walk %s", path)}
			return nil
		}

		if path == root {
			return nil
		}

		if s.excluded(path) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		info, err := d.Info()
		if err != nil {
			events <- event{kind: eventError, path: path, err: errors.Wrapf(err, "lstat %s", path)}
			return nil
		}

		events <- s.entry(path, false, info)
		return nil
	})
	if err != nil {
		events <- event{kind: eventError, path: root, err: errors.Wrapf(err, "walk %s", root)}
	}
}

func (s *Scanner) entry(path string, root bool, info fs.FileInfo) event {
	ev := event{
		kind: eventEntry,
		root: root,
		path: path,
		mode: info.Mode(),
		size: info.Size(),
	}

	if !ev.mode.IsRegular() {
		return ev
	}

	link, err := linkinfo.FromFileInfo(path, info)
	if err != nil {
		return event{kind: eventError, path: path, err: err}
	}
	ev.link = link
	return ev
}
