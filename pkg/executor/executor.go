// Package executor replaces duplicate files with hard links.
package executor

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"

	"github.com/autobrr/lndup/pkg/fsys"
	"github.com/autobrr/lndup/pkg/logger"
	"github.com/autobrr/lndup/pkg/planner"
	"github.com/autobrr/lndup/pkg/stats"
)

// RecoveryError is returned when a failed link could not be rolled back.
// The original destination content is left at Tmp.
type RecoveryError struct {
	Src         string
	Dst         string
	Tmp         string
	Err         error
	RollbackErr error
}

func (e *RecoveryError) Error() string {
	return fmt.Sprintf("link %s to %s: %v; restoring %s failed: %v", e.Src, e.Dst, e.Err, e.Tmp, e.RollbackErr)
}

func (e *RecoveryError) Unwrap() error {
	return e.Err
}

// Command is the shell command that restores the destination by hand.
func (e *RecoveryError) Command() string {
	return fmt.Sprintf("mv -f -- '%s' '%s'", e.Tmp, e.Dst)
}

type Options struct {
	DryRun bool
	// Limiter paces link replacements, nil means unlimited.
	Limiter ratelimit.Limiter
}

type Executor struct {
	log  *logrus.Entry
	fs   fsys.FS
	opts Options
	run  *stats.Run
}

func New(fs fsys.FS, opts Options, run *stats.Run) *Executor {
	if opts.Limiter == nil {
		opts.Limiter = ratelimit.NewUnlimited()
	}

	return &Executor{
		log:  logger.GetLogger("execute"),
		fs:   fs,
		opts: opts,
		run:  run,
	}
}

// Execute applies every solution, continuing past individual failures.
func (e *Executor) Execute(solutions []planner.Solution) {
	ex := &e.run.Execute

	for _, s := range solutions {
		size := uint64(s.Size)
		succeeded, failed := false, false

		for _, dst := range s.Destinations {
			ex.Todo.Size += size
			ex.Todo.Dst++

			if e.opts.DryRun {
				e.log.Infof("ln -f -- '%s' '%s'", s.Source, dst)
				continue
			}

			e.opts.Limiter.Take()

			if err := e.Link(s.Source, dst); err != nil {
				e.log.WithError(err).Errorf("ln -f -- '%s' '%s'", s.Source, dst)
				ex.Fail.Size += size
				ex.Fail.Dst++
				failed = true
				continue
			}

			e.log.Debugf("Linked %q -> %q", dst, s.Source)
			ex.Done.Size += size
			ex.Done.Dst++
			succeeded = true
		}

		ex.Todo.Src++
		if succeeded {
			ex.Done.Src++
		}
		if failed {
			ex.Fail.Src++
		}
	}
}

// Link makes dst a hard link to src without ever losing dst's content:
// dst is renamed to a random sibling, src is linked in its place, then the sibling
// is removed. If linking fails the sibling is renamed back.
func (e *Executor) Link(src, dst string) error {
	tmp, err := tempName(dst)
	if err != nil {
		return err
	}

	if err := e.fs.Rename(dst, tmp); err != nil {
		return errors.Wrapf(err, "move %s aside", dst)
	}

	if err := e.fs.Link(src, dst); err != nil {
		if rerr := e.fs.Rename(tmp, dst); rerr != nil {
			rec := &RecoveryError{Src: src, Dst: dst, Tmp: tmp, Err: err, RollbackErr: rerr}
			e.log.WithError(rerr).Errorf("%s", rec.Command())
			return rec
		}
		return errors.Wrapf(err, "link %s to %s", src, dst)
	}

	if err := e.fs.Remove(tmp); err != nil {
		e.log.WithError(err).Warnf("rm -f -- '%s'", tmp)
	}

	return nil
}

func tempName(path string) (string, error) {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Wrap(err, "generate temporary name")
	}
	return path + "." + hex.EncodeToString(b), nil
}
