package cmd

import (
	"go.uber.org/ratelimit"

	"github.com/autobrr/lndup/pkg/config"
	"github.com/autobrr/lndup/pkg/executor"
	"github.com/autobrr/lndup/pkg/expression"
	"github.com/autobrr/lndup/pkg/fsys"
	"github.com/autobrr/lndup/pkg/hashpool"
	"github.com/autobrr/lndup/pkg/logger"
	"github.com/autobrr/lndup/pkg/planner"
	"github.com/autobrr/lndup/pkg/scanner"
	"github.com/autobrr/lndup/pkg/stats"
	"github.com/autobrr/lndup/pkg/verifier"
)

// runDedup runs probe, verify, answer and execute back to back.
// Each stage consumes the full output of the previous one.
func runDedup(roots []string, opts *config.Options, fs fsys.FS) (*stats.Run, error) {
	log := logger.GetLogger("lndup")

	filters, err := expression.Compile(opts.Filters)
	if err != nil {
		return nil, err
	}

	excludes, err := scanner.CompileExcludes(opts.Excludes)
	if err != nil {
		return nil, err
	}

	run := stats.New()

	// probe
	run.Begin(stats.StageProbe)
	ix := scanner.New(scanner.Options{
		Filters: filters,
		Exclude: excludes,
		Workers: opts.ScanWorkers,
	}, run).Scan(roots)
	run.End(stats.StageProbe)
	run.ReportProbe(logger.GetLogger(string(stats.StageProbe)))

	inodes, paths := ix.Counts()
	log.Debugf("Indexed %d paths over %d inodes", paths, inodes)

	// verify
	run.Begin(stats.StageVerify)
	pool := hashpool.New(fs, opts.Workers)
	verifier.New(fs, pool, opts.Threshold, run).Verify(ix)
	run.End(stats.StageVerify)
	run.ReportVerify(logger.GetLogger(string(stats.StageVerify)))

	// answer
	run.Begin(stats.StageAnswer)
	solutions := planner.Plan(ix)
	run.End(stats.StageAnswer)
	log.Infof("Planned %d solutions", len(solutions))

	// execute
	var limiter ratelimit.Limiter
	if opts.Rate > 0 {
		limiter = ratelimit.New(opts.Rate)
	}

	if opts.DryRun {
		log.Warn("Dry-run enabled, skipping link...")
	}

	run.Begin(stats.StageExecute)
	executor.New(fs, executor.Options{DryRun: opts.DryRun, Limiter: limiter}, run).Execute(solutions)
	run.End(stats.StageExecute)

	run.ReportProfile(logger.GetLogger("profile"))
	run.ReportResult(logger.GetLogger("result"))

	return run, nil
}
