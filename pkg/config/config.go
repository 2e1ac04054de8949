// Package config assembles run options from defaults and command line flags.
package config

import (
	"runtime"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"github.com/autobrr/lndup/pkg/digest"
)

const DefaultThreshold = 8192

type Options struct {
	Threshold   int64    `koanf:"threshold"`
	Workers     int      `koanf:"workers"`
	ScanWorkers int      `koanf:"scan-workers"`
	DryRun      bool     `koanf:"dry-run"`
	Filters     []string `koanf:"-"`
	Excludes    []string `koanf:"-"`
	Rate        int      `koanf:"rate"`
	LogFile     string   `koanf:"log"`
	Verbosity   int      `koanf:"verbose"`
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"threshold":    DefaultThreshold,
		"workers":      runtime.NumCPU(),
		"scan-workers": 0,
		"dry-run":      false,
		"rate":         0,
		"log":          "",
		"verbose":      0,
	}
}

// RegisterFlags adds the run option flags to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.Int64("threshold", DefaultThreshold, "Base size in bytes below which files are hashed inline")
	fs.Int("workers", runtime.NumCPU(), "Number of parallel hash workers")
	fs.Int("scan-workers", 0, "Number of parallel directory readers (0 = automatic)")
	fs.Bool("dry-run", false, "Print the link plan without changing anything")
	fs.StringArray("filter", nil, "Expression a file must satisfy to be considered (repeatable)")
	fs.StringArray("exclude", nil, "Regular expression of paths to skip (repeatable)")
	fs.Int("rate", 0, "Maximum link replacements per second (0 = unlimited)")
	fs.StringP("log", "l", "", "Also write logs to this file")
	fs.CountP("verbose", "v", "Verbose level")
}

// Load merges defaults with the flags set on fs.
func Load(fs *pflag.FlagSet) (*Options, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, errors.Wrap(err, "load defaults")
	}

	if err := k.Load(posflag.Provider(fs, ".", k), nil); err != nil {
		return nil, errors.Wrap(err, "load flags")
	}

	opts := &Options{}
	if err := k.UnmarshalWithConf("", opts, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, errors.Wrap(err, "unmarshal options")
	}

	// posflag flattens string arrays to one string, take them from the flag set
	var err error
	if opts.Filters, err = fs.GetStringArray("filter"); err != nil {
		return nil, errors.Wrap(err, "read filter flags")
	}
	if opts.Excludes, err = fs.GetStringArray("exclude"); err != nil {
		return nil, errors.Wrap(err, "read exclude flags")
	}

	if err := opts.Validate(); err != nil {
		return nil, err
	}

	return opts, nil
}

func (o *Options) Validate() error {
	switch {
	case o.Threshold < 0:
		return errors.Errorf("threshold must not be negative: %d", o.Threshold)
	case o.Threshold > digest.ChunkSize:
		return errors.Errorf("threshold must not exceed %d: %d", digest.ChunkSize, o.Threshold)
	case o.Workers < 1:
		return errors.Errorf("workers must be at least 1: %d", o.Workers)
	case o.ScanWorkers < 0:
		return errors.Errorf("scan-workers must not be negative: %d", o.ScanWorkers)
	case o.Rate < 0:
		return errors.Errorf("rate must not be negative: %d", o.Rate)
	}
	return nil
}
