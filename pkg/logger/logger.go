package logger

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/natefinch/lumberjack"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/writer"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

// Config controls where log lines end up.
// Info and below go to Stdout, warnings and errors to Stderr.
type Config struct {
	Verbosity int
	File      string
	Stdout    io.Writer
	Stderr    io.Writer
}

var errorLevels = []logrus.Level{
	logrus.PanicLevel,
	logrus.FatalLevel,
	logrus.ErrorLevel,
	logrus.WarnLevel,
}

var outputLevels = []logrus.Level{
	logrus.InfoLevel,
	logrus.DebugLevel,
	logrus.TraceLevel,
}

func Init(cfg Config) error {
	if cfg.Stdout == nil {
		cfg.Stdout = os.Stdout
	}
	if cfg.Stderr == nil {
		cfg.Stderr = os.Stderr
	}

	// set log level
	logLevel := logrus.InfoLevel
	switch {
	case cfg.Verbosity == 1:
		logLevel = logrus.DebugLevel
	case cfg.Verbosity > 1:
		logLevel = logrus.TraceLevel
	}

	log := logrus.StandardLogger()
	log.SetLevel(logLevel)
	log.SetFormatter(&prefixed.TextFormatter{
		ForceFormatting:  true,
		FullTimestamp:    true,
		TimestampFormat:  time.Stamp,
		QuoteEmptyFields: true,
	})

	// every line is routed by a hook
	log.SetOutput(io.Discard)
	log.ReplaceHooks(make(logrus.LevelHooks))
	log.AddHook(&writer.Hook{Writer: cfg.Stdout, LogLevels: outputLevels})
	log.AddHook(&writer.Hook{Writer: cfg.Stderr, LogLevels: errorLevels})

	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return errors.Wrapf(err, "create log directory for %s", cfg.File)
		}

		rotate := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    5,
			MaxAge:     14,
			MaxBackups: 5,
		}
		log.AddHook(&writer.Hook{Writer: rotate, LogLevels: logrus.AllLevels})
	}

	return nil
}

func GetLogger(prefix string) *logrus.Entry {
	return logrus.WithField("prefix", prefix)
}
