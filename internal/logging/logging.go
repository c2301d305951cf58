// Package logging builds the zap logger every command writes to and a
// Reporter that shows a message to the user and logs it in one call.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New writes JSON lines to path. Debug level is enabled with verbose.
func New(path string, verbose bool) (*zap.Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.Wrapf(err, "could not create log directory for %s", path)
	}

	config := zap.NewProductionConfig()
	config.OutputPaths = []string{path}
	config.ErrorOutputPaths = []string{path}
	config.EncoderConfig.TimeKey = "time"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	logger, err := config.Build()
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize logger")
	}

	return logger, nil
}

// Reporter prints to the console and logs the same message.
type Reporter struct {
	out io.Writer
	log *zap.Logger
}

func NewReporter(out io.Writer, log *zap.Logger) *Reporter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Reporter{out: out, log: log}
}

func (r *Reporter) Info(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	r.log.Info(msg)
	fmt.Fprintln(r.out, msg)
}

func (r *Reporter) Warn(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	r.log.Warn(msg)
	fmt.Fprintln(r.out, msg)
}

// Error reports err's message. Wrapped context stays in the log only.
func (r *Reporter) Error(err error) {
	r.log.Error(err.Error(), zap.Error(err))
	fmt.Fprintln(r.out, errors.Cause(err).Error())
}

func (r *Reporter) Logger() *zap.Logger {
	return r.log
}
