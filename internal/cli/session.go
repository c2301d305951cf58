package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/denismitr/keeper"
	"github.com/denismitr/keeper/internal/config"
	"github.com/denismitr/keeper/internal/console"
	"github.com/denismitr/keeper/internal/logging"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Session is everything a menu action needs: settings, logger, console
// and the stores opened for the running command.
type Session struct {
	Config *config.Config
	Log    *zap.Logger
	Report *logging.Reporter
	Prompt *console.Prompter

	out     io.Writer
	closers []keeper.Closer
}

func newSession(cfg *config.Config, in io.Reader, out io.Writer) (*Session, error) {
	lg, err := logging.New(cfg.LogPath(), cfg.Verbose)
	if err != nil {
		return nil, err
	}

	return &Session{
		Config: cfg,
		Log:    lg,
		Report: logging.NewReporter(out, lg),
		Prompt: console.NewPrompter(in, out),
		out:    out,
	}, nil
}

// Open opens file under the data directory. A missing or corrupted file
// is reported and the store starts empty.
func (s *Session) Open(file string, unique []string) (*keeper.Store, error) {
	path := s.Config.Path(file)

	st, closer, err := keeper.Open(path, &keeper.Config{
		Logger:       s.Log.Named("store"),
		InPlaceWrite: s.Config.Store.InPlaceWrite,
		Unique:       unique,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "could not open %s", path)
	}

	s.closers = append(s.closers, closer)

	switch w := st.LoadWarning(); {
	case errors.Is(w, keeper.ErrFileNotFound):
		s.Report.Warn("File %s not found, starting with an empty collection.", file)
	case errors.Is(w, keeper.ErrFileCorrupted):
		s.Report.Warn("Corrupted file %s, starting fresh.", file)
	}

	return st, nil
}

func (s *Session) Journal(file string) (*keeper.Journal, error) {
	st, err := s.Open(file, nil)
	if err != nil {
		return nil, err
	}

	return keeper.NewJournal(st), nil
}

func (s *Session) Println(a ...interface{}) {
	fmt.Fprintln(s.out, a...)
}

// handle reports an operation's error and keeps the menu running. Only
// closed input, cancellation and a closed store end the command.
func (s *Session) handle(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, console.ErrInputClosed),
		errors.Is(err, context.Canceled),
		errors.Is(err, keeper.ErrStoreClosed):
		return err
	default:
		s.Report.Error(err)
		return nil
	}
}

// repeat runs fn until the user declines to continue.
func (s *Session) repeat(ctx context.Context, question string, fn console.Action) error {
	for {
		if err := s.handle(fn(ctx)); err != nil {
			return err
		}

		again, err := s.Prompt.Confirm("\n" + question)
		if err != nil || !again {
			return err
		}
	}
}

func (s *Session) Close() error {
	var firstErr error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	s.closers = nil

	_ = s.Log.Sync()

	return firstErr
}
