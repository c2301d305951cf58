// Package cli wires the keeper programs into cobra commands: one
// subcommand per record collection, each running a numbered menu loop.
package cli

import (
	"context"
	"io"

	"github.com/denismitr/keeper/internal/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type options struct {
	dataDir    string
	configPath string
	logFile    string
	verbose    bool
}

type runner func(ctx context.Context, s *Session) error

// NewRootCommand reads menu answers from in and writes everything the
// user sees to out.
func NewRootCommand(in io.Reader, out io.Writer) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "keeper",
		Short: "Bank, library and address book programs over JSON files",
		Long: `keeper runs small record keeping programs, each a numbered menu over
JSON files in a data directory:

  keeper bank       savings and checking accounts
  keeper library    books, members, borrowing and returns
  keeper contacts   an address book with CSV export`,
		SilenceUsage: true,
	}

	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(out)

	flags := root.PersistentFlags()
	flags.StringVar(&opts.dataDir, "data-dir", "", "directory holding the JSON files (default \"data\")")
	flags.StringVar(&opts.configPath, "config", "", "YAML config file")
	flags.StringVar(&opts.logFile, "log-file", "", "log file (default <data-dir>/keeper.log)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		newCommand("bank", "Bank simulator: accounts, deposits, withdrawals and transfers", opts, runBank),
		newCommand("library", "Library management: books, members, borrowing and returns", opts, runLibrary),
		newCommand("contacts", "Address manager: add, search, edit, delete and export contacts", opts, runContacts),
	)

	return root
}

func newCommand(use, short string, opts *options, run runner) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.resolve()
			if err != nil {
				return err
			}

			s, err := newSession(cfg, cmd.InOrStdin(), cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer s.Close()

			s.Log.Info("application started", zap.String("command", use), zap.String("data_dir", cfg.DataDir))
			err = run(cmd.Context(), s)
			s.Log.Info("application ended", zap.String("command", use))

			return err
		},
	}
}

// resolve layers defaults, then the config file, then explicit flags.
func (o *options) resolve() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}

	if err := cfg.Override(&config.Config{
		DataDir: o.dataDir,
		LogFile: o.logFile,
		Verbose: o.verbose,
	}); err != nil {
		return nil, err
	}

	return cfg, nil
}
