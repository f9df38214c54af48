package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/castaway-league/internal/app"
	"github.com/riskibarqy/castaway-league/internal/usecase"
	"github.com/spf13/cobra"
)

// AppFactory builds the engine once per invocation, after flags are parsed.
type AppFactory func(ctx context.Context, opts *RootOptions) (*app.App, error)

type RootOptions struct {
	EnvFile string
	Compact bool

	factory AppFactory
	app     *app.App
}

func (o *RootOptions) engine() *app.App {
	return o.app
}

func NewRootCommand(factory AppFactory) *cobra.Command {
	opts := &RootOptions{factory: factory}

	cmd := &cobra.Command{
		Use:           "leaguectl",
		Short:         "Operate castaway fantasy leagues",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if opts.app != nil {
				return nil
			}
			a, err := opts.factory(cmd.Context(), opts)
			if err != nil {
				return err
			}
			opts.app = a
			return nil
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if opts.app == nil {
				return nil
			}
			err := opts.app.Close()
			opts.app = nil
			return err
		},
	}

	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", ".env", "dotenv file loaded before the environment")
	cmd.PersistentFlags().BoolVar(&opts.Compact, "compact", false, "print single-line JSON")

	cmd.AddCommand(newDraftCommand(opts))
	cmd.AddCommand(newWeeklyPickCommand(opts))
	cmd.AddCommand(newWaiverCommand(opts))
	cmd.AddCommand(newScoreCommand(opts))
	cmd.AddCommand(newStandingsCommand(opts))

	return cmd
}

func writeJSON(w io.Writer, opts *RootOptions, v any) error {
	var (
		raw []byte
		err error
	)
	if opts.Compact {
		raw, err = sonic.Marshal(v)
	} else {
		raw, err = sonic.MarshalIndent(v, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(raw))
	return err
}

const (
	ExitOK           = 0
	ExitFailure      = 1
	ExitInvalidInput = 2
	ExitNotFound     = 3
	ExitRejected     = 4
	ExitConflict     = 5
)

// ExitCode maps use case error categories onto process exit codes.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, usecase.ErrInvalidInput):
		return ExitInvalidInput
	case errors.Is(err, usecase.ErrNotFound):
		return ExitNotFound
	case errors.Is(err, usecase.ErrConflict):
		return ExitConflict
	case errors.Is(err, usecase.ErrPrecondition), errors.Is(err, usecase.ErrForbidden):
		return ExitRejected
	default:
		return ExitFailure
	}
}
