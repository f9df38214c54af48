package cli

import (
	"github.com/riskibarqy/castaway-league/internal/usecase"
	"github.com/spf13/cobra"
)

func newDraftCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "draft",
		Short: "Run snake drafts",
	}

	var (
		order  []string
		random bool
	)
	orderCmd := &cobra.Command{
		Use:   "order <league-id>",
		Short: "Set the draft order while the draft is pending",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			item, err := opts.engine().Services.Draft.SetDraftOrder(cmd.Context(), usecase.SetDraftOrderInput{
				LeagueID:  args[0],
				Order:     order,
				Randomize: random,
			})
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), opts, item)
		},
	}
	orderCmd.Flags().StringSliceVar(&order, "member", nil, "member ids in pick order")
	orderCmd.Flags().BoolVar(&random, "random", false, "shuffle the league members")

	leagueOp := func(use, short string, run func(cmd *cobra.Command, leagueID string) (any, error)) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <league-id>",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				out, err := run(cmd, args[0])
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), opts, out)
			},
		}
	}

	cmd.AddCommand(
		orderCmd,
		leagueOp("start", "Start the draft, randomizing a missing order", func(cmd *cobra.Command, leagueID string) (any, error) {
			return opts.engine().Services.Draft.StartDraft(cmd.Context(), leagueID)
		}),
		leagueOp("pause", "Pause an in-progress draft", func(cmd *cobra.Command, leagueID string) (any, error) {
			return opts.engine().Services.Draft.PauseDraft(cmd.Context(), leagueID)
		}),
		leagueOp("resume", "Resume a paused draft", func(cmd *cobra.Command, leagueID string) (any, error) {
			return opts.engine().Services.Draft.ResumeDraft(cmd.Context(), leagueID)
		}),
		leagueOp("turn", "Show whose pick it is", func(cmd *cobra.Command, leagueID string) (any, error) {
			return opts.engine().Services.Draft.CurrentTurn(cmd.Context(), leagueID)
		}),
		&cobra.Command{
			Use:   "pick <league-id> <member-id> <castaway-id>",
			Short: "Submit a draft pick for the member on the clock",
			Args:  cobra.ExactArgs(3),
			RunE: func(cmd *cobra.Command, args []string) error {
				entry, err := opts.engine().Services.Draft.SubmitPick(cmd.Context(), usecase.DraftPickInput{
					LeagueID:   args[0],
					MemberID:   args[1],
					CastawayID: args[2],
				})
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), opts, entry)
			},
		},
		&cobra.Command{
			Use:   "auto",
			Short: "Auto-complete drafts past their season deadline",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				result, err := opts.engine().Services.Draft.AutoDraftAll(cmd.Context())
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), opts, result)
			},
		},
	)
	return cmd
}
