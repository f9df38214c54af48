package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/castaway-league/internal/domain/scoring"
	"github.com/riskibarqy/castaway-league/internal/usecase"
	"github.com/spf13/cobra"
)

func newWeeklyPickCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "weekly-pick <league-id> <member-id> <episode-id> <castaway-id>",
		Short: "Choose the rostered castaway whose points count this episode",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			item, err := opts.engine().Services.WeeklyPick.SubmitPick(cmd.Context(), usecase.WeeklyPickInput{
				LeagueID:   args[0],
				MemberID:   args[1],
				EpisodeID:  args[2],
				CastawayID: args[3],
			})
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), opts, item)
		},
	}
}

func newWaiverCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "waiver",
		Short: "Submit rankings and settle waivers",
	}

	rank := &cobra.Command{
		Use:   "rank <league-id> <member-id> <episode-id> <castaway-id>...",
		Short: "Replace the member's waiver ranking for an episode",
		Args:  cobra.MinimumNArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			item, err := opts.engine().Services.Waiver.SubmitRanking(cmd.Context(), usecase.SubmitRankingInput{
				LeagueID:    args[0],
				MemberID:    args[1],
				EpisodeID:   args[2],
				CastawayIDs: args[3:],
			})
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), opts, item)
		},
	}

	var at string
	process := &cobra.Command{
		Use:   "process",
		Short: "Settle every closed, unsettled waiver window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var now time.Time
			if at != "" {
				parsed, err := time.Parse(time.RFC3339, at)
				if err != nil {
					return fmt.Errorf("%w: --at: %v", usecase.ErrInvalidInput, err)
				}
				now = parsed
			}
			result, err := opts.engine().Services.Waiver.ProcessWaivers(cmd.Context(), now)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), opts, result)
		},
	}
	process.Flags().StringVar(&at, "at", "", "evaluate windows at this RFC3339 time instead of now")

	cmd.AddCommand(rank, process)
	return cmd
}

func newScoreCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Record and finalize episode scoring",
	}

	start := &cobra.Command{
		Use:   "start <episode-id>",
		Short: "Open (or show) the episode's scoring session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := opts.engine().Services.Scoring.StartSession(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), opts, view)
		},
	}

	var entries []string
	save := &cobra.Command{
		Use:   "save <episode-id>",
		Short: "Upsert score lines; a quantity of 0 removes the line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := parseEntries(entries)
			if err != nil {
				return err
			}
			scores, err := opts.engine().Services.Scoring.SaveProgress(cmd.Context(), usecase.SaveProgressInput{
				EpisodeID: args[0],
				Entries:   parsed,
			})
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), opts, scores)
		},
	}
	save.Flags().StringArrayVar(&entries, "entry", nil, "castaway:rule:quantity, repeatable")

	finalize := &cobra.Command{
		Use:   "finalize <episode-id>",
		Short: "Finalize scoring and roll points into standings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := opts.engine().Services.Scoring.Finalize(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), opts, result)
		},
	}

	cmd.AddCommand(start, save, finalize)
	return cmd
}

func newStandingsCommand(opts *RootOptions) *cobra.Command {
	var recompute bool
	cmd := &cobra.Command{
		Use:   "standings <league-id>",
		Short: "List members by rank",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := opts.engine().Services.Standings
			list := svc.List
			if recompute {
				list = svc.Recompute
			}
			members, err := list(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), opts, members)
		},
	}
	cmd.Flags().BoolVar(&recompute, "recompute", false, "recompute totals from weekly picks first")
	return cmd
}

func parseEntries(raw []string) ([]scoring.Entry, error) {
	out := make([]scoring.Entry, 0, len(raw))
	for _, item := range raw {
		parts := strings.Split(item, ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("%w: entry %q, expected castaway:rule:quantity", usecase.ErrInvalidInput, item)
		}
		quantity, err := strconv.Atoi(strings.TrimSpace(parts[2]))
		if err != nil {
			return nil, fmt.Errorf("%w: entry %q quantity: %v", usecase.ErrInvalidInput, item, err)
		}
		out = append(out, scoring.Entry{
			CastawayID: strings.TrimSpace(parts[0]),
			RuleID:     strings.TrimSpace(parts[1]),
			Quantity:   quantity,
		})
	}
	return out, nil
}
