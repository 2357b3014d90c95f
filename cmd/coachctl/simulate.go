package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/adaptive-coach/internal/qtable"
	"github.com/danielpatrickdp/adaptive-coach/internal/replay"
)

// #region simulate

func newSimulateCmd(a *app) *cobra.Command {
	var fixturePath string
	var jsonOut, verbose bool
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Replay a fixture through an in-memory engine",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := replay.LoadFixture(fixturePath)
			if err != nil {
				return err
			}
			frames, err := f.ToFrames()
			if err != nil {
				return err
			}
			cfg := f.ToReplayConfig()
			cfg.Hyperparameters.Verbose = verbose

			results, final := replay.Replay(frames, cfg, a.logger)
			summary := replay.Summarize(results, final, 5)
			mismatches := checkExpected(f, results)

			w := cmd.OutOrStdout()
			if jsonOut {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				if err := enc.Encode(summary); err != nil {
					return err
				}
			} else {
				printSimulation(w, f.Description, results, summary)
			}

			for _, m := range mismatches {
				fmt.Fprintln(cmd.ErrOrStderr(), m)
			}
			if len(mismatches) > 0 {
				return fmt.Errorf("%d of %d expected results did not match", len(mismatches), len(f.ExpectedResults))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&fixturePath, "fixture", "", "path to fixture JSON")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "output the summary as JSON")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "trace every step at debug level")
	_ = cmd.MarkFlagRequired("fixture")
	return cmd
}

func checkExpected(f *replay.Fixture, results []replay.Result) []string {
	var out []string
	if len(results) < len(f.ExpectedResults) {
		return []string{fmt.Sprintf("expected %d results, got %d", len(f.ExpectedResults), len(results))}
	}
	for i, exp := range f.ExpectedResults {
		got := results[i]
		if got.FrameID != exp.FrameID {
			out = append(out, fmt.Sprintf("frame %d: expected id=%s, got %s", i, exp.FrameID, got.FrameID))
		}
		if got.Outcome != exp.Outcome {
			out = append(out, fmt.Sprintf("frame %d (%s): expected outcome=%s, got %s", i, exp.FrameID, exp.Outcome, got.Outcome))
		}
		if exp.Action != "" && string(got.Record.Action) != exp.Action {
			out = append(out, fmt.Sprintf("frame %d (%s): expected action=%s, got %s", i, exp.FrameID, exp.Action, got.Record.Action))
		}
	}
	return out
}

func printSimulation(w io.Writer, desc string, results []replay.Result, s replay.Summary) {
	if desc != "" {
		fmt.Fprintln(w, desc)
		fmt.Fprintln(w)
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FRAME\tSTATE\tACTION\tEXPLORED\tOUTCOME\tREWARD\tQ")
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%v\t%s\t%.4f\t%.4f -> %.4f\n",
			r.FrameID, r.Record.StateKey, r.Record.Action, r.Record.Explored,
			r.Outcome, r.Record.Reward, r.Record.QBefore, r.Record.QAfter)
	}
	tw.Flush()

	fmt.Fprintf(w, "\nsteps=%d updates=%d rejected=%d failed=%d explored=%d mean_reward=%.4f epsilon=%.4f\n",
		s.TotalSteps, s.Updates, s.Rejections, s.Failures, s.Explorations, s.MeanReward, s.FinalEpsilon)
	for _, act := range qtable.Actions {
		if n := s.ActionCounts[act]; n > 0 {
			fmt.Fprintf(w, "  %-24s %d\n", act, n)
		}
	}
}

// #endregion simulate
