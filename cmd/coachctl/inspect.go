package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/adaptive-coach/internal/eval"
	"github.com/danielpatrickdp/adaptive-coach/internal/logging"
	"github.com/danielpatrickdp/adaptive-coach/internal/recorder"
	"github.com/danielpatrickdp/adaptive-coach/internal/state"
)

// #region inspect

type inspectOutput struct {
	Key     string                `json:"key"`
	Config  state.Config          `json:"config"`
	Summary eval.Summary          `json:"summary"`
	Steps   []recorder.StepRecord `json:"steps,omitempty"`
}

func newInspectCmd(a *app) *cobra.Command {
	var top, steps int
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Summarize the persisted value table and recent steps",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, q, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			out := inspectOutput{
				Key:     q.Key(),
				Config:  q.Config(),
				Summary: eval.Summarize(q.Table(), top),
			}
			if steps > 0 {
				if out.Steps, err = logging.ListSteps(store.DB(), steps); err != nil {
					return err
				}
			}

			w := cmd.OutOrStdout()
			if jsonOut {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}
			printInspect(w, out)
			return nil
		},
	}
	cmd.Flags().IntVar(&top, "top", 5, "number of highest-valued entries to show")
	cmd.Flags().IntVar(&steps, "steps", 0, "show N most recent logged steps")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "output as JSON instead of tables")
	return cmd
}

func printInspect(w io.Writer, out inspectOutput) {
	c, s := out.Config, out.Summary
	fmt.Fprintf(w, "record %s\n", out.Key)
	fmt.Fprintf(w, "alpha=%.3f gamma=%.3f epsilon=%.4f (min %.3f, decay %.4f) w=[%.2f %.2f %.2f %.2f]\n",
		c.Alpha, c.Gamma, c.Epsilon, c.EpsilonMin, c.EpsilonDecay, c.W1, c.W2, c.W3, c.W4)
	fmt.Fprintf(w, "states=%d entries=%d mean=%.4f p50=%.4f p90=%.4f max=%.4f\n",
		s.UniqueStates, s.TotalEntries, s.Mean, s.P50, s.P90, s.Max)

	if len(s.Top) > 0 {
		fmt.Fprintln(w)
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "STATE\tACTION\tVALUE")
		for _, e := range s.Top {
			fmt.Fprintf(tw, "%s\t%s\t%.4f\n", e.State, e.Action, e.Value)
		}
		tw.Flush()
	}

	if len(out.Steps) > 0 {
		fmt.Fprintln(w)
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "STEP\tTIME\tSTATE\tACTION\tEXPLORED\tREWARD\tLEARNED\tSAVED")
		for _, r := range out.Steps {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%v\t%.4f\t%v\t%v\n",
				r.Step, r.Timestamp.Format("2006-01-02 15:04"), r.StateKey, r.Action,
				r.Explored, r.Reward, r.Learned, r.Saved)
		}
		tw.Flush()
	}
}

// #endregion inspect
