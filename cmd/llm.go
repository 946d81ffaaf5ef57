package cmd

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/quizgen/internal/llm"
	"github.com/abhisek/quizgen/internal/store"
)

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect recorded model calls",
}

var llmListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent model calls",
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		limit, _ := flags.GetInt("limit")
		purpose, _ := flags.GetString("purpose")
		requestID, _ := flags.GetString("request")
		since, _ := flags.GetDuration("since")

		opts := store.QueryOpts{Limit: limit, Purpose: purpose, RequestID: requestID}
		if since > 0 {
			opts.From = time.Now().Add(-since)
		}

		ctx := context.Background()
		s, err := openEventStore(ctx, cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		events, err := s.EventRepo().QueryLLMEvents(ctx, opts)
		if err != nil {
			return fmt.Errorf("query events: %w", err)
		}
		return writeEventList(cmd.OutOrStdout(), events)
	},
}

var llmViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "Show the prompt and reply of one model call",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid event id %q", args[0])
		}

		ctx := context.Background()
		s, err := openEventStore(ctx, cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		e, err := s.EventRepo().GetLLMEvent(ctx, id)
		if err != nil {
			return fmt.Errorf("get event: %w", err)
		}
		if e == nil {
			return fmt.Errorf("event %d not found", id)
		}
		writeEvent(cmd.OutOrStdout(), e)
		return nil
	},
}

var llmStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize token usage and estimated cost",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		s, err := openEventStore(ctx, cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		byPurpose, err := s.EventRepo().LLMUsageByPurpose(ctx)
		if err != nil {
			return fmt.Errorf("usage by purpose: %w", err)
		}
		byModel, err := s.EventRepo().LLMUsageByModel(ctx)
		if err != nil {
			return fmt.Errorf("usage by model: %w", err)
		}
		writeUsage(cmd.OutOrStdout(), byPurpose, byModel)
		return nil
	},
}

func writeEventList(out io.Writer, events []store.LLMEvent) error {
	if len(events) == 0 {
		fmt.Fprintln(out, "No model calls recorded.")
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTIME\tPURPOSE\tMODEL\tIN\tOUT\tMS\tOK\tREQUEST")
	for _, e := range events {
		ok := "yes"
		if !e.Success {
			ok = "no"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%d\t%d\t%s\t%s\n",
			e.ID, e.Timestamp.Local().Format(time.DateTime), e.Purpose, truncate(e.Model, 32),
			e.InputTokens, e.OutputTokens, e.LatencyMs, ok, orDash(e.RequestID))
	}
	return tw.Flush()
}

func writeEvent(out io.Writer, e *store.LLMEvent) {
	tw := tabwriter.NewWriter(out, 0, 0, 1, ' ', 0)
	fmt.Fprintf(tw, "ID:\t%d\n", e.ID)
	fmt.Fprintf(tw, "Time:\t%s\n", e.Timestamp.Local().Format(time.DateTime))
	fmt.Fprintf(tw, "Provider:\t%s\n", e.Provider)
	fmt.Fprintf(tw, "Model:\t%s\n", e.Model)
	fmt.Fprintf(tw, "Purpose:\t%s\n", e.Purpose)
	fmt.Fprintf(tw, "Request:\t%s\n", orDash(e.RequestID))
	fmt.Fprintf(tw, "Tokens:\t%d in, %d out\n", e.InputTokens, e.OutputTokens)
	if usd, ok := llm.EstimateCost(e.Model, llm.Usage{InputTokens: e.InputTokens, OutputTokens: e.OutputTokens}); ok {
		fmt.Fprintf(tw, "Cost:\t%s\n", formatCost(usd))
	}
	fmt.Fprintf(tw, "Latency:\t%dms\n", e.LatencyMs)
	if e.Success {
		fmt.Fprintf(tw, "Status:\tok\n")
	} else {
		fmt.Fprintf(tw, "Status:\tfailed: %s\n", e.ErrorMessage)
	}
	tw.Flush()

	for _, part := range []struct{ title, body string }{
		{"PROMPT", e.RequestBody},
		{"REPLY", e.ResponseBody},
	} {
		fmt.Fprintf(out, "\n== %s ==\n", part.title)
		if part.body == "" {
			fmt.Fprintln(out, "(empty)")
			continue
		}
		fmt.Fprintln(out, strings.TrimRight(part.body, "\n"))
	}
}

func writeUsage(out io.Writer, byPurpose, byModel []store.LLMUsage) {
	if len(byPurpose) == 0 {
		fmt.Fprintln(out, "No model calls recorded.")
		return
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "PURPOSE\tCALLS\tINPUT\tOUTPUT\tAVG MS\t")
	var calls, in, outTok int
	for _, u := range byPurpose {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t\n", u.Purpose, u.Calls, u.InputTokens, u.OutputTokens, u.AvgLatencyMs)
		calls += u.Calls
		in += u.InputTokens
		outTok += u.OutputTokens
	}
	fmt.Fprintf(tw, "total\t%d\t%d\t%d\t\t\n", calls, in, outTok)
	tw.Flush()

	fmt.Fprintln(out)
	tw = tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "MODEL\tCALLS\tCOST\t")
	var total float64
	var unpriced []string
	for _, u := range byModel {
		usd, ok := llm.EstimateCost(u.Model, llm.Usage{InputTokens: u.InputTokens, OutputTokens: u.OutputTokens})
		cost := "?"
		if ok {
			total += usd
			cost = formatCost(usd)
		} else {
			unpriced = append(unpriced, u.Model)
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t\n", truncate(u.Model, 32), u.Calls, cost)
	}
	label := "total"
	if len(unpriced) > 0 {
		label = "total (partial)"
	}
	fmt.Fprintf(tw, "%s\t\t%s\t\n", label, formatCost(total))
	tw.Flush()

	if len(unpriced) > 0 {
		fmt.Fprintf(out, "\nNo pricing for: %s\n", strings.Join(unpriced, ", "))
	}
}

// openEventStore opens the configured database for event inspection.
func openEventStore(ctx context.Context, cmd *cobra.Command) (*store.Store, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return requireStore(ctx, cfg)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func formatCost(usd float64) string {
	if usd < 0.01 {
		return fmt.Sprintf("$%.4f", usd)
	}
	return fmt.Sprintf("$%.2f", usd)
}

func init() {
	f := llmListCmd.Flags()
	f.IntP("limit", "n", 20, "number of calls to show")
	f.StringP("purpose", "p", "", "only calls with this purpose, e.g. quiz-gen")
	f.String("request", "", "only calls made while serving this HTTP request id")
	f.Duration("since", 0, "only calls newer than this, e.g. 24h")

	llmCmd.AddCommand(llmListCmd, llmViewCmd, llmStatsCmd)
}
