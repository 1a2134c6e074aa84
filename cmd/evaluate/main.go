// Package main implements the evaluate CLI: it replays scripted scam
// conversations against the honeypot and prints a scorecard.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	turnGap    time.Duration
	serverURL  string
	apiKey     string
	onlyName   string
	showDetail bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Score the honeypot against the reference scam scenarios",
	Long: `evaluate replays the bank, UPI and phishing scenarios turn by turn,
forces the final report and scores detection, extraction, conversation
quality, engagement and report structure.

Examples:
  # Run the engine in-process with a simulated clock
  evaluate local --turn-gap 30s

  # Run against a live server
  evaluate remote --server http://localhost:8000 --api-key secret`,
	SilenceUsage: true,
}

var localCmd = &cobra.Command{
	Use:   "local",
	Short: "Evaluate an in-process engine",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return evaluate(cmd.Context(), cmd.OutOrStdout(), newLocalRunner(turnGap))
	},
}

var remoteCmd = &cobra.Command{
	Use:   "remote",
	Short: "Evaluate a running honeypot server",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if apiKey == "" {
			apiKey = os.Getenv("HONEYPOT_API_KEY")
		}
		r := newRemoteRunner(serverURL, apiKey)
		if err := r.health(cmd.Context()); err != nil {
			return fmt.Errorf("server not reachable: %w", err)
		}
		return evaluate(cmd.Context(), cmd.OutOrStdout(), r)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&onlyName, "scenario", "", "run only scenarios whose type contains this value")
	rootCmd.PersistentFlags().BoolVarP(&showDetail, "verbose", "v", false, "print score details")
	localCmd.Flags().DurationVar(&turnGap, "turn-gap", 30*time.Second, "simulated time between turns")
	remoteCmd.Flags().StringVar(&serverURL, "server", "http://localhost:8000", "honeypot server URL")
	remoteCmd.Flags().StringVar(&apiKey, "api-key", "", "x-api-key value (defaults to HONEYPOT_API_KEY)")
	rootCmd.AddCommand(localCmd, remoteCmd)
}

// runner plays one scenario and returns what the honeypot reported.
type runner interface {
	run(ctx context.Context, sc Scenario, onReply func(turn int, reply string)) (Observation, error)
}

func evaluate(ctx context.Context, out io.Writer, r runner) error {
	if ctx == nil {
		ctx = context.Background()
	}
	var weighted float64
	ran := 0
	for _, sc := range scenarios {
		if onlyName != "" && !strings.Contains(sc.Type, onlyName) {
			continue
		}
		ran++
		fmt.Fprintf(out, "\n%s\n  SCENARIO: %s (weight %d%%)\n%s\n", rule, sc.Name, sc.Weight, rule)
		obs, err := r.run(ctx, sc, func(i int, reply string) {
			fmt.Fprintf(out, "  Turn %d: %s\n    Agent: %s\n", i+1, truncate(sc.Turns[i], 80), truncate(reply, 120))
		})
		if err != nil {
			return fmt.Errorf("%s: %w", sc.Name, err)
		}
		card := score(sc, obs)
		printCard(out, obs, card)
		weighted += card.Total() * float64(sc.Weight) / 100
	}
	if ran == 0 {
		return fmt.Errorf("no scenario matches %q", onlyName)
	}
	fmt.Fprintf(out, "\n%s\n  WEIGHTED SCORE: %.1f / 100\n", rule, weighted)
	return nil
}

var rule = strings.Repeat("=", 70)

func printCard(out io.Writer, obs Observation, c Scorecard) {
	fo := obs.Final
	fmt.Fprintf(out, "  scamDetected=%v scamType=%s confidence=%.2f messages=%d duration=%ds\n",
		fo.ScamDetected, fo.ScamType, fo.ConfidenceLevel, fo.TotalMessagesExchanged, fo.EngagementDurationSeconds)
	fmt.Fprintf(out, "  notes: %s\n", truncate(fo.AgentNotes, 160))
	fmt.Fprintf(out, "  Detection:    %5.1f / 20\n", c.Detection)
	fmt.Fprintf(out, "  Extraction:   %5.1f / 30\n", c.Extraction)
	fmt.Fprintf(out, "  Conversation: %5.1f / 30\n", c.Conversation)
	fmt.Fprintf(out, "  Engagement:   %5.1f / 10\n", c.Engagement)
	fmt.Fprintf(out, "  Structure:    %5.1f / 10\n", c.Structure)
	if showDetail {
		for _, d := range c.Details {
			fmt.Fprintf(out, "    %s\n", d)
		}
	}
	fmt.Fprintf(out, "  TOTAL:        %5.1f / 100\n", c.Total())
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
