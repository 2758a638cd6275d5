package main

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/retrieval-lab/internal/engine"
)

func newSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <method> <query>",
		Short: "Run one retrieval method against a local corpus",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := localEngine(cmd)
			if err != nil {
				return err
			}
			resp, err := eng.Search(cmd.Context(), args[0], strings.Join(args[1:], " "))
			if err != nil {
				return fmt.Errorf("search failed: %w", err)
			}
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return printJSON(cmd.OutOrStdout(), resp)
			}
			printResults(cmd, resp)
			return nil
		},
	}
	addCorpusFlags(cmd)
	cmd.Flags().Bool("json", false, "print the full response as JSON")
	return cmd
}

func printResults(cmd *cobra.Command, resp engine.SearchResponse) {
	out := cmd.OutOrStdout()
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSCORE\tCATEGORY\tTEXT")
	for _, r := range resp.Results {
		score := "-"
		if r.Score != nil {
			score = fmt.Sprintf("%.4f", *r.Score)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", r.ID, score, r.Category, truncate(r.Text, 60))
	}
	tw.Flush()
	fmt.Fprintf(out, "\n%d result(s), method %s\n", len(resp.Results), resp.Method)
	if len(resp.ExpandedQuery) > 0 {
		fmt.Fprintf(out, "expanded query: %s\n", strings.Join(resp.ExpandedQuery, " "))
	}
	if resp.Suggestion != nil {
		fmt.Fprintf(out, "did you mean: %s\n", *resp.Suggestion)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func newClusterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cluster",
		Short: "Group a local corpus with K-Means",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := localEngine(cmd)
			if err != nil {
				return err
			}
			k, _ := cmd.Flags().GetInt("k")
			result, err := eng.Cluster(cmd.Context(), k)
			if err != nil {
				return fmt.Errorf("clustering failed: %w", err)
			}
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return printJSON(cmd.OutOrStdout(), result.Assignments)
			}

			out := cmd.OutOrStdout()
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CLUSTER\tID\tCATEGORY\tTEXT")
			for _, a := range result.Assignments {
				fmt.Fprintf(tw, "%d\t%d\t%s\t%s\n", a.Cluster, a.ID, a.Category, truncate(a.Text, 60))
			}
			tw.Flush()
			fmt.Fprintf(out, "\nk=%d iterations=%d converged=%t in %s\n",
				result.K, result.Iterations, result.Converged, result.Duration)
			return nil
		},
	}
	addCorpusFlags(cmd)
	cmd.Flags().Int("k", 0, "number of clusters (config default when 0)")
	cmd.Flags().Bool("json", false, "print assignments as JSON")
	return cmd
}

func newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Explain how a method treats one document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := localEngine(cmd)
			if err != nil {
				return err
			}
			docID, _ := cmd.Flags().GetInt64("doc")
			method, _ := cmd.Flags().GetString("method")
			query, _ := cmd.Flags().GetString("query")
			trace, err := eng.Analyze(cmd.Context(), docID, method, query)
			if err != nil {
				return fmt.Errorf("analysis failed: %w", err)
			}
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return printJSON(cmd.OutOrStdout(), trace)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "document %d: %s\n\n", trace.DocID, trace.DocText)
			for i, step := range trace.Steps {
				fmt.Fprintf(out, "%2d. %s\n", i+1, step)
			}
			fmt.Fprintln(out)
			for _, term := range slices.Sorted(maps.Keys(trace.ChartData)) {
				freq := trace.ChartData[term]
				fmt.Fprintf(out, "%-20s %s %d\n", term, strings.Repeat("█", freq), freq)
			}
			return nil
		},
	}
	addCorpusFlags(cmd)
	cmd.Flags().Int64("doc", 0, "document id")
	cmd.Flags().String("method", "vsm", "retrieval method")
	cmd.Flags().String("query", "", "query to explain")
	cmd.Flags().Bool("json", false, "print the trace as JSON")
	cmd.MarkFlagRequired("doc")
	return cmd
}
