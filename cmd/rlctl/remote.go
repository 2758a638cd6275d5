package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/retrieval-lab/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/retrieval-lab/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/retrieval-lab/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/retrieval-lab/pkg/resilience"
)

type bulkSummary struct {
	Inserted []corpus.Document `json:"inserted"`
	Failed   []corpus.RowError `json:"failed"`
	Total    int               `json:"total"`
}

func newUploadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Post a CSV or JSON corpus to a running server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			server, _ := cmd.Flags().GetString("server")
			batch, _ := cmd.Flags().GetInt("batch")
			timeout, _ := cmd.Flags().GetDuration("timeout")
			if batch < 1 {
				return fmt.Errorf("batch must be at least 1, got %d", batch)
			}

			rows, err := readRows(args[0])
			if err != nil {
				return err
			}
			client := &http.Client{Timeout: timeout}
			endpoint := strings.TrimRight(server, "/") + "/documents/bulk"

			var inserted, failed int
			for lo := 0; lo < len(rows); lo += batch {
				hi := min(lo+batch, len(rows))
				var summary bulkSummary
				err := resilience.Retry(cmd.Context(), "bulk-upload", resilience.RetryConfig{MaxAttempts: 3}, func() error {
					var err error
					summary, err = postBulk(cmd.Context(), client, endpoint, rows[lo:hi])
					return err
				})
				if err != nil {
					return fmt.Errorf("uploading rows %d-%d: %w", lo+1, hi, err)
				}
				inserted += len(summary.Inserted)
				failed += len(summary.Failed)
				for _, f := range summary.Failed {
					fmt.Fprintf(cmd.ErrOrStderr(), "row %d rejected: %s\n", lo+f.Row, f.Error)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d documents added, %d failed, %d total\n", inserted, failed, len(rows))
			return nil
		},
	}
	cmd.Flags().String("server", "http://localhost:5000", "server base URL")
	cmd.Flags().Int("batch", 1000, "rows per request")
	cmd.Flags().Duration("timeout", time.Minute, "per-request timeout")
	return cmd
}

func postBulk(ctx context.Context, client *http.Client, endpoint string, rows []corpus.Row) (bulkSummary, error) {
	body, err := json.Marshal(rows)
	if err != nil {
		return bulkSummary{}, fmt.Errorf("encoding rows: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return bulkSummary{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return bulkSummary{}, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return bulkSummary{}, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		json.Unmarshal(data, &apiErr)
		return bulkSummary{}, fmt.Errorf("server answered %s: %s", resp.Status, apiErr.Error)
	}

	var summary bulkSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return bulkSummary{}, fmt.Errorf("decoding response: %w", err)
	}
	return summary, nil
}

func newEventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Follow the analytics topic and print running statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if brokers, _ := cmd.Flags().GetStringSlice("brokers"); len(brokers) > 0 {
				cfg.Kafka.Brokers = brokers
			}
			topic, _ := cmd.Flags().GetString("topic")
			if topic == "" {
				topic = cfg.Kafka.Topics.AnalyticsEvents
			}
			group, _ := cmd.Flags().GetString("group")
			interval, _ := cmd.Flags().GetDuration("interval")
			verbose, _ := cmd.Flags().GetBool("verbose")

			out := cmd.OutOrStdout()
			agg := analytics.NewAggregator()
			var onEvent func(analytics.Envelope)
			if verbose {
				onEvent = func(env analytics.Envelope) {
					printJSON(out, env)
				}
			}
			consumer := kafka.NewConsumer(cfg.Kafka, topic, group, analytics.HandleEvent(agg, onEvent))

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			done := make(chan error, 1)
			go func() { done <- consumer.Start(ctx) }()

			fmt.Fprintf(cmd.ErrOrStderr(), "following %s on %s\n", topic, strings.Join(cfg.Kafka.Brokers, ","))
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					if err := printJSON(out, agg.Stats()); err != nil {
						return err
					}
				case err := <-done:
					printJSON(out, agg.Stats())
					return err
				}
			}
		},
	}
	cmd.Flags().StringSlice("brokers", nil, "Kafka brokers (config default when empty)")
	cmd.Flags().String("topic", "", "analytics topic (config default when empty)")
	cmd.Flags().String("group", "", "consumer group; empty reads from the newest offset without committing")
	cmd.Flags().Duration("interval", 10*time.Second, "how often to print statistics")
	cmd.Flags().Bool("verbose", false, "print every event as it arrives")
	return cmd
}
