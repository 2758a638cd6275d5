package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/retrieval-lab/internal/engine"
	"github.com/Adithya-Monish-Kumar-K/retrieval-lab/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/retrieval-lab/pkg/logger"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "rlctl",
		Short: "Command-line companion for the retrieval lab",
		Long: `rlctl runs the retrieval methods against a local corpus file, uploads
corpora to a running server and follows its analytics stream.

Examples:
  rlctl search vsm "kucing makan" --corpus data/seed.json
  rlctl search boolean "kucing AND NOT anjing" --corpus berita.csv
  rlctl cluster --k 3 --corpus berita.csv
  rlctl analyze --doc 2 --method bim --query "ikan" --corpus berita.csv
  rlctl upload berita.csv --server http://localhost:5000
  rlctl events --brokers localhost:9092`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, _ := cmd.Flags().GetString("log-level")
			logger.SetupWriter(os.Stderr, level, "text")
			return nil
		},
	}
	root.PersistentFlags().String("config", "", "path to config file (defaults apply when empty)")
	root.PersistentFlags().String("log-level", "warn", "log level: debug, info, warn, error")

	root.AddCommand(newSearchCmd(), newClusterCmd(), newAnalyzeCmd(), newUploadCmd(), newEventsCmd())
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	return cfg, nil
}

// localEngine builds an in-memory engine over the corpus file named by the
// --corpus flag.
func localEngine(cmd *cobra.Command) (*engine.Engine, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if lang, _ := cmd.Flags().GetString("language"); lang != "" {
		cfg.TextProc.Language = lang
	}
	path, _ := cmd.Flags().GetString("corpus")
	rows, err := readRows(path)
	if err != nil {
		return nil, err
	}

	eng, err := engine.New(engine.FromConfig(cfg), engine.Deps{})
	if err != nil {
		return nil, err
	}
	batch := cfg.Corpus.MaxBulkRows
	for lo := 0; lo < len(rows); lo += batch {
		hi := min(lo+batch, len(rows))
		res, err := eng.BulkInsert(cmd.Context(), rows[lo:hi])
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", path, err)
		}
		for _, f := range res.Failed {
			fmt.Fprintf(cmd.ErrOrStderr(), "skipping row %d: %s\n", lo+f.Row, f.Error)
		}
	}
	return eng, nil
}

func addCorpusFlags(cmd *cobra.Command) {
	cmd.Flags().String("corpus", "data/seed.json", "corpus file (.json array or .csv with text,category columns)")
	cmd.Flags().String("language", "", "normalizer language override: indonesian or english")
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
