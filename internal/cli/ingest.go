package cli

import (
	"fmt"
	"os"

	"github.com/hyperjump/prana/internal/config"
	"github.com/hyperjump/prana/internal/indexer"
	"github.com/hyperjump/prana/internal/models"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var (
	ingestOut        string
	ingestFromCorpus bool
	ingestQuiet      bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Embed chunks and write the vector index snapshot",
	Long: `Embed every chunk with the configured embedding provider and write the
vector index snapshot. Calls are paced by embedding.requests_per_second and
rate-limited calls are retried with backoff. Nothing is written on failure.

Examples:
  prana ingest                  # embed corpus.chunks_path into index.path
  prana ingest --from-corpus    # chunk the corpus first
  prana ingest --out internal/assets/index/vector_index.json`,
	Args: cobra.NoArgs,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestOut, "out", "", "snapshot output path (default index.path)")
	ingestCmd.Flags().BoolVar(&ingestFromCorpus, "from-corpus", false, "chunk corpus.paths instead of reading corpus.chunks_path")
	ingestCmd.Flags().BoolVarP(&ingestQuiet, "quiet", "q", false, "disable the progress bar")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	out := ingestOut
	if out == "" {
		if cfg.Index.Source != config.SourceFile {
			return fmt.Errorf("index.source is %q; pass --out to choose where the snapshot is written", cfg.Index.Source)
		}
		out = cfg.Index.Path
	}

	chunks, err := ingestChunks()
	if err != nil {
		return err
	}
	if len(chunks) == 0 {
		return fmt.Errorf("no chunks to ingest")
	}

	emb, err := newEmbedder(cfg, logger)
	if err != nil {
		return err
	}
	defer emb.Close()

	opts := []indexer.IngestorOption{
		indexer.WithIngestLogger(logger),
		indexer.WithRateLimit(cfg.Embedding.RequestsPerSecond),
		indexer.WithIndexType(cfg.Index.Type),
	}
	var bar *progressbar.ProgressBar
	if !ingestQuiet {
		bar = progressbar.NewOptions(len(chunks),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription("Embedding"),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(40),
			progressbar.OptionOnCompletion(func() {
				fmt.Fprintln(os.Stderr)
			}),
		)
		opts = append(opts, indexer.WithProgress(func(done, total int) {
			_ = bar.Set(done)
		}))
	}

	n, err := indexer.NewIngestor(emb, opts...).Run(cmd.Context(), chunks, out)
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d entries to %s\n", n, out)
	return nil
}

func ingestChunks() ([]models.Chunk, error) {
	if !ingestFromCorpus {
		return indexer.LoadChunks(cfg.Corpus.ChunksPath)
	}
	chunker, err := newChunker(cfg)
	if err != nil {
		return nil, err
	}
	articles, err := indexer.LoadCorpus(cfg.Corpus.Paths)
	if err != nil {
		return nil, err
	}
	return chunker.ChunkAll(articles)
}
