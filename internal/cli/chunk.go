package cli

import (
	"fmt"

	"github.com/hyperjump/prana/internal/indexer"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var chunkOut string

var chunkCmd = &cobra.Command{
	Use:   "chunk",
	Short: "Split the article corpus into overlapping chunks",
	Long: `Read every corpus file matched by corpus.paths, split each article into
token windows and write the chunks as JSON to corpus.chunks_path.

Examples:
  prana chunk
  prana chunk --out /tmp/chunks.json`,
	Args: cobra.NoArgs,
	RunE: runChunk,
}

func init() {
	chunkCmd.Flags().StringVar(&chunkOut, "out", "", "output path (default corpus.chunks_path)")
	rootCmd.AddCommand(chunkCmd)
}

func runChunk(cmd *cobra.Command, args []string) error {
	out := chunkOut
	if out == "" {
		out = cfg.Corpus.ChunksPath
	}
	chunker, err := newChunker(cfg)
	if err != nil {
		return err
	}
	articles, err := indexer.LoadCorpus(cfg.Corpus.Paths)
	if err != nil {
		return err
	}
	chunks, err := chunker.ChunkAll(articles)
	if err != nil {
		return err
	}
	if err := indexer.WriteChunks(out, chunks); err != nil {
		return err
	}
	logger.Debug("chunks written",
		zap.String("path", out),
		zap.String("tokenizer", chunker.TokenizerName()),
		zap.Int("articles", len(articles)),
		zap.Int("chunks", len(chunks)))
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d chunks from %d articles to %s\n", len(chunks), len(articles), out)
	return nil
}
