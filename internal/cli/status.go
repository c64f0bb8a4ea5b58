package cli

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/hyperjump/prana/internal/config"
	"github.com/hyperjump/prana/internal/storage"
	"github.com/hyperjump/prana/internal/vector"
	"github.com/spf13/cobra"
)

var (
	statusServer string
	statusOutput string
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show index and audit store status",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusServer, "server", "", "server URL (empty = inspect local files)")
	statusCmd.Flags().StringVarP(&statusOutput, "output", "o", "text", "output format: text or json")
	rootCmd.AddCommand(statusCmd)
}

// statusReport is the locally computed status.
type statusReport struct {
	ConfigPath     string              `json:"config_path,omitempty"`
	IndexType      string              `json:"vector_index_type"`
	IndexSource    string              `json:"index_source"`
	IndexPath      string              `json:"index_path,omitempty"`
	IndexEntries   int                 `json:"vector_index_entries"`
	StorageDriver  string              `json:"storage_driver"`
	Interactions   int64               `json:"interactions"`
	DiskUsageBytes int64               `json:"disk_usage_bytes"`
	DiskUsage      []storage.PathUsage `json:"disk_usage"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if statusServer != "" {
		var remote map[string]interface{}
		if err := newAPIClient(statusServer).do(cmd.Context(), http.MethodGet, "/api/v1/status", nil, &remote); err != nil {
			return err
		}
		return writeJSON(out, remote)
	}

	report, err := collectStatus(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	report.ConfigPath = resolvedPath
	switch statusOutput {
	case "json":
		return writeJSON(out, report)
	case "text":
		writeStatusText(out, report)
		return nil
	default:
		return fmt.Errorf("unknown output format %q; use text or json", statusOutput)
	}
}

func collectStatus(ctx context.Context, cfg *config.Config) (*statusReport, error) {
	index := vector.NewStore(indexSource(cfg.Index), cfg.Index.Type, logger)
	defer index.Close()
	index.Load(ctx)

	store, err := storage.Open(cfg.Storage, cfg.Debug)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	defer store.Close()
	n, err := store.CountInteractions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count interactions: %w", err)
	}

	paths := storage.Paths(cfg.Storage)
	if cfg.Index.Source == config.SourceFile {
		paths = append(paths, cfg.Index.Path)
	}
	usage, total, err := storage.DiskUsage(paths...)
	if err != nil {
		return nil, fmt.Errorf("failed to compute disk usage: %w", err)
	}

	return &statusReport{
		IndexType:      index.Type(),
		IndexSource:    cfg.Index.Source,
		IndexPath:      cfg.Index.Path,
		IndexEntries:   index.Size(),
		StorageDriver:  cfg.Storage.Driver,
		Interactions:   n,
		DiskUsageBytes: total,
		DiskUsage:      usage,
	}, nil
}

func writeStatusText(w io.Writer, r *statusReport) {
	if r.ConfigPath != "" {
		fmt.Fprintf(w, "Config:        %s\n", r.ConfigPath)
	} else {
		fmt.Fprintln(w, "Config:        built-in defaults")
	}
	fmt.Fprintf(w, "Vector index:  %s (%s", r.IndexType, r.IndexSource)
	if r.IndexPath != "" {
		fmt.Fprintf(w, " %s", r.IndexPath)
	}
	fmt.Fprintf(w, "), %d entries\n", r.IndexEntries)
	fmt.Fprintf(w, "Audit store:   %s, %d interactions\n", r.StorageDriver, r.Interactions)
	fmt.Fprintf(w, "Disk usage:    %s\n", formatBytes(r.DiskUsageBytes))
	for _, u := range r.DiskUsage {
		fmt.Fprintf(w, "  %-40s %s\n", u.Path, formatBytes(u.Bytes))
	}
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
