package catalog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// Downloader fetches raw catalog payloads from both providers and keeps a
// snapshot of each on disk. It only hands bytes to the parsers; it never
// interprets the payloads itself.
type Downloader struct {
	UpstoxURL   string
	GrowwURL    string
	SnapshotDir string
	Logger      *slog.Logger

	client *http.Client
}

// NewDownloader creates a Downloader with a bounded request timeout.
func NewDownloader(upstoxURL, growwURL, snapshotDir string, timeout time.Duration, logger *slog.Logger) *Downloader {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Downloader{
		UpstoxURL:   upstoxURL,
		GrowwURL:    growwURL,
		SnapshotDir: snapshotDir,
		Logger:      logger,
		client:      &http.Client{Timeout: timeout},
	}
}

// FetchUpstox downloads the provider-A payload (gzip JSON), decompresses it
// and snapshots the decompressed JSON to NSE_main.json.
func (d *Downloader) FetchUpstox(ctx context.Context) ([]byte, error) {
	raw, err := d.fetch(ctx, d.UpstoxURL)
	if err != nil {
		return nil, fmt.Errorf("downloading upstox catalog: %w", err)
	}
	// Snapshot the decompressed form so the file on disk is plain JSON.
	plain, err := maybeGunzip(raw)
	if err != nil {
		return nil, &FormatError{Provider: "upstox", Reason: "decompressing payload", Err: err}
	}
	if err := d.snapshot("NSE_main.json", plain); err != nil {
		return nil, err
	}
	return plain, nil
}

// FetchGroww downloads the provider-B payload (CSV) and snapshots it to
// instrument.csv.
func (d *Downloader) FetchGroww(ctx context.Context) ([]byte, error) {
	raw, err := d.fetch(ctx, d.GrowwURL)
	if err != nil {
		return nil, fmt.Errorf("downloading groww catalog: %w", err)
	}
	if err := d.snapshot("instrument.csv", raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func (d *Downloader) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}
	return io.ReadAll(resp.Body)
}

// snapshot writes data to a temp file first and renames it into place, so a
// failed download never clobbers the previous good snapshot.
func (d *Downloader) snapshot(name string, data []byte) error {
	if d.SnapshotDir == "" {
		return nil
	}
	if err := os.MkdirAll(d.SnapshotDir, 0755); err != nil {
		return fmt.Errorf("creating snapshot directory: %w", err)
	}
	path := filepath.Join(d.SnapshotDir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing snapshot %s: %w", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replacing snapshot %s: %w", name, err)
	}
	if d.Logger != nil {
		d.Logger.Info("catalog snapshot written", "path", path, "bytes", len(data))
	}
	return nil
}
