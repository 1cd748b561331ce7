// Package assets maintains the local on-disk mirror of game cover and
// artwork images downloaded from the IGDB CDN.
package assets

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rocade/rocade/internal/domain"
)

const (
	defaultTimeout = 30 * time.Second

	// maxConcurrent caps simultaneous in-flight downloads per batch.
	maxConcurrent = 5

	// maxAttempts is the per-image download attempt budget.
	maxAttempts = 3
)

// cdnVariant returns the IGDB image size variant for a category. Covers
// use the small variant for grid display, artworks the full 1080p one.
func cdnVariant(category domain.ImageCategory) string {
	if category == domain.ImageCategoryArtwork {
		return "t_1080p"
	}
	return "t_cover_small"
}

// Mirror implements domain.Mirror: it downloads batches of images with
// bounded concurrency, retry with exponential backoff, and atomic file
// writes, skipping images that already exist locally.
type Mirror struct {
	assetsDir  string
	cdnBaseURL string
	httpClient *http.Client
	logger     *slog.Logger

	// sleep is called between retry attempts. Injected for tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewMirror creates a Mirror rooted at assetsDir and ensures the category
// subdirectories exist.
func NewMirror(assetsDir string, logger *slog.Logger) (*Mirror, error) {
	if logger == nil {
		logger = slog.Default()
	}

	m := &Mirror{
		assetsDir:  assetsDir,
		cdnBaseURL: "https://images.igdb.com/igdb/image/upload",
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger: logger,
		sleep:  sleepCtx,
	}

	if err := m.ensureDirs(); err != nil {
		return nil, err
	}

	return m, nil
}

// SetCDNBaseURL overrides the image CDN base URL. Used by tests.
func (m *Mirror) SetCDNBaseURL(baseURL string) {
	m.cdnBaseURL = baseURL
}

func (m *Mirror) ensureDirs() error {
	for _, category := range []domain.ImageCategory{domain.ImageCategoryCover, domain.ImageCategoryArtwork} {
		if err := os.MkdirAll(filepath.Join(m.assetsDir, category.Dir()), 0755); err != nil {
			return fmt.Errorf("failed to create assets directory: %w", err)
		}
	}
	return nil
}

// LocalPath returns the deterministic cache location for an image.
func (m *Mirror) LocalPath(category domain.ImageCategory, imageID string) string {
	return filepath.Join(m.assetsDir, category.Dir(), imageID+".jpg")
}

// DownloadBatch ensures a local copy of every image in imageIDs, returning
// one entry per image that is now available locally.
//
// At most 5 downloads are in flight at a time. Images that exhaust their
// retry budget are dropped from the result, never surfaced as an error;
// result order is unspecified.
func (m *Mirror) DownloadBatch(ctx context.Context, category domain.ImageCategory, imageIDs []string) []domain.Downloaded {
	sem := make(chan struct{}, maxConcurrent)
	results := make(chan domain.Downloaded, len(imageIDs))

	var wg sync.WaitGroup
	for _, imageID := range imageIDs {
		imageID := imageID
		wg.Add(1)
		go func() {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			localPath, err := m.download(ctx, category, imageID)
			if err != nil {
				m.logger.Warn("image dropped from batch", "imageID", imageID, "error", err)
				return
			}
			results <- domain.Downloaded{ImageID: imageID, LocalPath: localPath}
		}()
	}

	wg.Wait()
	close(results)

	downloaded := make([]domain.Downloaded, 0, len(imageIDs))
	for d := range results {
		downloaded = append(downloaded, d)
	}

	m.logger.Debug("download batch complete", "category", category.Dir(),
		"requested", len(imageIDs), "downloaded", len(downloaded))

	return downloaded
}

// download ensures one image exists locally and returns its path.
// Short-circuits without any network call when the file is already cached.
func (m *Mirror) download(ctx context.Context, category domain.ImageCategory, imageID string) (string, error) {
	localPath := m.LocalPath(category, imageID)

	if _, err := os.Stat(localPath); err == nil {
		return localPath, nil
	}

	url := fmt.Sprintf("%s/%s/%s.jpg", m.cdnBaseURL, cdnVariant(category), imageID)

	if err := m.downloadWithRetry(ctx, url, localPath); err != nil {
		return "", err
	}

	return localPath, nil
}

// downloadWithRetry downloads url to localPath with up to 3 attempts and
// exponential backoff of 1s, 2s, 4s between attempts.
//
// The body is written to a .tmp sibling and renamed into place only after
// a full flush, so no partial file ever exists at the final path. The .tmp
// file is removed after every failed attempt.
func (m *Mirror) downloadWithRetry(ctx context.Context, url, localPath string) error {
	tmpPath := localPath + ".tmp"

	for attempt := 0; attempt < maxAttempts; attempt++ {
		err := m.tryDownload(ctx, url, tmpPath)
		if err == nil {
			if err := os.Rename(tmpPath, localPath); err != nil {
				return fmt.Errorf("failed to move image into place: %w", err)
			}
			return nil
		}

		os.Remove(tmpPath)

		if attempt == maxAttempts-1 {
			break
		}

		delay := time.Duration(1<<attempt) * time.Second
		m.logger.Debug("download attempt failed, backing off",
			"url", url, "attempt", attempt+1, "delay", delay, "error", err)

		if err := m.sleep(ctx, delay); err != nil {
			return err
		}
	}

	return fmt.Errorf("failed to download %s after %d attempts", url, maxAttempts)
}

// tryDownload performs a single download attempt into tmpPath.
func (m *Mirror) tryDownload(ctx context.Context, url, tmpPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	file, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	if _, err := io.Copy(file, resp.Body); err != nil {
		file.Close()
		return err
	}

	if err := file.Sync(); err != nil {
		file.Close()
		return err
	}

	return file.Close()
}

// ClearAll deletes the entire asset cache and recreates the empty category
// directories. Called at the start of every refresh cycle so stale images
// never survive a refresh.
func (m *Mirror) ClearAll() error {
	if err := os.RemoveAll(m.assetsDir); err != nil {
		return fmt.Errorf("failed to clear assets directory: %w", err)
	}
	return m.ensureDirs()
}

// sleepCtx sleeps for d unless the context is cancelled first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
