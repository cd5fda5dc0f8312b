// Package fetch downloads build inputs into a filename-keyed cache
// directory shared across runs and verifies their checksums.
package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/schollz/progressbar/v3"

	"github.com/streamforge/winstaller/pkg/xos"
)

// Cache is the persistent download cache. Existing files are trusted and
// never re-downloaded; corrupt entries require manual deletion.
type Cache struct {
	dir    string
	client *http.Client
	logger hclog.Logger
}

// NewCache creates the cache directory if needed.
func NewCache(dir string, logger hclog.Logger) (*Cache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &Cache{
		dir:    dir,
		client: &http.Client{Timeout: 15 * time.Minute},
		logger: logger,
	}, nil
}

// Dir returns the cache directory.
func (c *Cache) Dir() string { return c.dir }

// Path returns the cache location for a download filename.
func (c *Cache) Path(filename string) string { return filepath.Join(c.dir, filename) }

// Fetch ensures a cached copy of filename exists, downloading from url when
// absent. When sha256sum is non-empty a freshly downloaded file is verified
// against it and a mismatch removes the file and fails the fetch.
func (c *Cache) Fetch(ctx context.Context, url, filename, sha256sum string) (string, error) {
	target := c.Path(filename)
	if _, err := os.Stat(target); err == nil {
		c.logger.Debug("using cached download", "file", filename)
		return target, nil
	}

	c.logger.Info("downloading", "file", filename, "url", url)
	if err := c.download(ctx, url, target); err != nil {
		return "", err
	}

	if sha256sum != "" {
		if err := VerifySHA256(target, sha256sum); err != nil {
			os.Remove(target)
			return "", err
		}
		c.logger.Debug("checksum verified", "file", filename)
	}

	return target, nil
}

// download streams url into target via a temp file so a partial download
// never ends up in the cache under its final name.
func (c *Cache) download(ctx context.Context, url, target string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build request for %s: %w", url, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to fetch %s (status %d)", url, resp.StatusCode)
	}

	bar := progressbar.NewOptions64(resp.ContentLength,
		progressbar.OptionSetDescription(filepath.Base(target)),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)

	if err := xos.WriteReader(target, io.TeeReader(resp.Body, bar), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", target, err)
	}
	return nil
}

// VerifySHA256 compares the file's digest against the expected hex string.
func VerifySHA256(path, expected string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s for verification: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return fmt.Errorf("failed to hash %s: %w", path, err)
	}

	actual := hex.EncodeToString(h.Sum(nil))
	if !strings.EqualFold(actual, expected) {
		return fmt.Errorf("checksum mismatch for %s: expected %s, got %s",
			filepath.Base(path), strings.ToLower(expected), actual)
	}
	return nil
}
