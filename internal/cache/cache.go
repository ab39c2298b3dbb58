package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	util "github.com/slobbe/fruit-jam-store/internal/helpers"
	"github.com/slobbe/fruit-jam-store/internal/metrics"
	"github.com/slobbe/fruit-jam-store/internal/remote"
	models "github.com/slobbe/fruit-jam-store/internal/types"
)

// ProgressFunc is called once per network transfer with the entry name and
// the advertised size (-1 when unknown). A nil writer disables reporting.
type ProgressFunc func(name string, total int64) io.Writer

type Option func(*Cache)

func WithProgress(fn ProgressFunc) Option {
	return func(c *Cache) { c.progress = fn }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Cache) { c.metrics = m }
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Cache stores remote content as {root}/{name}{ext}. Entries never expire:
// once a file exists it is served without touching the network until it is
// removed explicitly.
type Cache struct {
	root   string
	client *remote.Client

	progress ProgressFunc
	metrics  *metrics.Metrics
	logger   *zap.Logger

	flights singleflight.Group

	mu        sync.Mutex
	rootReady bool
}

func New(root string, client *remote.Client, opts ...Option) *Cache {
	c := &Cache{
		root:   root,
		client: client,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cache) Root() string {
	return c.root
}

// Path returns where the entry for name would live, without fetching.
func (c *Cache) Path(name string, kind models.Kind) (string, error) {
	entry, err := entryName(name, kind)
	if err != nil {
		return "", err
	}
	return filepath.Join(c.root, entry), nil
}

// Fetch returns the local path of the entry, downloading rawURL first when
// the entry is missing. An empty name is derived from the URL. Concurrent
// calls for the same entry share one transfer.
func (c *Cache) Fetch(ctx context.Context, rawURL string, kind models.Kind, name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		name = nameFromURL(rawURL)
	}
	target, err := c.Path(name, kind)
	if err != nil {
		return "", err
	}

	result, err, _ := c.flights.Do(target, func() (interface{}, error) {
		return c.fetch(ctx, rawURL, kind, target)
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

func (c *Cache) fetch(ctx context.Context, rawURL string, kind models.Kind, target string) (string, error) {
	if info, err := os.Stat(target); err == nil && info.Mode().IsRegular() {
		c.metrics.CacheRequest(string(kind), metrics.ResultHit)
		return target, nil
	}

	if err := c.ensureRoot(); err != nil {
		c.metrics.CacheRequest(string(kind), metrics.ResultError)
		return "", fmt.Errorf("%w: %w", models.ErrFetchFailed, err)
	}

	if err := c.download(ctx, rawURL, target); err != nil {
		c.metrics.CacheRequest(string(kind), metrics.ResultError)
		c.logger.Debug("cache fetch failed", zap.String("url", rawURL), zap.Error(err))
		return "", err
	}

	c.metrics.CacheRequest(string(kind), metrics.ResultFetch)
	c.logger.Debug("cached", zap.String("url", rawURL), zap.String("path", target))
	return target, nil
}

func (c *Cache) download(ctx context.Context, rawURL, target string) error {
	base := filepath.Base(target)
	tmp, err := os.CreateTemp(c.root, "."+base+"-*.part")
	if err != nil {
		return fmt.Errorf("%w: %w", models.ErrFetchFailed, &models.IOError{Op: "create", Path: target, Err: err})
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	var progress func(int64) io.Writer
	if c.progress != nil {
		progress = func(total int64) io.Writer { return c.progress(base, total) }
	}

	if _, err := c.client.Download(ctx, rawURL, tmp, progress); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %w", models.ErrFetchFailed, &models.IOError{Op: "write", Path: tmpPath, Err: err})
	}
	if err := os.Rename(tmpPath, target); err != nil {
		return fmt.Errorf("%w: %w", models.ErrFetchFailed, &models.IOError{Op: "rename", Path: target, Err: err})
	}
	committed = true
	return nil
}

func (c *Cache) ensureRoot() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.rootReady {
		return nil
	}
	if err := util.EnsureDirectory(c.root); err != nil {
		return err
	}
	c.rootReady = true
	return nil
}

// FetchData fetches a JSON entry and decodes it into v. An entry that does
// not parse is dropped from the cache so a later call downloads it again.
func (c *Cache) FetchData(ctx context.Context, rawURL string, name string, v any) (string, error) {
	p, err := c.Fetch(ctx, rawURL, models.KindData, name)
	if err != nil {
		return "", err
	}

	b, err := os.ReadFile(p)
	if err != nil {
		return "", &models.IOError{Op: "read", Path: p, Err: err}
	}
	if err := json.Unmarshal(b, v); err != nil {
		if rmErr := os.Remove(p); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			c.logger.Warn("failed to drop malformed cache entry", zap.String("path", p), zap.Error(rmErr))
		}
		return "", fmt.Errorf("%w: %s: %v", models.ErrMalformedData, filepath.Base(p), err)
	}
	return p, nil
}

// Remove deletes one entry. A missing entry is not an error.
func (c *Cache) Remove(name string, kind models.Kind) error {
	p, err := c.Path(name, kind)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return &models.IOError{Op: "remove", Path: p, Err: err}
	}
	return nil
}

// Clear deletes every entry and leftover partial download, returning how
// many files were removed.
func (c *Cache) Clear() (int, error) {
	entries, err := os.ReadDir(c.root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, &models.IOError{Op: "readdir", Path: c.root, Err: err}
	}

	removed := 0
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		p := filepath.Join(c.root, entry.Name())
		if err := os.Remove(p); err != nil {
			return removed, &models.IOError{Op: "remove", Path: p, Err: err}
		}
		removed++
	}
	return removed, nil
}

func entryName(name string, kind models.Kind) (string, error) {
	if !kind.Valid() {
		return "", fmt.Errorf("%w: unknown cache kind %q", models.ErrMalformedData, kind)
	}

	ext := kind.Extension()
	safe := util.SafeFileName(util.TrimExtension(strings.TrimSpace(name), ext))
	if safe == "" || safe == "." || safe == ".." {
		return "", fmt.Errorf("%w: invalid cache entry name %q", models.ErrMalformedData, name)
	}
	return safe + ext, nil
}

func nameFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	base := path.Base(u.Path)
	if base == "/" || base == "." {
		return ""
	}
	return base
}
