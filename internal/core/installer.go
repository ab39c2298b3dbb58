package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	util "github.com/slobbe/fruit-jam-store/internal/helpers"
	"github.com/slobbe/fruit-jam-store/internal/metrics"
	models "github.com/slobbe/fruit-jam-store/internal/types"
)

type InstallerOptions struct {
	EntryPoint   string
	AssetPattern string
	Runtime      Runtime
	Metrics      *metrics.Metrics
}

// Installer manages {apps}/{repo} directories. An app counts as installed
// exactly when its directory exists.
type Installer struct {
	cache     ContentCache
	appsDir   string
	endpoints Endpoints
	opts      InstallerOptions
	logger    *zap.Logger
}

func NewInstaller(cache ContentCache, appsDir string, endpoints Endpoints, opts InstallerOptions, logger *zap.Logger) *Installer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Installer{
		cache:     cache,
		appsDir:   appsDir,
		endpoints: endpoints,
		opts:      opts,
		logger:    logger,
	}
}

func (i *Installer) InstallDir(id models.Identifier) string {
	return filepath.Join(i.appsDir, id.Repo)
}

func (i *Installer) stagingDir(id models.Identifier) string {
	return filepath.Join(i.appsDir, "."+id.Repo+".partial")
}

func (i *Installer) IsInstalled(id models.Identifier) bool {
	return util.Exists(i.InstallDir(id))
}

// Install fetches the latest release archive and extracts its payload. The
// install directory only appears once extraction has fully succeeded.
func (i *Installer) Install(ctx context.Context, id models.Identifier) (Outcome, error) {
	outcome, err := i.install(ctx, id)
	i.record("install", outcome, err)
	return outcome, err
}

func (i *Installer) install(ctx context.Context, id models.Identifier) (Outcome, error) {
	log := i.logger.With(zap.String("app", id.String()))

	if i.IsInstalled(id) {
		return OutcomeAlreadyInstalled, nil
	}

	tag, err := i.opts.Runtime.Tag()
	if err != nil {
		return "", fmt.Errorf("failed to derive runtime tag: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}
	var release gitHubReleaseResponse
	if _, err := i.cache.FetchData(ctx, i.endpoints.ReleaseURL(id), id.CacheKey()+"_release", &release); err != nil {
		return "", fmt.Errorf("failed to read latest release of %s: %w", id, err)
	}

	asset, ok := matchAsset(release.Assets, i.opts.AssetPattern)
	if !ok {
		return "", fmt.Errorf("%w: release %s of %s has no asset matching %q", models.ErrPayloadNotFound, release.TagName, id, i.opts.AssetPattern)
	}
	log.Debug("selected release asset", zap.String("tag", release.TagName), zap.String("asset", asset.Name))

	if err := ctx.Err(); err != nil {
		return "", err
	}
	archivePath, err := i.cache.Fetch(ctx, asset.BrowserDownloadURL, models.KindArchive, id.Repo)
	if err != nil {
		return "", fmt.Errorf("failed to download %s: %w", asset.Name, err)
	}
	defer func() {
		if err := i.cache.Remove(id.Repo, models.KindArchive); err != nil {
			log.Warn("failed to remove cached archive", zap.Error(err))
		}
	}()

	if err := i.extract(ctx, id, archivePath, tag); err != nil {
		return "", err
	}

	log.Info("installed", zap.String("dir", i.InstallDir(id)))
	return OutcomeInstalled, nil
}

func (i *Installer) extract(ctx context.Context, id models.Identifier, archivePath, tag string) error {
	reader, err := openArchive(archivePath)
	if err != nil {
		return err
	}
	defer reader.Close()

	prefix, ok := resolvePayloadPrefix(reader.File, payloadCandidates(id.Repo, tag), i.opts.EntryPoint)
	if !ok {
		return fmt.Errorf("%w: no %s found in %s", models.ErrPayloadNotFound, i.opts.EntryPoint, filepath.Base(archivePath))
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	staging := i.stagingDir(id)
	if util.Exists(staging) {
		if err := util.RemoveTree(staging); err != nil {
			return err
		}
	}
	if err := util.EnsureDirectory(staging); err != nil {
		return err
	}

	count, err := extractPrefix(reader.File, prefix, staging)
	if err != nil {
		i.discard(staging)
		return err
	}

	target := i.InstallDir(id)
	if err := os.Rename(staging, target); err != nil {
		i.discard(staging)
		return &models.IOError{Op: "rename", Path: target, Err: err}
	}

	i.logger.Debug("extracted payload", zap.String("app", id.String()), zap.String("prefix", prefix), zap.Int("files", count))
	return nil
}

func (i *Installer) discard(dir string) {
	if err := util.RemoveTree(dir); err != nil {
		i.logger.Warn("failed to clean up staging directory", zap.String("dir", dir), zap.Error(err))
	}
}

// Installed lists installed app directory names, sorted.
func (i *Installer) Installed() ([]string, error) {
	entries, err := os.ReadDir(i.appsDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, &models.IOError{Op: "readdir", Path: i.appsDir, Err: err}
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

func (i *Installer) record(op string, outcome Outcome, err error) {
	label := string(outcome)
	if err != nil {
		label = "error"
	}
	i.opts.Metrics.Operation(op, label)
}
