package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/slobbe/fruit-jam-store/internal/cache"
	"github.com/slobbe/fruit-jam-store/internal/catalog"
	"github.com/slobbe/fruit-jam-store/internal/config"
	"github.com/slobbe/fruit-jam-store/internal/core"
	"github.com/slobbe/fruit-jam-store/internal/logging"
	"github.com/slobbe/fruit-jam-store/internal/metrics"
	"github.com/slobbe/fruit-jam-store/internal/remote"
	"github.com/slobbe/fruit-jam-store/internal/session"
)

type rootOptions struct {
	root    string
	noColor bool
	verbose bool
}

func newRootCmd() (*cobra.Command, *rootOptions) {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "fjs",
		Short: "Browse and install Fruit Jam applications",
		Long: `fjs browses the Fruit Jam application catalog and installs
applications from their latest GitHub release into the apps
directory of the storage root.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	addGlobalFlags(rootCmd.PersistentFlags(), opts)

	rootCmd.AddCommand(
		categoriesCmd(opts),
		listCmd(opts),
		infoCmd(opts),
		installCmd(opts),
		removeCmd(opts),
		installedCmd(opts),
		cacheCmd(opts),
		browseCmd(opts),
	)

	return rootCmd, opts
}

func addGlobalFlags(flags *pflag.FlagSet, opts *rootOptions) {
	flags.StringVar(&opts.root, "root", "", "storage root, e.g. a mounted SD card (must already exist)")
	flags.BoolVar(&opts.noColor, "no-color", false, "disable colored output")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log debug output to stderr")
}

// store bundles the components one command invocation works with.
type store struct {
	paths    config.Paths
	settings config.Settings
	logger   *zap.Logger
	registry *prometheus.Registry

	cache     *cache.Cache
	resolver  *core.Resolver
	installer *core.Installer
	session   *session.Controller
}

type setupOptions struct {
	progress bool
	session  []session.Option
}

// setup resolves paths and settings, checks the storage root and wires the
// components. Callers must call close when done.
func setup(opts *rootOptions, so setupOptions) (*store, error) {
	paths, err := config.ResolvePaths()
	if err != nil {
		return nil, err
	}

	settings, err := config.Load(paths.ConfigFile)
	if err != nil {
		return nil, err
	}

	root := opts.root
	if root == "" {
		root = settings.StorageRoot
	}
	paths = paths.WithRoot(root)

	logCfg := logging.DefaultConfig()
	logCfg.Level = settings.LogLevel
	if opts.verbose {
		logCfg.Level = "debug"
	}
	logger, err := logging.New(logCfg)
	if err != nil {
		return nil, err
	}

	if err := paths.CheckStorage(); err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	client := remote.New(remote.Options{
		Timeout:     settings.HTTPTimeout,
		UserAgent:   settings.UserAgent,
		GitHubToken: settings.GitHubToken,
	}, logger)

	cacheOpts := []cache.Option{cache.WithMetrics(m), cache.WithLogger(logger)}
	if so.progress && isTerminal(os.Stderr) {
		cacheOpts = append(cacheOpts, cache.WithProgress(progressBar))
	}
	contentCache := cache.New(paths.CacheDir, client, cacheOpts...)

	endpoints := core.Endpoints{
		Repo:     settings.RepoURL,
		Metadata: settings.MetadataURL,
		Icon:     settings.IconURL,
		Release:  settings.ReleaseURL,
	}
	resolver := core.NewResolver(contentCache, endpoints, settings.TitlePrefix, logger)
	installer := core.NewInstaller(contentCache, paths.AppsDir, endpoints, core.InstallerOptions{
		EntryPoint:   settings.EntryPoint,
		AssetPattern: settings.AssetPattern,
		Runtime:      core.Runtime{Name: settings.RuntimeName, Version: settings.RuntimeVersion},
		Metrics:      m,
	}, logger)

	sessionOpts := append([]session.Option{
		session.WithPageSize(settings.PageSize),
		session.WithLogger(logger),
	}, so.session...)
	controller := session.New(catalog.NewStore(client, settings.CatalogURL, logger), resolver, installer, sessionOpts...)

	logger.Debug("storage ready",
		zap.String("root", paths.Root),
		zap.String("apps", paths.AppsDir),
		zap.String("cache", paths.CacheDir),
	)

	return &store{
		paths:     paths,
		settings:  settings,
		logger:    logger,
		registry:  registry,
		cache:     contentCache,
		resolver:  resolver,
		installer: installer,
		session:   controller,
	}, nil
}

func (s *store) close() {
	lines, err := metrics.Summary(s.registry)
	if err != nil {
		s.logger.Debug("metrics unavailable", zap.Error(err))
	}
	for _, line := range lines {
		s.logger.Debug("metric", zap.String("counter", line))
	}
	_ = s.logger.Sync()
}

// withStore runs fn against a freshly wired store.
func withStore(cmd *cobra.Command, opts *rootOptions, so setupOptions, fn func(ctx context.Context, s *store) error) error {
	s, err := setup(opts, so)
	if err != nil {
		return err
	}
	defer s.close()
	return fn(cmd.Context(), s)
}

func progressBar(name string, total int64) io.Writer {
	return progressbar.DefaultBytes(total, fmt.Sprintf("downloading %s", name))
}

func isTerminal(f *os.File) bool {
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) != 0
}

func useColor(opts *rootOptions) bool {
	if opts.noColor {
		return false
	}
	return isTerminal(os.Stdout)
}

func colorize(enabled bool, code, value string) string {
	if !enabled {
		return value
	}

	return code + value + "\033[0m"
}
