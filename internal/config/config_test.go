package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	models "github.com/slobbe/fruit-jam-store/internal/types"
)

func TestResolvePathsDefaults(t *testing.T) {
	home := "/home/alice"

	paths := resolvePaths(home, func(string) string { return "" })

	if paths.Root != filepath.Join(home, ".local", "share", "fruit-jam-store") {
		t.Fatalf("Root = %q", paths.Root)
	}
	if paths.AppsDir != filepath.Join(home, ".local", "share", "fruit-jam-store", "apps") {
		t.Fatalf("AppsDir = %q", paths.AppsDir)
	}
	if paths.CacheDir != filepath.Join(home, ".local", "share", "fruit-jam-store", ".cache") {
		t.Fatalf("CacheDir = %q", paths.CacheDir)
	}
	if paths.ConfigFile != filepath.Join(home, ".config", "fruit-jam-store", "config.yaml") {
		t.Fatalf("ConfigFile = %q", paths.ConfigFile)
	}
	if paths.Explicit {
		t.Fatal("default paths must not be explicit")
	}
}

func TestResolvePathsXDGOverrides(t *testing.T) {
	home := "/home/alice"
	env := map[string]string{
		"XDG_DATA_HOME":   "/xdg/data",
		"XDG_CONFIG_HOME": "/xdg/config",
	}

	paths := resolvePaths(home, func(key string) string {
		return env[key]
	})

	if paths.Root != "/xdg/data/fruit-jam-store" {
		t.Fatalf("Root = %q", paths.Root)
	}
	if paths.ConfigFile != "/xdg/config/fruit-jam-store/config.yaml" {
		t.Fatalf("ConfigFile = %q", paths.ConfigFile)
	}
}

func TestResolvePathsIgnoresRelativeXDGPaths(t *testing.T) {
	home := "/home/alice"
	env := map[string]string{
		"XDG_DATA_HOME":   "relative/data",
		"XDG_CONFIG_HOME": "relative/config",
	}

	paths := resolvePaths(home, func(key string) string {
		return env[key]
	})

	if paths.Root != filepath.Join(home, ".local", "share", "fruit-jam-store") {
		t.Fatalf("Root = %q", paths.Root)
	}
	if paths.ConfigFile != filepath.Join(home, ".config", "fruit-jam-store", "config.yaml") {
		t.Fatalf("ConfigFile = %q", paths.ConfigFile)
	}
}

func TestWithRoot(t *testing.T) {
	base := resolvePaths("/home/alice", func(string) string { return "" })
	paths := base.WithRoot("/sd/")

	if paths.Root != "/sd" || paths.AppsDir != "/sd/apps" || paths.CacheDir != "/sd/.cache" {
		t.Fatalf("WithRoot layout = %+v", paths)
	}
	if !paths.Explicit {
		t.Fatal("WithRoot must mark the root explicit")
	}
	if paths.ConfigFile != base.ConfigFile {
		t.Fatalf("ConfigFile = %q, want %q", paths.ConfigFile, base.ConfigFile)
	}
	if same := base.WithRoot("  "); same != base {
		t.Fatal("blank root must leave paths unchanged")
	}
}

func TestCheckStorageMissingExplicitRoot(t *testing.T) {
	paths := Paths{}.WithRoot(filepath.Join(t.TempDir(), "sd"))

	err := paths.CheckStorage()
	if !errors.Is(err, models.ErrStorageUnavailable) {
		t.Fatalf("CheckStorage error = %v, want ErrStorageUnavailable", err)
	}
	if _, statErr := os.Stat(paths.AppsDir); !os.IsNotExist(statErr) {
		t.Fatal("apps dir must not be created on an unmounted root")
	}
}

func TestCheckStorageCreatesAppsDir(t *testing.T) {
	paths := Paths{}.WithRoot(t.TempDir())

	if err := paths.CheckStorage(); err != nil {
		t.Fatalf("CheckStorage returned error: %v", err)
	}
	info, err := os.Stat(paths.AppsDir)
	if err != nil || !info.IsDir() {
		t.Fatalf("apps dir missing: %v", err)
	}
}

func TestCheckStorageCreatesDefaultRoot(t *testing.T) {
	paths := layout(filepath.Join(t.TempDir(), "data", "fruit-jam-store"))

	if err := paths.CheckStorage(); err != nil {
		t.Fatalf("CheckStorage returned error: %v", err)
	}
	if _, err := os.Stat(paths.AppsDir); err != nil {
		t.Fatalf("apps dir missing: %v", err)
	}
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "")
	t.Setenv("FJS_GITHUB_TOKEN", "")

	settings, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if settings != Defaults() {
		t.Fatalf("Load without file or env = %+v, want defaults", settings)
	}
}

func TestLoadLayersFileThenEnv(t *testing.T) {
	file := filepath.Join(t.TempDir(), "config.yaml")
	content := "page_size: 4\nentry_point: main.py\nhttp_timeout: 30s\nruntime_version: \"10.0.0\"\n"
	if err := os.WriteFile(file, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("FJS_ENTRY_POINT", "boot.py")

	settings, err := Load(file)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if settings.PageSize != 4 {
		t.Fatalf("PageSize = %d, want 4 from file", settings.PageSize)
	}
	if settings.EntryPoint != "boot.py" {
		t.Fatalf("EntryPoint = %q, want env override", settings.EntryPoint)
	}
	if settings.HTTPTimeout != 30*time.Second {
		t.Fatalf("HTTPTimeout = %s", settings.HTTPTimeout)
	}
	if settings.RuntimeVersion != "10.0.0" {
		t.Fatalf("RuntimeVersion = %q", settings.RuntimeVersion)
	}
	if settings.AssetPattern != Defaults().AssetPattern {
		t.Fatalf("AssetPattern = %q, want default", settings.AssetPattern)
	}
}

func TestLoadIgnoresUnprefixedVariables(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "")
	t.Setenv("FJS_GITHUB_TOKEN", "")
	t.Setenv("LOG_LEVEL", "trace")
	t.Setenv("STORAGE_ROOT", "/mnt/unrelated")
	t.Setenv("PAGE_SIZE", "")
	t.Setenv("HTTP_TIMEOUT", "soon")
	t.Setenv("USER_AGENT", "curl")

	settings, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if settings != Defaults() {
		t.Fatalf("unprefixed variables leaked into settings: %+v", settings)
	}
}

func TestLoadGitHubTokenFallback(t *testing.T) {
	t.Setenv("FJS_GITHUB_TOKEN", "")
	t.Setenv("GITHUB_TOKEN", "ghp_shell")

	settings, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if settings.GitHubToken != "ghp_shell" {
		t.Fatalf("GitHubToken = %q, want GITHUB_TOKEN fallback", settings.GitHubToken)
	}

	t.Setenv("FJS_GITHUB_TOKEN", "ghp_fjs")
	settings, err = Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if settings.GitHubToken != "ghp_fjs" {
		t.Fatalf("GitHubToken = %q, want FJS_GITHUB_TOKEN to win", settings.GitHubToken)
	}
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	t.Setenv("FJS_PAGE_SIZE", "0")
	if _, err := Load(""); err == nil {
		t.Fatal("expected error for zero page size")
	}
}

func TestLoadRejectsBrokenFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(file, []byte("page_size: [1, 2"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(file); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestValidateTemplates(t *testing.T) {
	settings := Defaults()
	settings.IconURL = "https://example.com/%s"
	if err := settings.Validate(); err == nil {
		t.Fatal("expected error for icon url with too few placeholders")
	}
}
