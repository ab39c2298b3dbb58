package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// githubTokenEnv is the one unprefixed variable honoured, as a fallback for
// FJS_GITHUB_TOKEN.
const githubTokenEnv = "GITHUB_TOKEN"

// Settings holds everything tunable. Precedence, lowest first: Defaults,
// the YAML config file, FJS_* environment variables, command-line flags.
// Tags carry the full variable name and Load passes no prefix, so envconfig
// never falls back to a bare name such as LOG_LEVEL.
type Settings struct {
	StorageRoot string `yaml:"storage_root" envconfig:"FJS_STORAGE_ROOT"`

	CatalogURL  string `yaml:"catalog_url" envconfig:"FJS_CATALOG_URL"`
	RepoURL     string `yaml:"repo_url" envconfig:"FJS_REPO_URL"`
	MetadataURL string `yaml:"metadata_url" envconfig:"FJS_METADATA_URL"`
	IconURL     string `yaml:"icon_url" envconfig:"FJS_ICON_URL"`
	ReleaseURL  string `yaml:"release_url" envconfig:"FJS_RELEASE_URL"`

	PageSize     int    `yaml:"page_size" envconfig:"FJS_PAGE_SIZE"`
	EntryPoint   string `yaml:"entry_point" envconfig:"FJS_ENTRY_POINT"`
	AssetPattern string `yaml:"asset_pattern" envconfig:"FJS_ASSET_PATTERN"`
	TitlePrefix  string `yaml:"title_prefix" envconfig:"FJS_TITLE_PREFIX"`

	RuntimeName    string `yaml:"runtime_name" envconfig:"FJS_RUNTIME_NAME"`
	RuntimeVersion string `yaml:"runtime_version" envconfig:"FJS_RUNTIME_VERSION"`

	HTTPTimeout time.Duration `yaml:"http_timeout" envconfig:"FJS_HTTP_TIMEOUT"`
	UserAgent   string        `yaml:"user_agent" envconfig:"FJS_USER_AGENT"`
	GitHubToken string        `yaml:"github_token" envconfig:"FJS_GITHUB_TOKEN"`

	LogLevel     string        `yaml:"log_level" envconfig:"FJS_LOG_LEVEL"`
	RestartDelay time.Duration `yaml:"restart_delay" envconfig:"FJS_RESTART_DELAY"`
}

func Defaults() Settings {
	return Settings{
		CatalogURL:     "https://raw.githubusercontent.com/relic-se/Fruit_Jam_Store/refs/heads/main/database/applications.json",
		RepoURL:        "https://api.github.com/repos/%s",
		MetadataURL:    "https://raw.githubusercontent.com/%s/%s/metadata.json",
		IconURL:        "https://raw.githubusercontent.com/%s/%s/%s",
		ReleaseURL:     "https://api.github.com/repos/%s/releases/latest",
		PageSize:       6,
		EntryPoint:     "code.py",
		AssetPattern:   "*.zip",
		TitlePrefix:    "Fruit_Jam_",
		RuntimeName:    "CircuitPython",
		RuntimeVersion: "9.2.8",
		HTTPTimeout:    10 * time.Second,
		UserAgent:      "fruit-jam-store",
		LogLevel:       "warn",
		RestartDelay:   3 * time.Second,
	}
}

// Load layers the config file and environment over Defaults. A missing
// config file is not an error.
func Load(configFile string) (Settings, error) {
	settings := Defaults()

	if err := readSettingsFile(configFile, &settings); err != nil {
		return Settings{}, err
	}

	if err := envconfig.Process("", &settings); err != nil {
		return Settings{}, fmt.Errorf("failed to load environment config: %w", err)
	}
	if settings.GitHubToken == "" {
		settings.GitHubToken = os.Getenv(githubTokenEnv)
	}

	if err := settings.Validate(); err != nil {
		return Settings{}, err
	}
	return settings, nil
}

func readSettingsFile(path string, settings *Settings) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(b, settings); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (s Settings) Validate() error {
	if s.PageSize < 1 {
		return fmt.Errorf("page size must be positive, got %d", s.PageSize)
	}
	if strings.TrimSpace(s.EntryPoint) == "" {
		return fmt.Errorf("entry point cannot be empty")
	}
	if strings.TrimSpace(s.AssetPattern) == "" {
		return fmt.Errorf("asset pattern cannot be empty")
	}
	if strings.TrimSpace(s.CatalogURL) == "" {
		return fmt.Errorf("catalog url cannot be empty")
	}

	templates := []struct {
		name  string
		value string
		verbs int
	}{
		{"repo url", s.RepoURL, 1},
		{"metadata url", s.MetadataURL, 2},
		{"icon url", s.IconURL, 3},
		{"release url", s.ReleaseURL, 1},
	}
	for _, tmpl := range templates {
		if got := strings.Count(tmpl.value, "%s"); got != tmpl.verbs {
			return fmt.Errorf("%s must contain %d %%s placeholder(s), got %q", tmpl.name, tmpl.verbs, tmpl.value)
		}
	}
	return nil
}
