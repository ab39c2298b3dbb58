package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	util "github.com/slobbe/fruit-jam-store/internal/helpers"
	models "github.com/slobbe/fruit-jam-store/internal/types"
)

const appDirName = "fruit-jam-store"

// Paths is the on-disk layout: installed apps live in {Root}/apps and cache
// entries in {Root}/.cache.
type Paths struct {
	Root       string
	AppsDir    string
	CacheDir   string
	ConfigFile string

	// Explicit is set when Root was chosen by the user rather than derived
	// from XDG defaults; such a root has to exist already.
	Explicit bool
}

func ResolvePaths() (Paths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Paths{}, fmt.Errorf("failed to get home directory: %w", err)
	}
	return resolvePaths(home, os.Getenv), nil
}

func resolvePaths(home string, getenv func(string) string) Paths {
	dataHome := resolveXDGBaseDir(getenv("XDG_DATA_HOME"), filepath.Join(home, ".local", "share"))
	configHome := resolveXDGBaseDir(getenv("XDG_CONFIG_HOME"), filepath.Join(home, ".config"))

	paths := layout(filepath.Join(dataHome, appDirName))
	paths.ConfigFile = filepath.Join(configHome, appDirName, "config.yaml")
	return paths
}

// WithRoot relocates the layout under root, e.g. a mounted SD card.
func (p Paths) WithRoot(root string) Paths {
	root = strings.TrimSpace(root)
	if root == "" {
		return p
	}
	relocated := layout(filepath.Clean(root))
	relocated.ConfigFile = p.ConfigFile
	relocated.Explicit = true
	return relocated
}

func layout(root string) Paths {
	return Paths{
		Root:     root,
		AppsDir:  filepath.Join(root, "apps"),
		CacheDir: filepath.Join(root, ".cache"),
	}
}

// CheckStorage makes sure the storage root is usable and creates the apps
// directory. A missing explicit root means the removable storage is not
// mounted, which callers treat as fatal.
func (p Paths) CheckStorage() error {
	if p.Explicit {
		if !util.IsDir(p.Root) {
			return fmt.Errorf("%w: %s is not mounted", models.ErrStorageUnavailable, p.Root)
		}
	} else if err := util.EnsureDirectory(p.Root); err != nil {
		return fmt.Errorf("%w: %w", models.ErrStorageUnavailable, err)
	}

	if err := util.EnsureDirectory(p.AppsDir); err != nil {
		return fmt.Errorf("%w: %w", models.ErrStorageUnavailable, err)
	}
	return nil
}

func resolveXDGBaseDir(envValue, fallback string) string {
	value := strings.TrimSpace(envValue)
	if value != "" && filepath.IsAbs(value) {
		return filepath.Clean(value)
	}
	return fallback
}
