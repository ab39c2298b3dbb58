package core

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	util "github.com/slobbe/fruit-jam-store/internal/helpers"
	models "github.com/slobbe/fruit-jam-store/internal/types"
)

// fallbackBranch is used for the overlay and icon when repository info
// could not be read.
const fallbackBranch = "main"

type repositoryResponse struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	DefaultBranch string `json:"default_branch"`
	Owner         struct {
		Login string `json:"login"`
	} `json:"owner"`
}

type overlayManifest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// Resolver builds display records from repository info, the optional
// metadata.json overlay and its icon. Every step degrades on failure
// instead of failing the record.
type Resolver struct {
	cache       ContentCache
	endpoints   Endpoints
	titlePrefix string
	logger      *zap.Logger
}

func NewResolver(cache ContentCache, endpoints Endpoints, titlePrefix string, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		cache:       cache,
		endpoints:   endpoints,
		titlePrefix: titlePrefix,
		logger:      logger,
	}
}

// Resolve never fails. report, when non-nil, receives a status line before
// each step and one for each step that fails.
func (r *Resolver) Resolve(ctx context.Context, id models.Identifier, report StatusFunc) models.DisplayRecord {
	if report == nil {
		report = func(string) {}
	}
	log := r.logger.With(zap.String("app", id.String()))

	record := models.DisplayRecord{
		Identifier:    id,
		Title:         util.SynthesizeTitle(id.Repo, r.titlePrefix),
		Author:        id.Owner,
		DefaultBranch: fallbackBranch,
	}
	repoName := id.Repo

	report(fmt.Sprintf("Reading repository data from %s", id))
	var repo repositoryResponse
	if _, err := r.cache.FetchData(ctx, r.endpoints.RepoURL(id), id.CacheKey(), &repo); err != nil {
		report(fmt.Sprintf("Unable to read repository data from %s! %v", id, err))
		log.Debug("repository info unavailable", zap.Error(err))
	} else {
		if name := strings.TrimSpace(repo.Name); name != "" {
			repoName = name
			record.Title = util.SynthesizeTitle(name, r.titlePrefix)
		}
		if login := strings.TrimSpace(repo.Owner.Login); login != "" {
			record.Author = login
		}
		record.Description = repo.Description
		if branch := strings.TrimSpace(repo.DefaultBranch); branch != "" {
			record.DefaultBranch = branch
		}
	}

	report(fmt.Sprintf("Reading metadata from %s", id))
	var overlay overlayManifest
	if _, err := r.cache.FetchData(ctx, r.endpoints.MetadataURL(id, record.DefaultBranch), id.CacheKey()+"_metadata", &overlay); err != nil {
		report(fmt.Sprintf("Unable to read metadata from %s! %v", id, err))
		log.Debug("metadata overlay unavailable", zap.Error(err))
		return record
	}

	if title := strings.TrimSpace(overlay.Title); title != "" {
		record.Title = title
	}
	if description := strings.TrimSpace(overlay.Description); description != "" {
		record.Description = description
	}

	icon := strings.TrimSpace(overlay.Icon)
	if icon == "" {
		return record
	}

	report(fmt.Sprintf("Downloading icon from %s", id))
	iconPath, err := r.cache.Fetch(ctx, r.endpoints.IconURL(id, record.DefaultBranch, icon), models.KindImage, repoName+"_"+icon)
	if err != nil {
		report(fmt.Sprintf("Unable to download icon image from %s! %v", id, err))
		log.Debug("icon unavailable", zap.String("icon", icon), zap.Error(err))
		return record
	}
	record.Icon = iconPath

	return record
}
