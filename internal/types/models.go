package models

import (
	"fmt"
	"strings"
)

// Identifier names one installable application as owner/repo.
type Identifier struct {
	Owner string `json:"owner"`
	Repo  string `json:"repo"`
}

func ParseIdentifier(value string) (Identifier, error) {
	slug := strings.TrimSpace(value)
	if slug == "" || strings.Count(slug, "/") != 1 {
		return Identifier{}, fmt.Errorf("%w %q", ErrInvalidIdentifier, value)
	}

	owner, repo, _ := strings.Cut(slug, "/")
	owner = strings.TrimSpace(owner)
	repo = strings.TrimSpace(repo)
	if owner == "" || repo == "" || isDotSegment(owner) || isDotSegment(repo) || strings.Contains(repo, `\`) {
		return Identifier{}, fmt.Errorf("%w %q", ErrInvalidIdentifier, value)
	}

	return Identifier{Owner: owner, Repo: repo}, nil
}

// The repo segment names the install directory, so it must stay one plain
// path element.
func isDotSegment(s string) bool {
	return s == "." || s == ".."
}

func (id Identifier) String() string {
	return id.Owner + "/" + id.Repo
}

// CacheKey is the cache-safe form of the identifier.
func (id Identifier) CacheKey() string {
	return id.Owner + "_" + id.Repo
}

// DisplayRecord is what one catalog slot shows. Icon is a local file path;
// empty means the placeholder icon.
type DisplayRecord struct {
	Identifier    Identifier `json:"identifier"`
	Title         string     `json:"title"`
	Author        string     `json:"author"`
	Description   string     `json:"description"`
	Icon          string     `json:"icon,omitempty"`
	DefaultBranch string     `json:"default_branch"`
}

type Kind string

const (
	KindData    Kind = "data"
	KindImage   Kind = "image"
	KindArchive Kind = "archive"
)

// Extension returns the file extension cache entries of this kind use.
func (k Kind) Extension() string {
	switch k {
	case KindData:
		return ".json"
	case KindImage:
		return ".bmp"
	case KindArchive:
		return ".zip"
	default:
		return ""
	}
}

func (k Kind) Valid() bool {
	return k.Extension() != ""
}
