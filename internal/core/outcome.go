package core

import (
	"context"

	models "github.com/slobbe/fruit-jam-store/internal/types"
)

// Outcome is the result of an install or remove that did not fail.
// AlreadyInstalled and NotInstalled are precondition results, not errors.
type Outcome string

const (
	OutcomeInstalled        Outcome = "installed"
	OutcomeAlreadyInstalled Outcome = "already-installed"
	OutcomeRemoved          Outcome = "removed"
	OutcomeNotInstalled     Outcome = "not-installed"
)

// ContentCache is the subset of the content cache the core depends on.
type ContentCache interface {
	Fetch(ctx context.Context, url string, kind models.Kind, name string) (string, error)
	FetchData(ctx context.Context, url string, name string, v any) (string, error)
	Remove(name string, kind models.Kind) error
}

// StatusFunc receives human readable progress lines.
type StatusFunc func(status string)
