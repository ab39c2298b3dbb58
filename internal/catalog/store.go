package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"go.uber.org/zap"

	models "github.com/slobbe/fruit-jam-store/internal/types"
)

type Getter interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// Store loads the remote catalog. It always goes to the network: the
// catalog lives for one session and a restart must see new entries.
type Store struct {
	client Getter
	url    string
	logger *zap.Logger
}

func NewStore(client Getter, url string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{client: client, url: url, logger: logger}
}

func (s *Store) Load(ctx context.Context) (*models.Catalog, error) {
	body, err := s.client.Get(ctx, s.url)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch applications database: %w", err)
	}

	catalog, err := Parse(body)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("catalog loaded", zap.Strings("categories", catalog.Categories()))
	return catalog, nil
}

// Parse decodes a catalog document: a JSON object mapping category names to
// arrays of "owner/repo" strings. Category order follows the document.
func Parse(data []byte) (*models.Catalog, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, malformed("%v", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, malformed("expected an object, got %v", tok)
	}

	var categories []models.CatalogCategory
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, malformed("%v", err)
		}
		name, ok := tok.(string)
		if !ok {
			return nil, malformed("unexpected token %v", tok)
		}

		var slugs []string
		if err := dec.Decode(&slugs); err != nil {
			return nil, malformed("category %q: %v", name, err)
		}

		apps := make([]models.Identifier, 0, len(slugs))
		for _, slug := range slugs {
			id, err := models.ParseIdentifier(slug)
			if err != nil {
				return nil, malformed("category %q: %v", name, err)
			}
			apps = append(apps, id)
		}
		categories = append(categories, models.CatalogCategory{Name: name, Applications: apps})
	}

	if _, err := dec.Token(); err != nil {
		return nil, malformed("%v", err)
	}
	if tok, err := dec.Token(); err != io.EOF {
		return nil, malformed("unexpected data after the catalog object: %v", tok)
	}

	return models.NewCatalog(categories)
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: applications database: %s", models.ErrMalformedData, fmt.Sprintf(format, args...))
}
