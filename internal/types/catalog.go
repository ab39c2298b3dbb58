package models

import "fmt"

// Catalog is the category listing for one session. It is never mutated
// after NewCatalog returns; accessors hand out copies.
type Catalog struct {
	categories []string
	apps       map[string][]Identifier
}

type CatalogCategory struct {
	Name         string
	Applications []Identifier
}

func NewCatalog(categories []CatalogCategory) (*Catalog, error) {
	if len(categories) == 0 {
		return nil, fmt.Errorf("%w: catalog has no categories", ErrMalformedData)
	}

	c := &Catalog{
		categories: make([]string, 0, len(categories)),
		apps:       make(map[string][]Identifier, len(categories)),
	}
	for _, category := range categories {
		if _, exists := c.apps[category.Name]; exists {
			return nil, fmt.Errorf("%w: duplicate category %q", ErrMalformedData, category.Name)
		}
		c.categories = append(c.categories, category.Name)
		c.apps[category.Name] = append([]Identifier(nil), category.Applications...)
	}

	return c, nil
}

func (c *Catalog) Categories() []string {
	return append([]string(nil), c.categories...)
}

// Default is the category selected when a session starts.
func (c *Catalog) Default() string {
	return c.categories[0]
}

func (c *Catalog) HasCategory(name string) bool {
	_, ok := c.apps[name]
	return ok
}

func (c *Catalog) Applications(category string) []Identifier {
	return append([]Identifier(nil), c.apps[category]...)
}

func (c *Catalog) Len(category string) int {
	return len(c.apps[category])
}

func (c *Catalog) Contains(id Identifier) bool {
	for _, category := range c.categories {
		for _, app := range c.apps[category] {
			if app == id {
				return true
			}
		}
	}
	return false
}
