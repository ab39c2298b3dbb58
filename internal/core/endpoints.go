package core

import (
	"fmt"

	models "github.com/slobbe/fruit-jam-store/internal/types"
)

// Endpoints holds the fmt templates for the remote documents. Repo and
// Release take the slug; Metadata takes slug and branch; Icon takes slug,
// branch and icon file name.
type Endpoints struct {
	Repo     string
	Metadata string
	Icon     string
	Release  string
}

func (e Endpoints) RepoURL(id models.Identifier) string {
	return fmt.Sprintf(e.Repo, id.String())
}

func (e Endpoints) MetadataURL(id models.Identifier, branch string) string {
	return fmt.Sprintf(e.Metadata, id.String(), branch)
}

func (e Endpoints) IconURL(id models.Identifier, branch, icon string) string {
	return fmt.Sprintf(e.Icon, id.String(), branch, icon)
}

func (e Endpoints) ReleaseURL(id models.Identifier) string {
	return fmt.Sprintf(e.Release, id.String())
}
