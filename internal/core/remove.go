package core

import (
	"fmt"

	"go.uber.org/zap"

	util "github.com/slobbe/fruit-jam-store/internal/helpers"
	models "github.com/slobbe/fruit-jam-store/internal/types"
)

// Remove deletes the install directory depth-first. It stops at the first
// entry it cannot delete, so a failure may leave part of the tree behind.
func (i *Installer) Remove(id models.Identifier) (Outcome, error) {
	outcome, err := i.remove(id)
	i.record("remove", outcome, err)
	return outcome, err
}

func (i *Installer) remove(id models.Identifier) (Outcome, error) {
	dir := i.InstallDir(id)
	if !util.Exists(dir) {
		return OutcomeNotInstalled, nil
	}

	if err := util.RemoveTree(dir); err != nil {
		return "", fmt.Errorf("failed to remove %s: %w", id, err)
	}

	i.logger.Info("removed", zap.String("app", id.String()), zap.String("dir", dir))
	return OutcomeRemoved, nil
}
