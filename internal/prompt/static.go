package prompt

import (
	"context"
	"fmt"
	"strings"

	"github.com/alexisbeaulieu97/create-enfyra-be/internal/config"
	"github.com/alexisbeaulieu97/create-enfyra-be/internal/install"
	apperrors "github.com/alexisbeaulieu97/create-enfyra-be/pkg/errors"
)

// Static answers every question with the values it was given. It backs
// --skip-prompts runs, where nobody is there to ask.
type Static struct {
	WorkingDir string
	// Managers are the usable package managers in preference order.
	Managers   []install.ManagerDetection
}

// ProjectName accepts suggested when it is a valid, unused name.
func (s Static) ProjectName(_ context.Context, suggested string) (string, error) {
	if err := config.ValidateField(config.FieldProjectName, suggested, config.FieldContext{WorkingDir: s.WorkingDir}); err != nil {
		return "", err
	}
	return suggested, nil
}

// Collect returns base with the package manager settled: an unset one becomes
// the preferred usable manager, a preset one must be usable.
func (s Static) Collect(_ context.Context, base config.Config) (config.Config, error) {
	cfg := base
	if cfg.PackageManager == "" {
		cfg.PackageManager = defaultManager("", s.Managers)
		return cfg, nil
	}
	if len(s.Managers) == 0 || defaultManager(cfg.PackageManager, s.Managers) == cfg.PackageManager {
		return cfg, nil
	}

	names := make([]string, 0, len(s.Managers))
	for _, det := range s.Managers {
		names = append(names, string(det.Manager))
	}
	return base, apperrors.NewValidationError("packageManager",
		fmt.Sprintf("%s is not installed or too old, use one of: %s", cfg.PackageManager, strings.Join(names, ", ")), nil)
}

// Confirm always proceeds.
func (Static) Confirm(context.Context, config.Config) (bool, error) {
	return true, nil
}
