package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/alexisbeaulieu97/create-enfyra-be/internal/capacity"
	"github.com/alexisbeaulieu97/create-enfyra-be/internal/envfile"
	"github.com/alexisbeaulieu97/create-enfyra-be/internal/install"
	"github.com/alexisbeaulieu97/create-enfyra-be/internal/manifest"
	"github.com/alexisbeaulieu97/create-enfyra-be/internal/template"
	apperrors "github.com/alexisbeaulieu97/create-enfyra-be/pkg/errors"
)

const (
	CreateDirStage = "create-directory"
	EnvFileStage   = "write-env"
)

// Toolkit carries the collaborators of the default stages.
type Toolkit struct {
	Capacity     capacity.Checker
	MinimumBytes uint64
	Fetcher      template.Fetcher
	Installer    install.Installer
}

// DefaultStages returns the provisioning stages in execution order.
func DefaultStages(tk Toolkit) []Stage {
	return []Stage{
		{
			Name:  capacity.StageName,
			Title: "Checking free disk space",
			Run: func(ctx context.Context, pc *ProjectContext) error {
				_, err := tk.Capacity.Check(ctx, pc.ProjectPath, tk.MinimumBytes)
				return err
			},
		},
		{
			Name:       CreateDirStage,
			Title:      "Creating project directory",
			Reversible: true,
			Run:        createProjectDir,
		},
		{
			Name:       template.StageName,
			Title:      "Fetching template",
			Reversible: true,
			Run: func(ctx context.Context, pc *ProjectContext) error {
				return tk.Fetcher.Fetch(ctx, pc.Config.Template, pc.ProjectPath)
			},
		},
		{
			Name:       manifest.ManifestStage,
			Title:      "Updating package.json",
			Reversible: true,
			Run: func(_ context.Context, pc *ProjectContext) error {
				return manifest.Rewrite(pc.ProjectPath, pc.Config.ProjectName)
			},
		},
		{
			Name:       manifest.SeedStage,
			Title:      "Seeding administrator account",
			Reversible: true,
			Run: func(_ context.Context, pc *ProjectContext) error {
				path, err := manifest.SeedAdmin(pc.ProjectPath, pc.Config.Admin)
				if err != nil {
					return err
				}
				if path == "" {
					return fmt.Errorf("%w: template has no administrator placeholder", ErrSkipped)
				}
				return nil
			},
		},
		{
			Name:       EnvFileStage,
			Title:      "Writing .env",
			Reversible: true,
			Run: func(_ context.Context, pc *ProjectContext) error {
				path, err := envfile.Write(pc.ProjectPath, pc.Config)
				if err != nil {
					return apperrors.NewStageError(EnvFileStage, apperrors.CodeUnknown, err)
				}
				pc.Track(path)
				return nil
			},
		},
		{
			Name:       install.StageName,
			Title:      "Installing dependencies",
			Reversible: true,
			Run: func(ctx context.Context, pc *ProjectContext) error {
				return tk.Installer.Install(ctx, pc.ProjectPath, pc.Config.PackageManager)
			},
		},
	}
}

// createProjectDir claims the project root. An existing path is never reused
// and is left untouched by rollback.
func createProjectDir(_ context.Context, pc *ProjectContext) error {
	err := os.Mkdir(pc.ProjectPath, 0o755)
	if errors.Is(err, fs.ErrExist) {
		stageErr := apperrors.NewStageError(CreateDirStage, apperrors.CodeDirExists, fmt.Errorf("directory %s already exists", pc.ProjectPath))
		stageErr.Remediation = []string{
			"Choose a different project name",
			fmt.Sprintf("Or remove %s first", pc.ProjectPath),
		}
		return stageErr
	}
	if err != nil {
		return apperrors.NewStageError(CreateDirStage, apperrors.CodeUnknown, err)
	}
	pc.Track(pc.ProjectPath)
	return nil
}
