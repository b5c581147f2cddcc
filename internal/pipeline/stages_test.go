package pipeline

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/create-enfyra-be/internal/capacity"
	"github.com/alexisbeaulieu97/create-enfyra-be/internal/config"
	"github.com/alexisbeaulieu97/create-enfyra-be/internal/install"
	"github.com/alexisbeaulieu97/create-enfyra-be/internal/internalexec"
	"github.com/alexisbeaulieu97/create-enfyra-be/internal/manifest"
	"github.com/alexisbeaulieu97/create-enfyra-be/internal/model"
	"github.com/alexisbeaulieu97/create-enfyra-be/internal/template"
	apperrors "github.com/alexisbeaulieu97/create-enfyra-be/pkg/errors"
)

const seedData = `{"user_definition": {"email": "enfyra@admin.com", "password": "1234"}}`

// templateRepo commits files into a fresh local repository and returns its path.
func templateRepo(t *testing.T, files map[string]string) string {
	t.Helper()

	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)

	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		_, err := wt.Add(name)
		require.NoError(t, err)
	}

	_, err = wt.Commit("template", &git.CommitOptions{
		Author: &object.Signature{Name: "Enfyra", Email: "dev@enfyra.io", When: time.Now()},
	})
	require.NoError(t, err)
	return dir
}

func goodTemplate() map[string]string {
	return map[string]string{
		manifest.FileName:     `{"name": "backend", "version": "9.9.9", "homepage": "https://enfyra.io"}`,
		manifest.SeedFiles[0]: seedData,
	}
}

type harness struct {
	pc       *ProjectContext
	toolkit  Toolkit
	installs int
}

func newHarness(t *testing.T, files map[string]string) *harness {
	t.Helper()

	cfg := config.Defaults().WithProjectName("shop")
	cfg.Template = config.TemplateSource{Repository: templateRepo(t, files)}
	cfg.PackageManager = config.Yarn

	pc, err := NewProjectContext(t.TempDir(), cfg)
	require.NoError(t, err)

	h := &harness{pc: pc}
	h.toolkit = Toolkit{
		Capacity:     capacity.Checker{Usage: func(context.Context, string) (uint64, error) { return 10 << 30, nil }},
		MinimumBytes: capacity.DefaultMinimum,
		Installer: install.Installer{Runner: func(cmd *exec.Cmd) (internalexec.Result, error) {
			h.installs++
			return internalexec.Result{}, nil
		}},
	}
	return h
}

func (h *harness) run() ([]model.StageResult, error) {
	return New(DefaultStages(h.toolkit)).Run(context.Background(), h.pc)
}

func TestDefaultStagesOrder(t *testing.T) {
	t.Parallel()

	var names []string
	for _, stage := range DefaultStages(Toolkit{}) {
		names = append(names, stage.Name)
	}
	assert.Equal(t, []string{
		capacity.StageName,
		CreateDirStage,
		template.StageName,
		manifest.ManifestStage,
		manifest.SeedStage,
		EnvFileStage,
		install.StageName,
	}, names)
}

func TestDefaultStagesProvisionProject(t *testing.T) {
	t.Parallel()

	h := newHarness(t, goodTemplate())
	results, err := h.run()
	require.NoError(t, err)
	require.Len(t, results, 7)
	assert.Equal(t, 1, h.installs)

	root := h.pc.ProjectPath
	assert.NoDirExists(t, filepath.Join(root, ".git"))

	data, err := os.ReadFile(filepath.Join(root, manifest.FileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"name": "shop"`)
	assert.Contains(t, string(data), `"version": "0.1.0"`)
	assert.NotContains(t, string(data), "homepage")

	seed, err := os.ReadFile(filepath.Join(root, manifest.SeedFiles[0]))
	require.NoError(t, err)
	assert.Contains(t, string(seed), h.pc.Config.Admin.Email)

	env, err := godotenv.Read(filepath.Join(root, ".env"))
	require.NoError(t, err)
	assert.Equal(t, "mysql", env["DB_TYPE"])
	assert.Len(t, env["SECRET_KEY"], 64)
}

func TestDefaultStagesSkipSeedWithoutPlaceholder(t *testing.T) {
	t.Parallel()

	h := newHarness(t, map[string]string{manifest.FileName: `{"name": "backend"}`})
	results, err := h.run()
	require.NoError(t, err)
	assert.Equal(t, model.StatusSkipped, results[4].Status)
}

func TestDefaultStagesRollbackOnFailure(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		setup func(t *testing.T, h *harness)
		stage string
		code  apperrors.Code
	}{
		{
			name: "fetch",
			setup: func(t *testing.T, h *harness) {
				h.pc.Config.Template.Repository = filepath.Join(t.TempDir(), "missing")
			},
			stage: template.StageName,
			code:  apperrors.CodeTemplateFetchFailed,
		},
		{
			name: "manifest",
			setup: func(t *testing.T, h *harness) {
				h.pc.Config.Template.Repository = templateRepo(t, map[string]string{"README.md": "no manifest"})
			},
			stage: manifest.ManifestStage,
			code:  apperrors.CodeManifestMissing,
		},
		{
			name: "seed",
			setup: func(t *testing.T, h *harness) {
				files := goodTemplate()
				delete(files, manifest.SeedFiles[0])
				files[filepath.Join(manifest.SeedFiles[0], "keep")] = "seed path is a directory"
				h.pc.Config.Template.Repository = templateRepo(t, files)
			},
			stage: manifest.SeedStage,
			code:  apperrors.CodeUnknown,
		},
		{
			name: "env",
			setup: func(t *testing.T, h *harness) {
				files := goodTemplate()
				files[filepath.Join(".env", "keep")] = ".env is a directory"
				h.pc.Config.Template.Repository = templateRepo(t, files)
			},
			stage: EnvFileStage,
			code:  apperrors.CodeUnknown,
		},
		{
			name: "install",
			setup: func(t *testing.T, h *harness) {
				h.toolkit.Installer.Runner = func(*exec.Cmd) (internalexec.Result, error) {
					return internalexec.Result{Combined: "error An unexpected error occurred", ExitCode: 1}, errors.New("exit status 1")
				}
			},
			stage: install.StageName,
			code:  apperrors.CodeInstallFailed,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			h := newHarness(t, goodTemplate())
			tc.setup(t, h)

			_, err := h.run()

			var stageErr *apperrors.StageError
			require.ErrorAs(t, err, &stageErr)
			assert.Equal(t, tc.stage, stageErr.Stage)
			assert.Equal(t, tc.code, stageErr.Code)
			assert.NoError(t, stageErr.RollbackErr)
			assert.NoDirExists(t, h.pc.ProjectPath)
		})
	}
}

func TestDefaultStagesCapacityFailureCreatesNothing(t *testing.T) {
	t.Parallel()

	h := newHarness(t, goodTemplate())
	h.toolkit.Capacity.Usage = func(context.Context, string) (uint64, error) { return 1 << 20, nil }

	results, err := h.run()
	assert.Equal(t, apperrors.CodeInsufficientSpace, apperrors.CodeOf(err))
	assert.Len(t, results, 1)
	assert.NoDirExists(t, h.pc.ProjectPath)
}

func TestDefaultStagesSecondRunReportsDirExists(t *testing.T) {
	t.Parallel()

	h := newHarness(t, goodTemplate())
	_, err := h.run()
	require.NoError(t, err)

	second, err := NewProjectContext(filepath.Dir(h.pc.ProjectPath), h.pc.Config)
	require.NoError(t, err)
	_, err = New(DefaultStages(h.toolkit)).Run(context.Background(), second)

	assert.Equal(t, apperrors.CodeDirExists, apperrors.CodeOf(err))
	assert.FileExists(t, filepath.Join(h.pc.ProjectPath, manifest.FileName), "existing project must survive")
	assert.FileExists(t, filepath.Join(h.pc.ProjectPath, ".env"))
}
