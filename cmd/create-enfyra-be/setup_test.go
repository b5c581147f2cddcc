package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/create-enfyra-be/internal/capacity"
	"github.com/alexisbeaulieu97/create-enfyra-be/internal/config"
	"github.com/alexisbeaulieu97/create-enfyra-be/internal/connectivity"
	"github.com/alexisbeaulieu97/create-enfyra-be/internal/install"
	"github.com/alexisbeaulieu97/create-enfyra-be/internal/internalexec"
	"github.com/alexisbeaulieu97/create-enfyra-be/internal/logger"
	"github.com/alexisbeaulieu97/create-enfyra-be/internal/model"
	"github.com/alexisbeaulieu97/create-enfyra-be/internal/pipeline"
	"github.com/alexisbeaulieu97/create-enfyra-be/internal/retry"
	"github.com/alexisbeaulieu97/create-enfyra-be/internal/ui"
	apperrors "github.com/alexisbeaulieu97/create-enfyra-be/pkg/errors"
)

func init() {
	color.NoColor = true
}

func tools(versions map[string]string) install.Detector {
	return install.Detector{
		LookPath: func(name string) (string, error) {
			if _, ok := versions[name]; !ok {
				return "", exec.ErrNotFound
			}
			return "/usr/bin/" + name, nil
		},
		Version: func(_ context.Context, path string) (string, error) {
			return versions[filepath.Base(path)], nil
		},
	}
}

type fixedValidator struct {
	report model.ValidationReport
	calls  int
}

func (v *fixedValidator) ValidateAll(context.Context, config.Config) model.ValidationReport {
	v.calls++
	return v.report
}

func passing() model.ValidationReport {
	return model.NewValidationReport(
		model.Success("mysql", model.TargetPrimary, "localhost:3306", time.Millisecond),
		model.Success("redis", model.TargetPrimary, "localhost:6379", time.Millisecond),
	)
}

func failing() model.ValidationReport {
	return model.NewValidationReport(
		model.Failure("mysql", model.TargetPrimary, "localhost:3306", apperrors.CodeConnRefused, "connection refused", time.Millisecond),
		model.Success("redis", model.TargetPrimary, "localhost:6379", time.Millisecond),
	)
}

type declining struct{}

func (declining) ProjectName(_ context.Context, suggested string) (string, error) {
	return suggested, nil
}

func (declining) Collect(_ context.Context, base config.Config) (config.Config, error) {
	return base, nil
}

func (declining) Confirm(context.Context, config.Config) (bool, error) {
	return false, nil
}

type giveUp struct{}

func (giveUp) Report(model.ValidationReport, []connectivity.Hint) {}

func (giveUp) ConfirmRetry(context.Context) (bool, error) { return false, nil }

func (giveUp) Database(_ context.Context, current config.DatabaseSettings) (config.DatabaseSettings, error) {
	return current, nil
}

func (giveUp) Cache(_ context.Context, current config.CacheSettings) (config.CacheSettings, error) {
	return current, nil
}

func templateRepo(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "package.json"), []byte(`{"name": "backend", "version": "2.0.0"}`), 0o644))
	_, err = wt.Add("package.json")
	require.NoError(t, err)
	_, err = wt.Commit("template", &git.CommitOptions{
		Author: &object.Signature{Name: "Enfyra", Email: "dev@enfyra.io", When: time.Now()},
	})
	require.NoError(t, err)
	return dir
}

func writeAnswers(t *testing.T, repo string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "answers.yaml")
	content := "projectName: shop\npackageManager: yarn\ntemplate:\n  repository: " + repo + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

type fixture struct {
	setup    *setup
	out      *bytes.Buffer
	installs int
}

func newFixture(t *testing.T, report model.ValidationReport) *fixture {
	t.Helper()

	f := &fixture{out: &bytes.Buffer{}}
	f.setup = &setup{
		flags:      rootFlags{skipPrompts: true, answers: writeAnswers(t, templateRepo(t))},
		workingDir: t.TempDir(),
		log:        logger.Nop(),
		printer:    ui.New(f.out),
		out:        f.out,
		detector:   tools(map[string]string{"node": "v20.11.1", "yarn": "1.22.22", "npm": "10.2.4"}),
		validator:  &fixedValidator{report: report},
		toolkit: pipeline.Toolkit{
			Capacity: capacity.Checker{Usage: func(context.Context, string) (uint64, error) { return 10 << 30, nil }},
			Installer: install.Installer{Runner: func(*exec.Cmd) (internalexec.Result, error) {
				f.installs++
				return internalexec.Result{}, nil
			}},
		},
	}
	return f
}

func TestExitCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, exitCode(nil))
	assert.Equal(t, 0, exitCode(retry.ErrAbandoned))
	assert.Equal(t, 0, exitCode(errDeclined))
	assert.Equal(t, 1, exitCode(install.ErrUnsupportedRuntime))
	assert.Equal(t, 1, exitCode(errors.New("boom")))
}

func TestRunProvisionsProject(t *testing.T) {
	t.Parallel()

	f := newFixture(t, passing())
	require.NoError(t, f.setup.run(context.Background(), ""))

	root := filepath.Join(f.setup.workingDir, "shop")
	assert.FileExists(t, filepath.Join(root, ".env"))
	assert.FileExists(t, filepath.Join(root, "package.json"))
	assert.Equal(t, 1, f.installs)

	out := f.out.String()
	assert.Contains(t, out, "• yarn v1.22.22")
	assert.Contains(t, out, "All 7 stages completed")
	assert.Contains(t, out, "yarn start:dev")
}

func TestRunUsesPositionalName(t *testing.T) {
	t.Parallel()

	f := newFixture(t, passing())
	require.NoError(t, f.setup.run(context.Background(), "billing"))
	assert.DirExists(t, filepath.Join(f.setup.workingDir, "billing"))
}

func TestRunRejectsInvalidNameWithoutPrompts(t *testing.T) {
	t.Parallel()

	f := newFixture(t, passing())
	err := f.setup.run(context.Background(), "bad name!")

	var validationErr *apperrors.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, 1, exitCode(err))
	assert.NoDirExists(t, filepath.Join(f.setup.workingDir, "bad name!"))
}

func TestRunStopsOnUnsupportedNode(t *testing.T) {
	t.Parallel()

	f := newFixture(t, passing())
	f.setup.detector = tools(map[string]string{"node": "v16.20.0", "yarn": "1.22.22"})

	err := f.setup.run(context.Background(), "")
	require.ErrorIs(t, err, install.ErrUnsupportedRuntime)
	assert.Contains(t, err.Error(), "16.20.0")
	assert.Zero(t, f.setup.validator.(*fixedValidator).calls)
}

func TestRunStopsWithoutPackageManager(t *testing.T) {
	t.Parallel()

	f := newFixture(t, passing())
	f.setup.detector = tools(map[string]string{"node": "v20.11.1", "npm": "6.14.0"})

	err := f.setup.run(context.Background(), "")
	require.ErrorIs(t, err, install.ErrNoPackageManager)
}

func TestRunConnectivityFailureIsFatalWithoutPrompts(t *testing.T) {
	t.Parallel()

	f := newFixture(t, failing())
	err := f.setup.run(context.Background(), "")

	require.ErrorIs(t, err, retry.ErrConnectivity)
	assert.Equal(t, 1, exitCode(err))
	assert.NoDirExists(t, filepath.Join(f.setup.workingDir, "shop"))
	assert.Contains(t, f.out.String(), "CONN_REFUSED")
}

func TestRunAbandonExitsCleanly(t *testing.T) {
	t.Parallel()

	f := newFixture(t, failing())
	f.setup.operator = giveUp{}

	err := f.setup.run(context.Background(), "")
	require.ErrorIs(t, err, retry.ErrAbandoned)
	assert.Equal(t, 0, exitCode(err))
	assert.NoDirExists(t, filepath.Join(f.setup.workingDir, "shop"))
}

func TestRunDeclinedConfirmationCreatesNothing(t *testing.T) {
	t.Parallel()

	f := newFixture(t, passing())
	f.setup.prompter = declining{}

	err := f.setup.run(context.Background(), "")
	require.ErrorIs(t, err, errDeclined)
	assert.Equal(t, 0, exitCode(err))
	assert.NoDirExists(t, filepath.Join(f.setup.workingDir, "shop"))
	assert.Zero(t, f.installs)
}

func TestRunReportsStageFailure(t *testing.T) {
	t.Parallel()

	f := newFixture(t, passing())
	f.setup.toolkit.Installer.Runner = func(*exec.Cmd) (internalexec.Result, error) {
		return internalexec.Result{Combined: "network timeout\n", ExitCode: 1}, errors.New("exit status 1")
	}

	err := f.setup.run(context.Background(), "")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeInstallFailed, apperrors.CodeOf(err))
	assert.NoDirExists(t, filepath.Join(f.setup.workingDir, "shop"))

	out := f.out.String()
	assert.Contains(t, out, "network timeout")
	assert.Contains(t, out, "Stage install-dependencies failed")
}

func TestRunWithoutAnswersFileUsesDetectedManager(t *testing.T) {
	t.Setenv(config.EnvTemplateRepo, templateRepo(t))

	f := newFixture(t, passing())
	f.setup.flags.answers = ""
	f.setup.detector = tools(map[string]string{"node": "v20.11.1", "npm": "10.2.4"})
	var argv []string
	f.setup.toolkit.Installer.Runner = func(cmd *exec.Cmd) (internalexec.Result, error) {
		argv = cmd.Args
		return internalexec.Result{}, nil
	}

	require.NoError(t, f.setup.run(context.Background(), "shop"))
	assert.Equal(t, []string{"npm", "install"}, argv)
	assert.FileExists(t, filepath.Join(f.setup.workingDir, "shop", ".env"))
	assert.Contains(t, f.out.String(), "npm run start:dev")
}

func TestRunRejectsUnusableAnswersManager(t *testing.T) {
	t.Parallel()

	f := newFixture(t, passing())
	answers := filepath.Join(t.TempDir(), "answers.yaml")
	require.NoError(t, os.WriteFile(answers, []byte("packageManager: bun\n"), 0o644))
	f.setup.flags.answers = answers

	err := f.setup.run(context.Background(), "shop")

	var validationErr *apperrors.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "packageManager", validationErr.Field)
	assert.Equal(t, 1, exitCode(err))
	assert.Zero(t, f.setup.validator.(*fixedValidator).calls)
}

func TestRunOffersOtherManagersAfterInstallFailure(t *testing.T) {
	t.Parallel()

	f := newFixture(t, passing())
	f.setup.toolkit.Installer.Runner = func(*exec.Cmd) (internalexec.Result, error) {
		return internalexec.Result{Combined: "network timeout\n", ExitCode: 1}, errors.New("exit status 1")
	}

	require.Error(t, f.setup.run(context.Background(), ""))
	assert.Contains(t, f.out.String(), "Or try another package manager: npm")
	assert.Contains(t, f.out.String(), "https://github.com/yarnpkg/berry/issues")
}
