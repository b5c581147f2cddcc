package template

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/create-enfyra-be/internal/config"
	apperrors "github.com/alexisbeaulieu97/create-enfyra-be/pkg/errors"
)

// initTemplateRepo creates a local repository with a package.json on the
// default branch and an extra file on a "next" branch.
func initTemplateRepo(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	wt, err := repo.Worktree()
	require.NoError(t, err)

	signature := &object.Signature{Name: "Enfyra", Email: "dev@enfyra.io", When: time.Now()}

	require.NoError(t, os.WriteFile(filepath.Join(dir, "package.json"), []byte(`{"name":"backend"}`), 0o644))
	_, err = wt.Add("package.json")
	require.NoError(t, err)
	_, err = wt.Commit("initial", &git.CommitOptions{Author: signature})
	require.NoError(t, err)

	head, err := repo.Head()
	require.NoError(t, err)

	require.NoError(t, wt.Checkout(&git.CheckoutOptions{Branch: plumbing.NewBranchReferenceName("next"), Create: true}))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "NEXT.md"), []byte("next"), 0o644))
	_, err = wt.Add("NEXT.md")
	require.NoError(t, err)
	_, err = wt.Commit("next", &git.CommitOptions{Author: signature})
	require.NoError(t, err)

	require.NoError(t, wt.Checkout(&git.CheckoutOptions{Branch: head.Name()}))

	return dir
}

func TestFetchClonesAndRemovesHistory(t *testing.T) {
	t.Parallel()

	source := initTemplateRepo(t)
	dest := t.TempDir()

	err := Fetcher{}.Fetch(context.Background(), config.TemplateSource{Repository: source}, dest)
	require.NoError(t, err)

	contents, err := os.ReadFile(filepath.Join(dest, "package.json"))
	require.NoError(t, err)
	assert.Contains(t, string(contents), "backend")

	_, err = os.Stat(filepath.Join(dest, ".git"))
	assert.True(t, os.IsNotExist(err), "template history should be removed")
	_, err = os.Stat(filepath.Join(dest, "NEXT.md"))
	assert.True(t, os.IsNotExist(err))
}

func TestFetchSelectsBranch(t *testing.T) {
	t.Parallel()

	source := initTemplateRepo(t)
	dest := t.TempDir()

	err := Fetcher{}.Fetch(context.Background(), config.TemplateSource{Repository: source, Branch: "next"}, dest)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dest, "NEXT.md"))
	require.NoError(t, err)
}

func TestFetchFailureIsTemplateFetchFailed(t *testing.T) {
	t.Parallel()

	missing := filepath.Join(t.TempDir(), "does-not-exist")
	err := Fetcher{}.Fetch(context.Background(), config.TemplateSource{Repository: missing}, t.TempDir())

	var stageErr *apperrors.StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, apperrors.CodeTemplateFetchFailed, stageErr.Code)
	assert.Equal(t, StageName, stageErr.Stage)
	assert.Contains(t, stageErr.Remediation, "Check internet connection")
}

func TestFetchUnknownBranch(t *testing.T) {
	t.Parallel()

	source := initTemplateRepo(t)
	err := Fetcher{}.Fetch(context.Background(), config.TemplateSource{Repository: source, Branch: "missing"}, t.TempDir())

	assert.Equal(t, apperrors.CodeTemplateFetchFailed, apperrors.CodeOf(err))
}
