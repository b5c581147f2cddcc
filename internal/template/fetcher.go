// Package template materializes the remote project template into the
// project directory.
package template

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/alexisbeaulieu97/create-enfyra-be/internal/config"
	apperrors "github.com/alexisbeaulieu97/create-enfyra-be/pkg/errors"
)

// StageName identifies the fetch in pipeline errors.
const StageName = "fetch-template"

// Fetcher clones a template repository and strips its history.
type Fetcher struct {
	// Progress receives git sideband output when set.
	Progress io.Writer
}

// Fetch clones source into destination, which must exist and be empty, then
// removes the .git directory so the project starts without upstream history.
func (f Fetcher) Fetch(ctx context.Context, source config.TemplateSource, destination string) error {
	cloneOpts := &git.CloneOptions{
		URL:      source.Repository,
		Progress: f.Progress,
	}
	if source.Depth > 0 {
		cloneOpts.Depth = source.Depth
	}
	if source.Branch != "" {
		cloneOpts.ReferenceName = plumbing.NewBranchReferenceName(source.Branch)
		cloneOpts.SingleBranch = true
	}

	if _, err := git.PlainCloneContext(ctx, destination, false, cloneOpts); err != nil {
		return fetchError(source, fmt.Errorf("clone %s: %w", source.Repository, err))
	}

	if err := os.RemoveAll(filepath.Join(destination, git.GitDirName)); err != nil {
		return fetchError(source, fmt.Errorf("remove template history: %w", err))
	}

	return nil
}

func fetchError(source config.TemplateSource, err error) error {
	stageErr := apperrors.NewStageError(StageName, apperrors.CodeTemplateFetchFailed, err)
	stageErr.Remediation = []string{
		"Check internet connection",
		fmt.Sprintf("Verify Git repository URL: %s", source.Repository),
	}
	if source.Branch != "" {
		stageErr.Remediation = append(stageErr.Remediation, fmt.Sprintf("Verify the branch exists: %s", source.Branch))
	}
	return stageErr
}
