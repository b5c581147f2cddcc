package capacity

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/alexisbeaulieu97/create-enfyra-be/pkg/errors"
)

func fixedUsage(free uint64, seen *string) UsageFunc {
	return func(_ context.Context, path string) (uint64, error) {
		if seen != nil {
			*seen = path
		}
		return free, nil
	}
}

func TestCheckPassesWithEnoughSpace(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	var seen string
	result, err := Checker{Usage: fixedUsage(2*DefaultMinimum, &seen)}.Check(context.Background(), filepath.Join(dir, "app"), DefaultMinimum)
	require.NoError(t, err)
	assert.Equal(t, dir, seen)
	assert.Equal(t, dir, result.Path)
	assert.Equal(t, DefaultMinimum, result.Required)
}

func TestCheckResolvesNearestExistingAncestor(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	var seen string
	_, err := Checker{Usage: fixedUsage(DefaultMinimum, &seen)}.Check(context.Background(), filepath.Join(dir, "a", "b", "c"), DefaultMinimum)
	require.NoError(t, err)
	assert.Equal(t, dir, seen)
}

func TestCheckFailsBelowMinimum(t *testing.T) {
	t.Parallel()

	free := DefaultMinimum - 1
	result, err := Checker{Usage: fixedUsage(free, nil)}.Check(context.Background(), t.TempDir(), DefaultMinimum)

	var stageErr *apperrors.StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, apperrors.CodeInsufficientSpace, stageErr.Code)
	assert.Equal(t, StageName, stageErr.Stage)
	assert.NotEmpty(t, stageErr.Remediation)
	assert.Equal(t, free, result.FreeBytes)
	assert.Equal(t, DefaultMinimum, result.Required)
	assert.Equal(t, apperrors.CodeInsufficientSpace, apperrors.CodeOf(err))
}

func TestCheckZeroMinimumAlwaysPasses(t *testing.T) {
	t.Parallel()

	result, err := Checker{Usage: fixedUsage(0, nil)}.Check(context.Background(), t.TempDir(), 0)
	require.NoError(t, err)
	assert.Zero(t, result.Required)
}

func TestCheckWrapsUsageErrors(t *testing.T) {
	t.Parallel()

	boom := errors.New("statfs failed")
	_, err := Checker{Usage: func(context.Context, string) (uint64, error) { return 0, boom }}.Check(context.Background(), t.TempDir(), 1)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, apperrors.CodeUnknown, apperrors.CodeOf(err))
}

func TestCheckReadsRealFilesystem(t *testing.T) {
	t.Parallel()

	result, err := Check(context.Background(), t.TempDir(), 1)
	require.NoError(t, err)
	assert.Positive(t, result.FreeBytes)
}

func TestFormatBytes(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "512 B", FormatBytes(512))
	assert.Equal(t, "1.00 GiB", FormatBytes(DefaultMinimum))
	assert.Equal(t, "1.50 KiB", FormatBytes(1536))
}
