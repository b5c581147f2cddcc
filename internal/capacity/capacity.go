// Package capacity refuses to start provisioning on a nearly full disk.
package capacity

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/shirou/gopsutil/v4/disk"

	apperrors "github.com/alexisbeaulieu97/create-enfyra-be/pkg/errors"
)

// DefaultMinimum is the free space required for a template checkout plus its
// installed dependencies.
const DefaultMinimum uint64 = 1 << 30

// StageName identifies the capacity check in pipeline errors.
const StageName = "capacity"

// Result describes the filesystem that was inspected.
type Result struct {
	// Path is the existing directory whose filesystem was measured.
	Path      string
	FreeBytes uint64
	Required  uint64
}

// UsageFunc reports free bytes of the filesystem containing path.
type UsageFunc func(ctx context.Context, path string) (uint64, error)

// Checker measures free space. The zero value uses gopsutil.
type Checker struct {
	Usage UsageFunc
}

func diskFree(ctx context.Context, path string) (uint64, error) {
	stat, err := disk.UsageWithContext(ctx, path)
	if err != nil {
		return 0, err
	}
	return stat.Free, nil
}

// Check is Checker{}.Check.
func Check(ctx context.Context, targetPath string, minimumBytes uint64) (Result, error) {
	return Checker{}.Check(ctx, targetPath, minimumBytes)
}

// Check resolves the filesystem that will hold targetPath and fails with
// INSUFFICIENT_SPACE when less than minimumBytes are free. targetPath itself
// need not exist yet.
func (c Checker) Check(ctx context.Context, targetPath string, minimumBytes uint64) (Result, error) {
	usage := c.Usage
	if usage == nil {
		usage = diskFree
	}

	existing, err := nearestExisting(targetPath)
	if err != nil {
		return Result{}, apperrors.NewStageError(StageName, apperrors.CodeUnknown, err)
	}

	free, err := usage(ctx, existing)
	if err != nil {
		return Result{}, apperrors.NewStageError(StageName, apperrors.CodeUnknown, fmt.Errorf("read free space of %s: %w", existing, err))
	}

	result := Result{Path: existing, FreeBytes: free, Required: minimumBytes}
	if free < minimumBytes {
		stageErr := apperrors.NewStageError(StageName, apperrors.CodeInsufficientSpace,
			fmt.Errorf("only %s free on %s, %s required", FormatBytes(free), existing, FormatBytes(minimumBytes)))
		stageErr.Remediation = []string{
			fmt.Sprintf("Free at least %s on the disk holding %s", FormatBytes(minimumBytes-free), existing),
			"Or choose a project location on another disk",
		}
		return result, stageErr
	}

	return result, nil
}

// nearestExisting walks up from path to the first directory that exists.
func nearestExisting(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}

	current := abs
	for {
		info, statErr := os.Stat(current)
		if statErr == nil {
			if info.IsDir() {
				return current, nil
			}
			return filepath.Dir(current), nil
		}
		if !errors.Is(statErr, fs.ErrNotExist) {
			return "", statErr
		}

		parent := filepath.Dir(current)
		if parent == current {
			return "", fmt.Errorf("no existing ancestor for %s", abs)
		}
		current = parent
	}
}

// FormatBytes renders a byte count with a binary unit.
func FormatBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
