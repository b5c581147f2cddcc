// Package manifest edits JSON files of the fetched template without
// reordering the keys it does not touch.
package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/buger/jsonparser"

	"github.com/alexisbeaulieu97/create-enfyra-be/internal/config"
	apperrors "github.com/alexisbeaulieu97/create-enfyra-be/pkg/errors"
)

const (
	// FileName is the package manifest at the project root.
	FileName = "package.json"
	// BaselineVersion is the version every generated project starts at.
	BaselineVersion = "0.1.0"

	ManifestStage = "rewrite-manifest"
	SeedStage     = "seed-admin"
)

// upstreamKeys point at the template's own project and are dropped.
var upstreamKeys = []string{"repository", "bugs", "homepage"}

// SeedFiles are the template locations probed for bootstrap data, in order.
var SeedFiles = []string{
	filepath.Join("src", "core", "bootstrap", "data", "init.json"),
	filepath.Join("data", "init.json"),
}

// SeedAdminKey is the object holding the administrator placeholder.
const SeedAdminKey = "user_definition"

// Rewrite renames the manifest in projectPath, resets its version and strips
// upstream metadata. A missing manifest fails with MANIFEST_MISSING.
func Rewrite(projectPath, name string) error {
	path := filepath.Join(projectPath, FileName)

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			stageErr := apperrors.NewStageError(ManifestStage, apperrors.CodeManifestMissing, fmt.Errorf("%s not found in template", FileName))
			stageErr.Remediation = []string{"Verify the template repository contains a package.json at its root"}
			return stageErr
		}
		return apperrors.NewStageError(ManifestStage, apperrors.CodeUnknown, err)
	}

	nameValue, err := json.Marshal(name)
	if err != nil {
		return apperrors.NewStageError(ManifestStage, apperrors.CodeUnknown, err)
	}
	versionValue, _ := json.Marshal(BaselineVersion)

	updated, err := rebuild(data, []member{
		{key: "name", value: nameValue},
		{key: "version", value: versionValue},
	}, upstreamKeys)
	if err != nil {
		return apperrors.NewStageError(ManifestStage, apperrors.CodeUnknown, fmt.Errorf("update %s: %w", FileName, err))
	}

	return writeKeepMode(path, updated)
}

// SeedAdmin overwrites the administrator placeholder of the template's seed
// data with admin. It returns the edited file, or "" when the template has no
// seed data or no placeholder.
func SeedAdmin(projectPath string, admin config.AdminSettings) (string, error) {
	for _, rel := range SeedFiles {
		path := filepath.Join(projectPath, rel)

		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return "", apperrors.NewStageError(SeedStage, apperrors.CodeUnknown, err)
		}

		if _, dataType, _, err := jsonparser.Get(data, SeedAdminKey); err != nil || dataType != jsonparser.Object {
			continue
		}

		updated, err := setString(data, admin.Email, SeedAdminKey, "email")
		if err == nil {
			updated, err = setString(updated, admin.Password, SeedAdminKey, "password")
		}
		if err != nil {
			return "", apperrors.NewStageError(SeedStage, apperrors.CodeUnknown, fmt.Errorf("update %s: %w", rel, err))
		}

		if err := writeKeepMode(path, updated); err != nil {
			return "", err
		}
		return path, nil
	}

	return "", nil
}

type member struct {
	key   string
	value []byte
}

// rebuild copies the top-level members of obj in their original order,
// replacing the values of replace and skipping drop. Replacements for absent
// keys are appended. The result is indented with two spaces.
func rebuild(obj []byte, replace []member, drop []string) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	written := make(map[string]bool, len(replace))
	write := func(key, value []byte) {
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		buf.WriteByte('"')
		buf.Write(key)
		buf.WriteString(`":`)
		buf.Write(value)
	}

	err := jsonparser.ObjectEach(obj, func(key, value []byte, dataType jsonparser.ValueType, _ int) error {
		name := string(key)
		if slices.Contains(drop, name) {
			return nil
		}
		for _, m := range replace {
			if m.key == name {
				if !written[name] {
					write(key, m.value)
					written[name] = true
				}
				return nil
			}
		}
		if dataType == jsonparser.String {
			value = append(append([]byte{'"'}, value...), '"')
		}
		write(key, value)
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, m := range replace {
		if !written[m.key] {
			write([]byte(m.key), m.value)
		}
	}
	buf.WriteByte('}')

	var out bytes.Buffer
	if err := json.Indent(&out, buf.Bytes(), "", "  "); err != nil {
		return nil, err
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

func setString(data []byte, value string, keys ...string) ([]byte, error) {
	encoded, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return jsonparser.Set(data, encoded, keys...)
}

func writeKeepMode(path string, data []byte) error {
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := os.WriteFile(path, data, mode); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}
