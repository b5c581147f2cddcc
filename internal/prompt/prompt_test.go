package prompt

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/create-enfyra-be/internal/config"
	"github.com/alexisbeaulieu97/create-enfyra-be/internal/install"
	apperrors "github.com/alexisbeaulieu97/create-enfyra-be/pkg/errors"
)

func TestIntBindings(t *testing.T) {
	t.Parallel()

	port, ttl := 3306, 0
	var ints bindings
	portText := ints.int(&port)
	ttlText := ints.int(&ttl)

	assert.Equal(t, "3306", *portText)
	assert.Equal(t, "", *ttlText, "zero starts empty")

	*portText = " 3307 "
	*ttlText = "not a number"
	ints.apply()

	assert.Equal(t, 3307, port)
	assert.Equal(t, 0, ttl)
}

func TestDefaultManager(t *testing.T) {
	t.Parallel()

	detections := []install.ManagerDetection{
		{Manager: config.Yarn},
		{Manager: config.PNPM},
	}

	assert.Equal(t, config.PNPM, defaultManager(config.PNPM, detections))
	assert.Equal(t, config.Yarn, defaultManager(config.NPM, detections), "unusable choice falls back to the preferred manager")
	assert.Equal(t, config.NPM, defaultManager(config.NPM, nil))
}

func TestManagerOptionsShowVersions(t *testing.T) {
	t.Parallel()

	options := managerOptions([]install.ManagerDetection{
		{Manager: config.Yarn, Detection: install.Detection{Version: "1.22.22"}},
		{Manager: config.Bun},
	})

	require.Len(t, options, 2)
	assert.Equal(t, "yarn (v1.22.22)", options[0].Key)
	assert.Equal(t, config.Yarn, options[0].Value)
	assert.Equal(t, "bun", options[1].Key)
}

func TestSwitchDBType(t *testing.T) {
	t.Parallel()

	db := config.Defaults().Database
	require.Equal(t, 3306, db.Port)

	pg := switchDBType(db, config.DBPostgres)
	assert.Equal(t, 5432, pg.Port)
	assert.Equal(t, config.DBPostgres, pg.Type)

	db.Port = 13306
	assert.Equal(t, 13306, switchDBType(db, config.DBPostgres).Port, "custom ports are kept")

	db.ReplicaHost = "replica"
	db.ReplicaPort = 3306
	db.Pool.Enabled = true
	db.AuthSource = ""
	mongo := switchDBType(db, config.DBMongoDB)
	assert.False(t, mongo.HasReplica())
	assert.Zero(t, mongo.ReplicaPort)
	assert.False(t, mongo.Pool.Enabled)
	assert.Equal(t, config.DefaultMongoAuthSource, mongo.AuthSource)
}

func TestSummaryRedactsPassword(t *testing.T) {
	t.Parallel()

	cfg := config.Defaults()
	cfg.Database.URI = "mysql://root:hunter2@db:3306/enfyra"

	summary := Summary(cfg)
	assert.NotContains(t, summary, "hunter2")
	assert.Contains(t, summary, "db:3306")

	cfg.Database.URI = ""
	assert.Contains(t, Summary(cfg), "localhost:3306/enfyra")
}

func TestStaticProjectName(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "taken"), 0o755))
	s := Static{WorkingDir: dir}

	name, err := s.ProjectName(context.Background(), "shop")
	require.NoError(t, err)
	assert.Equal(t, "shop", name)

	_, err = s.ProjectName(context.Background(), "bad name!")
	var validationErr *apperrors.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "Only letters, numbers, - and _ allowed", validationErr.Message)

	_, err = s.ProjectName(context.Background(), "taken")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestStaticCollectAndConfirm(t *testing.T) {
	t.Parallel()

	cfg := config.Defaults()
	cfg.PackageManager = config.NPM
	got, err := Static{}.Collect(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)

	ok, err := Static{}.Confirm(context.Background(), cfg)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestStaticCollectDefaultsPackageManager(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		managers []install.ManagerDetection
		want     config.PackageManager
	}{
		{
			name:     "yarn preferred",
			managers: []install.ManagerDetection{{Manager: config.Yarn}, {Manager: config.NPM}},
			want:     config.Yarn,
		},
		{
			name:     "first usable without yarn",
			managers: []install.ManagerDetection{{Manager: config.PNPM}, {Manager: config.Bun}},
			want:     config.PNPM,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Static{Managers: tt.managers}.Collect(context.Background(), config.Defaults())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.PackageManager)
		})
	}
}

func TestStaticCollectRejectsUnusableManager(t *testing.T) {
	t.Parallel()

	cfg := config.Defaults()
	cfg.PackageManager = config.Bun

	_, err := Static{Managers: []install.ManagerDetection{{Manager: config.Yarn}, {Manager: config.NPM}}}.Collect(context.Background(), cfg)

	var validationErr *apperrors.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "packageManager", validationErr.Field)
	assert.Contains(t, validationErr.Message, "yarn, npm")
}
