package prompt

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/alexisbeaulieu97/create-enfyra-be/internal/config"
	"github.com/alexisbeaulieu97/create-enfyra-be/internal/install"
)

// intBinding lets a text input edit an int field.
type intBinding struct {
	target *int
	text   string
}

func bindInt(target *int) *intBinding {
	b := &intBinding{target: target}
	if *target != 0 {
		b.text = strconv.Itoa(*target)
	}
	return b
}

// apply stores the parsed text. Inputs are validated before the form
// completes, so unparsable text leaves the target unchanged.
func (b *intBinding) apply() {
	if n, err := strconv.Atoi(strings.TrimSpace(b.text)); err == nil {
		*b.target = n
	}
}

type bindings []*intBinding

func (bs *bindings) int(target *int) *string {
	b := bindInt(target)
	*bs = append(*bs, b)
	return &b.text
}

func (bs bindings) apply() {
	for _, b := range bs {
		b.apply()
	}
}

func managerOptions(detections []install.ManagerDetection) []huh.Option[config.PackageManager] {
	options := make([]huh.Option[config.PackageManager], 0, len(detections))
	for _, det := range detections {
		label := string(det.Manager)
		if det.Version != "" {
			label += " (v" + det.Version + ")"
		}
		options = append(options, huh.NewOption(label, det.Manager))
	}
	return options
}

// defaultManager keeps current when it is usable, otherwise picks the first
// usable manager, which is yarn whenever yarn is installed.
func defaultManager(current config.PackageManager, detections []install.ManagerDetection) config.PackageManager {
	for _, det := range detections {
		if det.Manager == current {
			return current
		}
	}
	if len(detections) > 0 {
		return detections[0].Manager
	}
	return current
}

var dbTypeOptions = []huh.Option[config.DBType]{
	huh.NewOption("MySQL", config.DBMySQL),
	huh.NewOption("PostgreSQL", config.DBPostgres),
	huh.NewOption("MongoDB", config.DBMongoDB),
}

var nodeEnvOptions = []huh.Option[config.NodeEnv]{
	huh.NewOption("development", config.EnvDevelopment),
	huh.NewOption("production", config.EnvProduction),
	huh.NewOption("test", config.EnvTest),
}

// switchDBType changes the backend kind and moves a port still sitting on the
// previous kind's default to the new default.
func switchDBType(db config.DatabaseSettings, kind config.DBType) config.DatabaseSettings {
	if db.Port == 0 || db.Port == db.Type.DefaultPort() {
		db.Port = kind.DefaultPort()
	}
	if kind == config.DBMongoDB {
		db.ReplicaHost = ""
		db.ReplicaPort = 0
		db.Pool.Enabled = false
		if db.AuthSource == "" {
			db.AuthSource = config.DefaultMongoAuthSource
		}
	}
	db.Type = kind
	return db
}
