// Package envfile renders the generated project's .env file.
package envfile

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/alexisbeaulieu97/create-enfyra-be/internal/config"
)

// FileName is the name of the rendered file inside the project directory.
const FileName = ".env"

// Fixed auth settings of every generated project.
const (
	SaltRounds                = 10
	AccessTokenExpiry         = "15m"
	RefreshTokenNoRememberExp = "1d"
	RefreshTokenRememberExp   = "7d"
)

const secretBytes = 32

// NewSecret returns a fresh 32-byte secret, hex encoded.
func NewSecret() (string, error) {
	buf := make([]byte, secretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// Write renders cfg with a new secret into <projectPath>/.env and returns the
// written path.
func Write(projectPath string, cfg config.Config) (string, error) {
	secret, err := NewSecret()
	if err != nil {
		return "", err
	}

	path := filepath.Join(projectPath, FileName)
	if err := os.WriteFile(path, []byte(Render(cfg, secret)), 0o600); err != nil {
		return "", fmt.Errorf("write %s: %w", FileName, err)
	}
	return path, nil
}

type section struct {
	title string
	lines [][2]string
}

func (s *section) add(key string, value any) {
	s.lines = append(s.lines, [2]string{key, fmt.Sprint(value)})
}

// Render is a pure function of the configuration record and the secret.
func Render(cfg config.Config, secret string) string {
	sections := []*section{databaseSection(cfg.Database)}
	if cfg.Database.Type.Relational() {
		sections = append(sections, poolSection(cfg.Database.Pool))
	}

	cache := &section{title: "REDIS SETTING"}
	cache.add("REDIS_URI", cfg.Cache.URI)
	cache.add("DEFAULT_TTL", cfg.Cache.TTL)

	timeouts := cfg.Advanced
	if !timeouts.Enabled {
		timeouts = config.Defaults().Advanced
	}
	app := &section{title: "APP SETTING"}
	app.add("NODE_NAME", nodeName(cfg))
	app.add("PORT", cfg.App.Port)
	app.add("DEFAULT_HANDLER_TIMEOUT", timeouts.HandlerTimeout)
	app.add("DEFAULT_PREHOOK_TIMEOUT", timeouts.PrehookTimeout)
	app.add("DEFAULT_AFTERHOOK_TIMEOUT", timeouts.AfterhookTimeout)
	app.add("PACKAGE_MANAGER", cfg.PackageManager)
	app.add("NODE_ENV", cfg.App.NodeEnv)

	auth := &section{title: "AUTH SETTING"}
	auth.add("SECRET_KEY", secret)
	auth.add("SALT_ROUNDS", SaltRounds)
	auth.add("ACCESS_TOKEN_EXP", AccessTokenExpiry)
	auth.add("REFRESH_TOKEN_NO_REMEMBER_EXP", RefreshTokenNoRememberExp)
	auth.add("REFRESH_TOKEN_REMEMBER_EXP", RefreshTokenRememberExp)

	backend := &section{title: "BACKEND SETTING"}
	backend.add("BACKEND_URL", cfg.App.BackendURL)

	sections = append(sections, cache, app, auth, backend)

	var b strings.Builder
	for i, s := range sections {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("#" + s.title + "\n")
		for _, kv := range s.lines {
			b.WriteString(kv[0] + "=" + quote(kv[1]) + "\n")
		}
	}
	return b.String()
}

func databaseSection(db config.DatabaseSettings) *section {
	s := &section{title: "DB SETTING"}
	s.add("DB_TYPE", db.Type)

	if db.Type == config.DBMongoDB {
		s.add("MONGO_URI", MongoURI(db))
		return s
	}

	if db.URI != "" {
		s.add("DB_URI", db.URI)
	} else {
		s.add("DB_HOST", db.Host)
		s.add("DB_PORT", db.Port)
		s.add("DB_USERNAME", db.Username)
		s.add("DB_PASSWORD", db.Password)
		s.add("DB_NAME", db.Name)
	}

	if db.HasReplica() {
		s.add("DB_REPLICA_HOST", db.ReplicaHost)
		s.add("DB_REPLICA_PORT", db.ReplicaPort)
	}
	return s
}

func poolSection(pool config.PoolSettings) *section {
	effective := pool.EffectivePool()
	s := &section{title: "DATABASE CONNECTION POOL SETTINGS"}
	s.add("DB_POOL_SIZE", effective.Size)
	s.add("DB_CONNECTION_LIMIT", effective.ConnectionLimit)
	s.add("DB_ACQUIRE_TIMEOUT", effective.AcquireTimeout)
	s.add("DB_IDLE_TIMEOUT", effective.IdleTimeout)
	return s
}

// MongoURI returns the configured URI, or one assembled from the discrete
// fields with credentials escaped.
func MongoURI(db config.DatabaseSettings) string {
	if db.URI != "" {
		return db.URI
	}

	uri := url.URL{
		Scheme: "mongodb",
		Host:   net.JoinHostPort(db.Host, strconv.Itoa(db.Port)),
		Path:   "/" + db.Name,
	}
	if db.Username != "" {
		uri.User = url.UserPassword(db.Username, db.Password)
	}
	authSource := db.AuthSource
	if authSource == "" {
		authSource = config.DefaultMongoAuthSource
	}
	uri.RawQuery = url.Values{"authSource": []string{authSource}}.Encode()
	return uri.String()
}

func nodeName(cfg config.Config) string {
	if cfg.NodeName != "" {
		return cfg.NodeName
	}
	return cfg.ProjectName
}

// quote wraps values that a dotenv parser would otherwise split or truncate.
// Single quotes keep the value literal in every dotenv dialect; double quotes
// are used only when the value holds a single quote and nothing a double
// quoted value would expand.
func quote(value string) string {
	if value == "" || !strings.ContainsAny(value, " \t#\"'\\$\n") {
		return value
	}
	if !strings.Contains(value, "'") {
		return "'" + value + "'"
	}
	if !strings.ContainsAny(value, "\"\\$\n") {
		return `"` + value + `"`
	}
	return "`" + value + "`"
}
