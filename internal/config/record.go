package config

import "strings"

// DBType selects the primary data store backend.
type DBType string

const (
	DBMySQL    DBType = "mysql"
	DBPostgres DBType = "postgres"
	DBMongoDB  DBType = "mongodb"
)

// Relational reports whether the backend speaks SQL.
func (t DBType) Relational() bool {
	return t == DBMySQL || t == DBPostgres
}

// DefaultPort returns the conventional listening port of the backend.
func (t DBType) DefaultPort() int {
	switch t {
	case DBPostgres:
		return 5432
	case DBMongoDB:
		return 27017
	default:
		return 3306
	}
}

// PackageManager names a supported JavaScript package manager.
type PackageManager string

const (
	NPM  PackageManager = "npm"
	Yarn PackageManager = "yarn"
	PNPM PackageManager = "pnpm"
	Bun  PackageManager = "bun"
)

// NodeEnv is the runtime environment name written to the generated project.
type NodeEnv string

const (
	EnvDevelopment NodeEnv = "development"
	EnvProduction  NodeEnv = "production"
	EnvTest        NodeEnv = "test"
)

// Config is the full configuration record collected from the operator. It is
// treated as an immutable snapshot: the With* helpers return modified copies.
type Config struct {
	ProjectName    string         `yaml:"projectName" validate:"required,project_name"`
	PackageManager PackageManager `yaml:"packageManager" validate:"required,oneof=npm yarn pnpm bun"`
	NodeName       string         `yaml:"nodeName" validate:"required"`

	Database DatabaseSettings `yaml:"database"`
	Cache    CacheSettings    `yaml:"cache"`
	App      AppSettings      `yaml:"app"`
	Admin    AdminSettings    `yaml:"admin"`
	Advanced AdvancedSettings `yaml:"advanced"`
	Template TemplateSource   `yaml:"template"`
}

// DatabaseSettings holds the primary data store connection fields. Either URI
// or the discrete host/port/name fields are used.
type DatabaseSettings struct {
	Type     DBType `yaml:"type" validate:"required,oneof=mysql postgres mongodb"`
	URI      string `yaml:"uri,omitempty" validate:"omitempty,db_uri"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port" validate:"omitempty,min=1,max=65535"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Name     string `yaml:"name" validate:"omitempty,db_name"`

	// AuthSource is only used by mongodb.
	AuthSource string `yaml:"authSource,omitempty"`

	// ReplicaHost/ReplicaPort describe an optional read replica for
	// relational backends. Credentials and database name are shared.
	ReplicaHost string `yaml:"replicaHost,omitempty"`
	ReplicaPort int    `yaml:"replicaPort,omitempty" validate:"omitempty,min=1,max=65535"`

	Pool PoolSettings `yaml:"pool"`
}

// HasReplica reports whether a read replica is configured.
func (d DatabaseSettings) HasReplica() bool {
	return strings.TrimSpace(d.ReplicaHost) != ""
}

// PoolSettings tunes the generated project's connection pool. When disabled
// the fixed defaults are rendered instead of the values.
type PoolSettings struct {
	Enabled         bool `yaml:"enabled"`
	Size            int  `yaml:"size" validate:"omitempty,min=1"`
	ConnectionLimit int  `yaml:"connectionLimit" validate:"omitempty,min=1"`
	AcquireTimeout  int  `yaml:"acquireTimeout" validate:"omitempty,min=0"`
	IdleTimeout     int  `yaml:"idleTimeout" validate:"omitempty,min=0"`
}

// CacheSettings holds the redis connection.
type CacheSettings struct {
	URI string `yaml:"uri" validate:"required,redis_uri"`
	// TTL is the default cache TTL in seconds.
	TTL int `yaml:"ttl" validate:"min=0"`
}

// AppSettings configures the generated application runtime.
type AppSettings struct {
	Port       int     `yaml:"port" validate:"required,min=1,max=65535"`
	BackendURL string  `yaml:"backendUrl" validate:"required,backend_url"`
	NodeEnv    NodeEnv `yaml:"nodeEnv" validate:"required,oneof=development production test"`
}

// AdminSettings are the credentials of the bootstrap administrator account.
type AdminSettings struct {
	Email    string `yaml:"email" validate:"required,email"`
	Password string `yaml:"password" validate:"required,min=4"`
}

// AdvancedSettings groups rarely changed runtime overrides. They are only
// prompted for when Enabled is set; otherwise the defaults apply.
type AdvancedSettings struct {
	Enabled          bool `yaml:"enabled"`
	HandlerTimeout   int  `yaml:"handlerTimeout" validate:"min=100"`
	PrehookTimeout   int  `yaml:"prehookTimeout" validate:"min=100"`
	AfterhookTimeout int  `yaml:"afterhookTimeout" validate:"min=100"`
}

// TemplateSource locates the remote project template.
type TemplateSource struct {
	Repository string `yaml:"repository" validate:"required"`
	Branch     string `yaml:"branch,omitempty"`
	Depth      int    `yaml:"depth,omitempty" validate:"min=0"`
}

// WithDatabase returns a copy of c with the database settings replaced.
func (c Config) WithDatabase(db DatabaseSettings) Config {
	c.Database = db
	return c
}

// WithCache returns a copy of c with the cache settings replaced.
func (c Config) WithCache(cache CacheSettings) Config {
	c.Cache = cache
	return c
}

// WithProjectName returns a copy of c named name. The node name follows the
// project name unless it was customised.
func (c Config) WithProjectName(name string) Config {
	if c.NodeName == "" || c.NodeName == c.ProjectName {
		c.NodeName = name
	}
	c.ProjectName = name
	return c
}
