package config

// Defaults for values rendered into the generated project.
const (
	DefaultProjectName     = "my-enfyra-app"
	DefaultTemplateRepo    = "https://github.com/enfyra/backend.git"
	DefaultTemplateDepth   = 1
	DefaultAppPort         = 1105
	DefaultCacheTTL        = 5
	DefaultHookTimeoutMs   = 20000
	DefaultPoolSize        = 100
	DefaultConnectionLimit = 100
	DefaultAcquireTimeout  = 60000
	DefaultIdleTimeout     = 30000
	DefaultMongoAuthSource = "admin"
)

// Defaults returns the configuration used as prompt defaults and as the base
// of --skip-prompts runs.
func Defaults() Config {
	return Config{
		ProjectName: DefaultProjectName,
		NodeName:    DefaultProjectName,
		Database: DatabaseSettings{
			Type:       DBMySQL,
			Host:       "localhost",
			Port:       DBMySQL.DefaultPort(),
			Username:   "root",
			Name:       "enfyra",
			AuthSource: DefaultMongoAuthSource,
			Pool:       DefaultPool(),
		},
		Cache: CacheSettings{
			URI: "redis://localhost:6379",
			TTL: DefaultCacheTTL,
		},
		App: AppSettings{
			Port:       DefaultAppPort,
			BackendURL: "http://localhost:1105",
			NodeEnv:    EnvDevelopment,
		},
		Admin: AdminSettings{
			Email:    "admin@enfyra.io",
			Password: "1234",
		},
		Advanced: AdvancedSettings{
			HandlerTimeout:   DefaultHookTimeoutMs,
			PrehookTimeout:   DefaultHookTimeoutMs,
			AfterhookTimeout: DefaultHookTimeoutMs,
		},
		Template: TemplateSource{
			Repository: DefaultTemplateRepo,
			Depth:      DefaultTemplateDepth,
		},
	}
}

// DefaultPool returns the pool values used when pool tuning is disabled.
func DefaultPool() PoolSettings {
	return PoolSettings{
		Size:            DefaultPoolSize,
		ConnectionLimit: DefaultConnectionLimit,
		AcquireTimeout:  DefaultAcquireTimeout,
		IdleTimeout:     DefaultIdleTimeout,
	}
}

// EffectivePool returns the pool values to render: the configured ones when
// tuning is enabled, the defaults otherwise. Unset fields of an enabled pool
// take their default.
func (p PoolSettings) EffectivePool() PoolSettings {
	defaults := DefaultPool()
	if !p.Enabled {
		return defaults
	}
	if p.Size <= 0 {
		p.Size = defaults.Size
	}
	if p.ConnectionLimit <= 0 {
		p.ConnectionLimit = defaults.ConnectionLimit
	}
	if p.AcquireTimeout <= 0 {
		p.AcquireTimeout = defaults.AcquireTimeout
	}
	if p.IdleTimeout <= 0 {
		p.IdleTimeout = defaults.IdleTimeout
	}
	return p
}
