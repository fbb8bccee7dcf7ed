package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	FeatureFlags  FeatureFlagsConfig
	Notifications NotificationsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	if err := cfg.Notifications.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"NUTRITRACK_APP_ENV" required:"true"`
	Port         string `envconfig:"NUTRITRACK_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"NUTRITRACK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"NUTRITRACK_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"NUTRITRACK_DB_DSN"`
	Driver string `envconfig:"NUTRITRACK_DB_DRIVER" default:"postgres"`

	Host       string `envconfig:"NUTRITRACK_DB_HOST"`
	Port       int    `envconfig:"NUTRITRACK_DB_PORT" default:"5432"`
	User       string `envconfig:"NUTRITRACK_DB_USER"`
	Password   string `envconfig:"NUTRITRACK_DB_PASSWORD"`
	Name       string `envconfig:"NUTRITRACK_DB_NAME"`
	SSLMode    string `envconfig:"NUTRITRACK_DB_SSLMODE" default:"disable"`
	SQLitePath string `envconfig:"NUTRITRACK_SQLITE_PATH" default:"nutritrack.db"`

	MaxOpenConns    int           `envconfig:"NUTRITRACK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"NUTRITRACK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"NUTRITRACK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"NUTRITRACK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the embedded driver is selected.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(db.Driver, DBDriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"NUTRITRACK_REDIS_URL"`
	Address      string        `envconfig:"NUTRITRACK_REDIS_ADDR"`
	Password     string        `envconfig:"NUTRITRACK_REDIS_PASSWORD"`
	DB           int           `envconfig:"NUTRITRACK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"NUTRITRACK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"NUTRITRACK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"NUTRITRACK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"NUTRITRACK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"NUTRITRACK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether any redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Address != ""
}

type JWTConfig struct {
	Secret            string `envconfig:"NUTRITRACK_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"NUTRITRACK_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"NUTRITRACK_JWT_EXPIRATION_MINUTES" default:"60"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"NUTRITRACK_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"NUTRITRACK_AUTO_MIGRATE" default:"false"`
	RedisToasts bool `envconfig:"NUTRITRACK_REDIS_TOASTS" default:"false"`
}

// NotificationsConfig tunes the per-user notification engines.
type NotificationsConfig struct {
	Interval   time.Duration `envconfig:"NUTRITRACK_NOTIFICATIONS_INTERVAL" default:"30m"`
	Timezone   string        `envconfig:"NUTRITRACK_NOTIFICATIONS_TIMEZONE" default:"Local"`
	Backend    string        `envconfig:"NUTRITRACK_NOTIFICATIONS_BACKEND" default:"sql"`
	StorageKey string        `envconfig:"NUTRITRACK_NOTIFICATIONS_STORAGE_KEY" default:"notifications"`
	FileDir    string        `envconfig:"NUTRITRACK_NOTIFICATIONS_FILE_DIR" default:".nutritrack"`
}

// Location resolves the configured timezone used for slot and calendar-day math.
func (n NotificationsConfig) Location() (*time.Location, error) {
	name := strings.TrimSpace(n.Timezone)
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", name, err)
	}
	return loc, nil
}

func (n NotificationsConfig) validate() error {
	switch strings.ToLower(n.Backend) {
	case BackendRedis, BackendSQL, BackendFile, BackendMemory:
	default:
		return fmt.Errorf("%s must be one of redis, sql, file, memory; got %q", EnvNotificationsBackend, n.Backend)
	}
	if n.Interval <= 0 {
		return fmt.Errorf("%s must be positive", EnvNotificationsInterval)
	}
	if strings.TrimSpace(n.StorageKey) == "" {
		return fmt.Errorf("%s must not be empty", EnvNotificationsStorageKey)
	}
	if _, err := n.Location(); err != nil {
		return err
	}
	return nil
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if useSQLite {
		db.Driver = DBDriverSQLite
	}
	if db.IsSQLite() {
		if db.DSN == "" {
			db.DSN = db.SQLitePath
		}
		return nil
	}
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range discreteDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
