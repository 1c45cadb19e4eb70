package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Media         MediaConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	if _, err := cfg.App.Location(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"ACCOUNTS_APP_ENV" required:"true"`
	Port         string   `envconfig:"ACCOUNTS_APP_PORT" required:"true"`
	LogLevel     string   `envconfig:"ACCOUNTS_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"ACCOUNTS_LOG_WARN_STACK" default:"false"`
	Timezone     string   `envconfig:"ACCOUNTS_DISPLAY_TIMEZONE" default:"Asia/Tehran"`
	CORSOrigins  []string `envconfig:"ACCOUNTS_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// Location resolves the timezone used when rendering local (Jalali) dates.
func (a AppConfig) Location() (*time.Location, error) {
	name := strings.TrimSpace(a.Timezone)
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("loading display timezone %q: %w", name, err)
	}
	return loc, nil
}

type DBConfig struct {
	DSN    string `envconfig:"ACCOUNTS_DB_DSN"`
	Driver string `envconfig:"ACCOUNTS_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"ACCOUNTS_DB_HOST"`
	LegacyPort     int    `envconfig:"ACCOUNTS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"ACCOUNTS_DB_USER"`
	LegacyPassword string `envconfig:"ACCOUNTS_DB_PASSWORD"`
	LegacyName     string `envconfig:"ACCOUNTS_DB_NAME"`
	LegacySSLMode  string `envconfig:"ACCOUNTS_DB_SSLMODE" default:"disable"`

	SQLitePath string `envconfig:"ACCOUNTS_SQLITE_PATH" default:"accounts.db"`

	MaxOpenConns    int           `envconfig:"ACCOUNTS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ACCOUNTS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ACCOUNTS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ACCOUNTS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"ACCOUNTS_REDIS_URL" required:"true"`
	Address      string        `envconfig:"ACCOUNTS_REDIS_ADDR"`
	Password     string        `envconfig:"ACCOUNTS_REDIS_PASSWORD"`
	DB           int           `envconfig:"ACCOUNTS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ACCOUNTS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ACCOUNTS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ACCOUNTS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ACCOUNTS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ACCOUNTS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"ACCOUNTS_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"ACCOUNTS_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"ACCOUNTS_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"ACCOUNTS_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	MinLength        int `envconfig:"ACCOUNTS_PASSWORD_MIN_LENGTH" default:"8"`
	ArgonMemoryKB    int `envconfig:"ACCOUNTS_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"ACCOUNTS_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"ACCOUNTS_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"ACCOUNTS_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"ACCOUNTS_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow           time.Duration `envconfig:"ACCOUNTS_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginUsernameLimit    int           `envconfig:"ACCOUNTS_AUTH_RATE_LIMIT_LOGIN_USERNAME_LIMIT" default:"5"`
	LoginIPLimit          int           `envconfig:"ACCOUNTS_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow        time.Duration `envconfig:"ACCOUNTS_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterUsernameLimit int           `envconfig:"ACCOUNTS_AUTH_RATE_LIMIT_REGISTER_USERNAME_LIMIT" default:"3"`
	RegisterIPLimit       int           `envconfig:"ACCOUNTS_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
	APIWindow             time.Duration `envconfig:"ACCOUNTS_API_RATE_LIMIT_WINDOW" default:"1m"`
	APILimit              int           `envconfig:"ACCOUNTS_API_RATE_LIMIT" default:"120"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"ACCOUNTS_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"ACCOUNTS_AUTO_MIGRATE" default:"false"`
}

type MediaConfig struct {
	BaseURL                string   `envconfig:"ACCOUNTS_MEDIA_BASE_URL" default:"/media/"`
	DefaultProfileImageURL string   `envconfig:"ACCOUNTS_DEFAULT_PROFILE_IMAGE_URL" default:"/static/images/default_profile.jpg"`
	ProfileImageExtensions []string `envconfig:"ACCOUNTS_PROFILE_IMAGE_EXTENSIONS" default:"jpg,jpeg,png,gif"`
	JobDocumentExtensions  []string `envconfig:"ACCOUNTS_JOB_DOCUMENT_EXTENSIONS" default:"pdf,doc,docx,jpg,jpeg,png"`
}

// URLFor joins a stored media reference onto the configured media base URL.
func (m MediaConfig) URLFor(ref string) string {
	ref = strings.TrimLeft(strings.TrimSpace(ref), "/")
	if ref == "" {
		return ""
	}
	base := m.BaseURL
	if base == "" {
		base = "/"
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + ref
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if useSQLite {
		db.Driver = DriverSQLite
		if strings.TrimSpace(db.SQLitePath) == "" {
			return fmt.Errorf("%s is required when %s is enabled", EnvSQLitePath, EnvUseSQLite)
		}
		return nil
	}
	db.Driver = DriverPostgres
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
