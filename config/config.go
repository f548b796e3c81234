package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
)

const (
	DbAdapterMySQL      = "mysql"
	DbAdapterPostgreSQL = "postgresql"
	DbAdapterSQLite     = "sqlite"

	StorageDriverFirebase = "firebase"
	StorageDriverMinio    = "minio"

	AuthDriverFirebase = "firebase"
	AuthDriverOIDC     = "oidc"
	AuthDriverLocal    = "local"
)

type (
	Properties struct {
		Log      LogProperties        `envPrefix:"LOG_"`
		Server   HttpServerProperties `envPrefix:"HTTP_"`
		DB       DBProperties         `envPrefix:"DB_"`
		Storage  StorageProperties    `envPrefix:"STORAGE_"`
		Auth     AuthProperties       `envPrefix:"AUTH_"`
		Firebase FirebaseProperties   `envPrefix:"FIREBASE_"`
	}

	LogProperties struct {
		Level  string `env:"LEVEL" envDefault:"info"`
		Format string `env:"FORMAT" envDefault:"text"`
	}

	HttpServerProperties struct {
		Port            string        `env:"PORT" envDefault:"8080"`
		Mode            string        `env:"GIN_MODE" envDefault:"release"`
		Origins         []string      `env:"FE_ORIGINS" envSeparator:";" envDefault:"http://localhost:3000"`
		ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"15s"`
		WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"60s"`
		ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
		MaxUploadBytes  int64         `env:"MAX_UPLOAD_BYTES" envDefault:"52428800"`
		PProf           bool          `env:"PPROF" envDefault:"false"`
	}

	DBProperties struct {
		Adapter      string `env:"ADAPTER" envDefault:"mysql"`
		User         string `env:"USER"`
		Pass         string `env:"PASS"`
		Host         string `env:"HOST" envDefault:"localhost:3306"`
		Name         string `env:"NAME" envDefault:"next-post"`
		TLS          bool   `env:"TLS" envDefault:"true"`
		URL          string `env:"URL"`
		SQLitePath   string `env:"SQLITE_PATH" envDefault:"next-post.db"`
		MaxOpenConns int    `env:"MAX_OPEN_CONNS" envDefault:"50"`
		MaxIdleConns int    `env:"MAX_IDLE_CONNS" envDefault:"50"`
		EnsureSchema bool   `env:"ENSURE_SCHEMA" envDefault:"true"`
	}

	StorageProperties struct {
		Driver     string `env:"DRIVER" envDefault:"firebase"`
		Bucket     string `env:"BUCKET" envDefault:"uploads"`
		Host       string `env:"HOST" envDefault:"localhost:9000"`
		AccessKey  string `env:"ACCESS_KEY"`
		SecretKey  string `env:"SECRET_KEY"`
		UseSSL     bool   `env:"USE_SSL" envDefault:"true"`
		PublicBase string `env:"PUBLIC_BASE"`
	}

	AuthProperties struct {
		Driver       string        `env:"DRIVER" envDefault:"firebase"`
		Issuer       string        `env:"ISSUER"`
		ClientID     string        `env:"CLIENT_ID"`
		ClientSecret string        `env:"CLIENT_SECRET"`
		Scopes       []string      `env:"SCOPES" envSeparator:"," envDefault:"openid,email"`
		JWTSecret    string        `env:"JWT_SECRET"`
		SessionTTL   time.Duration `env:"SESSION_TTL" envDefault:"24h"`
		// AdminEmails get the admin role when their profile is first created,
		// provided the identity provider reports the address as verified.
		AdminEmails []string `env:"ADMIN_EMAILS" envSeparator:","`
	}

	FirebaseProperties struct {
		ProjectID       string `env:"PROJECT_ID"`
		CredentialsFile string `env:"CREDENTIALS_FILE" envDefault:"./google-application-credentials.json"`
	}
)

// Read parses the process environment into Properties and validates the
// driver selections.
func Read() (*Properties, error) {
	config := &Properties{}
	if err := env.Parse(config); err != nil {
		return nil, fmt.Errorf("read config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (p *Properties) Validate() error {
	switch p.DB.Adapter {
	case DbAdapterMySQL, DbAdapterPostgreSQL, DbAdapterSQLite:
	default:
		return fmt.Errorf("unsupported DB_ADAPTER %q", p.DB.Adapter)
	}
	switch p.Storage.Driver {
	case StorageDriverFirebase, StorageDriverMinio:
	default:
		return fmt.Errorf("unsupported STORAGE_DRIVER %q", p.Storage.Driver)
	}
	switch p.Auth.Driver {
	case AuthDriverFirebase:
	case AuthDriverOIDC:
		if p.Auth.Issuer == "" || p.Auth.ClientID == "" {
			return fmt.Errorf("AUTH_ISSUER and AUTH_CLIENT_ID are required for the %s driver", p.Auth.Driver)
		}
	case AuthDriverLocal:
		if len(p.Auth.JWTSecret) < 32 {
			return fmt.Errorf("AUTH_JWT_SECRET must be at least 32 bytes for the %s driver", p.Auth.Driver)
		}
	default:
		return fmt.Errorf("unsupported AUTH_DRIVER %q", p.Auth.Driver)
	}
	if p.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("HTTP_MAX_UPLOAD_BYTES must be positive")
	}
	return nil
}

func (p *Properties) NeedsFirebase() bool {
	return p.Storage.Driver == StorageDriverFirebase || p.Auth.Driver == AuthDriverFirebase
}
