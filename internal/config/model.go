// internal/config/model.go
//
// Typed configuration model.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from three overlay layers:
//
//   • optional `.env`                          – dotenv values,
//   • `conf/app.yaml`                          – primary static file,
//   • `SERMON_`-prefixed environment overrides – highest precedence.
//
// Any value whose string begins with the prefix `vault:` is resolved
// through the Vault client *before* unmarshalling, so the model never
// stores Vault URIs, only plain strings.
//
// Validation happens immediately after unmarshal; the app fails fast if
// required fields are missing.  `session.secret` in particular has no
// default: a process without it refuses to start.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`, not `yaml:"…"`.  Koanf ignores `yaml` tags
//     unless configured otherwise.
//   • The `Paths` block is filled at runtime; YAML must not try to set it.

package config

import "time"

//
// HTTP section
//

// HTTP holds web-server tunables.
type HTTP struct {
	ListenAddr   string        `koanf:"listen_addr"   validate:"required,hostname_port"`
	PublicURL    string        `koanf:"public_url"    validate:"required,url"`
	ForceHTTPS   bool          `koanf:"force_https"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
	IdleTimeout  time.Duration `koanf:"idle_timeout"`
}

//
// Database section
//

// Database selects the driver and pool size.  The DSN usually carries a
// vault: reference for the password in production.
type Database struct {
	Driver  string `koanf:"driver"   validate:"required,oneof=mysql postgres"`
	DSN     string `koanf:"dsn"      validate:"required"`
	MaxOpen int    `koanf:"max_open" validate:"gte=0"`
	MaxIdle int    `koanf:"max_idle" validate:"gte=0"`
}

//
// Session section
//

// Session configures the signed cookie.  Secure defaults to true; only a
// plain-http development setup should turn it off.
type Session struct {
	Secret     string        `koanf:"secret"      validate:"required,min=16"`
	CookieName string        `koanf:"cookie_name"`
	MaxAge     time.Duration `koanf:"max_age"     validate:"gte=0"`
	Secure     *bool         `koanf:"secure"`
}

// SecureCookie reports whether the session cookie carries Secure.
func (s Session) SecureCookie() bool { return s.Secure == nil || *s.Secure }

// Auth holds the redirect targets of the access flow.
type Auth struct {
	DenialPath  string `koanf:"denial_path"  validate:"omitempty,startswith=/"`
	SuccessPath string `koanf:"success_path" validate:"omitempty,startswith=/"`
	LogoutPath  string `koanf:"logout_path"  validate:"omitempty,startswith=/"`
}

// Webhooks holds the shared secret sale/refund callers must present.
type Webhooks struct {
	Secret string `koanf:"secret" validate:"required,min=16"`
}

//
// Notify section
//

// Resend configures transactional email.  Empty APIKey disables email.
type Resend struct {
	APIKey  string `koanf:"api_key"`
	From    string `koanf:"from"     validate:"required_with=APIKey"`
	BaseURL string `koanf:"base_url" validate:"omitempty,url"`
}

// ZAPI configures WhatsApp delivery.  Empty Instance disables it.
type ZAPI struct {
	BaseURL     string `koanf:"base_url"     validate:"omitempty,url"`
	Instance    string `koanf:"instance"`
	Token       string `koanf:"token"        validate:"required_with=Instance"`
	ClientToken string `koanf:"client_token"`
}

// Notify groups outbound notification channels.
type Notify struct {
	Resend     Resend        `koanf:"resend"`
	ZAPI       ZAPI          `koanf:"zapi"`
	AlertPhone string        `koanf:"alert_phone"`
	Timeout    time.Duration `koanf:"timeout"`
}

//
// Storage section
//

// S3 configures the marketplace file bucket.  Endpoint is for S3-compatible
// services; static keys are optional (default credential chain otherwise).
type S3 struct {
	Region       string `koanf:"region"`
	Endpoint     string `koanf:"endpoint"   validate:"omitempty,url"`
	AccessKey    string `koanf:"access_key"`
	SecretKey    string `koanf:"secret_key" validate:"required_with=AccessKey"`
	UsePathStyle bool   `koanf:"use_path_style"`
}

// Storage groups blob storage settings.
type Storage struct {
	S3 S3 `koanf:"s3"`
}

// Log configures internal/logger.
type Log struct {
	Dir   string `koanf:"dir"`
	Level string `koanf:"level" validate:"omitempty,oneof=debug info warn error"`
	Tee   bool   `koanf:"tee"`
}

// GeoIP points at an optional GeoLite2-City database.
type GeoIP struct {
	DBPath string `koanf:"db_path"`
}

//
// Paths section (runtime only)
//

// Paths is resolved at runtime, never set in YAML or env.
type Paths struct {
	Root string // SERMON_ROOT or discovered parent
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by Load() and cached in an
// atomic.Pointer for lock-free reads throughout the app lifetime.
type Config struct {
	HTTP     HTTP     `koanf:"http"`
	Database Database `koanf:"database"`
	Session  Session  `koanf:"session"`
	Auth     Auth     `koanf:"auth"`
	Webhooks Webhooks `koanf:"webhooks"`
	Notify   Notify   `koanf:"notify"`
	Storage  Storage  `koanf:"storage"`
	Log      Log      `koanf:"log"`
	GeoIP    GeoIP    `koanf:"geoip"`
	Paths    Paths    `koanf:"-"` // not loaded from config files
}

// applyDefaults fills optional fields left empty by every layer.
func (c *Config) applyDefaults() {
	if c.HTTP.ReadTimeout == 0 {
		c.HTTP.ReadTimeout = 10 * time.Second
	}
	if c.HTTP.WriteTimeout == 0 {
		c.HTTP.WriteTimeout = 30 * time.Second
	}
	if c.HTTP.IdleTimeout == 0 {
		c.HTTP.IdleTimeout = 120 * time.Second
	}
	if c.Session.CookieName == "" {
		c.Session.CookieName = "sid"
	}
	if c.Session.MaxAge == 0 {
		c.Session.MaxAge = 7 * 24 * time.Hour
	}
	if c.Auth.DenialPath == "" {
		c.Auth.DenialPath = "/access-denied"
	}
	if c.Auth.SuccessPath == "" {
		c.Auth.SuccessPath = "/workspace"
	}
	if c.Auth.LogoutPath == "" {
		c.Auth.LogoutPath = "/"
	}
	if c.Session.Secure == nil {
		secure := true
		c.Session.Secure = &secure
	}
	if c.Notify.Resend.BaseURL == "" {
		c.Notify.Resend.BaseURL = "https://api.resend.com"
	}
	if c.Notify.ZAPI.BaseURL == "" {
		c.Notify.ZAPI.BaseURL = "https://api.z-api.io"
	}
	if c.Notify.Timeout == 0 {
		c.Notify.Timeout = 15 * time.Second
	}
	if c.Log.Dir == "" {
		c.Log.Dir = "logs"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}
