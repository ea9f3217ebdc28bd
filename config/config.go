// config/config.go
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// EnvPrefix is prepended to every key when read from the environment,
// e.g. TERMSITE_WRAP_WIDTH.
const EnvPrefix = "TERMSITE"

// BuildConfig groups the directories and switches used by the site build.
type BuildConfig struct {
	Source      string `mapstructure:"source"`
	Destination string `mapstructure:"destination"`
	AssetsDir   string `mapstructure:"assets_dir"`  // relative to Source
	LayoutsDir  string `mapstructure:"layouts_dir"` // relative to Source
	DataDir     string `mapstructure:"data_dir"`    // relative to Source

	WrapWidth     int           `mapstructure:"wrap_width"`
	RenderWorkers int           `mapstructure:"render_workers"`
	BuildTimeout  time.Duration `mapstructure:"-"` // build_timeout

	// ImportMapBase is the URL prefix under which the site (and its assets) is
	// published, e.g. "/" or "https://cdn.example.com".
	ImportMapBase        string `mapstructure:"importmap_base"`
	ImportMapFingerprint bool   `mapstructure:"importmap_fingerprint"`

	// StrictControllers fails the build when a page names a controller
	// that cannot be resolved.
	StrictControllers bool `mapstructure:"strict_controllers"`
}

// HTTPConfig groups the dev server settings.
type HTTPConfig struct {
	HTTPPort            int           `mapstructure:"http_port"`
	ShutdownTimeout     time.Duration `mapstructure:"-"` // shutdown_timeout
	EnableCompression   bool          `mapstructure:"enable_compression"`
	CompressionLevel    int           `mapstructure:"compression_level"`
	MaxRequestBodyBytes int64         `mapstructure:"max_request_body_bytes"`

	// Watch rebuilds on source changes and reloads open pages.
	Watch bool `mapstructure:"watch"`
}

// CORSConfig groups CORS behavior for the dev server.
type CORSConfig struct {
	EnableCORS         bool     `mapstructure:"enable_cors"`
	CORSAllowedOrigins []string `mapstructure:"cors_allowed_origins"`
}

// DeployConfig selects where `termsite deploy` publishes the destination
// directory: a local directory (DeployDir) or an S3-compatible bucket.
type DeployConfig struct {
	DeployDir    string `mapstructure:"deploy_dir"`
	DeployBucket string `mapstructure:"deploy_bucket"`
	DeployPrefix string `mapstructure:"deploy_prefix"`

	DeployRegion    string `mapstructure:"deploy_region"`
	DeployEndpoint  string `mapstructure:"deploy_endpoint"` // MinIO, R2, ...
	DeployPathStyle bool   `mapstructure:"deploy_path_style"`

	// Empty keys fall back to the AWS default credential chain.
	DeployAccessKeyID     string `mapstructure:"deploy_access_key_id"`
	DeploySecretAccessKey string `mapstructure:"deploy_secret_access_key"`

	DeployDelete  bool `mapstructure:"deploy_delete"` // remove remote files missing locally
	DeployWorkers int  `mapstructure:"deploy_workers"`
}

// Config is the complete termsite configuration.
type Config struct {
	Env      string `mapstructure:"env"`       // "dev" | "prod"
	LogLevel string `mapstructure:"log_level"` // debug, info, warn, error

	Build  BuildConfig  `mapstructure:",squash"`
	HTTP   HTTPConfig   `mapstructure:",squash"`
	CORS   CORSConfig   `mapstructure:",squash"`
	Deploy DeployConfig `mapstructure:",squash"`
}

// Dump returns the config as indented JSON for debug logging.
func (c Config) Dump() string {
	if c.Deploy.DeploySecretAccessKey != "" {
		c.Deploy.DeploySecretAccessKey = "[redacted]"
	}
	b, _ := json.MarshalIndent(c, "", "  ")
	return string(b)
}

// RegisterFlags defines a flag for every key on fs. Only flags the user
// sets explicitly override files and environment in Load.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("env", "dev", `Runtime environment "dev"|"prod"`)
	fs.String("log_level", "info", "Log level")

	fs.String("source", ".", "Site source directory")
	fs.String("destination", "_site", "Output directory")
	fs.String("assets_dir", "_assets", "Assets directory, relative to source")
	fs.String("layouts_dir", "_layouts", "Layouts directory, relative to source")
	fs.String("data_dir", "_data", "Data directory, relative to source")
	fs.Int("wrap_width", 42, "Default width for the wrap filter")
	fs.Int("render_workers", 4, "Pages rendered in parallel")
	fs.String("build_timeout", "60s", `Build timeout (e.g., "90s", "2m")`)
	fs.String("importmap_base", "/", "URL prefix for generated import map addresses")
	fs.Bool("importmap_fingerprint", false, "Append content hashes to import map URLs")
	fs.Bool("strict_controllers", false, "Fail the build on unresolvable controllers")

	fs.Int("http_port", 4000, "Dev server HTTP port")
	fs.String("shutdown_timeout", "10s", "Graceful shutdown timeout")
	fs.Bool("enable_compression", true, "Enable HTTP compression")
	fs.Int("compression_level", 5, "Compression level 1..9")
	fs.Int64("max_request_body_bytes", 1<<20, "Max HTTP request body size in bytes (0 = unlimited)")
	fs.Bool("enable_cors", false, "Enable CORS")
	fs.String("cors_allowed_origins", "", `JSON array of origins, e.g. '["http://localhost:3000"]'`)
	fs.Bool("watch", false, "Rebuild on changes and reload open pages (serve)")

	fs.String("deploy_dir", "", "Deploy into this directory")
	fs.String("deploy_bucket", "", "Deploy into this S3 bucket")
	fs.String("deploy_prefix", "", "Key prefix inside the bucket or directory")
	fs.String("deploy_region", "", "S3 region (default: AWS config)")
	fs.String("deploy_endpoint", "", "S3-compatible endpoint URL")
	fs.Bool("deploy_path_style", false, "Use path-style S3 addressing")
	fs.String("deploy_access_key_id", "", "S3 access key (default: AWS credential chain)")
	fs.String("deploy_secret_access_key", "", "S3 secret key")
	fs.Bool("deploy_delete", false, "Delete deployed files that no longer exist locally")
	fs.Int("deploy_workers", 8, "Parallel uploads")
}

// Load merges defaults → config.* file(s) → env vars → explicit flags.
// Final precedence (highest wins): flags(explicit) > env > config > defaults.
// fs may be nil when there are no flags.
func Load(logger *zap.Logger, fs *pflag.FlagSet) (*Config, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	// .env never overrides the real environment
	if err := godotenv.Load(); err == nil {
		logger.Info("loaded .env file")
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	for _, k := range allKeys() {
		_ = v.BindEnv(k)
	}

	for _, ext := range [...]string{"yaml", "yml", "json", "toml"} {
		file := "config." + ext
		b, err := os.ReadFile(file)
		if err != nil {
			continue
		}
		v.SetConfigType(ext)
		if err := v.MergeConfig(bytes.NewReader(b)); err != nil {
			logger.Warn("cannot decode config file", zap.String("file", file), zap.Error(err))
			continue
		}
		logger.Info("loaded config file", zap.String("file", file))
	}

	setDefaults(v)

	if fs != nil {
		fs.VisitAll(func(f *pflag.Flag) {
			if f.Changed {
				_ = v.BindPFlag(f.Name, f)
			}
		})
	}

	if err := normalizeListKeys(logger, v, "cors_allowed_origins"); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	var invalid []string
	for _, d := range []struct {
		key string
		def time.Duration
		dst *time.Duration
	}{
		{"build_timeout", 60 * time.Second, &cfg.Build.BuildTimeout},
		{"shutdown_timeout", 10 * time.Second, &cfg.HTTP.ShutdownTimeout},
	} {
		dur, err := parseDurationFlexible(v.Get(d.key), d.def)
		if err != nil {
			invalid = append(invalid, fmt.Sprintf("%s: %v", d.key, err))
		}
		*d.dst = dur
	}

	if err := validate(cfg, invalid); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func allKeys() []string {
	return []string{
		"env", "log_level",
		"source", "destination", "assets_dir", "layouts_dir", "data_dir",
		"wrap_width", "render_workers", "build_timeout",
		"importmap_base", "importmap_fingerprint", "strict_controllers",
		"http_port", "shutdown_timeout",
		"enable_compression", "compression_level", "max_request_body_bytes",
		"enable_cors", "cors_allowed_origins", "watch",
		"deploy_dir", "deploy_bucket", "deploy_prefix",
		"deploy_region", "deploy_endpoint", "deploy_path_style",
		"deploy_access_key_id", "deploy_secret_access_key",
		"deploy_delete", "deploy_workers",
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "dev")
	v.SetDefault("log_level", "info")

	v.SetDefault("source", ".")
	v.SetDefault("destination", "_site")
	v.SetDefault("assets_dir", "_assets")
	v.SetDefault("layouts_dir", "_layouts")
	v.SetDefault("data_dir", "_data")
	v.SetDefault("wrap_width", 42)
	v.SetDefault("render_workers", 4)
	v.SetDefault("build_timeout", "60s")
	v.SetDefault("importmap_base", "/")
	v.SetDefault("importmap_fingerprint", false)
	v.SetDefault("strict_controllers", false)

	v.SetDefault("http_port", 4000)
	v.SetDefault("shutdown_timeout", "10s")
	v.SetDefault("enable_compression", true)
	v.SetDefault("compression_level", 5)
	v.SetDefault("max_request_body_bytes", int64(1<<20))

	v.SetDefault("enable_cors", false)
	v.SetDefault("cors_allowed_origins", []string{})
	v.SetDefault("watch", false)

	v.SetDefault("deploy_path_style", false)
	v.SetDefault("deploy_delete", false)
	v.SetDefault("deploy_workers", 8)
}

// normalizeListKeys coerces JSON-string values into []string for the given keys.
func normalizeListKeys(logger *zap.Logger, v *viper.Viper, keys ...string) error {
	for _, key := range keys {
		switch t := v.Get(key).(type) {
		case string:
			s := strings.TrimSpace(t)
			if s == "" {
				v.Set(key, []string{})
				continue
			}
			var arr []string
			if err := json.Unmarshal([]byte(s), &arr); err != nil {
				return fmt.Errorf("config key %q expects a JSON array string, got %q: %w", key, s, err)
			}
			v.Set(key, arr)
		case []interface{}:
			arr := make([]string, 0, len(t))
			for _, e := range t {
				arr = append(arr, fmt.Sprint(e))
			}
			v.Set(key, arr)
		case []string, nil:
		default:
			logger.Warn("unexpected type for list key; expected JSON array/string",
				zap.String("key", key), zap.Any("value", t))
		}
	}
	return nil
}

func validate(cfg Config, invalid []string) error {
	var missing []string

	switch cfg.Env {
	case "dev", "prod":
	default:
		invalid = append(invalid, `env must be "dev" or "prod"`)
	}
	if _, err := zapcore.ParseLevel(cfg.LogLevel); err != nil {
		invalid = append(invalid, "log_level: "+err.Error())
	}

	b := cfg.Build
	if strings.TrimSpace(b.Source) == "" {
		missing = append(missing, "source")
	}
	if strings.TrimSpace(b.Destination) == "" {
		missing = append(missing, "destination")
	}
	if b.WrapWidth <= 0 {
		invalid = append(invalid, "wrap_width must be > 0")
	}
	if b.RenderWorkers <= 0 {
		invalid = append(invalid, "render_workers must be > 0")
	}
	if b.ImportMapBase != "" && !strings.HasPrefix(b.ImportMapBase, "/") && !strings.Contains(b.ImportMapBase, "://") {
		invalid = append(invalid, `importmap_base must start with "/" or be an absolute URL`)
	}

	h := cfg.HTTP
	if h.HTTPPort <= 0 || h.HTTPPort > 65535 {
		invalid = append(invalid, "http_port must be in 1..65535")
	}
	if h.EnableCompression && (h.CompressionLevel < 1 || h.CompressionLevel > 9) {
		invalid = append(invalid, "compression_level must be in 1..9")
	}
	if h.MaxRequestBodyBytes < 0 {
		invalid = append(invalid, "max_request_body_bytes must be >= 0")
	}

	if cfg.CORS.EnableCORS && len(cfg.CORS.CORSAllowedOrigins) == 0 {
		missing = append(missing, "cors_allowed_origins (JSON array) required when enable_cors=true")
	}

	d := cfg.Deploy
	if d.DeployDir != "" && d.DeployBucket != "" {
		invalid = append(invalid, "set only one of deploy_dir and deploy_bucket")
	}
	if (d.DeployAccessKeyID == "") != (d.DeploySecretAccessKey == "") {
		invalid = append(invalid, "deploy_access_key_id and deploy_secret_access_key must be set together")
	}
	if d.DeployWorkers <= 0 {
		invalid = append(invalid, "deploy_workers must be > 0")
	}

	if len(missing) == 0 && len(invalid) == 0 {
		return nil
	}
	var parts []string
	if len(missing) > 0 {
		parts = append(parts, "missing: "+strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		parts = append(parts, "invalid: "+strings.Join(invalid, ", "))
	}
	return fmt.Errorf("configuration errors: %s", strings.Join(parts, " | "))
}
