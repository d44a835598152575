package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/PabloGalante/farum-probe/internal/app/press"
)

type Mode string

const (
	ModeLocal Mode = "local"
	ModeGCP   Mode = "gcp"
)

// Storage backends.
const (
	BackendMemory    = "memory"
	BackendSQLite    = "sqlite"
	BackendFirestore = "firestore"
)

type Config struct {
	Mode Mode   `toml:"mode"`
	Port string `toml:"port"`

	Press     PressConfig     `toml:"press"`
	Overwhelm OverwhelmConfig `toml:"overwhelm"`
	State     StateConfig     `toml:"state"`
	Storage   StorageConfig   `toml:"storage"`
	GCP       GCPConfig       `toml:"gcp"`
	Lexicon   FileConfig      `toml:"lexicon"`
	Questions FileConfig      `toml:"questions"`
	Random    RandomConfig    `toml:"random"`
	Log       LogConfig       `toml:"log"`
}

type PressConfig struct {
	Base int `toml:"base"`
	Max  int `toml:"max"`
	High int `toml:"high"` // 0 = max-1
}

type OverwhelmConfig struct {
	Sensitivity float64 `toml:"sensitivity"`
}

type StateConfig struct {
	TTLSeconds int `toml:"ttl_seconds"`
}

type StorageConfig struct {
	Backend    string `toml:"backend"` // "memory", "sqlite" o "firestore"
	SQLitePath string `toml:"sqlite_path"`
}

type GCPConfig struct {
	Project string `toml:"project"`
}

// FileConfig points at an optional YAML override; empty means embedded data.
type FileConfig struct {
	Path string `toml:"path"`
}

type RandomConfig struct {
	Seed uint64 `toml:"seed"` // 0 = time-seeded
}

type LogConfig struct {
	Level string `toml:"level"`
}

type setting struct {
	key string
	env string
	def any
}

var settings = []setting{
	{"mode", "FARUM_MODE", string(ModeLocal)},
	{"port", "FARUM_PORT", "8080"},
	{"press.base", "FARUM_PRESS_BASE", 1},
	{"press.max", "FARUM_PRESS_MAX", 4},
	{"press.high", "FARUM_PRESS_HIGH", 0},
	{"overwhelm.sensitivity", "FARUM_OVERWHELM_SENSITIVITY", 0.5},
	{"state.ttl_seconds", "FARUM_STATE_TTL_SECONDS", 604800},
	{"storage.backend", "FARUM_STORAGE_BACKEND", BackendMemory},
	{"storage.sqlite_path", "FARUM_SQLITE_PATH", "farum.db"},
	{"gcp.project", "FARUM_GCP_PROJECT", ""},
	{"lexicon.path", "FARUM_LEXICON_PATH", ""},
	{"questions.path", "FARUM_QUESTIONS_PATH", ""},
	{"random.seed", "FARUM_RANDOM_SEED", 0},
	{"log.level", "FARUM_LOG_LEVEL", "info"},
}

// Load builds the config from defaults, then the TOML file at path (or
// ./farum.toml when path is empty and the file exists), then FARUM_* env vars.
func Load(v *viper.Viper, path string) (*Config, error) {
	if v == nil {
		v = viper.New()
	}

	for _, s := range settings {
		v.SetDefault(s.key, s.def)
		if err := v.BindEnv(s.key, s.env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", s.env, err)
		}
	}

	v.SetConfigType("toml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("farum")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{
		Mode: Mode(v.GetString("mode")),
		Port: v.GetString("port"),
		Press: PressConfig{
			Base: v.GetInt("press.base"),
			Max:  v.GetInt("press.max"),
			High: v.GetInt("press.high"),
		},
		Overwhelm: OverwhelmConfig{Sensitivity: v.GetFloat64("overwhelm.sensitivity")},
		State:     StateConfig{TTLSeconds: v.GetInt("state.ttl_seconds")},
		Storage: StorageConfig{
			Backend:    v.GetString("storage.backend"),
			SQLitePath: v.GetString("storage.sqlite_path"),
		},
		GCP:       GCPConfig{Project: v.GetString("gcp.project")},
		Lexicon:   FileConfig{Path: v.GetString("lexicon.path")},
		Questions: FileConfig{Path: v.GetString("questions.path")},
		Random:    RandomConfig{Seed: v.GetUint64("random.seed")},
		Log:       LogConfig{Level: v.GetString("log.level")},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	switch c.Mode {
	case ModeLocal, ModeGCP:
	default:
		errs = append(errs, fmt.Errorf("mode %q is not one of local, gcp", c.Mode))
	}
	if c.Port == "" {
		errs = append(errs, errors.New("port is empty"))
	}

	if c.Press.Base < 0 {
		errs = append(errs, fmt.Errorf("press.base %d is negative", c.Press.Base))
	}
	if c.Press.Base > c.Press.Max {
		errs = append(errs, fmt.Errorf("press.base %d is above press.max %d", c.Press.Base, c.Press.Max))
	}
	if c.Press.High != 0 && (c.Press.High < c.Press.Base || c.Press.High > c.Press.Max) {
		errs = append(errs, fmt.Errorf("press.high %d is outside [%d, %d]", c.Press.High, c.Press.Base, c.Press.Max))
	}

	if s := c.Overwhelm.Sensitivity; s < 0 || s > 1 {
		errs = append(errs, fmt.Errorf("overwhelm.sensitivity %v is outside [0, 1]", s))
	}
	if c.State.TTLSeconds <= 0 {
		errs = append(errs, fmt.Errorf("state.ttl_seconds %d must be positive", c.State.TTLSeconds))
	}

	switch c.Storage.Backend {
	case BackendMemory:
	case BackendSQLite:
		if c.Storage.SQLitePath == "" {
			errs = append(errs, errors.New("storage.sqlite_path is required for the sqlite backend"))
		}
	case BackendFirestore:
		if c.GCP.Project == "" {
			errs = append(errs, errors.New("gcp.project is required for the firestore backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.backend %q is not one of memory, sqlite, firestore", c.Storage.Backend))
	}

	// Minimal validation in GCP mode
	if c.Mode == ModeGCP && c.GCP.Project == "" {
		errs = append(errs, errors.New("gcp.project must be set in gcp mode"))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Bounds returns the press-level bounds.
func (c *Config) Bounds() (press.Bounds, error) {
	return press.NewBounds(c.Press.Base, c.Press.Max, c.Press.High)
}

// StateTTL is the expiry of stored session state.
func (c *Config) StateTTL() time.Duration {
	return time.Duration(c.State.TTLSeconds) * time.Second
}

// Addr is the HTTP listen address.
func (c *Config) Addr() string {
	return ":" + c.Port
}
