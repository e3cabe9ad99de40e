package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/janekbaraniewski/tokencat/internal/version"
)

const (
	DefaultPollIntervalSeconds = 300
	DefaultAPIBaseURL          = "https://api.anthropic.com"
)

// Credential sources accepted by CredentialSource.
const (
	SourceAuto     = "auto"
	SourceKeychain = "keychain"
	SourceKeyring  = "keyring"
	SourceFile     = "file"
)

type Config struct {
	PollIntervalSeconds int    `json:"poll_interval_seconds"`
	APIBaseURL          string `json:"api_base_url"`
	ClientVersion       string `json:"client_version"`
	CredentialSource    string `json:"credential_source"`
	CredentialsFile     string `json:"credentials_file,omitempty"` // overrides ~/.claude/.credentials.json
	WatchCredentials    bool   `json:"watch_credentials"`
	AnimationEnabled    bool   `json:"animation_enabled"`
	MetricsAddr         string `json:"metrics_addr,omitempty"` // e.g. "127.0.0.1:9464"; empty disables
}

func DefaultConfig() Config {
	return Config{
		PollIntervalSeconds: DefaultPollIntervalSeconds,
		APIBaseURL:          DefaultAPIBaseURL,
		ClientVersion:       version.DefaultClientVersion,
		CredentialSource:    SourceAuto,
		WatchCredentials:    true,
		AnimationEnabled:    true,
	}
}

func (c Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

// ConfigDir is ~/.config/tokencat on every platform.
func ConfigDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "tokencat")
}

func ConfigPath() string {
	return filepath.Join(ConfigDir(), "settings.json")
}

func LogPath() string {
	return filepath.Join(ConfigDir(), "tokencat.log")
}

func Load() (Config, error) {
	return LoadFrom(ConfigPath())
}

func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("parsing config %s: %w", path, err)
	}

	normalize(&cfg)
	return cfg, nil
}

func normalize(cfg *Config) {
	def := DefaultConfig()
	if cfg.PollIntervalSeconds <= 0 {
		cfg.PollIntervalSeconds = def.PollIntervalSeconds
	}
	cfg.APIBaseURL = strings.TrimRight(strings.TrimSpace(cfg.APIBaseURL), "/")
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = def.APIBaseURL
	}
	if version.NormalizeClientVersion(cfg.ClientVersion) == "" {
		cfg.ClientVersion = def.ClientVersion
	}
	switch strings.ToLower(strings.TrimSpace(cfg.CredentialSource)) {
	case SourceKeychain:
		cfg.CredentialSource = SourceKeychain
	case SourceKeyring:
		cfg.CredentialSource = SourceKeyring
	case SourceFile:
		cfg.CredentialSource = SourceFile
	default:
		cfg.CredentialSource = SourceAuto
	}
}

// saveMu guards read-modify-write cycles on the config file.
var saveMu sync.Mutex

func Save(cfg Config) error {
	return SaveTo(ConfigPath(), cfg)
}

func SaveTo(path string, cfg Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// SaveAnimationEnabled persists the animation toggle (read-modify-write).
func SaveAnimationEnabled(enabled bool) error {
	return SaveAnimationEnabledTo(ConfigPath(), enabled)
}

func SaveAnimationEnabledTo(path string, enabled bool) error {
	saveMu.Lock()
	defer saveMu.Unlock()

	cfg, err := LoadFrom(path)
	if err != nil {
		cfg = DefaultConfig()
	}
	cfg.AnimationEnabled = enabled
	return SaveTo(path, cfg)
}
