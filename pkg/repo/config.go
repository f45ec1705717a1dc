package repo

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config is the repository-local config.toml.
type Config struct {
	User    UserConfig              `toml:"user"`
	Core    CoreConfig              `toml:"core"`
	Remotes map[string]RemoteConfig `toml:"remotes"`
}

// UserConfig holds the commit identity.
type UserConfig struct {
	Name  string `toml:"name,omitempty"`
	Email string `toml:"email,omitempty"`
}

// CoreConfig holds repository defaults.
type CoreConfig struct {
	DefaultBranch string `toml:"default_branch,omitempty"`
}

// RemoteConfig describes a named remote.
type RemoteConfig struct {
	URL string `toml:"url"`
}

func defaultConfig() *Config {
	return &Config{
		Core:    CoreConfig{DefaultBranch: DefaultBranch},
		Remotes: make(map[string]RemoteConfig),
	}
}

func (r *Repo) configPath() string {
	return filepath.Join(r.MetaDir, configFile)
}

// ReadConfig reads config.toml. A missing file yields the defaults.
func (r *Repo) ReadConfig() (*Config, error) {
	cfg := defaultConfig()
	data, err := os.ReadFile(r.configPath())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, fmt.Errorf("read config %s: %w", r.configPath(), err)
	}
	if cfg.Remotes == nil {
		cfg.Remotes = make(map[string]RemoteConfig)
	}
	return cfg, nil
}

// WriteConfig atomically writes config.toml.
func (r *Repo) WriteConfig(cfg *Config) error {
	if cfg == nil {
		cfg = defaultConfig()
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("write config: encode: %w", err)
	}

	tmp, err := os.CreateTemp(r.MetaDir, ".config-tmp-*")
	if err != nil {
		return fmt.Errorf("write config: tmpfile: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write config: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write config: close: %w", err)
	}
	if err := os.Rename(tmpName, r.configPath()); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write config: rename: %w", err)
	}
	return nil
}

// SetUser stores the commit identity.
func (r *Repo) SetUser(name, email string) error {
	cfg, err := r.ReadConfig()
	if err != nil {
		return err
	}
	cfg.User = UserConfig{Name: strings.TrimSpace(name), Email: strings.TrimSpace(email)}
	return r.WriteConfig(cfg)
}

// SetRemote stores or updates a named remote URL.
func (r *Repo) SetRemote(name, remoteURL string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("set remote: remote name is required")
	}
	remoteURL = strings.TrimSpace(remoteURL)
	if remoteURL == "" {
		return fmt.Errorf("set remote: remote URL is required")
	}

	cfg, err := r.ReadConfig()
	if err != nil {
		return err
	}
	cfg.Remotes[name] = RemoteConfig{URL: remoteURL}
	return r.WriteConfig(cfg)
}

// RemoteURL returns the configured URL for the named remote.
func (r *Repo) RemoteURL(name string) (string, error) {
	cfg, err := r.ReadConfig()
	if err != nil {
		return "", err
	}
	rc, ok := cfg.Remotes[strings.TrimSpace(name)]
	if !ok || strings.TrimSpace(rc.URL) == "" {
		return "", fmt.Errorf("remote %q is not configured", name)
	}
	return rc.URL, nil
}
