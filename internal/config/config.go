// Package config loads the shared client/server configuration file. The
// file is JSONC (comments and trailing commas allowed) so a hand-edited
// config can carry notes.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tailscale/hujson"
)

// FileName is the config file name under the user config directory.
const FileName = "config.json"

// Config is everything fokus and fokusd read at startup. One file serves
// both binaries; each reads only the fields it cares about.
type Config struct {
	// Client side.
	ServerURL string `json:"serverUrl,omitempty"` // empty disables sync
	Token     string `json:"token,omitempty"`     // bearer token for the server
	StatePath string `json:"statePath,omitempty"` // local state file override
	PickCount int    `json:"pickCount"`           // auto-picked tasks per block

	// Server side.
	ListenAddr string `json:"listenAddr"`
	DBPath     string `json:"dbPath,omitempty"`
	JWTSecret  string `json:"jwtSecret,omitempty"` // empty means demo identity only
	DemoUserID string `json:"demoUserId"`          // identity used without a token

	// Shared.
	Timezone string `json:"timezone"` // fixed day-bucketing timezone
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		PickCount:  5,
		ListenAddr: ":8787",
		DemoUserID: "demo",
		Timezone:   "America/Bogota",
	}
}

// DefaultPath returns ~/.config/fokus/config.json.
func DefaultPath() (string, error) {
	cfg, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg, "fokus", FileName), nil
}

// Load reads the config at path, merged over the defaults. A missing file
// is not an error; a present but unparseable one is. An empty path means
// the default location.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return applyEnv(cfg), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	parsed, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return applyEnv(merge(cfg, parsed)), nil
}

// Parse decodes one JSONC config document.
func Parse(data []byte) (Config, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("invalid JSONC: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(standardized, &cfg); err != nil {
		return Config{}, fmt.Errorf("invalid JSON: %w", err)
	}
	return cfg, nil
}

// Location resolves the configured timezone, falling back to the default
// zone and finally UTC when the zone database has neither.
func (c Config) Location() *time.Location {
	if loc, err := time.LoadLocation(c.Timezone); err == nil {
		return loc
	}
	if loc, err := time.LoadLocation(Default().Timezone); err == nil {
		return loc
	}
	return time.UTC
}

func merge(base, overlay Config) Config {
	if overlay.ServerURL != "" {
		base.ServerURL = overlay.ServerURL
	}
	if overlay.Token != "" {
		base.Token = overlay.Token
	}
	if overlay.StatePath != "" {
		base.StatePath = overlay.StatePath
	}
	if overlay.PickCount > 0 {
		base.PickCount = overlay.PickCount
	}
	if overlay.ListenAddr != "" {
		base.ListenAddr = overlay.ListenAddr
	}
	if overlay.DBPath != "" {
		base.DBPath = overlay.DBPath
	}
	if overlay.JWTSecret != "" {
		base.JWTSecret = overlay.JWTSecret
	}
	if overlay.DemoUserID != "" {
		base.DemoUserID = overlay.DemoUserID
	}
	if overlay.Timezone != "" {
		base.Timezone = overlay.Timezone
	}
	return base
}

// applyEnv layers environment overrides on top of the file so a shell
// session can point at another server without editing the config.
func applyEnv(cfg Config) Config {
	if v := os.Getenv("FOKUS_SERVER"); v != "" {
		cfg.ServerURL = v
	}
	if v := os.Getenv("FOKUS_TOKEN"); v != "" {
		cfg.Token = v
	}
	if v := os.Getenv("FOKUSD_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("FOKUSD_SECRET"); v != "" {
		cfg.JWTSecret = v
	}
	return cfg
}
