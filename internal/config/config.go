/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// AppConfig is the user-editable configuration persisted as YAML in the user scope.
// Environment variables are read-only overrides applied after the file.
//
// config_version: bump when the structure changes in a backward-incompatible way.
type AppConfig struct {
	ConfigVersion int            `yaml:"config_version"`
	General       GeneralConfig  `yaml:"general"`
	Storage       StorageConfig  `yaml:"storage"`
	Catalog       CatalogConfig  `yaml:"catalog"`
	Layout        LayoutConfig   `yaml:"layout"`
	Viewport      ViewportConfig `yaml:"viewport"`
	Server        ServerConfig   `yaml:"server"`
	Export        ExportConfig   `yaml:"export"`
	Logging       LoggingConfig  `yaml:"logging"`
}

type GeneralConfig struct {
	Seed int32 `yaml:"seed"` // initial pool seed
}

// StorageConfig describes the public media bucket. The secret access key is
// never written to disk; it lives in the OS keychain (see SecretStore).
type StorageConfig struct {
	PublicBaseURL string `yaml:"public_base_url"`
	Bucket        string `yaml:"bucket"`
	Endpoint      string `yaml:"endpoint"`
	Region        string `yaml:"region"`
	PathStyle     bool   `yaml:"path_style"`
	AccessKeyID   string `yaml:"access_key_id"`
	CachePath     string `yaml:"cache_path"`
}

type CatalogConfig struct {
	Path        string `yaml:"path"`
	PostgresDSN string `yaml:"postgres_dsn"`
}

// LayoutConfig carries the scatter, relax and radial parameters.
// Zero values fall back to the layout package defaults.
type LayoutConfig struct {
	PoolSize        int     `yaml:"pool_size"`
	MaxAttempts     int     `yaml:"max_attempts"`
	TileMinW        float64 `yaml:"tile_min_w"`
	TileMaxW        float64 `yaml:"tile_max_w"`
	TileMinH        float64 `yaml:"tile_min_h"`
	TileMaxH        float64 `yaml:"tile_max_h"`
	TileGap         float64 `yaml:"tile_gap"`
	RelaxPasses     int     `yaml:"relax_passes"`
	StageDefaultW   float64 `yaml:"stage_default_w"`
	StageDefaultH   float64 `yaml:"stage_default_h"`
	SnapToGuides    bool    `yaml:"snap_to_guides"`
	SnapThresholdPx float64 `yaml:"snap_threshold_px"`
}

type ViewportConfig struct {
	MinZoom    float64 `yaml:"min_zoom"`
	MaxZoom    float64 `yaml:"max_zoom"`
	FitBoost   float64 `yaml:"fit_boost"`
	FitPadding float64 `yaml:"fit_padding"`
}

type ServerConfig struct {
	Addr        string   `yaml:"addr"`
	CORSOrigins []string `yaml:"cors_origins"`
}

type ExportConfig struct {
	PixelRatio float64 `yaml:"pixel_ratio"`
	OutDir     string  `yaml:"out_dir"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		General:       GeneralConfig{Seed: 1337},
		Storage: StorageConfig{
			PublicBaseURL: "http://localhost:54321",
			Bucket:        "tpl-web",
			Region:        "us-east-1",
			PathStyle:     true,
		},
		Layout: LayoutConfig{
			PoolSize:        20,
			MaxAttempts:     4000,
			TileMinW:        120,
			TileMaxW:        190,
			TileMinH:        90,
			TileMaxH:        140,
			TileGap:         6,
			RelaxPasses:     6,
			StageDefaultW:   1200,
			StageDefaultH:   700,
			SnapThresholdPx: 6,
		},
		Viewport: ViewportConfig{MinZoom: 0.25, MaxZoom: 2.2, FitBoost: 1.3, FitPadding: 48},
		Server:   ServerConfig{Addr: ":8787", CORSOrigins: []string{"*"}},
		Export:   ExportConfig{PixelRatio: 2, OutDir: "."},
		Logging:  LoggingConfig{Level: "info", Format: "console"},
	}
}

// Env var names used as overrides.
const (
	EnvConfigPath    = "TPL_CONFIG"
	EnvSeed          = "TPL_SEED"
	EnvPublicBaseURL = "TPL_PUBLIC_BASE_URL"
	EnvBucket        = "TPL_BUCKET"
	EnvS3Endpoint    = "TPL_S3_ENDPOINT"
	EnvS3Region      = "TPL_S3_REGION"
	EnvS3AccessKey   = "TPL_S3_ACCESS_KEY_ID"
	EnvS3Secret      = "TPL_S3_SECRET_ACCESS_KEY"
	EnvCachePath     = "TPL_MEDIA_CACHE"
	EnvCatalogPath   = "TPL_CATALOG"
	EnvPostgresDSN   = "TPL_PG_DSN"
	EnvMaxAttempts   = "TPL_MAX_ATTEMPTS"
	EnvServerAddr    = "TPL_ADDR"
	EnvLogLevel      = "TPL_LOG_LEVEL"
	EnvLogFormat     = "TPL_LOG_FORMAT"
	EnvLogSource     = "TPL_LOG_SOURCE"
	EnvLogFile       = "TPL_LOG_FILE"
)

// ConfigPath returns the per-user config file path. TPL_CONFIG wins when set.
func ConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfigPath)); p != "" {
		return p, nil
	}
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "TPLStudio")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "TPLStudio")
	default:
		if x := os.Getenv("XDG_CONFIG_HOME"); x != "" {
			base = filepath.Join(x, "tplstudio")
		} else {
			base = filepath.Join(os.Getenv("HOME"), ".config", "tplstudio")
		}
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// Load reads the user config file (if present), applies defaults and env
// overrides. The storage secret is read from the keychain and returned
// separately; TPL_S3_SECRET_ACCESS_KEY takes precedence over it.
func Load() (AppConfig, string, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		return cfg, "", err
	}
	if data, err := os.ReadFile(path); err == nil {
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return cfg, "", fmt.Errorf("parse %s: %w", path, err)
		}
		mergeInto(&cfg, &fileCfg)
	} else if !errors.Is(err, os.ErrNotExist) {
		return cfg, "", fmt.Errorf("read %s: %w", path, err)
	}
	applyEnvOverrides(&cfg)

	secret := strings.TrimSpace(os.Getenv(EnvS3Secret))
	if secret == "" {
		secret, _ = secretStore.Get(keyringService, keyringSecret)
	}
	return cfg, secret, nil
}

// Save writes the YAML file and persists a non-empty secret into the keychain.
func Save(cfg AppConfig, secret string) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return err
	}
	if secret != "" {
		if err := secretStore.Set(keyringService, keyringSecret, secret); err != nil {
			return fmt.Errorf("store secret: %w", err)
		}
	}
	return nil
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	if src.General.Seed != 0 {
		dst.General.Seed = src.General.Seed
	}

	setStr(&dst.Storage.PublicBaseURL, src.Storage.PublicBaseURL)
	setStr(&dst.Storage.Bucket, src.Storage.Bucket)
	setStr(&dst.Storage.Endpoint, src.Storage.Endpoint)
	setStr(&dst.Storage.Region, src.Storage.Region)
	setStr(&dst.Storage.AccessKeyID, src.Storage.AccessKeyID)
	setStr(&dst.Storage.CachePath, src.Storage.CachePath)
	dst.Storage.PathStyle = src.Storage.PathStyle

	setStr(&dst.Catalog.Path, src.Catalog.Path)
	setStr(&dst.Catalog.PostgresDSN, src.Catalog.PostgresDSN)

	l, s := &dst.Layout, &src.Layout
	setInt(&l.PoolSize, s.PoolSize)
	setInt(&l.MaxAttempts, s.MaxAttempts)
	setInt(&l.RelaxPasses, s.RelaxPasses)
	setF(&l.TileMinW, s.TileMinW)
	setF(&l.TileMaxW, s.TileMaxW)
	setF(&l.TileMinH, s.TileMinH)
	setF(&l.TileMaxH, s.TileMaxH)
	setF(&l.TileGap, s.TileGap)
	setF(&l.StageDefaultW, s.StageDefaultW)
	setF(&l.StageDefaultH, s.StageDefaultH)
	setF(&l.SnapThresholdPx, s.SnapThresholdPx)
	l.SnapToGuides = s.SnapToGuides

	setF(&dst.Viewport.MinZoom, src.Viewport.MinZoom)
	setF(&dst.Viewport.MaxZoom, src.Viewport.MaxZoom)
	setF(&dst.Viewport.FitBoost, src.Viewport.FitBoost)
	setF(&dst.Viewport.FitPadding, src.Viewport.FitPadding)

	setStr(&dst.Server.Addr, src.Server.Addr)
	if len(src.Server.CORSOrigins) > 0 {
		dst.Server.CORSOrigins = append([]string(nil), src.Server.CORSOrigins...)
	}

	setF(&dst.Export.PixelRatio, src.Export.PixelRatio)
	setStr(&dst.Export.OutDir, src.Export.OutDir)

	if v := strings.TrimSpace(src.Logging.Level); v != "" {
		dst.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(src.Logging.Format); v != "" {
		dst.Logging.Format = strings.ToLower(v)
	}
	dst.Logging.Source = src.Logging.Source
	setStr(&dst.Logging.File, src.Logging.File)
}

func setStr(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func setF(dst *float64, v float64) {
	if v != 0 {
		*dst = v
	}
}

func truthy(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

func applyEnvOverrides(cfg *AppConfig) {
	env := func(k string) string { return strings.TrimSpace(os.Getenv(k)) }

	if v := env(EnvSeed); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			cfg.General.Seed = int32(n)
		}
	}
	setStr(&cfg.Storage.PublicBaseURL, env(EnvPublicBaseURL))
	setStr(&cfg.Storage.Bucket, env(EnvBucket))
	setStr(&cfg.Storage.Endpoint, env(EnvS3Endpoint))
	setStr(&cfg.Storage.Region, env(EnvS3Region))
	setStr(&cfg.Storage.AccessKeyID, env(EnvS3AccessKey))
	setStr(&cfg.Storage.CachePath, env(EnvCachePath))
	setStr(&cfg.Catalog.Path, env(EnvCatalogPath))
	setStr(&cfg.Catalog.PostgresDSN, env(EnvPostgresDSN))
	if v := env(EnvMaxAttempts); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Layout.MaxAttempts = n
		}
	}
	setStr(&cfg.Server.Addr, env(EnvServerAddr))

	if v := env(EnvLogLevel); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := env(EnvLogFormat); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := env(EnvLogSource); v != "" {
		cfg.Logging.Source = truthy(v)
	}
	setStr(&cfg.Logging.File, env(EnvLogFile))
}

var overrideKeys = map[string]string{
	"general.seed":            EnvSeed,
	"storage.public_base_url": EnvPublicBaseURL,
	"storage.bucket":          EnvBucket,
	"storage.endpoint":        EnvS3Endpoint,
	"storage.region":          EnvS3Region,
	"storage.access_key_id":   EnvS3AccessKey,
	"storage.cache_path":      EnvCachePath,
	"catalog.path":            EnvCatalogPath,
	"catalog.postgres_dsn":    EnvPostgresDSN,
	"layout.max_attempts":     EnvMaxAttempts,
	"server.addr":             EnvServerAddr,
	"logging.level":           EnvLogLevel,
	"logging.format":          EnvLogFormat,
	"logging.source":          EnvLogSource,
	"logging.file":            EnvLogFile,
}

// EnvOverrideFor returns the env var name if the field is overridden by the environment.
func EnvOverrideFor(key string) (string, bool) {
	name, ok := overrideKeys[key]
	if !ok || os.Getenv(name) == "" {
		return "", false
	}
	return name, true
}
