// Package config resolves runtime settings from layered sources:
// config file, then environment, then CLI flags, later layers winning.
// Every resolved value remembers where it came from so `prontex
// diagnose` can show the effective configuration. Oracle credentials
// are never compiled in; they only enter through these layers.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hurttlocker/prontex/internal/oracle"
)

type ValueSource string

const (
	SourceUnknown ValueSource = "unknown"
	SourceConfig  ValueSource = "config"
	SourceEnv     ValueSource = "env"
	SourceCLI     ValueSource = "cli"
	SourceDefault ValueSource = "default"
)

type ResolvedValue struct {
	Value  string      `json:"value"`
	Source ValueSource `json:"source"`
	From   string      `json:"from,omitempty"`
}

// ResolveOptions carries the CLI-layer overrides.
type ResolveOptions struct {
	ConfigPath string
	CLIDBPath  string
	CLITruth   string
	CLIData    string
	CLIOracle  string // endpoint
}

type ResolvedConfig struct {
	ConfigPath string `json:"config_path"`

	DBPath    ResolvedValue `json:"db_path"`
	TruthPath ResolvedValue `json:"truth_path"`
	DataDir   ResolvedValue `json:"data_dir"`

	OracleEndpoint   ResolvedValue `json:"oracle_endpoint"`
	OracleAPIKey     ResolvedValue `json:"oracle_api_key"`
	OracleDeployment ResolvedValue `json:"oracle_deployment"`
	OracleAPIVersion ResolvedValue `json:"oracle_api_version"`
	OracleTimeout    ResolvedValue `json:"oracle_timeout_secs"`
}

type fileConfig struct {
	DBPath    string `yaml:"db_path"`
	TruthPath string `yaml:"truth_path"`
	DataDir   string `yaml:"data_dir"`
	Oracle    struct {
		Endpoint    string `yaml:"endpoint"`
		APIKey      string `yaml:"api_key"`
		Deployment  string `yaml:"deployment"`
		APIVersion  string `yaml:"api_version"`
		TimeoutSecs int    `yaml:"timeout_secs"`
	} `yaml:"oracle"`
}

func DefaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".prontex", "config.yaml")
}

func DefaultDBPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".prontex", "prontex.db")
}

func ResolveConfig(opts ResolveOptions) (ResolvedConfig, error) {
	path := strings.TrimSpace(opts.ConfigPath)
	if path == "" {
		path = DefaultConfigPath()
	}

	out := ResolvedConfig{ConfigPath: path}

	cfg, err := loadConfig(path)
	if err != nil {
		return out, err
	}
	if cfg != nil {
		apply(&out.DBPath, cfg.DBPath, SourceConfig, path)
		apply(&out.TruthPath, cfg.TruthPath, SourceConfig, path)
		apply(&out.DataDir, cfg.DataDir, SourceConfig, path)
		apply(&out.OracleEndpoint, cfg.Oracle.Endpoint, SourceConfig, path)
		apply(&out.OracleAPIKey, cfg.Oracle.APIKey, SourceConfig, path)
		apply(&out.OracleDeployment, cfg.Oracle.Deployment, SourceConfig, path)
		apply(&out.OracleAPIVersion, cfg.Oracle.APIVersion, SourceConfig, path)
		if cfg.Oracle.TimeoutSecs > 0 {
			out.OracleTimeout = ResolvedValue{Value: strconv.Itoa(cfg.Oracle.TimeoutSecs), Source: SourceConfig, From: path}
		}
	}

	applyEnv(&out.DBPath, "PRONTEX_DB")
	applyEnv(&out.TruthPath, "PRONTEX_TRUTH")
	applyEnv(&out.DataDir, "PRONTEX_DATA")
	applyEnv(&out.OracleEndpoint, "PRONTEX_ORACLE_ENDPOINT")
	applyEnv(&out.OracleAPIKey, "PRONTEX_ORACLE_API_KEY")
	applyEnv(&out.OracleDeployment, "PRONTEX_ORACLE_DEPLOYMENT")
	applyEnv(&out.OracleAPIVersion, "PRONTEX_ORACLE_API_VERSION")
	applyEnv(&out.OracleTimeout, "PRONTEX_ORACLE_TIMEOUT")

	apply(&out.DBPath, opts.CLIDBPath, SourceCLI, "--db")
	apply(&out.TruthPath, opts.CLITruth, SourceCLI, "--truth")
	apply(&out.DataDir, opts.CLIData, SourceCLI, "--data")
	apply(&out.OracleEndpoint, opts.CLIOracle, SourceCLI, "--oracle")

	if out.DBPath.Value == "" {
		out.DBPath = ResolvedValue{Value: DefaultDBPath(), Source: SourceDefault, From: "built-in default"}
	}
	out.DBPath.Value = expandUserPath(out.DBPath.Value)
	out.TruthPath.Value = expandUserPath(out.TruthPath.Value)
	out.DataDir.Value = expandUserPath(out.DataDir.Value)

	return out, nil
}

// OracleConfig assembles the oracle client config from the resolved
// layers on top of the request-shape defaults.
func (r ResolvedConfig) OracleConfig() oracle.Config {
	cfg := oracle.DefaultConfig()
	cfg.Endpoint = r.OracleEndpoint.Value
	cfg.APIKey = r.OracleAPIKey.Value
	cfg.Deployment = r.OracleDeployment.Value
	if r.OracleAPIVersion.Value != "" {
		cfg.APIVersion = r.OracleAPIVersion.Value
	}
	if secs, err := strconv.Atoi(r.OracleTimeout.Value); err == nil && secs > 0 {
		cfg.TimeoutSecs = secs
	}
	return cfg
}

// OracleConfigured reports whether the three required oracle settings
// are all present.
func (r ResolvedConfig) OracleConfigured() bool {
	return r.OracleEndpoint.Value != "" && r.OracleAPIKey.Value != "" && r.OracleDeployment.Value != ""
}

func apply(dst *ResolvedValue, raw string, source ValueSource, from string) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return
	}
	*dst = ResolvedValue{Value: v, Source: source, From: from}
}

func applyEnv(dst *ResolvedValue, envKey string) {
	if v := strings.TrimSpace(os.Getenv(envKey)); v != "" {
		*dst = ResolvedValue{Value: v, Source: SourceEnv, From: envKey}
	}
}

func loadConfig(path string) (*fileConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var cfg fileConfig
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &cfg, nil
}

func expandUserPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
