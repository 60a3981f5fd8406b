/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package ibtws

import (
	"fmt"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Config carries everything Connect needs to bring a client up. It
// plays the same constructor role as the teacher's fixclient.Config /
// NewConfig pair, generalized from FIX session identity fields to the
// IB socket's connection parameters.
type Config struct {
	Host                 string
	Port                 int
	ClientID             int32
	OptionalCapabilities string

	// Logger is used for all connection lifecycle, dispatch, and parse
	// diagnostics. A no-op logger is used if nil.
	Logger *zap.Logger

	// CachePath, if non-empty, opens a SQLite bar/contract-details
	// cache at this path (see internal/cache). Leave empty to run with
	// no cache.
	CachePath string
}

// NewConfig builds a Config from explicit values, the direct
// counterpart to the teacher's NewConfig constructor.
func NewConfig(host string, port int, clientID int32, optionalCapabilities string) *Config {
	return &Config{
		Host:                 host,
		Port:                 port,
		ClientID:             clientID,
		OptionalCapabilities: optionalCapabilities,
		Logger:               zap.NewNop(),
	}
}

// LoadConfig reads connection parameters from a YAML/JSON/TOML file (or
// matching environment variables) via viper, for callers that prefer
// file-based configuration over constructing a Config by hand.
// Recognized keys: host, port, client_id, optional_capabilities,
// cache_path, log_level.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("IBTWS")
	v.AutomaticEnv()
	v.SetDefault("host", "127.0.0.1")
	v.SetDefault("port", 4002)
	v.SetDefault("client_id", 0)
	v.SetDefault("log_level", "info")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("ibtws: reading config %s: %w", path, err)
	}

	logger, err := buildLogger(v.GetString("log_level"))
	if err != nil {
		return nil, fmt.Errorf("ibtws: building logger: %w", err)
	}

	return &Config{
		Host:                 v.GetString("host"),
		Port:                 v.GetInt("port"),
		ClientID:             int32(v.GetInt("client_id")),
		OptionalCapabilities: v.GetString("optional_capabilities"),
		CachePath:            v.GetString("cache_path"),
		Logger:               logger,
	}, nil
}

func buildLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return cfg.Build()
}

func (c *Config) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

func (c *Config) addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
