// Copyright 2025 Ehab Terra
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package config holds the server configuration: defaults, an optional YAML
// file, and environment overrides.
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Supported HTTP frameworks.
const (
	FrameworkChi   = "chi"
	FrameworkGin   = "gin"
	FrameworkEcho  = "echo"
	FrameworkFiber = "fiber"
)

// Frameworks lists the accepted values of server.framework.
var Frameworks = []string{FrameworkChi, FrameworkGin, FrameworkEcho, FrameworkFiber}

// Config holds the application configuration
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
}

// ServerConfig holds the HTTP listener settings
type ServerConfig struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	Framework string `yaml:"framework"`
	CORS      bool   `yaml:"cors"`
	Debug     bool   `yaml:"debug"`
	StaticDir string `yaml:"staticDir,omitempty"`
}

// StorageConfig holds the on-disk layout
type StorageConfig struct {
	ImagesDir   string   `yaml:"imagesDir"`
	LabelsDir   string   `yaml:"labelsDir"`
	ClassesFile string   `yaml:"classesFile"`
	Exclude     []string `yaml:"exclude,omitempty"`
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:      "0.0.0.0",
			Port:      5000,
			Framework: FrameworkChi,
			CORS:      true,
		},
		Storage: StorageConfig{
			ImagesDir:   "images",
			LabelsDir:   "labels",
			ClassesFile: "classes.txt",
		},
	}
}

// LoadFromFile reads a YAML file over the defaults. Keys missing from the
// file keep their default values.
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// SaveToFile writes the configuration as YAML.
func (c *Config) SaveToFile(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ApplyEnv overrides fields from environment variables: PORT, HOST,
// FRAMEWORK, DEBUG (or FLASK_DEBUG) set to "1", IMAGES_DIR, LABELS_DIR and
// CLASSES_FILE.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if getenv == nil {
		getenv = os.Getenv
	}

	if p := strings.TrimSpace(getenv("PORT")); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", p, err)
		}
		c.Server.Port = port
	}
	if v := getenv("DEBUG"); v != "" {
		c.Server.Debug = v == "1"
	} else if v := getenv("FLASK_DEBUG"); v != "" {
		c.Server.Debug = v == "1"
	}

	setString(&c.Server.Host, getenv("HOST"))
	setString(&c.Server.Framework, getenv("FRAMEWORK"))
	setString(&c.Storage.ImagesDir, getenv("IMAGES_DIR"))
	setString(&c.Storage.LabelsDir, getenv("LABELS_DIR"))
	setString(&c.Storage.ClassesFile, getenv("CLASSES_FILE"))
	return nil
}

func setString(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}

	known := false
	for _, f := range Frameworks {
		if c.Server.Framework == f {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("server.framework must be one of %s", strings.Join(Frameworks, ", "))
	}

	if c.Storage.ImagesDir == "" {
		return fmt.Errorf("storage.imagesDir cannot be empty")
	}
	if c.Storage.LabelsDir == "" {
		return fmt.Errorf("storage.labelsDir cannot be empty")
	}
	if c.Storage.ClassesFile == "" {
		return fmt.Errorf("storage.classesFile cannot be empty")
	}
	return nil
}

// Addr returns host:port for the listener.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// EnsureDirs creates the images and labels directories if missing.
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{c.Storage.ImagesDir, c.Storage.LabelsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}
