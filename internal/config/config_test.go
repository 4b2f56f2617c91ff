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


package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, FrameworkChi, cfg.Server.Framework)
	assert.Equal(t, "images", cfg.Storage.ImagesDir)
	assert.Equal(t, "labels", cfg.Storage.LabelsDir)
	assert.Equal(t, "classes.txt", cfg.Storage.ClassesFile)
	assert.Equal(t, "0.0.0.0:5000", cfg.Addr())
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "polylabel.yaml")
	content := `
server:
  port: 8080
  framework: echo
storage:
  imagesDir: /data/images
  exclude:
    - "*_thumb.jpg"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, FrameworkEcho, cfg.Server.Framework)
	assert.True(t, cfg.Server.CORS, "unset keys keep defaults")
	assert.Equal(t, "/data/images", cfg.Storage.ImagesDir)
	assert.Equal(t, "labels", cfg.Storage.LabelsDir)
	assert.Equal(t, []string{"*_thumb.jpg"}, cfg.Storage.Exclude)
}

func TestLoadFromFileErrors(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [1, 2"), 0o644))
	_, err = LoadFromFile(path)
	assert.Error(t, err)
}

func TestSaveToFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	cfg := Default()
	cfg.Server.Framework = FrameworkFiber
	cfg.Storage.Exclude = []string{"tmp*"}
	require.NoError(t, cfg.SaveToFile(path))

	got, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(envMap(map[string]string{
		"PORT":         "9090",
		"FLASK_DEBUG":  "1",
		"FRAMEWORK":    "gin",
		"IMAGES_DIR":   "imgs",
		"LABELS_DIR":   " lbls ",
		"CLASSES_FILE": "names.txt",
	}))
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.True(t, cfg.Server.Debug)
	assert.Equal(t, FrameworkGin, cfg.Server.Framework)
	assert.Equal(t, "imgs", cfg.Storage.ImagesDir)
	assert.Equal(t, "lbls", cfg.Storage.LabelsDir)
	assert.Equal(t, "names.txt", cfg.Storage.ClassesFile)
}

func TestApplyEnvDebugPrecedence(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(envMap(map[string]string{"DEBUG": "0", "FLASK_DEBUG": "1"})))
	assert.False(t, cfg.Server.Debug)
}

func TestApplyEnvBadPort(t *testing.T) {
	cfg := Default()
	assert.Error(t, cfg.ApplyEnv(envMap(map[string]string{"PORT": "http"})))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port zero", func(c *Config) { c.Server.Port = 0 }},
		{"port too large", func(c *Config) { c.Server.Port = 70000 }},
		{"unknown framework", func(c *Config) { c.Server.Framework = "martini" }},
		{"no images dir", func(c *Config) { c.Storage.ImagesDir = "" }},
		{"no labels dir", func(c *Config) { c.Storage.LabelsDir = "" }},
		{"no classes file", func(c *Config) { c.Storage.ClassesFile = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestEnsureDirs(t *testing.T) {
	root := t.TempDir()
	cfg := Default()
	cfg.Storage.ImagesDir = filepath.Join(root, "a", "images")
	cfg.Storage.LabelsDir = filepath.Join(root, "b", "labels")

	require.NoError(t, cfg.EnsureDirs())
	assert.DirExists(t, cfg.Storage.ImagesDir)
	assert.DirExists(t, cfg.Storage.LabelsDir)
}
