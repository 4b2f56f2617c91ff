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


package main

import (
	"bytes"
	"errors"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ehabterra/polylabel/internal/config"
)

func noEnv(string) string { return "" }

func TestParseFlagsDefaults(t *testing.T) {
	cfg, act, err := parseFlags(nil, noEnv, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, cliAction{}, act)
	assert.Equal(t, config.Default(), cfg)
}

func TestParseFlagsPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "polylabel.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 7000\n  framework: echo\nstorage:\n  labelsDir: from-file\n  exclude: [\"a*\"]\n"), 0o644))

	env := map[string]string{"PORT": "7100", "IMAGES_DIR": "from-env"}
	cfg, _, err := parseFlags(
		[]string{"-config", path, "-port", "7200", "-framework", "fiber", "-exclude", "b*", "-debug"},
		func(k string) string { return env[k] },
		&bytes.Buffer{},
	)
	require.NoError(t, err)

	assert.Equal(t, 7200, cfg.Server.Port, "flag beats env and file")
	assert.Equal(t, config.FrameworkFiber, cfg.Server.Framework)
	assert.True(t, cfg.Server.Debug)
	assert.Equal(t, "from-env", cfg.Storage.ImagesDir, "env beats file default")
	assert.Equal(t, "from-file", cfg.Storage.LabelsDir)
	assert.Equal(t, []string{"a*", "b*"}, cfg.Storage.Exclude)
}

func TestParseFlagsInvalid(t *testing.T) {
	_, _, err := parseFlags([]string{"-framework", "martini"}, noEnv, &bytes.Buffer{})
	assert.Error(t, err)

	_, _, err = parseFlags([]string{"-config", filepath.Join(t.TempDir(), "missing.yaml")}, noEnv, &bytes.Buffer{})
	assert.Error(t, err)

	_, _, err = parseFlags(nil, func(k string) string {
		if k == "PORT" {
			return "abc"
		}
		return ""
	}, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestParseFlagsHelp(t *testing.T) {
	var out bytes.Buffer
	_, _, err := parseFlags([]string{"-h"}, noEnv, &out)
	assert.True(t, errors.Is(err, flag.ErrHelp))
	assert.Contains(t, out.String(), "Usage: polylabel")
}

func TestVersion(t *testing.T) {
	for _, arg := range []string{"-version", "-V"} {
		_, act, err := parseFlags([]string{arg}, noEnv, &bytes.Buffer{})
		require.NoError(t, err)
		assert.True(t, act.showVersion, arg)
	}

	var out bytes.Buffer
	printVersion(&out)
	assert.Contains(t, out.String(), "polylabel version:")
	assert.Contains(t, out.String(), "Commit:")
	assert.Contains(t, out.String(), "Build date:")
}

func TestWriteConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "polylabel.yaml")
	env := map[string]string{"LABELS_DIR": "from-env"}

	cfg, act, err := parseFlags(
		[]string{"-port", "7300", "-exclude", "tmp_*", "-write-config", path},
		func(k string) string { return env[k] },
		&bytes.Buffer{},
	)
	require.NoError(t, err)
	require.Equal(t, path, act.writeConfig)
	require.NoError(t, cfg.SaveToFile(act.writeConfig))

	loaded, _, err := parseFlags([]string{"-config", path}, noEnv, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, 7300, loaded.Server.Port)
	assert.Equal(t, "from-env", loaded.Storage.LabelsDir)
	assert.Equal(t, []string{"tmp_*"}, loaded.Storage.Exclude)
}
