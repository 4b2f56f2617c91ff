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

package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("x"), 0o644))
	}
}

func TestIsImageName(t *testing.T) {
	for _, n := range []string{"a.jpg", "b.PNG", "c.Jpg", "x.y.png"} {
		assert.True(t, IsImageName(n), n)
	}
	for _, n := range []string{"a.jpeg", "b.gif", "c.txt", "png", "d.jpg.bak"} {
		assert.False(t, IsImageName(n), n)
	}
}

func TestList(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "c.jpg", "a.PNG", "b.png", "notes.txt", "d.jpeg", "B.jpg")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.jpg"), 0o755))

	got, err := New(dir, nil).List()
	require.NoError(t, err)
	assert.Equal(t, []string{"B.jpg", "a.PNG", "b.png", "c.jpg"}, got)
}

func TestListExcluded(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "a.jpg", "a_thumb.jpg", "b.png")

	f, err := NewFilter([]string{"*_thumb.*"})
	require.NoError(t, err)

	got, err := New(dir, f).List()
	require.NoError(t, err)
	assert.Equal(t, []string{"a.jpg", "b.png"}, got)
}

func TestListMissingDir(t *testing.T) {
	got, err := New(filepath.Join(t.TempDir(), "nope"), nil).List()
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)
}

func TestExistsAndPath(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "images")
	require.NoError(t, os.Mkdir(dir, 0o755))
	writeFiles(t, dir, "a.jpg", "notes.txt", "hidden_thumb.jpg")
	writeFiles(t, root, "outside.jpg")

	f, err := NewFilter([]string{"*_thumb.jpg"})
	require.NoError(t, err)
	c := New(dir, f)

	assert.True(t, c.Exists("a.jpg"))

	for _, name := range []string{"", ".", "..", "missing.jpg", "notes.txt", "../outside.jpg", "sub/a.jpg", "hidden_thumb.jpg"} {
		assert.False(t, c.Exists(name), name)
		_, err := c.Path(name)
		assert.True(t, errors.Is(err, ErrNotFound), name)
	}

	p, err := c.Path("a.jpg")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "a.jpg"), p)
}
