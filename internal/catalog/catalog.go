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

// Package catalog enumerates the images available for annotation.
package catalog

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrNotFound is returned for names that are not cataloged images.
var ErrNotFound = errors.New("image not found")

var imageExts = []string{".jpg", ".png"}

// Catalog lists image files kept flat in a single directory.
type Catalog struct {
	dir    string
	filter *Filter
}

// New creates a catalog over dir. A nil filter hides nothing.
func New(dir string, filter *Filter) *Catalog {
	return &Catalog{dir: dir, filter: filter}
}

// IsImageName reports whether name has a supported image extension.
func IsImageName(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range imageExts {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// List returns the cataloged image names in ascending order. A missing
// directory is an empty catalog.
func (c *Catalog) List() ([]string, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to read images directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !IsImageName(name) || c.filter.Excluded(name) {
			continue
		}
		names = append(names, name)
	}

	sort.Strings(names)
	return names, nil
}

// Exists reports whether name is a cataloged image on disk.
func (c *Catalog) Exists(name string) bool {
	_, err := c.Path(name)
	return err == nil
}

// Path resolves name to a file path inside the images directory.
func (c *Catalog) Path(name string) (string, error) {
	if !validName(name) || !IsImageName(name) || c.filter.Excluded(name) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	p := filepath.Join(c.dir, name)
	info, err := os.Stat(p)
	if err != nil || !info.Mode().IsRegular() {
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return p, nil
}

// validName accepts plain base names only.
func validName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`) && filepath.Base(name) == name
}
