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

// Package store persists label files, one text file per image.
//
// Saves overwrite the whole file and are not locked: two concurrent saves
// for the same image race and the last writer wins.
package store

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ehabterra/polylabel/internal/label"
)

const (
	labelExt = ".txt"
	filePerm = 0o644

	errorFailedCreateLabel = "failed to create label file: %w"
	errorFailedWriteLabel  = "failed to write label file: %w"
)

// Store reads and writes label files in a directory.
type Store struct {
	dir string
}

// New returns a store rooted at dir.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Path returns the label file path for an image: <dir>/<stem>.txt.
func (s *Store) Path(image string) string {
	base := filepath.Base(image)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(s.dir, stem+labelExt)
}

// Has reports whether a label file exists for image.
func (s *Store) Has(image string) bool {
	_, err := os.Stat(s.Path(image))
	return err == nil
}

// Open returns the raw label file for image. A missing file yields an
// error matching fs.ErrNotExist.
func (s *Store) Open(image string) (io.ReadCloser, error) {
	f, err := os.Open(s.Path(image))
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Load decodes the label file for image. A missing file is an empty list.
func (s *Store) Load(image string) ([]label.Annotation, error) {
	data, err := os.ReadFile(s.Path(image))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []label.Annotation{}, nil
		}
		return nil, fmt.Errorf("failed to read label file: %w", err)
	}

	return label.Decode(string(data))
}

// Save replaces the label file for image with annotations. Invalid
// annotations are rejected before the existing file is touched.
func (s *Store) Save(image string, annotations []label.Annotation) (err error) {
	for i, a := range annotations {
		if !a.Valid() {
			return fmt.Errorf("annotation %d: %w", i, label.ErrInvalid)
		}
	}

	f, err := os.OpenFile(s.Path(image), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, filePerm)
	if err != nil {
		return fmt.Errorf(errorFailedCreateLabel, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf(errorFailedWriteLabel, cerr)
		}
	}()

	if _, err := io.WriteString(f, label.Encode(annotations)); err != nil {
		return fmt.Errorf(errorFailedWriteLabel, err)
	}
	return nil
}
