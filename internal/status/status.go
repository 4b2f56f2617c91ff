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

// Package status classifies how completely each image has been labeled.
package status

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"strconv"
	"strings"

	"github.com/ehabterra/polylabel/internal/label"
)

// Category is the completeness bucket of one image.
type Category string

const (
	// None means no label file or no valid polygon in it.
	None Category = "none"
	// Orange means some classes are missing and fewer than T polygons exist.
	Orange Category = "orange"
	// Yellow means at least T polygons exist but some classes are missing.
	Yellow Category = "yellow"
	// Green means every class is represented at least once.
	Green Category = "green"
)

// ErrParse marks a label file that could not be read or parsed.
var ErrParse = errors.New("label file unreadable")

// Map is the category of every cataloged image, keyed by file name.
type Map map[string]Category

// Counts holds what the classifier measured in one label file.
type Counts struct {
	Polygons int `json:"polygons"`
	Classes  int `json:"classes"`
}

// Classify reads a label file and buckets it against total classes.
//
// A line is a polygon when it has an odd number of tokens, at least
// label.MinTokens. Class ids outside [0, total) count as polygons but not
// as covered classes. On a read error or a non-integer class id the result
// is None together with an error matching ErrParse.
func Classify(r io.Reader, total int) (Category, Counts, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return None, Counts{}, fmt.Errorf("%w: %w", ErrParse, err)
	}

	var counts Counts
	seen := make(map[int]struct{})

	for i, line := range strings.Split(string(data), "\n") {
		parts := strings.Fields(line)
		if len(parts) < label.MinTokens || len(parts)%2 == 0 {
			continue
		}
		counts.Polygons++

		id, err := strconv.Atoi(parts[0])
		if err != nil {
			return None, Counts{}, fmt.Errorf("%w: line %d: %w", ErrParse, i+1, err)
		}
		if id >= 0 && id < total {
			seen[id] = struct{}{}
		}
	}
	counts.Classes = len(seen)

	return categorize(counts, total), counts, nil
}

func categorize(c Counts, total int) Category {
	switch {
	case c.Polygons == 0:
		return None
	case c.Polygons >= total && c.Classes < total:
		return Yellow
	case c.Classes < total:
		return Orange
	default:
		return Green
	}
}

// Lister enumerates image names.
type Lister interface {
	List() ([]string, error)
}

// Opener opens the label file of an image.
type Opener interface {
	Open(image string) (io.ReadCloser, error)
}

// Classifier computes the status of every cataloged image.
type Classifier struct {
	images  Lister
	labels  Opener
	verbose bool
}

// New creates a classifier. With verbose set, each image's counts are logged.
func New(images Lister, labels Opener, verbose bool) *Classifier {
	return &Classifier{images: images, labels: labels, verbose: verbose}
}

// All classifies every image against total classes. Unreadable label files
// map to None; only a failure to list the images is returned.
func (c *Classifier) All(total int) (Map, error) {
	images, err := c.images.List()
	if err != nil {
		return nil, err
	}

	result := make(Map, len(images))
	for _, img := range images {
		result[img] = c.one(img, total)
	}
	return result, nil
}

func (c *Classifier) one(image string, total int) Category {
	rc, err := c.labels.Open(image)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Printf("status: %s: %v", image, err)
		}
		return None
	}
	defer rc.Close()

	cat, counts, err := Classify(rc, total)
	if err != nil {
		log.Printf("status: %s: %v", image, err)
		return None
	}

	if c.verbose {
		log.Printf("status: %s: %d valid polygons, %d unique classes (of %d) -> %s",
			image, counts.Polygons, counts.Classes, total, cat)
	}
	return cat
}
