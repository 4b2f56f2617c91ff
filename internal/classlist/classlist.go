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

// Package classlist reads the ordered list of annotation class names.
package classlist

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Load reads class names from a newline-separated file. Names are trimmed
// and blank lines skipped; order is kept since a class id indexes the list.
func Load(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open class list: %w", err)
	}
	defer f.Close()

	classes, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read class list %s: %w", path, err)
	}
	return classes, nil
}

// Parse reads class names from r.
func Parse(r io.Reader) ([]string, error) {
	classes := make([]string, 0)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if name := strings.TrimSpace(scanner.Text()); name != "" {
			classes = append(classes, name)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return classes, nil
}
