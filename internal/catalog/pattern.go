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
	"fmt"
	"regexp"
	"strings"
)

// rule is one compiled gitignore-style line.
type rule struct {
	re      *regexp.Regexp
	negated bool
}

// Filter decides which image names are hidden from the catalog.
//
// Patterns follow .gitignore rules: *, **, ?, [...] and a leading ! that
// re-includes a name hidden by an earlier pattern. The last matching
// pattern wins.
type Filter struct {
	rules []rule
}

// NewFilter compiles patterns. Blank lines and lines starting with # are
// ignored.
func NewFilter(patterns []string) (*Filter, error) {
	f := &Filter{}
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" || strings.HasPrefix(p, "#") {
			continue
		}

		negated := strings.HasPrefix(p, "!")
		body := strings.TrimPrefix(strings.TrimPrefix(p, "!"), "/")
		if body == "" {
			continue
		}

		re, err := regexp.Compile(patternToRegex(body))
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", p, err)
		}
		f.rules = append(f.rules, rule{re: re, negated: negated})
	}
	return f, nil
}

// Excluded reports whether name is hidden.
func (f *Filter) Excluded(name string) bool {
	if f == nil {
		return false
	}

	excluded := false
	for _, r := range f.rules {
		if r.re.MatchString(name) {
			excluded = !r.negated
		}
	}
	return excluded
}

// patternToRegex converts a gitignore pattern to an anchored regex.
func patternToRegex(pattern string) string {
	trailingSlash := strings.HasSuffix(pattern, "/")
	pattern = strings.TrimSuffix(pattern, "/")

	var b strings.Builder
	b.WriteString("^")

	// Without a slash the pattern matches at any depth.
	if !strings.Contains(pattern, "/") {
		b.WriteString("(?:.*/)?")
	}

	for i := 0; i < len(pattern); {
		c := pattern[i]
		switch {
		case c == '*' && strings.HasPrefix(pattern[i:], "**/"):
			b.WriteString("(?:.*?/)?")
			i += 3
		case c == '*' && strings.HasPrefix(pattern[i:], "**"):
			b.WriteString(".*")
			i += 2
		case c == '*':
			b.WriteString("[^/]*")
			i++
		case c == '?':
			b.WriteString("[^/]")
			i++
		case c == '[':
			end := strings.IndexByte(pattern[i:], ']')
			if end < 0 {
				b.WriteString(`\[`)
				i++
				continue
			}
			class := strings.ReplaceAll(pattern[i:i+end+1], `\`, `\\`)
			if strings.HasPrefix(class, "[!") {
				class = "[^" + class[2:]
			}
			b.WriteString(class)
			i += end + 1
		case strings.IndexByte(".^$(){}+|\\", c) >= 0:
			b.WriteByte('\\')
			b.WriteByte(c)
			i++
		default:
			b.WriteByte(c)
			i++
		}
	}

	if trailingSlash {
		b.WriteString("(?:/.*)?")
	}
	b.WriteString("$")
	return b.String()
}
