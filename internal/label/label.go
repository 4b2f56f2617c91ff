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

// Package label encodes and decodes per-image polygon label files.
//
// A label file holds one polygon per line:
//
//	<class_id> <x1> <y1> <x2> <y2> <x3> <y3> ...
//
// Coordinates are written with six decimal places.
package label

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	// MinPoints is the smallest number of vertices a polygon may have.
	MinPoints = 3
	// MinTokens is a class id followed by MinPoints coordinate pairs.
	MinTokens = 1 + 2*MinPoints

	coordFormat = "%.6f"
)

// ErrParse is matched by every *ParseError.
var ErrParse = errors.New("malformed label line")

// Point is an (x, y) vertex. It marshals to JSON as [x, y].
type Point [2]float64

// Annotation is a single polygon belonging to an image.
type Annotation struct {
	ClassID int     `json:"class_id"`
	Points  []Point `json:"points"`
}

// ErrInvalid is returned when an annotation cannot be persisted.
var ErrInvalid = errors.New("invalid annotation")

// Valid reports whether the annotation can be persisted: a non-negative
// class id and at least MinPoints finite vertices.
func (a Annotation) Valid() bool {
	if a.ClassID < 0 || len(a.Points) < MinPoints {
		return false
	}
	for _, p := range a.Points {
		if !finite(p[0]) || !finite(p[1]) {
			return false
		}
	}
	return true
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// ParseError describes a line that had the right shape but a bad token.
type ParseError struct {
	Line int
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d %q: %v", e.Line, e.Text, e.Err)
}

func (e *ParseError) Unwrap() []error {
	return []error{ErrParse, e.Err}
}

// Decode parses label file content.
//
// Blank lines, lines with fewer than MinTokens tokens, lines with a negative
// class id and lines yielding fewer than MinPoints points are skipped. A
// trailing unpaired coordinate is ignored. A non-numeric token or a
// coordinate that is NaN or infinite returns a *ParseError.
func Decode(text string) ([]Annotation, error) {
	annotations := make([]Annotation, 0)

	for i, line := range strings.Split(text, "\n") {
		parts := strings.Fields(line)
		if len(parts) < MinTokens {
			continue
		}

		classID, err := strconv.Atoi(parts[0])
		if err != nil {
			return nil, &ParseError{Line: i + 1, Text: line, Err: err}
		}
		if classID < 0 {
			continue
		}

		points := make([]Point, 0, (len(parts)-1)/2)
		for j := 1; j+1 < len(parts); j += 2 {
			x, err := parseCoord(parts[j])
			if err != nil {
				return nil, &ParseError{Line: i + 1, Text: line, Err: err}
			}
			y, err := parseCoord(parts[j+1])
			if err != nil {
				return nil, &ParseError{Line: i + 1, Text: line, Err: err}
			}
			points = append(points, Point{x, y})
		}

		if len(points) < MinPoints {
			continue
		}

		annotations = append(annotations, Annotation{ClassID: classID, Points: points})
	}

	return annotations, nil
}

// parseCoord parses a finite coordinate. JSON has no encoding for NaN or
// infinities, so they are rejected here rather than at response time.
func parseCoord(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if !finite(v) {
		return 0, fmt.Errorf("non-finite coordinate %q", s)
	}
	return v, nil
}

// Encode renders annotations in order, one line each.
func Encode(annotations []Annotation) string {
	var b strings.Builder
	for _, a := range annotations {
		b.WriteString(strconv.Itoa(a.ClassID))
		for _, p := range a.Points {
			b.WriteByte(' ')
			fmt.Fprintf(&b, coordFormat, p[0])
			b.WriteByte(' ')
			fmt.Fprintf(&b, coordFormat, p[1])
		}
		b.WriteByte('\n')
	}
	return b.String()
}
