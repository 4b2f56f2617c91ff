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


// Package annotate implements the annotation operations shared by every
// HTTP adapter: listing images and classes, loading and saving labels, and
// reporting label status.
package annotate

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ehabterra/polylabel/internal/catalog"
	"github.com/ehabterra/polylabel/internal/classlist"
	"github.com/ehabterra/polylabel/internal/label"
	"github.com/ehabterra/polylabel/internal/metrics"
	"github.com/ehabterra/polylabel/internal/status"
	"github.com/ehabterra/polylabel/internal/store"
)

// Options configures a Service.
type Options struct {
	ImagesDir   string
	LabelsDir   string
	ClassesFile string
	Exclude     []string
	Verbose     bool
}

// SaveRequest is the body of a save call.
type SaveRequest struct {
	Image       string            `json:"image"`
	Annotations []AnnotationInput `json:"annotations" validate:"dive"`
}

// AnnotationInput is one polygon as sent by the client. Fields are loose so
// that missing ids and malformed points can be reported.
type AnnotationInput struct {
	ClassID *int        `json:"class_id" validate:"required,min=0"`
	Points  [][]float64 `json:"points" validate:"min=3,dive,len=2"`
}

// Service wires the catalog, label store and classifier together.
type Service struct {
	catalog    *catalog.Catalog
	store      *store.Store
	classifier *status.Classifier
	classes    string
	verbose    bool
	validate   *validator.Validate
	metrics    *metrics.Collector
}

// New creates a Service. Exclude patterns are compiled here.
func New(opts Options, m *metrics.Collector) (*Service, error) {
	filter, err := catalog.NewFilter(opts.Exclude)
	if err != nil {
		return nil, err
	}

	cat := catalog.New(opts.ImagesDir, filter)
	st := store.New(opts.LabelsDir)

	return &Service{
		catalog:    cat,
		store:      st,
		classifier: status.New(cat, st, opts.Verbose),
		classes:    opts.ClassesFile,
		verbose:    opts.Verbose,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		metrics:    m,
	}, nil
}

// Metrics returns the collector the service records into.
func (s *Service) Metrics() *metrics.Collector {
	return s.metrics
}

// Classes reads the class list.
func (s *Service) Classes() ([]string, error) {
	s.metrics.Inc("classes")
	return classlist.Load(s.classes)
}

// Images lists the cataloged images in order.
func (s *Service) Images() ([]string, error) {
	s.metrics.Inc("images")
	return s.catalog.List()
}

// ImagePath resolves an image for serving.
func (s *Service) ImagePath(name string) (string, error) {
	s.metrics.Inc("image")
	p, err := s.catalog.Path(name)
	if err != nil {
		return "", notFound("Image file %s does not exist", name)
	}
	return p, nil
}

// Load returns the annotations of an image. A missing or unparsable label
// file is an empty list; an unknown image is ErrNotFound.
func (s *Service) Load(name string) ([]label.Annotation, error) {
	defer s.metrics.StartTimer("load").Stop()

	if !s.catalog.Exists(name) {
		return nil, notFound("Image file %s does not exist", name)
	}

	anns, err := s.store.Load(name)
	if err != nil {
		log.Printf("load: %s: %v", name, err)
		return []label.Annotation{}, nil
	}
	return anns, nil
}

// Save validates req and overwrites the image's label file.
func (s *Service) Save(req *SaveRequest) error {
	defer s.metrics.StartTimer("save").Stop()

	if req == nil {
		return badRequest(nil, "No data received")
	}
	req.Image = strings.TrimSpace(req.Image)
	if req.Image == "" {
		return badRequest(nil, "No image name provided")
	}
	if err := s.validate.Struct(req); err != nil {
		return badRequest(err, "Invalid annotations")
	}
	if !s.catalog.Exists(req.Image) {
		log.Printf("save: attempted to save labels for non-existent image: %s", req.Image)
		return notFound("Image file %s does not exist", req.Image)
	}

	anns := make([]label.Annotation, len(req.Annotations))
	for i, in := range req.Annotations {
		pts := make([]label.Point, len(in.Points))
		for j, p := range in.Points {
			pts[j] = label.Point{p[0], p[1]}
		}
		anns[i] = label.Annotation{ClassID: *in.ClassID, Points: pts}
	}

	if err := s.store.Save(req.Image, anns); err != nil {
		if errors.Is(err, label.ErrInvalid) {
			return badRequest(err, "Invalid annotations")
		}
		return fmt.Errorf("failed to save labels for %s: %w", req.Image, err)
	}

	if s.verbose {
		log.Printf("save: %s: %d annotations", req.Image, len(anns))
	}
	return nil
}

// HasLabel reports whether a label file exists for name.
func (s *Service) HasLabel(name string) bool {
	s.metrics.Inc("label_status")
	return s.store.Has(name)
}

// StatusAll classifies every image against the current class list.
func (s *Service) StatusAll() (status.Map, error) {
	defer s.metrics.StartTimer("label_status_all").Stop()

	classes, err := classlist.Load(s.classes)
	if err != nil {
		return nil, err
	}
	return s.classifier.All(len(classes))
}

// IsClientError reports whether err should be answered with a 4xx status.
func IsClientError(err error) bool {
	return errors.Is(err, ErrBadRequest) || errors.Is(err, ErrNotFound)
}
