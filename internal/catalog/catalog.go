/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package catalog loads the reference catalog from its published JSON file
// or from PostgreSQL.
package catalog

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	gojsonschema "github.com/xeipuuv/gojsonschema"

	"tplstudio/internal/domain"
	applog "tplstudio/internal/log"
)

//go:embed schema.json
var schemaJSON []byte

// ErrInvalidCatalog is returned together with the fallback schema when a
// document does not conform.
var ErrInvalidCatalog = errors.New("catalog: invalid document")

var compiled = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaJSON))
})

// Fallback is the empty catalog served when the document is unusable.
func Fallback(now time.Time) domain.Schema {
	return domain.Schema{
		SchemaVersion: "0.0",
		Project:       "unknown",
		GeneratedAt:   now.UTC().Format(time.RFC3339),
		Types:         []domain.ReferenceType{},
		References:    []domain.Reference{},
	}
}

// Validate checks data against the embedded schema and returns the list of
// violations, empty when the document conforms.
func Validate(data []byte) ([]string, error) {
	s, err := compiled()
	if err != nil {
		return nil, fmt.Errorf("compile catalog schema: %w", err)
	}
	res, err := s.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		// not JSON at all
		return []string{err.Error()}, nil
	}
	var problems []string
	for _, e := range res.Errors() {
		problems = append(problems, e.String())
	}
	return problems, nil
}

// Parse validates and decodes a catalog document. On any validation or
// decoding failure it returns Fallback together with an error wrapping
// ErrInvalidCatalog, so callers can keep running with an empty catalog.
func Parse(data []byte) (domain.Schema, error) {
	l := applog.WithOperation(applog.WithComponent("catalog"), "parse")
	problems, err := Validate(data)
	if err != nil {
		return Fallback(time.Now()), err
	}
	if len(problems) > 0 {
		l.Warn("catalog does not conform", slog.Int("problems", len(problems)), slog.String("first", problems[0]))
		return Fallback(time.Now()), fmt.Errorf("%w: %s", ErrInvalidCatalog, strings.Join(problems, "; "))
	}
	var s domain.Schema
	if err := json.Unmarshal(data, &s); err != nil {
		return Fallback(time.Now()), fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	l.Debug("catalog parsed", slog.String("project", s.Project), slog.Int("references", len(s.References)))
	return s, nil
}

// LoadFile reads and parses the catalog at path. A missing file is an I/O
// error, not a fallback.
func LoadFile(path string) (domain.Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Schema{}, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// Open loads path and indexes it. Invalid documents yield an empty catalog
// and the validation error.
func Open(path string) (*domain.Catalog, error) {
	s, err := LoadFile(path)
	if err != nil && !errors.Is(err, ErrInvalidCatalog) {
		return nil, err
	}
	return domain.NewCatalog(s.References), err
}
