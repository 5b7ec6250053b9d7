/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package media

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"tplstudio/internal/domain"
)

//go:embed overrides.yaml
var defaultOverridesYAML []byte

// Overrides maps reference ids to curated media.
type Overrides map[string]domain.Media

type overrideEntry struct {
	Kind   string `yaml:"kind"`
	Src    string `yaml:"src"`
	Alt    string `yaml:"alt,omitempty"`
	Poster string `yaml:"poster,omitempty"`
	Title  string `yaml:"title,omitempty"`
}

// ParseOverrides reads a YAML mapping of reference id to {kind, src, ...}.
func ParseOverrides(data []byte) (Overrides, error) {
	var raw map[string]overrideEntry
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse overrides: %w", err)
	}
	out := make(Overrides, len(raw))
	for id, e := range raw {
		if e.Src == "" {
			return nil, fmt.Errorf("override %s: empty src", id)
		}
		kind, err := domain.ParseMediaKind(e.Kind)
		if err != nil {
			return nil, fmt.Errorf("override %s: %w", id, err)
		}
		switch kind {
		case domain.MediaImage:
			out[id] = domain.Image{Src: e.Src, Alt: e.Alt}
		case domain.MediaVideo:
			out[id] = domain.Video{Src: e.Src, Poster: e.Poster}
		case domain.MediaAudio:
			out[id] = domain.Audio{Src: e.Src, Title: e.Title}
		}
	}
	return out, nil
}

// LoadOverrides reads an overrides file. An empty path returns the built-in
// set.
func LoadOverrides(path string) (Overrides, error) {
	if path == "" {
		return DefaultOverrides(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read overrides: %w", err)
	}
	return ParseOverrides(b)
}

// DefaultOverrides returns the curated set shipped with the binary.
func DefaultOverrides() Overrides {
	o, err := ParseOverrides(defaultOverridesYAML)
	if err != nil {
		panic(err)
	}
	return o
}
