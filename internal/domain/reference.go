/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

// This file defines the reference records of the archive. They are loaded
// once per session and never mutated afterwards.

import (
	"fmt"
	"strings"
)

// ReferenceType is the archive category of a record.
type ReferenceType string

const (
	TypeCollectif       ReferenceType = "collectif"
	TypeFilm            ReferenceType = "film"
	TypeJeuVideo        ReferenceType = "jeu_video"
	TypeTexte           ReferenceType = "texte"
	TypeMusique         ReferenceType = "musique"
	TypeOeuvrePicturale ReferenceType = "oeuvre_picturale"
	TypePerformance     ReferenceType = "performance"
	TypePodcast         ReferenceType = "podcast"
	TypeVideo           ReferenceType = "video"
)

// ReferenceTypes lists every known type in display order.
var ReferenceTypes = []ReferenceType{
	TypeCollectif, TypeFilm, TypeJeuVideo, TypeTexte, TypeMusique,
	TypeOeuvrePicturale, TypePerformance, TypePodcast, TypeVideo,
}

// Valid reports whether t is one of ReferenceTypes.
func (t ReferenceType) Valid() bool {
	for _, k := range ReferenceTypes {
		if k == t {
			return true
		}
	}
	return false
}

// Label renders the type for pool cards: "jeu_video" -> "JEU VIDEO".
func (t ReferenceType) Label() string {
	return strings.ToUpper(strings.ReplaceAll(string(t), "_", " "))
}

type YearRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Reference is one archive record.
type Reference struct {
	ID           string        `json:"id"`
	Type         ReferenceType `json:"type"`
	Title        string        `json:"title"`
	Creator      string        `json:"creator,omitempty"`
	Year         int           `json:"year,omitempty"`
	YearRange    *YearRange    `json:"yearRange,omitempty"`
	Location     string        `json:"location,omitempty"`
	SourceLabel  string        `json:"sourceLabel,omitempty"`
	SourceURL    string        `json:"sourceUrl,omitempty"`
	Notes        string        `json:"notes,omitempty"`
	Tags         []string      `json:"tags,omitempty"`
	Media        *MediaRef     `json:"media,omitempty"`
	MediaGallery []MediaRef    `json:"mediaGallery,omitempty"`
}

// YearLabel formats the year, a "start–end" range, or an em dash when unknown.
func (r Reference) YearLabel() string {
	switch {
	case r.Year != 0:
		return fmt.Sprint(r.Year)
	case r.YearRange != nil:
		return fmt.Sprintf("%d–%d", r.YearRange.Start, r.YearRange.End)
	default:
		return "—"
	}
}

// PrimaryMedia returns the main media, falling back to the first gallery entry.
func (r Reference) PrimaryMedia() (Media, bool) {
	if r.Media != nil && r.Media.Media != nil {
		return r.Media.Media, true
	}
	for _, m := range r.MediaGallery {
		if m.Media != nil {
			return m.Media, true
		}
	}
	return nil, false
}

// Credits and Schema mirror the published catalog file.
type Credits struct {
	Thanks       []string `json:"thanks,omitempty"`
	Typographies []string `json:"typographies,omitempty"`
	PrintedAt    string   `json:"printedAt,omitempty"`
	Contact      struct {
		Instagram string `json:"instagram,omitempty"`
		Email     string `json:"email,omitempty"`
	} `json:"contact"`
}

type Schema struct {
	SchemaVersion string          `json:"schemaVersion"`
	Project       string          `json:"project"`
	GeneratedAt   string          `json:"generatedAt"`
	Types         []ReferenceType `json:"types"`
	References    []Reference     `json:"references"`
	Credits       *Credits        `json:"credits,omitempty"`
	Meta          *struct {
		Notes []string `json:"notes,omitempty"`
	} `json:"meta,omitempty"`
}
