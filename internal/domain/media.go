/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// MediaKind is the closed set of media a reference can carry.
type MediaKind int

const (
	MediaImage MediaKind = iota + 1
	MediaVideo
	MediaAudio
)

var MediaKinds = []MediaKind{MediaImage, MediaVideo, MediaAudio}

func (k MediaKind) String() string {
	switch k {
	case MediaImage:
		return "image"
	case MediaVideo:
		return "video"
	case MediaAudio:
		return "audio"
	}
	return fmt.Sprintf("MediaKind(%d)", int(k))
}

// ParseMediaKind maps the wire name to a kind.
func ParseMediaKind(s string) (MediaKind, error) {
	switch s {
	case "image":
		return MediaImage, nil
	case "video":
		return MediaVideo, nil
	case "audio":
		return MediaAudio, nil
	}
	return 0, fmt.Errorf("unknown media kind %q", s)
}

func (k MediaKind) MarshalText() ([]byte, error) {
	switch k {
	case MediaImage, MediaVideo, MediaAudio:
		return []byte(k.String()), nil
	}
	return nil, fmt.Errorf("invalid media kind %d", int(k))
}

func (k *MediaKind) UnmarshalText(b []byte) error {
	v, err := ParseMediaKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// Media is implemented by Image, Video and Audio only.
type Media interface {
	Kind() MediaKind
	Source() string
	sealed()
}

type Image struct {
	Src string
	Alt string
}

type Video struct {
	Src    string
	Poster string
}

type Audio struct {
	Src   string
	Title string
}

func (Image) Kind() MediaKind { return MediaImage }
func (Video) Kind() MediaKind { return MediaVideo }
func (Audio) Kind() MediaKind { return MediaAudio }

func (m Image) Source() string { return m.Src }
func (m Video) Source() string { return m.Src }
func (m Audio) Source() string { return m.Src }

func (Image) sealed() {}
func (Video) sealed() {}
func (Audio) sealed() {}

// MediaRef carries a Media through JSON as {"kind":"image","src":...,"alt":...}.
type MediaRef struct {
	Media
}

func Ref(m Media) *MediaRef { return &MediaRef{Media: m} }

type mediaWire struct {
	Kind   MediaKind `json:"kind"`
	Src    string    `json:"src"`
	Alt    string    `json:"alt,omitempty"`
	Poster string    `json:"poster,omitempty"`
	Title  string    `json:"title,omitempty"`
}

var errNoMedia = errors.New("media: empty reference")

func (r MediaRef) MarshalJSON() ([]byte, error) {
	var w mediaWire
	switch m := r.Media.(type) {
	case Image:
		w = mediaWire{Kind: MediaImage, Src: m.Src, Alt: m.Alt}
	case Video:
		w = mediaWire{Kind: MediaVideo, Src: m.Src, Poster: m.Poster}
	case Audio:
		w = mediaWire{Kind: MediaAudio, Src: m.Src, Title: m.Title}
	case nil:
		return nil, errNoMedia
	}
	return json.Marshal(w)
}

func (r *MediaRef) UnmarshalJSON(b []byte) error {
	var w mediaWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	switch w.Kind {
	case MediaImage:
		r.Media = Image{Src: w.Src, Alt: w.Alt}
	case MediaVideo:
		r.Media = Video{Src: w.Src, Poster: w.Poster}
	case MediaAudio:
		r.Media = Audio{Src: w.Src, Title: w.Title}
	default:
		return errNoMedia
	}
	return nil
}
