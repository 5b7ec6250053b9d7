/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package media

import (
	"strings"

	"tplstudio/internal/domain"
)

// PreferredKind is the bucket folder searched for a reference type.
func PreferredKind(t domain.ReferenceType) domain.MediaKind {
	switch t {
	case domain.TypeMusique, domain.TypePodcast:
		return domain.MediaAudio
	case domain.TypeFilm, domain.TypeVideo, domain.TypePerformance, domain.TypeJeuVideo:
		return domain.MediaVideo
	}
	return domain.MediaImage
}

// ScoreMatch rates how well a file key matches a reference key. An exact
// match scores 100 and containment 40 or 20; otherwise each reference token
// found in the file adds 3 and each long token (4+ characters) partially
// contained either way adds 1.
func ScoreMatch(fileKey, refKey string) int {
	if fileKey == "" || refKey == "" {
		return 0
	}
	if fileKey == refKey {
		return 100
	}
	if strings.Contains(fileKey, refKey) {
		return 40
	}
	if strings.Contains(refKey, fileKey) {
		return 20
	}

	fileTokens := tokens(fileKey)
	have := make(map[string]bool, len(fileTokens))
	for _, t := range fileTokens {
		have[t] = true
	}
	hit := 0
	for _, t := range tokens(refKey) {
		if have[t] {
			hit += 3
			continue
		}
		if len(t) < 4 {
			continue
		}
		for _, ft := range fileTokens {
			if strings.Contains(ft, t) || strings.Contains(t, ft) {
				hit++
				break
			}
		}
	}
	return hit
}

func candidateKeys(r domain.Reference) []string {
	raw := []string{
		r.ID,
		r.Title,
		r.Title + " " + r.Creator,
		r.Creator + " " + r.Title,
	}
	out := raw[:0]
	for _, s := range raw {
		if k := Normalize(s); k != "" {
			out = append(out, k)
		}
	}
	return out
}

// GuessMedia picks the best bucket file for a reference among the files of
// its preferred kind. When nothing scores, the first file is used, so any
// non-empty folder yields media.
func GuessMedia(r domain.Reference, idx Index) (domain.Media, bool) {
	kind := PreferredKind(r.Type)
	files := idx.Files(kind)
	if len(files) == 0 {
		return nil, false
	}
	keys := candidateKeys(r)
	best, bestScore := 0, -1
	for i, f := range files {
		s := 0
		for _, k := range keys {
			s = max(s, ScoreMatch(f.Key, k))
		}
		if s > bestScore {
			best, bestScore = i, s
		}
	}
	chosen := files[0]
	if bestScore > 0 {
		chosen = files[best]
	}
	switch kind {
	case domain.MediaVideo:
		return domain.Video{Src: chosen.Path}, true
	case domain.MediaAudio:
		return domain.Audio{Src: chosen.Path, Title: r.Title}, true
	}
	return domain.Image{Src: chosen.Path, Alt: r.Title}, true
}

// Guesser fills missing reference media. Media already on the reference
// wins, then a curated override, then the guess from the index.
type Guesser struct {
	Index     Index
	Overrides Overrides
}

func (g Guesser) MediaFor(r domain.Reference) (domain.Media, bool) {
	if m, ok := r.PrimaryMedia(); ok {
		return m, true
	}
	if m, ok := g.Overrides[r.ID]; ok {
		return m, true
	}
	return GuessMedia(r, g.Index)
}
