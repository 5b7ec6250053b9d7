/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package media

import (
	"path"
	"sort"
	"strings"

	"tplstudio/internal/domain"
)

// File is one object of the bucket.
type File struct {
	Kind domain.MediaKind `json:"kind"`
	// Path is the object key, "<kind>/<name>".
	Path string `json:"path"`
	Name string `json:"name"`
	Key  string `json:"key"`
}

// NewFile derives the name and comparison key from an object path.
func NewFile(kind domain.MediaKind, objectPath string) File {
	name := path.Base(objectPath)
	return File{Kind: kind, Path: objectPath, Name: name, Key: Normalize(name)}
}

// Index groups bucket files by kind, each group sorted by name.
type Index struct {
	byKind map[domain.MediaKind][]File
}

func NewIndex(files []File) Index {
	idx := Index{byKind: map[domain.MediaKind][]File{}}
	for _, f := range files {
		if f.Key == "" {
			f.Key = Normalize(f.Name)
		}
		idx.byKind[f.Kind] = append(idx.byKind[f.Kind], f)
	}
	for _, fs := range idx.byKind {
		sort.SliceStable(fs, func(i, j int) bool { return fs[i].Name < fs[j].Name })
	}
	return idx
}

// Files returns the files of one kind. The slice must not be modified.
func (x Index) Files(kind domain.MediaKind) []File { return x.byKind[kind] }

func (x Index) Len() int {
	n := 0
	for _, fs := range x.byKind {
		n += len(fs)
	}
	return n
}

// All returns every file, grouped in MediaKinds order.
func (x Index) All() []File {
	out := make([]File, 0, x.Len())
	for _, k := range domain.MediaKinds {
		out = append(out, x.byKind[k]...)
	}
	return out
}

// KindForFolder maps a top-level bucket folder to its media kind.
func KindForFolder(p string) (domain.MediaKind, bool) {
	folder, _, ok := strings.Cut(p, "/")
	if !ok {
		return 0, false
	}
	k, err := domain.ParseMediaKind(folder)
	return k, err == nil
}
