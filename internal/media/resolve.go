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
	"sync"
)

// DefaultBucket is the public bucket holding the archive media.
const DefaultBucket = "tpl-web"

// Resolver turns storage paths into public object URLs. It is safe for
// concurrent use.
type Resolver struct {
	base   string
	bucket string

	mu    sync.RWMutex
	cache map[string]string
}

// NewResolver builds a resolver for a storage base URL such as
// "https://xyz.supabase.co". An empty bucket means DefaultBucket.
func NewResolver(baseURL, bucket string) *Resolver {
	if bucket == "" {
		bucket = DefaultBucket
	}
	return &Resolver{
		base:   strings.TrimRight(baseURL, "/"),
		bucket: bucket,
		cache:  map[string]string{},
	}
}

// IsAbsolute reports http(s) and data URLs.
func IsAbsolute(s string) bool {
	l := strings.ToLower(s)
	return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://") || strings.HasPrefix(l, "data:")
}

// ResolveURL returns an absolute URL unchanged and "" for an empty path.
// A bare file name is first placed in the folder its extension implies.
// Without a base URL nothing relative can be resolved and "" is returned.
func (r *Resolver) ResolveURL(p string) string {
	if p == "" {
		return ""
	}
	if IsAbsolute(p) {
		return p
	}
	r.mu.RLock()
	u, ok := r.cache[p]
	r.mu.RUnlock()
	if ok {
		return u
	}
	if r.base == "" {
		return ""
	}
	clean := InferFolder(strings.TrimLeft(p, "/"))
	u = r.base + "/storage/v1/object/public/" + r.bucket + "/" + encodePath(clean)
	r.mu.Lock()
	r.cache[p] = u
	r.mu.Unlock()
	return u
}

// InferFolder prefixes a bare file name with audio/, video/ or image/ based
// on its extension. Paths that already contain a folder are kept.
func InferFolder(p string) string {
	if strings.Contains(p, "/") {
		return p
	}
	l := strings.ToLower(p)
	i := strings.LastIndexByte(l, '.')
	if i < 0 {
		return p
	}
	switch l[i+1:] {
	case "mp3", "m4a", "wav", "ogg", "aac":
		return "audio/" + p
	case "mp4", "webm", "mov", "m4v":
		return "video/" + p
	case "png", "jpg", "jpeg", "webp", "gif", "svg":
		return "image/" + p
	}
	return p
}

func encodePath(p string) string {
	parts := strings.Split(p, "/")
	for i, s := range parts {
		parts[i] = escapeComponent(s)
	}
	return strings.Join(parts, "/")
}

const upperhex = "0123456789ABCDEF"

// escapeComponent percent-encodes everything except letters, digits and
// -_.!~*'(), the set browsers leave alone in a URI component. url.PathEscape
// uses a different set.
func escapeComponent(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if componentSafe(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&15])
	}
	return b.String()
}

func componentSafe(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte("-_.!~*'()", c) >= 0
}
