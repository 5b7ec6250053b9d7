/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Catalog is the immutable, ordered set of references for a session.
type Catalog struct {
	refs   []Reference
	byID   map[string]int
	byNorm map[string]int
}

// NewCatalog indexes refs. When ids repeat, the first record wins.
func NewCatalog(refs []Reference) *Catalog {
	c := &Catalog{
		refs:   make([]Reference, 0, len(refs)),
		byID:   make(map[string]int, len(refs)),
		byNorm: make(map[string]int, len(refs)),
	}
	for _, r := range refs {
		if r.ID == "" {
			continue
		}
		if _, dup := c.byID[r.ID]; dup {
			continue
		}
		c.byID[r.ID] = len(c.refs)
		if n := NormalizeID(r.ID); n != "" {
			if _, ok := c.byNorm[n]; !ok {
				c.byNorm[n] = len(c.refs)
			}
		}
		c.refs = append(c.refs, r)
	}
	return c
}

func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.refs)
}

// All returns a copy of the references in catalog order.
func (c *Catalog) All() []Reference {
	if c == nil {
		return nil
	}
	return append([]Reference(nil), c.refs...)
}

// ByID is an exact lookup.
func (c *Catalog) ByID(id string) (Reference, bool) {
	if c == nil {
		return Reference{}, false
	}
	i, ok := c.byID[id]
	if !ok {
		return Reference{}, false
	}
	return c.refs[i], true
}

// Lookup resolves ids coming from URLs: it percent-decodes id, tries an exact
// match and then falls back to the normalized slug form.
func (c *Catalog) Lookup(id string) (Reference, bool) {
	if dec, err := url.PathUnescape(id); err == nil {
		id = dec
	}
	if r, ok := c.ByID(id); ok {
		return r, true
	}
	if c == nil {
		return Reference{}, false
	}
	i, ok := c.byNorm[NormalizeID(id)]
	if !ok {
		return Reference{}, false
	}
	return c.refs[i], true
}

// WithMedia returns a new catalog where refs lacking media get the value of
// fill. References that already carry media are kept as they are.
func (c *Catalog) WithMedia(fill func(Reference) (Media, bool)) *Catalog {
	out := make([]Reference, 0, c.Len())
	for _, r := range c.All() {
		if _, has := r.PrimaryMedia(); !has {
			if m, ok := fill(r); ok {
				r.Media = Ref(m)
			}
		}
		out = append(out, r)
	}
	return NewCatalog(out)
}

var (
	quoteRe  = regexp.MustCompile(`['’]`)
	nonSlug  = regexp.MustCompile(`[^a-z0-9-]`)
	dashRuns = regexp.MustCompile(`-+`)
)

// NormalizeID turns an id into its ascii slug form: accents stripped,
// quotes and other punctuation replaced by single dashes.
func NormalizeID(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = StripMarks(norm.NFKD, s)
	s = quoteRe.ReplaceAllString(s, "-")
	s = nonSlug.ReplaceAllString(s, "-")
	s = dashRuns.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// StripMarks decomposes s with form and drops combining marks.
func StripMarks(form norm.Form, s string) string {
	t := transform.Chain(form, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
