// Copyright 2015 Google Inc. All Rights Reserved.
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

package pathlib

import (
	"hash/fnv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/gcsfuse-contrib/memfs/config"
)

// Name is a single path element. It carries both a display form (used for
// stringification and, if configured, for equality) and a canonical form
// (always used for directory-entry lookup). Two Names are equal iff their
// canonical forms are equal.
type Name struct {
	display   string
	canonical string
}

// Reserved singleton names; directory lookup treats these specially and
// user-facing link/unlink operations always refuse them (§3 invariant 4).
var (
	Self   = Name{display: ".", canonical: "."}
	Parent = Name{display: "..", canonical: ".."}
)

// Normalizer applies a Config's display/canonical normalization pipelines to
// raw path-element strings.
type Normalizer struct {
	display   config.Normalization
	canonical config.Normalization
}

func NewNormalizer(c *config.Config) Normalizer {
	return Normalizer{display: c.NameDisplayNormalization, canonical: c.NameCanonicalNormalization}
}

// NewName builds a Name from raw input, applying the normalizer's display
// and canonical pipelines. "." and ".." always map to the reserved
// singletons regardless of normalization, so lookups for them never need to
// normalize at all.
func (nz Normalizer) NewName(raw string) Name {
	switch raw {
	case ".":
		return Self
	case "..":
		return Parent
	}
	return Name{
		display:   apply(nz.display, raw),
		canonical: apply(nz.canonical, raw),
	}
}

func apply(n config.Normalization, s string) string {
	switch {
	case n&config.NFC != 0:
		s = norm.NFC.String(s)
	case n&config.NFD != 0:
		s = norm.NFD.String(s)
	}

	switch {
	case n&config.CaseFoldUnicode != 0:
		s = cases.Fold(cases.Compact).String(s)
	case n&config.CaseFoldASCII != 0:
		s = foldASCII(s)
	}

	return s
}

func foldASCII(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= 'A' && r <= 'Z' {
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

// String returns the display form.
func (n Name) String() string { return n.display }

// Canonical returns the canonical (lookup-equality) form.
func (n Name) Canonical() string { return n.canonical }

// Equal compares canonical forms, per §3: "Equality uses the canonical form".
func (n Name) Equal(other Name) bool { return n.canonical == other.canonical }

// Hash returns a hash of the canonical form, used by Directory's bucket
// table.
func (n Name) Hash() uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(n.canonical))
	return h.Sum32()
}

// IsSelf / IsParent identify the two reserved names.
func (n Name) IsSelf() bool   { return n.canonical == Self.canonical }
func (n Name) IsParent() bool { return n.canonical == Parent.canonical }
func (n Name) IsReserved() bool {
	return n.IsSelf() || n.IsParent()
}

// ByDisplay and ByCanonical provide the two orderings named in §3.
func ByDisplay(a, b Name) bool   { return a.display < b.display }
func ByCanonical(a, b Name) bool { return a.canonical < b.canonical }
