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
	"strings"

	"github.com/gcsfuse-contrib/memfs/errs"
)

// Path is a parsed, structured path: an optional root and a sequence of
// Names. It does not resolve symlinks or check existence; FileTree (§4.D)
// does that.
type Path struct {
	root       string // "" for a relative path
	absolute   bool
	names      []Name
	useCanon   bool // String renders canonical rather than display forms, per config
	syntax     Syntax
}

// Parser builds Paths from raw strings under one Syntax/Normalizer pair.
type Parser struct {
	syntax   Syntax
	norm     Normalizer
	useCanon bool
}

func NewParser(syntax Syntax, norm Normalizer, pathEqualityUsesCanonical bool) Parser {
	return Parser{syntax: syntax, norm: norm, useCanon: pathEqualityUsesCanonical}
}

// Parse splits raw into a root (if absolute) and a sequence of Names,
// validating each element against the syntax.
func (p Parser) Parse(raw string) (Path, error) {
	root, rest, absolute := p.syntax.SplitRoot(raw)

	var elems []string
	start := 0
	isSep := func(b byte) bool {
		for _, s := range p.syntax.Separators() {
			if b == s {
				return true
			}
		}
		return false
	}
	if !absolute && rest != "" && isSep(rest[0]) {
		return Path{}, errs.New("parse", errs.PathSyntaxInvalid, raw)
	}
	for i := 0; i < len(rest); i++ {
		if isSep(rest[i]) {
			if i > start {
				elems = append(elems, rest[start:i])
			}
			start = i + 1
		}
	}
	if start < len(rest) {
		elems = append(elems, rest[start:])
	}

	names := make([]Name, 0, len(elems))
	for _, e := range elems {
		if err := p.syntax.ValidateElement(e); err != nil {
			return Path{}, err
		}
		names = append(names, p.norm.NewName(e))
	}

	return Path{
		root:     root,
		absolute: absolute,
		names:    names,
		useCanon: p.useCanon,
		syntax:   p.syntax,
	}, nil
}

// IsAbsolute reports whether the path has a root.
func (pth Path) IsAbsolute() bool { return pth.absolute }

// Root returns the root prefix, or "" for a relative path.
func (pth Path) Root() string { return pth.root }

// Names returns the path's element sequence. Per §4.D step 2, callers that
// need "the empty relative path" should special-case len(Names())==0
// themselves by substituting [Self] — FileTree's lookup does this, not
// Path itself, so that an un-resolved empty relative Path still prints as
// "".
func (pth Path) Names() []Name { return append([]Name(nil), pth.names...) }

func (pth Path) elementString(n Name) string {
	if pth.useCanon {
		return n.Canonical()
	}
	return n.String()
}

// String renders the path using the first (canonical) separator of its
// syntax.
func (pth Path) String() string {
	sep := string(pth.syntax.Separators()[0])
	var b strings.Builder
	b.WriteString(pth.root)
	for i, n := range pth.names {
		if i > 0 || pth.root == "" {
			if i > 0 {
				b.WriteString(sep)
			}
		}
		b.WriteString(pth.elementString(n))
	}
	return b.String()
}

// Join appends other's elements to pth, which must be used as a "working
// directory" (absolute or relative) being extended by a relative path. If
// other is itself absolute, Join returns other unchanged (per the usual
// path-joining convention).
func (pth Path) Join(other Path) Path {
	if other.absolute {
		return other
	}
	out := pth
	out.names = append(append([]Name(nil), pth.names...), other.names...)
	return out
}

// Normalize removes "." components and resolves ".." components against any
// preceding non-".." component, per §8 P3: normalize never leaves "."
// components, and never leaves ".." after a non-".." component.
func (pth Path) Normalize() Path {
	out := make([]Name, 0, len(pth.names))
	for _, n := range pth.names {
		switch {
		case n.IsSelf():
			continue
		case n.IsParent():
			if len(out) > 0 && !out[len(out)-1].IsParent() {
				out = out[:len(out)-1]
				continue
			}
			if pth.absolute {
				// ".." above the root is absorbed, matching a real root's
				// self-referential PARENT entry (§3 invariant 2).
				continue
			}
			out = append(out, n)
		default:
			out = append(out, n)
		}
	}
	result := pth
	result.names = out
	return result
}

// Relativize returns the relative path r such that pth.Join(r), normalized,
// equals other (§8 P4). Both paths must share the same absoluteness and
// root.
func (pth Path) Relativize(other Path) (Path, error) {
	if pth.absolute != other.absolute || pth.root != other.root {
		return Path{}, errs.New("relativize", errs.InvalidArgument, other.String())
	}

	a := pth.Normalize().names
	b := other.Normalize().names

	i := 0
	for i < len(a) && i < len(b) && a[i].Equal(b[i]) {
		i++
	}

	var out []Name
	for j := i; j < len(a); j++ {
		out = append(out, Parent)
	}
	out = append(out, b[i:]...)

	return Path{
		names:    out,
		useCanon: pth.useCanon,
		syntax:   pth.syntax,
	}, nil
}
