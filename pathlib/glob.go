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
	"regexp"
	"strings"

	"github.com/gcsfuse-contrib/memfs/errs"
)

// Glob is a compiled §6.5 glob pattern, matched element-by-element against a
// single path element unless the pattern contains "**", which may span
// separators.
type Glob struct {
	re  *regexp.Regexp
	src string
}

// CompileGlob translates pattern into a Glob under the given Syntax's
// separator set. Supported constructs: "?" (one non-separator char), "*"
// (zero or more non-separator chars), "**" (zero or more chars, including
// separators), "[...]" (character class, "!" or "^" negates, "-" ranges),
// "{a,b,c}" (alternation of sub-globs), and "\" to escape the following
// character literally.
func CompileGlob(pattern string, syn Syntax) (Glob, error) {
	var b strings.Builder
	b.WriteString("^")

	seps := syn.Separators()
	nonSepClass := "[^" + regexp.QuoteMeta(string(seps)) + "]"

	runes := []rune(pattern)
	i := 0
	braceDepth := 0

	for i < len(runes) {
		c := runes[i]
		switch c {
		case '\\':
			if i+1 >= len(runes) {
				return Glob{}, errs.New("compile", errs.PathSyntaxInvalid, pattern)
			}
			b.WriteString(regexp.QuoteMeta(string(runes[i+1])))
			i += 2

		case '*':
			if i+1 < len(runes) && runes[i+1] == '*' {
				b.WriteString(".*")
				i += 2
			} else {
				b.WriteString(nonSepClass + "*")
				i++
			}

		case '?':
			b.WriteString(nonSepClass)
			i++

		case '[':
			j := i + 1
			neg := false
			if j < len(runes) && (runes[j] == '!' || runes[j] == '^') {
				neg = true
				j++
			}
			start := j
			for j < len(runes) && runes[j] != ']' {
				j++
			}
			if j >= len(runes) {
				return Glob{}, errs.New("compile", errs.PathSyntaxInvalid, pattern)
			}
			class := string(runes[start:j])
			b.WriteString("[")
			if neg {
				b.WriteString("^")
			}
			b.WriteString(escapeClassBody(class))
			b.WriteString("]")
			i = j + 1

		case '{':
			b.WriteString("(?:")
			braceDepth++
			i++

		case '}':
			if braceDepth == 0 {
				return Glob{}, errs.New("compile", errs.PathSyntaxInvalid, pattern)
			}
			b.WriteString(")")
			braceDepth--
			i++

		case ',':
			if braceDepth > 0 {
				b.WriteString("|")
			} else {
				b.WriteString(",")
			}
			i++

		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
			i++
		}
	}

	if braceDepth != 0 {
		return Glob{}, errs.New("compile", errs.PathSyntaxInvalid, pattern)
	}

	b.WriteString("$")
	re, err := regexp.Compile(b.String())
	if err != nil {
		return Glob{}, errs.Wrap("compile", errs.PathSyntaxInvalid, pattern, err)
	}
	return Glob{re: re, src: pattern}, nil
}

// escapeClassBody quotes regexp metacharacters inside a [...] body while
// preserving "-" range syntax.
func escapeClassBody(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r == '\\' || r == ']' {
			b.WriteString(`\`)
		}
		b.WriteRune(r)
	}
	return b.String()
}

// MatchName reports whether n's display form matches the compiled glob.
func (g Glob) MatchName(n Name) bool { return g.re.MatchString(n.String()) }

// MatchString reports whether s matches the compiled glob.
func (g Glob) MatchString(s string) bool { return g.re.MatchString(s) }

// String returns the original, uncompiled pattern.
func (g Glob) String() string { return g.src }
