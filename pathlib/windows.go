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

// windowsSyntax implements §6.3's "Windows" rules: canonical separator '\'
// (also accepts '/'), a drive-letter root `[A-Za-z]:\` or a UNC root
// `\\host\share`, a fixed set of disallowed reserved characters outside the
// drive root, and no trailing spaces before a separator or at the end.
type windowsSyntax struct{}

func (windowsSyntax) Separators() []byte { return []byte{'\\', '/'} }

func isDriveLetter(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}

func (windowsSyntax) SplitRoot(s string) (root, rest string, ok bool) {
	// Drive-letter root: "C:\" or "C:/".
	if len(s) >= 3 && isDriveLetter(s[0]) && s[1] == ':' && (s[2] == '\\' || s[2] == '/') {
		return s[:3], s[3:], true
	}

	// UNC root: "\\host\share" (also accepts '/').
	if len(s) >= 2 && (s[0] == '\\' || s[0] == '/') && (s[1] == '\\' || s[1] == '/') {
		rem := s[2:]
		sep := strings.IndexAny(rem, `\/`)
		if sep < 0 {
			// "\\host" with no share is not a complete root.
			return "", s, false
		}
		host := rem[:sep]
		rem = rem[sep+1:]
		sep2 := strings.IndexAny(rem, `\/`)
		share := rem
		after := ""
		if sep2 >= 0 {
			share = rem[:sep2]
			after = rem[sep2+1:]
		}
		if host == "" || share == "" {
			return "", s, false
		}
		return `\\` + host + `\` + share + `\`, after, true
	}

	// Two legacy forms are explicitly rejected rather than treated as
	// relative: "C:foo" (drive + relative) and "\foo" (absolute without a
	// drive). Both look like a root prefix but aren't one under this syntax;
	// SplitRoot reports them as not-absolute, Parser.Parse rejects a relative
	// path that begins with a separator, and ValidateElement rejects the
	// stray ':' in the first element.
	return "", s, false
}

const reservedChars = `<>:"|?*`

func (windowsSyntax) ValidateElement(name string) error {
	if name == "" {
		return nil
	}
	if strings.ContainsAny(name, reservedChars) {
		return errs.New("parse", errs.PathSyntaxInvalid, name)
	}
	if strings.ContainsRune(name, 0) {
		return errs.New("parse", errs.PathSyntaxInvalid, name)
	}
	last := name[len(name)-1]
	if last == ' ' {
		return errs.New("parse", errs.PathSyntaxInvalid, name)
	}
	// Reject the legacy "C:foo" form: a bare element never contains a drive
	// colon once root parsing has already run.
	if strings.ContainsRune(name, ':') {
		return errs.New("parse", errs.PathSyntaxInvalid, name)
	}
	return nil
}
