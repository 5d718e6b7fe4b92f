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

import "github.com/gcsfuse-contrib/memfs/config"

// Syntax implements the parsing/joining rules for one path flavor (§6.3).
type Syntax interface {
	// Separators returns every byte this syntax accepts as a separator. The
	// first is canonical (used when re-joining).
	Separators() []byte

	// SplitRoot splits s into a root prefix (e.g. "/" or `C:\`) and the
	// remainder, if s is absolute under this syntax. ok is false for a
	// relative path.
	SplitRoot(s string) (root, rest string, ok bool)

	// ValidateElement reports a *errs.Error-compatible message if name is not
	// a legal path element under this syntax (illegal characters, trailing
	// spaces, reserved device names, etc). Returns nil if legal.
	ValidateElement(name string) error
}

// SyntaxFor returns the Syntax implementation selected by the config.
func SyntaxFor(c *config.Config) Syntax {
	if c.PathType == config.PathTypeWindows {
		return windowsSyntax{}
	}
	return unixSyntax{}
}
