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

// unixSyntax implements §6.3's "Unix" rules: separator '/', absolute iff the
// path starts with '/', NUL disallowed, the splitter omits empty components.
type unixSyntax struct{}

func (unixSyntax) Separators() []byte { return []byte{'/'} }

func (unixSyntax) SplitRoot(s string) (root, rest string, ok bool) {
	if !strings.HasPrefix(s, "/") {
		return "", s, false
	}
	return "/", strings.TrimPrefix(s, "/"), true
}

func (unixSyntax) ValidateElement(name string) error {
	if strings.ContainsRune(name, 0) {
		return errs.New("parse", errs.PathSyntaxInvalid, name)
	}
	return nil
}
