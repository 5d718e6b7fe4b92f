// Copyright 2025 Google LLC
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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileGlob_Matches(t *testing.T) {
	cases := []struct {
		pattern string
		input   string
		want    bool
	}{
		{"*.go", "main.go", true},
		{"*.go", "main.c", false},
		{"*.go", "a/main.go", false}, // "*" never crosses a separator
		{"**.go", "a/b/main.go", true},
		{"file?.txt", "file1.txt", true},
		{"file?.txt", "file12.txt", false},
		{"[abc].txt", "a.txt", true},
		{"[abc].txt", "d.txt", false},
		{"[!abc].txt", "d.txt", true},
		{"{foo,bar}.txt", "foo.txt", true},
		{"{foo,bar}.txt", "bar.txt", true},
		{"{foo,bar}.txt", "baz.txt", false},
		{`\*.txt`, "*.txt", true},
		{`\*.txt`, "a.txt", false},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.pattern+"/"+tc.input, func(t *testing.T) {
			g, err := CompileGlob(tc.pattern, unixSyntax{})
			require.NoError(t, err)
			assert.Equal(t, tc.want, g.MatchString(tc.input))
		})
	}
}

func TestCompileGlob_UnterminatedClassFails(t *testing.T) {
	_, err := CompileGlob("[abc", unixSyntax{})
	assert.Error(t, err)
}

func TestCompileGlob_UnbalancedBraceFails(t *testing.T) {
	_, err := CompileGlob("{foo,bar", unixSyntax{})
	assert.Error(t, err)

	_, err = CompileGlob("foo}", unixSyntax{})
	assert.Error(t, err)
}

func TestCompileGlob_StringReturnsOriginal(t *testing.T) {
	g, err := CompileGlob("*.go", unixSyntax{})
	require.NoError(t, err)
	assert.Equal(t, "*.go", g.String())
}
