// Copyright 2024 Google Inc. All Rights Reserved.
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

// Package config holds the enumerated options that govern how a FileSystem
// is built: path syntax, name normalization, block/quota sizing, attribute
// views and their defaults, the watch service's poll interval, the root set,
// the working directory, and the feature set.
package config

import "time"

// PathType selects the path syntax (separator, root parsing) a FileSystem
// uses for every path it parses.
type PathType int

const (
	PathTypeUnix PathType = iota
	PathTypeWindows
)

func (t PathType) String() string {
	if t == PathTypeWindows {
		return "windows"
	}
	return "unix"
}

// Normalization is a bitmask over the name normalization steps applied to
// produce a Name's display or canonical form. At most one of NFC/NFD and at
// most one of the two case-fold variants may be set; None clears all of
// them.
type Normalization uint8

const (
	None Normalization = 0

	NFC Normalization = 1 << iota
	NFD
	CaseFoldASCII
	CaseFoldUnicode
)

// Validate enforces "at most one of NFC/NFD; at most one of CASE_FOLD_*".
func (n Normalization) Validate() error {
	if n&NFC != 0 && n&NFD != 0 {
		return errNormalizationConflict("NFC and NFD")
	}
	if n&CaseFoldASCII != 0 && n&CaseFoldUnicode != 0 {
		return errNormalizationConflict("CASE_FOLD_ASCII and CASE_FOLD_UNICODE")
	}
	return nil
}

// Feature is a bitmask of optional capabilities a FileSystem may expose.
type Feature uint8

const (
	FeatureLinks Feature = 1 << iota
	FeatureSymbolicLinks
	FeatureSecureDirectoryStream
	FeatureFileChannel
)

func (f Feature) Has(want Feature) bool { return f&want == want }

// AttributeDefault is a single `{view:attr -> value}` default applied at
// file-creation time, validated by the owning provider before use.
type AttributeDefault struct {
	View      string
	Attribute string
	Value     interface{}
}

// Config is the full set of options a FileSystem is constructed from. The
// zero value is not valid; use Default() and then set fields directly,
// followed by Validate and Rationalize, or Decode a user-supplied overlay
// (which runs both).
type Config struct {
	PathType PathType

	NameDisplayNormalization   Normalization
	NameCanonicalNormalization Normalization
	PathEqualityUsesCanonical  bool

	BlockSize    int64
	MaxSize      int64
	MaxCacheSize int64 // -1 means "default to MaxSize"; 0 disables the cache

	AttributeViews       []string
	AttributeDefaultVals []AttributeDefault
	SupportedFeatures    Feature

	WatchPollInterval time.Duration

	Roots            []string
	WorkingDirectory string
}
