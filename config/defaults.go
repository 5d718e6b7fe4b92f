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

package config

import "time"

const (
	DefaultBlockSize = 8192
	DefaultMaxSize   = 4 << 30 // 4 GiB
)

// Default returns the configuration used when the caller hasn't parsed or
// overridden anything yet: a single Unix root, no name normalization, an
// 8 KiB block size, and a 4 GiB quota with a free-block cache that
// Rationalize sizes to match the quota.
func Default() *Config {
	return &Config{
		PathType:                   PathTypeUnix,
		NameDisplayNormalization:   None,
		NameCanonicalNormalization: None,
		PathEqualityUsesCanonical:  true,
		BlockSize:                  DefaultBlockSize,
		MaxSize:                    DefaultMaxSize,
		MaxCacheSize:               -1,
		AttributeViews:             []string{"basic"},
		SupportedFeatures:          FeatureLinks | FeatureSymbolicLinks | FeatureFileChannel,
		WatchPollInterval:          5 * time.Second,
		Roots:                      []string{"/"},
		WorkingDirectory:           "/",
	}
}
