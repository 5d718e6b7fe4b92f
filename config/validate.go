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

import "fmt"

func errNormalizationConflict(what string) error {
	return fmt.Errorf("name normalization: %s are mutually exclusive", what)
}

// Validate checks range and conflict constraints from the configuration
// schema. It does not mutate c; see Rationalize for derived defaults.
func Validate(c *Config) error {
	if c.BlockSize <= 0 {
		return fmt.Errorf("blockSize must be positive, got %d", c.BlockSize)
	}
	if c.MaxSize <= 0 {
		return fmt.Errorf("maxSize must be positive, got %d", c.MaxSize)
	}
	if c.MaxCacheSize < -1 {
		return fmt.Errorf("maxCacheSize must be >= -1 (or 0 to disable), got %d", c.MaxCacheSize)
	}
	if err := c.NameDisplayNormalization.Validate(); err != nil {
		return fmt.Errorf("nameDisplayNormalization: %w", err)
	}
	if err := c.NameCanonicalNormalization.Validate(); err != nil {
		return fmt.Errorf("nameCanonicalNormalization: %w", err)
	}
	if len(c.Roots) == 0 {
		return fmt.Errorf("at least one root is required")
	}
	if c.WorkingDirectory == "" {
		return fmt.Errorf("workingDirectory must be set")
	}
	if c.WatchPollInterval <= 0 {
		return fmt.Errorf("watchPollInterval must be positive, got %v", c.WatchPollInterval)
	}
	return nil
}
