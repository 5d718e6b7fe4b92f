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

// Rationalize fills in fields whose value depends on other fields, after
// defaults have been applied and user overrides decoded, but before the
// config is handed to the filesystem constructor.
func Rationalize(c *Config) error {
	// maxCacheSize defaults to maxSize (§6.1); round both down to a multiple
	// of blockSize so HeapDisk never holds a partial block.
	if c.MaxCacheSize == -1 {
		c.MaxCacheSize = c.MaxSize
	}

	c.MaxSize -= c.MaxSize % c.BlockSize
	c.MaxCacheSize -= c.MaxCacheSize % c.BlockSize

	if len(c.AttributeViews) == 0 {
		c.AttributeViews = []string{"basic"}
	}

	return nil
}
