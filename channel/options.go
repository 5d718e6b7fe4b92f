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

package channel

import "github.com/gcsfuse-contrib/memfs/errs"

// OpenOption is one flag of the enumerated open-option set of §6.4.
type OpenOption uint16

const (
	Read OpenOption = 1 << iota
	Write
	Append
	Create
	CreateNew
	TruncateExisting
	Sparse
	DSync
	Sync
	NoFollowLinks
)

// OpenOptions is a bitmask of OpenOption values.
type OpenOptions uint16

func (o OpenOptions) Has(opt OpenOption) bool { return OpenOptions(opt)&o == OpenOptions(opt) }

// Validate rejects the structurally incompatible combination named in
// §6.4: READ+APPEND.
func (o OpenOptions) Validate() error {
	if o.Has(Read) && o.Has(Append) {
		return errs.New("open", errs.UnsupportedOption, "READ+APPEND")
	}
	return nil
}

func NewOpenOptions(opts ...OpenOption) OpenOptions {
	var o OpenOptions
	for _, opt := range opts {
		o |= OpenOptions(opt)
	}
	return o
}
