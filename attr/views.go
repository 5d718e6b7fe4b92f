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

package attr

import (
	"fmt"
	"strings"
	"time"

	"github.com/gcsfuse-contrib/memfs/errs"
	"github.com/gcsfuse-contrib/memfs/inode"
)

// UserPrincipal and GroupPrincipal are stored by name only (§6.2: "owner
// UserPrincipal ... stored by name"); there is no real OS identity backing
// them since permission bits are recorded, not enforced (Non-goal: access
// control).
type UserPrincipal string
type GroupPrincipal string

// Permission is one of the 9 POSIX file permission bits.
type Permission int

const (
	OwnerRead Permission = iota
	OwnerWrite
	OwnerExecute
	GroupRead
	GroupWrite
	GroupExecute
	OthersRead
	OthersWrite
	OthersExecute
)

var permChars = "rwxrwxrwx"

// PermissionSet is the set of 9 POSIX permission bits, stored as a bitmask.
type PermissionSet uint16

func (p PermissionSet) Has(perm Permission) bool { return p&(1<<uint(perm)) != 0 }

func (p PermissionSet) with(perm Permission) PermissionSet { return p | (1 << uint(perm)) }

// String renders the standard "rwxrw-r--" form.
func (p PermissionSet) String() string {
	var b strings.Builder
	for i := 0; i < 9; i++ {
		if p.Has(Permission(i)) {
			b.WriteByte(permChars[i])
		} else {
			b.WriteByte('-')
		}
	}
	return b.String()
}

// ParsePermissions accepts either the "rwxrw-r--" string form or a
// pre-built PermissionSet.
func ParsePermissions(v interface{}) (PermissionSet, error) {
	switch t := v.(type) {
	case PermissionSet:
		return t, nil
	case string:
		if len(t) != 9 {
			return 0, errs.New("permissions", errs.AttributeInvalidType, t)
		}
		var p PermissionSet
		for i := 0; i < 9; i++ {
			switch t[i] {
			case permChars[i]:
				p = p.with(Permission(i))
			case '-':
			default:
				return 0, errs.New("permissions", errs.AttributeInvalidType, t)
			}
		}
		return p, nil
	default:
		return 0, errs.New("permissions", errs.AttributeInvalidType, fmt.Sprintf("%v", v))
	}
}

// Mode maps a PermissionSet onto the standard owner/group/other octal
// triplet (§6.2: "unix:mode maps POSIX permissions to the standard octal
// triplet").
func (p PermissionSet) Mode() uint32 {
	var m uint32
	if p.Has(OwnerRead) {
		m |= 0o400
	}
	if p.Has(OwnerWrite) {
		m |= 0o200
	}
	if p.Has(OwnerExecute) {
		m |= 0o100
	}
	if p.Has(GroupRead) {
		m |= 0o040
	}
	if p.Has(GroupWrite) {
		m |= 0o020
	}
	if p.Has(GroupExecute) {
		m |= 0o010
	}
	if p.Has(OthersRead) {
		m |= 0o004
	}
	if p.Has(OthersWrite) {
		m |= 0o002
	}
	if p.Has(OthersExecute) {
		m |= 0o001
	}
	return m
}

// ACLEntryType distinguishes allow/deny ACL entries.
type ACLEntryType int

const (
	ACLAllow ACLEntryType = iota
	ACLDeny
)

// ACLEntry is one entry of a posix-style ACL (§6.2).
type ACLEntry struct {
	Type        ACLEntryType
	Principal   string
	Permissions []string
	Flags       []string
}

// sizer lets views read the size attribute, which only some inode kinds
// expose, without a type switch at every call site.
type sizer interface{ Size() int64 }

// setTableAttr and getTableAttr are where each view that needs
// writable-but-not-dedicated state (owner, group, permissions, dos bits, acl) actually persists its
// values: the inode's generic attribute table (§3's per-inode nested
// map), keyed by this view's own name.
func setTableAttr(f inode.File, view, attr string, value interface{}) {
	f.Attributes().Set(view, attr, value)
}

func getTableAttr(f inode.File, view, attr string) (interface{}, bool) {
	return f.Attributes().Get(view, attr)
}

// BasicProvider implements the "basic" view (§6.2): size, fileKey,
// isDirectory/isRegularFile/isSymbolicLink/isOther, and the three
// dedicated timestamp fields.
type BasicProvider struct{}

func (BasicProvider) Name() string     { return "basic" }
func (BasicProvider) Inherits() []string { return nil }

func (BasicProvider) FixedAttributes() map[string]bool {
	return map[string]bool{
		"size": true, "fileKey": true,
		"isDirectory": true, "isRegularFile": true, "isSymbolicLink": true, "isOther": true,
		"creationTime": true, "lastAccessTime": true, "lastModifiedTime": true,
	}
}

func (p BasicProvider) DefaultValues(userDefaults map[string]interface{}) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(userDefaults))
	for k, v := range userDefaults {
		if k != "creationTime" && k != "lastAccessTime" && k != "lastModifiedTime" {
			return nil, errs.New("attributes", errs.AttributeNotCreatable, "basic:"+k)
		}
		out[k] = v
	}
	return out, nil
}

func (BasicProvider) Get(f inode.File, attr string) (interface{}, bool) {
	switch attr {
	case "size":
		if s, ok := f.(sizer); ok {
			return s.Size(), true
		}
		return int64(0), true
	case "fileKey":
		return f.ID(), true
	case "isDirectory":
		return f.IsDirectory(), true
	case "isRegularFile":
		return f.IsRegularFile(), true
	case "isSymbolicLink":
		return f.IsSymbolicLink(), true
	case "isOther":
		return false, true
	case "creationTime":
		return f.CreationTime(), true
	case "lastAccessTime":
		return f.LastAccessTime(), true
	case "lastModifiedTime":
		return f.LastModifiedTime(), true
	}
	return nil, false
}

func (BasicProvider) Set(f inode.File, attr string, value interface{}, creating bool) error {
	t, ok := value.(time.Time)
	if !ok {
		return errs.New("attributes", errs.AttributeInvalidType, "basic:"+attr)
	}
	switch attr {
	case "creationTime":
		f.SetCreationTime(t)
	case "lastAccessTime":
		f.SetLastAccessTime(t)
	case "lastModifiedTime":
		f.SetLastModifiedTime(t)
	case "size", "fileKey", "isDirectory", "isRegularFile", "isSymbolicLink", "isOther":
		return errs.New("attributes", errs.AttributeUnsettable, "basic:"+attr)
	default:
		return errs.New("attributes", errs.AttributeUnsupported, "basic:"+attr)
	}
	return nil
}

func (p BasicProvider) Supports(attr string) bool { return p.FixedAttributes()[attr] }

func (p BasicProvider) ReadAll(f inode.File) map[string]interface{} {
	out := make(map[string]interface{})
	for attr := range p.FixedAttributes() {
		if v, ok := p.Get(f, attr); ok {
			out[attr] = v
		}
	}
	return out
}

// OwnerProvider implements the "owner" view (§6.2).
type OwnerProvider struct{}

func (OwnerProvider) Name() string       { return "owner" }
func (OwnerProvider) Inherits() []string { return nil }

func (OwnerProvider) FixedAttributes() map[string]bool { return map[string]bool{"owner": true} }

func (p OwnerProvider) DefaultValues(userDefaults map[string]interface{}) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(userDefaults))
	for k, v := range userDefaults {
		if k != "owner" {
			return nil, errs.New("attributes", errs.AttributeNotCreatable, "owner:"+k)
		}
		out[k] = v
	}
	return out, nil
}

func (OwnerProvider) Get(f inode.File, attr string) (interface{}, bool) {
	if attr != "owner" {
		return nil, false
	}
	v, ok := getTableAttr(f, "owner", "owner")
	if !ok {
		return UserPrincipal(""), true
	}
	return v, true
}

func (OwnerProvider) Set(f inode.File, attr string, value interface{}, creating bool) error {
	if attr != "owner" {
		return errs.New("attributes", errs.AttributeUnsupported, "owner:"+attr)
	}
	u, ok := value.(UserPrincipal)
	if !ok {
		return errs.New("attributes", errs.AttributeInvalidType, "owner:owner")
	}
	setTableAttr(f, "owner", "owner", u)
	return nil
}

func (p OwnerProvider) Supports(attr string) bool { return p.FixedAttributes()[attr] }

func (p OwnerProvider) ReadAll(f inode.File) map[string]interface{} {
	v, _ := p.Get(f, "owner")
	return map[string]interface{}{"owner": v}
}

// PosixProvider implements the "posix" view (§6.2), inheriting basic and
// owner.
type PosixProvider struct{}

func (PosixProvider) Name() string       { return "posix" }
func (PosixProvider) Inherits() []string { return []string{"basic", "owner"} }

func (PosixProvider) FixedAttributes() map[string]bool {
	return map[string]bool{"group": true, "permissions": true}
}

func (p PosixProvider) DefaultValues(userDefaults map[string]interface{}) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(userDefaults))
	for k, v := range userDefaults {
		if !p.FixedAttributes()[k] {
			return nil, errs.New("attributes", errs.AttributeNotCreatable, "posix:"+k)
		}
		if k == "permissions" {
			perms, err := ParsePermissions(v)
			if err != nil {
				return nil, err
			}
			out[k] = perms
			continue
		}
		out[k] = v
	}
	return out, nil
}

func (PosixProvider) Get(f inode.File, attr string) (interface{}, bool) {
	switch attr {
	case "group":
		v, ok := getTableAttr(f, "posix", "group")
		if !ok {
			return GroupPrincipal(""), true
		}
		return v, true
	case "permissions":
		v, ok := getTableAttr(f, "posix", "permissions")
		if !ok {
			return PermissionSet(0), true
		}
		return v, true
	}
	return nil, false
}

func (PosixProvider) Set(f inode.File, attr string, value interface{}, creating bool) error {
	switch attr {
	case "group":
		g, ok := value.(GroupPrincipal)
		if !ok {
			return errs.New("attributes", errs.AttributeInvalidType, "posix:group")
		}
		setTableAttr(f, "posix", "group", g)
		return nil
	case "permissions":
		perms, err := ParsePermissions(value)
		if err != nil {
			return err
		}
		setTableAttr(f, "posix", "permissions", perms)
		return nil
	}
	return errs.New("attributes", errs.AttributeUnsupported, "posix:"+attr)
}

func (p PosixProvider) Supports(attr string) bool { return p.FixedAttributes()[attr] }

func (p PosixProvider) ReadAll(f inode.File) map[string]interface{} {
	out := make(map[string]interface{})
	for attr := range p.FixedAttributes() {
		v, _ := p.Get(f, attr)
		out[attr] = v
	}
	return out
}

// DosProvider implements the "dos" view (§6.2), inheriting basic and owner.
type DosProvider struct{}

func (DosProvider) Name() string       { return "dos" }
func (DosProvider) Inherits() []string { return []string{"basic", "owner"} }

func (DosProvider) FixedAttributes() map[string]bool {
	return map[string]bool{"readonly": true, "hidden": true, "archive": true, "system": true}
}

func (p DosProvider) DefaultValues(userDefaults map[string]interface{}) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(userDefaults))
	for k, v := range userDefaults {
		if !p.FixedAttributes()[k] {
			return nil, errs.New("attributes", errs.AttributeNotCreatable, "dos:"+k)
		}
		out[k] = v
	}
	return out, nil
}

func (DosProvider) Get(f inode.File, attr string) (interface{}, bool) {
	if !(attr == "readonly" || attr == "hidden" || attr == "archive" || attr == "system") {
		return nil, false
	}
	v, ok := getTableAttr(f, "dos", attr)
	if !ok {
		return false, true
	}
	return v, true
}

func (DosProvider) Set(f inode.File, attr string, value interface{}, creating bool) error {
	if !(attr == "readonly" || attr == "hidden" || attr == "archive" || attr == "system") {
		return errs.New("attributes", errs.AttributeUnsupported, "dos:"+attr)
	}
	b, ok := value.(bool)
	if !ok {
		return errs.New("attributes", errs.AttributeInvalidType, "dos:"+attr)
	}
	setTableAttr(f, "dos", attr, b)
	return nil
}

func (p DosProvider) Supports(attr string) bool { return p.FixedAttributes()[attr] }

func (p DosProvider) ReadAll(f inode.File) map[string]interface{} {
	out := make(map[string]interface{})
	for attr := range p.FixedAttributes() {
		v, _ := p.Get(f, attr)
		out[attr] = v
	}
	return out
}

// ACLProvider implements the "acl" view (§6.2), inheriting owner.
type ACLProvider struct{}

func (ACLProvider) Name() string       { return "acl" }
func (ACLProvider) Inherits() []string { return []string{"owner"} }

func (ACLProvider) FixedAttributes() map[string]bool { return map[string]bool{"acl": true} }

func (p ACLProvider) DefaultValues(userDefaults map[string]interface{}) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(userDefaults))
	for k, v := range userDefaults {
		if k != "acl" {
			return nil, errs.New("attributes", errs.AttributeNotCreatable, "acl:"+k)
		}
		out[k] = v
	}
	return out, nil
}

func (ACLProvider) Get(f inode.File, attr string) (interface{}, bool) {
	if attr != "acl" {
		return nil, false
	}
	v, ok := getTableAttr(f, "acl", "acl")
	if !ok {
		return []ACLEntry(nil), true
	}
	return v, true
}

func (ACLProvider) Set(f inode.File, attr string, value interface{}, creating bool) error {
	if attr != "acl" {
		return errs.New("attributes", errs.AttributeUnsupported, "acl:"+attr)
	}
	entries, ok := value.([]ACLEntry)
	if !ok {
		return errs.New("attributes", errs.AttributeInvalidType, "acl:acl")
	}
	setTableAttr(f, "acl", "acl", entries)
	return nil
}

func (p ACLProvider) Supports(attr string) bool { return p.FixedAttributes()[attr] }

func (p ACLProvider) ReadAll(f inode.File) map[string]interface{} {
	v, _ := p.Get(f, "acl")
	return map[string]interface{}{"acl": v}
}

// UserProvider implements the "user" view (§6.2): arbitrary user-defined
// byte-array attributes, with no fixed attribute set.
type UserProvider struct{}

func (UserProvider) Name() string                                  { return "user" }
func (UserProvider) Inherits() []string                             { return nil }
func (UserProvider) FixedAttributes() map[string]bool               { return nil }
func (UserProvider) DefaultValues(u map[string]interface{}) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(u))
	for k, v := range u {
		b, ok := v.([]byte)
		if !ok {
			return nil, errs.New("attributes", errs.AttributeInvalidType, "user:"+k)
		}
		out[k] = b
	}
	return out, nil
}

func (UserProvider) Get(f inode.File, attr string) (interface{}, bool) {
	return getTableAttr(f, "user", attr)
}

func (UserProvider) Set(f inode.File, attr string, value interface{}, creating bool) error {
	b, ok := value.([]byte)
	if !ok {
		return errs.New("attributes", errs.AttributeInvalidType, "user:"+attr)
	}
	setTableAttr(f, "user", attr, b)
	return nil
}

func (UserProvider) Supports(attr string) bool { return true }

func (UserProvider) ReadAll(f inode.File) map[string]interface{} {
	return f.Attributes().Snapshot("user")
}

// UnixProvider implements the read-only, derived "unix" view (§6.2),
// reachable only internally (not through the public attribute-expression
// API, per §4.E: "read-only and not reachable via the public API").
type UnixProvider struct{}

func (UnixProvider) Name() string       { return "unix" }
func (UnixProvider) Inherits() []string { return []string{"basic", "owner", "posix"} }

func (UnixProvider) FixedAttributes() map[string]bool {
	return map[string]bool{
		"uid": true, "gid": true, "ino": true, "nlink": true,
		"mode": true, "ctime": true, "rdev": true, "dev": true,
	}
}

func (UnixProvider) DefaultValues(map[string]interface{}) (map[string]interface{}, error) {
	return nil, errs.New("attributes", errs.AttributeNotCreatable, "unix")
}

func (UnixProvider) Get(f inode.File, attr string) (interface{}, bool) {
	switch attr {
	case "uid", "gid", "rdev", "dev":
		return int64(0), true
	case "ino":
		return f.ID(), true
	case "nlink":
		return f.Links(), true
	case "mode":
		var perms PermissionSet
		if v, ok := getTableAttr(f, "posix", "permissions"); ok {
			perms = v.(PermissionSet)
		}
		return perms.Mode(), true
	case "ctime":
		return f.CreationTime(), true
	}
	return nil, false
}

func (UnixProvider) Set(inode.File, string, interface{}, bool) error {
	return errs.New("attributes", errs.AttributeUnsettable, "unix")
}

func (p UnixProvider) Supports(attr string) bool { return p.FixedAttributes()[attr] }

func (p UnixProvider) ReadAll(f inode.File) map[string]interface{} {
	out := make(map[string]interface{})
	for attr := range p.FixedAttributes() {
		if v, ok := p.Get(f, attr); ok {
			out[attr] = v
		}
	}
	return out
}

// DefaultService constructs a Service with every built-in view registered.
// "unix" stays out of config.AttributeViews by convention so it is never
// advertised through the public expression grammar, even though the
// Service itself has no notion of a private view.
func DefaultService() *Service {
	return NewService(
		BasicProvider{},
		OwnerProvider{},
		PosixProvider{},
		DosProvider{},
		ACLProvider{},
		UserProvider{},
		UnixProvider{},
	)
}
