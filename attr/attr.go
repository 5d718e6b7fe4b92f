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

// Package attr implements the attribute-view registry of §4.E: a set of
// named Providers (basic, owner, posix, dos, acl, user, unix) composed by
// inheritance, with read/write access mediated through a view/attribute
// expression grammar (§6.2).
package attr

import (
	"strings"

	"github.com/gcsfuse-contrib/memfs/errs"
	"github.com/gcsfuse-contrib/memfs/inode"
)

// Provider implements one named attribute view (§4.E).
type Provider interface {
	Name() string

	// Inherits lists other view names whose attributes compose into this
	// one, in declaration order.
	Inherits() []string

	// FixedAttributes is the set of attribute names this view recognizes.
	FixedAttributes() map[string]bool

	// DefaultValues validates userDefaults (a subset of FixedAttributes) for
	// use as initial values at file-creation time.
	DefaultValues(userDefaults map[string]interface{}) (map[string]interface{}, error)

	// Get returns the named attribute's current value, or (nil, false) if
	// this view doesn't recognize it.
	Get(f inode.File, attr string) (interface{}, bool)

	// Set assigns the named attribute. creating indicates the file is being
	// created. None of the built-in providers treat a Set with creating=true
	// differently from a later Set; which attributes are accepted as
	// creation-time values is decided only by DefaultValues.
	Set(f inode.File, attr string, value interface{}, creating bool) error

	// Supports reports whether this view recognizes attr.
	Supports(attr string) bool

	// ReadAll snapshots every attribute this view (not its inherited views)
	// currently exposes for f.
	ReadAll(f inode.File) map[string]interface{}
}

// Service is the registry mapping view names to Providers (§4.E).
type Service struct {
	providers map[string]Provider
}

func NewService(providers ...Provider) *Service {
	s := &Service{providers: make(map[string]Provider, len(providers))}
	for _, p := range providers {
		s.providers[p.Name()] = p
	}
	return s
}

func (s *Service) provider(view string) (Provider, error) {
	p, ok := s.providers[view]
	if !ok {
		return nil, errs.New("attributes", errs.AttributeUnsupported, view)
	}
	return p, nil
}

// inheritedChain returns p followed by every view it (transitively)
// inherits, in declaration order, per §4.E's "consults the view, then each
// inherited view in declaration order".
func (s *Service) inheritedChain(p Provider) []Provider {
	chain := []Provider{p}
	seen := map[string]bool{p.Name(): true}
	var walk func(Provider)
	walk = func(cur Provider) {
		for _, name := range cur.Inherits() {
			if seen[name] {
				continue
			}
			seen[name] = true
			if next, ok := s.providers[name]; ok {
				chain = append(chain, next)
				walk(next)
			}
		}
	}
	walk(p)
	return chain
}

// Get resolves a single attribute, consulting view then its inherited
// views in order; the first provider to recognize the name wins.
func (s *Service) Get(view, attr string, f inode.File) (interface{}, error) {
	p, err := s.provider(view)
	if err != nil {
		return nil, err
	}
	for _, cur := range s.inheritedChain(p) {
		if v, ok := cur.Get(f, attr); ok {
			return v, nil
		}
	}
	return nil, errs.New("attributes", errs.AttributeUnsupported, view+":"+attr)
}

// Set assigns a single attribute. The view named must itself (not via
// inheritance) support the attribute, per §4.E: "set requires a single
// view that supports the attribute."
func (s *Service) Set(view, attr string, value interface{}, f inode.File, creating bool) error {
	p, err := s.provider(view)
	if err != nil {
		return err
	}
	if !p.Supports(attr) {
		return errs.New("attributes", errs.AttributeUnsupported, view+":"+attr)
	}
	return p.Set(f, attr, value, creating)
}

// ReadAttributes parses an attribute expression (§4.E) and returns the
// matching values. "x" means "basic:x"; "view:a,b,c" reads a subset;
// "view:*" reads every attribute the view and its inherited views expose;
// mixing "*" with names is rejected.
func (s *Service) ReadAttributes(expr string, f inode.File) (map[string]interface{}, error) {
	view, names, err := parseExpr(expr)
	if err != nil {
		return nil, err
	}

	p, err := s.provider(view)
	if err != nil {
		return nil, err
	}

	if len(names) == 1 && names[0] == "*" {
		out := make(map[string]interface{})
		for _, cur := range s.inheritedChain(p) {
			for k, v := range cur.ReadAll(f) {
				if _, exists := out[k]; !exists {
					out[k] = v
				}
			}
		}
		return out, nil
	}

	out := make(map[string]interface{}, len(names))
	for _, n := range names {
		v, err := s.Get(view, n, f)
		if err != nil {
			return nil, err
		}
		out[n] = v
	}
	return out, nil
}

// DefaultValues validates a {view:attr -> value} map at creation time,
// grouping by view and delegating to each Provider.DefaultValues.
func (s *Service) DefaultValues(userDefaults map[string]interface{}) (map[string]map[string]interface{}, error) {
	byView := make(map[string]map[string]interface{})
	for expr, v := range userDefaults {
		view, name, err := splitAttr(expr)
		if err != nil {
			return nil, err
		}
		if byView[view] == nil {
			byView[view] = make(map[string]interface{})
		}
		byView[view][name] = v
	}

	out := make(map[string]map[string]interface{}, len(byView))
	for view, vals := range byView {
		p, err := s.provider(view)
		if err != nil {
			return nil, err
		}
		resolved, err := p.DefaultValues(vals)
		if err != nil {
			return nil, err
		}
		out[view] = resolved
	}
	return out, nil
}

// ApplyDefaults writes a resolved {view -> {attr -> value}} map onto a
// newly created file, creating=true throughout.
func (s *Service) ApplyDefaults(defaults map[string]map[string]interface{}, f inode.File) error {
	for view, vals := range defaults {
		for attr, v := range vals {
			if err := s.Set(view, attr, v, f, true); err != nil {
				return err
			}
		}
	}
	return nil
}

func splitAttr(expr string) (view, attr string, err error) {
	if i := strings.IndexByte(expr, ':'); i >= 0 {
		return expr[:i], expr[i+1:], nil
	}
	return "basic", expr, nil
}

// parseExpr parses "view:a,b,c" / "view:*" / "x" (≡ "basic:x") forms.
func parseExpr(expr string) (view string, names []string, err error) {
	var rest string
	if i := strings.IndexByte(expr, ':'); i >= 0 {
		view, rest = expr[:i], expr[i+1:]
	} else {
		view, rest = "basic", expr
	}
	if rest == "" {
		return "", nil, errs.New("attributes", errs.PathSyntaxInvalid, expr)
	}

	parts := strings.Split(rest, ",")
	hasStar, hasName := false, false
	for _, p := range parts {
		if p == "*" {
			hasStar = true
		} else {
			hasName = true
		}
	}
	if hasStar && hasName {
		return "", nil, errs.New("attributes", errs.PathSyntaxInvalid, expr)
	}
	return view, parts, nil
}
