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

import (
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// decodeHook turns a pathType string ("windows", case-insensitive; anything
// else means unix) into its typed PathType value. Normalization and feature
// names are not converted; every other string passes through unchanged.
func decodeHook() mapstructure.DecodeHookFuncType {
	return func(f reflect.Type, t reflect.Type, data interface{}) (interface{}, error) {
		if f.Kind() != reflect.String {
			return data, nil
		}
		s := data.(string)
		switch t {
		case reflect.TypeOf(PathType(0)):
			if strings.EqualFold(s, "windows") {
				return PathTypeWindows, nil
			}
			return PathTypeUnix, nil
		default:
			return data, nil
		}
	}
}

// DecodeHook composes the config-specific hook above with viper/mapstructure's
// standard string->duration and string->slice hooks.
func DecodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		decodeHook(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
}

// Decode reads overlay values from v (already fed a YAML/env source by the
// caller) on top of Default(), then runs Validate and Rationalize.
func Decode(v *viper.Viper) (*Config, error) {
	c := Default()

	if err := v.Unmarshal(c, viper.DecodeHook(DecodeHook())); err != nil {
		return nil, err
	}

	if err := Validate(c); err != nil {
		return nil, err
	}
	if err := Rationalize(c); err != nil {
		return nil, err
	}

	return c, nil
}
