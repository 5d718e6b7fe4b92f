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

// Package telemetry provides the Logger and metrics facade every other
// package in this module logs and records through, instead of reaching for
// fmt.Println or the stdlib log package directly.
package telemetry

// Severity names accepted in LoggingConfig.Severity, ordered least to most
// severe.
const (
	SeverityTrace   = "TRACE"
	SeverityDebug   = "DEBUG"
	SeverityInfo    = "INFO"
	SeverityWarning = "WARNING"
	SeverityError   = "ERROR"
	SeverityOff     = "OFF"
)

// LogRotateConfig controls lumberjack-backed file rotation. It is only
// consulted when LoggingConfig.FilePath is non-empty.
type LogRotateConfig struct {
	MaxFileSizeMB   int
	BackupFileCount int
	Compress        bool
}

// DefaultLogRotateConfig mirrors the teacher's cfg.GetDefaultLoggingConfig
// rotation defaults.
func DefaultLogRotateConfig() LogRotateConfig {
	return LogRotateConfig{
		MaxFileSizeMB:   512,
		BackupFileCount: 10,
		Compress:        true,
	}
}

// LoggingConfig is the constructor argument NewLogger takes. Unlike the
// teacher's internal/logger (a package-level defaultLogger swapped via
// global functions), this module threads the equivalent configuration
// through an explicit constructor so a FileSystem can own its own Logger.
type LoggingConfig struct {
	// Severity is one of the Severity* constants above. The zero value
	// behaves as SeverityInfo.
	Severity string

	// Format is "text" or "json". The zero value behaves as "json".
	Format string

	// FilePath, if non-empty, routes log output through a rotating
	// lumberjack.Logger instead of stderr.
	FilePath string

	LogRotate LogRotateConfig
}

// DefaultLoggingConfig mirrors cfg.GetDefaultLoggingConfig: INFO severity,
// json format, logging to stderr.
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		Severity:  SeverityInfo,
		Format:    "json",
		LogRotate: DefaultLogRotateConfig(),
	}
}
