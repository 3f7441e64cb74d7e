// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package alignfile

import "fmt"

// FormatError reports input that is not an alignment data file at all.
type FormatError struct {
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("alignfile: not an alignment data file: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("alignfile: not an alignment data file: %s", e.Reason)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// SiteError reports a missing or malformed site attribute.
type SiteError struct {
	Field string
	Value string
	Err   error
}

func (e *SiteError) Error() string {
	if e.Value == "" && e.Err == nil {
		return fmt.Sprintf("alignfile: site: missing %s", e.Field)
	}
	return fmt.Sprintf("alignfile: site: invalid %s %q", e.Field, e.Value)
}

func (e *SiteError) Unwrap() error {
	return e.Err
}

// FieldError reports a missing or malformed field of the point record at
// index Record.
type FieldError struct {
	Record int
	Field  string
	Value  string
	Err    error
}

func (e *FieldError) Error() string {
	if e.Value == "" && e.Err == nil {
		return fmt.Sprintf("alignfile: point %d: missing %s", e.Record, e.Field)
	}
	return fmt.Sprintf("alignfile: point %d: invalid %s %q", e.Record, e.Field, e.Value)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}
