// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"database/sql"
	"testing"
)

func ptr[T any](v T) *T {
	return &v
}

func TestNullStringFromValue(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected sql.NullString
	}{
		{
			name:     "non-empty",
			input:    "Spokane",
			expected: sql.NullString{String: "Spokane", Valid: true},
		},
		{
			name:     "empty",
			input:    "",
			expected: sql.NullString{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NullStringFromValue(tt.input)
			if result != tt.expected {
				t.Errorf("NullStringFromValue() = %v, expected %v", result, tt.expected)
			}
		})
	}
}

func TestNullStringFromPtr(t *testing.T) {
	tests := []struct {
		name     string
		input    *string
		expected sql.NullString
	}{
		{
			name:     "nil pointer",
			input:    nil,
			expected: sql.NullString{},
		},
		{
			name:     "empty string pointer",
			input:    ptr(""),
			expected: sql.NullString{String: "", Valid: true},
		},
		{
			name:     "value",
			input:    ptr("abc"),
			expected: sql.NullString{String: "abc", Valid: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NullStringFromPtr(tt.input)
			if result != tt.expected {
				t.Errorf("NullStringFromPtr() = %v, expected %v", result, tt.expected)
			}
		})
	}
}

func TestPtrFromNullString(t *testing.T) {
	if got := PtrFromNullString(sql.NullString{}); got != nil {
		t.Errorf("PtrFromNullString(invalid) = %v, want nil", *got)
	}
	got := PtrFromNullString(sql.NullString{String: "x", Valid: true})
	if got == nil || *got != "x" {
		t.Errorf("PtrFromNullString(valid) = %v, want x", got)
	}
}
