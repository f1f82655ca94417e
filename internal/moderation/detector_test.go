// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package moderation

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/INWCOMMUNITY/INW-Community-sub006/internal/model"
)

func TestDetector_Detect(t *testing.T) {
	d := NewDetector(Terms{
		model.ReasonSlur:               {"badword"},
		model.ReasonProhibitedCategory: {"guns for sale"},
		model.ReasonProfanity:          {"darn"},
		model.ReasonRestricted:         {"  "},
	})

	tests := []struct {
		name string
		text string
		want []model.Reason
	}{
		{"clean", "Lovely day at the lake", nil},
		{"case folded", "DARN it", []model.Reason{model.ReasonProfanity}},
		{"accents folded", "dárn", []model.Reason{model.ReasonProfanity}},
		{"whole words only", "darning socks", nil},
		{"phrase across punctuation", "Guns, for sale!", []model.Reason{model.ReasonProhibitedCategory}},
		{"phrase across whitespace", "guns\nfor   sale", []model.Reason{model.ReasonProhibitedCategory}},
		{"severity order, unique", "darn darn badword", []model.Reason{model.ReasonSlur, model.ReasonProfanity}},
		{"empty", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := d.Detect(tt.text)
			if !slices.Equal(got, tt.want) {
				t.Errorf("Detect(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestDefaultTerms(t *testing.T) {
	terms := DefaultTerms()
	for _, reason := range model.Reasons {
		if _, ok := terms[reason]; !ok {
			t.Errorf("DefaultTerms missing %s", reason)
		}
	}
	if len(terms[model.ReasonSlur]) != 0 {
		t.Error("expected the built-in slur list to be empty")
	}

	d := NewDetector(terms)
	if got := d.Detect("what the Fuck"); !slices.Equal(got, []model.Reason{model.ReasonProfanity}) {
		t.Errorf("Detect = %v", got)
	}
}

func TestLoadTerms(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "terms.json")
	if err := os.WriteFile(path, []byte(`{"slur": ["xyzzy"], "restricted": ["moonshine"]}`), 0o600); err != nil {
		t.Fatal(err)
	}
	terms, err := LoadTerms(path)
	if err != nil {
		t.Fatalf("LoadTerms: %v", err)
	}

	d := NewDetector(DefaultTerms().Merge(terms))
	got := d.Detect("xyzzy selling moonshine, damn")
	want := []model.Reason{model.ReasonSlur, model.ReasonRestricted}
	if !slices.Equal(got, want) {
		t.Errorf("Detect = %v, want %v", got, want)
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte(`{"spam": ["x"]}`), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadTerms(bad); err == nil {
		t.Error("expected error for unknown reason")
	}

	if _, err := LoadTerms(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestTermsMerge_DoesNotMutate(t *testing.T) {
	base := Terms{model.ReasonProfanity: {"a"}}
	merged := base.Merge(Terms{model.ReasonProfanity: {"b"}})

	if len(base[model.ReasonProfanity]) != 1 {
		t.Errorf("base mutated: %v", base)
	}
	if !slices.Equal(merged[model.ReasonProfanity], []string{"a", "b"}) {
		t.Errorf("merged = %v", merged)
	}
}

func TestScreener_Screen(t *testing.T) {
	w := &memoryWriter{}
	rec := NewRecorder(w, nil, time.Second)
	s := NewScreener(NewDetector(Terms{
		model.ReasonProfanity:  {"darn"},
		model.ReasonRestricted: {"moonshine"},
	}), rec)

	reasons := s.Screen(context.Background(), Content{
		Type:     model.ContentTypePost,
		ID:       "post-9",
		AuthorID: "member-2",
		Text:     "darn good moonshine",
	})
	rec.Wait()

	if len(reasons) != 2 {
		t.Fatalf("reasons = %v, want 2", reasons)
	}
	if w.count() != 2 {
		t.Fatalf("recorded %d flags, want 2", w.count())
	}
	for _, f := range w.flags {
		if f.ContentID.String != "post-9" || f.AuthorID.String != "member-2" {
			t.Errorf("flag = %+v", f)
		}
	}

	if got := s.Screen(context.Background(), Content{Type: model.ContentTypePost, Text: "hello"}); got != nil {
		t.Errorf("clean content flagged: %v", got)
	}
}
