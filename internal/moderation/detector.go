// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package moderation

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"unicode"

	"github.com/mozillazg/go-unidecode"

	"github.com/INWCOMMUNITY/INW-Community-sub006/internal/model"
)

// Terms maps each reason to the words and phrases that trigger it.
type Terms map[model.Reason][]string

// DefaultTerms returns the built-in lists. The slur list ships empty;
// operators supply it through a terms file.
func DefaultTerms() Terms {
	return Terms{
		model.ReasonSlur: nil,
		model.ReasonProhibitedCategory: {
			"guns for sale", "firearms for sale", "ammo for sale",
			"escort service", "counterfeit", "fake id",
		},
		model.ReasonProfanity: {
			"fuck", "fucking", "shit", "bitch", "asshole", "bastard",
		},
		model.ReasonRestricted: {
			"cannabis delivery", "weed delivery", "alcohol delivery",
			"prescription pills", "vape juice",
		},
	}
}

// LoadTerms reads a JSON object of reason to term list, for example
// {"slur": ["..."], "profanity": ["..."]}. Unknown reasons are rejected.
func LoadTerms(path string) (Terms, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading moderation terms: %w", err)
	}

	var raw map[string][]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing moderation terms: %w", err)
	}

	terms := make(Terms, len(raw))
	for key, list := range raw {
		reason, err := model.ParseReason(key)
		if err != nil {
			return nil, fmt.Errorf("moderation terms %q: %w", key, err)
		}
		terms[reason] = list
	}
	return terms, nil
}

// Merge returns a copy of t with extra appended per reason.
func (t Terms) Merge(extra Terms) Terms {
	out := make(Terms, len(t))
	for reason, list := range t {
		out[reason] = append([]string(nil), list...)
	}
	for reason, list := range extra {
		out[reason] = append(out[reason], list...)
	}
	return out
}

// Detector matches whole words and phrases after folding text to lower
// case ASCII, so "Fúck" and "FUCK" both match "fuck".
type Detector struct {
	terms map[model.Reason][]string
}

// NewDetector compiles terms. Blank terms are ignored.
func NewDetector(terms Terms) *Detector {
	d := &Detector{terms: make(map[model.Reason][]string, len(terms))}
	for reason, list := range terms {
		for _, term := range list {
			folded := fold(term)
			if folded == "" {
				continue
			}
			d.terms[reason] = append(d.terms[reason], " "+folded+" ")
		}
	}
	return d
}

// Detect returns the reasons text triggers, most severe first, each at
// most once.
func (d *Detector) Detect(text string) []model.Reason {
	folded := fold(text)
	if folded == "" {
		return nil
	}
	haystack := " " + folded + " "

	var found []model.Reason
	for _, reason := range model.Reasons {
		for _, term := range d.terms[reason] {
			if strings.Contains(haystack, term) {
				found = append(found, reason)
				break
			}
		}
	}
	return found
}

// fold transliterates to ASCII, lowercases, and collapses everything that
// is not a letter or digit to single spaces.
func fold(s string) string {
	ascii := strings.ToLower(unidecode.Unidecode(s))
	fields := strings.FieldsFunc(ascii, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return strings.Join(fields, " ")
}

// Content is a piece of community content to screen.
type Content struct {
	Type     model.ContentType
	ID       string
	AuthorID string
	Text     string
}

// Screener runs the detector over new or edited content and raises one
// flag per detected reason.
type Screener struct {
	detector *Detector
	recorder *Recorder
}

// NewScreener creates a screener.
func NewScreener(d *Detector, r *Recorder) *Screener {
	return &Screener{detector: d, recorder: r}
}

// Screen flags c in the background and returns the detected reasons.
// The caller's own write must not depend on the outcome.
func (s *Screener) Screen(ctx context.Context, c Content) []model.Reason {
	reasons := s.detector.Detect(c.Text)
	for _, reason := range reasons {
		s.recorder.RecordAsync(ctx, Flag{
			ContentType: c.Type,
			ContentID:   c.ID,
			Reason:      reason,
			Snippet:     c.Text,
			AuthorID:    c.AuthorID,
		})
	}
	return reasons
}
