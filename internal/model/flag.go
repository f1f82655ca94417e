// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines the closed vocabularies shared by the moderation,
// authorization and HTTP layers.
package model

import (
	"strings"
)

// ContentType identifies the kind of community content a flag points at.
type ContentType string

// Content types that can be flagged.
const (
	ContentTypePost      ContentType = "post"
	ContentTypeMessage   ContentType = "message"
	ContentTypeBusiness  ContentType = "business"
	ContentTypeEvent     ContentType = "event"
	ContentTypeStoreItem ContentType = "store_item"
)

// ContentTypes lists every valid content type.
var ContentTypes = []ContentType{
	ContentTypePost,
	ContentTypeMessage,
	ContentTypeBusiness,
	ContentTypeEvent,
	ContentTypeStoreItem,
}

// Valid reports whether c is one of ContentTypes.
func (c ContentType) Valid() bool {
	for _, ct := range ContentTypes {
		if c == ct {
			return true
		}
	}
	return false
}

// ParseContentType validates s against the closed set of content types.
func ParseContentType(s string) (ContentType, error) {
	c := ContentType(s)
	if !c.Valid() {
		return "", NewValidationError("content_type", "must be one of: "+joinValues(ContentTypes))
	}
	return c, nil
}

// Reason is the moderation taxonomy a flag is raised under.
type Reason string

// Moderation reasons.
const (
	ReasonSlur               Reason = "slur"
	ReasonProhibitedCategory Reason = "prohibited_category"
	ReasonProfanity          Reason = "profanity"
	ReasonRestricted         Reason = "restricted"
)

// Reasons lists every valid reason, most severe first.
var Reasons = []Reason{
	ReasonSlur,
	ReasonProhibitedCategory,
	ReasonProfanity,
	ReasonRestricted,
}

// Valid reports whether r is one of Reasons.
func (r Reason) Valid() bool {
	for _, known := range Reasons {
		if r == known {
			return true
		}
	}
	return false
}

// ParseReason validates s against the closed set of reasons.
func ParseReason(s string) (Reason, error) {
	r := Reason(s)
	if !r.Valid() {
		return "", NewValidationError("reason", "must be one of: "+joinValues(Reasons))
	}
	return r, nil
}

// FlagStatus is the review state of a flag. It only ever moves forward:
// pending -> reviewed -> resolved.
type FlagStatus string

// Flag statuses in lifecycle order.
const (
	FlagStatusPending  FlagStatus = "pending"
	FlagStatusReviewed FlagStatus = "reviewed"
	FlagStatusResolved FlagStatus = "resolved"
)

// FlagStatuses lists every valid status in lifecycle order.
var FlagStatuses = []FlagStatus{
	FlagStatusPending,
	FlagStatusReviewed,
	FlagStatusResolved,
}

// rank returns the lifecycle position of s, or -1 for unknown statuses.
func (s FlagStatus) rank() int {
	for i, known := range FlagStatuses {
		if s == known {
			return i
		}
	}
	return -1
}

// Valid reports whether s is one of FlagStatuses.
func (s FlagStatus) Valid() bool {
	return s.rank() >= 0
}

// CanTransitionTo reports whether a flag in status s may move to next.
// Staying in the same status is allowed; moving backwards is not.
func (s FlagStatus) CanTransitionTo(next FlagStatus) bool {
	from, to := s.rank(), next.rank()
	if from < 0 || to < 0 {
		return false
	}
	return to >= from
}

// ParseFlagStatus validates s against the closed set of statuses.
func ParseFlagStatus(s string) (FlagStatus, error) {
	status := FlagStatus(s)
	if !status.Valid() {
		return "", NewValidationError("status", "must be one of: "+joinValues(FlagStatuses))
	}
	return status, nil
}

func joinValues[T ~string](values []T) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = string(v)
	}
	return strings.Join(parts, ", ")
}
