// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package ratelimit

import (
	"net/http"
	"strings"
)

// UnknownClient is the key shared by every request without forwarding
// headers.
const UnknownClient = "unknown"

// Identify derives the client key: the first X-Forwarded-For entry,
// then X-Real-IP, then UnknownClient.
func Identify(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}

	return UnknownClient
}
