// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/INWCOMMUNITY/INW-Community-sub006/internal/auth"
	"github.com/INWCOMMUNITY/INW-Community-sub006/internal/metrics"
	"github.com/INWCOMMUNITY/INW-Community-sub006/internal/middleware"
	"github.com/INWCOMMUNITY/INW-Community-sub006/internal/moderation"
	"github.com/INWCOMMUNITY/INW-Community-sub006/internal/ratelimit"
	"github.com/INWCOMMUNITY/INW-Community-sub006/internal/service"
	"github.com/INWCOMMUNITY/INW-Community-sub006/internal/session"
	"github.com/INWCOMMUNITY/INW-Community-sub006/internal/store"
	"github.com/INWCOMMUNITY/INW-Community-sub006/internal/testutil"
	"github.com/INWCOMMUNITY/INW-Community-sub006/internal/version"
)

const (
	testAdminCode  = "test-admin-code"
	testAdminEmail = "admin@example.com"
	testPassword   = "correct horse battery"
)

// testEnv is a running API server over a migrated temp database.
type testEnv struct {
	t        *testing.T
	srv      *httptest.Server
	db       *sql.DB
	queries  *store.Queries
	recorder *moderation.Recorder
	metrics  *metrics.Metrics
}

// newTestEnv starts a server. mutate may replace dependencies before the
// router is built.
func newTestEnv(t *testing.T, mutate ...func(*Deps)) *testEnv {
	t.Helper()

	db, cleanup := testutil.TestDB(t)
	// One connection keeps background flag writes from racing for the
	// SQLite write lock.
	db.SetMaxOpenConns(1)

	sm := session.New(db, true)
	identities := session.NewIdentities(sm, db)
	m := metrics.New()
	events := service.NewEventService(db)
	recorder := moderation.NewRecorder(store.New(db), m, 2*time.Second)

	deps := Deps{
		DB:            db,
		Sessions:      sm,
		Identities:    identities,
		Resolver:      auth.NewAdminResolver(testAdminCode, testAdminEmail, identities),
		Limiter:       ratelimit.New(nil, ratelimit.DefaultConfig()),
		Throttle:      middleware.NewGlobalRateLimiter(1000, 1000),
		Lockout:       middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig()),
		Recorder:      recorder,
		Screener:      moderation.NewScreener(moderation.NewDetector(moderation.DefaultTerms()), recorder),
		Reviewer:      moderation.NewReviewer(db, events),
		Events:        events,
		Metrics:       m,
		Version:       version.Info{Version: "test"},
		IsDevelopment: true,
		CSRFKey:       []byte(strings.Repeat("s", 32)),
	}
	for _, fn := range mutate {
		fn(&deps)
	}

	srv := httptest.NewServer(NewRouter(NewHandler(deps)))

	env := &testEnv{
		t:        t,
		srv:      srv,
		db:       db,
		queries:  store.New(db),
		recorder: deps.Recorder,
		metrics:  m,
	}
	t.Cleanup(func() {
		srv.Close()
		deps.Recorder.Wait()
		cleanup()
	})
	return env
}

// client returns an HTTP client with its own cookie jar.
func (e *testEnv) client() *http.Client {
	jar, err := cookiejar.New(nil)
	require.NoError(e.t, err)
	return &http.Client{Jar: jar}
}

// testResponse is a decoded API response.
type testResponse struct {
	Status int
	Header http.Header
	Body   []byte
}

func (r testResponse) data(t *testing.T, dst any) {
	t.Helper()
	var wrapper struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(r.Body, &wrapper), "body: %s", r.Body)
	require.NoError(t, json.Unmarshal(wrapper.Data, dst), "data: %s", wrapper.Data)
}

func (r testResponse) meta(t *testing.T) Meta {
	t.Helper()
	var wrapper struct {
		Meta Meta `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(r.Body, &wrapper))
	return wrapper.Meta
}

func (r testResponse) apiError(t *testing.T) ErrorDetail {
	t.Helper()
	var wrapper struct {
		Error ErrorDetail `json:"error"`
	}
	require.NoError(t, json.Unmarshal(r.Body, &wrapper), "body: %s", r.Body)
	return wrapper.Error
}

// ErrorDetail mirrors the error envelope for decoding in tests.
type ErrorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details"`
}

// do sends a request. body is JSON-encoded when non-nil.
func (e *testEnv) do(c *http.Client, method, path string, body any, headers map[string]string) testResponse {
	e.t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(e.t, err)
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, e.srv.URL+path, reader)
	require.NoError(e.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.Do(req)
	require.NoError(e.t, err)
	defer func() { _ = resp.Body.Close() }()

	b, err := io.ReadAll(resp.Body)
	require.NoError(e.t, err)
	return testResponse{Status: resp.StatusCode, Header: resp.Header, Body: b}
}

func (e *testEnv) admin() map[string]string {
	return map[string]string{auth.AdminCodeHeader: testAdminCode}
}

// signup creates a member on c and leaves c signed in.
func (e *testEnv) signup(c *http.Client, email, city string) MemberResponse {
	e.t.Helper()
	resp := e.do(c, http.MethodPost, "/api/auth/signup", SignupRequest{
		Email:       email,
		Password:    testPassword,
		DisplayName: "Neighbor",
		City:        city,
	}, map[string]string{"X-Forwarded-For": email})
	require.Equal(e.t, http.StatusCreated, resp.Status, "signup body: %s", resp.Body)

	var m MemberResponse
	resp.data(e.t, &m)
	return m
}
