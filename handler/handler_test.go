// Copyright 2024 The hostkit Authors. All rights reserved.
// Use of this source code is governed by a MIT
// license that can be found in the LICENSE file.

package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// serve runs a handler against a recorded request.
func serve(t *testing.T, h Handler, target string) *httptest.ResponseRecorder {
	t.Helper()

	rec := httptest.NewRecorder()

	h.Handler(rec, httptest.NewRequest(h.Method, target, nil))

	return rec
}

func TestOK(t *testing.T) {
	rec := serve(t, OK(), "/")

	if rec.Code != http.StatusOK {
		t.Fatalf("Expect %v got %v", http.StatusOK, rec.Code)
	}

	if !strings.Contains(rec.Body.String(), http.StatusText(http.StatusOK)) {
		t.Fatalf("Expect OK body, got %v", rec.Body.String())
	}
}

func TestLiveness(t *testing.T) {
	rec := serve(t, Liveness(), "/liveness")

	if rec.Code != http.StatusOK {
		t.Fatalf("Expect %v got %v", http.StatusOK, rec.Code)
	}
}

func TestReadiness(t *testing.T) {
	t.Run("Should work - ready", func(t *testing.T) {
		rec := serve(t, Readiness(func() error { return nil }), "/readiness")

		if rec.Code != http.StatusOK {
			t.Fatalf("Expect %v got %v", http.StatusOK, rec.Code)
		}
	})

	t.Run("Should work - not ready", func(t *testing.T) {
		rec := serve(t, Readiness(func() error {
			return errors.New("dependency down")
		}), "/readiness")

		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("Expect %v got %v", http.StatusServiceUnavailable, rec.Code)
		}

		if !strings.Contains(rec.Body.String(), "dependency down") {
			t.Fatalf("Expect the error in the body, got %v", rec.Body.String())
		}
	})
}

func TestExpVar(t *testing.T) {
	rec := serve(t, ExpVar(), "/debug/vars")

	if rec.Code != http.StatusOK {
		t.Fatalf("Expect %v got %v", http.StatusOK, rec.Code)
	}

	// The runtime publishes `cmdline`, and `memstats` by itself.
	if !strings.Contains(rec.Body.String(), "memstats") {
		t.Fatalf("Expect memstats, got %v", rec.Body.String())
	}
}

func TestNew(t *testing.T) {
	h := New(http.MethodPost, "/custom", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})

	if h.Method != http.MethodPost || h.Path != "/custom" {
		t.Fatalf("Expect method, and path to be kept, got %v %v", h.Method, h.Path)
	}

	rec := serve(t, h, "/custom")

	if rec.Code != http.StatusCreated {
		t.Fatalf("Expect %v got %v", http.StatusCreated, rec.Code)
	}
}
