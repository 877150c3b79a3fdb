// Copyright 2024 The hostkit Authors. All rights reserved.
// Use of this source code is governed by a MIT
// license that can be found in the LICENSE file.

package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/saucelabs/sypl/level"
	"github.com/saucelabs/sypl/output"
)

func TestHandle_promote(t *testing.T) {
	buf := new(bytes.Buffer)

	h := NewBootstrap("test", output.New("Buffer", level.Trace, buf))

	// Bootstrap phase: usable before any configuration exists, requests at
	// `error`.
	h.Logger().Infoln("bootstrap message")

	if h.RequestLevel() != level.Error {
		t.Fatalf("Expect error request level before promotion, got %v", h.RequestLevel())
	}

	if err := h.Promote(Settings{
		ConsoleLevel: "debug",
		RequestLevel: "info",
	}, "Development", "my-app"); err != nil {
		t.Fatal(err)
	}

	if h.RequestLevel() != level.Info {
		t.Fatalf("Expect info request level after promotion, got %v", h.RequestLevel())
	}

	// The operational pipeline enriches entries with the application, and
	// environment names, and extra outputs observe both phases.
	h.Logger().Infoln("operational message")

	logged := buf.String()

	if !strings.Contains(logged, "bootstrap message") {
		t.Fatalf("Expect bootstrap message, got:\n%s", logged)
	}

	if !strings.Contains(logged, "[my-app@Development] operational message") {
		t.Fatalf("Expect enriched operational message, got:\n%s", logged)
	}

	// Promotion is a one-shot handoff.
	if err := h.Promote(Settings{
		ConsoleLevel: "debug",
		RequestLevel: "info",
	}, "Development", "my-app"); err == nil {
		t.Fatal("Expect an error promoting twice")
	}
}

func TestHandle_promoteInvalidLevels(t *testing.T) {
	tests := []struct {
		name     string
		settings Settings
	}{
		{
			name:     "Should fail - bogus console level",
			settings: Settings{ConsoleLevel: "bogus", RequestLevel: "info"},
		},
		{
			name:     "Should fail - bogus request level",
			settings: Settings{ConsoleLevel: "info", RequestLevel: "bogus"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewBootstrap("test")

			if err := h.Promote(tt.settings, "Development", "my-app"); err == nil {
				t.Fatal("Expect an error")
			}
		})
	}
}

func TestHandle_close(t *testing.T) {
	h := NewBootstrap("test")

	calls := 0

	h.OnClose(func() {
		calls++
	})

	// Close flushes exactly once, on every exit path.
	h.Close()
	h.Close()
	h.Close()

	if calls != 1 {
		t.Fatalf("Expect hooks to run once, ran %d times", calls)
	}
}
