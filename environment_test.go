// Copyright 2024 The hostkit Authors. All rights reserved.
// Use of this source code is governed by a MIT
// license that can be found in the LICENSE file.

package hostkit

import "testing"

func TestNewEnvironment(t *testing.T) {
	tests := []struct {
		name string

		environmentName string
		contentRoot     string

		wantName        string
		wantContentRoot string
		wantDevelopment bool
		wantProduction  bool
	}{
		{
			name: "Should default - empty name is Production",

			environmentName: "",
			contentRoot:     "",

			wantName:        EnvironmentProduction,
			wantContentRoot: ".",
			wantProduction:  true,
		},
		{
			name: "Should work - Development",

			environmentName: EnvironmentDevelopment,
			contentRoot:     "/srv/app",

			wantName:        EnvironmentDevelopment,
			wantContentRoot: "/srv/app",
			wantDevelopment: true,
		},
		{
			name: "Should work - case-insensitive match",

			environmentName: "development",
			contentRoot:     ".",

			wantName:        "development",
			wantContentRoot: ".",
			wantDevelopment: true,
		},
		{
			name: "Should work - custom environment matches nothing",

			environmentName: "QA",
			contentRoot:     ".",

			wantName:        "QA",
			wantContentRoot: ".",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEnvironment(tt.environmentName, "app", tt.contentRoot)

			if e.Name != tt.wantName {
				t.Fatalf("Expect name %v got %v", tt.wantName, e.Name)
			}

			if e.ContentRoot != tt.wantContentRoot {
				t.Fatalf("Expect content root %v got %v", tt.wantContentRoot, e.ContentRoot)
			}

			if e.IsDevelopment() != tt.wantDevelopment {
				t.Fatalf("Expect IsDevelopment %v", tt.wantDevelopment)
			}

			if e.IsProduction() != tt.wantProduction {
				t.Fatalf("Expect IsProduction %v", tt.wantProduction)
			}
		})
	}
}
