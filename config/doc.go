// Copyright 2024 The hostkit Authors. All rights reserved.
// Use of this source code is governed by a MIT
// license that can be found in the LICENSE file.

// Package config builds the layered host, and application configuration.
//
// Application configuration is an ordered, layered mapping from keys to
// values where later layers win on collision (lowest to highest):
//  1. `appsettings.json`
//  2. `appsettings.<environment>.json`
//  3. key-per-file directory entries
//  4. environment variables
//  5. developer secrets (Development only)
//  6. telemetry settings (only when telemetry is enabled)
//  7. command-line arguments
//
// Missing optional sources are silently skipped. The configuration is built
// once during bootstrap, and is immutable afterwards.
package config
