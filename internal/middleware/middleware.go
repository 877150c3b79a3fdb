// Copyright 2024 The hostkit Authors. All rights reserved.
// Use of this source code is governed by a MIT
// license that can be found in the LICENSE file.

// Package middleware holds the transport middlewares wired by the
// bootstrapper: request logging, identification header suppression, and the
// optional gorilla/handlers integrations.
package middleware

import (
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/saucelabs/sypl"
	"github.com/saucelabs/sypl/level"
)

// Logger logs every request at the given level. The `none` level disables
// request logging.
func Logger(l *sypl.Sypl, lvl level.Level) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		if lvl == level.None {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			l.Printlnf(lvl, "%s %s", r.Method, r.URL.Path)

			next.ServeHTTP(w, r)
		})
	}
}

// SuppressIdentity strips the default identifying headers (`Server`, and
// `X-Powered-By`) from every response before the header block is written.
func SuppressIdentity() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(&identityScrubber{ResponseWriter: w}, r)
		})
	}
}

// Compression compresses responses when the client accepts it.
func Compression() mux.MiddlewareFunc {
	return handlers.CompressHandler
}

// ProxyHeaders populates the request with `X-Forwarded-*` information from a
// fronting proxy. Only enable behind a trusted proxy.
func ProxyHeaders() mux.MiddlewareFunc {
	return handlers.ProxyHeaders
}

// identityScrubber removes identifying headers at write time, covering
// handlers that set them late.
type identityScrubber struct {
	http.ResponseWriter

	wroteHeader bool
}

func (s *identityScrubber) WriteHeader(statusCode int) {
	if !s.wroteHeader {
		s.Header().Del("Server")
		s.Header().Del("X-Powered-By")

		s.wroteHeader = true
	}

	s.ResponseWriter.WriteHeader(statusCode)
}

func (s *identityScrubber) Write(b []byte) (int, error) {
	if !s.wroteHeader {
		s.WriteHeader(http.StatusOK)
	}

	return s.ResponseWriter.Write(b)
}
