// Copyright 2024 The hostkit Authors. All rights reserved.
// Use of this source code is governed by a MIT
// license that can be found in the LICENSE file.

package handler

import (
	"net/http"
)

// Liveness indicates the server is up, and running. It follows the "standard"
// which is send "200", and "OK".
func Liveness() Handler {
	return Handler{
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")

			w.WriteHeader(http.StatusOK)

			w.Write([]byte(http.StatusText(http.StatusOK)))
		}),
		Method: http.MethodGet,
		Path:   "/liveness",
	}
}
