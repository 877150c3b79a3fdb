// Copyright 2024 The hostkit Authors. All rights reserved.
// Use of this source code is governed by a MIT
// license that can be found in the LICENSE file.

// Package validation wraps the struct validator. Full tag-driven validation
// is the strict mode the bootstrapper enables in Development only.
package validation

import (
	"github.com/go-playground/validator/v10"
	"github.com/saucelabs/customerror"
)

// Singleton, cached validator. Caches struct metadata between calls.
var validate = validator.New()

// ValidateStruct validates a struct against its `validate` tags.
func ValidateStruct(s interface{}) error {
	if err := validate.Struct(s); err != nil {
		return customerror.NewInvalidError(
			"setup",
			customerror.WithError(err),
		)
	}

	return nil
}
