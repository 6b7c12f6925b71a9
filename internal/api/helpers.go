// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

package api

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/big-teddy/Qupid-sub001/internal/auth"
	"github.com/big-teddy/Qupid-sub001/internal/validation"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// decodeAndValidate reads a JSON body into dst and validates it. The
// returned error is ready for respondError.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if err == io.EOF {
			return fmt.Errorf("%w: body is empty", ErrInvalidBody)
		}
		return fmt.Errorf("%w: %s", ErrInvalidBody, err.Error())
	}
	if verr := validation.ValidateStruct(dst); verr != nil {
		return verr
	}
	return nil
}

// getIntParam parses a query parameter, returning defaultValue when it is
// missing or malformed.
func getIntParam(r *http.Request, key string, defaultValue int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue
	}
	return v
}

func getBoolParam(r *http.Request, key string) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get(key))
	return err == nil && v
}

// userID returns the authenticated user. Routes behind Authenticate always
// have one.
func userID(r *http.Request) string {
	return auth.UserIDFromContext(r.Context())
}
