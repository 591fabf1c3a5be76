// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package request provides utilities for extracting data from HTTP requests.

It abstracts away the underlying router's parameter extraction and common
body decoding patterns, ensuring consistent error handling and type safety.
*/
package requestutil

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/tagtree/internal/platform/validate"
	"github.com/taibuivan/tagtree/pkg/convert"
	"github.com/taibuivan/tagtree/pkg/query"
)

/*
DecodeJSON reads the request body and decodes it into the target structure.

Parameters:
  - request: *http.Request
  - target: any (Pointer to the destination struct)

Returns:
  - error: validate.ErrInvalidJSON if decoding fails, otherwise nil
*/
func DecodeJSON(request *http.Request, target any) error {
	if err := json.NewDecoder(request.Body).Decode(target); err != nil {
		return validate.ErrInvalidJSON
	}
	return nil
}

/*
ID retrieves a named URL parameter holding an identifier.
Surrounding whitespace is stripped.
*/
func ID(request *http.Request, name string) string {
	return strings.TrimSpace(chi.URLParam(request, name))
}

/*
Param retrieves a named URL parameter from the request.
*/
func Param(request *http.Request, name string) string {
	return chi.URLParam(request, name)
}

/*
OptionalQuery returns a pointer to a trimmed query parameter, or nil when the
parameter is absent or blank.
*/
func OptionalQuery(request *http.Request, name string) *string {
	value := strings.TrimSpace(request.URL.Query().Get(name))
	if value == "" {
		return nil
	}
	return &value
}

/*
QueryList returns the comma-separated and repeated values of a query parameter.
*/
func QueryList(request *http.Request, name string) []string {
	return query.StringValues(request.URL.Query()[name])
}

/*
QueryBool parses a boolean query parameter, returning fallback when absent.
*/
func QueryBool(request *http.Request, name string, fallback bool) bool {
	raw := request.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	return convert.ToBool(raw)
}
