// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package tag_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/tagtree/internal/core/tag"
	"github.com/taibuivan/tagtree/internal/platform/apperr"
	"github.com/taibuivan/tagtree/internal/platform/memdb"
)

func newRouter() chi.Router {
	service := tag.NewService(tag.NewMemoryRepository(memdb.New()), discardLogger())
	router := chi.NewRouter()
	router.Route("/tags", tag.NewHandler(service).RegisterRoutes)
	return router
}

func do(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	request := httptest.NewRequest(method, path, strings.NewReader(body))
	request.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)
	return recorder
}

func decode[T any](t *testing.T, recorder *httptest.ResponseRecorder) T {
	t.Helper()
	var envelope struct {
		Data T `json:"data"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &envelope))
	return envelope.Data
}

func errorCode(t *testing.T, recorder *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	return body.Code
}

func TestHandler_TagLifecycle(t *testing.T) {
	router := newRouter()

	// 1. Create a root and a child
	recorder := do(t, router, http.MethodPost, "/tags", `{"name":"Work"}`)
	require.Equal(t, http.StatusCreated, recorder.Code)
	work := decode[tag.Tag](t, recorder)

	recorder = do(t, router, http.MethodPost, "/tags", `{"name":"Project-A","parent_id":"`+work.ID+`"}`)
	require.Equal(t, http.StatusCreated, recorder.Code)
	project := decode[tag.Tag](t, recorder)

	// 2. Closure views
	recorder = do(t, router, http.MethodGet, "/tags/"+project.ID+"/ancestors", "")
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, []string{work.ID}, ids(decode[[]*tag.Tag](t, recorder)))

	recorder = do(t, router, http.MethodGet, "/tags/"+work.ID+"/descendants", "")
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, []string{project.ID}, ids(decode[[]*tag.Tag](t, recorder)))

	recorder = do(t, router, http.MethodGet, "/tags/"+work.ID+"/children", "")
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, []string{project.ID}, ids(decode[[]*tag.Tag](t, recorder)))

	recorder = do(t, router, http.MethodGet, "/tags/tree", "")
	require.Equal(t, http.StatusOK, recorder.Code)
	forest := decode[[]*tag.TagTreeNode](t, recorder)
	require.Len(t, forest, 1)
	require.Len(t, forest[0].Children, 1)
	assert.Equal(t, project.ID, forest[0].Children[0].ID)

	// 3. Rejected move
	recorder = do(t, router, http.MethodPut, "/tags/"+work.ID+"/parent", `{"parent_id":"`+project.ID+`"}`)
	assert.Equal(t, http.StatusConflict, recorder.Code)
	assert.Equal(t, apperr.CodeCycle, errorCode(t, recorder))

	// 4. Move to root
	recorder = do(t, router, http.MethodPut, "/tags/"+project.ID+"/parent", `{"parent_id":null}`)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Nil(t, decode[tag.Tag](t, recorder).ParentID)

	recorder = do(t, router, http.MethodGet, "/tags/roots", "")
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Len(t, decode[[]*tag.Tag](t, recorder), 2)

	// 5. Patch
	recorder = do(t, router, http.MethodPatch, "/tags/"+work.ID, `{"name":"Job","color":"#abcdef"}`)
	require.Equal(t, http.StatusOK, recorder.Code)
	patched := decode[tag.Tag](t, recorder)
	assert.Equal(t, "Job", patched.Name)
	assert.Equal(t, "#abcdef", patched.Color)

	// 6. Delete
	recorder = do(t, router, http.MethodDelete, "/tags/"+work.ID, "")
	assert.Equal(t, http.StatusNoContent, recorder.Code)

	recorder = do(t, router, http.MethodGet, "/tags/"+work.ID, "")
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestHandler_Errors(t *testing.T) {
	router := newRouter()

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		code   string
	}{
		{"invalid_json", http.MethodPost, "/tags", `{`, http.StatusBadRequest, apperr.CodeValidation},
		{"blank_name", http.MethodPost, "/tags", `{"name":"  "}`, http.StatusBadRequest, apperr.CodeValidation},
		{"missing_parent", http.MethodPost, "/tags", `{"name":"A","parent_id":"nope"}`, http.StatusNotFound, apperr.CodeNotFound},
		{"blank_parent", http.MethodPost, "/tags", `{"name":"A","parent_id":"  "}`, http.StatusBadRequest, apperr.CodeValidation},
		{"empty_patch", http.MethodPatch, "/tags/nope", `{}`, http.StatusBadRequest, apperr.CodeValidation},
		{"patch_missing", http.MethodPatch, "/tags/nope", `{"name":"B"}`, http.StatusNotFound, apperr.CodeNotFound},
		{"move_missing", http.MethodPut, "/tags/nope/parent", `{"parent_id":null}`, http.StatusNotFound, apperr.CodeNotFound},
		{"delete_missing", http.MethodDelete, "/tags/nope", ``, http.StatusNotFound, apperr.CodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := do(t, router, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, recorder.Code)
			assert.Equal(t, tt.code, errorCode(t, recorder))
		})
	}
}

func TestHandler_RejectedPatchChangesNothing(t *testing.T) {
	router := newRouter()

	recorder := do(t, router, http.MethodPost, "/tags", `{"name":"Work"}`)
	require.Equal(t, http.StatusCreated, recorder.Code)
	work := decode[tag.Tag](t, recorder)

	body := `{"name":"Renamed","color":"` + strings.Repeat("c", 65) + `"}`
	recorder = do(t, router, http.MethodPatch, "/tags/"+work.ID, body)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Equal(t, apperr.CodeValidation, errorCode(t, recorder))

	recorder = do(t, router, http.MethodGet, "/tags/"+work.ID, "")
	require.Equal(t, http.StatusOK, recorder.Code)
	got := decode[tag.Tag](t, recorder)
	assert.Equal(t, "Work", got.Name)
	assert.Equal(t, work.Color, got.Color)
}

func TestHandler_ListTagsByName(t *testing.T) {
	router := newRouter()

	for _, body := range []string{`{"name":"Work"}`, `{"name":"work"}`, `{"name":"Home"}`} {
		require.Equal(t, http.StatusCreated, do(t, router, http.MethodPost, "/tags", body).Code)
	}

	recorder := do(t, router, http.MethodGet, "/tags?name=WORK", "")
	require.Equal(t, http.StatusOK, recorder.Code)
	names := []string{}
	for _, found := range decode[[]*tag.Tag](t, recorder) {
		names = append(names, found.Name)
	}
	assert.Equal(t, []string{"Work", "work"}, names)

	recorder = do(t, router, http.MethodGet, "/tags?name=Office", "")
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.JSONEq(t, `{"data":[]}`, strings.TrimSpace(recorder.Body.String()))

	recorder = do(t, router, http.MethodGet, "/tags", "")
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Len(t, decode[[]*tag.Tag](t, recorder), 3)
}

func TestHandler_ReadsOfUnknownTagsAreEmpty(t *testing.T) {
	router := newRouter()

	for _, path := range []string{"/tags/nope/ancestors", "/tags/nope/descendants", "/tags/nope/children", "/tags/tree?root=nope"} {
		recorder := do(t, router, http.MethodGet, path, "")
		assert.Equal(t, http.StatusOK, recorder.Code, path)
		assert.JSONEq(t, `{"data":[]}`, strings.TrimSpace(recorder.Body.String()), path)
	}
}
