// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/tagtree/internal/platform/apperr"
)

/*
TestResult verifies the outcome label derived from errors.
*/
func TestResult(t *testing.T) {
	assert.Equal(t, "ok", Result(nil))
	assert.Equal(t, "not_found", Result(apperr.NotFound("Tag")))
	assert.Equal(t, "cycle_detected", Result(apperr.Cycle("loop")))
	assert.Equal(t, "internal_error", Result(errors.New("boom")))
}

/*
TestObserveNoteQuery verifies that a query increments its match counter.
*/
func TestObserveNoteQuery(t *testing.T) {
	before := testutil.ToFloat64(noteQueries.WithLabelValues("all"))

	ObserveNoteQuery("all", 5*time.Millisecond)

	assert.Equal(t, before+1, testutil.ToFloat64(noteQueries.WithLabelValues("all")))
}
