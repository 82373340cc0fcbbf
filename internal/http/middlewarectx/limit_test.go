package middlewarectx_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/magabrotheeeer/subscription-manager/internal/http/middlewarectx"
)

func TestRateLimitMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	mw := middlewarectx.RateLimitMiddleware(newNoopLogger())(next)

	var okCount, limitedCount int
	// Заметно больше ёмкости burst, чтобы гарантированно упереться в лимит.
	for range 100 {
		req := httptest.NewRequest(http.MethodGet, "/somepath", nil)
		rec := httptest.NewRecorder()
		mw.ServeHTTP(rec, req)

		switch rec.Code {
		case http.StatusOK:
			okCount++
		case http.StatusTooManyRequests:
			limitedCount++
		}
	}

	assert.Positive(t, okCount)
	assert.Positive(t, limitedCount)
}
