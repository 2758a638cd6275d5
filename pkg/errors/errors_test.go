package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"app error wins", Validation("text is required"), http.StatusBadRequest},
		{"wrapped syntax", fmt.Errorf("parse: %w", ErrQuerySyntax), http.StatusBadRequest},
		{"pattern", ErrInvalidPattern, http.StatusBadRequest},
		{"not found", NotFound("document %d not found", 7), http.StatusNotFound},
		{"unknown method", ErrUnknownMethod, http.StatusNotFound},
		{"rate limited", ErrRateLimited, http.StatusTooManyRequests},
		{"timeout", ErrTimeout, http.StatusServiceUnavailable},
		{"anything else", fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, HTTPStatusCode(tc.err))
		})
	}
}

func TestPublicMessageHidesInternals(t *testing.T) {
	assert.Equal(t, "internal error", PublicMessage(Internal("NaN distance for doc %d", 3)))
	assert.Equal(t, "internal error", PublicMessage(fmt.Errorf("pq: connection refused")))
	assert.Equal(t, "text is required", PublicMessage(Validation("text is required")))
	assert.Equal(t, ErrTimeout.Error(), PublicMessage(fmt.Errorf("cluster: %w", ErrTimeout)))
}

func TestAppErrorUnwrap(t *testing.T) {
	err := Syntax("unexpected %q at position %d", ")", 4)
	assert.ErrorIs(t, err, ErrQuerySyntax)
	assert.Equal(t, `query syntax error: unexpected ")" at position 4`, err.Error())
}
