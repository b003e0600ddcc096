package utils

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"invalid", E(CodeInvalidArgument, "op", "bad", nil), http.StatusBadRequest},
		{"not found", E(CodeNotFound, "op", "missing", ErrNotFound), http.StatusNotFound},
		{"forbidden", E(CodeForbidden, "op", "closed", nil), http.StatusForbidden},
		{"too large", E(CodeTooLarge, "op", "big", nil), http.StatusRequestEntityTooLarge},
		{"bare sentinel", fmt.Errorf("lookup: %w", ErrNotFound), http.StatusNotFound},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, HTTPStatus(tc.err))
		})
	}
}

func TestSafeMessageHidesCause(t *testing.T) {
	err := E(CodeInternal, "SubmissionService.Create", "failed to create submission", errors.New("pq: relation does not exist"))

	assert.Equal(t, "failed to create submission", SafeMessage(err))
	assert.Contains(t, err.Error(), "pq: relation does not exist")
	assert.Equal(t, "Internal Server Error", SafeMessage(errors.New("raw")))
}

func TestIsCodeUnwrapsChain(t *testing.T) {
	inner := E(CodeNotFound, "repo", "submission not found", ErrNotFound)
	wrapped := fmt.Errorf("handler: %w", inner)

	assert.True(t, IsCode(wrapped, CodeNotFound))
	assert.False(t, IsCode(nil, CodeNotFound))
	assert.True(t, errors.Is(wrapped, ErrNotFound))
}
