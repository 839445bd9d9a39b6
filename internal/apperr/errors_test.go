package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestStoreWrapping(t *testing.T) {
	cause := errors.New("connection refused")
	err := Store("get election", cause)

	var se *StoreError
	assert.ErrorAs(t, err, &se)
	assert.Equal(t, "get election", se.Op)
	assert.ErrorIs(t, err, cause)

	assert.NoError(t, Store("noop", nil))
	assert.Same(t, ErrDuplicateVote, Store("insert vote", ErrDuplicateVote))
}

func TestNotFound(t *testing.T) {
	err := NotFound("election")
	assert.EqualError(t, err, "election not found")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestValidationErrors(t *testing.T) {
	errs := ValidationErrors{Invalid("title", "is required"), Invalid("options", "too few")}
	assert.EqualError(t, errs, "title: is required; options: too few")
	assert.True(t, IsValidation(errs))

	var ve *ValidationError
	assert.ErrorAs(t, fmt.Errorf("create: %w", errs), &ve)
	assert.Equal(t, "title", ve.Field)

	assert.NoError(t, ValidationErrors(nil).OrNil())
}

func TestRespond(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", Invalid("title", "is required"), http.StatusBadRequest},
		{"not found", NotFound("election"), http.StatusNotFound},
		{"duplicate vote", ErrDuplicateVote, http.StatusConflict},
		{"conflict", ErrConflict, http.StatusConflict},
		{"forbidden", fmt.Errorf("own election: %w", ErrForbidden), http.StatusForbidden},
		{"store", Store("list", errors.New("boom")), http.StatusInternalServerError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			Respond(c, nil, tt.err)
			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusInternalServerError {
				assert.NotContains(t, w.Body.String(), "boom")
			}
		})
	}
}
