package response

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"coworking/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestFromError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", domain.NotFound("booking"), http.StatusNotFound, "NOT_FOUND"},
		{"validation", domain.Validationf("bad interval"), http.StatusBadRequest, "VALIDATION_ERROR"},
		{"conflict", domain.Conflictf("room unavailable"), http.StatusConflict, "CONFLICT"},
		{"state", domain.StateConflict("refund request", "approve", domain.RefundRejected), http.StatusConflict, "STATE_CONFLICT"},
		{"forbidden", domain.Forbiddenf("not your room"), http.StatusForbidden, "FORBIDDEN"},
		{"external", domain.External("gateway refund failed", errors.New("timeout")), http.StatusBadGateway, "EXTERNAL_FAILURE"},
		{"wrapped", fmt.Errorf("confirm: %w", domain.NotFound("booking")), http.StatusNotFound, "NOT_FOUND"},
		{"unknown", errors.New("disk full"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			FromError(c, tc.err)
			assert.Equal(t, tc.status, w.Code)
			assert.Contains(t, w.Body.String(), tc.code)
			assert.Contains(t, w.Body.String(), `"success":false`)
		})
	}
}

func TestFromError_StateConflictNamesCurrentStatus(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	FromError(c, domain.StateConflict("refund request", "approve", domain.RefundApprovedByOwner))
	assert.Contains(t, w.Body.String(), `"current_status":"approved_by_owner"`)
}
