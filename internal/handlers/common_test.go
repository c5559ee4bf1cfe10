package handlers

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/svsf-edu/enrollment-service/internal/services"
	"github.com/svsf-edu/enrollment-service/internal/utils"
)

func newTestContext(t *testing.T) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()

	gin.SetMode(gin.TestMode)
	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, recorder
}

func TestHandleServiceError_AccessDenied(t *testing.T) {
	handler := NewBaseHandler(utils.NewSlogLogger(slog.Default()))

	// Role denials and unknown actors must be indistinguishable: same status,
	// same body, no detail about what was denied or why.
	t.Run("permission error and unauthorized produce the same response", func(t *testing.T) {
		c1, rec1 := newTestContext(t)
		handler.handleServiceError(c1, services.NewPermissionError("user-1", "application", "transition", "role STUDENT is not staff"))

		c2, rec2 := newTestContext(t)
		handler.handleServiceError(c2, services.ErrUnauthorized)

		if rec1.Code != http.StatusForbidden || rec2.Code != http.StatusForbidden {
			t.Fatalf("Expected 403 for both, got %d and %d", rec1.Code, rec2.Code)
		}
		if rec1.Body.String() != rec2.Body.String() {
			t.Errorf("Denial responses must match: %q vs %q", rec1.Body.String(), rec2.Body.String())
		}
	})

	t.Run("denial body carries no resource or reason detail", func(t *testing.T) {
		c, rec := newTestContext(t)
		handler.handleServiceError(c, services.NewPermissionError("user-1", "application", "override", "requires SUPER_ADMIN"))

		body := strings.ToLower(rec.Body.String())
		for _, leak := range []string{"resource", "operation", "reason", "super_admin", "details"} {
			if strings.Contains(body, leak) {
				t.Errorf("Denial body should not contain %q: %s", leak, body)
			}
		}
	})
}
