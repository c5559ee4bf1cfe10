package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/svsf-edu/enrollment-service/internal/services"
	"github.com/svsf-edu/enrollment-service/internal/utils"
)

type VerificationHandler struct {
	BaseHandler
	verificationService services.VerificationService
}

func NewVerificationHandler(verificationService services.VerificationService, logger utils.Logger) *VerificationHandler {
	return &VerificationHandler{
		BaseHandler:         NewBaseHandler(logger),
		verificationService: verificationService,
	}
}

// VerifySlip checks a slug and verification code claim from a printed slip.
// This endpoint is public, the response carries only the redacted view.
// @Summary Verify enrollment slip
// @Tags verification
// @Accept json
// @Produce json
// @Param claim body services.VerifyRequest true "Slug and verification code"
// @Success 200 {object} services.VerifiedApplicationView
// @Failure 400 {object} ErrorResponse
// @Failure 429 {object} ErrorResponse
// @Router /verification/verify [post]
func (h *VerificationHandler) VerifySlip(c *gin.Context) {
	var req services.VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	view, err := h.verificationService.Verify(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}
