package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/svsf-edu/enrollment-service/internal/services"
	"github.com/svsf-edu/enrollment-service/internal/utils"
)

type SlipHandler struct {
	BaseHandler
	slipService services.EnrollmentSlipService
}

func NewSlipHandler(slipService services.EnrollmentSlipService, logger utils.Logger) *SlipHandler {
	return &SlipHandler{
		BaseHandler: NewBaseHandler(logger),
		slipService: slipService,
	}
}

// GenerateSlip renders the enrollment slip PDF for an application.
// Each download rotates the verification code, so previously issued
// slips stop verifying.
// @Summary Download enrollment slip
// @Tags slips
// @Produce application/pdf
// @Param id path string true "Application ID"
// @Success 200 {file} binary
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /applications/{id}/slip [get]
func (h *SlipHandler) GenerateSlip(c *gin.Context) {
	applicationID := c.Param("id")

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Generating enrollment slip", "application_id", applicationID)

	artifact, err := h.slipService.Generate(c.Request.Context(), applicationID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.streamArtifact(c, artifact)
}

// AdminReport renders the staff summary PDF across all applications
// @Summary Download admin summary report
// @Tags slips
// @Produce application/pdf
// @Success 200 {file} binary
// @Failure 403 {object} ErrorResponse
// @Router /reports/applications [get]
func (h *SlipHandler) AdminReport(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Generating admin report")

	artifact, err := h.slipService.AdminReport(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.streamArtifact(c, artifact)
}
