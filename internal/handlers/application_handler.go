package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/svsf-edu/enrollment-service/internal/services"
	"github.com/svsf-edu/enrollment-service/internal/utils"
	"github.com/svsf-edu/enrollment-service/internal/validator"
)

type ApplicationHandler struct {
	BaseHandler
	applicationService services.ApplicationService
	validator          *validator.Validator
}

func NewApplicationHandler(
	applicationService services.ApplicationService,
	validator *validator.Validator,
	logger utils.Logger,
) *ApplicationHandler {
	return &ApplicationHandler{
		BaseHandler:        NewBaseHandler(logger),
		applicationService: applicationService,
		validator:          validator,
	}
}

// SubmitApplication creates a new enrollment application
// @Summary Submit application
// @Description Submits a new enrollment application for the authenticated account
// @Tags applications
// @Accept json
// @Produce json
// @Param application body services.SubmitApplicationRequest true "Application data"
// @Success 201 {object} services.ApplicationResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /applications [post]
func (h *ApplicationHandler) SubmitApplication(c *gin.Context) {
	var req services.SubmitApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Submitting application", "grade_level", req.GradeLevel)

	application, err := h.applicationService.Submit(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, application)
}

// ListOwnApplications lists the authenticated account's applications
// @Summary List own applications
// @Tags applications
// @Produce json
// @Success 200 {array} services.ApplicationResponse
// @Failure 401 {object} ErrorResponse
// @Router /applications/mine [get]
func (h *ApplicationHandler) ListOwnApplications(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	applications, err := h.applicationService.ListOwn(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, applications)
}

// CountOwnApplications returns how many applications the account has filed
// @Summary Count own applications
// @Tags applications
// @Produce json
// @Success 200 {object} map[string]int64
// @Failure 401 {object} ErrorResponse
// @Router /applications/mine/count [get]
func (h *ApplicationHandler) CountOwnApplications(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	count, err := h.applicationService.CountOwn(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": count})
}

// ListApplications lists applications with admin filters
// @Summary List applications
// @Description Lists applications filtered by status, grade level and strand
// @Tags applications
// @Produce json
// @Param status query string false "Status filter, ALL for no filter"
// @Param grade_level query string false "Grade level filter"
// @Param strand query string false "Strand filter"
// @Param page query int false "Page number"
// @Param size query int false "Page size"
// @Success 200 {object} services.ApplicationListResponse
// @Failure 403 {object} ErrorResponse
// @Router /applications [get]
func (h *ApplicationHandler) ListApplications(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	req := h.parseListRequest(c)

	applications, err := h.applicationService.List(c.Request.Context(), req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, applications)
}

// UpdateApplicationStatus moves an application along the review lifecycle
// @Summary Update application status
// @Tags applications
// @Accept json
// @Produce json
// @Param id path string true "Application ID"
// @Param status body services.UpdateStatusRequest true "Target status"
// @Success 200 {object} services.ApplicationResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /applications/{id}/status [put]
func (h *ApplicationHandler) UpdateApplicationStatus(c *gin.Context) {
	applicationID := c.Param("id")

	var req services.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Updating application status", "application_id", applicationID, "status", req.Status)

	application, err := h.applicationService.Transition(c.Request.Context(), applicationID, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, application)
}

// OverrideApplicationStatus forces an application into a status, skipping
// the lifecycle adjacency rules
// @Summary Override application status
// @Tags applications
// @Accept json
// @Produce json
// @Param id path string true "Application ID"
// @Param status body services.UpdateStatusRequest true "Target status"
// @Success 200 {object} services.ApplicationResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /applications/{id}/status/override [put]
func (h *ApplicationHandler) OverrideApplicationStatus(c *gin.Context) {
	applicationID := c.Param("id")

	var req services.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Overriding application status", "application_id", applicationID, "status", req.Status)

	application, err := h.applicationService.OverrideStatus(c.Request.Context(), applicationID, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, application)
}

// GetVerificationMetadata returns the staff-facing slip metadata
// @Summary Get verification metadata
// @Tags applications
// @Produce json
// @Param id path string true "Application ID"
// @Success 200 {object} services.VerificationMetadataResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /applications/{id}/verification [get]
func (h *ApplicationHandler) GetVerificationMetadata(c *gin.Context) {
	applicationID := c.Param("id")

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	metadata, err := h.applicationService.VerificationMetadata(c.Request.Context(), applicationID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, metadata)
}

// GetApplicationStats returns aggregate application counts
// @Summary Get application statistics
// @Tags applications
// @Produce json
// @Success 200 {object} repositories.ApplicationStats
// @Failure 403 {object} ErrorResponse
// @Router /applications/stats [get]
func (h *ApplicationHandler) GetApplicationStats(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	stats, err := h.applicationService.GetStats(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// ExportApplications streams the filtered application list as a spreadsheet
// @Summary Export applications
// @Tags applications
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param status query string false "Status filter, ALL for no filter"
// @Param grade_level query string false "Grade level filter"
// @Param strand query string false "Strand filter"
// @Success 200 {file} binary
// @Failure 403 {object} ErrorResponse
// @Router /applications/export [get]
func (h *ApplicationHandler) ExportApplications(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	req := h.parseListRequest(c)

	h.LogRequest(c, "Exporting applications", "status", req.Status, "grade_level", req.GradeLevel)

	artifact, err := h.applicationService.Export(c.Request.Context(), req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.streamArtifact(c, artifact)
}

func (h *ApplicationHandler) parseListRequest(c *gin.Context) services.ListApplicationsRequest {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "50"))

	return services.ListApplicationsRequest{
		Status:     c.Query("status"),
		GradeLevel: c.Query("grade_level"),
		Strand:     c.Query("strand"),
		Page:       page,
		Size:       size,
	}
}
