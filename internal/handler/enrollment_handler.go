package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ermix/school-api/internal/models"
	"github.com/ermix/school-api/internal/service"
	appErrors "github.com/ermix/school-api/pkg/errors"
	"github.com/ermix/school-api/pkg/response"
)

// EnrollmentHandler exposes enrollment endpoints.
type EnrollmentHandler struct {
	enrollments *service.EnrollmentService
}

// NewEnrollmentHandler constructs EnrollmentHandler.
func NewEnrollmentHandler(enrollments *service.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollments: enrollments}
}

type enrollPayload struct {
	StudentID      string `json:"student_id"`
	CourseID       string `json:"course_id"`
	EnrollmentDate string `json:"enrollment_date"`
}

type statusPayload struct {
	Status string `json:"status"`
}

// List godoc
// @Summary List enrollments
// @Tags Enrollments
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /enrollments [get]
func (h *EnrollmentHandler) List(c *gin.Context) {
	enrollments, err := h.enrollments.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	respondList(c, enrollments)
}

// Get godoc
// @Summary Get enrollment by id
// @Tags Enrollments
// @Produce json
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Router /enrollments/{id} [get]
func (h *EnrollmentHandler) Get(c *gin.Context) {
	enrollment, err := h.enrollments.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollment)
}

// ListByStudent godoc
// @Summary List a student's enrollments
// @Tags Enrollments
// @Produce json
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /enrollments/student/{studentId} [get]
func (h *EnrollmentHandler) ListByStudent(c *gin.Context) {
	enrollments, err := h.enrollments.ListByStudent(c.Request.Context(), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	respondList(c, enrollments)
}

// ListByCourse godoc
// @Summary List a course's enrollments
// @Tags Enrollments
// @Produce json
// @Param courseId path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /enrollments/course/{courseId} [get]
func (h *EnrollmentHandler) ListByCourse(c *gin.Context) {
	enrollments, err := h.enrollments.ListByCourse(c.Request.Context(), c.Param("courseId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	respondList(c, enrollments)
}

// GetByStudentAndCourse godoc
// @Summary Get the enrollment for a student and course pair
// @Tags Enrollments
// @Produce json
// @Param studentId path string true "Student ID"
// @Param courseId path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /enrollments/student/{studentId}/course/{courseId} [get]
func (h *EnrollmentHandler) GetByStudentAndCourse(c *gin.Context) {
	enrollment, err := h.enrollments.GetByStudentAndCourse(c.Request.Context(), c.Param("studentId"), c.Param("courseId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollment)
}

// ListByStatus godoc
// @Summary List enrollments by status
// @Tags Enrollments
// @Produce json
// @Param status path string true "Status" Enums(ACTIVE, DROPPED, COMPLETED)
// @Success 200 {object} response.Envelope
// @Router /enrollments/status/{status} [get]
func (h *EnrollmentHandler) ListByStatus(c *gin.Context) {
	enrollments, err := h.enrollments.ListByStatus(c.Request.Context(), models.EnrollmentStatus(c.Param("status")))
	if err != nil {
		response.Error(c, err)
		return
	}
	respondList(c, enrollments)
}

// ListByStudentAndStatus godoc
// @Summary List a student's enrollments filtered by status
// @Tags Enrollments
// @Produce json
// @Param studentId path string true "Student ID"
// @Param status path string true "Status" Enums(ACTIVE, DROPPED, COMPLETED)
// @Success 200 {object} response.Envelope
// @Router /enrollments/student/{studentId}/status/{status} [get]
func (h *EnrollmentHandler) ListByStudentAndStatus(c *gin.Context) {
	enrollments, err := h.enrollments.ListByStudentAndStatus(c.Request.Context(), c.Param("studentId"), models.EnrollmentStatus(c.Param("status")))
	if err != nil {
		response.Error(c, err)
		return
	}
	respondList(c, enrollments)
}

// ListByCourseAndStatus godoc
// @Summary List a course's enrollments filtered by status
// @Tags Enrollments
// @Produce json
// @Param courseId path string true "Course ID"
// @Param status path string true "Status" Enums(ACTIVE, DROPPED, COMPLETED)
// @Success 200 {object} response.Envelope
// @Router /enrollments/course/{courseId}/status/{status} [get]
func (h *EnrollmentHandler) ListByCourseAndStatus(c *gin.Context) {
	enrollments, err := h.enrollments.ListByCourseAndStatus(c.Request.Context(), c.Param("courseId"), models.EnrollmentStatus(c.Param("status")))
	if err != nil {
		response.Error(c, err)
		return
	}
	respondList(c, enrollments)
}

// ListByDateRange godoc
// @Summary List enrollments created within a date range
// @Tags Enrollments
// @Produce json
// @Param startDate query string true "Start date (YYYY-MM-DD)"
// @Param endDate query string true "End date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /enrollments/dateRange [get]
func (h *EnrollmentHandler) ListByDateRange(c *gin.Context) {
	start, err := parseDate(c.Query("startDate"))
	if err != nil {
		response.Error(c, err)
		return
	}
	end, err := parseDate(c.Query("endDate"))
	if err != nil {
		response.Error(c, err)
		return
	}
	enrollments, err := h.enrollments.ListByDateRange(c.Request.Context(), start, end)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondList(c, enrollments)
}

// Enroll godoc
// @Summary Enroll a student into a course
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param payload body enrollPayload true "Enrollment"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /enrollments/enroll [post]
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	var payload enrollPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	date, err := parseDate(payload.EnrollmentDate)
	if err != nil {
		response.Error(c, err)
		return
	}
	enrollment, err := h.enrollments.Enroll(c.Request.Context(), service.EnrollRequest{
		StudentID:      payload.StudentID,
		CourseID:       payload.CourseID,
		EnrollmentDate: date,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, enrollment)
}

// UpdateStatus godoc
// @Summary Update an enrollment's status
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param id path string true "Enrollment ID"
// @Param payload body statusPayload true "New status"
// @Success 200 {object} response.Envelope
// @Router /enrollments/{id}/status [put]
func (h *EnrollmentHandler) UpdateStatus(c *gin.Context) {
	var payload statusPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	enrollment, err := h.enrollments.UpdateStatus(c.Request.Context(), c.Param("id"), models.EnrollmentStatus(payload.Status))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollment)
}

// Delete godoc
// @Summary Delete an enrollment
// @Tags Enrollments
// @Param id path string true "Enrollment ID"
// @Success 204 "Deleted"
// @Router /enrollments/{id} [delete]
func (h *EnrollmentHandler) Delete(c *gin.Context) {
	if err := h.enrollments.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
