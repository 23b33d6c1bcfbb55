package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ermix/school-api/internal/service"
	appErrors "github.com/ermix/school-api/pkg/errors"
	"github.com/ermix/school-api/pkg/response"
)

// CourseHandler exposes course endpoints.
type CourseHandler struct {
	courses *service.CourseService
}

// NewCourseHandler constructs CourseHandler.
func NewCourseHandler(courses *service.CourseService) *CourseHandler {
	return &CourseHandler{courses: courses}
}

// List godoc
// @Summary List courses
// @Tags Courses
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *CourseHandler) List(c *gin.Context) {
	courses, err := h.courses.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	respondList(c, courses)
}

// Get godoc
// @Summary Get course by id
// @Tags Courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id} [get]
func (h *CourseHandler) Get(c *gin.Context) {
	course, err := h.courses.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course)
}

// GetByCode godoc
// @Summary Get course by course code
// @Tags Courses
// @Produce json
// @Param code path string true "Course code"
// @Success 200 {object} response.Envelope
// @Router /courses/code/{code} [get]
func (h *CourseHandler) GetByCode(c *gin.Context) {
	course, err := h.courses.GetByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course)
}

// ListByTitle godoc
// @Summary List courses by title fragment
// @Tags Courses
// @Produce json
// @Param title path string true "Title fragment"
// @Success 200 {object} response.Envelope
// @Router /courses/title/{title} [get]
func (h *CourseHandler) ListByTitle(c *gin.Context) {
	courses, err := h.courses.ListByTitle(c.Request.Context(), c.Param("title"))
	if err != nil {
		response.Error(c, err)
		return
	}
	respondList(c, courses)
}

// ListByCredits godoc
// @Summary List courses by credit value
// @Tags Courses
// @Produce json
// @Param credits path int true "Credits"
// @Success 200 {object} response.Envelope
// @Router /courses/credits/{credits} [get]
func (h *CourseHandler) ListByCredits(c *gin.Context) {
	credits, err := strconv.Atoi(c.Param("credits"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "credits must be an integer"))
		return
	}
	courses, err := h.courses.ListByCredits(c.Request.Context(), credits)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondList(c, courses)
}

// ListByTeacher godoc
// @Summary List courses taught by a teacher
// @Tags Courses
// @Produce json
// @Param teacherId path string true "Teacher ID"
// @Success 200 {object} response.Envelope
// @Router /courses/teacher/{teacherId} [get]
func (h *CourseHandler) ListByTeacher(c *gin.Context) {
	courses, err := h.courses.ListByTeacher(c.Request.Context(), c.Param("teacherId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	respondList(c, courses)
}

// ListBySpecialty godoc
// @Summary List courses whose teacher has the specialty
// @Tags Courses
// @Produce json
// @Param specialty path string true "Specialty"
// @Success 200 {object} response.Envelope
// @Router /courses/specialty/{specialty} [get]
func (h *CourseHandler) ListBySpecialty(c *gin.Context) {
	courses, err := h.courses.ListBySpecialty(c.Request.Context(), c.Param("specialty"))
	if err != nil {
		response.Error(c, err)
		return
	}
	respondList(c, courses)
}

// ListByStudent godoc
// @Summary List courses a student is enrolled in
// @Tags Courses
// @Produce json
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /courses/student/{studentId} [get]
func (h *CourseHandler) ListByStudent(c *gin.Context) {
	courses, err := h.courses.ListByStudent(c.Request.Context(), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	respondList(c, courses)
}

// ListAvailable godoc
// @Summary List courses that can still accept enrollments
// @Tags Courses
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /courses/available [get]
func (h *CourseHandler) ListAvailable(c *gin.Context) {
	courses, err := h.courses.ListWithAvailableSeats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	respondList(c, courses)
}

// Availability godoc
// @Summary Check whether a course can accept another enrollment
// @Tags Courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/availability [get]
func (h *CourseHandler) Availability(c *gin.Context) {
	available, err := h.courses.IsAvailable(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"available": available})
}

// Create godoc
// @Summary Create a course
// @Tags Courses
// @Accept json
// @Produce json
// @Param payload body service.CourseRequest true "Course"
// @Success 201 {object} response.Envelope
// @Router /courses [post]
func (h *CourseHandler) Create(c *gin.Context) {
	var req service.CourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	course, err := h.courses.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, course)
}

// Update godoc
// @Summary Create or replace a course under the given id
// @Tags Courses
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param payload body service.CourseRequest true "Course"
// @Success 200 {object} response.Envelope
// @Router /courses/{id} [put]
func (h *CourseHandler) Update(c *gin.Context) {
	var req service.CourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	course, err := h.courses.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course)
}

// Delete godoc
// @Summary Delete a course
// @Tags Courses
// @Param id path string true "Course ID"
// @Success 204 "Deleted"
// @Router /courses/{id} [delete]
func (h *CourseHandler) Delete(c *gin.Context) {
	if err := h.courses.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
