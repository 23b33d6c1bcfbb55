package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ermix/school-api/internal/models"
	"github.com/ermix/school-api/internal/service"
	appErrors "github.com/ermix/school-api/pkg/errors"
	"github.com/ermix/school-api/pkg/response"
)

// GradeHandler exposes grade endpoints.
type GradeHandler struct {
	grades *service.GradeService
}

// NewGradeHandler constructs GradeHandler.
func NewGradeHandler(grades *service.GradeService) *GradeHandler {
	return &GradeHandler{grades: grades}
}

type gradePayload struct {
	EnrollmentID string  `json:"enrollment_id"`
	GradeValue   float64 `json:"grade_value"`
	GradeType    string  `json:"grade_type"`
	Comment      *string `json:"comment"`
	DateRecorded string  `json:"date_recorded"`
}

func (p gradePayload) toRequest() (service.GradeRequest, error) {
	recorded, err := parseDate(p.DateRecorded)
	if err != nil {
		return service.GradeRequest{}, err
	}
	return service.GradeRequest{
		EnrollmentID: p.EnrollmentID,
		GradeValue:   p.GradeValue,
		GradeType:    p.GradeType,
		Comment:      p.Comment,
		DateRecorded: recorded,
	}, nil
}

// respondAverage collapses a nil average into 204, matching the list
// convention for absent results.
func respondAverage(c *gin.Context, average *float64) {
	if average == nil {
		response.NoContent(c)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"average": *average})
}

// List godoc
// @Summary List grades
// @Tags Grades
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /grades [get]
func (h *GradeHandler) List(c *gin.Context) {
	grades, err := h.grades.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	respondList(c, grades)
}

// Get godoc
// @Summary Get grade by id
// @Tags Grades
// @Produce json
// @Param id path string true "Grade ID"
// @Success 200 {object} response.Envelope
// @Router /grades/{id} [get]
func (h *GradeHandler) Get(c *gin.Context) {
	grade, err := h.grades.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grade)
}

// ListByEnrollment godoc
// @Summary List grades for an enrollment
// @Tags Grades
// @Produce json
// @Param enrollmentId path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Router /grades/enrollment/{enrollmentId} [get]
func (h *GradeHandler) ListByEnrollment(c *gin.Context) {
	grades, err := h.grades.ListByEnrollment(c.Request.Context(), c.Param("enrollmentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	respondList(c, grades)
}

// AverageForEnrollment godoc
// @Summary Average grade of an enrollment
// @Tags Grades
// @Produce json
// @Param enrollmentId path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Success 204 "No grades"
// @Router /grades/enrollment/{enrollmentId}/average [get]
func (h *GradeHandler) AverageForEnrollment(c *gin.Context) {
	average, err := h.grades.AverageForEnrollment(c.Request.Context(), c.Param("enrollmentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	respondAverage(c, average)
}

// ListByStudent godoc
// @Summary List a student's grades across all courses
// @Tags Grades
// @Produce json
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /grades/student/{studentId} [get]
func (h *GradeHandler) ListByStudent(c *gin.Context) {
	grades, err := h.grades.ListByStudent(c.Request.Context(), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	respondList(c, grades)
}

// AverageForStudent godoc
// @Summary Average grade of a student across all courses
// @Tags Grades
// @Produce json
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Success 204 "No grades"
// @Router /grades/student/{studentId}/average [get]
func (h *GradeHandler) AverageForStudent(c *gin.Context) {
	average, err := h.grades.AverageForStudent(c.Request.Context(), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	respondAverage(c, average)
}

// ListByCourse godoc
// @Summary List all grades recorded in a course
// @Tags Grades
// @Produce json
// @Param courseId path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /grades/course/{courseId} [get]
func (h *GradeHandler) ListByCourse(c *gin.Context) {
	grades, err := h.grades.ListByCourse(c.Request.Context(), c.Param("courseId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	respondList(c, grades)
}

// AverageForCourse godoc
// @Summary Average of all grades in a course
// @Tags Grades
// @Produce json
// @Param courseId path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Success 204 "No grades"
// @Router /grades/course/{courseId}/average [get]
func (h *GradeHandler) AverageForCourse(c *gin.Context) {
	average, err := h.grades.AverageForCourse(c.Request.Context(), c.Param("courseId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	respondAverage(c, average)
}

// ListByStudentAndCourse godoc
// @Summary List a student's grades within one course
// @Tags Grades
// @Produce json
// @Param studentId path string true "Student ID"
// @Param courseId path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /grades/student/{studentId}/course/{courseId} [get]
func (h *GradeHandler) ListByStudentAndCourse(c *gin.Context) {
	grades, err := h.grades.ListByStudentAndCourse(c.Request.Context(), c.Param("studentId"), c.Param("courseId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	respondList(c, grades)
}

// ListByType godoc
// @Summary List grades by assessment type
// @Tags Grades
// @Produce json
// @Param type path string true "Type" Enums(ASSIGNMENT, QUIZ, MIDTERM, FINAL, PROJECT)
// @Success 200 {object} response.Envelope
// @Router /grades/type/{type} [get]
func (h *GradeHandler) ListByType(c *gin.Context) {
	grades, err := h.grades.ListByType(c.Request.Context(), models.GradeType(c.Param("type")))
	if err != nil {
		response.Error(c, err)
		return
	}
	respondList(c, grades)
}

// ListByDateRange godoc
// @Summary List grades recorded within a date range
// @Tags Grades
// @Produce json
// @Param startDate query string true "Start date (YYYY-MM-DD)"
// @Param endDate query string true "End date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /grades/dateRange [get]
func (h *GradeHandler) ListByDateRange(c *gin.Context) {
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
	grades, err := h.grades.ListByDateRange(c.Request.Context(), start, end)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondList(c, grades)
}

// Create godoc
// @Summary Record a grade
// @Tags Grades
// @Accept json
// @Produce json
// @Param payload body gradePayload true "Grade"
// @Success 201 {object} response.Envelope
// @Router /grades [post]
func (h *GradeHandler) Create(c *gin.Context) {
	var payload gradePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	req, err := payload.toRequest()
	if err != nil {
		response.Error(c, err)
		return
	}
	grade, err := h.grades.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, grade)
}

// Update godoc
// @Summary Update a grade
// @Tags Grades
// @Accept json
// @Produce json
// @Param id path string true "Grade ID"
// @Param payload body gradePayload true "Grade"
// @Success 200 {object} response.Envelope
// @Router /grades/{id} [put]
func (h *GradeHandler) Update(c *gin.Context) {
	var payload gradePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	req, err := payload.toRequest()
	if err != nil {
		response.Error(c, err)
		return
	}
	grade, err := h.grades.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grade)
}

// Delete godoc
// @Summary Delete a grade
// @Tags Grades
// @Param id path string true "Grade ID"
// @Success 204 "Deleted"
// @Router /grades/{id} [delete]
func (h *GradeHandler) Delete(c *gin.Context) {
	if err := h.grades.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
