package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ermix/school-api/internal/models"
	"github.com/ermix/school-api/internal/service"
	appErrors "github.com/ermix/school-api/pkg/errors"
	"github.com/ermix/school-api/pkg/response"
)

// StudentHandler exposes student endpoints.
type StudentHandler struct {
	students *service.StudentService
}

// NewStudentHandler constructs StudentHandler.
func NewStudentHandler(students *service.StudentService) *StudentHandler {
	return &StudentHandler{students: students}
}

type studentPayload struct {
	FirstName      string  `json:"first_name"`
	LastName       string  `json:"last_name"`
	Email          string  `json:"email"`
	DateOfBirth    string  `json:"date_of_birth"`
	Address        *string `json:"address"`
	PhoneNumber    *string `json:"phone_number"`
	EnrollmentDate string  `json:"enrollment_date"`
}

func (p studentPayload) toRequest() (service.StudentRequest, error) {
	dob, err := parseDate(p.DateOfBirth)
	if err != nil {
		return service.StudentRequest{}, err
	}
	enrolled, err := parseDate(p.EnrollmentDate)
	if err != nil {
		return service.StudentRequest{}, err
	}
	return service.StudentRequest{
		FirstName:      p.FirstName,
		LastName:       p.LastName,
		Email:          p.Email,
		DateOfBirth:    dob,
		Address:        p.Address,
		PhoneNumber:    p.PhoneNumber,
		EnrollmentDate: enrolled,
	}, nil
}

// List godoc
// @Summary List students
// @Tags Students
// @Produce json
// @Success 200 {object} response.Envelope
// @Success 204 "No students"
// @Router /students [get]
func (h *StudentHandler) List(c *gin.Context) {
	students, err := h.students.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	respondList(c, students)
}

// Get godoc
// @Summary Get student by id
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id} [get]
func (h *StudentHandler) Get(c *gin.Context) {
	student, err := h.students.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student)
}

// GetByEmail godoc
// @Summary Get student by email
// @Tags Students
// @Produce json
// @Param email path string true "Email"
// @Success 200 {object} response.Envelope
// @Router /students/email/{email} [get]
func (h *StudentHandler) GetByEmail(c *gin.Context) {
	student, err := h.students.GetByEmail(c.Request.Context(), c.Param("email"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student)
}

// ListByLastName godoc
// @Summary List students by last name
// @Tags Students
// @Produce json
// @Param lastName path string true "Last name"
// @Success 200 {object} response.Envelope
// @Router /students/lastName/{lastName} [get]
func (h *StudentHandler) ListByLastName(c *gin.Context) {
	students, err := h.students.ListByLastName(c.Request.Context(), c.Param("lastName"))
	if err != nil {
		response.Error(c, err)
		return
	}
	respondList(c, students)
}

// ListByName godoc
// @Summary List students by first and last name
// @Tags Students
// @Produce json
// @Param firstName query string true "First name"
// @Param lastName query string true "Last name"
// @Success 200 {object} response.Envelope
// @Router /students/name [get]
func (h *StudentHandler) ListByName(c *gin.Context) {
	students, err := h.students.ListByName(c.Request.Context(), c.Query("firstName"), c.Query("lastName"))
	if err != nil {
		response.Error(c, err)
		return
	}
	respondList(c, students)
}

// ListByEnrollmentDate godoc
// @Summary List students by enrollment date
// @Tags Students
// @Produce json
// @Param date path string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /students/enrollmentDate/{date} [get]
func (h *StudentHandler) ListByEnrollmentDate(c *gin.Context) {
	date, err := parseDate(c.Param("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	students, err := h.students.ListByEnrollmentDate(c.Request.Context(), date)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondList(c, students)
}

// ListByDateOfBirthRange godoc
// @Summary List students born within a date range
// @Tags Students
// @Produce json
// @Param startDate query string true "Start date (YYYY-MM-DD)"
// @Param endDate query string true "End date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /students/dateOfBirth [get]
func (h *StudentHandler) ListByDateOfBirthRange(c *gin.Context) {
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
	students, err := h.students.ListByDateOfBirthRange(c.Request.Context(), start, end)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondList(c, students)
}

// ListByCourse godoc
// @Summary List students enrolled in a course
// @Tags Students
// @Produce json
// @Param courseId path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /students/course/{courseId} [get]
func (h *StudentHandler) ListByCourse(c *gin.Context) {
	students, err := h.students.ListByCourse(c.Request.Context(), c.Param("courseId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	respondList(c, students)
}

// Search godoc
// @Summary Search students by combined criteria
// @Tags Students
// @Produce json
// @Param email query string false "Exact email"
// @Param firstName query string false "First name fragment"
// @Param lastName query string false "Last name fragment"
// @Param enrollmentDate query string false "Enrollment date (YYYY-MM-DD)"
// @Param dateOfBirthStart query string false "Date of birth lower bound"
// @Param dateOfBirthEnd query string false "Date of birth upper bound"
// @Param courseId query string false "Course ID"
// @Success 200 {object} response.Envelope
// @Success 204 "No matches"
// @Router /students/search [get]
func (h *StudentHandler) Search(c *gin.Context) {
	criteria := models.StudentSearchCriteria{
		Email:     strings.TrimSpace(c.Query("email")),
		FirstName: strings.TrimSpace(c.Query("firstName")),
		LastName:  strings.TrimSpace(c.Query("lastName")),
		CourseID:  strings.TrimSpace(c.Query("courseId")),
	}
	if raw := c.Query("enrollmentDate"); raw != "" {
		date, err := parseDate(raw)
		if err != nil {
			response.Error(c, err)
			return
		}
		criteria.EnrollmentDate = &date
	}
	if raw := c.Query("dateOfBirthStart"); raw != "" {
		date, err := parseDate(raw)
		if err != nil {
			response.Error(c, err)
			return
		}
		criteria.DateOfBirthStart = &date
	}
	if raw := c.Query("dateOfBirthEnd"); raw != "" {
		date, err := parseDate(raw)
		if err != nil {
			response.Error(c, err)
			return
		}
		criteria.DateOfBirthEnd = &date
	}

	students, err := h.students.Search(c.Request.Context(), criteria)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondList(c, students)
}

// Create godoc
// @Summary Create a student
// @Tags Students
// @Accept json
// @Produce json
// @Param payload body studentPayload true "Student"
// @Success 201 {object} response.Envelope
// @Router /students [post]
func (h *StudentHandler) Create(c *gin.Context) {
	var payload studentPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	req, err := payload.toRequest()
	if err != nil {
		response.Error(c, err)
		return
	}
	student, err := h.students.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, student)
}

// Update godoc
// @Summary Create or replace a student under the given id
// @Tags Students
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body studentPayload true "Student"
// @Success 200 {object} response.Envelope
// @Router /students/{id} [put]
func (h *StudentHandler) Update(c *gin.Context) {
	var payload studentPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	req, err := payload.toRequest()
	if err != nil {
		response.Error(c, err)
		return
	}
	student, err := h.students.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student)
}

// Delete godoc
// @Summary Delete a student
// @Tags Students
// @Param id path string true "Student ID"
// @Success 204 "Deleted"
// @Router /students/{id} [delete]
func (h *StudentHandler) Delete(c *gin.Context) {
	if err := h.students.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
