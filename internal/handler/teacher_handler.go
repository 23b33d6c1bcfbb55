package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ermix/school-api/internal/service"
	appErrors "github.com/ermix/school-api/pkg/errors"
	"github.com/ermix/school-api/pkg/response"
)

// TeacherHandler exposes teacher endpoints.
type TeacherHandler struct {
	teachers *service.TeacherService
}

// NewTeacherHandler constructs TeacherHandler.
func NewTeacherHandler(teachers *service.TeacherService) *TeacherHandler {
	return &TeacherHandler{teachers: teachers}
}

type teacherPayload struct {
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name"`
	Email            string `json:"email"`
	HireDate         string `json:"hire_date"`
	SubjectSpecialty string `json:"subject_specialty"`
}

func (p teacherPayload) toRequest() (service.TeacherRequest, error) {
	hired, err := parseDate(p.HireDate)
	if err != nil {
		return service.TeacherRequest{}, err
	}
	return service.TeacherRequest{
		FirstName:        p.FirstName,
		LastName:         p.LastName,
		Email:            p.Email,
		HireDate:         hired,
		SubjectSpecialty: p.SubjectSpecialty,
	}, nil
}

// List godoc
// @Summary List teachers
// @Tags Teachers
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /teachers [get]
func (h *TeacherHandler) List(c *gin.Context) {
	teachers, err := h.teachers.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	respondList(c, teachers)
}

// Get godoc
// @Summary Get teacher by id
// @Tags Teachers
// @Produce json
// @Param id path string true "Teacher ID"
// @Success 200 {object} response.Envelope
// @Router /teachers/{id} [get]
func (h *TeacherHandler) Get(c *gin.Context) {
	teacher, err := h.teachers.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teacher)
}

// GetByEmail godoc
// @Summary Get teacher by email
// @Tags Teachers
// @Produce json
// @Param email path string true "Email"
// @Success 200 {object} response.Envelope
// @Router /teachers/email/{email} [get]
func (h *TeacherHandler) GetByEmail(c *gin.Context) {
	teacher, err := h.teachers.GetByEmail(c.Request.Context(), c.Param("email"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teacher)
}

// ListByLastName godoc
// @Summary List teachers by last name
// @Tags Teachers
// @Produce json
// @Param lastName path string true "Last name"
// @Success 200 {object} response.Envelope
// @Router /teachers/lastName/{lastName} [get]
func (h *TeacherHandler) ListByLastName(c *gin.Context) {
	teachers, err := h.teachers.ListByLastName(c.Request.Context(), c.Param("lastName"))
	if err != nil {
		response.Error(c, err)
		return
	}
	respondList(c, teachers)
}

// ListByName godoc
// @Summary List teachers by first and last name
// @Tags Teachers
// @Produce json
// @Param firstName query string true "First name"
// @Param lastName query string true "Last name"
// @Success 200 {object} response.Envelope
// @Router /teachers/name [get]
func (h *TeacherHandler) ListByName(c *gin.Context) {
	teachers, err := h.teachers.ListByName(c.Request.Context(), c.Query("firstName"), c.Query("lastName"))
	if err != nil {
		response.Error(c, err)
		return
	}
	respondList(c, teachers)
}

// ListBySpecialty godoc
// @Summary List teachers by subject specialty
// @Tags Teachers
// @Produce json
// @Param specialty path string true "Specialty"
// @Success 200 {object} response.Envelope
// @Router /teachers/specialty/{specialty} [get]
func (h *TeacherHandler) ListBySpecialty(c *gin.Context) {
	teachers, err := h.teachers.ListBySpecialty(c.Request.Context(), c.Param("specialty"))
	if err != nil {
		response.Error(c, err)
		return
	}
	respondList(c, teachers)
}

// ListHiredAfter godoc
// @Summary List teachers hired after a date
// @Tags Teachers
// @Produce json
// @Param date path string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /teachers/hiredAfter/{date} [get]
func (h *TeacherHandler) ListHiredAfter(c *gin.Context) {
	date, err := parseDate(c.Param("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	teachers, err := h.teachers.ListHiredAfter(c.Request.Context(), date)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondList(c, teachers)
}

// GetByCourse godoc
// @Summary Get the teacher assigned to a course
// @Tags Teachers
// @Produce json
// @Param courseId path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /teachers/course/{courseId} [get]
func (h *TeacherHandler) GetByCourse(c *gin.Context) {
	teacher, err := h.teachers.GetByCourse(c.Request.Context(), c.Param("courseId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teacher)
}

// Create godoc
// @Summary Create a teacher
// @Tags Teachers
// @Accept json
// @Produce json
// @Param payload body teacherPayload true "Teacher"
// @Success 201 {object} response.Envelope
// @Router /teachers [post]
func (h *TeacherHandler) Create(c *gin.Context) {
	var payload teacherPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	req, err := payload.toRequest()
	if err != nil {
		response.Error(c, err)
		return
	}
	teacher, err := h.teachers.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, teacher)
}

// Update godoc
// @Summary Create or replace a teacher under the given id
// @Tags Teachers
// @Accept json
// @Produce json
// @Param id path string true "Teacher ID"
// @Param payload body teacherPayload true "Teacher"
// @Success 200 {object} response.Envelope
// @Router /teachers/{id} [put]
func (h *TeacherHandler) Update(c *gin.Context) {
	var payload teacherPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	req, err := payload.toRequest()
	if err != nil {
		response.Error(c, err)
		return
	}
	teacher, err := h.teachers.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teacher)
}

// Delete godoc
// @Summary Delete a teacher
// @Tags Teachers
// @Param id path string true "Teacher ID"
// @Success 204 "Deleted"
// @Router /teachers/{id} [delete]
func (h *TeacherHandler) Delete(c *gin.Context) {
	if err := h.teachers.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
