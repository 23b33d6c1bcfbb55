package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ermix/school-api/internal/service"
	appErrors "github.com/ermix/school-api/pkg/errors"
	"github.com/ermix/school-api/pkg/export"
	"github.com/ermix/school-api/pkg/response"
)

// TranscriptHandler renders student transcripts as JSON, CSV or PDF.
type TranscriptHandler struct {
	students *service.StudentService
	csv      *export.CSVExporter
	pdf      *export.PDFExporter
}

// NewTranscriptHandler constructs TranscriptHandler.
func NewTranscriptHandler(students *service.StudentService) *TranscriptHandler {
	return &TranscriptHandler{
		students: students,
		csv:      export.NewCSVExporter(),
		pdf:      export.NewPDFExporter(),
	}
}

var transcriptHeaders = []string{"Course Code", "Course", "Credits", "Status", "Enrolled", "Average"}

// Get godoc
// @Summary Get a student transcript
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Param format query string false "Output format" Enums(json, csv, pdf)
// @Success 200 {object} response.Envelope
// @Router /students/{id}/transcript [get]
func (h *TranscriptHandler) Get(c *gin.Context) {
	transcript, err := h.students.Transcript(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	switch c.DefaultQuery("format", "json") {
	case "json":
		response.JSON(c, http.StatusOK, transcript)
	case "csv":
		data, err := h.csv.Render(transcriptDataset(transcript))
		if err != nil {
			response.Error(c, err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=transcript-%s.csv", transcript.Student.ID))
		c.Data(http.StatusOK, "text/csv", data)
	case "pdf":
		title := fmt.Sprintf("Transcript: %s %s", transcript.Student.FirstName, transcript.Student.LastName)
		data, err := h.pdf.Render(transcriptDataset(transcript), title)
		if err != nil {
			response.Error(c, err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=transcript-%s.pdf", transcript.Student.ID))
		c.Data(http.StatusOK, "application/pdf", data)
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unsupported format, expected json, csv or pdf"))
	}
}

func transcriptDataset(t *service.Transcript) export.Dataset {
	rows := make([]map[string]string, 0, len(t.Entries))
	for _, entry := range t.Entries {
		average := ""
		if entry.Average != nil {
			average = strconv.FormatFloat(*entry.Average, 'f', 2, 64)
		}
		rows = append(rows, map[string]string{
			"Course Code": entry.CourseCode,
			"Course":      entry.CourseName,
			"Credits":     strconv.Itoa(entry.Credits),
			"Status":      string(entry.Status),
			"Enrolled":    entry.EnrolledAt.Format(dateLayout),
			"Average":     average,
		})
	}
	return export.Dataset{Headers: transcriptHeaders, Rows: rows}
}
