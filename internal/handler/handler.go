// Package handler contains the gin HTTP handlers for the school API.
package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	appErrors "github.com/ermix/school-api/pkg/errors"
	"github.com/ermix/school-api/pkg/response"
)

const dateLayout = "2006-01-02"

// parseDate accepts calendar dates in ISO-8601 form.
func parseDate(raw string) (time.Time, error) {
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, "invalid date, expected YYYY-MM-DD")
	}
	return t, nil
}

// respondList writes a list result, collapsing empty lists to 204.
func respondList[T any](c *gin.Context, items []T) {
	if len(items) == 0 {
		response.NoContent(c)
		return
	}
	response.JSON(c, http.StatusOK, items)
}
