package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/charscrape/models"
)

// asScrapeError returns the ScrapeError in err's chain, wrapping anything
// else as INTERNAL_ERROR.
func asScrapeError(err error) *models.ScrapeError {
	var se *models.ScrapeError
	if errors.As(err, &se) {
		return se
	}
	return models.NewScrapeError(models.ErrCodeInternal, err.Error(), err)
}

// abortError writes body with the status matching err's code.
func abortError(c *gin.Context, err error, body func(*models.ErrorDetail) any) {
	se := asScrapeError(err)
	c.AbortWithStatusJSON(se.HTTPStatus(), body(se.ToDetail()))
}

func invalidInput(msg string) *models.ScrapeError {
	return models.NewScrapeError(models.ErrCodeInvalidInput, msg, nil)
}
