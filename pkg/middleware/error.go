package middleware

import (
	"errors"
	"net/http"

	"bondfund/pkg/errutil"

	"github.com/gin-gonic/gin"
)

// Error renders errors attached to the gin context as JSON, mapping domain
// statuses to HTTP codes.
func Error() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		ginErr := c.Errors.Last()
		if ginErr == nil {
			return
		}

		var be errutil.BaseError
		if errors.As(ginErr.Err, &be) {
			c.JSON(be.Code.HTTPStatus(), be.JSON())
			return
		}

		c.JSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{
				"code":    errutil.StatusInternal,
				"message": ginErr.Error(),
			},
		})
	}
}
