package handlers

import (
	"errors"
	"net/http"

	"downtodine/apperrors"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// respondError maps taxonomy errors to their carried status and hides
// everything else behind a generic 500.
func respondError(c *gin.Context, err error) {
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		c.JSON(appErr.Status, gin.H{"message": appErr.Message})
		return
	}
	logrus.WithError(err).WithField("path", c.Request.URL.Path).Error("unhandled error")
	c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
}
