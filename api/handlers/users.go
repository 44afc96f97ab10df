package handlers

import (
	"net/http"
	"strconv"

	"downtodine/api/middleware"
	"downtodine/services"

	"github.com/gin-gonic/gin"
)

type UsersHandler struct {
	Search *services.SearchService
}

func (h *UsersHandler) SearchUsers(c *gin.Context) {
	limit := 0
	if limitStr := c.Query("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil {
			limit = l
		}
	}

	users, err := h.Search.SearchUsers(c.Request.Context(), middleware.CallerID(c), c.Query("q"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}
