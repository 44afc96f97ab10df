package handlers

import (
	"net/http"
	"strconv"

	"downtodine/api/middleware"
	"downtodine/services"

	"github.com/gin-gonic/gin"
)

type AvailabilityHandler struct {
	Availability *services.AvailabilityService
	Overlap      *services.OverlapService
}

// SetHoursRequest keeps hours untyped: clients are allowed to send numbers
// or numeric strings, normalization sorts it out.
type SetHoursRequest struct {
	Hours []interface{} `json:"hours"`
}

func (h *AvailabilityHandler) GetToday(c *gin.Context) {
	date, hours, err := h.Availability.GetToday(c.Request.Context(), middleware.CallerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"date": date, "hours": hours})
}

func (h *AvailabilityHandler) SetToday(c *gin.Context) {
	var req SetHoursRequest
	// An absent or malformed body counts as "no hours", matching the
	// clear-on-opt-in client behavior.
	_ = c.ShouldBindJSON(&req)

	date, hours, err := h.Availability.SetToday(c.Request.Context(), middleware.CallerID(c), req.Hours)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"date": date, "hours": hours})
}

func (h *AvailabilityHandler) ClearToday(c *gin.Context) {
	date, err := h.Availability.ClearToday(c.Request.Context(), middleware.CallerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"date": date, "hours": []int{}})
}

func (h *AvailabilityHandler) UserToday(c *gin.Context) {
	targetID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid user ID"})
		return
	}

	result, err := h.Overlap.WithUser(c.Request.Context(), middleware.CallerID(c), targetID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *AvailabilityHandler) FriendsToday(c *gin.Context) {
	result, err := h.Overlap.WithAllFriends(c.Request.Context(), middleware.CallerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
