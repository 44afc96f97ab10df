package handlers

import (
	"net/http"
	"strconv"

	"downtodine/api/middleware"
	"downtodine/services"

	"github.com/gin-gonic/gin"
)

type FriendsHandler struct {
	Relationship *services.RelationshipService
}

type AddFriendRequest struct {
	Username string `json:"username"`
}

func (h *FriendsHandler) List(c *gin.Context) {
	friends, err := h.Relationship.Friends(c.Request.Context(), middleware.CallerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"friends": friends})
}

// Add is the request-free mutual add path. It returns the updated friend
// list like the remove path does.
func (h *FriendsHandler) Add(c *gin.Context) {
	var req AddFriendRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "username is required"})
		return
	}

	callerID := middleware.CallerID(c)
	if err := h.Relationship.AddFriendDirect(c.Request.Context(), callerID, req.Username); err != nil {
		respondError(c, err)
		return
	}

	friends, err := h.Relationship.Friends(c.Request.Context(), callerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"friends": friends})
}

func (h *FriendsHandler) Remove(c *gin.Context) {
	friendID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid friend ID"})
		return
	}

	callerID := middleware.CallerID(c)
	if err := h.Relationship.RemoveFriend(c.Request.Context(), callerID, friendID); err != nil {
		respondError(c, err)
		return
	}

	friends, err := h.Relationship.Friends(c.Request.Context(), callerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"friends": friends})
}
