package handlers

import (
	"net/http"
	"strconv"

	"downtodine/api/middleware"
	"downtodine/services"

	"github.com/gin-gonic/gin"
)

type GroupsHandler struct {
	Groups *services.GroupService
}

type CreateGroupRequest struct {
	Name string `json:"name"`
}

func (h *GroupsHandler) List(c *gin.Context) {
	groups, err := h.Groups.List(c.Request.Context(), middleware.CallerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"groups": groups})
}

func (h *GroupsHandler) Create(c *gin.Context) {
	var req CreateGroupRequest
	_ = c.ShouldBindJSON(&req)

	group, err := h.Groups.Create(c.Request.Context(), middleware.CallerID(c), req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": group.ID, "name": group.Name})
}

func (h *GroupsHandler) Get(c *gin.Context) {
	groupID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid group ID"})
		return
	}
	detail, err := h.Groups.Get(c.Request.Context(), middleware.CallerID(c), groupID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *GroupsHandler) Join(c *gin.Context) {
	groupID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid group ID"})
		return
	}
	if err := h.Groups.Join(c.Request.Context(), middleware.CallerID(c), groupID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Joined"})
}

func (h *GroupsHandler) Leave(c *gin.Context) {
	groupID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid group ID"})
		return
	}
	if err := h.Groups.Leave(c.Request.Context(), middleware.CallerID(c), groupID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Left"})
}
