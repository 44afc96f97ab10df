package handlers

import (
	"net/http"
	"strconv"

	"downtodine/api/middleware"
	"downtodine/services"

	"github.com/gin-gonic/gin"
)

type FriendRequestsHandler struct {
	Relationship *services.RelationshipService
}

type SendRequestRequest struct {
	ToUsername string `json:"toUsername"`
}

func (h *FriendRequestsHandler) List(c *gin.Context) {
	incoming, outgoing, err := h.Relationship.ListRequests(c.Request.Context(), middleware.CallerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"incoming": incoming, "outgoing": outgoing})
}

func (h *FriendRequestsHandler) Send(c *gin.Context) {
	var req SendRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ToUsername == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "toUsername is required"})
		return
	}

	autoAccepted, err := h.Relationship.SendRequest(c.Request.Context(), middleware.CallerID(c), req.ToUsername)
	if err != nil {
		respondError(c, err)
		return
	}
	if autoAccepted {
		c.JSON(http.StatusCreated, gin.H{"autoAccepted": true})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true})
}

func (h *FriendRequestsHandler) Accept(c *gin.Context) {
	requestID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request ID"})
		return
	}
	if err := h.Relationship.AcceptRequest(c.Request.Context(), middleware.CallerID(c), requestID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *FriendRequestsHandler) Decline(c *gin.Context) {
	requestID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request ID"})
		return
	}
	if err := h.Relationship.DeclineRequest(c.Request.Context(), middleware.CallerID(c), requestID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
