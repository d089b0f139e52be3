package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// GetToken issues a locally signed JWT carrying a fresh external identity.
// Only mounted when no external identity provider is configured; it lets the
// stack run standalone during development.
func (h *Handler) GetToken(c *gin.Context) {
	name := c.Query("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name query parameter is required"})
		return
	}

	externalID := uuid.New().String()
	token, err := h.DevAuth.IssueToken(externalID, name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "external_id": externalID})
}
