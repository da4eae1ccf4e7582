package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// @Summary  Health check
// @Tags     Health
// @Produce  plain
// @Success  200  {string}  string
// @Router   / [get]
func Health(c *gin.Context) {
	c.String(http.StatusOK, "API is running")
}
