package app

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"example/chessdebrief/auth"
)

// Health is a public health check endpoint.
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// Me returns the caller's profile with their plan allowances.
func (a *API) Me(c *gin.Context) {
	claims, ok := auth.ClaimsFromContext(c.Request.Context())
	if !ok {
		respondError(c, http.StatusUnauthorized, "missing auth context", "unauthorized")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), readTimeout)
	defer cancel()

	profile, err := a.source.Profile(ctx, claims)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondData(c, http.StatusOK, profile)
}
