package app

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"example/chessdebrief/app/logger"
	"example/chessdebrief/app/models"
)

const maxWebhookBytes = int64(65536)

// CreateCheckoutSession starts a hosted checkout for the requested tier.
func (a *API) CreateCheckoutSession(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	if a.billing == nil {
		respondErr(c, ErrNotConfigured)
		return
	}
	var req models.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body", "invalid_request")
		return
	}

	user, err := loadBillingUser(c.Request.Context(), userID)
	if err != nil {
		respondErr(c, err)
		return
	}
	url, err := a.billing.CheckoutURL(c.Request.Context(), user, req.Tier)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{"url": url})
}

// CreatePortalSession opens the billing portal for the caller's subscription.
func (a *API) CreatePortalSession(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	if a.billing == nil {
		respondErr(c, ErrNotConfigured)
		return
	}

	user, err := loadBillingUser(c.Request.Context(), userID)
	if err != nil {
		respondErr(c, err)
		return
	}
	url, err := a.billing.PortalURL(c.Request.Context(), user)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{"url": url})
}

// StripeWebhook applies subscription events to user tiers.
func (a *API) StripeWebhook(c *gin.Context) {
	if a.billing == nil {
		logger.Error().Msg("stripe webhook received but billing is not configured")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "webhook not configured"})
		return
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	var verr validationError
	err = a.billing.HandleWebhook(c.Request.Context(), body, c.GetHeader("Stripe-Signature"))
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"received": true})
	case errors.Is(err, errBadSignature):
		c.JSON(http.StatusBadRequest, gin.H{"error": "signature verification failed"})
	case errors.As(err, &verr):
		logger.Warn().Err(err).Msg("stripe webhook payload rejected")
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Message})
	default:
		logger.Error().Err(err).Msg("stripe webhook failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update user"})
	}
}
