package handlers

import (
	"goclean/internal/middleware"
	"goclean/internal/services"
	"goclean/internal/utils"

	"github.com/gin-gonic/gin"
)

type ReferralHandler struct {
	referralService services.ReferralService
}

func NewReferralHandler(referralService services.ReferralService) *ReferralHandler {
	return &ReferralHandler{referralService: referralService}
}

// GetProgress reports the caller's referral reward progress. Customers
// without a referrer get a null payload.
func (h *ReferralHandler) GetProgress(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	progress, err := h.referralService.GetProgress(c.Request.Context(), userID)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, "Referral progress retrieved successfully", progress)
}
