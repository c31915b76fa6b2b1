package handlers

import (
	"context"
	"encoding/json"
	"time"

	"goclean/internal/models"
	"goclean/internal/services"
	"goclean/internal/utils"
	"goclean/pkg/events"
	"goclean/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const rewardProcessingTimeout = 30 * time.Second

// BookingEventHandler turns completed-booking signals into reward runs. The
// booking itself is already final, so nothing here reports failure upstream.
type BookingEventHandler struct {
	referralService services.ReferralService
	logger          *logger.Logger
}

func NewBookingEventHandler(referralService services.ReferralService, log *logger.Logger) *BookingEventHandler {
	return &BookingEventHandler{
		referralService: referralService,
		logger:          log,
	}
}

// HandleCompletedEvent consumes a BookingCompletedEvent from the message bus.
func (h *BookingEventHandler) HandleCompletedEvent(msg *events.Message) {
	var event models.BookingCompletedEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		h.logger.WithError(err).WithField("subject", msg.Subject).Warn("Dropping malformed booking event")
		return
	}

	customerID, err := primitive.ObjectIDFromHex(event.CustomerID)
	if err != nil {
		h.logger.WithField("booking_id", event.BookingID).Warn("Dropping booking event without a valid customer id")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), rewardProcessingTimeout)
	defer cancel()

	h.referralService.ProcessReward(ctx, customerID)
}

// BookingCompleted is the internal HTTP trigger. It always answers 202 once
// the customer id parses. The reward run outlives the caller's connection.
func (h *BookingEventHandler) BookingCompleted(c *gin.Context) {
	customerID, err := primitive.ObjectIDFromHex(c.Param("customerId"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid customer ID")
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), rewardProcessingTimeout)
	defer cancel()

	h.referralService.ProcessReward(ctx, customerID)

	utils.AcceptedResponse(c, "Booking completion accepted")
}
