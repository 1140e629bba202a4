package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/maditrack-server/internal/domain"
	"github.com/maditrack-server/internal/logging"
	"github.com/maditrack-server/internal/middleware"
	"github.com/maditrack-server/internal/service"
)

// Plain-text webhook responses
const (
	responseMessageReceived  = "Message received"
	responseNoAppointments   = "No appointments found"
	responseCancelled        = "Appointment cancelled"
	responseAlreadyCancelled = "Appointment already cancelled"
	responseProcessingError  = "Error processing request"
)

// inboundSMSRequest matches the fields the messaging gateway posts
type inboundSMSRequest struct {
	Body       string `json:"Body"`
	From       string `json:"From"`
	MessageSID string `json:"MessageSid"`
}

var (
	errMissingSender    = errors.New("missing From")
	errInvalidSignature = errors.New("invalid webhook signature")
)

// handleInboundSMS receives patient replies from the messaging gateway
func (s *Server) handleInboundSMS(c *gin.Context) {
	if c.Request.Method != http.MethodPost {
		c.String(http.StatusMethodNotAllowed, "Method Not Allowed")
		return
	}

	req, err := s.bindInboundSMS(c)
	if err != nil {
		if errors.Is(err, errMissingSender) {
			c.String(http.StatusBadRequest, "Missing sender")
			return
		}
		if errors.Is(err, errInvalidSignature) {
			c.String(http.StatusForbidden, "Invalid signature")
			return
		}
		c.String(http.StatusBadRequest, "Invalid request")
		return
	}

	logger := s.logger.WithFields(logrus.Fields{
		"correlation_id": c.GetString(middleware.CorrelationIDKey),
		"from":           logging.MaskPhone(req.From),
		"message_sid":    req.MessageSID,
	})

	outcome, err := s.deps.Cancellations.HandleInbound(c.Request.Context(), domain.InboundMessage{
		Body:       req.Body,
		From:       req.From,
		MessageSID: req.MessageSID,
	})
	if err != nil {
		logger.WithError(err).Error("Error processing inbound SMS")
		c.String(http.StatusInternalServerError, responseProcessingError)
		return
	}

	logger.WithField("outcome", string(outcome)).Info("Inbound SMS processed")

	switch outcome {
	case service.OutcomeNoAppointment:
		c.String(http.StatusOK, responseNoAppointments)
	case service.OutcomeCancelled:
		c.String(http.StatusOK, responseCancelled)
	case service.OutcomeAlreadyCancelled:
		c.String(http.StatusOK, responseAlreadyCancelled)
	default:
		c.String(http.StatusOK, responseMessageReceived)
	}
}

// bindInboundSMS reads a form or JSON payload and checks the gateway
// signature for form posts when validation is enabled.
func (s *Server) bindInboundSMS(c *gin.Context) (*inboundSMSRequest, error) {
	var req inboundSMSRequest

	if strings.HasPrefix(c.ContentType(), gin.MIMEJSON) {
		if err := c.ShouldBindJSON(&req); err != nil {
			return nil, err
		}
		if s.deps.Signatures != nil {
			// Signed deliveries are always form encoded
			return nil, errInvalidSignature
		}
	} else {
		if err := c.Request.ParseForm(); err != nil {
			return nil, err
		}
		if s.deps.Signatures != nil && !s.deps.Signatures.Valid(c.Request.PostForm, c.GetHeader("X-Twilio-Signature")) {
			return nil, errInvalidSignature
		}
		req = inboundSMSRequest{
			Body:       c.Request.PostForm.Get("Body"),
			From:       c.Request.PostForm.Get("From"),
			MessageSID: c.Request.PostForm.Get("MessageSid"),
		}
	}

	req.From = strings.TrimSpace(req.From)
	if req.From == "" {
		return nil, errMissingSender
	}
	return &req, nil
}
