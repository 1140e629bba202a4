package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/maditrack-server/internal/domain"
)

// handleTriggerReminders runs the reminder job for an external scheduler
func (s *Server) handleTriggerReminders(c *gin.Context) {
	report, err := s.deps.Reminders.RunNow(c.Request.Context())
	if err != nil {
		if errors.Is(err, domain.ErrJobAlreadyRunning) {
			s.respondError(c, http.StatusConflict, domain.ErrJobRunning, "A reminder run is already in progress", "")
			return
		}
		s.respondError(c, http.StatusInternalServerError, domain.ErrDatabaseError, "Reminder run failed", err.Error())
		return
	}

	c.JSON(http.StatusOK, report)
}
