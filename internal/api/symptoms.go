package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/maditrack-server/internal/domain"
)

type diagnosesRequest struct {
	Symptoms []string `json:"symptoms" binding:"required"`
}

type diagnosesResponse struct {
	Diagnoses  []domain.Diagnosis `json:"diagnoses"`
	Disclaimer string             `json:"disclaimer"`
}

func (s *Server) handleListSymptoms(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"symptoms": s.deps.Matcher.Catalog().Symptoms(),
	})
}

func (s *Server) handleDiagnoses(c *gin.Context) {
	var req diagnosesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, domain.ErrInvalidInput, "Invalid request body", err.Error())
		return
	}

	diagnoses, err := s.deps.Matcher.EvaluateIDs(req.Symptoms)
	if err != nil {
		var validationErr *domain.ValidationError
		if errors.As(err, &validationErr) {
			s.respondError(c, http.StatusBadRequest, domain.ErrValidation, validationErr.Message, validationErr.Field)
			return
		}
		s.respondError(c, http.StatusInternalServerError, domain.ErrInternalServer, "Failed to evaluate symptoms", "")
		return
	}

	c.JSON(http.StatusOK, diagnosesResponse{
		Diagnoses:  diagnoses,
		Disclaimer: domain.DiagnosisDisclaimer,
	})
}
