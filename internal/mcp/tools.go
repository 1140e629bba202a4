package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/maditrack-server/internal/domain"
)

// ListSymptomsParams defines parameters for list_symptoms tool
type ListSymptomsParams struct{}

// ListSymptomsResult defines the result structure for list_symptoms tool
type ListSymptomsResult struct {
	Symptoms []domain.Symptom `json:"symptoms"`
}

// CheckSymptomsParams defines parameters for check_symptoms tool
type CheckSymptomsParams struct {
	Symptoms []string `json:"symptoms"`
}

// CheckSymptomsResult defines the result structure for check_symptoms tool
type CheckSymptomsResult struct {
	Diagnoses  []domain.Diagnosis `json:"diagnoses"`
	Disclaimer string             `json:"disclaimer"`
}

// handleListSymptoms handles the list_symptoms tool invocation
func (s *Server) handleListSymptoms(ctx context.Context, req *mcp.CallToolRequest, params ListSymptomsParams) (*mcp.CallToolResult, ListSymptomsResult, error) {
	s.logger.WithField("tool", "list_symptoms").Debug("Tool invoked")

	symptoms := s.matcher.Catalog().Symptoms()

	lines := make([]string, 0, len(symptoms))
	for _, symptom := range symptoms {
		lines = append(lines, fmt.Sprintf("%s (%s)", symptom.Name, symptom.ID))
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: "Available symptoms:\n" + strings.Join(lines, "\n")},
		},
	}, ListSymptomsResult{Symptoms: symptoms}, nil
}

// handleCheckSymptoms handles the check_symptoms tool invocation
func (s *Server) handleCheckSymptoms(ctx context.Context, req *mcp.CallToolRequest, params CheckSymptomsParams) (*mcp.CallToolResult, CheckSymptomsResult, error) {
	s.logger.WithFields(logrus.Fields{
		"tool":     "check_symptoms",
		"selected": len(params.Symptoms),
	}).Debug("Tool invoked")

	diagnoses, err := s.matcher.EvaluateIDs(params.Symptoms)
	if err != nil {
		return s.createErrorResult("Invalid symptoms", err), CheckSymptomsResult{}, nil
	}

	result := CheckSymptomsResult{
		Diagnoses:  diagnoses,
		Disclaimer: domain.DiagnosisDisclaimer,
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: summarizeDiagnoses(diagnoses)},
		},
	}, result, nil
}

func summarizeDiagnoses(diagnoses []domain.Diagnosis) string {
	if len(diagnoses) == 0 {
		return "No matching conditions found.\n" + domain.DiagnosisDisclaimer
	}

	var b strings.Builder
	b.WriteString("Possible conditions:\n")
	for _, d := range diagnoses {
		fmt.Fprintf(&b, "%s: %d%% match (%s)\n", d.Condition, d.MatchPercent, d.Description)
	}
	b.WriteString(domain.DiagnosisDisclaimer)
	return b.String()
}

// createErrorResult creates a standardized error result for tool calls
func (s *Server) createErrorResult(message string, err error) *mcp.CallToolResult {
	errorText := fmt.Sprintf("Error: %s", message)
	if err != nil {
		errorText += fmt.Sprintf(" - %v", err)
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: errorText},
		},
		IsError: true,
	}
}
