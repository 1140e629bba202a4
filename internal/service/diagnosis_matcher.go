package service

import (
	"math"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/maditrack-server/internal/domain"
	"github.com/maditrack-server/internal/metrics"
)

// DiagnosisMatcher scores every condition rule against a symptom selection.
// The catalog and table are fixed at construction and never change.
type DiagnosisMatcher struct {
	logger  *logrus.Logger
	catalog *domain.SymptomCatalog
	table   *domain.ConditionTable
}

// NewDiagnosisMatcher creates a matcher over the given catalog and condition table
func NewDiagnosisMatcher(catalog *domain.SymptomCatalog, table *domain.ConditionTable, logger *logrus.Logger) *DiagnosisMatcher {
	return &DiagnosisMatcher{
		logger:  logger,
		catalog: catalog,
		table:   table,
	}
}

// NewDefaultDiagnosisMatcher creates a matcher over the built-in catalog and conditions
func NewDefaultDiagnosisMatcher(logger *logrus.Logger) *DiagnosisMatcher {
	catalog := domain.DefaultSymptomCatalog()
	return NewDiagnosisMatcher(catalog, domain.DefaultConditionTable(catalog), logger)
}

// Catalog returns the symptom catalog the matcher was built with
func (m *DiagnosisMatcher) Catalog() *domain.SymptomCatalog {
	return m.catalog
}

// Evaluate returns one diagnosis per condition that shares at least one symptom
// with the selection, ordered by score descending. Conditions with equal scores
// keep their table order.
func (m *DiagnosisMatcher) Evaluate(sel domain.Selection) []domain.Diagnosis {
	results := make([]domain.Diagnosis, 0)

	for _, rule := range m.table.Rules() {
		if len(rule.Symptoms) == 0 {
			continue
		}

		matched := make([]string, 0, len(rule.Symptoms))
		for _, id := range rule.Symptoms {
			if sel.Contains(id) {
				matched = append(matched, id)
			}
		}
		if len(matched) == 0 {
			continue
		}

		score := float64(len(matched)) / float64(len(rule.Symptoms)) * 100
		results = append(results, domain.Diagnosis{
			Condition:       rule.Name,
			Score:           score,
			MatchPercent:    int(math.Round(score)),
			Description:     rule.Description,
			MatchedSymptoms: matched,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	m.logger.WithFields(logrus.Fields{
		"selected_symptoms": sel.Len(),
		"matches":           len(results),
	}).Debug("Evaluated symptom selection")
	metrics.RecordDiagnosis(len(results))

	return results
}

// EvaluateIDs selects the given symptom IDs and evaluates them. Unknown IDs
// produce a *domain.ValidationError.
func (m *DiagnosisMatcher) EvaluateIDs(ids []string) ([]domain.Diagnosis, error) {
	sel, err := m.catalog.Select(ids...)
	if err != nil {
		return nil, err
	}
	return m.Evaluate(sel), nil
}
