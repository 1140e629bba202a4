package service

import (
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maditrack-server/internal/domain"
)

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel) // Reduce noise in tests
	return logger
}

func TestDiagnosisMatcher_Evaluate(t *testing.T) {
	matcher := NewDefaultDiagnosisMatcher(newTestLogger())

	tests := []struct {
		name     string
		symptoms []string
		expected []struct {
			condition string
			score     float64
			percent   int
		}
	}{
		{
			name:     "fever cough fatigue",
			symptoms: []string{"fever", "cough", "fatigue"},
			expected: []struct {
				condition string
				score     float64
				percent   int
			}{
				{"Common Cold", 75, 75},
				{"Flu", 60, 60},
				{"COVID-19", 60, 60},
				{"Anxiety", 25, 25},
			},
		},
		{
			name:     "migraine symptoms",
			symptoms: []string{"headache", "nausea", "dizziness"},
			expected: []struct {
				condition string
				score     float64
				percent   int
			}{
				{"Migraine", 100, 100},
				{"Anxiety", 25, 25},
				{"Flu", 20, 20},
			},
		},
		{
			name:     "single symptom with thirds",
			symptoms: []string{"nausea"},
			expected: []struct {
				condition string
				score     float64
				percent   int
			}{
				{"Migraine", 100.0 / 3, 33},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := matcher.EvaluateIDs(tt.symptoms)
			require.NoError(t, err)
			require.Len(t, results, len(tt.expected))

			for i, want := range tt.expected {
				assert.Equal(t, want.condition, results[i].Condition)
				assert.InDelta(t, want.score, results[i].Score, 1e-9)
				assert.Equal(t, want.percent, results[i].MatchPercent)
			}
		})
	}
}

func TestDiagnosisMatcher_EmptySelection(t *testing.T) {
	matcher := NewDefaultDiagnosisMatcher(newTestLogger())

	results, err := matcher.EvaluateIDs(nil)

	require.NoError(t, err)
	require.NotNil(t, results)
	assert.Empty(t, results)
}

func TestDiagnosisMatcher_FullSelectionScoresEverythingAt100(t *testing.T) {
	matcher := NewDefaultDiagnosisMatcher(newTestLogger())

	all := make([]string, 0)
	for _, s := range matcher.Catalog().Symptoms() {
		all = append(all, s.ID)
	}

	results, err := matcher.EvaluateIDs(all)
	require.NoError(t, err)
	require.Len(t, results, 5)

	// all ties, so table order is preserved
	names := make([]string, len(results))
	for i, r := range results {
		assert.Equal(t, 100.0, r.Score)
		names[i] = r.Condition
	}
	assert.Equal(t, []string{"Common Cold", "Flu", "COVID-19", "Migraine", "Anxiety"}, names)
}

func TestDiagnosisMatcher_ResultProperties(t *testing.T) {
	matcher := NewDefaultDiagnosisMatcher(newTestLogger())
	catalog := matcher.Catalog()
	symptoms := catalog.Symptoms()

	// every subset of the first 8 symptoms
	for mask := 0; mask < 1<<8; mask++ {
		ids := make([]string, 0)
		for i := 0; i < 8; i++ {
			if mask&(1<<i) != 0 {
				ids = append(ids, symptoms[i].ID)
			}
		}

		results, err := matcher.EvaluateIDs(ids)
		require.NoError(t, err)

		for i, r := range results {
			assert.Greater(t, r.Score, 0.0)
			assert.LessOrEqual(t, r.Score, 100.0)
			assert.NotEmpty(t, r.MatchedSymptoms)
			if i > 0 {
				assert.GreaterOrEqual(t, results[i-1].Score, r.Score, "results must be ordered by descending score")
			}
		}
	}
}

func TestDiagnosisMatcher_TiesKeepTableOrder(t *testing.T) {
	catalog := domain.DefaultSymptomCatalog()
	table, err := domain.NewConditionTable(catalog, []domain.ConditionRule{
		{Name: "Second Listed Low", Symptoms: []string{"fever", "cough", "nausea", "dizziness"}},
		{Name: "First Tie", Symptoms: []string{"fever", "headache"}},
		{Name: "Second Tie", Symptoms: []string{"fever", "fatigue"}},
		{Name: "Never Matches", Symptoms: []string{"sore_throat"}},
		{Name: "Empty Rule", Symptoms: nil},
	})
	require.NoError(t, err)

	matcher := NewDiagnosisMatcher(catalog, table, newTestLogger())
	results, err := matcher.EvaluateIDs([]string{"fever"})
	require.NoError(t, err)

	require.Len(t, results, 3)
	assert.Equal(t, "First Tie", results[0].Condition)
	assert.Equal(t, "Second Tie", results[1].Condition)
	assert.Equal(t, "Second Listed Low", results[2].Condition)
	assert.Equal(t, []string{"fever"}, results[0].MatchedSymptoms)
}

func TestDiagnosisMatcher_UnknownSymptom(t *testing.T) {
	matcher := NewDefaultDiagnosisMatcher(newTestLogger())

	_, err := matcher.EvaluateIDs([]string{"fever", "rash"})

	var vErr *domain.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "symptoms", vErr.Field)
}

func TestDiagnosisMatcher_TogglingBackRestoresResults(t *testing.T) {
	matcher := NewDefaultDiagnosisMatcher(newTestLogger())

	sel, err := matcher.Catalog().Select("fever", "cough")
	require.NoError(t, err)

	before := matcher.Evaluate(sel)
	after := matcher.Evaluate(sel.Toggle("headache").Toggle("headache"))

	assert.Equal(t, before, after)
}
