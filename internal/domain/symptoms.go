package domain

import (
	"fmt"
)

// Symptom is a single entry of the static symptom catalog
type Symptom struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SymptomCatalog is the immutable, ordered list of selectable symptoms.
type SymptomCatalog struct {
	symptoms []Symptom
	index    map[string]int
}

// NewSymptomCatalog builds a catalog from the given symptoms, preserving order.
// Duplicate or empty IDs are rejected.
func NewSymptomCatalog(symptoms []Symptom) (*SymptomCatalog, error) {
	c := &SymptomCatalog{
		symptoms: make([]Symptom, 0, len(symptoms)),
		index:    make(map[string]int, len(symptoms)),
	}
	for _, s := range symptoms {
		if s.ID == "" {
			return nil, fmt.Errorf("symptom %q has an empty id", s.Name)
		}
		if _, dup := c.index[s.ID]; dup {
			return nil, fmt.Errorf("duplicate symptom id %q", s.ID)
		}
		c.index[s.ID] = len(c.symptoms)
		c.symptoms = append(c.symptoms, s)
	}
	return c, nil
}

// Symptoms returns a copy of the catalog in display order
func (c *SymptomCatalog) Symptoms() []Symptom {
	out := make([]Symptom, len(c.symptoms))
	copy(out, c.symptoms)
	return out
}

// Lookup returns the symptom with the given ID
func (c *SymptomCatalog) Lookup(id string) (Symptom, bool) {
	i, ok := c.index[id]
	if !ok {
		return Symptom{}, false
	}
	return c.symptoms[i], true
}

// Len returns the number of symptoms in the catalog
func (c *SymptomCatalog) Len() int {
	return len(c.symptoms)
}

// Select builds a selection from symptom IDs. Repeated IDs collapse into one;
// an ID missing from the catalog yields a *ValidationError.
func (c *SymptomCatalog) Select(ids ...string) (Selection, error) {
	chosen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := c.index[id]; !ok {
			return Selection{}, NewValidationError("symptoms", fmt.Sprintf("unknown symptom %q", id), id)
		}
		chosen[id] = struct{}{}
	}
	return Selection{catalog: c, chosen: chosen}, nil
}

// Selection is an immutable set of chosen symptom IDs. Toggle returns a new
// Selection and never modifies the receiver.
type Selection struct {
	catalog *SymptomCatalog
	chosen  map[string]struct{}
}

// Contains reports whether the symptom is selected
func (s Selection) Contains(id string) bool {
	_, ok := s.chosen[id]
	return ok
}

// Len returns the number of selected symptoms
func (s Selection) Len() int {
	return len(s.chosen)
}

// IsEmpty reports whether nothing is selected
func (s Selection) IsEmpty() bool {
	return len(s.chosen) == 0
}

// IDs returns the selected symptom IDs in catalog order
func (s Selection) IDs() []string {
	ids := make([]string, 0, len(s.chosen))
	if s.catalog == nil {
		return ids
	}
	for _, sym := range s.catalog.symptoms {
		if s.Contains(sym.ID) {
			ids = append(ids, sym.ID)
		}
	}
	return ids
}

// Toggle flips the selection state of a symptom. IDs outside the catalog
// leave the selection unchanged.
func (s Selection) Toggle(id string) Selection {
	if s.catalog == nil {
		return s
	}
	if _, ok := s.catalog.index[id]; !ok {
		return s
	}

	next := make(map[string]struct{}, len(s.chosen)+1)
	for k := range s.chosen {
		next[k] = struct{}{}
	}
	if _, on := next[id]; on {
		delete(next, id)
	} else {
		next[id] = struct{}{}
	}
	return Selection{catalog: s.catalog, chosen: next}
}

// ConditionRule maps a named condition to the symptoms that characterize it
type ConditionRule struct {
	Name        string   `json:"name"`
	Symptoms    []string `json:"symptoms"`
	Description string   `json:"description"`
}

// ConditionTable is the ordered, immutable list of condition rules.
type ConditionTable struct {
	rules []ConditionRule
}

// NewConditionTable builds a table. Every symptom referenced by a rule must
// exist in the catalog.
func NewConditionTable(catalog *SymptomCatalog, rules []ConditionRule) (*ConditionTable, error) {
	t := &ConditionTable{rules: make([]ConditionRule, 0, len(rules))}
	for _, r := range rules {
		for _, id := range r.Symptoms {
			if _, ok := catalog.Lookup(id); !ok {
				return nil, fmt.Errorf("condition %q references unknown symptom %q", r.Name, id)
			}
		}
		syms := make([]string, len(r.Symptoms))
		copy(syms, r.Symptoms)
		t.rules = append(t.rules, ConditionRule{Name: r.Name, Symptoms: syms, Description: r.Description})
	}
	return t, nil
}

// Rules returns a copy of the rules in table order
func (t *ConditionTable) Rules() []ConditionRule {
	out := make([]ConditionRule, len(t.rules))
	for i, r := range t.rules {
		syms := make([]string, len(r.Symptoms))
		copy(syms, r.Symptoms)
		out[i] = ConditionRule{Name: r.Name, Symptoms: syms, Description: r.Description}
	}
	return out
}

// Diagnosis is one scored condition for a selection. Score is the percentage
// of the condition's symptoms present in the selection; MatchPercent is Score
// rounded for display.
type Diagnosis struct {
	Condition       string   `json:"condition"`
	Score           float64  `json:"score"`
	MatchPercent    int      `json:"match_percent"`
	Description     string   `json:"description"`
	MatchedSymptoms []string `json:"matched_symptoms"`
}

// DiagnosisDisclaimer accompanies every set of results shown to a patient.
const DiagnosisDisclaimer = "This is not a medical diagnosis. Please consult with a healthcare professional for proper evaluation."

var defaultSymptoms = []Symptom{
	{ID: "fever", Name: "Fever"},
	{ID: "cough", Name: "Cough"},
	{ID: "headache", Name: "Headache"},
	{ID: "fatigue", Name: "Fatigue"},
	{ID: "nausea", Name: "Nausea"},
	{ID: "dizziness", Name: "Dizziness"},
	{ID: "chest_pain", Name: "Chest Pain"},
	{ID: "shortness_breath", Name: "Shortness of Breath"},
	{ID: "muscle_pain", Name: "Muscle Pain"},
	{ID: "sore_throat", Name: "Sore Throat"},
}

var defaultConditions = []ConditionRule{
	{
		Name:        "Common Cold",
		Symptoms:    []string{"fever", "cough", "sore_throat", "fatigue"},
		Description: "A viral infection of the upper respiratory tract.",
	},
	{
		Name:        "Flu",
		Symptoms:    []string{"fever", "cough", "headache", "fatigue", "muscle_pain"},
		Description: "A contagious respiratory illness caused by influenza viruses.",
	},
	{
		Name:        "COVID-19",
		Symptoms:    []string{"fever", "cough", "shortness_breath", "fatigue", "muscle_pain"},
		Description: "A respiratory illness caused by the SARS-CoV-2 virus.",
	},
	{
		Name:        "Migraine",
		Symptoms:    []string{"headache", "nausea", "dizziness"},
		Description: "A neurological condition characterized by severe headaches.",
	},
	{
		Name:        "Anxiety",
		Symptoms:    []string{"chest_pain", "shortness_breath", "dizziness", "fatigue"},
		Description: "A mental health condition characterized by excessive worry and fear.",
	},
}

// DefaultSymptomCatalog returns the clinic's built-in symptom catalog.
func DefaultSymptomCatalog() *SymptomCatalog {
	c, err := NewSymptomCatalog(defaultSymptoms)
	if err != nil {
		panic(fmt.Sprintf("default symptom catalog: %v", err))
	}
	return c
}

// DefaultConditionTable returns the built-in condition rules bound to catalog.
func DefaultConditionTable(catalog *SymptomCatalog) *ConditionTable {
	t, err := NewConditionTable(catalog, defaultConditions)
	if err != nil {
		panic(fmt.Sprintf("default condition table: %v", err))
	}
	return t
}
