// Package risk evaluates clinical risk flags from allergy, medication,
// condition, and vitals inputs. The engine is a pure function: no clock, no
// I/O, no state, so it is independently testable and safe to re-run.
package risk

import (
	"fmt"
	"strconv"
	"strings"
)

// Flag severities.
const (
	SeverityHigh   = "HIGH"
	SeverityMedium = "MEDIUM"
	SeverityLow    = "LOW"
)

// Flag types.
const (
	TypeContraindication = "CONTRAINDICATION"
	TypeVitalsConflict   = "VITALS_CONFLICT"
	TypePolypharmacy     = "POLYPHARMACY"
)

// Flag is a structured warning attached to an emergency snapshot.
type Flag struct {
	Type     string `json:"type"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
	Source   string `json:"source"`
}

// Vitals is the most recent structured reading available for the subject.
// BloodPressure is the raw "systolic/diastolic" string as captured.
type Vitals struct {
	BloodPressure string `json:"blood_pressure,omitempty"`
	HeartRate     string `json:"heart_rate,omitempty"`
	Temperature   string `json:"temperature,omitempty"`
	SpO2          string `json:"spo2,omitempty"`
}

// Input is everything the engine looks at.
type Input struct {
	Allergies   []string
	Medications []string
	Conditions  []string
	Vitals      *Vitals
}

// rule is one row of the evaluation table. Rules run in table order so the
// resulting flag order is deterministic.
type rule func(in Input) []Flag

var rules = []rule{
	contraindications,
	bloodPressureConflict,
	polypharmacy,
}

// Evaluate runs every rule over the input and returns the produced flags.
// Matching is case-insensitive substring matching on clinical terms, and the
// result does not depend on the order of the input lists.
func Evaluate(in Input) []Flag {
	var flags []Flag
	for _, r := range rules {
		flags = append(flags, r(in)...)
	}
	return flags
}

// contraindicationPair names an allergy term and a medication term that must
// not appear together. The table is meant to grow; it ships with the
// penicillin class conflict.
type contraindicationPair struct {
	AllergyTerm    string
	MedicationTerm string
}

var contraindicationPairs = []contraindicationPair{
	{AllergyTerm: "penicillin", MedicationTerm: "amoxicillin"},
}

func contraindications(in Input) []Flag {
	var flags []Flag
	for _, pair := range contraindicationPairs {
		if containsTerm(in.Allergies, pair.AllergyTerm) && containsTerm(in.Medications, pair.MedicationTerm) {
			flags = append(flags, Flag{
				Type:     TypeContraindication,
				Severity: SeverityHigh,
				Message: fmt.Sprintf("documented %s allergy conflicts with current medication containing %s",
					pair.AllergyTerm, pair.MedicationTerm),
				Source: "allergy/medication cross-check",
			})
		}
	}
	return flags
}

func bloodPressureConflict(in Input) []Flag {
	if !containsTerm(in.Conditions, "hypertension") {
		return nil
	}
	if in.Vitals == nil || in.Vitals.BloodPressure == "" {
		return nil
	}
	systolic, diastolic, ok := parseBloodPressure(in.Vitals.BloodPressure)
	if !ok {
		return nil
	}

	switch {
	case systolic > 180 || diastolic > 120:
		return []Flag{{
			Type:     TypeVitalsConflict,
			Severity: SeverityHigh,
			Message:  fmt.Sprintf("hypertensive crisis: blood pressure %d/%d with documented hypertension", systolic, diastolic),
			Source:   "condition/vitals cross-check",
		}}
	case systolic > 140 || diastolic > 90:
		return []Flag{{
			Type:     TypeVitalsConflict,
			Severity: SeverityMedium,
			Message:  fmt.Sprintf("elevated blood pressure %d/%d with documented hypertension", systolic, diastolic),
			Source:   "condition/vitals cross-check",
		}}
	default:
		return nil
	}
}

const polypharmacyThreshold = 10

func polypharmacy(in Input) []Flag {
	distinct := make(map[string]bool)
	for _, m := range in.Medications {
		name := strings.ToLower(strings.TrimSpace(m))
		if name != "" {
			distinct[name] = true
		}
	}
	if len(distinct) <= polypharmacyThreshold {
		return nil
	}
	return []Flag{{
		Type:     TypePolypharmacy,
		Severity: SeverityLow,
		Message:  fmt.Sprintf("%d concurrent medications on record; review for interactions", len(distinct)),
		Source:   "medication count",
	}}
}

// containsTerm reports whether any entry contains the term,
// case-insensitively.
func containsTerm(entries []string, term string) bool {
	term = strings.ToLower(term)
	for _, e := range entries {
		if strings.Contains(strings.ToLower(e), term) {
			return true
		}
	}
	return false
}

// parseBloodPressure parses a "systolic/diastolic" reading such as "120/80"
// or "120/80 mmHg".
func parseBloodPressure(bp string) (systolic, diastolic int, ok bool) {
	parts := strings.SplitN(strings.TrimSpace(bp), "/", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	s, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, false
	}
	rest := strings.Fields(parts[1])
	if len(rest) == 0 {
		return 0, 0, false
	}
	d, err := strconv.Atoi(rest[0])
	if err != nil {
		return 0, 0, false
	}
	return s, d, true
}
