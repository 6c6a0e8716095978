package fhir

import (
	"fmt"
	"time"

	"github.com/phr/phr/pkg/fhirmodels"
)

// PatientSummary is the snapshot shape handed to the adapter. It is a value
// copy of the final clinical fields, so the resulting bundle mirrors the
// snapshot at one point in time.
type PatientSummary struct {
	PatientID   string
	PatientName string
	BloodGroup  string
	Allergies   []string
	Conditions  []string
	Medications []string
	CreatedAt   time.Time
}

const bloodGroupExtensionURL = "http://hl7.org/fhir/StructureDefinition/patient-bloodGroup"

// SummaryBundle maps a patient summary to a collection Bundle containing, in
// order: one Patient, one AllergyIntolerance per allergy, one Condition per
// chronic condition, and one MedicationStatement per current medication.
// Pure mapping; deterministic for a given input.
func SummaryBundle(s PatientSummary) *Bundle {
	patientRef := Reference{Reference: FormatReference("Patient", s.PatientID)}

	patient := Patient{
		ResourceType: "Patient",
		ID:           s.PatientID,
	}
	if s.PatientName != "" {
		patient.Name = []HumanName{{Use: fhirmodels.NameUseOfficial, Text: s.PatientName}}
	}
	if s.BloodGroup != "" {
		patient.Extension = []Extension{{URL: bloodGroupExtensionURL, ValueString: s.BloodGroup}}
	}

	resources := []interface{}{patient}

	for i, a := range s.Allergies {
		resources = append(resources, AllergyIntolerance{
			ResourceType:   "AllergyIntolerance",
			ID:             fmt.Sprintf("%s-allergy-%d", s.PatientID, i+1),
			ClinicalStatus: activeStatus(fhirmodels.SystemAllergyClinical),
			Code:           &CodeableConcept{Text: a},
			Patient:        patientRef,
			Criticality:    fhirmodels.CriticalityHigh,
		})
	}

	for i, c := range s.Conditions {
		resources = append(resources, Condition{
			ResourceType:   "Condition",
			ID:             fmt.Sprintf("%s-condition-%d", s.PatientID, i+1),
			ClinicalStatus: activeStatus(fhirmodels.SystemConditionClinical),
			Code:           &CodeableConcept{Text: c},
			Subject:        patientRef,
		})
	}

	for i, m := range s.Medications {
		resources = append(resources, MedicationStatement{
			ResourceType:              "MedicationStatement",
			ID:                        fmt.Sprintf("%s-medication-%d", s.PatientID, i+1),
			Status:                    fhirmodels.StatusActive,
			MedicationCodeableConcept: &CodeableConcept{Text: m},
			Subject:                   patientRef,
		})
	}

	return NewCollectionBundle(s.CreatedAt, resources...)
}

func activeStatus(system string) *CodeableConcept {
	return &CodeableConcept{Coding: []Coding{{System: system, Code: fhirmodels.StatusActive}}}
}
