package fhirmodels

// Common FHIR R4 value set constants used across the application.

// Bundle type codes.
const (
	BundleTypeCollection = "collection"
	BundleTypeDocument   = "document"
	BundleTypeSearchset  = "searchset"
)

// Code systems for clinical status codings.
const (
	SystemAllergyClinical   = "http://terminology.hl7.org/CodeSystem/allergyintolerance-clinical"
	SystemConditionClinical = "http://terminology.hl7.org/CodeSystem/condition-clinical"
)

// Clinical status codes shared by AllergyIntolerance and Condition.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
	StatusResolved = "resolved"
)

// AllergyIntolerance criticality codes.
const (
	CriticalityLow    = "low"
	CriticalityHigh   = "high"
	CriticalityUnable = "unable-to-assess"
)

// HumanName use codes.
const (
	NameUseOfficial = "official"
	NameUseNickname = "nickname"
)
