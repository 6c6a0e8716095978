package fhir

import (
	"encoding/json"
	"time"

	"github.com/phr/phr/pkg/fhirmodels"
)

// Bundle represents a FHIR Bundle resource.
type Bundle struct {
	ResourceType string        `json:"resourceType"`
	ID           string        `json:"id,omitempty"`
	Type         string        `json:"type"`
	Total        *int          `json:"total,omitempty"`
	Link         []BundleLink  `json:"link,omitempty"`
	Entry        []BundleEntry `json:"entry,omitempty"`
	Timestamp    *time.Time    `json:"timestamp,omitempty"`
}

type BundleLink struct {
	Relation string `json:"relation"`
	URL      string `json:"url"`
}

type BundleEntry struct {
	FullURL  string          `json:"fullUrl,omitempty"`
	Resource json.RawMessage `json:"resource,omitempty"`
}

// NewCollectionBundle creates a collection Bundle from the given resources
// in the given order. Marshal failures skip the entry; the callers only pass
// plain structs, which always marshal.
func NewCollectionBundle(timestamp time.Time, resources ...interface{}) *Bundle {
	ts := timestamp.UTC()
	entries := make([]BundleEntry, 0, len(resources))
	for _, r := range resources {
		raw, err := json.Marshal(r)
		if err != nil {
			continue
		}
		entries = append(entries, BundleEntry{Resource: raw})
	}
	return &Bundle{
		ResourceType: "Bundle",
		Type:         fhirmodels.BundleTypeCollection,
		Timestamp:    &ts,
		Entry:        entries,
	}
}
