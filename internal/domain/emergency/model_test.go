package emergency

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestSnapshotExpiredAt(t *testing.T) {
	exp := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := &Snapshot{ExpiresAt: exp}

	if s.ExpiredAt(exp.Add(-time.Second)) {
		t.Error("snapshot should be valid one second before expiry")
	}
	if s.ExpiredAt(exp) {
		t.Error("snapshot should be valid at the expiry instant")
	}
	if !s.ExpiredAt(exp.Add(time.Second)) {
		t.Error("snapshot should be expired one second after expiry")
	}
}

func TestSnapshotJSONOmitsDigest(t *testing.T) {
	s := &Snapshot{TokenDigest: "deadbeef"}
	raw, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(raw), "deadbeef") {
		t.Error("token digest must not appear in serialized snapshot")
	}
}

func TestViewCarriesNoIdentifiers(t *testing.T) {
	s := &Snapshot{
		PatientName: "Jane Roe",
		TokenDigest: "deadbeef",
		Critical:    CriticalSummary{BloodGroup: "O-"},
	}
	raw, err := json.Marshal(s.View())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	body := string(raw)
	if strings.Contains(body, "deadbeef") {
		t.Error("view must not carry the token digest")
	}
	if strings.Contains(body, "patient_id") {
		t.Error("view must not carry internal patient identifiers")
	}
	if !strings.Contains(body, "Jane Roe") || !strings.Contains(body, "O-") {
		t.Error("view should carry the clinical content")
	}
}
