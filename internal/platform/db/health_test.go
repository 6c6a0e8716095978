package db

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestPoolStatus_JSONShape(t *testing.T) {
	status := PoolStatus{
		TotalConns:    8,
		IdleConns:     3,
		AcquiredConns: 5,
		MaxConns:      16,
		EmptyAcquires: 2,
		Reachable:     true,
	}

	raw, err := json.Marshal(status)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	want := map[string]float64{
		"total_conns":         8,
		"idle_conns":          3,
		"acquired_conns":      5,
		"max_conns":           16,
		"empty_acquire_count": 2,
	}
	for key, v := range want {
		got, ok := decoded[key].(float64)
		if !ok {
			t.Errorf("missing key %q in payload", key)
			continue
		}
		if got != v {
			t.Errorf("%s = %v, want %v", key, got, v)
		}
	}
	if reachable, _ := decoded["reachable"].(bool); !reachable {
		t.Error("expected reachable true")
	}
}

func TestPoolStatus_NoConnectionDetails(t *testing.T) {
	raw, err := json.Marshal(PoolStatus{})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	// The probe payload must stay gauges-only.
	for _, forbidden := range []string{"url", "host", "password", "dsn"} {
		if strings.Contains(strings.ToLower(string(raw)), forbidden) {
			t.Errorf("payload exposes %q: %s", forbidden, raw)
		}
	}
}
