package core

import (
	"encoding/json"
	"testing"
	"time"
)

// TestTimestampScan tests database scanning into Timestamp
func TestTimestampScan(t *testing.T) {
	now := time.Now()

	var ts Timestamp
	if err := ts.Scan(now); err != nil {
		t.Fatalf("Unexpected scan error: %v", err)
	}
	if !ts.Time().Equal(now) {
		t.Errorf("Expected %v, got %v", now, ts.Time())
	}

	if err := ts.Scan(42); err == nil {
		t.Error("Expected error scanning a non-time value")
	}

	if err := ts.Scan(nil); err != nil {
		t.Errorf("NULL should scan to the zero timestamp: %v", err)
	}
}

// TestTimestampJSONRoundTrip tests JSON marshaling round trip
func TestTimestampJSONRoundTrip(t *testing.T) {
	ts := Now()

	data, err := json.Marshal(ts)
	if err != nil {
		t.Fatalf("Unexpected marshal error: %v", err)
	}

	var back Timestamp
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unexpected unmarshal error: %v", err)
	}
	if !back.Time().Equal(ts.Time()) {
		t.Errorf("Expected %v, got %v", ts, back)
	}
}
