package control

import (
	"net"
	"testing"
)

type testLogger struct{}

func (testLogger) Infof(string, ...any) {}
func (testLogger) Warnf(string, ...any) {}

func TestListAndStatsRoundTrip(t *testing.T) {
	registry := NewRegistry()
	registry.Open(1, "10.0.0.1:1234")
	registry.SetPhase(1, PhaseSplicing)
	registry.SetBackend(1, "127.0.0.1:25566")
	registry.AddBytes(1, 100, 200)

	server := NewServer(registry, testLogger{})

	operatorSide, proxySide := net.Pipe()
	go server.handleOperator(proxySide)

	session, err := DialOperatorSession(operatorSide)
	if err != nil {
		t.Fatal(err)
	}
	defer session.Close()

	var entries []Entry
	if err := Query(session, "list", &entries); err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].ID != 1 || entries[0].Phase != PhaseSplicing || entries[0].BackendAddr != "127.0.0.1:25566" {
		t.Fatalf("unexpected entry: %+v", entries[0])
	}
	if entries[0].BytesClient != 100 || entries[0].BytesBackend != 200 {
		t.Fatalf("unexpected byte counters: %+v", entries[0])
	}

	var stats Stats
	if err := Query(session, "stats", &stats); err != nil {
		t.Fatal(err)
	}
	if stats.ActiveConnections != 1 {
		t.Fatalf("active connections = %d, want 1", stats.ActiveConnections)
	}
	if stats.TotalBytesClient != 100 || stats.TotalBytesBackend != 200 {
		t.Fatalf("unexpected stats totals: %+v", stats)
	}

	registry.Close(1)
	var afterClose []Entry
	if err := Query(session, "list", &afterClose); err != nil {
		t.Fatal(err)
	}
	if len(afterClose) != 0 {
		t.Fatalf("expected 0 entries after close, got %d", len(afterClose))
	}
}

func TestUnknownCommandReturnsError(t *testing.T) {
	registry := NewRegistry()
	server := NewServer(registry, testLogger{})

	operatorSide, proxySide := net.Pipe()
	go server.handleOperator(proxySide)

	session, err := DialOperatorSession(operatorSide)
	if err != nil {
		t.Fatal(err)
	}
	defer session.Close()

	var resp map[string]string
	if err := Query(session, "bogus", &resp); err != nil {
		t.Fatal(err)
	}
	if resp["error"] == "" {
		t.Fatalf("expected an error field in response, got %+v", resp)
	}
}
