package node

import (
	"testing"
)

func TestNewDevNode(t *testing.T) {
	cfg := devConfig()
	n, err := New(&cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer n.Stop()

	if n.Distributor() == nil {
		t.Fatal("distributor not wired")
	}
	owner, _ := cfg.OwnerAddress()
	if n.Distributor().Owner() != owner {
		t.Fatalf("owner = %s", n.Distributor().Owner())
	}
	if n.Running() {
		t.Fatal("node should not be running before Start")
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := devConfig()
	cfg.Owner = "not-an-address"
	if _, err := New(&cfg); err == nil {
		t.Fatal("expected error for invalid owner")
	}
}

func TestNodeStartStop(t *testing.T) {
	cfg := devConfig()
	cfg.RPCPort = 0 // let the kernel pick
	n, err := New(&cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := n.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !n.Running() {
		t.Fatal("node should be running")
	}
	if err := n.Start(); err == nil {
		t.Fatal("second Start should fail")
	}

	if err := n.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if n.Running() {
		t.Fatal("node should have stopped")
	}
	if err := n.Stop(); err != nil {
		t.Fatalf("repeated Stop should be a no-op, got %v", err)
	}
	n.Wait() // returns immediately once stopped
}
