package discovery

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestScan_CollectsResponders(t *testing.T) {
	s := NewScanner("public").WithProbe(func(_ context.Context, host string, port int) (string, error) {
		if host == "10.0.0.2" && port == 161 {
			return "Linux edge-01", nil
		}
		if host == "10.0.0.1" && port == 1161 {
			return "net-snmp test agent", nil
		}
		return "", errors.New("timeout")
	})

	agents := s.Scan(context.Background(), []string{"10.0.0.2", "10.0.0.1", "10.0.0.3"}, nil)

	if len(agents) != 2 {
		t.Fatalf("expected 2 agents, got %d: %+v", len(agents), agents)
	}
	if agents[0].Address() != "10.0.0.1:1161" || agents[1].Address() != "10.0.0.2:161" {
		t.Errorf("unexpected order: %s, %s", agents[0].Address(), agents[1].Address())
	}
	if agents[1].Description != "Linux edge-01" {
		t.Errorf("Description = %q", agents[1].Description)
	}
}

func TestScan_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewScanner("public").WithProbe(func(ctx context.Context, _ string, _ int) (string, error) {
		return "", ctx.Err()
	})

	done := make(chan []Agent)
	go func() { done <- s.Scan(ctx, []string{"a", "b", "c"}, []int{161}) }()

	select {
	case agents := <-done:
		if len(agents) != 0 {
			t.Errorf("expected no agents, got %d", len(agents))
		}
	case <-time.After(2 * time.Second):
		t.Fatal("scan did not return after cancel")
	}
}

func TestExpandHosts(t *testing.T) {
	hosts, err := ExpandHosts([]string{"router.lan", "192.168.1.0/30"})
	if err != nil {
		t.Fatalf("ExpandHosts failed: %v", err)
	}
	want := []string{"router.lan", "192.168.1.1", "192.168.1.2"}
	if len(hosts) != len(want) {
		t.Fatalf("hosts = %v, want %v", hosts, want)
	}
	for i := range want {
		if hosts[i] != want[i] {
			t.Errorf("hosts[%d] = %s, want %s", i, hosts[i], want[i])
		}
	}

	single, err := ExpandHosts([]string{"10.1.1.7/32"})
	if err != nil || len(single) != 1 || single[0] != "10.1.1.7" {
		t.Errorf("/32 = %v, %v", single, err)
	}

	if _, err := ExpandHosts([]string{"10.0.0.0/8"}); err == nil {
		t.Error("expected error for /8")
	}
	if _, err := ExpandHosts([]string{"10.0.0.0/33"}); err == nil {
		t.Error("expected error for bad CIDR")
	}
}
