package queue

import (
	"encoding/json"
	"testing"

	"github.com/licensedesk/internal/config"
)

func TestNewContactRequestCreatedTask(t *testing.T) {
	task, err := NewContactRequestCreatedTask(ContactRequestCreatedPayload{RequestID: 7, OrderID: "111-2222222-3333333", Reason: "inventory_exhausted"})
	if err != nil {
		t.Fatalf("create task failed: %v", err)
	}
	if task.Type() != TaskContactRequestCreated {
		t.Fatalf("unexpected task type: %s", task.Type())
	}
	var decoded ContactRequestCreatedPayload
	if err := json.Unmarshal(task.Payload(), &decoded); err != nil {
		t.Fatalf("decode payload failed: %v", err)
	}
	if decoded.RequestID != 7 || decoded.OrderID != "111-2222222-3333333" {
		t.Fatalf("unexpected payload: %+v", decoded)
	}
}

func TestDisabledClientSkipsEnqueue(t *testing.T) {
	client, err := NewClient(&config.QueueConfig{Enabled: false})
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}
	if client.Enabled() {
		t.Fatalf("client should be disabled")
	}
	if err := client.EnqueueContactRequestFulfill(ContactRequestFulfillPayload{RequestID: 1}, 0); err != nil {
		t.Fatalf("disabled enqueue should be noop: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
}

func TestBuildServerConfigDefaults(t *testing.T) {
	opt, cfg := BuildServerConfig(nil)
	if opt.Addr != "127.0.0.1:6379" {
		t.Fatalf("unexpected addr: %s", opt.Addr)
	}
	if cfg.Concurrency != 10 || cfg.Queues[DefaultQueue] != 1 {
		t.Fatalf("unexpected server config: %+v", cfg)
	}
}

func TestContactTaskIDIsStablePerRequest(t *testing.T) {
	if got := contactTaskID("fulfill", 42); got != "contact:fulfill:42" {
		t.Fatalf("unexpected task id: %s", got)
	}
	if contactTaskID("created", 42) == contactTaskID("fulfill", 42) {
		t.Fatalf("created and fulfill tasks must not share ids")
	}
}
