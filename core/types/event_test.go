package types_test

import (
	"testing"

	"verse/core/events"
	"verse/core/types"
)

func TestEventSatisfiesEventsEmitterInterface(t *testing.T) {
	evt := &types.Event{Type: "vault.funded", Attributes: map[string]string{"amount": "100"}}
	var _ events.Event = evt
	if evt.EventType() != "vault.funded" {
		t.Fatalf("expected EventType to return Type field, got %q", evt.EventType())
	}

	var emitter events.Emitter = events.NoopEmitter{}
	emitter.Emit(evt)
}
