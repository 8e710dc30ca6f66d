package websocket

import (
	"testing"

	"github.com/google/uuid"
)

func TestRegistrySingleChannelPerSession(t *testing.T) {
	r := NewRegistry()
	id := uuid.New()

	if !r.Acquire(id) {
		t.Fatal("first acquire should succeed")
	}
	if r.Acquire(id) {
		t.Fatal("second acquire on a live channel should be rejected")
	}

	other := uuid.New()
	if !r.Acquire(other) {
		t.Error("unrelated session should not be blocked")
	}

	r.Release(id)
	if !r.Acquire(id) {
		t.Error("acquire after release should succeed")
	}
}
