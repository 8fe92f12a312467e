package alert

import "testing"

func TestStateRaiseClear(t *testing.T) {
	s := NewState()

	if s.Active("device-1") {
		t.Error("fresh state reports device-1 active")
	}

	if !s.Raise("device-1") {
		t.Error("first Raise returned false")
	}
	if !s.Active("device-1") {
		t.Error("device-1 not active after Raise")
	}
	if s.Raise("device-1") {
		t.Error("second Raise returned true, want false")
	}

	if s.Active("device-2") {
		t.Error("raising device-1 affected device-2")
	}

	if !s.Clear("device-1") {
		t.Error("Clear of raised flag returned false")
	}
	if s.Active("device-1") {
		t.Error("device-1 still active after Clear")
	}
	if s.Clear("device-1") {
		t.Error("Clear of unraised flag returned true, want false")
	}
}
