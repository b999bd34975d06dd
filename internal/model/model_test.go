package model

import (
	"testing"
	"time"
)

func TestBoundingBox_Area(t *testing.T) {
	tests := []struct {
		box      BoundingBox
		expected int
	}{
		{BoundingBox{X1: 0, Y1: 0, X2: 10, Y2: 20}, 200},
		{BoundingBox{X1: 5, Y1: 5, X2: 5, Y2: 20}, 0},
		{BoundingBox{X1: 10, Y1: 0, X2: 0, Y2: 10}, 0},
	}

	for _, tt := range tests {
		if got := tt.box.Area(); got != tt.expected {
			t.Errorf("%+v.Area() = %d, expected %d", tt.box, got, tt.expected)
		}
	}
}

func TestBoundingBox_Clamp(t *testing.T) {
	box := BoundingBox{X1: -20, Y1: 10, X2: 700, Y2: 500}.Clamp(640, 480)
	expected := BoundingBox{X1: 0, Y1: 10, X2: 640, Y2: 480}
	if box != expected {
		t.Errorf("Clamp = %+v, expected %+v", box, expected)
	}

	outside := BoundingBox{X1: 650, Y1: 0, X2: 700, Y2: 50}.Clamp(640, 480)
	if outside.Area() != 0 {
		t.Errorf("Box outside the frame should collapse, got %+v", outside)
	}
}

func TestTrackedIdentity_Duration(t *testing.T) {
	identity := TrackedIdentity{ID: 7, FirstSeen: time.Second, LastSeen: 26 * time.Second}
	if identity.Duration() != 25*time.Second {
		t.Errorf("Expected 25s, got %v", identity.Duration())
	}
	if identity.ID.String() != "7" {
		t.Errorf("Expected id string 7, got %s", identity.ID.String())
	}
}
