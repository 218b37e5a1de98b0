package timeline

import (
	"errors"
	"testing"
	"time"

	"rig-animator/internal/prop"
	"rig-animator/internal/rig"
)

func frames(t *testing.T) Timeline {
	t.Helper()
	tl, err := New(
		Keyframe{ID: "a", Duration: 300 * time.Millisecond, Pose: rig.Pose{0, 10, -20},
			Props: map[string]prop.Transform{"bar": prop.At(0, 0)}},
		Keyframe{ID: "b", Duration: 200 * time.Millisecond, Pose: rig.Pose{90, 30, 40},
			Props: map[string]prop.Transform{"bar": prop.At(100, -50)}},
		Keyframe{ID: "c", Duration: 500 * time.Millisecond, Pose: rig.Pose{-45, 0.3, 7},
			Props: map[string]prop.Transform{}},
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return tl
}

var live = prop.List{
	{ID: "bar", Transform: prop.At(7, 7)},
	{ID: "bench", Transform: prop.At(300, 400)},
}

func TestInterpolateEndpointsExact(t *testing.T) {
	tl := frames(t)
	for i := 0; i < tl.Len(); i++ {
		from, _ := tl.Frame(i)
		to, _ := tl.Frame(tl.Next(i))

		pose, _ := tl.Interpolate(i, 0, live)
		for b := range pose {
			if pose[b] != from.Pose[b] {
				t.Errorf("frame %d progress 0 bone %d = %v, want %v", i, b, pose[b], from.Pose[b])
			}
		}
		pose, _ = tl.Interpolate(i, 1, live)
		for b := range pose {
			if pose[b] != to.Pose[b] {
				t.Errorf("frame %d progress 1 bone %d = %v, want %v", i, b, pose[b], to.Pose[b])
			}
		}
	}
}

func TestInterpolateMidpoint(t *testing.T) {
	tl := frames(t)
	pose, props := tl.Interpolate(0, 0.5, live)
	if pose[0] != 45 || pose[1] != 20 || pose[2] != 10 {
		t.Errorf("pose = %v, want [45 20 10]", pose)
	}
	if got := props["bar"]; got.X != 50 || got.Y != -25 {
		t.Errorf("bar = %+v, want (50, -25)", got)
	}
}

func TestInterpolateHoldsUnauthoredProps(t *testing.T) {
	tl := frames(t)
	_, props := tl.Interpolate(1, 0.5, live)
	// Frame c has no entry for bar: the end holds the live transform.
	if got := props["bar"]; got.X != 53.5 || got.Y != -21.5 {
		t.Errorf("bar = %+v, want (53.5, -21.5)", got)
	}
	if got := props["bench"]; got != prop.At(300, 400) {
		t.Errorf("bench = %+v, want live transform", got)
	}
}

func TestInterpolateWrapsLastToFirst(t *testing.T) {
	tl := frames(t)
	pose, _ := tl.Interpolate(2, 1, live)
	first, _ := tl.Frame(0)
	for b := range pose {
		if pose[b] != first.Pose[b] {
			t.Errorf("bone %d = %v, want %v", b, pose[b], first.Pose[b])
		}
	}
}

func TestLocate(t *testing.T) {
	tl := frames(t)
	tests := []struct {
		at       time.Duration
		index    int
		progress float64
	}{
		{0, 0, 0},
		{100 * time.Millisecond, 0, 0.5},
		{200 * time.Millisecond, 1, 0},
		{450 * time.Millisecond, 1, 0.5},
		{700 * time.Millisecond, 2, 0},
		{850 * time.Millisecond, 2, 0.5},
		{time.Second, 0, 0},
		{-100 * time.Millisecond, 2, 2.0 / 3},
	}
	for _, tt := range tests {
		t.Run(tt.at.String(), func(t *testing.T) {
			i, p := tl.Locate(tt.at)
			if i != tt.index || p < tt.progress-1e-9 || p > tt.progress+1e-9 {
				t.Errorf("Locate(%v) = %d, %v, want %d, %v", tt.at, i, p, tt.index, tt.progress)
			}
		})
	}
}

func TestOffsetsAndTotal(t *testing.T) {
	tl := frames(t)
	if got := tl.Total(); got != time.Second {
		t.Errorf("Total() = %v, want 1s", got)
	}
	want := []time.Duration{0, 200 * time.Millisecond, 700 * time.Millisecond}
	for i, got := range tl.Offsets() {
		if got != want[i] {
			t.Errorf("Offsets()[%d] = %v, want %v", i, got, want[i])
		}
	}
}

func TestDeleteKeepsOneFrame(t *testing.T) {
	tl := frames(t)
	if !tl.Delete(1) || !tl.Delete(0) {
		t.Fatal("Delete() refused with frames to spare")
	}
	if tl.Delete(0) {
		t.Error("Delete() removed the last frame")
	}
	if tl.Len() != 1 {
		t.Errorf("Len() = %d, want 1", tl.Len())
	}
}

func TestInsertAndDuration(t *testing.T) {
	tl := frames(t)
	at, err := tl.Insert(0, Keyframe{ID: "x", Duration: 50 * time.Millisecond, Pose: rig.Pose{1, 2, 3}})
	if err != nil || at != 1 {
		t.Fatalf("Insert() = %d, %v, want 1, nil", at, err)
	}
	if k, _ := tl.Frame(1); k.ID != "x" {
		t.Errorf("frame 1 = %s, want x", k.ID)
	}
	if err := tl.SetDuration(1, 0); !errors.Is(err, ErrInvalidDuration) {
		t.Errorf("SetDuration(0) error = %v, want ErrInvalidDuration", err)
	}
	if err := tl.SetDuration(9, time.Second); !errors.Is(err, ErrIndex) {
		t.Errorf("SetDuration(9) error = %v, want ErrIndex", err)
	}
}

func TestNewRejectsEmptyAndZeroDuration(t *testing.T) {
	if _, err := New(); err == nil {
		t.Error("New() with no frames succeeded")
	}
	if _, err := New(Keyframe{ID: "a"}); !errors.Is(err, ErrInvalidDuration) {
		t.Errorf("New() error = %v, want ErrInvalidDuration", err)
	}
}

func TestClockAdvance(t *testing.T) {
	tl := frames(t)
	var c Clock
	if i, p := c.Advance(tl, 50*time.Millisecond); i != 0 || p != 0 {
		t.Errorf("stopped Advance() = %d, %v, want 0, 0", i, p)
	}
	c.Start(0)
	if i, p := c.Advance(tl, 100*time.Millisecond); i != 0 || p != 0.5 {
		t.Errorf("Advance(100ms) = %d, %v, want 0, 0.5", i, p)
	}
	if i, p := c.Advance(tl, 350*time.Millisecond); i != 1 || p != 0.5 {
		t.Errorf("Advance(+350ms) = %d, %v, want 1, 0.5", i, p)
	}
	if i, _ := c.Advance(tl, 550*time.Millisecond); i != 0 {
		t.Errorf("Advance(+550ms) index = %d, want wrap to 0", i)
	}
	c.Stop()
	if c.Elapsed != 0 || c.Playing {
		t.Errorf("Stop() left %+v", c)
	}
}
