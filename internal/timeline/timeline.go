// Package timeline holds the looping keyframe list and blends between frames.
// It knows nothing about IK: every track is a plain number.
package timeline

import (
	"errors"
	"fmt"
	"time"

	"rig-animator/internal/mathutil"
	"rig-animator/internal/prop"
	"rig-animator/internal/rig"
)

// DefaultDuration is given to frames created without an explicit duration.
const DefaultDuration = time.Second

var (
	// ErrInvalidDuration is returned for non-positive durations.
	ErrInvalidDuration = errors.New("timeline: duration must be positive")
	// ErrIndex is returned for out-of-range frame indexes.
	ErrIndex = errors.New("timeline: frame index out of range")
)

// Keyframe is an authored pose and prop placement. Duration is the time it
// takes to reach this frame from the previous one; the first frame is reached
// from the last. Props missing from the map hold their live transform.
type Keyframe struct {
	ID       string
	Duration time.Duration
	Pose     rig.Pose
	Props    map[string]prop.Transform
}

// Clone returns a deep copy.
func (k Keyframe) Clone() Keyframe {
	out := k
	out.Pose = k.Pose.Clone()
	out.Props = make(map[string]prop.Transform, len(k.Props))
	for id, t := range k.Props {
		out.Props[id] = t
	}
	return out
}

// Timeline is a closed loop of keyframes. It always holds at least one frame.
type Timeline struct {
	frames []Keyframe
}

// New builds a timeline from frames.
func New(frames ...Keyframe) (Timeline, error) {
	if len(frames) == 0 {
		return Timeline{}, fmt.Errorf("timeline: at least one keyframe is required")
	}
	tl := Timeline{frames: make([]Keyframe, len(frames))}
	for i, k := range frames {
		if k.Duration <= 0 {
			return Timeline{}, fmt.Errorf("timeline: frame %d: %w", i, ErrInvalidDuration)
		}
		tl.frames[i] = k.Clone()
	}
	return tl, nil
}

// Clone returns a deep copy.
func (tl Timeline) Clone() Timeline {
	out := Timeline{frames: make([]Keyframe, len(tl.frames))}
	for i, k := range tl.frames {
		out.frames[i] = k.Clone()
	}
	return out
}

// Len returns the number of frames.
func (tl Timeline) Len() int { return len(tl.frames) }

// Frame returns a copy of frame i.
func (tl Timeline) Frame(i int) (Keyframe, bool) {
	if i < 0 || i >= len(tl.frames) {
		return Keyframe{}, false
	}
	return tl.frames[i].Clone(), true
}

// Frames returns copies of every frame.
func (tl Timeline) Frames() []Keyframe {
	out := make([]Keyframe, len(tl.frames))
	for i, k := range tl.frames {
		out[i] = k.Clone()
	}
	return out
}

// Next returns the index of the frame after i, wrapping to 0.
func (tl Timeline) Next(i int) int {
	if len(tl.frames) == 0 {
		return 0
	}
	return (i + 1) % len(tl.frames)
}

// Insert places k after frame index after and returns its index.
func (tl *Timeline) Insert(after int, k Keyframe) (int, error) {
	if after < -1 || after >= len(tl.frames) {
		return 0, ErrIndex
	}
	if k.Duration <= 0 {
		return 0, ErrInvalidDuration
	}
	at := after + 1
	tl.frames = append(tl.frames, Keyframe{})
	copy(tl.frames[at+1:], tl.frames[at:])
	tl.frames[at] = k.Clone()
	return at, nil
}

// Delete removes frame i. It refuses (returns false) when i is the only
// frame or out of range.
func (tl *Timeline) Delete(i int) bool {
	if len(tl.frames) <= 1 || i < 0 || i >= len(tl.frames) {
		return false
	}
	tl.frames = append(tl.frames[:i], tl.frames[i+1:]...)
	return true
}

// SetDuration changes the duration of frame i.
func (tl *Timeline) SetDuration(i int, d time.Duration) error {
	if i < 0 || i >= len(tl.frames) {
		return ErrIndex
	}
	if d <= 0 {
		return ErrInvalidDuration
	}
	tl.frames[i].Duration = d
	return nil
}

// Update overwrites the content of frame i, keeping its id and duration.
func (tl *Timeline) Update(i int, pose rig.Pose, props map[string]prop.Transform) error {
	if i < 0 || i >= len(tl.frames) {
		return ErrIndex
	}
	k := Keyframe{ID: tl.frames[i].ID, Duration: tl.frames[i].Duration, Pose: pose, Props: props}
	tl.frames[i] = k.Clone()
	return nil
}

// DropProp removes id from every frame's prop map.
func (tl *Timeline) DropProp(id string) {
	for i := range tl.frames {
		delete(tl.frames[i].Props, id)
	}
}

// Total returns the loop duration: the sum of every frame's duration.
func (tl Timeline) Total() time.Duration {
	var total time.Duration
	for _, k := range tl.frames {
		total += k.Duration
	}
	return total
}

// Offsets returns the loop time at which each frame is reached. Frame 0 sits
// at 0; the loop closes at Total.
func (tl Timeline) Offsets() []time.Duration {
	out := make([]time.Duration, len(tl.frames))
	var at time.Duration
	for i := 1; i < len(tl.frames); i++ {
		at += tl.frames[i].Duration
		out[i] = at
	}
	return out
}

// Locate maps a loop time to the active frame and the progress toward the
// next one. Times wrap around the loop.
func (tl Timeline) Locate(t time.Duration) (int, float64) {
	total := tl.Total()
	if total <= 0 {
		return 0, 0
	}
	t %= total
	if t < 0 {
		t += total
	}
	for i := range tl.frames {
		seg := tl.frames[tl.Next(i)].Duration
		if t < seg {
			return i, float64(t) / float64(seg)
		}
		t -= seg
	}
	return len(tl.frames) - 1, 1
}

// Interpolate blends frame index toward the next frame at progress in
// [0, 1]. Every bone angle and every live prop's five transform scalars are
// blended linearly; a prop missing from either frame uses its live transform
// for that end.
func (tl Timeline) Interpolate(index int, progress float64, live prop.List) (rig.Pose, map[string]prop.Transform) {
	if len(tl.frames) == 0 {
		return nil, nil
	}
	if index < 0 || index >= len(tl.frames) {
		index = 0
	}
	t := mathutil.Clamp(progress, 0, 1)
	from := tl.frames[index]
	to := tl.frames[tl.Next(index)]

	pose := make(rig.Pose, len(from.Pose))
	for b := range from.Pose {
		end := from.Pose[b]
		if b < len(to.Pose) {
			end = to.Pose[b]
		}
		pose[b] = mathutil.Lerp(from.Pose[b], end, t)
	}

	props := make(map[string]prop.Transform, len(live))
	for _, p := range live {
		a, ok := from.Props[p.ID]
		if !ok {
			a = p.Transform
		}
		b, ok := to.Props[p.ID]
		if !ok {
			b = p.Transform
		}
		props[p.ID] = a.Lerp(b, t)
	}
	return pose, props
}
