// Package bake samples a keyframe loop into time-stamped curves for export.
package bake

import (
	"fmt"
	"time"

	"rig-animator/internal/attach"
	"rig-animator/internal/mirror"
	"rig-animator/internal/prop"
	"rig-animator/internal/rig"
	"rig-animator/internal/timeline"
)

// DefaultInterval is the accurate-mode sample spacing.
const DefaultInterval = 30 * time.Millisecond

// Mode selects how densely the loop is sampled.
type Mode int

const (
	// ModeAccurate samples at a fixed interval and re-solves attached hands
	// at every sample, so IK arcs between keyframes are captured.
	ModeAccurate Mode = iota
	// ModeInterpolated emits one sample per keyframe plus the wrap sample
	// and leaves the in-between to the player's linear interpolation.
	ModeInterpolated
)

func (m Mode) String() string {
	if m == ModeInterpolated {
		return "interpolated"
	}
	return "accurate"
}

// ParseMode parses "accurate" or "interpolated".
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "accurate":
		return ModeAccurate, nil
	case "interpolated":
		return ModeInterpolated, nil
	}
	return 0, fmt.Errorf("bake: unknown mode %q", s)
}

// Options configures a bake.
type Options struct {
	Mode     Mode
	Interval time.Duration // accurate mode only; DefaultInterval when zero
}

// Snapshot is the frozen input of a bake.
type Snapshot struct {
	Rig         *rig.Rig
	Timeline    timeline.Timeline
	Props       prop.List
	Attachments attach.Map
}

// Freeze returns a deep copy that later edits cannot reach. The rig is
// immutable and shared.
func (s Snapshot) Freeze() Snapshot {
	return Snapshot{
		Rig:         s.Rig,
		Timeline:    s.Timeline.Clone(),
		Props:       s.Props.Clone(),
		Attachments: s.Attachments.Clone(),
	}
}

// Frame is one fully resolved sample.
type Frame struct {
	Time    time.Duration
	Percent float64 // Time as a percentage of the loop
	Pose    rig.Pose
	Props   map[string]prop.Transform
}

// AngleKey is one sample of a bone curve.
type AngleKey struct {
	Time    time.Duration
	Percent float64
	Angle   float64
}

// PropKey is one sample of a prop curve.
type PropKey struct {
	Time      time.Duration
	Percent   float64
	Transform prop.Transform
}

// Result holds the baked frames and the per-track curves derived from them.
type Result struct {
	Mode     Mode
	Duration time.Duration
	Frames   []Frame
	Bones    [][]AngleKey // indexed by rig.BoneID
	Props    map[string][]PropKey
}

// Bake samples the loop described by s.
func Bake(s Snapshot, opts Options) (Result, error) {
	if s.Rig == nil {
		return Result{}, fmt.Errorf("bake: snapshot has no rig")
	}
	if s.Timeline.Len() == 0 {
		return Result{}, fmt.Errorf("bake: snapshot has no keyframes")
	}
	s = s.Freeze()
	total := s.Timeline.Total()

	var frames []Frame
	switch opts.Mode {
	case ModeInterpolated:
		frames = sampleKeyframes(s, total)
	default:
		interval := opts.Interval
		if interval <= 0 {
			interval = DefaultInterval
		}
		frames = sampleAccurate(s, total, interval)
	}

	res := Result{
		Mode:     opts.Mode,
		Duration: total,
		Frames:   frames,
		Bones:    make([][]AngleKey, s.Rig.Len()),
		Props:    make(map[string][]PropKey, len(s.Props)),
	}
	for _, f := range frames {
		for b := range res.Bones {
			res.Bones[b] = append(res.Bones[b], AngleKey{Time: f.Time, Percent: f.Percent, Angle: f.Pose[b]})
		}
		for _, p := range s.Props {
			res.Props[p.ID] = append(res.Props[p.ID], PropKey{Time: f.Time, Percent: f.Percent, Transform: f.Props[p.ID]})
		}
	}
	return res, nil
}

func percent(t, total time.Duration) float64 {
	if total <= 0 {
		return 0
	}
	return float64(t) / float64(total) * 100
}

// sampleAccurate walks [0, total] at interval. Each sample blends the
// authored tracks, then re-applies the attachment rules: pinned hands are
// re-solved against the blended prop anchors and hand-driven props follow
// their hands.
func sampleAccurate(s Snapshot, total, interval time.Duration) []Frame {
	n := int(total/interval) + 2
	frames := make([]Frame, 0, n)
	for t := time.Duration(0); t < total; t += interval {
		frames = append(frames, resolve(s, t, total))
	}
	frames = append(frames, resolve(s, total, total))
	return frames
}

func resolve(s Snapshot, t, total time.Duration) Frame {
	i, progress := s.Timeline.Locate(t)
	pose, transforms := s.Timeline.Interpolate(i, progress, s.Props)

	working := s.Props.Clone()
	for k := range working {
		working[k].Transform = transforms[working[k].ID]
	}
	pose = attach.Pin(s.Rig, pose, s.Attachments, working)
	mirror.Sync(s.Rig, pose, s.Attachments, working)

	return Frame{
		Time:    t,
		Percent: percent(t, total),
		Pose:    pose,
		Props:   working.Transforms(),
	}
}

// sampleKeyframes emits each keyframe at the time it is reached, then the
// first keyframe again at the end of the loop.
func sampleKeyframes(s Snapshot, total time.Duration) []Frame {
	offsets := s.Timeline.Offsets()
	frames := make([]Frame, 0, len(offsets)+1)
	for i, at := range offsets {
		frames = append(frames, keyframeSample(s, i, at, total))
	}
	frames = append(frames, keyframeSample(s, 0, total, total))
	return frames
}

func keyframeSample(s Snapshot, i int, at, total time.Duration) Frame {
	k, _ := s.Timeline.Frame(i)
	props := make(map[string]prop.Transform, len(s.Props))
	for _, p := range s.Props {
		if t, ok := k.Props[p.ID]; ok {
			props[p.ID] = t
		} else {
			props[p.ID] = p.Transform
		}
	}
	return Frame{
		Time:    at,
		Percent: percent(at, total),
		Pose:    k.Pose.Clone(),
		Props:   props,
	}
}
