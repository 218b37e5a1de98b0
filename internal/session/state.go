// Package session holds the editable animation state and the commands that
// change it. State is a plain value: Apply clones it, runs one command on the
// clone and returns the result, so a failed command never leaves a partial
// edit behind.
package session

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"rig-animator/internal/attach"
	"rig-animator/internal/bake"
	"rig-animator/internal/mirror"
	"rig-animator/internal/prop"
	"rig-animator/internal/rig"
	"rig-animator/internal/timeline"
)

var (
	// ErrUnknownProp is returned when a command names a prop that is not in
	// the scene.
	ErrUnknownProp = errors.New("session: unknown prop")
	// ErrDuplicateProp is returned when adding a prop whose id is taken.
	ErrDuplicateProp = errors.New("session: duplicate prop id")
	// ErrNotEffector is returned when dragging a bone that ends no chain.
	ErrNotEffector = errors.New("session: bone is not an effector")
)

// State is everything an editing session owns.
type State struct {
	Rig         *rig.Rig
	Pose        rig.Pose
	Props       prop.List
	Attachments attach.Map
	Timeline    timeline.Timeline
	Active      int
	Mirror      bool
	Clock       timeline.Clock
}

// New starts a session on r at its rest pose with props placed as given. The
// timeline holds one keyframe capturing that state.
func New(r *rig.Rig, props prop.List) (State, error) {
	if r == nil {
		return State{}, errors.New("session: nil rig")
	}
	s := State{
		Rig:         r,
		Pose:        r.RestPose(),
		Props:       props.Clone(),
		Attachments: attach.Map{},
	}
	tl, err := timeline.New(timeline.Keyframe{
		ID:       NewID(),
		Duration: timeline.DefaultDuration,
		Pose:     s.Pose,
		Props:    s.Props.Transforms(),
	})
	if err != nil {
		return State{}, fmt.Errorf("session: new: %w", err)
	}
	s.Timeline = tl
	return s, nil
}

// NewID returns a fresh id for keyframes and props.
func NewID() string {
	return uuid.NewString()
}

// Clone returns a deep copy. The rig is immutable and shared.
func (s State) Clone() State {
	out := s
	out.Pose = s.Pose.Clone()
	out.Props = s.Props.Clone()
	out.Attachments = s.Attachments.Clone()
	out.Timeline = s.Timeline.Clone()
	return out
}

// Snapshot freezes the state for baking.
func (s State) Snapshot() bake.Snapshot {
	return bake.Snapshot{
		Rig:         s.Rig,
		Timeline:    s.Timeline,
		Props:       s.Props,
		Attachments: s.Attachments,
	}.Freeze()
}

// Command is one edit. Execute mutates s in place; Apply takes care of
// isolation.
type Command interface {
	Execute(s *State) error
}

// Apply runs cmd against a copy of s. On error s is returned unchanged.
func Apply(s State, cmd Command) (State, error) {
	next := s.Clone()
	if err := cmd.Execute(&next); err != nil {
		return s, err
	}
	return next, nil
}

// writeThrough stores the live pose and prop placement into the active
// keyframe. Playback owns the live state while it runs.
func (s *State) writeThrough() {
	if s.Clock.Playing {
		return
	}
	_ = s.Timeline.Update(s.Active, s.Pose, s.Props.Transforms())
}

// settle re-pins prop-driven hands and moves hand-driven props.
func (s *State) settle() {
	s.Pose = attach.Pin(s.Rig, s.Pose, s.Attachments, s.Props)
	mirror.Sync(s.Rig, s.Pose, s.Attachments, s.Props)
}

// loadFrame replaces the live pose and authored prop transforms with frame i.
func (s *State) loadFrame(i int) error {
	k, ok := s.Timeline.Frame(i)
	if !ok {
		return fmt.Errorf("session: load frame %d: %w", i, timeline.ErrIndex)
	}
	s.Active = i
	s.Pose = k.Pose.Clone()
	for j := range s.Props {
		if t, ok := k.Props[s.Props[j].ID]; ok {
			s.Props[j].Transform = t
		}
	}
	s.settle()
	return nil
}
