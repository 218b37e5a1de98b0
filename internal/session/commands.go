package session

import (
	"fmt"
	"time"

	"rig-animator/internal/attach"
	"rig-animator/internal/ik"
	"rig-animator/internal/logging"
	"rig-animator/internal/mathutil"
	"rig-animator/internal/mirror"
	"rig-animator/internal/prop"
	"rig-animator/internal/propgen"
	"rig-animator/internal/rig"
	"rig-animator/internal/timeline"
)

// DragEffector moves a hand or foot toward Target with two-bone IK. Hands
// snap to nearby snap points and release when pulled away.
type DragEffector struct {
	Effector rig.BoneID
	Target   mathutil.Vec2
}

func (c DragEffector) Execute(s *State) error {
	chain, ok := s.Rig.ChainFor(c.Effector)
	if !ok {
		return fmt.Errorf("session: drag bone %d: %w", c.Effector, ErrNotEffector)
	}
	log := logging.Logger()
	hand := c.Effector
	def, _ := s.Rig.Bone(hand)
	edited := []rig.BoneID{chain.Upper, chain.Lower}
	pose := s.Pose

	pinned := false
	a, attached := s.Attachments[hand]
	if attached {
		anchor, ok := attach.Resolve(a, s.Props)
		switch {
		case !ok:
			log.Debug("stale attachment dropped", "hand", def.Name, "prop", a.PropID)
			s.Attachments.Detach(hand)
			attached = false
		case anchor.Pos.Dist(c.Target) > attach.ReleaseRadius:
			log.Info("hand released", "hand", def.Name, "prop", a.PropID, "snap", a.SnapID)
			s.Attachments.Detach(hand)
			attached = false
		case !anchor.Category.HandDriven():
			pose = attach.PinHand(s.Rig, pose, hand, a, anchor)
			edited = append(edited, hand)
			pinned = true
		}
	}

	if !pinned {
		if patch, ok := ik.Solve(s.Rig, chain, c.Target, pose); ok {
			pose = patch.Apply(pose)
		}
		if def.Limb == rig.LimbHand && !attached {
			g := s.Rig.GlobalTransform(hand, pose)
			if na, ok := attach.TrySnap(s.Attachments, hand, c.Target, g.Angle, s.Props); ok {
				s.Attachments[hand] = na
				log.Info("hand snapped", "hand", def.Name, "prop", na.PropID, "snap", na.SnapID)
				if anchor, ok := attach.Resolve(na, s.Props); ok && !anchor.Category.HandDriven() {
					pose = attach.PinHand(s.Rig, pose, hand, na, anchor)
					edited = append(edited, hand)
				}
			}
		}
	}

	if s.Mirror {
		pose = mirror.Apply(s.Rig, pose, edited)
	}
	s.Pose = pose
	s.settle()
	s.writeThrough()
	return nil
}

// SetAngle sets one bone's local angle directly. Hands attached to fixed
// and cable props are re-pinned afterwards, so editing an arm they drive has
// no lasting effect.
type SetAngle struct {
	Bone  rig.BoneID
	Angle float64
}

func (c SetAngle) Execute(s *State) error {
	if _, ok := s.Rig.Bone(c.Bone); !ok {
		return fmt.Errorf("session: set angle %d: %w", c.Bone, rig.ErrUnknownBone)
	}
	s.Pose[c.Bone] = mathutil.NormalizeAngle(c.Angle)
	if s.Mirror {
		s.Pose = mirror.Apply(s.Rig, s.Pose, []rig.BoneID{c.Bone})
	}
	s.settle()
	s.writeThrough()
	return nil
}

// MoveProp places a prop. Every hand holding it follows, whatever its
// category.
type MoveProp struct {
	PropID    string
	Transform prop.Transform
}

func (c MoveProp) Execute(s *State) error {
	p, ok := s.Props.Find(c.PropID)
	if !ok {
		return fmt.Errorf("session: move prop %s: %w", c.PropID, ErrUnknownProp)
	}
	p.Transform = c.Transform
	for _, h := range s.Attachments.OnProp(c.PropID) {
		a := s.Attachments[h]
		if anchor, ok := attach.Resolve(a, s.Props); ok {
			s.Pose = attach.PinHand(s.Rig, s.Pose, h, a, anchor)
		}
	}
	mirror.Sync(s.Rig, s.Pose, s.Attachments, s.Props)
	s.writeThrough()
	return nil
}

// Detach frees a hand. Detaching a free hand does nothing.
type Detach struct {
	Hand rig.BoneID
}

func (c Detach) Execute(s *State) error {
	s.Attachments.Detach(c.Hand)
	return nil
}

// SetMirror turns symmetric editing on or off.
type SetMirror struct {
	On bool
}

func (c SetMirror) Execute(s *State) error {
	s.Mirror = c.On
	return nil
}

// AddKeyframe duplicates the live state into a new frame after the active
// one and selects it.
type AddKeyframe struct {
	Duration time.Duration // DefaultDuration when zero
}

func (c AddKeyframe) Execute(s *State) error {
	d := c.Duration
	if d == 0 {
		d = timeline.DefaultDuration
	}
	k := timeline.Keyframe{ID: NewID(), Duration: d, Pose: s.Pose, Props: s.Props.Transforms()}
	i, err := s.Timeline.Insert(s.Active, k)
	if err != nil {
		return fmt.Errorf("session: add keyframe: %w", err)
	}
	s.Active = i
	s.Clock.Stop()
	return nil
}

// DeleteKeyframe removes a frame. Deleting the only frame is refused
// without error.
type DeleteKeyframe struct {
	Index int
}

func (c DeleteKeyframe) Execute(s *State) error {
	if s.Timeline.Len() <= 1 {
		logging.Logger().Info("delete refused: timeline needs at least one keyframe")
		return nil
	}
	if !s.Timeline.Delete(c.Index) {
		return fmt.Errorf("session: delete keyframe %d: %w", c.Index, timeline.ErrIndex)
	}
	active := s.Active
	if c.Index < active || active >= s.Timeline.Len() {
		active--
	}
	if active < 0 {
		active = 0
	}
	s.Clock.Stop()
	return s.loadFrame(active)
}

// SelectKeyframe makes frame Index active and loads its content.
type SelectKeyframe struct {
	Index int
}

func (c SelectKeyframe) Execute(s *State) error {
	s.Clock.Stop()
	return s.loadFrame(c.Index)
}

// SetDuration changes how long it takes to reach frame Index.
type SetDuration struct {
	Index    int
	Duration time.Duration
}

func (c SetDuration) Execute(s *State) error {
	if err := s.Timeline.SetDuration(c.Index, c.Duration); err != nil {
		return fmt.Errorf("session: set duration %d: %w", c.Index, err)
	}
	return nil
}

// AddProp adds a prop to the scene. An empty id is filled in.
type AddProp struct {
	Prop prop.Prop
}

func (c AddProp) Execute(s *State) error {
	p := c.Prop.Clone()
	if p.ID == "" {
		p.ID = NewID()
	}
	if s.Props.Index(p.ID) >= 0 {
		return fmt.Errorf("session: add prop %s: %w", p.ID, ErrDuplicateProp)
	}
	s.Props = append(s.Props, p)
	s.writeThrough()
	return nil
}

// RemoveProp deletes a prop, frees every hand holding it and drops it from
// every keyframe.
type RemoveProp struct {
	PropID string
}

func (c RemoveProp) Execute(s *State) error {
	i := s.Props.Index(c.PropID)
	if i < 0 {
		return fmt.Errorf("session: remove prop %s: %w", c.PropID, ErrUnknownProp)
	}
	s.Attachments.DetachProp(c.PropID)
	s.Props = append(s.Props[:i], s.Props[i+1:]...)
	s.Timeline.DropProp(c.PropID)
	return nil
}

// CenterSnap is the id of the single snap point given to generated props.
const CenterSnap = "center"

// RegisterGenerated adds the prop produced by a finished generation request
// at At. A failed request leaves the scene untouched and returns its error.
type RegisterGenerated struct {
	Outcome propgen.Outcome
	At      mathutil.Vec2
}

func (c RegisterGenerated) Execute(s *State) error {
	if c.Outcome.Err != nil {
		return fmt.Errorf("session: generate %q: %w", c.Outcome.Description, c.Outcome.Err)
	}
	res := c.Outcome.Result
	name := res.Name
	if name == "" {
		name = c.Outcome.Description
	}
	p := prop.Prop{
		ID:         NewID(),
		Name:       name,
		Category:   prop.CategoryForName(name),
		Shape:      prop.Shape{Path: res.Path, ViewBox: res.ViewBox},
		Transform:  prop.At(c.At[0], c.At[1]),
		SnapPoints: []prop.SnapPoint{{ID: CenterSnap}},
	}
	return AddProp{Prop: p}.Execute(s)
}

// Play starts looping playback from the active frame.
type Play struct{}

func (Play) Execute(s *State) error {
	s.Clock.Start(s.Active)
	return nil
}

// Stop halts playback and restores the active frame.
type Stop struct{}

func (Stop) Execute(s *State) error {
	if !s.Clock.Playing {
		return nil
	}
	s.Clock.Stop()
	return s.loadFrame(s.Active)
}

// Tick advances playback by Dt and shows the interpolated state.
type Tick struct {
	Dt time.Duration
}

func (c Tick) Execute(s *State) error {
	if !s.Clock.Playing {
		return nil
	}
	i, progress := s.Clock.Advance(s.Timeline, c.Dt)
	pose, transforms := s.Timeline.Interpolate(i, progress, s.Props)
	s.Pose = pose
	for j := range s.Props {
		if t, ok := transforms[s.Props[j].ID]; ok {
			s.Props[j].Transform = t
		}
	}
	s.settle()
	return nil
}
