// Package attach binds hand effectors to prop snap points.
//
// Each hand is either FREE (absent from the Map) or ATTACHED to one snap
// point. A hand snaps in only while it is being dragged within SnapRadius of
// a snap point, and is released once the drag target moves further than
// ReleaseRadius from its anchor. The gap between the two radii keeps the
// binding from flickering at the boundary.
package attach

import (
	"math"
	"sort"

	"rig-animator/internal/ik"
	"rig-animator/internal/mathutil"
	"rig-animator/internal/prop"
	"rig-animator/internal/rig"
)

const (
	// SnapRadius is the largest distance at which a dragged hand snaps in.
	SnapRadius = 20.0
	// ReleaseRadius is the distance beyond which an attached hand lets go.
	ReleaseRadius = 50.0
)

// Attachment binds one hand to a prop snap point. RotationOffset is the
// hand's global angle minus the prop rotation at snap time and never changes
// while the attachment lives.
type Attachment struct {
	PropID         string  `json:"prop_id"`
	SnapID         string  `json:"snap_id"`
	RotationOffset float64 `json:"rotation_offset"`
}

// Map holds the attachment of every ATTACHED hand.
type Map map[rig.BoneID]Attachment

// Clone returns an independent copy.
func (m Map) Clone() Map {
	out := make(Map, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Hands returns attached hands in ascending id order.
func (m Map) Hands() []rig.BoneID {
	hands := make([]rig.BoneID, 0, len(m))
	for h := range m {
		hands = append(hands, h)
	}
	sort.Slice(hands, func(i, j int) bool { return hands[i] < hands[j] })
	return hands
}

// Holder returns the hand holding a snap point.
func (m Map) Holder(propID, snapID string) (rig.BoneID, bool) {
	for _, h := range m.Hands() {
		a := m[h]
		if a.PropID == propID && a.SnapID == snapID {
			return h, true
		}
	}
	return rig.NoParent, false
}

// OnProp returns the hands attached to propID in ascending id order.
func (m Map) OnProp(propID string) []rig.BoneID {
	var hands []rig.BoneID
	for _, h := range m.Hands() {
		if m[h].PropID == propID {
			hands = append(hands, h)
		}
	}
	return hands
}

// Detach frees hand. Detaching a free hand is a no-op.
func (m Map) Detach(hand rig.BoneID) {
	delete(m, hand)
}

// DetachProp frees every hand attached to propID.
func (m Map) DetachProp(propID string) {
	for _, h := range m.OnProp(propID) {
		delete(m, h)
	}
}

// Candidate is a snap point considered by Nearest.
type Candidate struct {
	PropID string
	SnapID string
	Pos    mathutil.Vec2
	Dist   float64
}

// Nearest scans every snap point of every prop and returns the closest one
// to point. Snap points already held by a hand other than hand are skipped.
func Nearest(props prop.List, point mathutil.Vec2, m Map, hand rig.BoneID) (Candidate, bool) {
	best := Candidate{Dist: math.Inf(1)}
	found := false
	for _, p := range props {
		for _, s := range p.SnapPoints {
			if h, held := m.Holder(p.ID, s.ID); held && h != hand {
				continue
			}
			pos := p.Transform.Apply(s.Pos())
			if d := pos.Dist(point); d < best.Dist {
				best = Candidate{PropID: p.ID, SnapID: s.ID, Pos: pos, Dist: d}
				found = true
			}
		}
	}
	return best, found
}

// TrySnap attaches a free hand to the nearest snap point within SnapRadius
// of point. handAngle is the hand's current global angle.
func TrySnap(m Map, hand rig.BoneID, point mathutil.Vec2, handAngle float64, props prop.List) (Attachment, bool) {
	if _, attached := m[hand]; attached {
		return Attachment{}, false
	}
	c, ok := Nearest(props, point, m, hand)
	if !ok || c.Dist > SnapRadius {
		return Attachment{}, false
	}
	p, _ := props.Find(c.PropID)
	a := Attachment{
		PropID:         c.PropID,
		SnapID:         c.SnapID,
		RotationOffset: mathutil.NormalizeAngle(handAngle - p.Transform.Rotation),
	}
	m[hand] = a
	return a, true
}

// Anchor is the live world state of an attachment's snap point.
type Anchor struct {
	Pos      mathutil.Vec2
	Rotation float64
	Category prop.Category
	Snap     prop.SnapPoint
}

// Resolve looks up the anchor of a. It returns false when the prop or snap
// point no longer exists; callers then treat the hand as free.
func Resolve(a Attachment, props prop.List) (Anchor, bool) {
	p, ok := props.Find(a.PropID)
	if !ok {
		return Anchor{}, false
	}
	s, ok := p.Snap(a.SnapID)
	if !ok {
		return Anchor{}, false
	}
	return Anchor{
		Pos:      p.Transform.Apply(s.Pos()),
		Rotation: p.Transform.Rotation,
		Category: p.Category,
		Snap:     s,
	}, true
}

// ShouldRelease reports whether a drag to target pulls the hand off its
// anchor. A missing anchor never releases here; see Resolve.
func ShouldRelease(a Attachment, target mathutil.Vec2, props prop.List) bool {
	anchor, ok := Resolve(a, props)
	if !ok {
		return false
	}
	return anchor.Pos.Dist(target) > ReleaseRadius
}

// HandAngle returns the local angle that gives hand a global angle of
// anchor rotation plus offset.
func HandAngle(r *rig.Rig, pose rig.Pose, hand rig.BoneID, a Attachment, anchor Anchor) float64 {
	return mathutil.NormalizeAngle(anchor.Rotation + a.RotationOffset - r.ParentAngle(hand, pose))
}

// PinHand solves hand's chain onto the anchor and applies the grip rotation.
// The returned pose is a copy.
func PinHand(r *rig.Rig, pose rig.Pose, hand rig.BoneID, a Attachment, anchor Anchor) rig.Pose {
	out := pose.Clone()
	if c, ok := r.ChainFor(hand); ok {
		if patch, ok := ik.Solve(r, c, anchor.Pos, out); ok {
			out = patch.Apply(out)
		}
	}
	out[hand] = HandAngle(r, out, hand, a, anchor)
	return out
}

// Pin applies the prop-drives-hand rule to every attached hand whose prop is
// not hand-driven. Hands with missing anchors are left alone.
func Pin(r *rig.Rig, pose rig.Pose, m Map, props prop.List) rig.Pose {
	out := pose.Clone()
	for _, h := range m.Hands() {
		a := m[h]
		anchor, ok := Resolve(a, props)
		if !ok || anchor.Category.HandDriven() {
			continue
		}
		out = PinHand(r, out, h, a, anchor)
	}
	return out
}
