// Package mirror implements the two pose-edit side effects that run after
// every edit: symmetric left/right mirroring and hand-driven prop sync.
package mirror

import (
	"rig-animator/internal/attach"
	"rig-animator/internal/mathutil"
	"rig-animator/internal/prop"
	"rig-animator/internal/rig"
)

// SyncEpsilon is the smallest translation (units) or rotation (degrees)
// change Sync bothers to write.
const SyncEpsilon = 0.1

// Apply writes the negated angle of every edited bone to its mirror partner.
// Partner writes never trigger a further mirror step. When both bones of a
// pair were edited directly, neither overrides the other.
func Apply(r *rig.Rig, pose rig.Pose, edited []rig.BoneID) rig.Pose {
	out := pose.Clone()
	direct := make(map[rig.BoneID]bool, len(edited))
	for _, id := range edited {
		direct[id] = true
	}
	for _, id := range edited {
		p, ok := r.Partner(id)
		if !ok || direct[p] {
			continue
		}
		out[p] = -out[id]
	}
	return out
}

// Sync moves every hand-driven prop so its attached snap point sits on the
// hand pivot, rotated by the hand's global angle minus the grip offset.
// Props are updated in place; the ids of props that moved are returned.
// Updates smaller than SyncEpsilon are skipped.
func Sync(r *rig.Rig, pose rig.Pose, m attach.Map, props prop.List) []string {
	if len(m) == 0 {
		return nil
	}
	worlds := r.Evaluate(pose)
	var changed []string
	for _, h := range m.Hands() {
		a := m[h]
		p, ok := props.Find(a.PropID)
		if !ok || !p.Category.HandDriven() || int(h) >= len(worlds) {
			continue
		}
		s, ok := p.Snap(a.SnapID)
		if !ok {
			continue
		}
		ht := worlds[h]
		next := p.Transform
		next.Rotation = mathutil.NormalizeAngle(ht.Angle - a.RotationOffset)
		next = next.PlaceSnap(s.Pos(), ht.Pos())
		if next.Near(p.Transform, SyncEpsilon) {
			continue
		}
		p.Transform = next
		changed = append(changed, p.ID)
	}
	return changed
}
