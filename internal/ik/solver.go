// Package ik solves two-bone chains analytically with the law of cosines.
package ik

import (
	"math"

	"rig-animator/internal/mathutil"
	"rig-animator/internal/rig"
)

// MaxReach is the fraction of the chain's full length a target is clamped to.
// Solving at exactly full extension is numerically unstable.
const MaxReach = 0.999

// minDistance keeps the law of cosines finite when the target sits on the
// chain origin.
const minDistance = 1e-6

// Patch holds the two local angles produced by a solve.
type Patch struct {
	Upper, Lower           rig.BoneID
	UpperAngle, LowerAngle float64
}

// Apply returns a copy of pose with the patch written in.
func (p Patch) Apply(pose rig.Pose) rig.Pose {
	out := pose.Clone()
	out[p.Upper] = p.UpperAngle
	out[p.Lower] = p.LowerAngle
	return out
}

// Solve places the end of chain c's lower bone on target. It returns false
// when the chain's bone definitions are missing or not linked upper→lower.
//
// The start of the chain is the upper bone's world pivot. Angles are solved
// in math space (0° = +X) and converted to rig space (0° = +Y) by
// subtracting 90°, then expressed relative to each bone's parent.
func Solve(r *rig.Rig, c rig.Chain, target mathutil.Vec2, pose rig.Pose) (Patch, bool) {
	upper, ok := r.Bone(c.Upper)
	if !ok {
		return Patch{}, false
	}
	lower, ok := r.Bone(c.Lower)
	if !ok || lower.Parent != c.Upper || len(pose) < r.Len() {
		return Patch{}, false
	}

	parentAngle := r.ParentAngle(c.Upper, pose)
	startT := r.GlobalTransform(c.Upper, pose)
	start := startT.Pos()
	l1, l2 := upper.Length, lower.Length
	reach := MaxReach * (l1 + l2)

	d := target.Sub(start)
	dist := d.Len()
	var base float64
	if dist < minDistance {
		// Degenerate: keep the current upper direction.
		base = mathutil.Deg2Rad(startT.Angle + 90)
		dist = minDistance
		target = start.Add(mathutil.Vec2{math.Cos(base), math.Sin(base)}.Scale(dist))
	} else {
		base = math.Atan2(d[1], d[0])
		if dist > reach {
			target = start.Add(d.Scale(reach / dist))
			dist = reach
		}
	}

	cosA := mathutil.Clamp((l1*l1+dist*dist-l2*l2)/(2*l1*dist), -1, 1)
	upperMath := base + c.Bend*math.Acos(cosA)

	elbow := start.Add(mathutil.Vec2{math.Cos(upperMath), math.Sin(upperMath)}.Scale(l1))
	toTarget := target.Sub(elbow)
	lowerMath := math.Atan2(toTarget[1], toTarget[0])

	upperGlobal := mathutil.Rad2Deg(upperMath) - 90
	lowerGlobal := mathutil.Rad2Deg(lowerMath) - 90

	return Patch{
		Upper:      c.Upper,
		Lower:      c.Lower,
		UpperAngle: mathutil.NormalizeAngle(upperGlobal - parentAngle),
		LowerAngle: mathutil.NormalizeAngle(lowerGlobal - upperGlobal),
	}, true
}
