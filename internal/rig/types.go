package rig

import (
	"fmt"

	"rig-animator/internal/mathutil"
)

// BoneID indexes a bone inside its Rig. IDs are dense: 0..Len()-1.
type BoneID int

// NoParent marks a root bone.
const NoParent BoneID = -1

// Side tells which half of the body a bone belongs to.
type Side int

const (
	SideCenter Side = iota
	SideLeft
	SideRight
)

func (s Side) String() string {
	switch s {
	case SideLeft:
		return "left"
	case SideRight:
		return "right"
	default:
		return "center"
	}
}

func (s Side) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Side) UnmarshalText(b []byte) error {
	switch string(b) {
	case "", "center":
		*s = SideCenter
	case "left":
		*s = SideLeft
	case "right":
		*s = SideRight
	default:
		return fmt.Errorf("rig: unknown side %q", b)
	}
	return nil
}

// Limb classifies a bone. Hand and foot bones are IK end-effectors:
// their parent and grandparent form a two-bone chain.
type Limb int

const (
	LimbBody Limb = iota
	LimbArm
	LimbHand
	LimbLeg
	LimbFoot
)

var limbNames = [...]string{"body", "arm", "hand", "leg", "foot"}

func (l Limb) String() string {
	if l < 0 || int(l) >= len(limbNames) {
		return "body"
	}
	return limbNames[l]
}

func (l Limb) MarshalText() ([]byte, error) { return []byte(l.String()), nil }

func (l *Limb) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*l = LimbBody
		return nil
	}
	for i, n := range limbNames {
		if n == string(b) {
			*l = Limb(i)
			return nil
		}
	}
	return fmt.Errorf("rig: unknown limb %q", b)
}

// BoneDef is the immutable definition of one bone.
type BoneDef struct {
	Name      string
	Parent    BoneID        // NoParent for roots
	Offset    mathutil.Vec2 // pivot relative to the parent pivot, in the parent's frame
	Length    float64
	DrawOrder int
	RestAngle float64 // degrees, relative to parent
	Side      Side
	Limb      Limb
	Mirror    string // name of the left/right partner, empty when none
}

// Transform is a bone pivot in world space. Angle 0 points along +Y.
type Transform struct {
	X, Y  float64
	Angle float64
}

// Pos returns the pivot position.
func (t Transform) Pos() mathutil.Vec2 {
	return mathutil.Vec2{t.X, t.Y}
}

// Pose holds one local angle (degrees) per bone, indexed by BoneID.
// A Pose built by its Rig is always complete.
type Pose []float64

// Clone returns an independent copy.
func (p Pose) Clone() Pose {
	out := make(Pose, len(p))
	copy(out, p)
	return out
}

// Chain is a two-bone IK chain ending in an effector bone.
type Chain struct {
	Upper    BoneID
	Lower    BoneID
	Effector BoneID
	Bend     float64 // +1 or -1; selects which side the middle joint bends to
}
