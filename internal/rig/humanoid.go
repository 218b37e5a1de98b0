package rig

import "rig-animator/internal/mathutil"

// Bone names of the built-in humanoid rig.
const (
	Hips      = "hips"
	Torso     = "torso"
	Neck      = "neck"
	Head      = "head"
	UpperArmL = "upper_arm_l"
	LowerArmL = "lower_arm_l"
	HandL     = "hand_l"
	UpperArmR = "upper_arm_r"
	LowerArmR = "lower_arm_r"
	HandR     = "hand_r"
	ThighL    = "thigh_l"
	ShinL     = "shin_l"
	FootL     = "foot_l"
	ThighR    = "thigh_r"
	ShinR     = "shin_r"
	FootR     = "foot_r"
)

// humanoidDefs is laid out for an 800×600 stage, hips at the centre.
// Right-side limbs draw first so they sit behind the torso.
var humanoidDefs = []BoneDef{
	{Name: Hips, Parent: NoParent, Offset: mathutil.Vec2{400, 330}, DrawOrder: 5},
	{Name: Torso, Parent: 0, Length: 90, RestAngle: 180, DrawOrder: 6},
	{Name: Neck, Parent: 1, Offset: mathutil.Vec2{0, 90}, Length: 14, DrawOrder: 7},
	{Name: Head, Parent: 2, Offset: mathutil.Vec2{0, 14}, Length: 36, DrawOrder: 8},

	{Name: UpperArmL, Parent: 1, Offset: mathutil.Vec2{0, 84}, Length: 60, RestAngle: 170, DrawOrder: 9, Side: SideLeft, Limb: LimbArm, Mirror: UpperArmR},
	{Name: LowerArmL, Parent: 4, Offset: mathutil.Vec2{0, 60}, Length: 50, DrawOrder: 10, Side: SideLeft, Limb: LimbArm, Mirror: LowerArmR},
	{Name: HandL, Parent: 5, Offset: mathutil.Vec2{0, 50}, Length: 12, DrawOrder: 11, Side: SideLeft, Limb: LimbHand, Mirror: HandR},

	{Name: UpperArmR, Parent: 1, Offset: mathutil.Vec2{0, 84}, Length: 60, RestAngle: -170, DrawOrder: 0, Side: SideRight, Limb: LimbArm},
	{Name: LowerArmR, Parent: 7, Offset: mathutil.Vec2{0, 60}, Length: 50, DrawOrder: 1, Side: SideRight, Limb: LimbArm},
	{Name: HandR, Parent: 8, Offset: mathutil.Vec2{0, 50}, Length: 12, DrawOrder: 2, Side: SideRight, Limb: LimbHand},

	{Name: ThighL, Parent: 0, Length: 75, RestAngle: 10, DrawOrder: 12, Side: SideLeft, Limb: LimbLeg, Mirror: ThighR},
	{Name: ShinL, Parent: 10, Offset: mathutil.Vec2{0, 75}, Length: 70, DrawOrder: 13, Side: SideLeft, Limb: LimbLeg, Mirror: ShinR},
	{Name: FootL, Parent: 11, Offset: mathutil.Vec2{0, 70}, Length: 22, RestAngle: -90, DrawOrder: 14, Side: SideLeft, Limb: LimbFoot, Mirror: FootR},

	{Name: ThighR, Parent: 0, Length: 75, RestAngle: -10, DrawOrder: 3, Side: SideRight, Limb: LimbLeg},
	{Name: ShinR, Parent: 13, Offset: mathutil.Vec2{0, 75}, Length: 70, DrawOrder: 4, Side: SideRight, Limb: LimbLeg},
	{Name: FootR, Parent: 14, Offset: mathutil.Vec2{0, 70}, Length: 22, RestAngle: 90, DrawOrder: 4, Side: SideRight, Limb: LimbFoot},
}

// Humanoid returns the built-in sixteen-bone rig.
func Humanoid() *Rig {
	r, err := New("humanoid", humanoidDefs)
	if err != nil {
		panic(err)
	}
	return r
}
