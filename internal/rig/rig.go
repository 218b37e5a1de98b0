package rig

import (
	"errors"
	"fmt"
	"sort"

	"rig-animator/internal/mathutil"
)

var (
	// ErrUnknownBone is returned when a name or id does not resolve to a bone.
	ErrUnknownBone = errors.New("rig: unknown bone")
	// ErrCycle is returned when a parent does not precede its child, which is
	// the only way a cycle could be expressed in the arena.
	ErrCycle = errors.New("rig: parent must be defined before child")
)

// Rig is an immutable bone forest. Bones live in a flat arena and refer to
// their parents by index; parents always precede children.
type Rig struct {
	name    string
	bones   []BoneDef
	byName  map[string]BoneID
	partner []BoneID
	chains  []Chain
}

// New validates defs and builds a rig.
func New(name string, defs []BoneDef) (*Rig, error) {
	r := &Rig{
		name:    name,
		bones:   make([]BoneDef, len(defs)),
		byName:  make(map[string]BoneID, len(defs)),
		partner: make([]BoneID, len(defs)),
	}
	copy(r.bones, defs)

	for i, b := range r.bones {
		if b.Name == "" {
			return nil, fmt.Errorf("rig: bone %d has no name", i)
		}
		if _, dup := r.byName[b.Name]; dup {
			return nil, fmt.Errorf("rig: duplicate bone %q", b.Name)
		}
		if b.Parent != NoParent && (b.Parent < 0 || int(b.Parent) >= i) {
			return nil, fmt.Errorf("rig: bone %q: %w", b.Name, ErrCycle)
		}
		r.byName[b.Name] = BoneID(i)
		r.partner[i] = NoParent
	}

	for i, b := range r.bones {
		if b.Mirror == "" {
			continue
		}
		p, ok := r.byName[b.Mirror]
		if !ok {
			return nil, fmt.Errorf("rig: bone %q mirror %q: %w", b.Name, b.Mirror, ErrUnknownBone)
		}
		if p == BoneID(i) {
			return nil, fmt.Errorf("rig: bone %q mirrors itself", b.Name)
		}
		r.partner[i] = p
		r.partner[p] = BoneID(i)
	}

	for i, b := range r.bones {
		if b.Limb != LimbHand && b.Limb != LimbFoot {
			continue
		}
		lower := b.Parent
		if lower == NoParent || r.bones[lower].Parent == NoParent {
			return nil, fmt.Errorf("rig: effector %q needs two ancestor bones", b.Name)
		}
		upper := r.bones[lower].Parent
		if r.bones[upper].Length <= 0 || r.bones[lower].Length <= 0 {
			return nil, fmt.Errorf("rig: chain of %q has a zero-length link", b.Name)
		}
		r.chains = append(r.chains, Chain{
			Upper:    upper,
			Lower:    lower,
			Effector: BoneID(i),
			Bend:     bendSign(b.Limb, r.bones[upper].Side),
		})
	}

	return r, nil
}

// bendSign is a static property of the chain: arms and legs bend opposite
// ways, and left and right chains mirror each other.
func bendSign(effector Limb, side Side) float64 {
	sign := 1.0
	if effector == LimbFoot {
		sign = -sign
	}
	if side == SideRight {
		sign = -sign
	}
	return sign
}

func (r *Rig) Name() string { return r.name }

// Len returns the number of bones.
func (r *Rig) Len() int { return len(r.bones) }

// Bone returns the definition of id.
func (r *Rig) Bone(id BoneID) (BoneDef, bool) {
	if id < 0 || int(id) >= len(r.bones) {
		return BoneDef{}, false
	}
	return r.bones[id], true
}

// Bones returns a copy of every definition, indexed by BoneID.
func (r *Rig) Bones() []BoneDef {
	out := make([]BoneDef, len(r.bones))
	copy(out, r.bones)
	return out
}

// ID resolves a bone name.
func (r *Rig) ID(name string) (BoneID, bool) {
	id, ok := r.byName[name]
	return id, ok
}

// MustID resolves a bone name and panics when it is unknown. Intended for
// built-in rigs and tests.
func (r *Rig) MustID(name string) BoneID {
	id, ok := r.byName[name]
	if !ok {
		panic(fmt.Sprintf("rig: unknown bone %q", name))
	}
	return id
}

// Roots returns every bone without a parent.
func (r *Rig) Roots() []BoneID {
	var roots []BoneID
	for i, b := range r.bones {
		if b.Parent == NoParent {
			roots = append(roots, BoneID(i))
		}
	}
	return roots
}

// DrawOrder returns bone ids sorted by draw-order index (stable by id).
func (r *Rig) DrawOrder() []BoneID {
	ids := make([]BoneID, len(r.bones))
	for i := range ids {
		ids[i] = BoneID(i)
	}
	sort.SliceStable(ids, func(a, b int) bool {
		return r.bones[ids[a]].DrawOrder < r.bones[ids[b]].DrawOrder
	})
	return ids
}

// Partner returns the mirror partner of id.
func (r *Rig) Partner(id BoneID) (BoneID, bool) {
	if id < 0 || int(id) >= len(r.partner) {
		return NoParent, false
	}
	p := r.partner[id]
	return p, p != NoParent
}

// Chains returns every IK chain in bone order.
func (r *Rig) Chains() []Chain {
	out := make([]Chain, len(r.chains))
	copy(out, r.chains)
	return out
}

// ChainFor returns the chain whose effector is id.
func (r *Rig) ChainFor(effector BoneID) (Chain, bool) {
	for _, c := range r.chains {
		if c.Effector == effector {
			return c, true
		}
	}
	return Chain{}, false
}

// RestPose returns a complete pose filled with rest angles.
func (r *Rig) RestPose() Pose {
	p := make(Pose, len(r.bones))
	for i, b := range r.bones {
		p[i] = b.RestAngle
	}
	return p
}

// PoseFromNames builds a complete pose; bones missing from angles keep their
// rest angle and unknown names are ignored.
func (r *Rig) PoseFromNames(angles map[string]float64) Pose {
	p := r.RestPose()
	for name, a := range angles {
		if id, ok := r.byName[name]; ok {
			p[id] = a
		}
	}
	return p
}

// PoseNames converts a pose to a name-keyed map.
func (r *Rig) PoseNames(p Pose) map[string]float64 {
	out := make(map[string]float64, len(r.bones))
	for i, b := range r.bones {
		if i < len(p) {
			out[b.Name] = p[i]
		}
	}
	return out
}

// GlobalTransform composes parent transforms recursively. A root sits at its
// own offset with no inherited rotation. Pure: depends only on rig and pose.
func (r *Rig) GlobalTransform(id BoneID, pose Pose) Transform {
	if id < 0 || int(id) >= len(r.bones) || int(id) >= len(pose) {
		return Transform{}
	}
	b := r.bones[id]
	if b.Parent == NoParent {
		return Transform{X: b.Offset[0], Y: b.Offset[1], Angle: pose[id]}
	}
	parent := r.GlobalTransform(b.Parent, pose)
	p := parent.Pos().Add(b.Offset.Rotate(parent.Angle))
	return Transform{X: p[0], Y: p[1], Angle: parent.Angle + pose[id]}
}

// Evaluate computes every global transform in one pass. Parents precede
// children in the arena, so each parent is ready when its child is reached.
func (r *Rig) Evaluate(pose Pose) []Transform {
	worlds := make([]Transform, len(r.bones))
	for i, b := range r.bones {
		if i >= len(pose) {
			break
		}
		if b.Parent == NoParent {
			worlds[i] = Transform{X: b.Offset[0], Y: b.Offset[1], Angle: pose[i]}
			continue
		}
		parent := worlds[b.Parent]
		p := parent.Pos().Add(b.Offset.Rotate(parent.Angle))
		worlds[i] = Transform{X: p[0], Y: p[1], Angle: parent.Angle + pose[i]}
	}
	return worlds
}

// ParentAngle returns the global angle of id's parent, 0 for roots.
func (r *Rig) ParentAngle(id BoneID, pose Pose) float64 {
	b, ok := r.Bone(id)
	if !ok || b.Parent == NoParent {
		return 0
	}
	return r.GlobalTransform(b.Parent, pose).Angle
}

// EndPoint returns the tip of bone id: its pivot plus Length along its direction.
func (r *Rig) EndPoint(id BoneID, pose Pose) mathutil.Vec2 {
	b, ok := r.Bone(id)
	if !ok {
		return mathutil.Vec2{}
	}
	t := r.GlobalTransform(id, pose)
	return t.Pos().Add(mathutil.Vec2{0, b.Length}.Rotate(t.Angle))
}
