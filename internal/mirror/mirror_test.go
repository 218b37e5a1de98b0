package mirror

import (
	"testing"

	"rig-animator/internal/attach"
	"rig-animator/internal/mathutil"
	"rig-animator/internal/prop"
	"rig-animator/internal/rig"
)

func TestApplyNegatesPartner(t *testing.T) {
	r := rig.Humanoid()
	pose := r.RestPose()
	ul, ur := r.MustID(rig.UpperArmL), r.MustID(rig.UpperArmR)
	pose[ul] = 42

	got := Apply(r, pose, []rig.BoneID{ul})
	if got[ur] != -42 {
		t.Errorf("pose[upper_arm_r] = %v, want -42", got[ur])
	}
	for i := range pose {
		id := rig.BoneID(i)
		if id == ur {
			continue
		}
		if got[id] != pose[id] {
			t.Errorf("bone %d changed from %v to %v", i, pose[id], got[id])
		}
	}
	if pose[ur] == -42 {
		t.Error("Apply() mutated its input")
	}
}

func TestApplyIgnoresUnpairedBones(t *testing.T) {
	r := rig.Humanoid()
	pose := r.RestPose()
	torso := r.MustID(rig.Torso)
	pose[torso] = 150
	got := Apply(r, pose, []rig.BoneID{torso})
	for i := range pose {
		if got[i] != pose[i] {
			t.Errorf("bone %d changed from %v to %v", i, pose[i], got[i])
		}
	}
}

func TestApplyBothSidesEdited(t *testing.T) {
	r := rig.Humanoid()
	pose := r.RestPose()
	tl, tr := r.MustID(rig.ThighL), r.MustID(rig.ThighR)
	pose[tl], pose[tr] = 20, 35
	got := Apply(r, pose, []rig.BoneID{tl, tr})
	if got[tl] != 20 || got[tr] != 35 {
		t.Errorf("Apply() = %v/%v, want 20/35", got[tl], got[tr])
	}
}

func dumbbell(tr prop.Transform) prop.List {
	return prop.List{{
		ID:         "db",
		Name:       "Dumbbell",
		Category:   prop.CategoryFree,
		Transform:  tr,
		SnapPoints: []prop.SnapPoint{{ID: "grip", X: 10, Y: 0}},
	}}
}

func TestSyncMovesHandDrivenProp(t *testing.T) {
	r := rig.Humanoid()
	handL := r.MustID(rig.HandL)
	pose := r.RestPose()
	props := dumbbell(prop.Transform{ScaleX: -1, ScaleY: 1})
	m := attach.Map{handL: {PropID: "db", SnapID: "grip", RotationOffset: 20}}

	changed := Sync(r, pose, m, props)
	if len(changed) != 1 || changed[0] != "db" {
		t.Fatalf("Sync() changed = %v, want [db]", changed)
	}
	ht := r.GlobalTransform(handL, pose)
	snap, _ := props[0].SnapWorld("grip")
	if snap.Dist(ht.Pos()) > 1e-9 {
		t.Errorf("snap world = %v, want hand pivot %v", snap, ht.Pos())
	}
	if d := mathutil.AngleDist(props[0].Transform.Rotation, ht.Angle-20); d > 1e-9 {
		t.Errorf("prop rotation = %v, want %v", props[0].Transform.Rotation, ht.Angle-20)
	}
	if props[0].Transform.ScaleX != -1 {
		t.Errorf("ScaleX = %v, want -1 preserved", props[0].Transform.ScaleX)
	}

	if again := Sync(r, pose, m, props); len(again) != 0 {
		t.Errorf("second Sync() changed = %v, want none", again)
	}
}

func TestSyncSkipsTinyChanges(t *testing.T) {
	r := rig.Humanoid()
	handL := r.MustID(rig.HandL)
	pose := r.RestPose()
	props := dumbbell(prop.At(0, 0))
	m := attach.Map{handL: {PropID: "db", SnapID: "grip"}}
	Sync(r, pose, m, props)
	settled := props[0].Transform

	props[0].Transform.X += 0.05
	nudged := props[0].Transform
	if changed := Sync(r, pose, m, props); len(changed) != 0 {
		t.Errorf("Sync() changed = %v, want none", changed)
	}
	if props[0].Transform != nudged {
		t.Errorf("transform = %+v, want untouched %+v (settled %+v)", props[0].Transform, nudged, settled)
	}
}

func TestSyncLeavesFixedProps(t *testing.T) {
	r := rig.Humanoid()
	handL := r.MustID(rig.HandL)
	props := dumbbell(prop.At(0, 0))
	props[0].Category = prop.CategoryFixed
	m := attach.Map{handL: {PropID: "db", SnapID: "grip"}}
	if changed := Sync(r, r.RestPose(), m, props); len(changed) != 0 {
		t.Errorf("Sync() changed = %v, want none", changed)
	}
	if props[0].Transform != prop.At(0, 0) {
		t.Errorf("fixed prop moved to %+v", props[0].Transform)
	}
}
