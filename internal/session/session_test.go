package session

import (
	"errors"
	"math"
	"testing"
	"time"

	"rig-animator/internal/mathutil"
	"rig-animator/internal/prop"
	"rig-animator/internal/propgen"
	"rig-animator/internal/rig"
	"rig-animator/internal/timeline"
)

const eps = 1e-6

func barbell(x, y float64) prop.Prop {
	return prop.Prop{
		ID:        "bar",
		Name:      "barbell",
		Category:  prop.CategoryFixed,
		Transform: prop.At(x, y),
		SnapPoints: []prop.SnapPoint{
			{ID: "left", X: -30},
			{ID: "right", X: 30},
		},
	}
}

func newState(t *testing.T, props ...prop.Prop) State {
	t.Helper()
	s, err := New(rig.Humanoid(), props)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return s
}

func apply(t *testing.T, s State, cmds ...Command) State {
	t.Helper()
	for _, c := range cmds {
		var err error
		s, err = Apply(s, c)
		if err != nil {
			t.Fatalf("Apply(%T) error = %v", c, err)
		}
	}
	return s
}

func handPos(s State, hand rig.BoneID) mathutil.Vec2 {
	return s.Rig.GlobalTransform(hand, s.Pose).Pos()
}

func TestBarbellTranslate(t *testing.T) {
	s := newState(t, barbell(430, 300))
	hand := s.Rig.MustID(rig.HandR)

	s = apply(t, s, DragEffector{Effector: hand, Target: mathutil.Vec2{405, 300}})
	a, ok := s.Attachments[hand]
	if !ok || a.SnapID != "left" {
		t.Fatalf("attachment = %+v, %v, want left snap", a, ok)
	}
	if d := handPos(s, hand).Dist(mathutil.Vec2{400, 300}); d > eps {
		t.Errorf("hand off anchor by %v after snap", d)
	}

	moved := prop.At(480, 300)
	s = apply(t, s, MoveProp{PropID: "bar", Transform: moved})

	want := mathutil.Vec2{450, 300}
	if d := handPos(s, hand).Dist(want); d > eps {
		t.Errorf("hand = %v, want %v", handPos(s, hand), want)
	}
	if got := s.Attachments[hand]; got != a {
		t.Errorf("attachment changed: %+v, want %+v", got, a)
	}
	g := s.Rig.GlobalTransform(hand, s.Pose).Angle
	if mathutil.AngleDist(g, moved.Rotation+a.RotationOffset) > eps {
		t.Errorf("hand angle = %v, want prop rotation + %v", g, a.RotationOffset)
	}

	k, _ := s.Timeline.Frame(s.Active)
	if k.Props["bar"] != moved {
		t.Errorf("keyframe bar = %+v, want %+v", k.Props["bar"], moved)
	}
}

func TestDragHysteresis(t *testing.T) {
	s := newState(t, barbell(430, 300))
	hand := s.Rig.MustID(rig.HandR)
	s = apply(t, s, DragEffector{Effector: hand, Target: mathutil.Vec2{405, 300}})

	tests := []struct {
		name     string
		target   mathutil.Vec2
		attached bool
	}{
		{"inside release radius", mathutil.Vec2{400, 340}, true},
		{"at release radius", mathutil.Vec2{400, 350}, true},
		{"beyond release radius", mathutil.Vec2{400, 351}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := apply(t, s, DragEffector{Effector: hand, Target: tt.target})
			if _, ok := got.Attachments[hand]; ok != tt.attached {
				t.Fatalf("attached = %v, want %v", ok, tt.attached)
			}
			if tt.attached {
				if d := handPos(got, hand).Dist(mathutil.Vec2{400, 300}); d > eps {
					t.Errorf("pinned hand drifted by %v", d)
				}
			}
		})
	}
}

func TestFreePropFollowsHand(t *testing.T) {
	bell := prop.Prop{
		ID:         "db",
		Name:       "dumbbell",
		Category:   prop.CategoryFree,
		Transform:  prop.At(390, 320),
		SnapPoints: []prop.SnapPoint{{ID: CenterSnap}},
	}
	s := newState(t, bell)
	hand := s.Rig.MustID(rig.HandR)
	s = apply(t, s, DragEffector{Effector: hand, Target: mathutil.Vec2{395, 318}})
	if _, ok := s.Attachments[hand]; !ok {
		t.Fatal("hand did not snap")
	}
	p, _ := s.Props.Find("db")
	if d := p.Transform.Apply(mathutil.Vec2{}).Dist(handPos(s, hand)); d > mirrorEps {
		t.Errorf("free prop %v away from hand after snap", d)
	}

	s = apply(t, s, SetAngle{Bone: s.Rig.MustID(rig.LowerArmR), Angle: 30})
	p, _ = s.Props.Find("db")
	if d := p.Transform.Apply(mathutil.Vec2{}).Dist(handPos(s, hand)); d > mirrorEps {
		t.Errorf("free prop %v away from hand after rotation", d)
	}
}

const mirrorEps = 0.1 + eps

func TestMirror(t *testing.T) {
	s := newState(t)
	left := s.Rig.MustID(rig.UpperArmL)
	right := s.Rig.MustID(rig.UpperArmR)

	s = apply(t, s, SetMirror{On: true}, SetAngle{Bone: left, Angle: 120})
	if math.Abs(s.Pose[right]+120) > eps {
		t.Errorf("partner angle = %v, want -120", s.Pose[right])
	}

	s = apply(t, s, SetMirror{On: false}, SetAngle{Bone: left, Angle: 90})
	if math.Abs(s.Pose[right]+120) > eps {
		t.Errorf("partner changed with mirror off: %v", s.Pose[right])
	}
}

func TestMirrorDrag(t *testing.T) {
	s := newState(t)
	hand := s.Rig.MustID(rig.HandL)
	shoulder := s.Rig.GlobalTransform(s.Rig.MustID(rig.UpperArmL), s.Pose).Pos()
	target := shoulder.Add(mathutil.Vec2{40, 60})

	s = apply(t, s, SetMirror{On: true}, DragEffector{Effector: hand, Target: target})
	if d := handPos(s, hand).Dist(target); d > eps {
		t.Errorf("hand_l misses target by %v", d)
	}
	pairs := [][2]string{
		{rig.UpperArmL, rig.UpperArmR},
		{rig.LowerArmL, rig.LowerArmR},
	}
	for _, p := range pairs {
		l, r := s.Pose[s.Rig.MustID(p[0])], s.Pose[s.Rig.MustID(p[1])]
		if mathutil.AngleDist(r, -l) > eps {
			t.Errorf("%s = %v, want %v (mirror of %s)", p[1], r, -l, p[0])
		}
	}
}

func TestSetAngleKeepsPinnedHand(t *testing.T) {
	s := newState(t, barbell(430, 300))
	hand := s.Rig.MustID(rig.HandR)
	s = apply(t, s,
		DragEffector{Effector: hand, Target: mathutil.Vec2{405, 300}},
		SetAngle{Bone: s.Rig.MustID(rig.Torso), Angle: 190},
	)
	if _, ok := s.Attachments[hand]; !ok {
		t.Fatal("hand released by a torso edit")
	}
	if d := handPos(s, hand).Dist(mathutil.Vec2{400, 300}); d > eps {
		t.Errorf("hand off anchor by %v after torso edit", d)
	}
	k, _ := s.Timeline.Frame(s.Active)
	if mathutil.AngleDist(k.Pose[hand], s.Pose[hand]) > eps {
		t.Errorf("keyframe hand = %v, want %v", k.Pose[hand], s.Pose[hand])
	}
}

func TestApplyFailureLeavesStateUntouched(t *testing.T) {
	s := newState(t, barbell(430, 300))
	before := s.Clone()

	tests := []struct {
		name string
		cmd  Command
		want error
	}{
		{"unknown prop", MoveProp{PropID: "nope", Transform: prop.At(0, 0)}, ErrUnknownProp},
		{"remove unknown prop", RemoveProp{PropID: "nope"}, ErrUnknownProp},
		{"zero duration", SetDuration{Index: 0, Duration: 0}, timeline.ErrInvalidDuration},
		{"negative duration", SetDuration{Index: 0, Duration: -time.Second}, timeline.ErrInvalidDuration},
		{"bad frame", SelectKeyframe{Index: 5}, timeline.ErrIndex},
		{"not an effector", DragEffector{Effector: s.Rig.MustID(rig.Torso)}, ErrNotEffector},
		{"unknown bone", SetAngle{Bone: 99, Angle: 1}, rig.ErrUnknownBone},
		{"duplicate prop", AddProp{Prop: barbell(0, 0)}, ErrDuplicateProp},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Apply(s, tt.cmd)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Apply() error = %v, want %v", err, tt.want)
			}
			if got.Props[0].Transform != before.Props[0].Transform || got.Timeline.Len() != before.Timeline.Len() {
				t.Error("failed command changed state")
			}
			for i := range got.Pose {
				if got.Pose[i] != before.Pose[i] {
					t.Fatalf("pose[%d] = %v, want %v", i, got.Pose[i], before.Pose[i])
				}
			}
		})
	}
}

func TestKeyframes(t *testing.T) {
	s := newState(t)
	neck := s.Rig.MustID(rig.Neck)

	s = apply(t, s, AddKeyframe{}, SetAngle{Bone: neck, Angle: 40})
	if s.Timeline.Len() != 2 || s.Active != 1 {
		t.Fatalf("Len() = %d, Active = %d, want 2, 1", s.Timeline.Len(), s.Active)
	}
	if k, _ := s.Timeline.Frame(1); k.Pose[neck] != 40 {
		t.Errorf("frame 1 neck = %v, want 40 (write-through)", k.Pose[neck])
	}
	if k, _ := s.Timeline.Frame(0); k.Pose[neck] != 0 {
		t.Errorf("frame 0 neck = %v, want 0", k.Pose[neck])
	}

	s = apply(t, s, SelectKeyframe{Index: 0})
	if s.Pose[neck] != 0 {
		t.Errorf("after select neck = %v, want 0", s.Pose[neck])
	}

	s = apply(t, s, DeleteKeyframe{Index: 0})
	if s.Timeline.Len() != 1 || s.Active != 0 || s.Pose[neck] != 40 {
		t.Errorf("after delete Len() = %d, Active = %d, neck = %v", s.Timeline.Len(), s.Active, s.Pose[neck])
	}

	got, err := Apply(s, DeleteKeyframe{Index: 0})
	if err != nil {
		t.Fatalf("deleting last frame: error = %v, want refusal without error", err)
	}
	if got.Timeline.Len() != 1 {
		t.Errorf("Len() = %d after refused delete, want 1", got.Timeline.Len())
	}
}

func TestPlayback(t *testing.T) {
	s := newState(t)
	neck := s.Rig.MustID(rig.Neck)
	s = apply(t, s,
		AddKeyframe{},
		SetAngle{Bone: neck, Angle: 40},
		SelectKeyframe{Index: 0},
		Play{},
		Tick{Dt: 500 * time.Millisecond},
	)
	if math.Abs(s.Pose[neck]-20) > eps {
		t.Errorf("mid-segment neck = %v, want 20", s.Pose[neck])
	}
	if k, _ := s.Timeline.Frame(0); k.Pose[neck] != 0 {
		t.Errorf("playback wrote into frame 0: neck = %v", k.Pose[neck])
	}

	s = apply(t, s, Stop{})
	if s.Clock.Playing || s.Pose[neck] != 0 {
		t.Errorf("after stop Playing = %v, neck = %v", s.Clock.Playing, s.Pose[neck])
	}
}

func TestRemoveProp(t *testing.T) {
	s := newState(t, barbell(430, 300))
	hand := s.Rig.MustID(rig.HandR)
	s = apply(t, s,
		DragEffector{Effector: hand, Target: mathutil.Vec2{405, 300}},
		AddKeyframe{},
		RemoveProp{PropID: "bar"},
	)
	if len(s.Props) != 0 {
		t.Errorf("Props = %d, want 0", len(s.Props))
	}
	if _, ok := s.Attachments[hand]; ok {
		t.Error("hand still attached to removed prop")
	}
	for _, k := range s.Timeline.Frames() {
		if _, ok := k.Props["bar"]; ok {
			t.Errorf("keyframe %s still references removed prop", k.ID)
		}
	}
}

func TestRegisterGenerated(t *testing.T) {
	s := newState(t)

	fail := propgen.Outcome{Description: "a dumbbell", Err: errors.New("service down")}
	got, err := Apply(s, RegisterGenerated{Outcome: fail})
	if err == nil {
		t.Fatal("failed outcome: error = nil")
	}
	if len(got.Props) != 0 {
		t.Errorf("failed outcome added %d props", len(got.Props))
	}

	ok := propgen.Outcome{
		Description: "a dumbbell",
		Result:      propgen.Result{Name: "dumbbell", Path: "M -20 0 L 20 0", ViewBox: [4]float64{-20, -5, 40, 10}},
	}
	s = apply(t, s, RegisterGenerated{Outcome: ok, At: mathutil.Vec2{300, 200}})
	if len(s.Props) != 1 {
		t.Fatalf("Props = %d, want 1", len(s.Props))
	}
	p := s.Props[0]
	if p.ID == "" || p.Category != prop.CategoryFree {
		t.Errorf("prop = %+v", p)
	}
	if len(p.SnapPoints) != 1 || p.SnapPoints[0] != (prop.SnapPoint{ID: CenterSnap}) {
		t.Errorf("SnapPoints = %+v, want one center snap at origin", p.SnapPoints)
	}
	if p.Transform != prop.At(300, 200) {
		t.Errorf("Transform = %+v", p.Transform)
	}
}

func TestSnapshotIsFrozen(t *testing.T) {
	s := newState(t, barbell(430, 300))
	snap := s.Snapshot()
	s = apply(t, s, MoveProp{PropID: "bar", Transform: prop.At(0, 0)})
	if snap.Props[0].Transform != prop.At(430, 300) {
		t.Errorf("snapshot prop moved to %+v", snap.Props[0].Transform)
	}
	if k, _ := snap.Timeline.Frame(0); k.Props["bar"] != prop.At(430, 300) {
		t.Errorf("snapshot keyframe changed: %+v", k.Props["bar"])
	}
}
