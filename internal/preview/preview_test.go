package preview

import (
	"image"
	"testing"

	"rig-animator/internal/attach"
	"rig-animator/internal/bake"
	"rig-animator/internal/mathutil"
	"rig-animator/internal/prop"
	"rig-animator/internal/rig"
)

func TestParsePath(t *testing.T) {
	tests := []struct {
		name    string
		d       string
		ops     string
		last    mathutil.Vec2
		wantErr bool
	}{
		{"absolute", "M 0 0 L 10 0 L 10 10 Z", "MLLZ", mathutil.Vec2{}, false},
		{"relative", "m10,10 l5 0 v5 h-5 z", "MLLLZ", mathutil.Vec2{}, false},
		{"implicit lineto", "M0 0 10 0 10-10", "MLL", mathutil.Vec2{10, -10}, false},
		{"curves", "M0 0Q5 5 10 0C12 2 14 2 16 0", "MQC", mathutil.Vec2{16, 0}, false},
		{"smooth cubic", "M0 0 C0 10 10 10 10 0 S20 -10 20 0", "MCC", mathutil.Vec2{20, 0}, false},
		{"smooth quad", "M0 0 Q5 10 10 0 T20 0", "MQQ", mathutil.Vec2{20, 0}, false},
		{"unknown command", "M0 0 K5 5", "", mathutil.Vec2{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			segs, err := ParsePath(tt.d)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParsePath() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			ops := ""
			for _, s := range segs {
				ops += string(s.Op)
			}
			if ops != tt.ops {
				t.Errorf("ops = %q, want %q", ops, tt.ops)
			}
			last := segs[len(segs)-1]
			if last.Op != 'Z' && last.Pts[len(last.Pts)-1].Dist(tt.last) > 1e-9 {
				t.Errorf("last point = %v, want %v", last.Pts[len(last.Pts)-1], tt.last)
			}
		})
	}
}

func TestParsePathArcBecomesCubics(t *testing.T) {
	segs, err := ParsePath("M0 0 A5 5 0 0 1 10 0")
	if err != nil {
		t.Fatal(err)
	}
	if len(segs) < 2 || segs[0].Op != 'M' {
		t.Fatalf("ParsePath(arc) = %v, want a move then curves", segs)
	}
	for _, s := range segs[1:] {
		if s.Op != 'C' {
			t.Errorf("arc segment op = %c, want C", s.Op)
		}
	}
	last := segs[len(segs)-1]
	if got := last.Pts[2]; got.Dist(mathutil.Vec2{10, 0}) > 1e-6 {
		t.Errorf("arc end = %v, want (10, 0)", got)
	}
}

func TestWorldAt(t *testing.T) {
	r := Renderer{Width: 400, Height: 300}
	if got := r.WorldAt(200, 150); got.Dist(mathutil.Vec2{400, 300}) > 1e-9 {
		t.Errorf("WorldAt(center) = %v, want (400, 300)", got)
	}
	r = Renderer{Width: 400, Height: 400}
	if got := r.WorldAt(0, 50); got.Dist(mathutil.Vec2{0, 0}) > 1e-9 {
		t.Errorf("letterboxed WorldAt(0, 50) = %v, want origin", got)
	}
}

func frameOf(rg *rig.Rig, props prop.List) bake.Frame {
	return bake.Frame{Pose: rg.RestPose(), Props: props.Transforms()}
}

func TestRender(t *testing.T) {
	rg := rig.Humanoid()
	props := prop.List{{
		ID: "bar", Name: "barbell", Category: prop.CategoryFixed,
		Shape:      prop.Shape{Path: "M -60 -3 L 60 -3 L 60 3 L -60 3 Z", ViewBox: [4]float64{-60, -3, 120, 6}},
		Transform:  prop.At(400, 500),
		SnapPoints: []prop.SnapPoint{{ID: "left", X: -30}},
	}}
	r := Renderer{Width: 400, Height: 300, Supersample: 2}
	img := r.Render(rg, frameOf(rg, props), props, attach.Map{})

	if img.Bounds() != image.Rect(0, 0, 400, 300) {
		t.Fatalf("bounds = %v, want 400x300", img.Bounds())
	}
	bg := img.NRGBAAt(5, 5)
	if bg.R < 200 || bg.A != 255 {
		t.Errorf("background pixel = %v", bg)
	}
	torso := img.NRGBAAt(200, 142)
	if torso.R > 128 {
		t.Errorf("torso pixel = %v, want dark", torso)
	}
	bar := img.NRGBAAt(215, 250)
	if bar == bg {
		t.Errorf("bar pixel = %v, want prop color", bar)
	}
}

func TestRenderBackdrop(t *testing.T) {
	rg := rig.Humanoid()
	red := image.NewNRGBA(image.Rect(0, 0, 16, 12))
	for i := 0; i < len(red.Pix); i += 4 {
		red.Pix[i], red.Pix[i+3] = 255, 255
	}
	r := Renderer{Width: 80, Height: 60, Backdrop: red}
	img := r.Render(rg, frameOf(rg, nil), nil, nil)
	if c := img.NRGBAAt(1, 1); c.R < 200 || c.G > 50 {
		t.Errorf("corner pixel = %v, want backdrop red", c)
	}
}

func TestDownsample(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for i := 0; i < len(src.Pix); i += 4 {
		src.Pix[i], src.Pix[i+1], src.Pix[i+2], src.Pix[i+3] = 10, 20, 30, 255
	}
	dst := Downsample(src, 4, 4)
	if dst.Bounds().Dx() != 4 || dst.Bounds().Dy() != 4 {
		t.Fatalf("bounds = %v", dst.Bounds())
	}
	if c := dst.NRGBAAt(2, 2); c.R != 10 || c.G != 20 || c.B != 30 || c.A != 255 {
		t.Errorf("pixel = %v, want (10, 20, 30, 255)", c)
	}
	if Downsample(src, 8, 8) != src {
		t.Error("Downsample() to same size should return its input")
	}
}
