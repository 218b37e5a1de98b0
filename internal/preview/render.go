// Package preview rasterizes baked frames: bones as capsules, props from
// their outline path and snap points as dots.
package preview

import (
	"image"
	"math"

	"github.com/gogpu/gg"

	"rig-animator/internal/attach"
	"rig-animator/internal/bake"
	"rig-animator/internal/mathutil"
	"rig-animator/internal/prop"
	"rig-animator/internal/rig"
	"rig-animator/internal/texture"
)

// Default stage size in world units.
const (
	StageWidth  = 800.0
	StageHeight = 600.0
)

// Style holds the preview palette as hex colors.
type Style struct {
	Background string
	Bone       string
	BoneFar    string // right side, drawn behind the body
	Joint      string
	Props      map[prop.Category]string
	Snap       string
	SnapHeld   string
}

// DefaultStyle is a light palette.
var DefaultStyle = Style{
	Background: "#f4f1ea",
	Bone:       "#2b2d42",
	BoneFar:    "#5c677d",
	Joint:      "#edf2f4",
	Props: map[prop.Category]string{
		prop.CategoryFixed: "#8d99ae",
		prop.CategoryCable: "#457b9d",
		prop.CategoryFree:  "#e76f51",
	},
	Snap:     "#ffb703",
	SnapHeld: "#d62828",
}

// Renderer draws frames at Width×Height, rasterizing Supersample times
// larger and filtering down.
type Renderer struct {
	Width, Height int
	Supersample   int
	Stage         mathutil.Vec2 // world extent; StageWidth×StageHeight when zero
	Backdrop      *image.NRGBA
	Style         Style
}

func (r Renderer) scale() int {
	if r.Supersample < 1 {
		return 1
	}
	return r.Supersample
}

func (r Renderer) stage() mathutil.Vec2 {
	if r.Stage[0] <= 0 || r.Stage[1] <= 0 {
		return mathutil.Vec2{StageWidth, StageHeight}
	}
	return r.Stage
}

// View maps world coordinates to output pixels. The stage is fit inside the
// image and centered.
func (r Renderer) View() mathutil.Mat3 {
	return r.view(1)
}

func (r Renderer) view(ss int) mathutil.Mat3 {
	st := r.stage()
	w := float64(r.Width * ss)
	h := float64(r.Height * ss)
	k := math.Min(w/st[0], h/st[1])
	return mathutil.Mat3Mul(
		mathutil.Translate2D((w-st[0]*k)/2, (h-st[1]*k)/2),
		mathutil.Scale2D(k, k),
	)
}

// WorldAt returns the world point under output pixel (x, y).
func (r Renderer) WorldAt(x, y float64) mathutil.Vec2 {
	return r.View().Inverse().MulPoint(mathutil.Vec2{x, y})
}

// Render draws one frame. props supplies artwork and snap points; placement
// comes from f.Props. Snap points held in m are highlighted.
func (r Renderer) Render(rg *rig.Rig, f bake.Frame, props prop.List, m attach.Map) *image.NRGBA {
	ss := r.scale()
	w, h := r.Width*ss, r.Height*ss
	style := r.Style
	if style.Bone == "" {
		style = DefaultStyle
	}

	var dc *gg.Context
	if r.Backdrop != nil {
		dc = gg.NewContextForImage(fill(r.Backdrop, w, h))
	} else {
		dc = gg.NewContext(w, h)
		dc.ClearWithColor(gg.Hex(style.Background))
	}
	defer dc.Close()

	view := r.view(ss)
	unit := view.MulDir(mathutil.Vec2{1, 0}).Len()
	dc.SetLineCap(gg.LineCapRound)
	dc.SetLineJoin(gg.LineJoinRound)

	for _, p := range props {
		t, ok := f.Props[p.ID]
		if !ok {
			t = p.Transform
		}
		drawProp(dc, view, unit, p, t, style)
	}

	worlds := rg.Evaluate(f.Pose)
	for _, id := range rg.DrawOrder() {
		drawBone(dc, view, unit, rg, id, worlds[id], style)
	}

	for _, p := range props {
		t, ok := f.Props[p.ID]
		if !ok {
			t = p.Transform
		}
		for _, s := range p.SnapPoints {
			c := style.Snap
			if _, held := m.Holder(p.ID, s.ID); held {
				c = style.SnapHeld
			}
			px := view.MulPoint(t.Apply(s.Pos()))
			dc.SetHexColor(c)
			dc.DrawCircle(px[0], px[1], 3*unit)
			dc.Fill()
		}
	}

	img := texture.ToNRGBA(dc.Image())
	if ss > 1 {
		img = Downsample(img, r.Width, r.Height)
	}
	return img
}

func drawBone(dc *gg.Context, view mathutil.Mat3, unit float64, rg *rig.Rig, id rig.BoneID, t rig.Transform, style Style) {
	b, _ := rg.Bone(id)
	if b.Length <= 0 {
		return
	}
	start := t.Pos()
	end := start.Add(mathutil.Vec2{0, b.Length}.Rotate(t.Angle))
	a, z := view.MulPoint(start), view.MulPoint(end)

	color := style.Bone
	if b.Side == rig.SideRight {
		color = style.BoneFar
	}
	dc.SetHexColor(color)

	if isHead(rg, id) {
		mid := view.MulPoint(start.Lerp(end, 0.5))
		dc.DrawCircle(mid[0], mid[1], b.Length/2*unit)
		dc.Fill()
		return
	}

	dc.SetLineWidth(8 * unit)
	dc.DrawLine(a[0], a[1], z[0], z[1])
	dc.Stroke()

	dc.SetHexColor(style.Joint)
	dc.DrawCircle(a[0], a[1], 2*unit)
	dc.Fill()
}

// isHead reports whether id is a childless body bone.
func isHead(rg *rig.Rig, id rig.BoneID) bool {
	b, _ := rg.Bone(id)
	if b.Limb != rig.LimbBody {
		return false
	}
	for _, other := range rg.Bones() {
		if other.Parent == id {
			return false
		}
	}
	return true
}

func drawProp(dc *gg.Context, view mathutil.Mat3, unit float64, p prop.Prop, t prop.Transform, style Style) {
	m := mathutil.Mat3Mul(view, t.Matrix())
	c, ok := style.Props[p.Category]
	if !ok {
		c = DefaultStyle.Props[prop.CategoryFixed]
	}
	dc.SetHexColor(c)

	segs, err := ParsePath(p.Shape.Path)
	if err != nil || len(segs) == 0 {
		// No usable outline: draw the view box.
		vb := p.Shape.ViewBox
		if vb[2] <= 0 || vb[3] <= 0 {
			vb = [4]float64{-10, -10, 20, 20}
		}
		segs = []Segment{
			{Op: 'M', Pts: []mathutil.Vec2{{vb[0], vb[1]}}},
			{Op: 'L', Pts: []mathutil.Vec2{{vb[0] + vb[2], vb[1]}}},
			{Op: 'L', Pts: []mathutil.Vec2{{vb[0] + vb[2], vb[1] + vb[3]}}},
			{Op: 'L', Pts: []mathutil.Vec2{{vb[0], vb[1] + vb[3]}}},
			{Op: 'Z'},
		}
	}

	closed := false
	for _, s := range segs {
		pts := make([]mathutil.Vec2, len(s.Pts))
		for i, pt := range s.Pts {
			pts[i] = m.MulPoint(pt)
		}
		switch s.Op {
		case 'M':
			dc.MoveTo(pts[0][0], pts[0][1])
		case 'L':
			dc.LineTo(pts[0][0], pts[0][1])
		case 'Q':
			dc.QuadraticTo(pts[0][0], pts[0][1], pts[1][0], pts[1][1])
		case 'C':
			dc.CubicTo(pts[0][0], pts[0][1], pts[1][0], pts[1][1], pts[2][0], pts[2][1])
		case 'Z':
			dc.ClosePath()
			closed = true
		}
	}
	if closed {
		dc.Fill()
		return
	}
	dc.SetLineWidth(6 * unit)
	dc.Stroke()
}
