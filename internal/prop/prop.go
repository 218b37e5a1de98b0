// Package prop defines scene objects the character can hold or lean on.
package prop

import (
	"fmt"
	"strings"

	"rig-animator/internal/mathutil"
)

// Category decides which side is kinematically master while a hand is
// attached.
type Category int

const (
	// CategoryFixed props (bars, bench anchors) pin the hand.
	CategoryFixed Category = iota
	// CategoryCable props (cable handles) pin the hand.
	CategoryCable
	// CategoryFree props (dumbbells, kettlebells) follow the hand.
	CategoryFree
)

var categoryNames = [...]string{"fixed", "cable", "free"}

func (c Category) String() string {
	if c < 0 || int(c) >= len(categoryNames) {
		return "fixed"
	}
	return categoryNames[c]
}

func (c Category) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *Category) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*c = CategoryFixed
		return nil
	}
	for i, n := range categoryNames {
		if n == string(b) {
			*c = Category(i)
			return nil
		}
	}
	return fmt.Errorf("prop: unknown category %q", b)
}

// HandDriven reports whether an attached hand moves the prop rather than the
// other way round.
func (c Category) HandDriven() bool { return c == CategoryFree }

// CategoryForName guesses a category from a display name. Only used once,
// when a prop is created from a generated shape.
func CategoryForName(name string) Category {
	n := strings.ToLower(name)
	switch {
	case strings.Contains(n, "dumbbell"), strings.Contains(n, "kettlebell"):
		return CategoryFree
	case strings.Contains(n, "cable"):
		return CategoryCable
	default:
		return CategoryFixed
	}
}

// Shape is the opaque artwork of a prop.
type Shape struct {
	Path    string     `json:"path"`
	ViewBox [4]float64 `json:"view_box"` // minX, minY, width, height
}

// SnapPoint is a named anchor in the prop's local space.
type SnapPoint struct {
	ID string  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

// Pos returns the local position.
func (s SnapPoint) Pos() mathutil.Vec2 { return mathutil.Vec2{s.X, s.Y} }

// Prop is a placed scene object.
type Prop struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Category   Category    `json:"category"`
	Shape      Shape       `json:"shape"`
	Transform  Transform   `json:"transform"`
	SnapPoints []SnapPoint `json:"snap_points"`
}

// Clone returns a deep copy.
func (p Prop) Clone() Prop {
	out := p
	out.SnapPoints = append([]SnapPoint(nil), p.SnapPoints...)
	return out
}

// Snap looks up a snap point by id.
func (p Prop) Snap(id string) (SnapPoint, bool) {
	for _, s := range p.SnapPoints {
		if s.ID == id {
			return s, true
		}
	}
	return SnapPoint{}, false
}

// SnapWorld returns the world position of snap point id under the prop's
// current transform.
func (p Prop) SnapWorld(id string) (mathutil.Vec2, bool) {
	s, ok := p.Snap(id)
	if !ok {
		return mathutil.Vec2{}, false
	}
	return p.Transform.Apply(s.Pos()), true
}

// List is the ordered set of props in a scene.
type List []Prop

// Clone returns a deep copy.
func (l List) Clone() List {
	if l == nil {
		return nil
	}
	out := make(List, len(l))
	for i, p := range l {
		out[i] = p.Clone()
	}
	return out
}

// Index returns the position of prop id, or -1.
func (l List) Index(id string) int {
	for i := range l {
		if l[i].ID == id {
			return i
		}
	}
	return -1
}

// Find returns a pointer into the list for in-place edits.
func (l List) Find(id string) (*Prop, bool) {
	i := l.Index(id)
	if i < 0 {
		return nil, false
	}
	return &l[i], true
}

// Transforms returns every prop transform keyed by id.
func (l List) Transforms() map[string]Transform {
	out := make(map[string]Transform, len(l))
	for _, p := range l {
		out[p.ID] = p.Transform
	}
	return out
}
