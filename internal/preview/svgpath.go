package preview

import (
	"fmt"

	"github.com/tdewolff/canvas"

	"rig-animator/internal/mathutil"
)

// Segment is one absolute path command: 'M' and 'L' carry one point, 'Q'
// two, 'C' three and 'Z' none.
type Segment struct {
	Op  byte
	Pts []mathutil.Vec2
}

// ParsePath reads SVG path data. Shorthand commands come back in their long
// form (H and V as L, S as C, T as Q) and elliptical arcs as cubic curves.
func ParsePath(d string) ([]Segment, error) {
	p, err := canvas.ParseSVGPath(d)
	if err != nil {
		return nil, fmt.Errorf("preview: path: %w", err)
	}
	p = p.ReplaceArcs()

	var segs []Segment
	for sc := p.Scanner(); sc.Scan(); {
		end := vec(sc.End())
		switch sc.Cmd() {
		case canvas.MoveToCmd:
			segs = append(segs, Segment{Op: 'M', Pts: []mathutil.Vec2{end}})
		case canvas.LineToCmd:
			segs = append(segs, Segment{Op: 'L', Pts: []mathutil.Vec2{end}})
		case canvas.QuadToCmd:
			segs = append(segs, Segment{Op: 'Q', Pts: []mathutil.Vec2{vec(sc.CP1()), end}})
		case canvas.CubeToCmd:
			segs = append(segs, Segment{Op: 'C', Pts: []mathutil.Vec2{vec(sc.CP1()), vec(sc.CP2()), end}})
		case canvas.CloseCmd:
			segs = append(segs, Segment{Op: 'Z'})
		default:
			return nil, fmt.Errorf("preview: path: unexpected command %v", sc.Cmd())
		}
	}
	return segs, nil
}

func vec(p canvas.Point) mathutil.Vec2 { return mathutil.Vec2{p.X, p.Y} }
