// Package export encodes a baked animation as a self-contained JSON document:
// static rig geometry, prop artwork and one curve per bone and prop. Curve
// keys are positioned by percent of the loop so players can stretch the
// animation to any length.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"math"

	"rig-animator/internal/bake"
	"rig-animator/internal/prop"
	"rig-animator/internal/rig"
)

// Version is the document format written by Encode.
const Version = 1

// Document is the exported animation.
type Document struct {
	Version    int                   `json:"version"`
	Name       string                `json:"name,omitempty"`
	Mode       string                `json:"mode"`
	DurationMS float64               `json:"duration_ms"`
	Rig        RigInfo               `json:"rig"`
	Props      []PropInfo            `json:"props"`
	Bones      map[string][]AngleKey `json:"bones"`
	Tracks     map[string][]PropKey  `json:"prop_tracks"`
}

// RigInfo is the static skeleton.
type RigInfo struct {
	Name  string     `json:"name"`
	Bones []BoneInfo `json:"bones"`
}

// BoneInfo is one bone's geometry.
type BoneInfo struct {
	Name      string     `json:"name"`
	Parent    string     `json:"parent,omitempty"`
	Offset    [2]float64 `json:"offset"`
	Length    float64    `json:"length"`
	RestAngle float64    `json:"rest_angle"`
	DrawOrder int        `json:"draw_order"`
	Side      rig.Side   `json:"side"`
	Limb      rig.Limb   `json:"limb"`
}

// PropInfo is a prop's static description.
type PropInfo struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	Category   prop.Category    `json:"category"`
	Shape      prop.Shape       `json:"shape"`
	SnapPoints []prop.SnapPoint `json:"snap_points"`
}

// AngleKey is one bone curve key.
type AngleKey struct {
	Percent float64 `json:"pct"`
	Angle   float64 `json:"angle"`
}

// PropKey is one prop curve key.
type PropKey struct {
	Percent  float64 `json:"pct"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Rotation float64 `json:"rotation"`
	ScaleX   float64 `json:"scale_x"`
	ScaleY   float64 `json:"scale_y"`
}

// precision is the number of decimals kept in curve values.
const precision = 1e4

func round(v float64) float64 {
	return math.Round(v*precision) / precision
}

// Build assembles the document for res. Bones with a constant curve keep a
// single key.
func Build(name string, r *rig.Rig, props prop.List, res bake.Result) Document {
	d := Document{
		Version:    Version,
		Name:       name,
		Mode:       res.Mode.String(),
		DurationMS: float64(res.Duration) / 1e6,
		Rig:        RigInfo{Name: r.Name()},
		Bones:      make(map[string][]AngleKey, r.Len()),
		Tracks:     make(map[string][]PropKey, len(props)),
	}

	for _, b := range r.Bones() {
		info := BoneInfo{
			Name:      b.Name,
			Offset:    [2]float64{b.Offset[0], b.Offset[1]},
			Length:    b.Length,
			RestAngle: b.RestAngle,
			DrawOrder: b.DrawOrder,
			Side:      b.Side,
			Limb:      b.Limb,
		}
		if parent, ok := r.Bone(b.Parent); ok {
			info.Parent = parent.Name
		}
		d.Rig.Bones = append(d.Rig.Bones, info)
	}

	for id, keys := range res.Bones {
		b, ok := r.Bone(rig.BoneID(id))
		if !ok {
			continue
		}
		out := make([]AngleKey, 0, len(keys))
		for _, k := range keys {
			out = append(out, AngleKey{Percent: round(k.Percent), Angle: round(k.Angle)})
		}
		d.Bones[b.Name] = collapseAngles(out)
	}

	for _, p := range props {
		d.Props = append(d.Props, PropInfo{
			ID:         p.ID,
			Name:       p.Name,
			Category:   p.Category,
			Shape:      p.Shape,
			SnapPoints: p.SnapPoints,
		})
		keys := res.Props[p.ID]
		out := make([]PropKey, 0, len(keys))
		for _, k := range keys {
			t := k.Transform
			out = append(out, PropKey{
				Percent:  round(k.Percent),
				X:        round(t.X),
				Y:        round(t.Y),
				Rotation: round(t.Rotation),
				ScaleX:   round(t.ScaleX),
				ScaleY:   round(t.ScaleY),
			})
		}
		d.Tracks[p.ID] = out
	}
	return d
}

func collapseAngles(keys []AngleKey) []AngleKey {
	if len(keys) < 2 {
		return keys
	}
	for _, k := range keys[1:] {
		if k.Angle != keys[0].Angle {
			return keys
		}
	}
	return keys[:1]
}

// Encode writes the document for res to w.
func Encode(w io.Writer, name string, r *rig.Rig, props prop.List, res bake.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(Build(name, r, props, res)); err != nil {
		return fmt.Errorf("export: encode %s: %w", name, err)
	}
	return nil
}
