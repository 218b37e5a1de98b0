package rig

import (
	"encoding/json"
	"fmt"
	"os"

	"rig-animator/internal/mathutil"
)

// fileRig matches the JSON rig schema.
type fileRig struct {
	Name  string     `json:"name"`
	Bones []fileBone `json:"bones"`
}

type fileBone struct {
	Name      string     `json:"name"`
	Parent    string     `json:"parent,omitempty"`
	Offset    [2]float64 `json:"offset"`
	Length    float64    `json:"length"`
	DrawOrder int        `json:"draw_order"`
	RestAngle float64    `json:"rest_angle"`
	Side      Side       `json:"side"`
	Limb      Limb       `json:"limb"`
	Mirror    string     `json:"mirror,omitempty"`
}

// Load reads a JSON rig definition. An empty path returns the humanoid rig.
func Load(path string) (*Rig, error) {
	if path == "" {
		return Humanoid(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("rig: read %s: %w", path, err)
	}
	r, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("rig: parse %s: %w", path, err)
	}
	return r, nil
}

// Parse decodes a JSON rig definition. Parents are referenced by name and
// must appear earlier in the list.
func Parse(raw []byte) (*Rig, error) {
	var f fileRig
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, err
	}

	all := make(map[string]bool, len(f.Bones))
	for _, b := range f.Bones {
		all[b.Name] = true
	}

	seen := make(map[string]BoneID, len(f.Bones))
	defs := make([]BoneDef, 0, len(f.Bones))
	for i, b := range f.Bones {
		parent := NoParent
		if b.Parent != "" {
			p, ok := seen[b.Parent]
			if !ok {
				if all[b.Parent] {
					return nil, fmt.Errorf("bone %q: %w", b.Name, ErrCycle)
				}
				return nil, fmt.Errorf("bone %q parent %q: %w", b.Name, b.Parent, ErrUnknownBone)
			}
			parent = p
		}
		seen[b.Name] = BoneID(i)
		defs = append(defs, BoneDef{
			Name:      b.Name,
			Parent:    parent,
			Offset:    mathutil.Vec2(b.Offset),
			Length:    b.Length,
			DrawOrder: b.DrawOrder,
			RestAngle: b.RestAngle,
			Side:      b.Side,
			Limb:      b.Limb,
			Mirror:    b.Mirror,
		})
	}

	return New(f.Name, defs)
}
