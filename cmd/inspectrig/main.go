package main

import (
	"flag"
	"fmt"
	"os"

	"rig-animator/internal/mathutil"
	"rig-animator/internal/prop"
	"rig-animator/internal/rig"
	"rig-animator/internal/session"
)

func main() {
	rigFile := flag.String("rig", "", "Rig JSON file (default: built-in humanoid)")
	drag := flag.String("drag", "", "Effector to drag, e.g. hand_r")
	x := flag.Float64("x", 0, "Drag target X")
	y := flag.Float64("y", 0, "Drag target Y")
	flag.Parse()

	r, err := rig.Load(*rigFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading rig: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Rig: %s, %d bones\n", r.Name(), r.Len())
	for _, id := range r.Roots() {
		b, _ := r.Bone(id)
		fmt.Printf("Root: %s at (%.1f, %.1f)\n", b.Name, b.Offset[0], b.Offset[1])
	}
	pose := r.RestPose()
	printPose(r, pose)

	fmt.Println("\nChains:")
	for _, c := range r.Chains() {
		u, _ := r.Bone(c.Upper)
		l, _ := r.Bone(c.Lower)
		e, _ := r.Bone(c.Effector)
		fmt.Printf("  %-12s %s -> %s (reach %.1f, bend %+.0f)\n", e.Name, u.Name, l.Name, u.Length+l.Length, c.Bend)
	}

	if *drag == "" {
		return
	}
	id, ok := r.ID(*drag)
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: unknown bone %q\n", *drag)
		os.Exit(1)
	}
	s, err := session.New(r, prop.List{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	target := mathutil.Vec2{*x, *y}
	s, err = session.Apply(s, session.DragEffector{Effector: id, Target: target})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	got := r.GlobalTransform(id, s.Pose).Pos()
	fmt.Printf("\nDrag %s to (%.1f, %.1f): reached (%.2f, %.2f), miss %.3f\n",
		*drag, target[0], target[1], got[0], got[1], got.Dist(target))
	printPose(r, s.Pose)
}

func printPose(r *rig.Rig, pose rig.Pose) {
	fmt.Printf("  %-14s %-14s %9s %9s %9s %9s\n", "bone", "parent", "local", "x", "y", "angle")
	worlds := r.Evaluate(pose)
	for _, b := range r.Bones() {
		id := r.MustID(b.Name)
		parent := "-"
		if p, ok := r.Bone(b.Parent); ok {
			parent = p.Name
		}
		w := worlds[id]
		fmt.Printf("  %-14s %-14s %9.2f %9.2f %9.2f %9.2f\n", b.Name, parent, pose[id], w.X, w.Y, w.Angle)
	}
}
