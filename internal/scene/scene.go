// Package scene reads and writes authored animation scenes as JSON. Bones
// are referenced by name so a scene survives edits to the rig's bone order.
package scene

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"rig-animator/internal/attach"
	"rig-animator/internal/prop"
	"rig-animator/internal/rig"
	"rig-animator/internal/session"
	"rig-animator/internal/timeline"
)

// Version is the document format written by this package.
const Version = 1

// ErrVersion is returned for documents from a newer format.
var ErrVersion = errors.New("scene: unsupported version")

// Document is the on-disk scene.
type Document struct {
	Version   int        `json:"version"`
	Name      string     `json:"name"`
	RigFile   string     `json:"rig_file,omitempty"`
	Mirror    bool       `json:"mirror"`
	Active    int        `json:"active"`
	Props     prop.List  `json:"props"`
	Grips     []Grip     `json:"grips,omitempty"`
	Keyframes []Keyframe `json:"keyframes"`
}

// Grip is one attached hand.
type Grip struct {
	Hand           string  `json:"hand"`
	PropID         string  `json:"prop_id"`
	SnapID         string  `json:"snap_id"`
	RotationOffset float64 `json:"rotation_offset"`
}

// Keyframe is one authored frame.
type Keyframe struct {
	ID         string                    `json:"id"`
	DurationMS float64                   `json:"duration_ms"`
	Pose       map[string]float64        `json:"pose"`
	Props      map[string]prop.Transform `json:"props,omitempty"`
}

// FromState captures s as a document. rigFile names the rig definition s was
// built on; empty means the built-in humanoid.
func FromState(name, rigFile string, s session.State) Document {
	d := Document{
		Version: Version,
		Name:    name,
		RigFile: rigFile,
		Mirror:  s.Mirror,
		Active:  s.Active,
		Props:   s.Props.Clone(),
	}
	for _, h := range s.Attachments.Hands() {
		def, _ := s.Rig.Bone(h)
		a := s.Attachments[h]
		d.Grips = append(d.Grips, Grip{
			Hand:           def.Name,
			PropID:         a.PropID,
			SnapID:         a.SnapID,
			RotationOffset: a.RotationOffset,
		})
	}
	for _, k := range s.Timeline.Frames() {
		d.Keyframes = append(d.Keyframes, Keyframe{
			ID:         k.ID,
			DurationMS: float64(k.Duration) / float64(time.Millisecond),
			Pose:       s.Rig.PoseNames(k.Pose),
			Props:      k.Props,
		})
	}
	return d
}

// State rebuilds an editing session on r and loads the active frame.
func (d Document) State(r *rig.Rig) (session.State, error) {
	if d.Version > Version {
		return session.State{}, fmt.Errorf("scene: %s: %w %d", d.Name, ErrVersion, d.Version)
	}
	s, err := session.New(r, d.Props)
	if err != nil {
		return session.State{}, err
	}

	if len(d.Keyframes) > 0 {
		frames := make([]timeline.Keyframe, 0, len(d.Keyframes))
		for _, k := range d.Keyframes {
			id := k.ID
			if id == "" {
				id = session.NewID()
			}
			frames = append(frames, timeline.Keyframe{
				ID:       id,
				Duration: time.Duration(math.Round(k.DurationMS * float64(time.Millisecond))),
				Pose:     r.PoseFromNames(k.Pose),
				Props:    k.Props,
			})
		}
		tl, err := timeline.New(frames...)
		if err != nil {
			return session.State{}, fmt.Errorf("scene: %s: %w", d.Name, err)
		}
		s.Timeline = tl
	}

	s.Attachments = attach.Map{}
	for _, g := range d.Grips {
		h, ok := r.ID(g.Hand)
		if !ok {
			return session.State{}, fmt.Errorf("scene: grip %s: %w", g.Hand, rig.ErrUnknownBone)
		}
		s.Attachments[h] = attach.Attachment{PropID: g.PropID, SnapID: g.SnapID, RotationOffset: g.RotationOffset}
	}
	s.Mirror = d.Mirror

	s, err = session.Apply(s, session.SelectKeyframe{Index: d.Active})
	if err != nil {
		return session.State{}, fmt.Errorf("scene: %s: %w", d.Name, err)
	}
	return s, nil
}

// Decode reads a document.
func Decode(r io.Reader) (Document, error) {
	var d Document
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return Document{}, fmt.Errorf("scene: decode: %w", err)
	}
	return d, nil
}

// Encode writes d as indented JSON.
func Encode(w io.Writer, d Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("scene: encode: %w", err)
	}
	return nil
}

// Load reads a scene file.
func Load(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return Document{}, fmt.Errorf("scene: open %s: %w", path, err)
	}
	defer f.Close()
	return Decode(f)
}

// Save writes a scene file.
func Save(path string, d Document) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("scene: create %s: %w", path, err)
	}
	if err := Encode(f, d); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
