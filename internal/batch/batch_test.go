package batch

import (
	"encoding/json"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/image/webp"

	"rig-animator/internal/attach"
	"rig-animator/internal/bake"
	"rig-animator/internal/preview"
	"rig-animator/internal/rig"
)

func frames(r *rig.Rig, n int) []bake.Frame {
	out := make([]bake.Frame, n)
	for i := range out {
		pose := r.RestPose()
		pose[r.MustID(rig.Neck)] = float64(i * 10)
		out[i] = bake.Frame{
			Time:    time.Duration(i) * 100 * time.Millisecond,
			Percent: float64(i) / float64(n-1) * 100,
			Pose:    pose,
		}
	}
	return out
}

func TestRunAndManifest(t *testing.T) {
	tests := []struct {
		format string
		decode func(path string) error
	}{
		{"png", func(path string) error {
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()
			_, err = png.Decode(f)
			return err
		}},
		{"webp", func(path string) error {
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()
			_, err = webp.Decode(f)
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			dir := t.TempDir()
			r := rig.Humanoid()
			cfg := Config{
				OutputDir:   dir,
				Format:      tt.format,
				Workers:     3,
				Renderer:    preview.Renderer{Width: 64, Height: 48},
				Rig:         r,
				Attachments: attach.Map{},
			}
			results := Run(cfg, frames(r, 5))
			if len(results) != 5 {
				t.Fatalf("Run() = %d results, want 5", len(results))
			}
			for i, res := range results {
				if !res.Success {
					t.Fatalf("frame %d: %s", i, res.Error)
				}
				if res.Index != i {
					t.Errorf("results[%d].Index = %d", i, res.Index)
				}
				if err := tt.decode(filepath.Join(dir, res.Image)); err != nil {
					t.Errorf("decode %s: %v", res.Image, err)
				}
			}

			path := filepath.Join(dir, "manifest.json")
			if err := WriteManifest(path, Manifest{Name: "nod", Width: 64, Height: 48}, results); err != nil {
				t.Fatalf("WriteManifest() error = %v", err)
			}
			raw, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			var m Manifest
			if err := json.Unmarshal(raw, &m); err != nil {
				t.Fatal(err)
			}
			if len(m.Frames) != 5 || m.Frames[4].Percent != 100 || m.Frames[2].TimeMS != 200 {
				t.Errorf("manifest = %+v", m)
			}
		})
	}
}

func TestUnknownFormat(t *testing.T) {
	r := rig.Humanoid()
	results := Run(Config{OutputDir: t.TempDir(), Format: "gif", Renderer: preview.Renderer{Width: 8, Height: 8}, Rig: r}, frames(r, 2))
	for _, res := range results {
		if res.Success || res.Error == "" {
			t.Errorf("result = %+v, want failure", res)
		}
	}
}
