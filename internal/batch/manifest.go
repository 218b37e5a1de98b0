package batch

import (
	"encoding/json"
	"os"
)

// Manifest describes a rendered frame sequence.
type Manifest struct {
	Name       string          `json:"name"`
	DurationMS float64         `json:"duration_ms"`
	Width      int             `json:"width"`
	Height     int             `json:"height"`
	Frames     []ManifestEntry `json:"frames"`
}

// ManifestEntry represents one rendered frame.
type ManifestEntry struct {
	Index   int     `json:"index"`
	TimeMS  float64 `json:"time_ms"`
	Percent float64 `json:"pct"`
	Image   string  `json:"image"`
}

// WriteManifest writes manifest.json for the successful results.
func WriteManifest(path string, m Manifest, results []Result) error {
	m.Frames = m.Frames[:0]
	for _, r := range results {
		if !r.Success {
			continue
		}
		m.Frames = append(m.Frames, ManifestEntry{
			Index:   r.Index,
			TimeMS:  float64(r.Time) / 1e6,
			Percent: r.Percent,
			Image:   r.Image,
		})
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
