package batch

import (
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/HugoSmits86/nativewebp"

	"rig-animator/internal/attach"
	"rig-animator/internal/bake"
	"rig-animator/internal/logging"
	"rig-animator/internal/preview"
	"rig-animator/internal/prop"
	"rig-animator/internal/rig"
)

// Config holds all shared resources for a batch run.
type Config struct {
	OutputDir   string
	Format      string // "webp" or "png"
	Workers     int
	Renderer    preview.Renderer
	Rig         *rig.Rig
	Props       prop.List
	Attachments attach.Map
}

// Result holds the outcome of rendering one frame.
type Result struct {
	Index   int
	Time    time.Duration
	Percent float64
	Image   string // path relative to OutputDir
	Success bool
	Error   string
}

// FileName returns the image name of frame i.
func FileName(i int, format string) string {
	return fmt.Sprintf("frame_%04d.%s", i, format)
}

// Run renders every frame using a worker pool. Results are in frame order.
func Run(cfg Config, frames []bake.Frame) []Result {
	total := len(frames)
	results := make([]Result, total)
	var processed atomic.Int64
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}

	start := time.Now()

	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				p := processed.Load()
				if p > 0 {
					rate := float64(p) / time.Since(start).Seconds()
					logging.Logger().Info("rendering", "done", p, "total", total, "frames_per_sec", rate)
				}
			}
		}
	}()

	jobs := make(chan int, workers*2)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = processFrame(cfg, idx, frames[idx])
				processed.Add(1)
			}
		}()
	}

	for i := range frames {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
	close(done)

	return results
}

func processFrame(cfg Config, idx int, f bake.Frame) Result {
	res := Result{
		Index:   idx,
		Time:    f.Time,
		Percent: f.Percent,
		Image:   FileName(idx, cfg.Format),
	}

	img := cfg.Renderer.Render(cfg.Rig, f, cfg.Props, cfg.Attachments)

	outPath := filepath.Join(cfg.OutputDir, res.Image)
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		res.Error = err.Error()
		return res
	}
	out, err := os.Create(outPath)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	defer out.Close()

	switch cfg.Format {
	case "png":
		err = png.Encode(out, img)
	case "webp":
		err = nativewebp.Encode(out, img, nil)
	default:
		err = fmt.Errorf("unknown format %q", cfg.Format)
	}
	if err != nil {
		res.Error = fmt.Sprintf("%s encode: %v", cfg.Format, err)
		return res
	}
	res.Success = true
	return res
}
