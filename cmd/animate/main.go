package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"rig-animator/internal/bake"
	"rig-animator/internal/batch"
	"rig-animator/internal/config"
	"rig-animator/internal/export"
	"rig-animator/internal/logging"
	"rig-animator/internal/preview"
	"rig-animator/internal/rig"
	"rig-animator/internal/scene"
	"rig-animator/internal/store"
	"rig-animator/internal/texture"
)

func main() {
	configFile := flag.String("config", "", "Path to config.json file")
	sceneFile := flag.String("scene", "", "Scene JSON file to bake")
	stored := flag.String("stored", "", "Bake the scene with this name from the store instead of -scene")
	storePath := flag.String("store", "", "Scene store database (default: scenes.db)")
	save := flag.Bool("save", false, "Save the -scene file into the store after baking")
	list := flag.Bool("list", false, "List stored scenes and exit")
	write := flag.String("write", "", "Also write the scene as a JSON file, e.g. to pull a -stored scene out of the store")
	outputDir := flag.String("output", "", "Output directory (default: renders)")
	mode := flag.String("mode", "", "Bake mode: accurate or interpolated (default: accurate)")
	interval := flag.Int("interval", 0, "Accurate-mode sample interval in ms (default: 30)")
	render := flag.Bool("preview", false, "Render a preview image for every baked frame")
	format := flag.String("format", "", "Preview format: webp or png (default: webp)")
	workers := flag.Int("workers", 0, "Number of render goroutines (default: NumCPU)")
	logLevel := flag.String("log-level", "", "debug, info, warn or error (default: info)")

	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	cfg.Resolve(config.Flags{
		SceneFile:  *sceneFile,
		StorePath:  *storePath,
		OutputDir:  *outputDir,
		BakeMode:   *mode,
		IntervalMS: *interval,
		Format:     *format,
		Workers:    *workers,
		LogLevel:   *logLevel,
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logging.SetLogger(logging.NewText(os.Stderr, level))

	ctx := context.Background()

	if *list {
		if err := listScenes(ctx, cfg.StorePath); err != nil {
			fmt.Fprintf(os.Stderr, "Error listing scenes: %v\n", err)
			os.Exit(1)
		}
		return
	}

	doc, err := loadDocument(ctx, cfg, *stored)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading scene: %v\n", err)
		os.Exit(1)
	}
	if doc.Name == "" {
		doc.Name = sceneName(cfg.SceneFile)
	}

	rigFile := doc.RigFile
	if rigFile == "" {
		rigFile = cfg.RigFile
	}
	r, err := rig.Load(rigFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading rig: %v\n", err)
		os.Exit(1)
	}

	state, err := doc.State(r)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building scene: %v\n", err)
		os.Exit(1)
	}

	bakeMode, err := bake.ParseMode(cfg.BakeMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Scene: %s (%d keyframes, %d props)\n", doc.Name, state.Timeline.Len(), len(state.Props))
	fmt.Printf("Rig: %s (%d bones)\n", r.Name(), r.Len())
	fmt.Printf("Bake: %s", bakeMode)
	if bakeMode == bake.ModeAccurate {
		fmt.Printf(" every %v", cfg.Interval())
	}
	fmt.Println()
	fmt.Println("------------------------------------------------------------")

	start := time.Now()
	snap := state.Snapshot()
	res, err := bake.Bake(snap, bake.Options{Mode: bakeMode, Interval: cfg.Interval()})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error baking: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Baked %d frames over %v in %.2fs\n", len(res.Frames), res.Duration, time.Since(start).Seconds())

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output dir: %v\n", err)
		os.Exit(1)
	}
	exportPath := filepath.Join(cfg.OutputDir, doc.Name+".json")
	if err := writeExport(exportPath, doc.Name, snap, res); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing export: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Export: %s\n", exportPath)

	failed := 0
	if *render {
		failed = renderPreviews(cfg, doc.Name, snap, res)
	}

	if *write != "" {
		if err := scene.Save(*write, scene.FromState(doc.Name, rigFile, state)); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing scene: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Scene: %s\n", *write)
	}

	if *save && *stored == "" {
		if err := saveScene(ctx, cfg.StorePath, scene.FromState(doc.Name, rigFile, state)); err != nil {
			fmt.Fprintf(os.Stderr, "Error saving scene: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Saved %q to %s\n", doc.Name, cfg.StorePath)
	}

	if failed > 0 {
		os.Exit(1)
	}
}

func loadDocument(ctx context.Context, cfg config.Config, stored string) (scene.Document, error) {
	if stored != "" {
		st, err := store.Open(cfg.StorePath)
		if err != nil {
			return scene.Document{}, err
		}
		defer st.Close()
		return st.LoadScene(ctx, stored)
	}
	if cfg.SceneFile == "" {
		return scene.Document{}, errors.New("no scene given: use -scene or -stored")
	}
	return scene.Load(cfg.SceneFile)
}

func sceneName(path string) string {
	base := filepath.Base(path)
	return base[:len(base)-len(filepath.Ext(base))]
}

func writeExport(path, name string, snap bake.Snapshot, res bake.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := export.Encode(f, name, snap.Rig, snap.Props, res); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func renderPreviews(cfg config.Config, name string, snap bake.Snapshot, res bake.Result) int {
	renderer := preview.Renderer{
		Width:       cfg.PreviewWidth,
		Height:      cfg.PreviewHeight,
		Supersample: cfg.Supersample,
	}
	if cfg.Backdrop != "" {
		// A backdrop that is not a file is looked up by name under BaseDir.
		var idx *texture.Index
		if _, err := os.Stat(cfg.Backdrop); err != nil && cfg.BaseDir != "" {
			idx = texture.BuildIndex(cfg.BaseDir)
			fmt.Printf("Backdrops: %d indexed\n", idx.Len())
		}
		renderer.Backdrop = texture.NewCache(idx).Resolve(cfg.Backdrop)
		if renderer.Backdrop == nil {
			fmt.Fprintf(os.Stderr, "Warning: backdrop %s not loaded\n", cfg.Backdrop)
		}
	}

	framesDir := filepath.Join(cfg.OutputDir, name)
	fmt.Printf("Previews: %d frames, %dx%d %s, Workers: %d\n", len(res.Frames), renderer.Width, renderer.Height, cfg.Format, cfg.Workers)
	fmt.Printf("Output: %s\n", framesDir)

	start := time.Now()
	results := batch.Run(batch.Config{
		OutputDir:   framesDir,
		Format:      cfg.Format,
		Workers:     cfg.Workers,
		Renderer:    renderer,
		Rig:         snap.Rig,
		Props:       snap.Props,
		Attachments: snap.Attachments,
	}, res.Frames)
	fmt.Printf("Rendered in %.1fs\n", time.Since(start).Seconds())

	var failures []batch.Result
	for _, r := range results {
		if !r.Success {
			failures = append(failures, r)
		}
	}
	fmt.Printf("Rendered: %d/%d\n", len(results)-len(failures), len(results))
	if len(failures) > 0 {
		fmt.Printf("\nFailed (%d):\n", len(failures))
		limit := min(len(failures), 20)
		for _, e := range failures[:limit] {
			fmt.Printf("  %s: %s\n", e.Image, e.Error)
		}
	}

	manifestPath := filepath.Join(framesDir, "manifest.json")
	m := batch.Manifest{
		Name:       name,
		DurationMS: float64(res.Duration) / 1e6,
		Width:      renderer.Width,
		Height:     renderer.Height,
	}
	if err := batch.WriteManifest(manifestPath, m, results); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: manifest write failed: %v\n", err)
	} else {
		fmt.Printf("Manifest: %s\n", manifestPath)
	}
	return len(failures)
}

func saveScene(ctx context.Context, path string, doc scene.Document) error {
	st, err := store.Open(path)
	if err != nil {
		return err
	}
	defer st.Close()
	return st.SaveScene(ctx, doc)
}

func listScenes(ctx context.Context, path string) error {
	st, err := store.Open(path)
	if err != nil {
		return err
	}
	defer st.Close()
	scenes, err := st.ListScenes(ctx)
	if err != nil {
		return err
	}
	if len(scenes) == 0 {
		fmt.Println("No stored scenes.")
		return nil
	}
	for _, s := range scenes {
		fmt.Printf("%-24s %3d keyframes  updated %s\n", s.Name, s.Keyframes, s.UpdatedAt.Format(time.RFC3339))
	}
	return nil
}
