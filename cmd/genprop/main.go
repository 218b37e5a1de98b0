package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"rig-animator/internal/config"
	"rig-animator/internal/logging"
	"rig-animator/internal/mathutil"
	"rig-animator/internal/propgen"
	"rig-animator/internal/rig"
	"rig-animator/internal/scene"
	"rig-animator/internal/session"
	"rig-animator/internal/store"
)

func main() {
	configFile := flag.String("config", "", "Path to config.json file")
	storePath := flag.String("store", "", "Scene store database (default: scenes.db)")
	sceneName := flag.String("scene", "", "Stored scene to add the prop to (created when missing)")
	desc := flag.String("desc", "", "Text description of the prop")
	x := flag.Float64("x", 400, "Stage X of the new prop")
	y := flag.Float64("y", 300, "Stage Y of the new prop")
	timeout := flag.Duration("timeout", 3*time.Minute, "Give up after this long")
	logLevel := flag.String("log-level", "", "debug, info, warn or error (default: info)")
	listProps := flag.Bool("props", false, "List the generated prop library and exit")

	flag.Parse()

	if !*listProps && (*desc == "" || *sceneName == "") {
		fmt.Fprintln(os.Stderr, "Error: -desc and -scene are required")
		os.Exit(1)
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	cfg.Resolve(config.Flags{StorePath: *storePath, LogLevel: *logLevel})
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logging.SetLogger(logging.NewText(os.Stderr, level))

	if *listProps {
		if err := printProps(cfg.StorePath); err != nil {
			fmt.Fprintf(os.Stderr, "Error listing props: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if cfg.AnthropicKey == "" {
		fmt.Fprintln(os.Stderr, "Error: ANTHROPIC_API_KEY is not set")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	st, err := store.Open(cfg.StorePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening store: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	state, rigFile, err := loadState(ctx, st, cfg, *sceneName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading scene: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Generating %q...\n", *desc)
	gen := propgen.NewAnthropicGenerator(cfg.AnthropicKey, cfg.AnthropicModel)
	outcome := <-propgen.Request(ctx, gen, *desc)

	state, err = session.Apply(state, session.RegisterGenerated{
		Outcome: outcome,
		At:      mathutil.Vec2{*x, *y},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating prop: %v\n", err)
		os.Exit(1)
	}
	p := state.Props[len(state.Props)-1]
	fmt.Printf("Prop: %s (%s) id=%s\n", p.Name, p.Category, p.ID)

	if err := st.SaveProp(ctx, p, *desc); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving prop: %v\n", err)
		os.Exit(1)
	}
	if err := st.SaveScene(ctx, scene.FromState(*sceneName, rigFile, state)); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving scene: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Saved %q to %s\n", *sceneName, cfg.StorePath)
}

// loadState returns the stored scene, or a new one on the configured rig,
// along with the rig file it was built on.
func loadState(ctx context.Context, st *store.Store, cfg config.Config, name string) (session.State, string, error) {
	doc, err := st.LoadScene(ctx, name)
	if errors.Is(err, store.ErrNotFound) {
		r, err := rig.Load(cfg.RigFile)
		if err != nil {
			return session.State{}, "", err
		}
		fmt.Printf("Creating scene %q\n", name)
		s, err := session.New(r, nil)
		return s, cfg.RigFile, err
	}
	if err != nil {
		return session.State{}, "", err
	}
	rigFile := doc.RigFile
	if rigFile == "" {
		rigFile = cfg.RigFile
	}
	r, err := rig.Load(rigFile)
	if err != nil {
		return session.State{}, "", err
	}
	s, err := doc.State(r)
	return s, rigFile, err
}

func printProps(path string) error {
	st, err := store.Open(path)
	if err != nil {
		return err
	}
	defer st.Close()
	props, err := st.Props(context.Background())
	if err != nil {
		return err
	}
	for _, p := range props {
		fmt.Printf("  %-36s %-20s %-6s %d snap points\n", p.ID, p.Name, p.Category, len(p.SnapPoints))
	}
	fmt.Printf("%d props\n", len(props))
	return nil
}
