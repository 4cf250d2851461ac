package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dygy/songforge/internal/config"
	"github.com/dygy/songforge/internal/engine"
	"github.com/dygy/songforge/internal/server"
	"github.com/dygy/songforge/internal/song"
)

var (
	version = "0.1.0"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "songforge",
	Short: "Procedural song composition and rendering",
	Long: `Songforge turns a declarative song spec and a seed into a finished
stereo master: it generates note patterns, arranges sections, applies
humanized dynamics, renders instruments and mixes the result.

Pipeline: spec → patterns → arrangement → dynamics → audio → mix`,
	Version: version,
}

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a song spec to a stereo master WAV",
	Long: `Render a song spec to audio. The same spec and seed always produce
the same output file.

Examples:
  songforge render --spec song.json
  songforge render -s song.json --seed 42 -o ./out --stems --midi
  songforge render -s song.json --style lofi --mix mix.json`,
	RunE: runRender,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP render service",
	Long: `Start the JSON API for queueing render jobs and downloading
results.

Example:
  songforge serve --port 8080`,
	RunE: runServe,
}

var stylesCmd = &cobra.Command{
	Use:   "styles",
	Short: "List the built-in arrangement styles",
	RunE:  runStyles,
}

var (
	// render flags
	specPath   string
	seed       int64
	styleName  string
	mixPath    string
	outputDir  string
	sampleRate int
	writeStems bool
	writeMIDI  bool
	noCache    bool
	verbose    bool

	// serve flags
	port int
)

func init() {
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(stylesCmd)

	renderCmd.Flags().StringVarP(&specPath, "spec", "s", "", "Song spec JSON file (required)")
	renderCmd.Flags().Int64Var(&seed, "seed", 0, "Generation seed")
	renderCmd.Flags().StringVar(&styleName, "style", "", "Arrangement style (default, lofi, cinematic, club)")
	renderCmd.Flags().StringVar(&mixPath, "mix", "", "Mix config JSON file")
	renderCmd.Flags().StringVarP(&outputDir, "output", "o", "", "Output directory (default: config or temp)")
	renderCmd.Flags().IntVar(&sampleRate, "rate", 0, "Sample rate in Hz")
	renderCmd.Flags().BoolVar(&writeStems, "stems", false, "Write per-instrument stem WAVs")
	renderCmd.Flags().BoolVar(&writeMIDI, "midi", false, "Write a Standard MIDI File of the arrangement")
	renderCmd.Flags().BoolVar(&noCache, "no-cache", false, "Skip the render cache")
	renderCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	renderCmd.MarkFlagRequired("spec")

	serveCmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default: config)")
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	spec, err := song.LoadSpec(specPath)
	if err != nil {
		return err
	}
	mixCfg, err := song.LoadMixConfig(mixPath)
	if err != nil {
		return err
	}
	if styleName == "" {
		styleName = cfg.Render.Style
	}
	if sampleRate == 0 {
		sampleRate = cfg.Render.SampleRate
	}
	if outputDir == "" {
		outputDir = cfg.Render.OutputDir
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nInterrupted, cleaning up...")
		cancel()
	}()

	result, err := engine.RenderSong(ctx, engine.PipelineConfig{
		Spec:       spec,
		Seed:       seed,
		Style:      song.StylePreset(song.ParseStyle(styleName)),
		Mix:        mixCfg,
		Assets:     cfg.AssetConfig(),
		SampleRate: sampleRate,
		OutputDir:  outputDir,
		WriteStems: writeStems,
		WriteMIDI:  writeMIDI,
		UseCache:   cfg.Cache.Enabled && !noCache,
		CacheDir:   cfg.Cache.Dir,
		Verbose:    verbose,
	}, os.Stdout)
	if err != nil {
		return err
	}

	if verbose {
		fmt.Printf("Render hash: %s\n", result.Hash)
		fmt.Printf("Loudness: %.1f LUFS, peak %.1f dBFS\n", result.Loudness.LUFS, result.Loudness.PeakDBFS)
	}
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if port == 0 {
		port = cfg.Server.Port
	}

	srv, err := server.New(server.Config{
		Port:       port,
		Assets:     cfg.AssetConfig(),
		JobTimeout: cfg.Server.JobTimeout,
	})
	if err != nil {
		return err
	}
	return srv.Run()
}

func runStyles(cmd *cobra.Command, args []string) error {
	for _, name := range song.AvailableStyles() {
		fmt.Printf("%-10s %s\n", name, song.StyleDescription(name))
	}
	return nil
}
