package progress

import (
	"fmt"
	"io"
	"time"
)

// Stage represents one pipeline stage
type Stage struct {
	Number      int
	Total       int
	Name        string
	Description string
}

// Predefined pipeline stages in execution order
var (
	StageValidate = Stage{1, 6, "validate", "checking song spec"}
	StageGenerate = Stage{2, 6, "generate", "generating note patterns"}
	StageArrange  = Stage{3, 6, "arrange", "arranging sections and fills"}
	StageDynamics = Stage{4, 6, "dynamics", "shaping dynamics"}
	StageRender   = Stage{5, 6, "render", "rendering instruments"}
	StageMix      = Stage{6, 6, "mix", "mixing to stereo"}
)

// Reporter writes pipeline progress to an output stream
type Reporter struct {
	out     io.Writer
	start   time.Time
	verbose bool
}

// NewReporter creates a progress reporter
func NewReporter(out io.Writer, verbose bool) *Reporter {
	return &Reporter{out: out, start: time.Now(), verbose: verbose}
}

// StartStage announces the beginning of a pipeline stage
func (r *Reporter) StartStage(stage Stage) {
	fmt.Fprintf(r.out, "%d/%d %-9s %s...\n", stage.Number, stage.Total, stage.Name, stage.Description)
}

// Update emits a sub-step message in verbose mode
func (r *Reporter) Update(format string, args ...any) {
	if !r.verbose {
		return
	}
	fmt.Fprintf(r.out, "    · "+format+"\n", args...)
}

// StageComplete summarizes a finished stage
func (r *Reporter) StageComplete(format string, args ...any) {
	fmt.Fprintf(r.out, "    "+format+"\n", args...)
}

// Done reports successful completion with the output location
func (r *Reporter) Done(outputPath string) {
	if outputPath != "" {
		fmt.Fprintf(r.out, "wrote %s\n", outputPath)
	}
	fmt.Fprintf(r.out, "finished in %s\n", time.Since(r.start).Round(100*time.Millisecond))
}

// Error reports a fatal pipeline error
func (r *Reporter) Error(err error) {
	fmt.Fprintf(r.out, "error: %v\n", err)
}

// Warning reports a non-fatal condition
func (r *Reporter) Warning(format string, args ...any) {
	fmt.Fprintf(r.out, "    warning: "+format+"\n", args...)
}
