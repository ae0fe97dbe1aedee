package audio

import "context"

// Processor derives playable metadata and a preview clip from a master file.
type Processor interface {
	// ProbeDuration returns the whole-second duration of the audio file.
	ProbeDuration(ctx context.Context, inputFile string) (int, error)
	// ExtractPreview produces a fixed-length lossy clip into outputDir
	// (created if absent) and returns the preview path.
	ExtractPreview(ctx context.Context, inputFile, outputDir string) (string, error)
}
