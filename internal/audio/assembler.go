package audio

import "errors"

// ErrEmptyInput is returned when assembly is requested with no segments.
// Callers short-circuit the transcription pass instead of uploading an
// empty artifact.
var ErrEmptyInput = errors.New("no audio segments to assemble")

// Assemble concatenates an ordered sequence of segments into one contiguous
// artifact. The input slices are read but never mutated or retained; the
// returned artifact is freshly allocated.
func Assemble(segments [][]byte) ([]byte, error) {
	if len(segments) == 0 {
		return nil, ErrEmptyInput
	}

	total := 0
	for _, segment := range segments {
		total += len(segment)
	}

	artifact := make([]byte, 0, total)
	for _, segment := range segments {
		artifact = append(artifact, segment...)
	}

	return artifact, nil
}
