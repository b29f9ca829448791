package chunking

import "strings"

// separators, in descending structural order. The final empty string
// splits into runes as a last resort so no fragment can exceed the
// chunk size.
var separators = []string{"\n\n", "\n", ". ", "! ", "? ", " ", ""}

// RecursiveSplitter breaks text on the strongest separator that still
// produces fragments within the chunk size, then merges fragments back
// into chunks with a trailing overlap carried into the next chunk.
type RecursiveSplitter struct {
	chunkSize int
	overlap   int
}

func NewRecursiveSplitter(chunkSize, overlap int) *RecursiveSplitter {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = chunkSize / 5
	}
	return &RecursiveSplitter{chunkSize: chunkSize, overlap: overlap}
}

func (s *RecursiveSplitter) Split(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	return s.split(text, separators)
}

func (s *RecursiveSplitter) split(text string, seps []string) []string {
	sep := seps[len(seps)-1]
	rest := seps
	for i, candidate := range seps {
		if candidate == "" || strings.Contains(text, candidate) {
			sep = candidate
			rest = seps[i+1:]
			break
		}
	}

	var final []string
	var pending []string
	for _, fragment := range splitKeeping(text, sep) {
		if len(fragment) < s.chunkSize {
			pending = append(pending, fragment)
			continue
		}
		if len(pending) > 0 {
			final = append(final, s.merge(pending)...)
			pending = nil
		}
		if len(rest) == 0 {
			final = append(final, fragment)
		} else {
			final = append(final, s.split(fragment, rest)...)
		}
	}
	if len(pending) > 0 {
		final = append(final, s.merge(pending)...)
	}
	return final
}

// merge packs fragments into chunks up to chunkSize, carrying the last
// overlap bytes' worth of fragments into the next chunk. Fragments
// arrive with their separators still attached, so they concatenate
// directly.
func (s *RecursiveSplitter) merge(fragments []string) []string {
	var chunks []string
	var window []string
	total := 0

	flush := func() {
		if len(window) == 0 {
			return
		}
		chunk := strings.TrimSpace(strings.Join(window, ""))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
	}

	for _, fragment := range fragments {
		if total+len(fragment) > s.chunkSize && len(window) > 0 {
			flush()
			// shrink the window until only the overlap remains
			for len(window) > 0 && (total > s.overlap || total+len(fragment) > s.chunkSize) {
				total -= len(window[0])
				window = window[1:]
			}
		}
		window = append(window, fragment)
		total += len(fragment)
	}
	flush()
	return chunks
}

// splitKeeping splits on sep without discarding it: each piece keeps
// its trailing separator so merged chunks read naturally.
func splitKeeping(text, sep string) []string {
	if sep == "" {
		return strings.Split(text, "")
	}
	parts := strings.Split(text, sep)
	out := make([]string, 0, len(parts))
	for i, part := range parts {
		if i < len(parts)-1 {
			part += sep
		}
		if strings.TrimSpace(part) != "" {
			out = append(out, part)
		}
	}
	return out
}
