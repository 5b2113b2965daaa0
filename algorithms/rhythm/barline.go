package rhythm

import "math"

// MeasureLength is the length of a 4/4 measure in quarter-length units
const MeasureLength = 4.0

// minContentLength is the shortest allowed note value; less room than this
// left in a measure is filled with a rest instead
const minContentLength = 1.0

// Position is the offset inside the current measure, always in [0, MeasureLength)
type Position float64

// Advance returns the position after consuming length quarter-lengths
func (p Position) Advance(length float64) Position {
	next := math.Mod(float64(p)+length, MeasureLength)
	if next < 0 {
		next += MeasureLength
	}
	return Position(next)
}

// Remaining returns how much of the current measure is still free
func (p Position) Remaining() float64 {
	offset := math.Mod(float64(p), MeasureLength)
	if offset < 0 {
		offset += MeasureLength
	}
	return MeasureLength - offset
}

// ChunkKind tags a piece of a split duration
type ChunkKind int

const (
	// Content carries the original event (a note or a rest, decided by the caller)
	Content ChunkKind = iota
	// ForcedRest pads out a measure that has too little room left; always rendered as a rest
	ForcedRest
)

func (k ChunkKind) String() string {
	switch k {
	case Content:
		return "content"
	case ForcedRest:
		return "forced_rest"
	default:
		return "unknown"
	}
}

// Chunk is one emitted piece of a split
type Chunk struct {
	Kind   ChunkKind `json:"kind"`
	Length float64   `json:"length"`
}

// Split is the barline-safe decomposition of one quantized duration.
// The forced rest, when present, is kept apart from the content so it can only
// ever come first.
type Split struct {
	Rest    float64   `json:"rest,omitempty"` // zero when no measure filler is needed
	Content []float64 `json:"content"`
}

// Chunks returns the split as an ordered chunk sequence
func (s Split) Chunks() []Chunk {
	chunks := make([]Chunk, 0, len(s.Content)+1)
	if s.Rest > 0 {
		chunks = append(chunks, Chunk{Kind: ForcedRest, Length: s.Rest})
	}
	for _, length := range s.Content {
		chunks = append(chunks, Chunk{Kind: Content, Length: length})
	}
	return chunks
}

// ContentLength sums the content chunks
func (s Split) ContentLength() float64 {
	total := 0.0
	for _, length := range s.Content {
		total += length
	}
	return total
}

// End returns the measure position after every chunk of the split
func (s Split) End(start Position) Position {
	pos := start
	for _, chunk := range s.Chunks() {
		pos = pos.Advance(chunk.Length)
	}
	return pos
}

// SplitAtBarline breaks qlen into chunks that never cross a barline, starting at pos.
// An oversized duration becomes several independent events; nothing is ever tied.
func SplitAtBarline(qlen float64, pos Position) Split {
	var split Split
	left := qlen

	remaining := pos.Remaining()
	if remaining < minContentLength {
		split.Rest = remaining
	} else if left > 0 {
		first := math.Min(left, remaining)
		split.Content = append(split.Content, first)
		left -= first
	}

	for left > 0 {
		chunk := math.Min(left, MeasureLength)
		split.Content = append(split.Content, chunk)
		left -= chunk
	}

	return split
}
