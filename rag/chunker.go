package rag

import (
	"strings"
)

const (
	// DefaultChunkSize is the maximum chunk length in runes
	DefaultChunkSize = 400
	// DefaultChunkOverlap is the number of runes shared by adjacent chunks
	DefaultChunkOverlap = 50
)

// separators are tried in order: paragraph, line, sentence, word, rune
var separators = []string{"\n\n", "\n", ". ", " ", ""}

// Chunker splits policy text into overlapping bounded segments suitable for
// embedding. Splitting prefers paragraph boundaries, then sentences, then
// words, and falls back to rune windows for unbroken runs of text.
type Chunker struct {
	size    int
	overlap int
}

// NewChunker creates a chunker with the given size and overlap (in runes).
// Non-positive or inconsistent values fall back to the defaults.
func NewChunker(size, overlap int) *Chunker {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = DefaultChunkOverlap
		if overlap >= size {
			overlap = size / 8
		}
	}
	return &Chunker{size: size, overlap: overlap}
}

// Split divides text into an ordered sequence of chunks. Empty or
// whitespace-only input yields no chunks. Pure function of input and
// configuration.
func (c *Chunker) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return c.split(text, separators)
}

func (c *Chunker) split(text string, seps []string) []string {
	sep := ""
	rest := []string{}
	for i, s := range seps {
		if s == "" {
			sep = ""
			break
		}
		if strings.Contains(text, s) {
			sep = s
			rest = seps[i+1:]
			break
		}
	}

	var pieces []string
	if sep == "" {
		for _, r := range text {
			pieces = append(pieces, string(r))
		}
	} else {
		pieces = strings.Split(text, sep)
	}

	var chunks []string
	var pending []string
	for _, piece := range pieces {
		if runeLen(piece) <= c.size {
			if piece != "" {
				pending = append(pending, piece)
			}
			continue
		}
		// Piece too large for a single chunk: flush what we have, then
		// split the oversized piece on finer boundaries.
		chunks = append(chunks, c.merge(pending, sep)...)
		pending = nil
		chunks = append(chunks, c.split(piece, rest)...)
	}
	chunks = append(chunks, c.merge(pending, sep)...)
	return chunks
}

// merge greedily packs pieces into chunks of at most size runes, carrying
// trailing pieces of up to overlap runes into the next chunk.
func (c *Chunker) merge(pieces []string, sep string) []string {
	if len(pieces) == 0 {
		return nil
	}
	sepLen := runeLen(sep)

	var chunks []string
	var current []string
	total := 0

	cost := func(pLen int) int {
		if len(current) > 0 {
			return pLen + sepLen
		}
		return pLen
	}

	for _, piece := range pieces {
		pLen := runeLen(piece)
		if len(current) > 0 && total+cost(pLen) > c.size {
			if chunk := strings.TrimSpace(strings.Join(current, sep)); chunk != "" {
				chunks = append(chunks, chunk)
			}
			// Drop leading pieces until the retained tail fits inside the
			// overlap and leaves room for the incoming piece.
			for len(current) > 0 && (total > c.overlap || total+cost(pLen) > c.size) {
				head := runeLen(current[0])
				total -= head
				if len(current) > 1 {
					total -= sepLen
				}
				current = current[1:]
			}
		}
		total += cost(pLen)
		current = append(current, piece)
	}

	if chunk := strings.TrimSpace(strings.Join(current, sep)); chunk != "" {
		chunks = append(chunks, chunk)
	}
	return chunks
}

func runeLen(s string) int {
	return len([]rune(s))
}
