package feed

import (
	"fmt"
	"math/rand/v2"
	"os"
	"strings"
)

// fallbackLines stand in when the post file cannot be read.
var fallbackLines = []string{
	"Error: Could not load tweets.",
	"Nathan is at a loss for words.",
}

const thinking = "Nathan is thinking..."

// Default image pool: NathanImage1.png through NathanImage37.png, attached to
// one post in twenty.
const (
	DefaultImageCount  = 37
	DefaultImageChance = 0.05
)

// Content is the body of a new post.
type Content struct {
	Text  string
	Image string
}

// Source picks post bodies from a fixed pool of lines and occasionally
// attaches one image out of a numbered pool.
type Source struct {
	lines       []string
	imageCount  int
	imageChance float64
	rng         *rand.Rand
}

// SourceOptions configures the image pool of a Source.
type SourceOptions struct {
	ImageCount  int
	ImageChance float64
	Seed        uint64
}

// NewSource builds a Source over lines. Blank lines are dropped.
func NewSource(lines []string, opts SourceOptions) *Source {
	kept := make([]string, 0, len(lines))
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			kept = append(kept, strings.TrimRight(l, "\r"))
		}
	}
	return &Source{
		lines:       kept,
		imageCount:  opts.ImageCount,
		imageChance: opts.ImageChance,
		rng:         rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15)),
	}
}

// LoadSource reads a newline-delimited post file. When the file cannot be
// read the returned Source serves placeholder lines and the error is
// returned alongside it for logging.
func LoadSource(path string, opts SourceOptions) (*Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return NewSource(fallbackLines, opts), fmt.Errorf("reading post lines: %w", err)
	}
	return NewSource(strings.Split(string(data), "\n"), opts), nil
}

// Len is the number of usable lines.
func (s *Source) Len() int { return len(s.lines) }

// Next picks the body of the next post.
func (s *Source) Next() Content {
	if len(s.lines) == 0 {
		return Content{Text: thinking}
	}
	c := Content{Text: s.lines[s.rng.IntN(len(s.lines))]}
	if s.imageCount > 0 && s.rng.Float64() < s.imageChance {
		c.Image = fmt.Sprintf("images/NathanImage%d.png", s.rng.IntN(s.imageCount)+1)
	}
	return c
}
