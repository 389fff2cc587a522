package selector

import (
	"strings"

	"github.com/vieagent/vieagent/pkg/types"
)

// ComplexityEstimator maps a request to a [0,1] complexity estimate. The
// default is a keyword/length heuristic: approximate by construction and only
// meaningful relative to other requests, never as an absolute measure.
type ComplexityEstimator func(sc types.SelectionContext) float64

var structureMarkers = []string{"```", "SELECT ", "func ", "class ", "def ", "{", "</"}

func DefaultComplexityEstimator(sc types.SelectionContext) float64 {
	var score float64

	// message length, saturating at 2000 chars
	length := float64(len(sc.Message)) / 2000
	if length > 1 {
		length = 1
	}
	score += length * 0.5

	for _, marker := range structureMarkers {
		if strings.Contains(sc.Message, marker) {
			score += 0.3
			break
		}
	}

	depth := float64(len(sc.History)) / 10
	if depth > 1 {
		depth = 1
	}
	score += depth * 0.2

	if score > 1 {
		score = 1
	}
	return score
}
