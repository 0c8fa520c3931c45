package mesh

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportRendersSVG(t *testing.T) {
	results := []*ComparisonResult{
		testResult("scan-vs-cad"),
		{Pair: "quick", Method: "approx", Distance: 0.8, Samples: 500, Elapsed: 0.1},
	}
	r := NewReportRenderer(results)
	r.Distances["quick"] = []float64{0.1, 0.2, 0.3, 0.8, 0.5, 0.05}

	var buf bytes.Buffer
	require.NoError(t, r.RenderToSVG(&buf))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "<svg"), "output should start with an svg tag")
	assert.Contains(t, out, "</svg>")
	assert.Greater(t, buf.Len(), 200)
}

func TestReportWithoutSampleDistances(t *testing.T) {
	r := NewReportRenderer([]*ComparisonResult{testResult("p")})

	var buf bytes.Buffer
	require.NoError(t, r.RenderToSVG(&buf))
	assert.Contains(t, buf.String(), "</svg>")
}

func TestReportNoResults(t *testing.T) {
	r := NewReportRenderer(nil)
	var buf bytes.Buffer
	assert.Error(t, r.RenderToSVG(&buf))
}

func TestReportZeroDistances(t *testing.T) {
	// Coincident meshes: all distances zero, must not divide by zero
	r := NewReportRenderer([]*ComparisonResult{
		{Pair: "same", Method: "approx", Distance: 0},
	})
	r.Distances["same"] = []float64{0, 0, 0}

	var buf bytes.Buffer
	require.NoError(t, r.RenderToSVG(&buf))
}
