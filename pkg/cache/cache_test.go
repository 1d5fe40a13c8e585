package cache

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ormasoftchile/meshcheck/pkg/report"
	"github.com/ormasoftchile/meshcheck/pkg/solution"
	"github.com/ormasoftchile/meshcheck/pkg/validate"
)

func TestPutGet(t *testing.T) {
	c, err := New(1, time.Minute)
	require.NoError(t, err)
	defer c.Close()

	_, ok := c.Get("k")
	assert.False(t, ok)

	r := &report.Report{ID: "r1", SolutionID: "shop", Summary: report.Summary{Score: 85}}
	require.NoError(t, c.Put("k", r))

	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "r1", got.ID)
	assert.Equal(t, 85, got.Summary.Score)

	c.Delete("k")
	_, ok = c.Get("k")
	assert.False(t, ok)
}

func TestPut_RejectsOversizedReport(t *testing.T) {
	c, err := New(1, time.Minute)
	require.NoError(t, err)
	defer c.Close()

	big := &report.Report{ID: "big", Level1Technical: []validate.Issue{{
		Check:   validate.CheckSchemaValid,
		Message: strings.Repeat("x", 2<<20),
	}}}
	assert.ErrorIs(t, c.Put("big", big), ErrRejected)
	_, ok := c.Get("big")
	assert.False(t, ok)

	require.NoError(t, c.Put("small", &report.Report{ID: "small"}))
}

func TestNew_RejectsZeroSize(t *testing.T) {
	_, err := New(0, 0)
	assert.Error(t, err)
}

func TestDigest(t *testing.T) {
	a := &solution.Solution{ID: "shop", Skills: []solution.TopologySkill{{ID: "a"}}}
	b := &solution.Solution{ID: "shop", Skills: []solution.TopologySkill{{ID: "b"}}}

	d1, err := Digest(a, []string{"x"})
	require.NoError(t, err)
	d2, err := Digest(a, []string{"x"})
	require.NoError(t, err)
	d3, err := Digest(b, []string{"x"})
	require.NoError(t, err)

	assert.Len(t, d1, 64)
	assert.Equal(t, d1, d2)
	assert.NotEqual(t, d1, d3)

	_, err = Digest(func() {})
	assert.Error(t, err)
}
