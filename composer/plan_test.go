package composer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlan_RendersAtCeilingNotBudget(t *testing.T) {
	frags := []Fragment{
		Line(RoleQuote, strings.Repeat("q", 60), Limit{Max: 100, Min: 10}),
		Line(RoleTrivia, strings.Repeat("t", 30), Limit{Max: 20, Min: 10}),
		Tags(RoleHashtags, []string{"#aaaa", "#bbbb", "#cccc"}, NoLimit),
	}
	p := newPlan(40, JoinLines, frags)

	assert.Equal(t, strings.Repeat("q", 60), p.Line(RoleQuote))
	assert.Equal(t, strings.Repeat("t", 17)+Ellipsis, p.Line(RoleTrivia))
	assert.Equal(t, "#aaaa #bbbb #cccc", p.Line(RoleHashtags))
	assert.Equal(t, "", p.Line(RoleCaption))
	assert.False(t, p.Fits())
}

func TestStages(t *testing.T) {
	frags := []Fragment{
		Line(RoleQuote, strings.Repeat("q", 30), Limit{Max: 100, Min: 10}),
		Line(RoleTrivia, strings.Repeat("t", 30), Limit{Max: 100, Min: 10}),
		Tags(RoleHashtags, []string{"#aaaa", "#bbbb", "#cccc"}, NoLimit),
	}

	t.Run("shrink fits the remaining allowance", func(t *testing.T) {
		p := newPlan(70, JoinLines, frags)
		Shrink(RoleTrivia).apply(p)
		// 70 - 30 quote - 17 tags - 2 newlines = 21
		assert.Equal(t, strings.Repeat("t", 18)+Ellipsis, p.Line(RoleTrivia))
		assert.True(t, p.Fits())
	})

	t.Run("shrink drops when nothing is left", func(t *testing.T) {
		p := newPlan(40, JoinLines, frags)
		Shrink(RoleTrivia).apply(p)
		assert.Equal(t, "", p.Line(RoleTrivia))
		assert.Equal(t, strings.Repeat("q", 30), p.Line(RoleQuote))
	})

	t.Run("drop trailing tags stops once it fits", func(t *testing.T) {
		p := newPlan(42, JoinLines, frags)
		Drop(RoleTrivia).apply(p)
		DropTags(RoleHashtags).apply(p)
		assert.Equal(t, "#aaaa #bbbb", p.Line(RoleHashtags))
		assert.True(t, p.Fits())
	})
}

func TestAllocate_NonPositiveBudget(t *testing.T) {
	frags := []Fragment{Fixed(RoleURL, "https://example.com")}

	res := Allocate(0, nil, frags)
	assert.Equal(t, Result{Fits: true}, res)

	res = Allocate(-1, nil, frags)
	assert.Equal(t, "", res.Text)
	assert.False(t, res.Fits)
}

func TestAllocate_StopsAtFirstFittingStage(t *testing.T) {
	frags := []Fragment{
		Line(RoleQuote, strings.Repeat("q", 30), Limit{Max: 100, Min: 10}),
		Line(RoleTrivia, strings.Repeat("t", 30), Limit{Max: 100, Min: 10}),
	}
	res := Allocate(45, JoinLines, frags, Shrink(RoleTrivia), Shrink(RoleQuote))
	require.True(t, res.Fits)
	assert.Equal(t, "shrink trivia", res.Stage)
	assert.Equal(t, strings.Repeat("q", 30)+"\n"+strings.Repeat("t", 11)+Ellipsis, res.Text)
	assert.Equal(t, 45, res.Weight)
}
