package poll

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerations_BeginIsMonotonic(t *testing.T) {
	var g Generations
	require.Equal(t, uint64(1), g.Begin())
	require.Equal(t, uint64(2), g.Begin())
	require.Equal(t, uint64(3), g.Begin())
}

func TestGenerations_CancelAllPending(t *testing.T) {
	var g Generations
	a := g.Begin()
	b := g.Begin()

	g.CancelAllPending()
	c := g.Begin()

	assert.True(t, g.IsCanceled(a))
	assert.True(t, g.IsCanceled(b))
	assert.False(t, g.IsCanceled(c))
	assert.False(t, g.Commit(a))
	assert.False(t, g.Commit(b))
	assert.True(t, g.Commit(c))
}

func TestGenerations_CommitRejectsOlderIssuance(t *testing.T) {
	var g Generations
	older := g.Begin()
	newer := g.Begin()

	require.True(t, g.Commit(newer))
	require.False(t, g.Commit(older), "older generation resolved late")
	require.False(t, g.Commit(newer), "same generation committed twice")
}

func TestGenerations_CommitInIssuanceOrder(t *testing.T) {
	var g Generations
	first := g.Begin()
	second := g.Begin()

	require.True(t, g.Commit(first))
	require.True(t, g.Commit(second))
}

func TestGenerations_CommitUnknownID(t *testing.T) {
	var g Generations
	require.False(t, g.Commit(7))
}

func TestGenerations_CancelOnFreshRegistry(t *testing.T) {
	var g Generations
	g.CancelAllPending()
	g.CancelAllPending()
	id := g.Begin()
	require.False(t, g.IsCanceled(id))
	require.True(t, g.Commit(id))
}

func TestGenerations_PageIgnoresPollOrder(t *testing.T) {
	var g Generations
	page := g.Begin()
	poll := g.Begin()

	require.True(t, g.Commit(poll))
	require.True(t, g.Superseded(page), "as a poll, page is older than the committed poll")
	require.True(t, g.CommitPage(page))

	older := g.Begin()
	newer := g.Begin()
	require.True(t, g.CommitPage(newer))
	require.True(t, g.Commit(older), "a committed page must not advance poll ordering")
}

func TestGenerations_PageCanceled(t *testing.T) {
	var g Generations
	page := g.Begin()
	g.CancelAllPending()

	require.False(t, g.CommitPage(page))
	require.False(t, g.CommitPage(99), "never issued")
}

func TestGenerations_Superseded(t *testing.T) {
	var g Generations
	a := g.Begin()
	b := g.Begin()
	require.False(t, g.Superseded(a))
	require.False(t, g.Superseded(b))

	require.True(t, g.Commit(b))
	assert.True(t, g.Superseded(a))
	assert.True(t, g.Superseded(b))

	c := g.Begin()
	g.CancelAllPending()
	assert.True(t, g.Superseded(c))
}
