package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := NewRegistry()

	require.NoError(t, r.Register(NewStaticAdapter(IDWeb, nil)))
	require.NoError(t, r.Register(NewStaticAdapter(IDNews, nil)))

	a, ok := r.Get(IDWeb)
	require.True(t, ok)
	assert.Equal(t, IDWeb, a.ID())

	_, ok = r.Get(ID("missing"))
	assert.False(t, ok)
	assert.Equal(t, 2, r.Len())
}

func TestRegistry_RejectsDuplicates(t *testing.T) {
	r := NewRegistry()

	require.NoError(t, r.Register(NewStaticAdapter(IDWeb, nil)))
	assert.Error(t, r.Register(NewStaticAdapter(IDWeb, nil)))
}

func TestRegistry_RejectsNilAndEmptyID(t *testing.T) {
	r := NewRegistry()

	assert.Error(t, r.Register(nil))
	assert.Error(t, r.Register(NewStaticAdapter(ID(""), nil)))
	assert.Error(t, r.Register(NewStaticAdapter(ID("  "), nil)))
}

func TestRegistry_IDsSorted(t *testing.T) {
	r := NewRegistry()

	require.NoError(t, r.Register(NewStaticAdapter(IDWeb, nil)))
	require.NoError(t, r.Register(NewStaticAdapter(IDAnswer, nil)))
	require.NoError(t, r.Register(NewStaticAdapter(IDNews, nil)))

	assert.Equal(t, []ID{IDAnswer, IDNews, IDWeb}, r.IDs())
}

func TestStaticAdapter_NormalizesResults(t *testing.T) {
	a := NewStaticAdapter(IDNews, []Result{
		{Title: "First", URL: "https://example.com/1"},
		{Title: "Second", URL: "https://example.com/2"},
	})

	results, err := a.Search(context.Background(), "anything", 0)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, IDNews, results[0].Source)
	assert.Equal(t, 1, results[0].RawRank)
	assert.Equal(t, 2, results[1].RawRank)
}

func TestStaticAdapter_HonorsLimit(t *testing.T) {
	a := NewStaticAdapter(IDWeb, []Result{
		{URL: "https://example.com/1"},
		{URL: "https://example.com/2"},
		{URL: "https://example.com/3"},
	})

	results, err := a.Search(context.Background(), "q", 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestStaticAdapter_ContextCancellationDuringDelay(t *testing.T) {
	a := NewStaticAdapter(IDWeb,
		[]Result{{URL: "https://example.com/1"}},
		WithDelay(time.Second))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := a.Search(ctx, "q", 5)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestStaticAdapter_ConfiguredError(t *testing.T) {
	boom := errors.New("backend down")
	a := NewStaticAdapter(IDWeb, nil, WithError(boom))

	_, err := a.Search(context.Background(), "q", 5)
	assert.ErrorIs(t, err, boom)
}
