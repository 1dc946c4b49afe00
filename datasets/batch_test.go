package datasets

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoonCraterDataset_Batch(t *testing.T) {
	ds := newMemoryDataset(t, Options{})

	inputs, labels, err := ds.Batch([]int{2, 0})
	require.NoError(t, err)
	require.Len(t, inputs, 2)
	require.Len(t, labels, 2)

	require.Len(t, inputs[0], 12)
	assert.InDelta(t, float32(20)/255, inputs[0][0], 1e-6)
	assert.InDelta(t, float32(31)/255, inputs[0][11], 1e-6)

	want := make([]float32, 12)
	want[8] = 1
	assert.Equal(t, want, labels[0])

	_, _, err = ds.Batch([]int{0, 5})
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestMoonCraterDataset_Yield(t *testing.T) {
	ds := newMemoryDataset(t, Options{BatchSize: 2})
	assert.Equal(t, "MoonCraterDataset", ds.Name())

	spec, inputs, labels, err := ds.Yield()
	require.NoError(t, err)
	assert.Same(t, ds, spec)
	require.Len(t, inputs, 1)
	require.Len(t, labels, 1)
	assert.Equal(t, []int{2, 4, 3, 1}, inputs[0].Shape().Dimensions)
	assert.Equal(t, []int{2, 4, 3, 1}, labels[0].Shape().Dimensions)

	_, inputs, _, err = ds.Yield()
	require.NoError(t, err)
	assert.Equal(t, []int{1, 4, 3, 1}, inputs[0].Shape().Dimensions, "last batch is short")

	_, _, _, err = ds.Yield()
	assert.ErrorIs(t, err, io.EOF)
	_, _, _, err = ds.Yield()
	assert.ErrorIs(t, err, io.EOF)

	ds.Reset()
	_, _, _, err = ds.Yield()
	assert.NoError(t, err)
}

func TestMoonCraterDataset_YieldFewerRows(t *testing.T) {
	images, masks := testArrays()
	ds := New(NewMemoryContainer(images[:2], masks[:2], []int64{0, 1}), testCraters(t), Options{BatchSize: 2})
	defer ds.Close()

	_, _, _, err := ds.Yield()
	require.NoError(t, err)
	_, _, _, err = ds.Yield()
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestMoonCraterDataset_Shuffle(t *testing.T) {
	a := newMemoryDataset(t, Options{})
	b := newMemoryDataset(t, Options{})

	a.Shuffle(7)
	b.Shuffle(7)
	assert.Equal(t, a.order, b.order)
	assert.ElementsMatch(t, []int{0, 1, 2}, a.order)

	a.next = 2
	a.Reset()
	assert.Equal(t, 0, a.next)
	assert.Equal(t, b.order, a.order, "Reset keeps the shuffled order")
}

func TestMakeImageBatchFlat(t *testing.T) {
	b, err := MakeImageBatchFlat(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, b.BatchSize)
	_, _, err = b.ToGomlxTensors()
	assert.Error(t, err)

	examples := []FlatExample{
		{Image: []float32{1, 2}, Mask: []float32{0, 1}, Height: 1, Width: 2, Channels: 1},
		{Image: []float32{3, 4}, Mask: []float32{1, 0}, Height: 1, Width: 2, Channels: 1},
	}
	b, err = MakeImageBatchFlat(examples)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3, 4}, b.Images)
	assert.Equal(t, []float32{0, 1, 1, 0}, b.Masks)

	in, la, err := b.ToGomlxTensors()
	require.NoError(t, err)
	assert.Equal(t, []int{2, 1, 2, 1}, in.Shape().Dimensions)
	assert.Equal(t, []int{2, 1, 2, 1}, la.Shape().Dimensions)

	examples[1].Width = 1
	_, err = MakeImageBatchFlat(examples)
	assert.Error(t, err)

	examples[1].Width = 2
	examples[1].Mask = []float32{1}
	_, err = MakeImageBatchFlat(examples)
	assert.Error(t, err)
}
