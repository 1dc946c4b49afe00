package datasets

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArrayToImage(t *testing.T) {
	t.Run("gray", func(t *testing.T) {
		img, err := ArrayToImage(grayArray(2, 3, 0))
		require.NoError(t, err)
		gray := img.(*image.Gray)
		assert.Equal(t, image.Rect(0, 0, 3, 2), gray.Bounds())
		assert.Equal(t, uint8(4), gray.GrayAt(1, 1).Y)
	})

	t.Run("single channel", func(t *testing.T) {
		img, err := ArrayToImage(Array{Data: []uint8{1, 2}, Shape: []int{1, 2, 1}})
		require.NoError(t, err)
		assert.IsType(t, &image.Gray{}, img)
	})

	t.Run("rgb", func(t *testing.T) {
		img, err := ArrayToImage(Array{Data: []uint8{1, 2, 3, 4, 5, 6}, Shape: []int{1, 2, 3}})
		require.NoError(t, err)
		rgba := img.(*image.RGBA)
		assert.Equal(t, color.RGBA{R: 4, G: 5, B: 6, A: 255}, rgba.RGBAAt(1, 0))
	})

	t.Run("rgba", func(t *testing.T) {
		img, err := ArrayToImage(Array{Data: []uint8{1, 2, 3, 4}, Shape: []int{1, 1, 4}})
		require.NoError(t, err)
		assert.Equal(t, color.NRGBA{R: 1, G: 2, B: 3, A: 4}, img.(*image.NRGBA).NRGBAAt(0, 0))
	})

	for name, a := range map[string]Array{
		"1d":         {Data: []uint8{1, 2}, Shape: []int{2}},
		"2 channels": {Data: []uint8{1, 2}, Shape: []int{1, 1, 2}},
		"short data": {Data: []uint8{1}, Shape: []int{2, 2}},
		"4d":         {Data: []uint8{1}, Shape: []int{1, 1, 1, 1}},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ArrayToImage(a)
			assert.Error(t, err)
		})
	}
}

func TestImageToFloats(t *testing.T) {
	gray, err := ArrayToImage(Array{Data: []uint8{0, 51, 255, 102}, Shape: []int{2, 2}})
	require.NoError(t, err)
	values, h, w, c := imageToFloats(gray)
	assert.Equal(t, []int{2, 2, 1}, []int{h, w, c})
	assert.InDeltaSlice(t, []float32{0, 0.2, 1, 0.4}, values, 1e-6)

	rgb, err := ArrayToImage(Array{Data: []uint8{255, 0, 51}, Shape: []int{1, 1, 3}})
	require.NoError(t, err)
	values, h, w, c = imageToFloats(rgb)
	assert.Equal(t, []int{1, 1, 3}, []int{h, w, c})
	assert.InDeltaSlice(t, []float32{1, 0, 0.2}, values, 1e-6)

	// A cropped sub-image keeps its own origin.
	sub := gray.(*image.Gray).SubImage(image.Rect(1, 1, 2, 2))
	values, h, w, _ = imageToFloats(sub)
	assert.Equal(t, 1, h)
	assert.Equal(t, 1, w)
	assert.InDeltaSlice(t, []float32{0.4}, values, 1e-6)
}

func TestMaskToFloats(t *testing.T) {
	mask, err := ArrayToImage(Array{Data: []uint8{0, 1, 200, 0}, Shape: []int{2, 2}})
	require.NoError(t, err)
	values, h, w := maskToFloats(mask)
	assert.Equal(t, 2, h)
	assert.Equal(t, 2, w)
	assert.Equal(t, []float32{0, 1, 1, 0}, values)
}
