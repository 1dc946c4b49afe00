package datasets

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/pkg/errors"
)

// ArrayToImage converts a uint8 array into an image the way PIL's fromarray
// does for 8-bit data: [H,W] and [H,W,1] give *image.Gray, [H,W,3] gives
// *image.RGBA with opaque alpha and [H,W,4] gives *image.NRGBA.
func ArrayToImage(a Array) (image.Image, error) {
	if len(a.Data) != a.Size() {
		return nil, errors.Errorf("array has %d values but shape %v needs %d", len(a.Data), a.Shape, a.Size())
	}
	channels := 1
	switch {
	case len(a.Shape) == 2:
	case len(a.Shape) == 3:
		channels = a.Shape[2]
	default:
		return nil, errors.Errorf("cannot convert array of shape %v to an image", a.Shape)
	}
	height, width := a.Shape[0], a.Shape[1]
	rect := image.Rect(0, 0, width, height)

	switch channels {
	case 1:
		img := image.NewGray(rect)
		copy(img.Pix, a.Data)
		return img, nil
	case 3:
		img := image.NewRGBA(rect)
		for p := 0; p < width*height; p++ {
			copy(img.Pix[4*p:4*p+3], a.Data[3*p:3*p+3])
			img.Pix[4*p+3] = 0xff
		}
		return img, nil
	case 4:
		img := image.NewNRGBA(rect)
		copy(img.Pix, a.Data)
		return img, nil
	}
	return nil, errors.Errorf("cannot convert array with %d channels to an image", channels)
}

// imageChannels is the number of channels used when an image is flattened:
// 1 for grayscale images and 3 for everything else.
func imageChannels(img image.Image) int {
	switch img.(type) {
	case *image.Gray, *image.Gray16:
		return 1
	}
	if img.ColorModel() == color.GrayModel || img.ColorModel() == color.Gray16Model {
		return 1
	}
	return 3
}

// imageToFloats flattens img row-major into [H*W*C] values in [0,1].
func imageToFloats(img image.Image) (values []float32, height, width, channels int) {
	b := img.Bounds()
	height, width = b.Dy(), b.Dx()
	channels = imageChannels(img)
	values = make([]float32, 0, height*width*channels)

	if channels == 1 {
		gray, ok := img.(*image.Gray)
		if !ok {
			gray = image.NewGray(image.Rect(0, 0, width, height))
			draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)
		}
		for y := 0; y < height; y++ {
			row := gray.Pix[y*gray.Stride : y*gray.Stride+width]
			for _, v := range row {
				values = append(values, float32(v)/255)
			}
		}
		return
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			values = append(values, float32(c.R)/255, float32(c.G)/255, float32(c.B)/255)
		}
	}
	return
}

// maskToFloats flattens mask into [H*W] values where any non-zero pixel is 1.
func maskToFloats(mask image.Image) (values []float32, height, width int) {
	b := mask.Bounds()
	height, width = b.Dy(), b.Dx()
	values = make([]float32, 0, height*width)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := mask.At(x, y).RGBA()
			if r|g|bl != 0 {
				values = append(values, 1)
			} else {
				values = append(values, 0)
			}
		}
	}
	return
}
