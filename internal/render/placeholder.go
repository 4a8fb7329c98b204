package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	placeholderWidth  = 320
	placeholderHeight = 200
)

var (
	placeholderFill = color.RGBA{R: 40, G: 40, B: 40, A: 255}
	placeholderInk  = color.RGBA{R: 255, G: 200, B: 0, A: 255}
)

// placeholderTile produces the fixed-size stand-in raster for a failed page
// render, with a short diagnostic naming the page (1-based).
func placeholderTile(page int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, placeholderWidth, placeholderHeight))
	draw.Draw(img, img.Bounds(), image.NewUniform(placeholderFill), image.Point{}, draw.Src)

	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(placeholderInk),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(10, placeholderHeight/2),
	}
	d.DrawString(fmt.Sprintf("Render failed p%d", page+1))

	return img
}
