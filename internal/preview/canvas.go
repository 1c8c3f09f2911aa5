// Package preview рисует найденные пары дубликатов в PNG-превью.
package preview

import (
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"

	"github.com/artemshloyda/photodupes/internal/photo"
)

// Canvas - растровая цель отрисовки в памяти.
// Один Canvas переиспользуется между кадрами, чтобы кэш представлений оставался валидным.
type Canvas struct {
	img *image.NRGBA
}

// bitmap - подготовленные для Canvas пиксели.
type bitmap struct {
	img *image.NRGBA
}

func (b *bitmap) Size() image.Point {
	return b.img.Bounds().Size()
}

// NewCanvas создаёт холст заданного размера, залитый цветом bg.
func NewCanvas(width, height int, bg color.Color) *Canvas {
	c := &Canvas{}
	c.Reset(width, height, bg)
	return c
}

// Reset заменяет содержимое холста новым кадром.
func (c *Canvas) Reset(width, height int, bg color.Color) {
	c.img = imaging.New(width, height, bg)
}

// Image возвращает текущий кадр.
func (c *Canvas) Image() *image.NRGBA {
	return c.img
}

// CreateBitmap копирует пикселы в формат холста.
func (c *Canvas) CreateBitmap(img image.Image) (photo.Bitmap, error) {
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("пустое изображение")
	}
	return &bitmap{img: imaging.Clone(img)}, nil
}

// DrawBitmap масштабирует область src в область dst.
func (c *Canvas) DrawBitmap(bmp photo.Bitmap, dst, src image.Rectangle, mode photo.Interpolation) error {
	b, ok := bmp.(*bitmap)
	if !ok {
		return fmt.Errorf("представление %T создано не этим холстом", bmp)
	}
	if dst.Empty() {
		return nil
	}

	region := b.img.Bounds().Intersect(src)
	if region.Empty() {
		return fmt.Errorf("область %v вне изображения %v", src, b.img.Bounds())
	}

	scaled := imaging.Resize(imaging.Crop(b.img, region), dst.Dx(), dst.Dy(), filterFor(mode))
	c.img = imaging.Overlay(c.img, scaled, dst.Min, 1.0)
	return nil
}

func filterFor(mode photo.Interpolation) imaging.ResampleFilter {
	if mode == photo.InterpolationNearest {
		return imaging.NearestNeighbor
	}
	return imaging.Linear
}
