package photo

import (
	"fmt"
	"image"

	"github.com/artemshloyda/photodupes/internal/cache"
)

// Interpolation определяет способ масштабирования при отрисовке.
type Interpolation int

const (
	// InterpolationNearest - ближайший сосед.
	InterpolationNearest Interpolation = iota
	// InterpolationLinear - билинейная интерполяция.
	InterpolationLinear
)

// Bitmap - представление изображения, подготовленное целью отрисовки.
type Bitmap interface {
	// Size возвращает размер в пикселях.
	Size() image.Point
}

// RenderTarget - поверхность, на которую рисуются изображения.
// Реализации должны быть сравнимы (обычно указатель).
type RenderTarget interface {
	// CreateBitmap готовит представление пикселей для этой цели.
	CreateBitmap(img image.Image) (Bitmap, error)

	// DrawBitmap рисует область src представления в область dst.
	DrawBitmap(bmp Bitmap, dst, src image.Rectangle, mode Interpolation) error
}

// BitmapCache хранит представления изображений для каждой цели отрисовки.
type BitmapCache = cache.Registry[RenderTarget, Image, Bitmap]

// NewBitmapCache создаёт пустой BitmapCache.
func NewBitmapCache() *BitmapCache {
	return cache.New[RenderTarget, Image, Bitmap]()
}

// ImageSize возвращает размер изображения в пикселях.
func (i *Image) ImageSize() image.Point {
	return image.Pt(i.width, i.height)
}

// BitmapSize возвращает размер изображения в единицах цели отрисовки
// для масштаба scale (отношение DPI цели к 96).
func (i *Image) BitmapSize(scale Point) Point {
	if scale.X <= 0 || scale.Y <= 0 {
		return Point{}
	}
	return Point{X: float64(i.width) / scale.X, Y: float64(i.height) / scale.Y}
}

// Draw рисует область src изображения в область dst цели target.
// Представление берётся из bitmaps; при промахе файл декодируется заново.
// bitmaps может быть nil, тогда представление не кэшируется.
func (i *Image) Draw(target RenderTarget, bitmaps *BitmapCache, dst, src image.Rectangle, mode Interpolation) error {
	if i.status != StatusOK {
		return fmt.Errorf("изображение %s не загружено (%s)", i.path, i.status)
	}

	create := func() (Bitmap, error) {
		return i.createBitmap(target)
	}

	var (
		bmp Bitmap
		err error
	)
	if bitmaps != nil {
		bmp, err = bitmaps.GetOrCreate(target, i, create)
	} else {
		bmp, err = create()
	}
	if err != nil {
		return err
	}

	return target.DrawBitmap(bmp, dst, src, mode)
}

// createBitmap повторно декодирует файл и передаёт пиксели цели.
func (i *Image) createBitmap(target RenderTarget) (Bitmap, error) {
	if i.decoder == nil {
		return nil, fmt.Errorf("нет декодера для %s", i.path)
	}

	src, err := i.decoder.Open(i.path)
	if err != nil {
		return nil, err
	}

	pixels, err := i.decoder.Decode(src)
	if err != nil {
		return nil, err
	}

	bmp, err := target.CreateBitmap(pixels)
	if err != nil {
		return nil, fmt.Errorf("не удалось подготовить %s к отрисовке: %w", i.path, err)
	}
	return bmp, nil
}
