package preview

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"

	"github.com/artemshloyda/photodupes/internal/photo"
)

// background - цвет фона между изображениями пары.
var background = color.NRGBA{R: 32, G: 32, B: 32, A: 255}

// gap - отступ между изображениями в пикселях.
const gap = 8

// Sheet рисует пары изображений бок о бок одной высоты.
type Sheet struct {
	height  int
	canvas  *Canvas
	bitmaps *photo.BitmapCache
	mode    photo.Interpolation
}

// NewSheet создаёт Sheet с высотой кадра height.
// bitmaps переиспользуется между кадрами; nil отключает кэширование.
func NewSheet(height int, bitmaps *photo.BitmapCache) *Sheet {
	return &Sheet{
		height:  height,
		canvas:  NewCanvas(1, 1, background),
		bitmaps: bitmaps,
		mode:    photo.InterpolationLinear,
	}
}

// scaledWidth возвращает ширину изображения при высоте кадра.
func (s *Sheet) scaledWidth(img *photo.Image) int {
	size := img.ImageSize()
	if size.Y == 0 {
		return s.height
	}
	return max(1, size.X*s.height/size.Y)
}

// RenderPair рисует пару и возвращает копию кадра.
func (s *Sheet) RenderPair(a, b *photo.Image) (*image.NRGBA, error) {
	wa, wb := s.scaledWidth(a), s.scaledWidth(b)
	s.canvas.Reset(wa+gap+wb, s.height, background)

	left := image.Rect(0, 0, wa, s.height)
	right := image.Rect(wa+gap, 0, wa+gap+wb, s.height)

	if err := a.Draw(s.canvas, s.bitmaps, left, image.Rectangle{Max: a.ImageSize()}, s.mode); err != nil {
		return nil, fmt.Errorf("не удалось нарисовать %s: %w", a.Path(), err)
	}
	if err := b.Draw(s.canvas, s.bitmaps, right, image.Rectangle{Max: b.ImageSize()}, s.mode); err != nil {
		return nil, fmt.Errorf("не удалось нарисовать %s: %w", b.Path(), err)
	}

	return imaging.Clone(s.canvas.Image()), nil
}

// WritePair рисует пару и сохраняет её в PNG по пути path.
func (s *Sheet) WritePair(path string, a, b *photo.Image) error {
	img, err := s.RenderPair(a, b)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("не удалось создать директорию превью: %w", err)
	}
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("не удалось сохранить превью %s: %w", path, err)
	}
	return nil
}
