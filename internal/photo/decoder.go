package photo

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"

	// Дополнительные форматы для image.Decode
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// exifTimeLayout - формат даты в тегах EXIF.
const exifTimeLayout = "2006:01:02 15:04:05"

// Source - открытый файл изображения.
type Source struct {
	// Path - путь к файлу.
	Path string

	// Data - содержимое файла.
	Data []byte
}

// Metadata содержит метаданные снимка. Все поля необязательны.
type Metadata struct {
	// Times - времена съёмки, оцифровки и изменения.
	Times []time.Time

	// MakeModel - производитель и модель камеры.
	MakeModel string

	// CameraID - серийный номер камеры.
	CameraID string

	// ImageID - уникальный идентификатор снимка.
	ImageID string

	// Position - геопозиция (X - широта, Y - долгота).
	Position Point
}

// Decoder открывает и декодирует файлы изображений.
type Decoder interface {
	// Open читает файл.
	Open(path string) (*Source, error)

	// Decode декодирует пиксели.
	Decode(src *Source) (image.Image, error)

	// ReadMetadata читает метаданные. Отсутствующие поля остаются пустыми.
	ReadMetadata(src *Source) Metadata
}

// FileDecoder декодирует файлы с диска через imaging и goexif.
type FileDecoder struct{}

// Open читает файл целиком.
func (FileDecoder) Open(path string) (*Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть файл %s: %w", path, err)
	}
	return &Source{Path: path, Data: data}, nil
}

// Decode декодирует изображение без учёта EXIF-ориентации:
// расстояние между изображениями от ориентации не зависит.
func (FileDecoder) Decode(src *Source) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(src.Data))
	if err != nil {
		return nil, fmt.Errorf("не удалось декодировать %s: %w", src.Path, err)
	}
	return img, nil
}

// ReadMetadata читает EXIF. При ошибке возвращает пустые метаданные.
func (FileDecoder) ReadMetadata(src *Source) Metadata {
	x, err := exif.Decode(bytes.NewReader(src.Data))
	if err != nil {
		return Metadata{}
	}

	var md Metadata

	for _, name := range []exif.FieldName{exif.DateTimeOriginal, exif.DateTimeDigitized, exif.DateTime} {
		s := exifString(x, name)
		if s == "" {
			continue
		}
		if t, err := time.ParseInLocation(exifTimeLayout, s, time.Local); err == nil {
			md.Times = append(md.Times, t)
		}
	}

	md.MakeModel = strings.TrimSpace(exifString(x, exif.Make) + " " + exifString(x, exif.Model))
	md.CameraID = exifString(x, exif.FieldName("BodySerialNumber"))
	md.ImageID = exifString(x, exif.ImageUniqueID)

	if lat, long, err := x.LatLong(); err == nil {
		md.Position = Point{X: lat, Y: long}
	}

	return md
}

// exifString возвращает строковое значение тега или пустую строку.
func exifString(x *exif.Exif, name exif.FieldName) string {
	tag, err := x.Get(name)
	if err != nil || tag.Format() != tiff.StringVal {
		return ""
	}
	s, err := tag.StringVal()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(strings.TrimRight(s, "\x00"))
}
