// Package photo содержит модель изображения для поиска дубликатов:
// сводку пикселей, хэши содержимого, метаданные и расстояние между изображениями.
package photo

import (
	"encoding/binary"
	"image"
	"os"
	"slices"
	"time"

	"github.com/disintegration/imaging"

	"github.com/artemshloyda/photodupes/internal/digest"
)

// Status определяет результат загрузки изображения.
type Status string

const (
	// StatusOK - файл открыт и декодирован.
	StatusOK Status = "ok"
	// StatusOpenFailed - файл не удалось открыть.
	StatusOpenFailed Status = "open_failed"
	// StatusDecodeFailed - файл открыт, но не распознан как изображение.
	StatusDecodeFailed Status = "decode_failed"
)

// Point - точка на плоскости (масштаб, геопозиция).
type Point struct {
	X float64
	Y float64
}

// Image - представление одного файла, достаточное для сравнения.
// После Load изображение не изменяется и может читаться из разных горутин.
type Image struct {
	// path - путь к файлу.
	path string

	// status - результат загрузки.
	status Status

	// decoder - декодер, которым загружено изображение (нужен для отрисовки).
	decoder Decoder

	// fileSize - размер файла в байтах.
	fileSize int64

	// fileTime - время модификации файла.
	fileTime time.Time

	// width, height - размеры декодированного изображения.
	width  int
	height int

	// intensities - средние цвета блоков сетки gridSize×gridSize.
	intensities grid

	// metadata - метаданные EXIF.
	metadata Metadata

	// fileHash - хэш содержимого файла.
	fileHash digest.Digest

	// pixelHash - хэш декодированных пикселей.
	pixelHash digest.Digest
}

// Load открывает и декодирует файл через dec.
// Ошибки не возвращаются: они отражаются в Status.
func Load(path string, dec Decoder) *Image {
	img := &Image{
		path:    path,
		status:  StatusOK,
		decoder: dec,
	}

	// Размер и время доступны даже для файлов, которые не удастся декодировать
	if info, err := os.Stat(path); err == nil {
		img.fileSize = info.Size()
		img.fileTime = info.ModTime()
	}

	src, err := dec.Open(path)
	if err != nil {
		img.status = StatusOpenFailed
		return img
	}

	img.fileHash = digest.Sum(src.Data)

	pixels, err := dec.Decode(src)
	if err != nil {
		img.status = StatusDecodeFailed
		return img
	}

	img.loadPixels(pixels)
	img.metadata = dec.ReadMetadata(src)

	return img
}

// loadPixels вычисляет размеры, хэш пикселей и сетку средних цветов.
func (i *Image) loadPixels(pixels image.Image) {
	nrgba := imaging.Clone(pixels)
	bounds := nrgba.Bounds()
	i.width = bounds.Dx()
	i.height = bounds.Dy()

	h := digest.New()
	var dims [8]byte
	binary.BigEndian.PutUint32(dims[0:4], uint32(i.width))
	binary.BigEndian.PutUint32(dims[4:8], uint32(i.height))
	h.Write(dims[:])
	h.Write(nrgba.Pix)
	i.pixelHash = digest.FromHash(h)

	if i.width == 0 || i.height == 0 {
		return
	}

	// Box-фильтр усредняет пиксели каждого блока
	small := imaging.Resize(nrgba, gridSize, gridSize, imaging.Box)
	for y := 0; y < gridSize; y++ {
		for x := 0; x < gridSize; x++ {
			c := small.NRGBAAt(x, y)
			i.intensities[y][x] = Colour{R: float32(c.R), G: float32(c.G), B: float32(c.B)}
		}
	}
}

// Path возвращает путь к файлу.
func (i *Image) Path() string {
	return i.path
}

// Status возвращает результат загрузки.
func (i *Image) Status() Status {
	return i.status
}

// FileSize возвращает размер файла в байтах.
func (i *Image) FileSize() int64 {
	return i.fileSize
}

// FileTime возвращает время модификации файла.
func (i *Image) FileTime() time.Time {
	return i.fileTime
}

// FileHash возвращает хэш содержимого файла.
// Второе значение false, если файл не был открыт.
func (i *Image) FileHash() (digest.Digest, bool) {
	return i.fileHash, !i.fileHash.IsZero()
}

// PixelHash возвращает хэш декодированных пикселей.
// Второе значение false, если файл не был декодирован.
func (i *Image) PixelHash() (digest.Digest, bool) {
	return i.pixelHash, !i.pixelHash.IsZero()
}

// MetadataTimes возвращает времена съёмки из метаданных.
func (i *Image) MetadataTimes() []time.Time {
	return slices.Clone(i.metadata.Times)
}

// MetadataMakeModel возвращает производителя и модель камеры.
func (i *Image) MetadataMakeModel() string {
	return i.metadata.MakeModel
}

// MetadataCameraID возвращает серийный номер камеры.
func (i *Image) MetadataCameraID() string {
	return i.metadata.CameraID
}

// MetadataImageID возвращает уникальный идентификатор снимка.
func (i *Image) MetadataImageID() string {
	return i.metadata.ImageID
}

// MetadataPosition возвращает геопозицию (X - широта, Y - долгота).
func (i *Image) MetadataPosition() Point {
	return i.metadata.Position
}

// Summary - плоский снимок всех вычисленных полей изображения.
// Используется для сохранения сводок между запусками.
type Summary struct {
	Path      string
	Status    Status
	FileSize  int64
	FileTime  time.Time
	Width     int
	Height    int
	FileHash  digest.Digest
	PixelHash digest.Digest
	Grid      [gridSize][gridSize]Colour
	Metadata  Metadata
}

// Summary возвращает снимок полей изображения.
func (i *Image) Summary() Summary {
	return Summary{
		Path:      i.path,
		Status:    i.status,
		FileSize:  i.fileSize,
		FileTime:  i.fileTime,
		Width:     i.width,
		Height:    i.height,
		FileHash:  i.fileHash,
		PixelHash: i.pixelHash,
		Grid:      i.intensities,
		Metadata: Metadata{
			Times:     slices.Clone(i.metadata.Times),
			MakeModel: i.metadata.MakeModel,
			CameraID:  i.metadata.CameraID,
			ImageID:   i.metadata.ImageID,
			Position:  i.metadata.Position,
		},
	}
}

// Restore восстанавливает изображение из снимка без обращения к файлу.
// dec используется только для отрисовки.
func Restore(s Summary, dec Decoder) *Image {
	return &Image{
		path:        s.Path,
		status:      s.Status,
		decoder:     dec,
		fileSize:    s.FileSize,
		fileTime:    s.FileTime,
		width:       s.Width,
		height:      s.Height,
		intensities: s.Grid,
		metadata:    s.Metadata,
		fileHash:    s.FileHash,
		pixelHash:   s.PixelHash,
	}
}
