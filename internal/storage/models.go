// Package storage содержит модели и логику работы с SQLite базой данных.
package storage

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/artemshloyda/photodupes/internal/digest"
	"github.com/artemshloyda/photodupes/internal/photo"
)

// gridBlobSize - размер сериализованной сетки: 8x8 ячеек по 3 канала float32.
const gridBlobSize = 8 * 8 * 3 * 4

// summaryRow - строка таблицы summaries.
type summaryRow struct {
	// Path - абсолютный путь к файлу.
	Path string `db:"path"`

	// FileSize - размер файла в байтах.
	FileSize int64 `db:"file_size"`

	// FileMtime - время модификации (unix nano).
	FileMtime int64 `db:"file_mtime"`

	// Status - результат загрузки (ok, open_failed, decode_failed).
	Status string `db:"status"`

	// Width, Height - размеры декодированного изображения.
	Width  int `db:"width"`
	Height int `db:"height"`

	// FileSHA256 - хэш байтов файла (nullable).
	FileSHA256 *string `db:"file_sha256"`

	// PixelSHA256 - хэш декодированных пикселей (nullable).
	PixelSHA256 *string `db:"pixel_sha256"`

	// Grid - сетка средних цветов.
	Grid []byte `db:"grid"`

	// Metadata - JSON с метаданными EXIF.
	Metadata *string `db:"metadata"`
}

// Stats содержит статистику базы сводок.
type Stats struct {
	// Total - всего сводок.
	Total int64
	// OK - успешно загруженных изображений.
	OK int64
	// OpenFailed - файлов, которые не удалось открыть.
	OpenFailed int64
	// DecodeFailed - файлов, которые не удалось декодировать.
	DecodeFailed int64
	// UniqueContent - различных хэшей содержимого.
	UniqueContent int64
}

// newSummaryRow сериализует сводку для записи в БД.
func newSummaryRow(s photo.Summary) (*summaryRow, error) {
	row := &summaryRow{
		Path:        s.Path,
		FileSize:    s.FileSize,
		FileMtime:   s.FileTime.UnixNano(),
		Status:      string(s.Status),
		Width:       s.Width,
		Height:      s.Height,
		FileSHA256:  digestColumn(s.FileHash),
		PixelSHA256: digestColumn(s.PixelHash),
		Grid:        encodeGrid(s.Grid),
	}

	meta, err := json.Marshal(s.Metadata)
	if err != nil {
		return nil, fmt.Errorf("не удалось сериализовать метаданные: %w", err)
	}
	metaStr := string(meta)
	row.Metadata = &metaStr

	return row, nil
}

// summary восстанавливает сводку из строки БД.
func (r *summaryRow) summary() (photo.Summary, error) {
	s := photo.Summary{
		Path:     r.Path,
		Status:   photo.Status(r.Status),
		FileSize: r.FileSize,
		FileTime: time.Unix(0, r.FileMtime),
		Width:    r.Width,
		Height:   r.Height,
	}

	var err error
	if s.FileHash, err = parseDigestColumn(r.FileSHA256); err != nil {
		return s, fmt.Errorf("file_sha256: %w", err)
	}
	if s.PixelHash, err = parseDigestColumn(r.PixelSHA256); err != nil {
		return s, fmt.Errorf("pixel_sha256: %w", err)
	}
	if s.Grid, err = decodeGrid(r.Grid); err != nil {
		return s, err
	}
	if r.Metadata != nil {
		if err := json.Unmarshal([]byte(*r.Metadata), &s.Metadata); err != nil {
			return s, fmt.Errorf("metadata: %w", err)
		}
	}
	return s, nil
}

func digestColumn(d digest.Digest) *string {
	if d.IsZero() {
		return nil
	}
	s := d.String()
	return &s
}

func parseDigestColumn(s *string) (digest.Digest, error) {
	if s == nil {
		return digest.Digest{}, nil
	}
	return digest.Parse(*s)
}

// encodeGrid сериализует сетку построчно: R, G, B каждой ячейки в little endian.
func encodeGrid(g [8][8]photo.Colour) []byte {
	buf := make([]byte, 0, gridBlobSize)
	for y := range g {
		for x := range g[y] {
			c := g[y][x]
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(c.R))
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(c.G))
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(c.B))
		}
	}
	return buf
}

func decodeGrid(b []byte) ([8][8]photo.Colour, error) {
	var g [8][8]photo.Colour
	if len(b) == 0 {
		return g, nil
	}
	if len(b) != gridBlobSize {
		return g, fmt.Errorf("некорректный размер сетки: %d байт", len(b))
	}
	next := func() float32 {
		v := math.Float32frombits(binary.LittleEndian.Uint32(b))
		b = b[4:]
		return v
	}
	for y := range g {
		for x := range g[y] {
			g[y][x] = photo.Colour{R: next(), G: next(), B: next()}
		}
	}
	return g, nil
}
