// Package scanner отвечает за сканирование директорий с изображениями.
package scanner

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/artemshloyda/photodupes/internal/config"
)

// File представляет найденное изображение.
type File struct {
	// Path - абсолютный путь к файлу.
	Path string

	// RelPath - относительный путь от входной директории.
	RelPath string

	// Size - размер файла в байтах.
	Size int64

	// ModTime - время модификации.
	ModTime time.Time
}

// Scanner сканирует директории с изображениями.
type Scanner struct {
	cfg *config.Config

	// Warnings - куда писать предупреждения о нечитаемых файлах.
	Warnings io.Writer
}

// New создаёт новый Scanner.
func New(cfg *config.Config) *Scanner {
	return &Scanner{cfg: cfg, Warnings: os.Stderr}
}

// skipDir возвращает true для скрытых директорий (включая .photodupes с базой).
// Корень сканирования не пропускается, даже если это ".".
func (s *Scanner) skipDir(path string, d os.DirEntry) bool {
	if path == s.cfg.InputDir {
		return false
	}
	return strings.HasPrefix(d.Name(), ".")
}

// Accept проверяет, подходит ли файл для сравнения по имени.
func (s *Scanner) Accept(path string) bool {
	baseName := filepath.Base(path)
	// Пропускаем macOS metadata файлы (начинаются с ._*)
	if strings.HasPrefix(baseName, "._") {
		return false
	}
	return s.cfg.HasInputExtension(filepath.Ext(path))
}

// Scan запускает сканирование и отправляет найденные файлы в канал.
// Канал закрывается после завершения сканирования.
func (s *Scanner) Scan(ctx context.Context) (<-chan File, <-chan error) {
	files := make(chan File, 100) // Буферизированный канал
	errs := make(chan error, 1)

	go func() {
		defer close(files)
		defer close(errs)

		err := s.walk(ctx, func(file File) error {
			select {
			case files <- file:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		if err != nil {
			errs <- err
		}
	}()

	return files, errs
}

// walk обходит входную директорию и вызывает emit для каждого подходящего файла.
func (s *Scanner) walk(ctx context.Context, emit func(File) error) error {
	return filepath.WalkDir(s.cfg.InputDir, func(path string, d os.DirEntry, err error) error {
		// Проверяем контекст
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if err != nil {
			// Логируем ошибку, но продолжаем
			fmt.Fprintf(s.Warnings, "Предупреждение: не удалось прочитать %s: %v\n", path, err)
			return nil
		}

		if d.IsDir() {
			if s.skipDir(path, d) {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() || !s.Accept(path) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			fmt.Fprintf(s.Warnings, "Предупреждение: не удалось получить info %s: %v\n", path, err)
			return nil
		}

		relPath, _ := filepath.Rel(s.cfg.InputDir, path)
		absPath, err := filepath.Abs(path)
		if err != nil {
			absPath = path
		}

		return emit(File{
			Path:    absPath,
			RelPath: relPath,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	})
}

// Collect возвращает все найденные файлы в порядке сравнения,
// заданном SortBy и SortDesc. Равные ключи упорядочиваются по пути.
func (s *Scanner) Collect(ctx context.Context) ([]File, error) {
	var files []File
	err := s.walk(ctx, func(f File) error {
		files = append(files, f)
		return nil
	})
	if err != nil {
		return nil, err
	}

	SortFiles(files, s.cfg.SortBy, s.cfg.SortDesc)
	return files, nil
}

// SortFiles сортирует файлы по ключу.
func SortFiles(files []File, by config.SortBy, desc bool) {
	key := func(a, b File) int {
		switch by {
		case config.SortByDate:
			return a.ModTime.Compare(b.ModTime)
		case config.SortBySize:
			return cmp.Compare(a.Size, b.Size)
		}
		return 0
	}

	slices.SortStableFunc(files, func(a, b File) int {
		c := key(a, b)
		if c == 0 {
			c = strings.Compare(a.Path, b.Path)
		}
		if desc {
			return -c
		}
		return c
	})
}

// Paths возвращает пути файлов в том же порядке.
func Paths(files []File) []string {
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}
	return paths
}

// CountFiles возвращает количество файлов для сравнения.
func (s *Scanner) CountFiles() (int64, error) {
	var count int64
	err := s.walk(context.Background(), func(File) error {
		count++
		return nil
	})
	return count, err
}

/*
Возможные расширения:
- Добавить поддержку exclude-паттернов
- Добавить поддержку symlinks
*/
