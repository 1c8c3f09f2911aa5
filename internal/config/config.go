// Package config содержит конфигурацию приложения.
package config

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
)

// Mode определяет режим поиска дубликатов.
type Mode string

const (
	// ModeExact - только точные совпадения (по хэшу файла или пикселей).
	ModeExact Mode = "exact"
	// ModeSimilar - точные совпадения и визуально похожие изображения.
	ModeSimilar Mode = "similar"
)

// SortBy определяет порядок путей перед сравнением.
type SortBy string

const (
	SortByName SortBy = "name"
	SortByDate SortBy = "date"
	SortBySize SortBy = "size"
)

// Config содержит все настройки поиска дубликатов.
type Config struct {
	// InputDir - директория с изображениями.
	InputDir string

	// InputExtensions - список расширений входных файлов (без точки, lowercase).
	InputExtensions []string

	// Mode - режим поиска (exact/similar).
	Mode Mode

	// MaxDistance - порог расстояния, ниже которого изображения считаются похожими.
	MaxDistance float64

	// Preset - профиль порога (strict, normal, loose).
	Preset string

	// Workers - количество параллельных воркеров.
	Workers int

	// DBPath - путь к SQLite базе сводок.
	DBPath string

	// CacheEnabled - использовать сохранённые сводки изображений.
	CacheEnabled bool

	// SortBy - сортировка файлов: name, date, size.
	SortBy SortBy

	// SortDesc - сортировка по убыванию.
	SortDesc bool

	// MaxMemoryMB - ограничение памяти на декодирование в мегабайтах (0 = без ограничения).
	MaxMemoryMB int

	// PreviewDir - директория для PNG-превью найденных пар (пусто = не создавать).
	PreviewDir string

	// PreviewHeight - высота превью в пикселях.
	PreviewHeight int

	// DeleteExact - удалять точные дубликаты, оставляя первый файл группы.
	DeleteExact bool

	// DryRun - только показать, что было бы удалено.
	DryRun bool

	// Watch - режим слежения за директорией.
	Watch bool

	// Verbose - подробный вывод.
	Verbose bool

	// NoProgress - отключить прогресс-бар.
	NoProgress bool
}

// DefaultConfig возвращает конфигурацию по умолчанию.
func DefaultConfig() *Config {
	return &Config{
		InputExtensions: []string{"jpg", "jpeg", "png", "gif", "bmp", "tiff", "tif", "webp"},
		Mode:            ModeSimilar,
		MaxDistance:     Presets[PresetNormal].MaxDistance,
		Workers:         runtime.NumCPU(),
		CacheEnabled:    true,
		SortBy:          SortByName,
		PreviewHeight:   256,
	}
}

// Validate проверяет корректность конфигурации.
func (c *Config) Validate() error {
	if c.InputDir == "" {
		return fmt.Errorf("директория не указана (--in)")
	}
	if len(c.InputExtensions) == 0 {
		return fmt.Errorf("не указаны расширения входных файлов (--in-ext)")
	}
	if c.Mode != ModeExact && c.Mode != ModeSimilar {
		return fmt.Errorf("неизвестный режим: %s (доступны: exact, similar)", c.Mode)
	}
	if c.MaxDistance < 0 {
		return fmt.Errorf("порог расстояния должен быть >= 0, получено: %g", c.MaxDistance)
	}
	if c.Workers < 1 {
		return fmt.Errorf("количество воркеров должно быть >= 1, получено: %d", c.Workers)
	}
	switch c.SortBy {
	case SortByName, SortByDate, SortBySize:
	default:
		return fmt.Errorf("неизвестная сортировка: %s (доступны: name, date, size)", c.SortBy)
	}
	if c.MaxMemoryMB < 0 {
		return fmt.Errorf("ограничение памяти должно быть >= 0, получено: %d", c.MaxMemoryMB)
	}
	if c.PreviewDir != "" && c.PreviewHeight < 16 {
		return fmt.Errorf("высота превью должна быть >= 16, получено: %d", c.PreviewHeight)
	}

	// Устанавливаем путь к БД по умолчанию
	if c.DBPath == "" {
		c.DBPath = filepath.Join(c.InputDir, ".photodupes", "summaries.sqlite")
	}

	return nil
}

// HasInputExtension проверяет, поддерживается ли расширение файла.
func (c *Config) HasInputExtension(ext string) bool {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, e := range c.InputExtensions {
		if strings.ToLower(e) == ext {
			return true
		}
	}
	return false
}

/*
Возможные расширения:
- Добавить поддержку нескольких входных директорий
- Добавить исключения по glob-паттернам
*/
