// Package config содержит конфигурацию приложения.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// FileConfig представляет структуру конфигурационного файла YAML или TOML.
// Все поля опциональны - если не указаны, используются значения по умолчанию.
type FileConfig struct {
	// Input - настройки входных данных.
	Input *InputConfig `yaml:"input,omitempty" toml:"input,omitempty"`

	// Matching - настройки сравнения.
	Matching *MatchingConfig `yaml:"matching,omitempty" toml:"matching,omitempty"`

	// Output - настройки вывода результатов.
	Output *OutputConfig `yaml:"output,omitempty" toml:"output,omitempty"`

	// Paths - настройки путей.
	Paths *PathsConfig `yaml:"paths,omitempty" toml:"paths,omitempty"`
}

// InputConfig содержит настройки входных данных.
type InputConfig struct {
	// Dir - директория с изображениями.
	Dir string `yaml:"dir,omitempty" toml:"dir,omitempty"`

	// Extensions - список расширений входных файлов.
	Extensions []string `yaml:"extensions,omitempty" toml:"extensions,omitempty"`

	// Sort - сортировка файлов (name, date, size).
	Sort string `yaml:"sort,omitempty" toml:"sort,omitempty"`

	// SortDesc - сортировка по убыванию.
	SortDesc bool `yaml:"sort_desc,omitempty" toml:"sort_desc,omitempty"`
}

// MatchingConfig содержит настройки сравнения.
type MatchingConfig struct {
	// Mode - режим поиска (exact/similar).
	Mode string `yaml:"mode,omitempty" toml:"mode,omitempty"`

	// Preset - профиль порога (strict, normal, loose).
	Preset string `yaml:"preset,omitempty" toml:"preset,omitempty"`

	// MaxDistance - порог расстояния (перекрывает пресет).
	MaxDistance float64 `yaml:"max_distance,omitempty" toml:"max_distance,omitempty"`

	// Workers - количество параллельных воркеров.
	Workers int `yaml:"workers,omitempty" toml:"workers,omitempty"`

	// MaxMemoryMB - ограничение памяти на декодирование.
	MaxMemoryMB int `yaml:"max_memory_mb,omitempty" toml:"max_memory_mb,omitempty"`
}

// OutputConfig содержит настройки вывода.
type OutputConfig struct {
	// PreviewDir - директория для PNG-превью.
	PreviewDir string `yaml:"preview_dir,omitempty" toml:"preview_dir,omitempty"`

	// PreviewHeight - высота превью.
	PreviewHeight int `yaml:"preview_height,omitempty" toml:"preview_height,omitempty"`

	// DeleteExact - удалять точные дубликаты.
	DeleteExact bool `yaml:"delete_exact,omitempty" toml:"delete_exact,omitempty"`

	// DryRun - режим симуляции.
	DryRun bool `yaml:"dry_run,omitempty" toml:"dry_run,omitempty"`

	// Verbose - подробный вывод.
	Verbose bool `yaml:"verbose,omitempty" toml:"verbose,omitempty"`

	// NoProgress - отключить прогресс-бар.
	NoProgress bool `yaml:"no_progress,omitempty" toml:"no_progress,omitempty"`
}

// PathsConfig содержит настройки путей.
type PathsConfig struct {
	// DB - путь к SQLite базе сводок.
	DB string `yaml:"db,omitempty" toml:"db,omitempty"`

	// Cache - использовать сохранённые сводки.
	Cache *bool `yaml:"cache,omitempty" toml:"cache,omitempty"`
}

// isTOML возвращает true для файлов с расширением .toml.
func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// DefaultConfigPaths возвращает список путей для поиска конфигурационного файла.
// Поиск выполняется в следующем порядке:
// 1. ./photodupes.yaml, ./photodupes.yml, ./photodupes.toml (текущая директория)
// 2. ~/.config/photodupes/config.yaml, config.yml, config.toml
func DefaultConfigPaths() []string {
	paths := []string{
		"photodupes.yaml",
		"photodupes.yml",
		"photodupes.toml",
	}

	// Добавляем путь в домашней директории
	if home, err := os.UserHomeDir(); err == nil {
		dir := filepath.Join(home, ".config", "photodupes")
		paths = append(paths,
			filepath.Join(dir, "config.yaml"),
			filepath.Join(dir, "config.yml"),
			filepath.Join(dir, "config.toml"),
		)
	}

	return paths
}

// LoadFromFile загружает конфигурацию из указанного файла.
// Формат определяется по расширению. Возвращает nil, nil если файл не существует.
func LoadFromFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("не удалось прочитать файл конфигурации %s: %w", path, err)
	}

	var fc FileConfig
	if isTOML(path) {
		if err := toml.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("ошибка парсинга TOML в %s: %w", path, err)
		}
		return &fc, nil
	}

	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("ошибка парсинга YAML в %s: %w", path, err)
	}

	return &fc, nil
}

// SaveToFile сохраняет конфигурацию в файл. Формат определяется по расширению.
func (fc *FileConfig) SaveToFile(path string) error {
	var (
		data []byte
		err  error
	)
	if isTOML(path) {
		data, err = toml.Marshal(fc)
	} else {
		data, err = yaml.Marshal(fc)
	}
	if err != nil {
		return fmt.Errorf("не удалось сериализовать конфигурацию: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("не удалось создать директорию для %s: %w", path, err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("не удалось записать файл конфигурации %s: %w", path, err)
	}
	return nil
}

// FindAndLoadConfig ищет и загружает конфигурационный файл из стандартных путей.
// Если configPath указан явно, использует только его.
// Возвращает nil, nil если файл не найден.
func FindAndLoadConfig(configPath string) (*FileConfig, string, error) {
	// Если путь указан явно
	if configPath != "" {
		fc, err := LoadFromFile(configPath)
		if err != nil {
			return nil, "", err
		}
		if fc == nil {
			return nil, "", fmt.Errorf("файл конфигурации не найден: %s", configPath)
		}
		return fc, configPath, nil
	}

	// Ищем в стандартных путях
	for _, path := range DefaultConfigPaths() {
		fc, err := LoadFromFile(path)
		if err != nil {
			return nil, "", err
		}
		if fc != nil {
			return fc, path, nil
		}
	}

	return nil, "", nil
}

// FromConfig создаёт FileConfig из основной конфигурации.
func FromConfig(cfg *Config) *FileConfig {
	cache := cfg.CacheEnabled
	fc := &FileConfig{
		Input: &InputConfig{
			Dir:        cfg.InputDir,
			Extensions: cfg.InputExtensions,
			Sort:       string(cfg.SortBy),
			SortDesc:   cfg.SortDesc,
		},
		Matching: &MatchingConfig{
			Mode:        string(cfg.Mode),
			Preset:      cfg.Preset,
			MaxDistance: cfg.MaxDistance,
			Workers:     cfg.Workers,
			MaxMemoryMB: cfg.MaxMemoryMB,
		},
		Output: &OutputConfig{
			PreviewDir:    cfg.PreviewDir,
			PreviewHeight: cfg.PreviewHeight,
			DeleteExact:   cfg.DeleteExact,
			DryRun:        cfg.DryRun,
			Verbose:       cfg.Verbose,
			NoProgress:    cfg.NoProgress,
		},
		Paths: &PathsConfig{
			DB:    cfg.DBPath,
			Cache: &cache,
		},
	}
	return fc
}

// ApplyToConfig применяет настройки из файла к основной конфигурации.
// CLI флаги имеют приоритет над файлом конфигурации, поэтому
// эта функция должна вызываться до парсинга CLI флагов.
func (fc *FileConfig) ApplyToConfig(cfg *Config) {
	if fc == nil {
		return
	}

	// Input
	if fc.Input != nil {
		if fc.Input.Dir != "" {
			cfg.InputDir = fc.Input.Dir
		}
		if len(fc.Input.Extensions) > 0 {
			cfg.InputExtensions = fc.Input.Extensions
		}
		if fc.Input.Sort != "" {
			cfg.SortBy = SortBy(fc.Input.Sort)
		}
		if fc.Input.SortDesc {
			cfg.SortDesc = true
		}
	}

	// Matching: пресет применяется первым, явный порог его перекрывает
	if fc.Matching != nil {
		if fc.Matching.Preset != "" {
			cfg.ApplyPreset(fc.Matching.Preset)
		}
		if fc.Matching.Mode != "" {
			cfg.Mode = Mode(fc.Matching.Mode)
		}
		if fc.Matching.MaxDistance > 0 {
			cfg.MaxDistance = fc.Matching.MaxDistance
		}
		if fc.Matching.Workers > 0 {
			cfg.Workers = fc.Matching.Workers
		}
		if fc.Matching.MaxMemoryMB > 0 {
			cfg.MaxMemoryMB = fc.Matching.MaxMemoryMB
		}
	}

	// Output
	if fc.Output != nil {
		if fc.Output.PreviewDir != "" {
			cfg.PreviewDir = fc.Output.PreviewDir
		}
		if fc.Output.PreviewHeight > 0 {
			cfg.PreviewHeight = fc.Output.PreviewHeight
		}
		if fc.Output.DeleteExact {
			cfg.DeleteExact = true
		}
		if fc.Output.DryRun {
			cfg.DryRun = true
		}
		if fc.Output.Verbose {
			cfg.Verbose = true
		}
		if fc.Output.NoProgress {
			cfg.NoProgress = true
		}
	}

	// Paths
	if fc.Paths != nil {
		if fc.Paths.DB != "" {
			cfg.DBPath = fc.Paths.DB
		}
		if fc.Paths.Cache != nil {
			cfg.CacheEnabled = *fc.Paths.Cache
		}
	}
}

// GenerateExampleConfig генерирует пример конфигурационного файла.
func GenerateExampleConfig() string {
	return `# PhotoDupes Configuration File
# Все параметры опциональны - если не указаны, используются значения по умолчанию.
# CLI флаги имеют приоритет над этим файлом.

input:
  # Директория с изображениями
  dir: "./photos"
  # Расширения входных файлов (без точки)
  extensions:
    - jpg
    - jpeg
    - png
    - webp
  # Порядок сравнения: name, date, size
  sort: name
  sort_desc: false

matching:
  # Режим: exact (только точные копии) или similar (также похожие)
  mode: similar
  # Профиль порога: strict, normal, loose
  preset: normal
  # Явный порог расстояния (перекрывает пресет)
  max_distance: 0
  # Количество параллельных воркеров (по умолчанию = CPU cores)
  workers: 8
  # Ограничение памяти на декодирование, МБ (0 = без ограничения)
  max_memory_mb: 0

output:
  # Директория для PNG-превью найденных пар
  preview_dir: ""
  preview_height: 256
  # Удалять точные дубликаты
  delete_exact: false
  # Только показать, что было бы удалено
  dry_run: false
  # Подробный вывод
  verbose: false
  # Отключить прогресс-бар
  no_progress: false

paths:
  # Путь к SQLite базе сводок
  db: ""
  # Использовать сохранённые сводки
  cache: true
`
}

/*
Возможные расширения:
- Добавить команду 'config init' для генерации конфига
- Добавить поддержку переменных окружения в конфиге
*/
