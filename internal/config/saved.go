// Package config содержит конфигурацию приложения.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// SavedPreset представляет именованный пресет конфигурации на диске.
type SavedPreset struct {
	// Name - имя пресета.
	Name string
	// Path - путь к файлу пресета.
	Path string
	// Config - конфигурация пресета (nil, если файл повреждён).
	Config *FileConfig
}

// PresetStore хранит именованные пресеты в директории в виде YAML-файлов.
type PresetStore struct {
	dir string
}

// NewPresetStore создаёт хранилище пресетов в директории dir.
func NewPresetStore(dir string) *PresetStore {
	return &PresetStore{dir: dir}
}

// DefaultPresetStore возвращает хранилище в ~/.config/photodupes/presets.
func DefaultPresetStore() (*PresetStore, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("не удалось получить домашнюю директорию: %w", err)
	}
	return NewPresetStore(filepath.Join(homeDir, ".config", "photodupes", "presets")), nil
}

// Dir возвращает директорию хранилища.
func (s *PresetStore) Dir() string {
	return s.dir
}

// Path возвращает путь к файлу пресета по имени.
func (s *PresetStore) Path(name string) (string, error) {
	safeName := sanitizePresetName(name)
	if safeName == "" {
		return "", fmt.Errorf("некорректное имя пресета: %q", name)
	}
	return filepath.Join(s.dir, safeName+".yaml"), nil
}

// sanitizePresetName оставляет в имени только буквы, цифры, дефисы и подчёркивания.
func sanitizePresetName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return -1
	}, name)
}

// Save сохраняет конфигурацию как именованный пресет.
// Директория поиска не сохраняется: пресет применим к любой директории.
func (s *PresetStore) Save(name string, cfg *Config) (string, error) {
	path, err := s.Path(name)
	if err != nil {
		return "", err
	}

	fc := FromConfig(cfg)
	fc.Input.Dir = ""
	fc.Paths.DB = ""

	if err := fc.SaveToFile(path); err != nil {
		return "", fmt.Errorf("не удалось сохранить пресет: %w", err)
	}
	return path, nil
}

// Load загружает конфигурацию из именованного пресета.
func (s *PresetStore) Load(name string) (*FileConfig, string, error) {
	path, err := s.Path(name)
	if err != nil {
		return nil, "", err
	}

	fc, err := LoadFromFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("не удалось загрузить пресет '%s': %w", name, err)
	}
	if fc == nil {
		return nil, "", fmt.Errorf("пресет '%s' не найден", name)
	}
	return fc, path, nil
}

// List возвращает все сохранённые пресеты, отсортированные по имени.
func (s *PresetStore) List() ([]SavedPreset, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, os.ErrNotExist) {
		return []SavedPreset{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("не удалось прочитать директорию пресетов: %w", err)
	}

	presets := []SavedPreset{}
	for _, entry := range entries {
		name := entry.Name()
		ext := filepath.Ext(name)
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}

		path := filepath.Join(s.dir, name)
		// Повреждённый файл показываем без конфигурации
		fc, _ := LoadFromFile(path)

		presets = append(presets, SavedPreset{
			Name:   strings.TrimSuffix(name, ext),
			Path:   path,
			Config: fc,
		})
	}

	slices.SortFunc(presets, func(a, b SavedPreset) int {
		return strings.Compare(a.Name, b.Name)
	})
	return presets, nil
}

// Delete удаляет именованный пресет.
func (s *PresetStore) Delete(name string) error {
	path, err := s.Path(name)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("пресет '%s' не найден", name)
		}
		return fmt.Errorf("не удалось удалить пресет: %w", err)
	}
	return nil
}

// Exists проверяет существование пресета.
func (s *PresetStore) Exists(name string) bool {
	path, err := s.Path(name)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}
