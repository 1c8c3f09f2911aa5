// Package config содержит конфигурацию приложения.
package config

// Preset определяет профиль порога похожести.
type Preset string

const (
	// PresetStrict - почти идентичные изображения: средняя разница канала около 4 уровней.
	PresetStrict Preset = "strict"
	// PresetNormal - пересжатые и слегка изменённые копии: около 8 уровней.
	PresetNormal Preset = "normal"
	// PresetLoose - заметно обработанные копии: около 16 уровней.
	PresetLoose Preset = "loose"
)

// PresetConfig содержит настройки для пресета.
type PresetConfig struct {
	// Mode - режим поиска.
	Mode Mode
	// MaxDistance - порог расстояния.
	MaxDistance float64
}

// thresholdFor возвращает порог для средней разницы канала d:
// 64 блока, 3 канала, квадрат разницы.
func thresholdFor(d float64) float64 {
	return 64 * 3 * d * d
}

// Presets содержит все доступные пресеты.
var Presets = map[Preset]PresetConfig{
	PresetStrict: {
		Mode:        ModeSimilar,
		MaxDistance: thresholdFor(4),
	},
	PresetNormal: {
		Mode:        ModeSimilar,
		MaxDistance: thresholdFor(8),
	},
	PresetLoose: {
		Mode:        ModeSimilar,
		MaxDistance: thresholdFor(16),
	},
}

// ApplyPreset применяет пресет к конфигурации.
// Возвращает true, если пресет был применён.
func (c *Config) ApplyPreset(preset string) bool {
	p, ok := Presets[Preset(preset)]
	if !ok {
		return false
	}

	c.Preset = preset
	c.Mode = p.Mode
	c.MaxDistance = p.MaxDistance

	return true
}

// ValidPresets возвращает список доступных пресетов.
func ValidPresets() []string {
	return []string{
		string(PresetStrict),
		string(PresetNormal),
		string(PresetLoose),
	}
}
