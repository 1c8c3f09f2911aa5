package config

import (
	"testing"
)

func TestApplyPreset(t *testing.T) {
	tests := []struct {
		name         string
		preset       string
		wantOK       bool
		wantDistance float64
	}{
		{
			name:         "strict preset",
			preset:       "strict",
			wantOK:       true,
			wantDistance: 3072,
		},
		{
			name:         "normal preset",
			preset:       "normal",
			wantOK:       true,
			wantDistance: 12288,
		},
		{
			name:         "loose preset",
			preset:       "loose",
			wantOK:       true,
			wantDistance: 49152,
		},
		{
			name:   "unknown preset",
			preset: "unknown",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Mode = ModeExact
			ok := cfg.ApplyPreset(tt.preset)

			if ok != tt.wantOK {
				t.Errorf("ApplyPreset() = %v, want %v", ok, tt.wantOK)
			}

			if tt.wantOK {
				if cfg.MaxDistance != tt.wantDistance {
					t.Errorf("MaxDistance = %v, want %v", cfg.MaxDistance, tt.wantDistance)
				}
				if cfg.Mode != ModeSimilar {
					t.Errorf("Mode = %v, want %v", cfg.Mode, ModeSimilar)
				}
				if cfg.Preset != tt.preset {
					t.Errorf("Preset = %q, want %q", cfg.Preset, tt.preset)
				}
			} else if cfg.Mode != ModeExact {
				t.Error("неизвестный пресет не должен менять конфигурацию")
			}
		})
	}
}

func TestValidPresets(t *testing.T) {
	presets := ValidPresets()

	expected := []string{"strict", "normal", "loose"}
	if len(presets) != len(expected) {
		t.Errorf("ValidPresets() returned %d presets, want %d", len(presets), len(expected))
	}

	for _, exp := range expected {
		if _, ok := Presets[Preset(exp)]; !ok {
			t.Errorf("Presets missing %q", exp)
		}
	}
}

func TestPresetOrdering(t *testing.T) {
	// Более мягкий пресет допускает большее расстояние
	strict := Presets[PresetStrict].MaxDistance
	normal := Presets[PresetNormal].MaxDistance
	loose := Presets[PresetLoose].MaxDistance

	if !(strict < normal && normal < loose) {
		t.Errorf("пороги не упорядочены: strict=%v normal=%v loose=%v", strict, normal, loose)
	}
}
