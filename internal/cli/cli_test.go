package cli

import (
	"bytes"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"

	"github.com/artemshloyda/photodupes/internal/config"
	"github.com/artemshloyda/photodupes/internal/photo"
	"github.com/artemshloyda/photodupes/internal/worker"
)

// isolateHome подменяет домашнюю директорию, чтобы не задеть реальные конфиги и пресеты.
func isolateHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

// makePhotos создаёт a.png, его побайтовую копию b.png и непохожий c.png.
func makePhotos(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	a := filepath.Join(dir, "a.png")
	if err := imaging.Save(imaging.New(32, 32, color.NRGBA{R: 200, G: 40, B: 40, A: 255}), a); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(a)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "b.png"), data, 0644); err != nil {
		t.Fatal(err)
	}
	if err := imaging.Save(imaging.New(32, 32, color.NRGBA{R: 10, G: 250, B: 250, A: 255}), filepath.Join(dir, "c.png")); err != nil {
		t.Fatal(err)
	}
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRoot_FindsExactCopy(t *testing.T) {
	isolateHome(t)
	dir := makePhotos(t)

	out, err := execute(t, "--in", dir, "--no-progress", "--workers", "2")
	if err != nil {
		t.Fatalf("Execute() error = %v\n%s", err, out)
	}

	if !strings.Contains(out, "Найдено пар: 1") {
		t.Errorf("output does not report one pair:\n%s", out)
	}
	if !strings.Contains(out, "копия файла") {
		t.Errorf("output does not label exact copy:\n%s", out)
	}
	if _, err := os.Stat(filepath.Join(dir, ".photodupes", "summaries.sqlite")); err != nil {
		t.Errorf("база сводок не создана: %v", err)
	}
}

func TestRoot_DeleteExact(t *testing.T) {
	isolateHome(t)
	dir := makePhotos(t)
	b := filepath.Join(dir, "b.png")

	out, err := execute(t, "--in", dir, "--no-progress", "--mode", "exact", "--delete-exact", "--dry-run")
	if err != nil {
		t.Fatalf("Execute() error = %v\n%s", err, out)
	}
	if !strings.Contains(out, "[dry-run] b.png") {
		t.Errorf("dry-run should list b.png:\n%s", out)
	}
	if _, err := os.Stat(b); err != nil {
		t.Fatalf("dry-run удалил файл: %v", err)
	}

	out, err = execute(t, "--in", dir, "--no-progress", "--mode", "exact", "--delete-exact")
	if err != nil {
		t.Fatalf("Execute() error = %v\n%s", err, out)
	}
	if _, err := os.Stat(b); !os.IsNotExist(err) {
		t.Errorf("b.png should be deleted, stat err = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "a.png")); err != nil {
		t.Errorf("a.png must be kept: %v", err)
	}
}

func TestRoot_Previews(t *testing.T) {
	isolateHome(t)
	dir := makePhotos(t)
	previews := filepath.Join(t.TempDir(), "pairs")

	out, err := execute(t, "--in", dir, "--no-progress", "--preview-dir", previews, "--preview-height", "32")
	if err != nil {
		t.Fatalf("Execute() error = %v\n%s", err, out)
	}

	if _, err := os.Stat(filepath.Join(previews, "0001_exact.png")); err != nil {
		t.Errorf("превью не создано: %v\n%s", err, out)
	}
}

func TestRoot_InvalidConfig(t *testing.T) {
	isolateHome(t)

	tests := []struct {
		name string
		args []string
	}{
		{"missing dir", []string{"--no-progress"}},
		{"unknown preset", []string{"--in", t.TempDir(), "--preset", "fuzzy"}},
		{"unknown mode", []string{"--in", t.TempDir(), "--mode", "fuzzy"}},
		{"missing config file", []string{"--in", t.TempDir(), "--config", "/nonexistent/photodupes.yaml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := execute(t, tt.args...); err == nil {
				t.Error("Execute() expected error")
			}
		})
	}
}

func TestResolveConfig_Precedence(t *testing.T) {
	isolateHome(t)

	cfgPath := filepath.Join(t.TempDir(), "photodupes.toml")
	content := `[matching]
preset = "loose"
workers = 3

[input]
sort = "size"
`
	if err := os.WriteFile(cfgPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	a := newApp()
	a.out = &bytes.Buffer{}
	cmd := newRootCmd(a)
	if err := cmd.ParseFlags([]string{"--config", cfgPath, "--workers", "5", "--max-distance", "100"}); err != nil {
		t.Fatal(err)
	}
	if err := a.resolveConfig(cmd); err != nil {
		t.Fatalf("resolveConfig() error = %v", err)
	}

	if a.cfg.Workers != 5 {
		t.Errorf("Workers = %d, want 5 (флаг важнее файла)", a.cfg.Workers)
	}
	if a.cfg.MaxDistance != 100 {
		t.Errorf("MaxDistance = %v, want 100", a.cfg.MaxDistance)
	}
	if a.cfg.Preset != "loose" {
		t.Errorf("Preset = %q, want loose", a.cfg.Preset)
	}
	if a.cfg.SortBy != config.SortBySize {
		t.Errorf("SortBy = %v, want size", a.cfg.SortBy)
	}
}

func TestNamedPresets(t *testing.T) {
	isolateHome(t)
	dir := makePhotos(t)

	out, err := execute(t, "--in", dir, "--no-progress", "--preset", "strict", "--mode", "exact", "--save-preset", "family")
	if err != nil {
		t.Fatalf("Execute() error = %v\n%s", err, out)
	}
	if !strings.Contains(out, "Пресет 'family' сохранён") {
		t.Errorf("preset not reported as saved:\n%s", out)
	}

	a := newApp()
	a.out = &bytes.Buffer{}
	cmd := newRootCmd(a)
	if err := cmd.ParseFlags([]string{"--load-preset", "family"}); err != nil {
		t.Fatal(err)
	}
	if err := a.resolveConfig(cmd); err != nil {
		t.Fatalf("resolveConfig() error = %v", err)
	}
	if a.cfg.Mode != config.ModeExact || a.cfg.MaxDistance != config.Presets[config.PresetStrict].MaxDistance {
		t.Errorf("loaded preset cfg = mode %v distance %v", a.cfg.Mode, a.cfg.MaxDistance)
	}
	if a.cfg.InputDir != "" {
		t.Errorf("пресет не должен задавать директорию, got %q", a.cfg.InputDir)
	}

	out, err = execute(t, "presets", "list")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "family") || !strings.Contains(out, "strict") {
		t.Errorf("presets list output:\n%s", out)
	}

	out, err = execute(t, "presets", "show", "family")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "mode: exact") {
		t.Errorf("presets show output:\n%s", out)
	}

	if _, err := execute(t, "presets", "delete", "family"); err != nil {
		t.Fatal(err)
	}
	if _, err := execute(t, "presets", "show", "family"); err == nil {
		t.Error("show of deleted preset expected error")
	}
}

func TestStatsCmd(t *testing.T) {
	isolateHome(t)
	dir := makePhotos(t)

	if out, err := execute(t, "--in", dir, "--no-progress"); err != nil {
		t.Fatalf("Execute() error = %v\n%s", err, out)
	}

	out, err := execute(t, "stats", "--db", filepath.Join(dir, ".photodupes", "summaries.sqlite"))
	if err != nil {
		t.Fatalf("stats error = %v\n%s", err, out)
	}
	if !strings.Contains(out, "Всего сводок") || !strings.Contains(out, "3") {
		t.Errorf("stats output:\n%s", out)
	}
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "photodupes ") {
		t.Errorf("version output = %q", out)
	}
}

func TestPlanExactDeletions(t *testing.T) {
	dir := makePhotos(t)
	load := func(name string) *photo.Image {
		return photo.Load(filepath.Join(dir, name), photo.FileDecoder{})
	}
	a, b, c := load("a.png"), load("b.png"), load("c.png")
	missing := load("missing.png")

	matches := []worker.Match{
		{A: a, B: b, Kind: worker.MatchExact},
		{A: a, B: c, Kind: worker.MatchExact},
		{A: b, B: c, Kind: worker.MatchExact},
		{A: a, B: missing, Kind: worker.MatchExact},
		{A: b, B: a, Kind: worker.MatchSimilar},
	}

	plan := planExactDeletions(matches)
	if len(plan) != 2 || plan[0] != b || plan[1] != c {
		paths := make([]string, len(plan))
		for i, img := range plan {
			paths[i] = filepath.Base(img.Path())
		}
		t.Errorf("planExactDeletions() = %v, want [b.png c.png]", paths)
	}
}

func TestRenderTable(t *testing.T) {
	got := renderTable([]string{"A", "B"}, [][]string{{"1"}, {"2", "3"}}, []columnAlignment{alignRight})
	for _, want := range []string{"A", "B", "1", "2", "3"} {
		if !strings.Contains(got, want) {
			t.Errorf("renderTable() missing %q:\n%s", want, got)
		}
	}
	if renderTable(nil, nil, nil) != "" {
		t.Error("renderTable() without headers should be empty")
	}
}
