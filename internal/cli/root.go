// Package cli содержит CLI интерфейс приложения.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/artemshloyda/photodupes/internal/config"
	"github.com/artemshloyda/photodupes/internal/photo"
	"github.com/artemshloyda/photodupes/internal/storage"
)

var (
	// Version будет установлена при сборке.
	Version = "dev"

	// BuildTime будет установлена при сборке.
	BuildTime = "unknown"
)

// options содержит значения флагов до слияния с файлом конфигурации.
type options struct {
	inputDir      string
	inputExt      []string
	mode          string
	preset        string
	maxDistance   float64
	workers       int
	dbPath        string
	noCache       bool
	sortBy        string
	sortDesc      bool
	maxMemoryMB   int
	previewDir    string
	previewHeight int
	deleteExact   bool
	dryRun        bool
	watch         bool
	reveal        bool
	verbose       bool
	noProgress    bool

	configPath string
	savePreset string
	loadPreset string
}

// app связывает конфигурацию запуска с выводом.
type app struct {
	cfg  *config.Config
	opts options

	// bitmaps - кэш представлений для превью, общий для всех запусков в режиме слежения.
	bitmaps *photo.BitmapCache

	out    io.Writer
	errOut io.Writer
}

// newApp создаёт app с конфигурацией по умолчанию.
func newApp() *app {
	return &app{
		cfg:     config.DefaultConfig(),
		bitmaps: photo.NewBitmapCache(),
	}
}

// NewRootCmd создаёт корневую команду CLI.
func NewRootCmd() *cobra.Command {
	return newRootCmd(newApp())
}

func newRootCmd(a *app) *cobra.Command {
	defaults := config.DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "photodupes",
		Short: "Поиск дубликатов и похожих фотографий",
		Long: `PhotoDupes - CLI утилита для поиска точных и визуально похожих фотографий.

Каждое изображение сводится к сетке 8x8 средних цветов; две сетки сравниваются
с учётом поворотов и отражений. Точные копии находятся по sha256 файла
и декодированных пикселей. Сводки сохраняются в SQLite, поэтому повторный
запуск не декодирует неизменившиеся файлы.

Примеры:
  # Найти дубликаты и похожие фото
  photodupes --in ./photos

  # Только точные копии, удалить лишние (сначала посмотреть)
  photodupes --in ./photos --mode exact --delete-exact --dry-run

  # Мягкий порог и PNG-превью найденных пар
  photodupes --in ./photos --preset loose --preview-dir ./pairs

  # Следить за директорией и пересчитывать при изменениях
  photodupes --in ./photos --watch`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			a.out = cmd.OutOrStdout()
			a.errOut = cmd.ErrOrStderr()
			return a.resolveConfig(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run()
		},
	}

	// Флаги
	flags := rootCmd.Flags()
	o := &a.opts

	// Входные параметры
	flags.StringVar(&o.inputDir, "in", "", "Директория с изображениями")
	flags.StringSliceVar(&o.inputExt, "in-ext", defaults.InputExtensions,
		"Расширения входных файлов через запятую (например: jpg,png,webp)")
	flags.StringVar(&o.sortBy, "sort", string(defaults.SortBy), "Порядок сравнения: name, date, size")
	flags.BoolVar(&o.sortDesc, "desc", false, "Сортировка по убыванию")

	// Сравнение
	flags.StringVar(&o.mode, "mode", string(defaults.Mode), "Режим: exact или similar")
	flags.StringVar(&o.preset, "preset", "", "Профиль порога: strict, normal, loose")
	flags.Float64Var(&o.maxDistance, "max-distance", defaults.MaxDistance, "Порог расстояния (перекрывает --preset)")
	flags.IntVar(&o.workers, "workers", defaults.Workers, "Количество параллельных воркеров")
	flags.IntVar(&o.maxMemoryMB, "max-memory", 0, "Ограничение памяти на декодирование, МБ (0 = без ограничения)")

	// Пути
	flags.StringVar(&o.dbPath, "db", "", "Путь к SQLite базе сводок (по умолчанию <in>/.photodupes/summaries.sqlite)")
	flags.BoolVar(&o.noCache, "no-cache", false, "Не использовать сохранённые сводки")

	// Действия
	flags.StringVar(&o.previewDir, "preview-dir", "", "Директория для PNG-превью найденных пар")
	flags.IntVar(&o.previewHeight, "preview-height", defaults.PreviewHeight, "Высота превью в пикселях")
	flags.BoolVar(&o.deleteExact, "delete-exact", false, "Удалить точные копии, оставив первый файл")
	flags.BoolVar(&o.dryRun, "dry-run", false, "Только показать, что было бы удалено")
	flags.BoolVar(&o.watch, "watch", false, "Следить за директорией и пересчитывать при изменениях")
	flags.BoolVar(&o.reveal, "reveal", false, "Открыть в файловом менеджере папку первого найденного дубликата")

	// Конфигурация
	flags.StringVarP(&o.configPath, "config", "c", "", "Путь к файлу конфигурации (YAML или TOML)")
	flags.StringVar(&o.savePreset, "save-preset", "", "Сохранить текущие настройки как именованный пресет")
	flags.StringVar(&o.loadPreset, "load-preset", "", "Загрузить настройки из именованного пресета")

	// Вывод
	flags.BoolVarP(&o.verbose, "verbose", "v", false, "Подробный вывод")
	flags.BoolVar(&o.noProgress, "no-progress", false, "Отключить прогресс-бар")

	// Подкоманды
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newPresetsCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

// resolveConfig собирает конфигурацию: значения по умолчанию, файл конфигурации,
// именованный пресет, затем явно указанные флаги.
func (a *app) resolveConfig(cmd *cobra.Command) error {
	fc, path, err := config.FindAndLoadConfig(a.opts.configPath)
	if err != nil {
		return err
	}
	if fc != nil {
		fc.ApplyToConfig(a.cfg)
		if a.opts.verbose {
			fmt.Fprintf(a.out, "⚙️  Конфигурация: %s\n", path)
		}
	}

	if a.opts.loadPreset != "" {
		store, err := config.DefaultPresetStore()
		if err != nil {
			return err
		}
		pc, path, err := store.Load(a.opts.loadPreset)
		if err != nil {
			return err
		}
		pc.ApplyToConfig(a.cfg)
		fmt.Fprintf(a.out, "📦 Загружен пресет '%s' (%s)\n", a.opts.loadPreset, path)
	}

	return a.applyFlags(cmd)
}

// applyFlags переносит в конфигурацию только явно указанные флаги.
func (a *app) applyFlags(cmd *cobra.Command) error {
	changed := cmd.Flags().Changed
	o := a.opts
	c := a.cfg

	if changed("in") {
		c.InputDir = o.inputDir
	}
	if changed("in-ext") {
		c.InputExtensions = o.inputExt
	}
	if changed("sort") {
		c.SortBy = config.SortBy(o.sortBy)
	}
	if changed("desc") {
		c.SortDesc = o.sortDesc
	}
	// Пресет применяется до явных режима и порога
	if changed("preset") && !c.ApplyPreset(o.preset) {
		return fmt.Errorf("неизвестный пресет: %s (доступны: %v)", o.preset, config.ValidPresets())
	}
	if changed("mode") {
		c.Mode = config.Mode(o.mode)
	}
	if changed("max-distance") {
		c.MaxDistance = o.maxDistance
	}
	if changed("workers") {
		c.Workers = o.workers
	}
	if changed("max-memory") {
		c.MaxMemoryMB = o.maxMemoryMB
	}
	if changed("db") {
		c.DBPath = o.dbPath
	}
	if changed("no-cache") {
		c.CacheEnabled = !o.noCache
	}
	if changed("preview-dir") {
		c.PreviewDir = o.previewDir
	}
	if changed("preview-height") {
		c.PreviewHeight = o.previewHeight
	}
	if changed("delete-exact") {
		c.DeleteExact = o.deleteExact
	}
	if changed("dry-run") {
		c.DryRun = o.dryRun
	}
	if changed("watch") {
		c.Watch = o.watch
	}
	if changed("verbose") {
		c.Verbose = o.verbose
	}
	if changed("no-progress") {
		c.NoProgress = o.noProgress
	}
	return nil
}

// run выполняет поиск дубликатов.
func (a *app) run() error {
	// Валидация конфигурации
	if err := a.cfg.Validate(); err != nil {
		return fmt.Errorf("ошибка конфигурации: %w", err)
	}

	if a.opts.savePreset != "" {
		store, err := config.DefaultPresetStore()
		if err != nil {
			return err
		}
		path, err := store.Save(a.opts.savePreset, a.cfg)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "💾 Пресет '%s' сохранён: %s\n", a.opts.savePreset, path)
	}

	// Создаём контекст с обработкой сигналов
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			fmt.Fprintln(a.errOut, "\n⚠️  Получен сигнал завершения, останавливаем...")
			cancel()
		case <-ctx.Done():
		}
	}()

	// Хранилище сводок необязательно: без него всё декодируется заново
	store, err := storage.New(a.cfg.DBPath)
	if err != nil {
		fmt.Fprintf(a.errOut, "⚠️  База сводок недоступна, кэш отключён: %v\n", err)
		store = nil
	} else {
		defer func() { _ = store.Close() }()
	}

	if a.cfg.Watch {
		return a.watch(ctx, store)
	}

	_, err = a.runOnce(ctx, store)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// newVersionCmd создаёт команду version.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Показать версию",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "photodupes %s (built %s)\n", Version, BuildTime)
		},
	}
}

// Execute запускает CLI.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		// Не выводим ошибку, cobra уже вывела
		os.Exit(1)
	}
}

/*
Возможные расширения:
- Добавить команду export для выгрузки найденных пар в JSON
- Добавить интерактивный выбор файла для удаления
*/
