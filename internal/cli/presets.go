// Package cli содержит CLI команды приложения.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/artemshloyda/photodupes/internal/config"
)

// newPresetsCmd создаёт команду для управления пресетами.
func newPresetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "presets",
		Short: "Управление именованными пресетами конфигурации",
		Long: `Управление именованными пресетами конфигурации.

Пресеты хранятся в ~/.config/photodupes/presets/ и позволяют
сохранять и загружать настройки поиска для разных коллекций.
Встроенные профили порога (strict, normal, loose) задаются флагом --preset.

Примеры:
  # Сохранить текущие настройки как пресет
  photodupes --in ./photos --preset loose --mode similar --save-preset scans

  # Загрузить пресет и запустить поиск
  photodupes --in ./other --load-preset scans

  # Список пресетов
  photodupes presets list

  # Удалить пресет
  photodupes presets delete scans`,
	}

	cmd.AddCommand(newPresetsListCmd())
	cmd.AddCommand(newPresetsDeleteCmd())
	cmd.AddCommand(newPresetsShowCmd())

	return cmd
}

// newPresetsListCmd создаёт команду для списка пресетов.
func newPresetsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Показать список сохранённых и встроенных пресетов",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			builtin := make([][]string, 0, len(config.ValidPresets()))
			for _, name := range config.ValidPresets() {
				p := config.Presets[config.Preset(name)]
				builtin = append(builtin, []string{name, string(p.Mode), fmt.Sprintf("%g", p.MaxDistance)})
			}
			fmt.Fprintln(out, "🎚️  Встроенные профили порога (--preset):")
			fmt.Fprintln(out, renderTable([]string{"Имя", "Режим", "Порог"}, builtin,
				[]columnAlignment{alignLeft, alignLeft, alignRight}))
			fmt.Fprintln(out)

			store, err := config.DefaultPresetStore()
			if err != nil {
				return err
			}
			presets, err := store.List()
			if err != nil {
				return fmt.Errorf("ошибка получения списка пресетов: %w", err)
			}

			if len(presets) == 0 {
				fmt.Fprintln(out, "Сохранённые пресеты не найдены.")
				fmt.Fprintln(out)
				fmt.Fprintln(out, "Сохраните пресет командой:")
				fmt.Fprintln(out, "  photodupes --in ./photos --preset loose --save-preset my-collection")
				return nil
			}

			rows := make([][]string, 0, len(presets))
			for _, p := range presets {
				mode, threshold := "-", "-"
				if p.Config != nil && p.Config.Matching != nil {
					m := p.Config.Matching
					if m.Mode != "" {
						mode = m.Mode
					}
					switch {
					case m.MaxDistance > 0:
						threshold = fmt.Sprintf("%g", m.MaxDistance)
					case m.Preset != "":
						threshold = m.Preset
					}
				}
				rows = append(rows, []string{p.Name, mode, threshold, p.Path})
			}

			fmt.Fprintf(out, "📦 Сохранённые пресеты (%d):\n", len(presets))
			fmt.Fprintln(out, renderTable([]string{"Имя", "Режим", "Порог", "Путь"}, rows, nil))
			return nil
		},
	}
}

// newPresetsDeleteCmd создаёт команду для удаления пресета.
func newPresetsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [name]",
		Short: "Удалить пресет",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			store, err := config.DefaultPresetStore()
			if err != nil {
				return err
			}
			if err := store.Delete(name); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✅ Пресет '%s' удалён\n", name)
			return nil
		},
	}
}

// newPresetsShowCmd создаёт команду для отображения пресета.
func newPresetsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [name]",
		Short: "Показать содержимое пресета",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			out := cmd.OutOrStdout()

			store, err := config.DefaultPresetStore()
			if err != nil {
				return err
			}
			fc, path, err := store.Load(name)
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "📦 Пресет: %s\n", name)
			fmt.Fprintf(out, "📁 Путь: %s\n\n", path)

			if fc.Input != nil {
				fmt.Fprintln(out, "Input:")
				if len(fc.Input.Extensions) > 0 {
					fmt.Fprintf(out, "  extensions: %v\n", fc.Input.Extensions)
				}
				if fc.Input.Sort != "" {
					fmt.Fprintf(out, "  sort: %s (desc: %v)\n", fc.Input.Sort, fc.Input.SortDesc)
				}
			}

			if fc.Matching != nil {
				fmt.Fprintln(out, "Matching:")
				if fc.Matching.Mode != "" {
					fmt.Fprintf(out, "  mode: %s\n", fc.Matching.Mode)
				}
				if fc.Matching.Preset != "" {
					fmt.Fprintf(out, "  preset: %s\n", fc.Matching.Preset)
				}
				if fc.Matching.MaxDistance > 0 {
					fmt.Fprintf(out, "  max_distance: %g\n", fc.Matching.MaxDistance)
				}
				if fc.Matching.Workers > 0 {
					fmt.Fprintf(out, "  workers: %d\n", fc.Matching.Workers)
				}
			}

			if fc.Output != nil {
				fmt.Fprintln(out, "Output:")
				if fc.Output.PreviewDir != "" {
					fmt.Fprintf(out, "  preview_dir: %s\n", fc.Output.PreviewDir)
				}
				fmt.Fprintf(out, "  delete_exact: %v\n", fc.Output.DeleteExact)
				fmt.Fprintf(out, "  dry_run: %v\n", fc.Output.DryRun)
			}

			return nil
		},
	}
}
