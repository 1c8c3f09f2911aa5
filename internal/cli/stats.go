package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/artemshloyda/photodupes/internal/config"
	"github.com/artemshloyda/photodupes/internal/storage"
)

// newStatsCmd создаёт команду stats.
func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Показать статистику базы сводок",
		RunE: func(cmd *cobra.Command, args []string) error {
			dbPath, _ := cmd.Flags().GetString("db")
			prune, _ := cmd.Flags().GetBool("prune")

			store, err := storage.New(dbPath)
			if err != nil {
				return fmt.Errorf("не удалось открыть БД: %w", err)
			}
			defer func() { _ = store.Close() }()

			out := cmd.OutOrStdout()
			if prune {
				removed, err := store.PruneMissing()
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "🧹 Удалено сводок отсутствующих файлов: %d\n", removed)
			}

			st, err := store.GetStats()
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "📊 Статистика базы сводок:\n")
			fmt.Fprintln(out, renderTable(
				[]string{"Показатель", "Значение"},
				[][]string{
					{"Всего сводок", humanize.Comma(st.Total)},
					{"Загружено успешно", humanize.Comma(st.OK)},
					{"Не открылись", humanize.Comma(st.OpenFailed)},
					{"Не декодировались", humanize.Comma(st.DecodeFailed)},
					{"Уникальных файлов", humanize.Comma(st.UniqueContent)},
				},
				[]columnAlignment{alignLeft, alignRight},
			))
			return nil
		},
	}

	cmd.Flags().String("db", "", "Путь к SQLite базе сводок")
	cmd.Flags().Bool("prune", false, "Удалить сводки файлов, которых больше нет на диске")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

// newConfigCmd создаёт команду config.
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Работа с файлом конфигурации",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "example",
		Short: "Вывести пример файла конфигурации",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprint(cmd.OutOrStdout(), config.GenerateExampleConfig())
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "paths",
		Short: "Показать пути поиска файла конфигурации",
		Run: func(cmd *cobra.Command, args []string) {
			for _, p := range config.DefaultConfigPaths() {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
		},
	})

	return cmd
}
