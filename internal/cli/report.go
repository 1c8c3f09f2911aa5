package cli

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/artemshloyda/photodupes/internal/worker"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

// renderTable рисует таблицу с заголовками и выравниванием по колонкам.
func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := range columns {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := range columns {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

// kindLabel возвращает подпись типа совпадения.
func kindLabel(kind worker.MatchKind) string {
	switch kind {
	case worker.MatchExact:
		return "копия файла"
	case worker.MatchPixels:
		return "те же пиксели"
	case worker.MatchSimilar:
		return "похожие"
	}
	return string(kind)
}

// printReport выводит найденные пары, ошибки загрузки и статистику.
func (a *app) printReport(result *worker.Result, duration time.Duration) {
	fmt.Fprintln(a.out)

	if len(result.Matches) == 0 {
		fmt.Fprintln(a.out, "✨ Дубликаты не найдены")
	} else {
		rows := make([][]string, 0, len(result.Matches))
		for i, m := range result.Matches {
			distance := "-"
			if m.Kind == worker.MatchSimilar {
				distance = fmt.Sprintf("%.0f", m.Distance)
			}
			rows = append(rows, []string{
				fmt.Sprintf("%d", i+1),
				kindLabel(m.Kind),
				a.rel(m.A.Path()),
				a.rel(m.B.Path()),
				distance,
				humanize.Bytes(uint64(m.B.FileSize())),
			})
		}
		fmt.Fprintf(a.out, "🔍 Найдено пар: %d\n", len(result.Matches))
		fmt.Fprintln(a.out, renderTable(
			[]string{"#", "Тип", "Файл", "Дубликат", "Расстояние", "Размер"},
			rows,
			[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignRight},
		))
	}

	if len(result.Failures) > 0 {
		rows := make([][]string, 0, len(result.Failures))
		for _, img := range result.Failures {
			rows = append(rows, []string{a.rel(img.Path()), string(img.Status())})
		}
		fmt.Fprintln(a.out)
		fmt.Fprintf(a.out, "⚠️  Не удалось загрузить: %d\n", len(result.Failures))
		fmt.Fprintln(a.out, renderTable([]string{"Файл", "Статус"}, rows, nil))
	}

	st := result.Stats
	fmt.Fprintln(a.out)
	fmt.Fprintf(a.out, "📊 Результаты:\n")
	fmt.Fprintf(a.out, "   Файлов: %d\n", st.Files)
	fmt.Fprintf(a.out, "   Сравнено пар: %s\n", humanize.Comma(st.Compared))
	fmt.Fprintf(a.out, "   Декодировано: %d (%s)\n", st.Loaded, humanize.Bytes(uint64(st.LoadedBytes)))
	fmt.Fprintf(a.out, "   Из кэша: %d\n", st.Cached)
	fmt.Fprintf(a.out, "   Ошибок: %d\n", st.Failed)
	fmt.Fprintf(a.out, "   Время: %s\n", duration.Round(time.Millisecond))
}
