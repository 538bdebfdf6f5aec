package pipeline

// Выгрузка результатов. Превью в чат ограничивается первыми N строками с маркером
// усечения; файловые артефакты всегда содержат полный список. Временные файлы
// удаляются возвращаемой cleanup-функцией независимо от исхода доставки.

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"telegram-number-checker/internal/infra/storage"
)

// DefaultPreviewLimit — сколько строк представления попадает в чат-превью.
const DefaultPreviewLimit = 50

// truncationMark добавляется в конец превью, когда строк больше лимита.
const truncationMark = "..."

// Preview собирает чат-превью: первые limit строк плюс маркер усечения,
// если строк строго больше лимита. limit <= 0 трактуется как DefaultPreviewLimit.
func Preview(lines []string, limit int) string {
	if limit <= 0 {
		limit = DefaultPreviewLimit
	}
	if len(lines) <= limit {
		return strings.Join(lines, "\n")
	}
	return strings.Join(lines[:limit], "\n") + "\n" + truncationMark
}

// WriteTextArtifact записывает полный (неусечённый) список строк во временный
// текстовый файл в каталоге dir. Возвращает путь и cleanup, которую вызывающий
// обязан выполнить после доставки артефакта (в том числе при неудачной доставке).
func WriteTextArtifact(dir string, lines []string) (string, func(), error) {
	if err := storage.EnsureDir(filepath.Join(dir, "artifact")); err != nil {
		return "", nil, err
	}
	tmp, err := os.CreateTemp(dir, "numbers-*.txt")
	if err != nil {
		return "", nil, fmt.Errorf("create text artifact: %w", err)
	}
	path := tmp.Name()
	cleanup := func() { _ = os.Remove(path) }

	if _, err := tmp.WriteString(strings.Join(lines, "\n") + "\n"); err != nil {
		_ = tmp.Close()
		cleanup()
		return "", nil, fmt.Errorf("write text artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("close text artifact: %w", err)
	}
	return path, cleanup, nil
}

// WriteWorkbookArtifact записывает полный результат прогона в двухколоночную
// книгу xlsx ("Phone Number", "Status"). Контракт cleanup тот же, что и у
// WriteTextArtifact.
func WriteWorkbookArtifact(dir string, results []Result) (string, func(), error) {
	if err := storage.EnsureDir(filepath.Join(dir, "artifact")); err != nil {
		return "", nil, err
	}
	tmp, err := os.CreateTemp(dir, "results-*.xlsx")
	if err != nil {
		return "", nil, fmt.Errorf("create workbook artifact: %w", err)
	}
	path := tmp.Name()
	cleanup := func() { _ = os.Remove(path) }
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("close workbook temp: %w", err)
	}

	if err := writeWorkbook(path, results); err != nil {
		cleanup()
		return "", nil, err
	}
	return path, cleanup, nil
}

// writeWorkbook формирует книгу и сохраняет её поверх подготовленного файла.
func writeWorkbook(path string, results []Result) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	const sheet = "Sheet1"
	headers := []string{"Phone Number", "Status"}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return fmt.Errorf("workbook header cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("workbook header: %w", err)
		}
	}

	for i, r := range results {
		row := i + 2
		if err := f.SetCellValue(sheet, fmt.Sprintf("A%d", row), r.Number); err != nil {
			return fmt.Errorf("workbook row %d: %w", row, err)
		}
		if err := f.SetCellValue(sheet, fmt.Sprintf("B%d", row), r.Status.String()); err != nil {
			return fmt.Errorf("workbook row %d: %w", row, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook artifact: %w", err)
	}
	return nil
}
