package pipeline

// Разбор входных файлов. Поддерживаются два формата:
//   - книга xlsx/xls: первая колонка — номера, вторая (если её заголовок "message") —
//     текст сообщения; первая строка всегда считается заголовком;
//   - текстовый файл: содержимое целиком разбивается по пробельным символам,
//     каждый непустой токен становится записью без сообщения.

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrUnreadableFile сигнализирует, что файл не удалось разобрать как заявленный
// формат (битый архив, чужой mimetype). Прогон прерывается до каких-либо проверок.
var ErrUnreadableFile = errors.New("unreadable input file")

// messageHeader — ожидаемый заголовок колонки с сообщениями (без учёта регистра).
const messageHeader = "message"

// ParseWorkbook читает книгу xlsx и возвращает записи в порядке строк листа.
// Первая строка — заголовок; строки с пустой первой ячейкой пропускаются;
// все колонки правее второй игнорируются.
func ParseWorkbook(path string) ([]RawRecord, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
	}
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrUnreadableFile)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	// Колонка сообщений активна, только если заголовок второй колонки — "message".
	withMessages := len(rows[0]) > 1 &&
		strings.EqualFold(strings.TrimSpace(rows[0][1]), messageHeader)

	records := make([]RawRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
			continue
		}
		rec := RawRecord{Number: strings.TrimSpace(row[0])}
		if withMessages && len(row) > 1 {
			rec.Message = strings.TrimSpace(row[1])
		}
		records = append(records, rec)
	}
	return records, nil
}

// ParseText читает текстовый файл и превращает каждый непустой токен в запись.
// Сообщений в этом формате нет.
func ParseText(path string) ([]RawRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
	}

	tokens := strings.Fields(string(data))
	records := make([]RawRecord, 0, len(tokens))
	for _, token := range tokens {
		records = append(records, RawRecord{Number: token})
	}
	return records, nil
}
