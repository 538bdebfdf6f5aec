package pipeline

// Нормализация номеров. Контракт намеренно разрешительный: кроме обрезки пробелов
// и префикса "+" ничего не делается — проверку цифрового состава выполняет backend,
// а мусорные значения всплывают как StatusInvalid.

import (
	"errors"
	"strings"
)

// ErrEmptyNumber возвращается для пустой строки: нормализатор не имеет права
// молча породить голый "+". Парсер фильтрует пустые ячейки раньше, так что
// это защитная ошибка.
var ErrEmptyNumber = errors.New("empty phone number")

// Normalize приводит сырой номер к виду с префиксом "+".
// Идемпотентна: Normalize(Normalize(n)) == Normalize(n).
func Normalize(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrEmptyNumber
	}
	if strings.HasPrefix(trimmed, "+") {
		return trimmed, nil
	}
	return "+" + trimmed, nil
}

// NormalizeRecords нормализует пачку записей, сохраняя порядок и назначая Index.
// Пустые номера пропускаются (защита от слабого парсера); возвращается число
// пропущенных записей, чтобы вызывающий мог залогировать аномалию.
func NormalizeRecords(raws []RawRecord) ([]Record, int) {
	records := make([]Record, 0, len(raws))
	skipped := 0
	for _, raw := range raws {
		number, err := Normalize(raw.Number)
		if err != nil {
			skipped++
			continue
		}
		records = append(records, Record{
			Number:  number,
			Message: raw.Message,
			Index:   len(records),
		})
	}
	return records, skipped
}
