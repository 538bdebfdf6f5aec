package pipeline

// Агрегация результатов прогона. Все функции чистые: одинаковый вход даёт
// одинаковый выход, порядок результатов (равный порядку входного файла)
// сохраняется во всех представлениях — пересортировка по статусу или номеру
// не выполняется нигде.

import "fmt"

// Summarize вычисляет счётчики прогона. Invalid/Error входят в TotalChecked,
// но не попадают ни в один из двух основных счётчиков.
func Summarize(results []Result) Summary {
	var s Summary
	s.TotalChecked = len(results)
	for _, r := range results {
		switch r.Status {
		case StatusRegistered:
			s.Registered++
		case StatusNonRegistered:
			s.NonRegistered++
		case StatusInvalid, StatusError:
		}
	}
	return s
}

// AllLines — merged-представление: каждый результат со значком статуса.
// Для проблемных номеров добавляется короткая пометка причины.
func AllLines(results []Result, style TickStyle) []string {
	ok, bad, warn := style.Marks()
	lines := make([]string, 0, len(results))
	for _, r := range results {
		switch r.Status {
		case StatusRegistered:
			lines = append(lines, fmt.Sprintf("%s %s", ok, r.Number))
		case StatusNonRegistered:
			lines = append(lines, fmt.Sprintf("%s %s", bad, r.Number))
		case StatusInvalid:
			lines = append(lines, fmt.Sprintf("%s %s (invalid)", warn, r.Number))
		case StatusError:
			lines = append(lines, fmt.Sprintf("%s %s (check failed)", warn, r.Number))
		}
	}
	return lines
}

// RegisteredLines возвращает номера со статусом Registered, в исходном порядке.
func RegisteredLines(results []Result) []string {
	return filterNumbers(results, StatusRegistered)
}

// NonRegisteredLines возвращает номера со статусом NonRegistered, в исходном порядке.
// Этот же список сохраняется в персистентное состояние пользователя.
func NonRegisteredLines(results []Result) []string {
	return filterNumbers(results, StatusNonRegistered)
}

// NumbersOnly возвращает голые нормализованные номера независимо от статуса.
func NumbersOnly(results []Result) []string {
	lines := make([]string, 0, len(results))
	for _, r := range results {
		lines = append(lines, r.Number)
	}
	return lines
}

// MessagesOnly возвращает сообщения, выровненные по исходным строкам:
// позиция i соответствует i-му результату, пустые сообщения сохраняют место.
func MessagesOnly(results []Result) []string {
	lines := make([]string, 0, len(results))
	for _, r := range results {
		lines = append(lines, r.Message)
	}
	return lines
}

// HasMessages сообщает, есть ли хотя бы одно непустое сообщение.
func HasMessages(results []Result) bool {
	for _, r := range results {
		if r.Message != "" {
			return true
		}
	}
	return false
}

// NumberMessageLines — строки "номер<TAB>сообщение" для текстовой выгрузки;
// у результатов без сообщения хвост опускается.
func NumberMessageLines(results []Result) []string {
	lines := make([]string, 0, len(results))
	for _, r := range results {
		if r.Message == "" {
			lines = append(lines, r.Number)
			continue
		}
		lines = append(lines, r.Number+"\t"+r.Message)
	}
	return lines
}

// RecordNumberMessageLines — то же для записей до прогона.
func RecordNumberMessageLines(records []Record) []string {
	lines := make([]string, 0, len(records))
	for _, rec := range records {
		if rec.Message == "" {
			lines = append(lines, rec.Number)
			continue
		}
		lines = append(lines, rec.Number+"\t"+rec.Message)
	}
	return lines
}

// RecordNumbers — номера из нормализованных записей (до прогона проверки).
func RecordNumbers(records []Record) []string {
	lines := make([]string, 0, len(records))
	for _, rec := range records {
		lines = append(lines, rec.Number)
	}
	return lines
}

// RecordMessages — сообщения из нормализованных записей, выровненные по строкам.
func RecordMessages(records []Record) []string {
	lines := make([]string, 0, len(records))
	for _, rec := range records {
		lines = append(lines, rec.Message)
	}
	return lines
}

// RecordsHaveMessages сообщает, есть ли в записях хотя бы одно сообщение.
func RecordsHaveMessages(records []Record) bool {
	for _, rec := range records {
		if rec.Message != "" {
			return true
		}
	}
	return false
}

func filterNumbers(results []Result, want Status) []string {
	lines := make([]string, 0, len(results))
	for _, r := range results {
		if r.Status == want {
			lines = append(lines, r.Number)
		}
	}
	return lines
}
