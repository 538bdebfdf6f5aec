// Package pipeline реализует конвейер проверки номеров: разбор загруженного файла,
// нормализацию, классификацию через внешний механизм проверки, агрегацию результатов
// и выгрузку (превью в чат + файловые артефакты). Конвейер не знает ни о Bot API,
// ни о MTProto: внешний мир приходит сюда через интерфейсы Classifier и Pacer.
package pipeline

// RawRecord — одна строка входного файла до нормализации: номер и необязательный
// текст сообщения из колонки "message". Порядок записей равен порядку строк файла;
// записи не мутируются и отбрасываются после нормализации.
type RawRecord struct {
	Number  string
	Message string
}

// Record — нормализованная запись: номер гарантированно начинается с "+".
// Index — порядковый номер исходной строки; все производные представления
// сохраняют этот порядок.
type Record struct {
	Number  string
	Message string
	Index   int
}

// Status — терминальный исход классификации одного номера.
// Каждый номер проверяется не более одного раза за прогон; из терминального
// состояния переходов нет.
type Status int

const (
	// StatusRegistered — механизм проверки нашёл аккаунт с этим номером.
	StatusRegistered Status = iota
	// StatusNonRegistered — номер корректен, но аккаунта нет.
	StatusNonRegistered
	// StatusInvalid — backend счёл номер некорректным (например, PHONE_NUMBER_INVALID).
	StatusInvalid
	// StatusError — временная ошибка проверки (сеть, таймаут); не прерывает прогон.
	StatusError
)

// String возвращает человекочитаемое значение статуса — оно же пишется
// в колонку Status табличного артефакта.
func (s Status) String() string {
	switch s {
	case StatusRegistered:
		return "Registered"
	case StatusNonRegistered:
		return "Not Registered"
	case StatusInvalid:
		return "Invalid"
	case StatusError:
		return "Check Failed"
	default:
		return "Unknown"
	}
}

// Result — исход классификации одного номера. Создаётся один раз, далее неизменен.
type Result struct {
	Number  string
	Message string
	Status  Status
	Index   int
}

// Summary — счётчики одного прогона. Производная величина от результатов:
// Registered + NonRegistered <= TotalChecked (Invalid/Error входят только в total).
// JSON-теги фиксируют формат сохранённого состояния.
type Summary struct {
	TotalChecked  int `json:"totalChecked"`
	Registered    int `json:"registeredCount"`
	NonRegistered int `json:"nonRegisteredCount"`
}

// TickStyle — косметическое предпочтение пользователя: какими значками помечать
// статусы в сводках и merged-списке. Хранится в персистентном состоянии.
type TickStyle string

const (
	// StyleA — emoji-значки (по умолчанию).
	StyleA TickStyle = "a"
	// StyleB — ASCII-значки для клиентов без emoji.
	StyleB TickStyle = "b"
)

// Marks возвращает тройку значков (registered, non-registered, проблемный) для стиля.
// Неизвестный стиль трактуется как StyleA.
func (ts TickStyle) Marks() (ok, bad, warn string) {
	if ts == StyleB {
		return "[+]", "[-]", "[!]"
	}
	return "✅", "❌", "⚠️"
}

// Toggle возвращает противоположный стиль.
func (ts TickStyle) Toggle() TickStyle {
	if ts == StyleB {
		return StyleA
	}
	return StyleB
}
