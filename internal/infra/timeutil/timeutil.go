// Пакет timeutil содержит служебные функции для работы со временем:
// разбор таймзоны приложения из конфигурации (IANA-имя или UTC-смещение).
package timeutil

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ParseLocation разбирает либо IANA-таймзону (например, "Europe/Moscow"),
// либо UTC-смещение (например, "+03:00", "-0700", "UTC+3", "GMT-04:30").
// Возвращает *time.Location или ошибку.
func ParseLocation(value string) (*time.Location, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return nil, errors.New("empty timezone")
	}
	// Сначала пробуем IANA.
	if loc, err := time.LoadLocation(v); err == nil {
		return loc, nil
	}
	if loc, ok := ParseUTCOffsetToLocation(v); ok {
		return loc, nil
	}
	return nil, fmt.Errorf("invalid timezone %q: not an IANA name or UTC offset", value)
}

// offsetRe описывает допустимые формы смещения: +HH, -HH, +HHMM, +HH:MM и т.п.
var offsetRe = regexp.MustCompile(`^([+-])\s*(\d{1,2})(?::?(\d{2}))?$`)

// ParseUTCOffsetToLocation парсит строки вида "+03:00", "-0700", "UTC+3", "GMT-04:30" или "Z".
// Возвращает фиксированную таймзону и ok=true при успешном разборе.
func ParseUTCOffsetToLocation(value string) (*time.Location, bool) {
	v := strings.TrimSpace(strings.ToUpper(value))
	if v == "Z" || v == "UTC" || v == "GMT" {
		return time.FixedZone("UTC+00:00", 0), true
	}
	v = strings.TrimPrefix(v, "UTC")
	v = strings.TrimPrefix(v, "GMT")
	v = strings.TrimSpace(v)

	m := offsetRe.FindStringSubmatch(v)
	if m == nil {
		return nil, false
	}
	sign := 1
	if m[1] == "-" {
		sign = -1
	}
	hours, err := strconv.Atoi(m[2])
	if err != nil {
		return nil, false
	}
	mins := 0
	if m[3] != "" {
		mins, err = strconv.Atoi(m[3])
		if err != nil {
			return nil, false
		}
	}
	if hours < 0 || hours > 14 || mins < 0 || mins > 59 {
		return nil, false
	}
	const (
		secInHour = 60 * 60
		secInMin  = 60
	)
	offset := sign * ((hours * secInHour) + (mins * secInMin))
	name := fmt.Sprintf("UTC%+03d:%02d", sign*hours, mins)
	return time.FixedZone(name, offset), true
}
