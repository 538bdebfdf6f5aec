// Пакет config отвечает за сбор и предоставление конфигурации всего приложения
// (бот проверки номеров). Он:
//  1. читает переменные окружения из .env (через godotenv),
//  2. нормализует и валидирует входные значения,
//  3. предоставляет доступ к результату через singleton-снимок.
//
// Бизнес-контекст: приложение держит два подключения к Telegram — бота (Bot API),
// принимающего файлы с номерами, и MTProto-аккаунт, через который выполняется
// проверка регистрации (импорт/удаление контакта). Конфиг среды управляет учетными
// данными обоих подключений, темпом проверок, путями локальных файлов и логированием.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"telegram-number-checker/internal/infra/timeutil"

	"github.com/joho/godotenv"
)

// EnvConfig описывает параметры, приходящие из окружения (.env). Это «операционные»
// настройки запуска: учетные данные MTProto и Bot API, файлы сессии и состояния,
// темп проверок, лог-уровень и т. д.
//
// NB: значения уже проходят минимальную валидацию и нормализацию в loadConfig.
// В рантайме по месту использования предполагается, что EnvConfig последователен.
type EnvConfig struct {
	APIID       int
	APIHash     string
	PhoneNumber string
	BotToken    string
	SessionFile string
	StateFile   string
	DownloadDir string
	LogLevel    string
	// CheckRPS задаёт темп обращений к механизму проверки (запросов в секунду).
	// Значение 1 соответствует обязательной паузе ~1с между номерами.
	CheckRPS      int
	SessionTTLMin int
	PreviewLimit  int
	TestDC        bool
	AppTimezone   string
	// Файловое логирование
	LogFile           string
	LogFileLevel      string
	LogFileMaxSize    int
	LogFileMaxBackups int
	LogFileMaxAge     int
	LogFileCompress   bool
}

// Config хранит конфигурацию среды и накопленные при загрузке предупреждения.
type Config struct {
	Env      EnvConfig
	warnings []string
	mu       sync.RWMutex
}

// Значения по умолчанию для параметров окружения и связанных файлов.
const (
	defaultCheckRPS      = 1
	defaultSessionTTLMin = 60
	defaultPreviewLimit  = 50
	defaultLogLevel      = "info"
	defaultSessionFile   = "data/session.bin"
	defaultStateFile     = "data/state.bbolt"
	defaultDownloadDir   = "data/uploads"
	defaultAppTimezone   = "UTC"
	// Файловое логирование (LOG_FILE не имеет дефолта - должен быть явно указан для активации)
	defaultLogFileLevel      = "debug"
	defaultLogFileMaxSize    = 50
	defaultLogFileMaxBackups = 3
	defaultLogFileMaxAge     = 7
	defaultLogFileCompress   = true
)

var (
	cfgInstance *Config
	cfgDone     bool
)

// Load — точка входа для инициализации глобальной конфигурации всего приложения.
// При первом вызове читает .env, формирует EnvConfig и фиксирует результат в
// singleton cfgInstance. Повторный вызов запрещен (возвращается ошибка), чтобы
// избежать гонок конфигурации на старте.
func Load(envPath string) error {
	if cfgDone {
		return errors.New("config already loaded")
	}
	newCfg, err := loadConfig(envPath)
	if err != nil {
		return err
	}
	cfgInstance = newCfg
	cfgDone = true
	return nil
}

// loadConfig выполняет фактическую загрузку/валидацию без установки глобального
// состояния. Удобно для тестов: можно собрать временный Config и проверить его.
func loadConfig(envPath string) (*Config, error) {
	if err := godotenv.Load(envPath); err != nil {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	apiID, err := parseRequiredInt("API_ID")
	if err != nil {
		return nil, err
	}

	apiHash := strings.TrimSpace(os.Getenv("API_HASH"))
	if apiHash == "" {
		return nil, errors.New("env API_HASH must be set")
	}

	phone := strings.TrimSpace(os.Getenv("PHONE_NUMBER"))
	if phone == "" {
		return nil, errors.New("env PHONE_NUMBER must be set")
	}

	botToken := strings.TrimSpace(os.Getenv("BOT_TOKEN"))
	if botToken == "" {
		return nil, errors.New("env BOT_TOKEN must be set")
	}

	var warnings []string

	checkRPS := parseIntDefault("CHECK_RPS", defaultCheckRPS, greaterThanZero, &warnings)
	sessionTTL := parseIntDefault("SESSION_TTL_MIN", defaultSessionTTLMin, greaterThanZero, &warnings)
	previewLimit := parseIntDefault("PREVIEW_LIMIT", defaultPreviewLimit, greaterThanZero, &warnings)
	logLevel := sanitizeLogLevel(os.Getenv("LOG_LEVEL"), defaultLogLevel, &warnings)
	sessionFile := sanitizeFile("SESSION_FILE", os.Getenv("SESSION_FILE"), defaultSessionFile, &warnings)
	stateFile := sanitizeFile("STATE_FILE", os.Getenv("STATE_FILE"), defaultStateFile, &warnings)
	downloadDir := sanitizeFile("DOWNLOAD_DIR", os.Getenv("DOWNLOAD_DIR"), defaultDownloadDir, &warnings)
	testDC := strings.EqualFold(strings.TrimSpace(os.Getenv("TEST_DC")), "true")
	appTimezone := sanitizeTimezoneFlexible(os.Getenv("APP_TIMEZONE"), defaultAppTimezone, &warnings)
	logFile := strings.TrimSpace(os.Getenv("LOG_FILE"))
	logFileLevel := sanitizeLogLevel(os.Getenv("LOG_FILE_LEVEL"), defaultLogFileLevel, &warnings)
	logFileMaxSize := parseIntDefault("LOG_FILE_MAX_SIZE_MB", defaultLogFileMaxSize, greaterThanZero, &warnings)
	logFileMaxBackups := parseIntDefault("LOG_FILE_MAX_BACKUPS", defaultLogFileMaxBackups, nonNegative, &warnings)
	logFileMaxAge := parseIntDefault("LOG_FILE_MAX_AGE_DAYS", defaultLogFileMaxAge, nonNegative, &warnings)
	logFileCompress := parseBoolDefault("LOG_FILE_COMPRESS", defaultLogFileCompress, &warnings)

	env := EnvConfig{
		APIID:         apiID,
		APIHash:       apiHash,
		PhoneNumber:   phone,
		BotToken:      botToken,
		SessionFile:   sessionFile,
		StateFile:     stateFile,
		DownloadDir:   downloadDir,
		LogLevel:      logLevel,
		CheckRPS:      checkRPS,
		SessionTTLMin: sessionTTL,
		PreviewLimit:  previewLimit,
		TestDC:        testDC,
		AppTimezone:   appTimezone,
		// Файловое логирование
		LogFile:           logFile,
		LogFileLevel:      logFileLevel,
		LogFileMaxSize:    logFileMaxSize,
		LogFileMaxBackups: logFileMaxBackups,
		LogFileMaxAge:     logFileMaxAge,
		LogFileCompress:   logFileCompress,
	}

	return &Config{
		Env:      env,
		warnings: warnings,
	}, nil
}

// Warnings возвращает накопленные предупреждения, возникшие при загрузке .env
// (например, когда подставлено значение по умолчанию). Возвращается копия.
func Warnings() []string {
	cfgInstance.mu.RLock()
	defer cfgInstance.mu.RUnlock()
	result := make([]string, len(cfgInstance.warnings))
	copy(result, cfgInstance.warnings)
	return result
}

// Env возвращает EnvConfig из глобального singleton. Это неизменяемый снимок
// на момент загрузки; для обновления надо перечитать конфиг целиком.
func Env() EnvConfig {
	return cfgInstance.Env
}

// parseRequiredInt читает обязательную целочисленную переменную окружения name.
// Если переменная не задана или не является корректным числом — возвращает ошибку.
// Используется для критичных параметров, без которых приложение не стартует.
func parseRequiredInt(name string) (int, error) {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return 0, fmt.Errorf("env %s must be set", name)
	}
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("env %s must be a valid integer: %w", name, err)
	}
	return v, nil
}

// parseIntDefault читает name как int. Если пусто/некорректно/не проходит
// дополнительную проверку validator — возвращает defaultVal и пишет предупреждение.
// Это позволяет не падать на несущественных настройках и иметь дефолты.
func parseIntDefault(name string, defaultVal int, validator func(int) bool, warnings *[]string) int {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		appendWarningf(warnings, "env %s is not set; using default %d", name, defaultVal)
		return defaultVal
	}
	v, err := strconv.Atoi(value)
	if err != nil {
		appendWarningf(warnings, "env %s value %q is not a valid integer; using default %d", name, value, defaultVal)
		return defaultVal
	}
	if validator != nil && !validator(v) {
		appendWarningf(warnings, "env %s value %d does not satisfy constraints; using default %d", name, v, defaultVal)
		return defaultVal
	}
	return v
}

// appendWarningf — служебная функция для накопления предупреждений о некорректных
// переменных окружения. Список затем доступен через Warnings().
func appendWarningf(warnings *[]string, format string, args ...any) {
	if warnings == nil {
		return
	}
	*warnings = append(*warnings, fmt.Sprintf(format, args...))
}

// greaterThanZero / nonNegative — простые валидаторы чисел. Используются в
// parseIntDefault, чтобы навязать смысловые ограничения без падения приложения.
func greaterThanZero(v int) bool { return v > 0 }
func nonNegative(v int) bool     { return v >= 0 }

// parseBoolDefault читает name как bool. Если пусто/некорректно — возвращает defaultVal и пишет предупреждение.
func parseBoolDefault(name string, defaultVal bool, warnings *[]string) bool {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		appendWarningf(warnings, "env %s is not set; using default %v", name, defaultVal)
		return defaultVal
	}
	v, err := strconv.ParseBool(value)
	if err != nil {
		appendWarningf(warnings, "env %s value %q is not a valid boolean; using default %v", name, value, defaultVal)
		return defaultVal
	}
	return v
}

// sanitizeLogLevel нормализует LOG_LEVEL и ограничивает значения набором
// {debug, info, warn, error}. Всё остальное превращается в defaultVal.
func sanitizeLogLevel(level string, defaultVal string, warnings *[]string) string {
	lvl := strings.ToLower(strings.TrimSpace(level))
	if lvl == "" {
		appendWarningf(warnings, "env LOG_LEVEL is not set; using default %q", defaultVal)
		return defaultVal
	}
	switch lvl {
	case "debug", "info", "warn", "error":
		return lvl
	default:
		appendWarningf(warnings, "env LOG_LEVEL value %q is invalid; using default %q", level, defaultVal)
		return defaultVal
	}
}

// sanitizeFile возвращает валидное имя файла/каталога конфигурации. Если переменная
// не задана, подставляет fallback и пишет предупреждение.
func sanitizeFile(name, value, fallback string, warnings *[]string) string {
	v := strings.TrimSpace(value)
	if v == "" {
		appendWarningf(warnings, "env %s is not set; using default %q", name, fallback)
		return fallback
	}
	return v
}

// sanitizeTimezoneFlexible проверяет, что значение — корректная IANA-зона или UTC-смещение.
// При неудаче возвращает значение по умолчанию и добавляет предупреждение.
func sanitizeTimezoneFlexible(value string, fallback string, warnings *[]string) string {
	v := strings.TrimSpace(value)
	if v == "" {
		appendWarningf(warnings, "env APP_TIMEZONE is not set; using default %q", fallback)
		return fallback
	}
	if _, err := timeutil.ParseLocation(v); err != nil {
		appendWarningf(warnings, "timezone %q is invalid; using default %q", v, fallback)
		return fallback
	}
	return v
}
