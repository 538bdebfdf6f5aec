// Package logger — централизованная обёртка над zap для всего приложения.
// Позволяет инициализировать уровень логирования, форматирование, переназначать целевые
// потоки (stdout/stderr) на лету и дополнительно включать файловый лог с ротацией
// (lumberjack). Использует zap.AtomicLevel для динамической смены уровня и mutex для
// потокобезопасности.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// FileConfig описывает параметры файлового лога с ротацией. Path — путь до файла;
// пустой Path означает «файловый лог выключен».
type FileConfig struct {
	Path       string
	Level      string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

var (
	// mu защищает доступ к глобальному состоянию логгера от одновременных изменений.
	mu sync.Mutex
	// log хранит текущий экземпляр zap.Logger, используемый во всём приложении.
	log *zap.Logger
	// logLevel управляет динамическим уровнем консольного вывода без пересоздания ядра.
	logLevel = zap.NewAtomicLevelAt(zap.InfoLevel)
	// stdoutWriter определяет поток для стандартного вывода логов.
	stdoutWriter = zapcore.Lock(zapcore.AddSync(os.Stdout))
	// stderrWriter определяет поток для вывода ошибок логгера.
	stderrWriter = zapcore.Lock(zapcore.AddSync(os.Stderr))
	// fileCore — опциональное файловое ядро (nil, когда файловый лог не настроен).
	fileCore zapcore.Core
)

// defaultEncoderConfig формирует консольный encoder с цветами и коротким caller.
// Формат времени фиксирован (YYYY-MM-DD HH:MM:SS).
func defaultEncoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalColorLevelEncoder,
		EncodeTime:     zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05"),
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

// fileEncoderConfig — encoder для файлового лога: без цветов, JSON-пригодные ключи.
func fileEncoderConfig() zapcore.EncoderConfig {
	cfg := defaultEncoderConfig()
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return cfg
}

// rebuildLoggerLocked пересоздаёт глобальный логгер с текущими настройками потоков,
// уровнем и файловым ядром. Предполагается, что вызывающий уже удерживает mu.
// AddCallerSkip(1) скрывает обёртки logger.* в стеке вызовов. Перед заменой предыдущий
// логгер Sync(), чтобы сбросить буферы.
func rebuildLoggerLocked() {
	encoder := zapcore.NewConsoleEncoder(defaultEncoderConfig())
	core := zapcore.NewCore(encoder, stdoutWriter, logLevel)
	if fileCore != nil {
		core = zapcore.NewTee(core, fileCore)
	}
	if log != nil {
		_ = log.Sync()
	}
	log = zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1), zap.ErrorOutput(stderrWriter))
}

// parseLevel переводит строку в zapcore.Level; неизвестные значения дают Info.
func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zap.DebugLevel
	case "warn":
		return zap.WarnLevel
	case "error":
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}

// Init инициализирует глобальный zap-логгер и настраивает уровень консольного вывода.
// Допустимые уровни: debug, info (по умолчанию), warn, error; сравнение без учёта регистра.
// Потокобезопасно.
func Init(level string) {
	mu.Lock()
	defer mu.Unlock()

	logLevel.SetLevel(parseLevel(level))
	rebuildLoggerLocked()
}

// InitFile включает файловый лог с ротацией поверх консольного. Пустой cfg.Path
// отключает файловое ядро. Уровень файла независим от консольного (обычно debug).
// Потокобезопасно; можно вызывать повторно для переконфигурации.
func InitFile(cfg FileConfig) {
	mu.Lock()
	defer mu.Unlock()

	if strings.TrimSpace(cfg.Path) == "" {
		fileCore = nil
		rebuildLoggerLocked()
		return
	}

	sink := zapcore.AddSync(&lumberjack.Logger{
		Filename:   cfg.Path,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	})
	fileCore = zapcore.NewCore(
		zapcore.NewConsoleEncoder(fileEncoderConfig()),
		sink,
		zap.NewAtomicLevelAt(parseLevel(cfg.Level)),
	)
	rebuildLoggerLocked()
}

// SetWriters переназначает целевые потоки консольного ядра и пересобирает core.
// Можно вызывать в рантайме (например, чтобы писать в буферы readline через pr).
// Nil означает Stdout/Stderr по умолчанию. Потокобезопасно.
func SetWriters(stdout, stderr io.Writer) {
	mu.Lock()
	defer mu.Unlock()

	if stdout == nil {
		stdoutWriter = zapcore.Lock(zapcore.AddSync(os.Stdout))
	} else {
		stdoutWriter = zapcore.Lock(zapcore.AddSync(stdout))
	}
	if stderr == nil {
		stderrWriter = zapcore.Lock(zapcore.AddSync(os.Stderr))
	} else {
		stderrWriter = zapcore.Lock(zapcore.AddSync(stderr))
	}

	rebuildLoggerLocked()
}

// Logger возвращает текущий zap.Logger, лениво создавая его при первом обращении.
// Возвращается "сырое" API (не Sugared); предпочтительнее передавать структурированные zap.Field.
func Logger() *zap.Logger {
	mu.Lock()
	defer mu.Unlock()

	if log == nil {
		rebuildLoggerLocked()
	}
	return log
}

// IsDebugEnabled проверяет, включен ли debug уровень консольного логирования.
func IsDebugEnabled() bool {
	return Logger().Level() <= zap.DebugLevel
}

// Debug пишет структурированное сообщение уровня Debug.
func Debug(msg string, fields ...zap.Field) { Logger().Debug(msg, fields...) }

// Info пишет структурированное сообщение уровня Info.
func Info(msg string, fields ...zap.Field) { Logger().Info(msg, fields...) }

// Warn пишет структурированное предупреждение уровня Warn.
func Warn(msg string, fields ...zap.Field) { Logger().Warn(msg, fields...) }

// Error пишет структурированное сообщение об ошибке уровня Error.
func Error(msg string, fields ...zap.Field) { Logger().Error(msg, fields...) }

// Fatal пишет структурированное сообщение уровня Fatal и завершает работу приложения.
func Fatal(msg string, fields ...zap.Field) {
	Logger().Fatal(msg, fields...)
	_ = Logger().Sync() // Обязательно сбросить буферы перед os.Exit
	os.Exit(1)
}

// Debugf форматирует сообщение через fmt.Sprintf. Используйте экономно:
// форматирование аллоцирует; для горячих путей предпочтительны структурированные поля.
func Debugf(msg string, a ...any) { Logger().Debug(fmt.Sprintf(msg, a...)) }

// Infof форматирует сообщение через fmt.Sprintf. Для горячих путей лучше Info с полями.
func Infof(msg string, a ...any) { Logger().Info(fmt.Sprintf(msg, a...)) }

// Warnf форматирует сообщение через fmt.Sprintf.
func Warnf(msg string, a ...any) { Logger().Warn(fmt.Sprintf(msg, a...)) }

// Errorf форматирует сообщение через fmt.Sprintf.
func Errorf(msg string, a ...any) { Logger().Error(fmt.Sprintf(msg, a...)) }
