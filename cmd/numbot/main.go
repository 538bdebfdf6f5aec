package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"telegram-number-checker/internal/app"
	"telegram-number-checker/internal/infra/config"
	"telegram-number-checker/internal/infra/logger"
	"telegram-number-checker/internal/infra/pr"
	"telegram-number-checker/internal/infra/timeutil"
)

func main() {
	if err := pr.Init(); err != nil {
		logger.Fatal("failed to assigning stdout and stderr", zap.Error(err))
	}

	// envPath определяет расположение .env с секретами и общими настройками.
	envPath := flag.String("env", "assets/.env", "path to .env file")
	flag.Parse()

	if err := config.Load(*envPath); err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}
	// Применяем часовую зону приложения (поддерживает IANA и UTC-смещение). Влияет глобально на time.Local.
	if locApp, err := timeutil.ParseLocation(config.Env().AppTimezone); err != nil {
		logger.Fatal("failed to parse APP_TIMEZONE", zap.Error(err))
	} else {
		time.Local = locApp //nolint:reassign // намеренно задаём часовую зону процесса
	}

	// logger.Init задаёт уровень, SetWriters перенаправляет выводы в pr (логи не ломают readline-приглашения).
	logger.Init(config.Env().LogLevel)
	if config.Env().LogFile != "" {
		logger.InitFile(logger.FileConfig{
			Path:       config.Env().LogFile,
			Level:      config.Env().LogFileLevel,
			MaxSizeMB:  config.Env().LogFileMaxSize,
			MaxBackups: config.Env().LogFileMaxBackups,
			MaxAgeDays: config.Env().LogFileMaxAge,
			Compress:   config.Env().LogFileCompress,
		})
	}
	logger.SetWriters(pr.Stdout(), pr.Stderr())
	for _, msg := range config.Warnings() {
		logger.Warn(msg)
	}

	// Контекст с обработкой системных сигналов (Ctrl+C/SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	a := app.NewApp(ctx, stop)
	if iniErr := a.Init(); iniErr != nil {
		stop()
		logger.Fatal("app init failed", zap.Error(iniErr))
	}

	if runErr := a.Run(); runErr != nil {
		stop()
		logger.Fatal("app run failed", zap.Error(runErr))
	}
	stop()
	logger.Info("Graceful shutdown complete")
}
