// Package app — верхний уровень сборки приложения: здесь связываются
// конфигурация, персистентное состояние (bbolt), реестр пользовательских
// сессий, MTProto-клиент проверки и фронтенд на Bot API. Отсюда стартуют оба
// подключения Telegram и обеспечивается корректный порядок остановки.
package app

import (
	"context"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"telegram-number-checker/internal/adapters/botapi"
	"telegram-number-checker/internal/adapters/checker"
	"telegram-number-checker/internal/domain/sessions"
	"telegram-number-checker/internal/domain/state"
	"telegram-number-checker/internal/infra/config"
	"telegram-number-checker/internal/infra/logger"
	"telegram-number-checker/internal/infra/pr"
)

// App агрегирует зависимости и управляет их жизненным циклом.
type App struct {
	mainCtx    context.Context    // Контекст жизненного цикла приложения.
	mainCancel context.CancelFunc // Инициирует общий shutdown.

	store *state.Store       // Персистентное состояние пользователей (bbolt).
	reg   *sessions.Registry // Оперативные сессии с TTL-выселением.
	svc   *checker.Service   // MTProto-клиент проверки номеров.
	bot   *botapi.Bot        // Фронтенд на Bot API.
}

// NewApp создаёт каркас приложения. Фактическая инициализация выполняется в Init().
func NewApp(mainCtx context.Context, mainCancel context.CancelFunc) *App {
	return &App{
		mainCtx:    mainCtx,
		mainCancel: mainCancel,
	}
}

// Init собирает зависимости в правильном порядке: хранилище состояния,
// реестр сессий, MTProto-клиент, затем бот поверх них.
func (a *App) Init() error {
	env := config.Env()

	store, err := state.Open(env.StateFile)
	if err != nil {
		return errors.Wrap(err, "open state store")
	}
	a.store = store

	a.reg = sessions.NewRegistry(sessionTTL(env.SessionTTLMin))
	a.svc = checker.NewService(env)

	bot, err := botapi.New(env, a.reg, a.store, a.svc)
	if err != nil {
		return errors.Wrap(err, "init bot")
	}
	a.bot = bot
	return nil
}

// Run запускает оба подключения Telegram и блокируется до shutdown.
// MTProto-клиент живёт в отдельной горутине; его фатальная ошибка гасит
// всё приложение, потому что без него проверки невозможны.
func (a *App) Run() error {
	logger.Info("Number checker initializing...")

	a.reg.Start(a.mainCtx)
	defer a.reg.Stop()
	defer a.closeStore()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := a.svc.Run(a.mainCtx); err != nil && a.mainCtx.Err() == nil {
			logger.Error("checker client stopped", zap.Error(err))
			a.mainCancel()
		}
	}()

	botErr := a.bot.Run(a.mainCtx)

	// Бот вышел (по сигналу или из-за ошибки) — гасим остальное и ждём клиента.
	// Если MTProto-клиент завис на интерактивном вводе кода авторизации,
	// закрываем cancelable stdin, иначе wg.Wait() не дождётся его завершения.
	a.mainCancel()
	if pr.Rl() != nil {
		pr.InterruptReadline()
	}
	wg.Wait()

	if botErr != nil && !errors.Is(botErr, context.Canceled) {
		return errors.Wrap(botErr, "bot run")
	}
	return nil
}

func (a *App) closeStore() {
	if a.store == nil {
		return
	}
	if err := a.store.Close(); err != nil {
		logger.Error("close state store", zap.Error(err))
	}
}

func sessionTTL(minutes int) time.Duration {
	return time.Duration(minutes) * time.Minute
}
