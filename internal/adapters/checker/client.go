package checker

// Service — MTProto-подключение сервисного аккаунта, через который выполняются
// проверки номеров. Живёт в собственной горутине весь срок работы процесса:
// авторизуется при старте, сигнализирует готовность через закрытие канала и
// держит соединение до отмены контекста. Обработчики бота дожидаются готовности
// через WaitReady и дальше работают с API().

import (
	"context"

	"telegram-number-checker/internal/infra/config"
	"telegram-number-checker/internal/infra/logger"
	"telegram-number-checker/internal/support/version"

	"github.com/go-faster/errors"
	"github.com/gotd/contrib/middleware/floodwait"
	"github.com/gotd/contrib/middleware/ratelimit"
	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/telegram/dcs"
	"github.com/gotd/td/tg"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Service управляет жизненным циклом MTProto-клиента проверки.
type Service struct {
	client *telegram.Client
	waiter *floodwait.Waiter
	ready  chan struct{}
}

// NewService собирает клиента gotd по конфигурации: файловая сессия,
// обработка FLOOD_WAIT и общий лимит темпа запросов поверх всех вызовов API.
func NewService(env config.EnvConfig) *Service {
	waiter := floodwait.NewWaiter()

	options := telegram.Options{
		SessionStorage: &FileStorage{Path: env.SessionFile},
		Middlewares: []telegram.Middleware{
			waiter,
			ratelimit.New(
				rate.Limit(env.CheckRPS),
				env.CheckRPS*2, //nolint:mnd // burst = 2*rate
			),
		},
		Device: telegram.DeviceConfig{
			DeviceModel:   "MacBookPro18,1",
			SystemVersion: "macOS v15.6.1 build 24G90",
			AppVersion:    version.Version,
		},
	}

	// Для тестовых окружений используем DC тестового стенда Telegram.
	if env.TestDC {
		options.DCList = dcs.Test()
	}

	return &Service{
		client: telegram.NewClient(env.APIID, env.APIHash, options),
		waiter: waiter,
		ready:  make(chan struct{}),
	}
}

// Run блокируется до отмены контекста: выполняет авторизацию, публикует
// готовность и удерживает соединение. Ошибка до готовности означает, что
// проверки в этом процессе не заработают, и вызывающий должен гасить процесс.
func (s *Service) Run(ctx context.Context) error {
	return s.waiter.Run(ctx, func(ctx context.Context) error {
		return s.client.Run(ctx, func(ctx context.Context) error {
			if err := s.login(ctx); err != nil {
				return err
			}

			close(s.ready)
			<-ctx.Done()
			return ctx.Err()
		})
	})
}

// WaitReady блокируется, пока клиент не авторизуется, либо пока не отменят контекст.
func (s *Service) WaitReady(ctx context.Context) error {
	select {
	case <-s.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// API возвращает клиента Telegram API. Валиден после WaitReady.
func (s *Service) API() *tg.Client {
	return s.client.API()
}

func (s *Service) login(ctx context.Context) error {
	flow := auth.NewFlow(
		TerminalAuthenticator{PhoneNumber: config.Env().PhoneNumber},
		auth.SendCodeOptions{},
	)

	if err := s.client.Auth().IfNecessary(ctx, flow); err != nil {
		return errors.Wrap(err, "auth")
	}

	self, err := s.client.Self(ctx)
	if err != nil {
		return errors.Wrap(err, "self")
	}
	logger.Logger().Info("Checker logged in as:",
		zap.String("FirstName", self.FirstName),
		zap.String("Username", self.Username),
		zap.Int64("ID", self.ID),
	)
	return nil
}
