// Package botapi — фронтенд бота на Telegram Bot API: приём загрузок,
// клавиатура действий, доставка превью и файловых артефактов.
//
// В этом файле (sender.go) — исходящий канал: все обращения к Bot API идут
// через общий троттлер с ретраями. Серверный retry_after соблюдается точно,
// постоянные 4xx-ошибки ретраи прекращают немедленно.
package botapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-number-checker/internal/infra/throttle"
)

// maxSendRetries ограничивает повторные попытки доставки одного сообщения.
const maxSendRetries = 5

// permanentSendError помечает ошибку Bot API как неретраибельную.
// Реализует throttle.StopRetryer.
type permanentSendError struct {
	err error
}

func (e *permanentSendError) Error() string { return e.err.Error() }
func (e *permanentSendError) Unwrap() error { return e.err }
func (e *permanentSendError) StopRetry() bool {
	return true
}

// Компиляторная проверка соответствия контракту троттлера.
var _ throttle.StopRetryer = (*permanentSendError)(nil)

// RetryAfterExtractor создаёт throttle.WaitExtractor, извлекающий retry_after
// из ошибок Bot API. Интервал сервера соблюдается как есть, без джиттера.
func RetryAfterExtractor() throttle.WaitExtractor {
	return func(err error) (time.Duration, bool) {
		if err == nil {
			return 0, false
		}
		apiErr, ok := asBotAPIError(err)
		if !ok || apiErr.ResponseParameters.RetryAfter <= 0 {
			return 0, false
		}
		return time.Duration(apiErr.ResponseParameters.RetryAfter) * time.Second, true
	}
}

// Sender выполняет исходящие запросы Bot API через общий троттлер.
type Sender struct {
	api *tgbotapi.BotAPI
	th  *throttle.Throttler
}

// NewSender создаёт отправителя с целевым темпом rps запросов в секунду.
func NewSender(api *tgbotapi.BotAPI, rps int) *Sender {
	return &Sender{
		api: api,
		th: throttle.New(rps,
			throttle.WithMaxRetries(maxSendRetries),
			throttle.WithWaitExtractors(RetryAfterExtractor()),
		),
	}
}

// Start запускает троттлер. Обязателен до первого Send/Request.
func (s *Sender) Start(ctx context.Context) {
	s.th.Start(ctx)
}

// Stop останавливает троттлер и дожидается фоновой горутины пополнения.
func (s *Sender) Stop() {
	s.th.Stop()
}

// Send доставляет Chattable (текст, документ, клавиатуру) с ретраями.
func (s *Sender) Send(ctx context.Context, c tgbotapi.Chattable) (tgbotapi.Message, error) {
	var sent tgbotapi.Message
	err := s.th.Do(ctx, func() error {
		m, serr := s.api.Send(c)
		if serr != nil {
			return classifySendError(serr)
		}
		sent = m
		return nil
	})
	return sent, err
}

// Request выполняет запрос без интересного ответа (answerCallbackQuery и т.п.).
func (s *Sender) Request(ctx context.Context, c tgbotapi.Chattable) error {
	return s.th.Do(ctx, func() error {
		if _, rerr := s.api.Request(c); rerr != nil {
			return classifySendError(rerr)
		}
		return nil
	})
}

// classifySendError отделяет постоянные ошибки Bot API от временных:
// 4xx без retry_after повторять бессмысленно, 429 и 5xx — временные.
func classifySendError(err error) error {
	apiErr, ok := asBotAPIError(err)
	if !ok {
		return err
	}
	if apiErr.Code == http.StatusTooManyRequests || apiErr.ResponseParameters.RetryAfter > 0 {
		return err
	}
	if apiErr.Code >= 400 && apiErr.Code < 500 {
		return &permanentSendError{err: err}
	}
	return err
}

// asBotAPIError достаёт *tgbotapi.Error из цепочки ошибок.
func asBotAPIError(err error) (*tgbotapi.Error, bool) {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
