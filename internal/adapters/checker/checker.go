package checker

// Классификация одного номера через механизм импорта контактов:
// contacts.importContacts с единственным контактом, затем анализ ответа.
// Номер зарегистрирован, если импорт вернул сопоставленного пользователя;
// импортированный контакт сразу удаляется, чтобы не засорять адресную книгу
// сервисного аккаунта. Отдельные ошибки API про сам номер (невалидный,
// забаненный) трактуются как Invalid, всё остальное — как сбой проверки.

import (
	"context"
	"math/rand"

	"telegram-number-checker/internal/domain/pipeline"
	"telegram-number-checker/internal/infra/logger"
	"telegram-number-checker/internal/infra/pr"

	"github.com/go-faster/errors"
	"github.com/gotd/td/tg"
	"github.com/gotd/td/tgerr"
	"go.uber.org/zap"
)

// invalidNumberErrors — коды ошибок Telegram, означающие проблему с самим
// номером, а не со связью или аккаунтом проверки.
var invalidNumberErrors = []string{
	"PHONE_NUMBER_INVALID",
	"PHONE_NUMBER_BANNED",
}

// Checker выполняет одиночные проверки номеров через Telegram API.
// Реализует pipeline.Classifier. Потокобезопасность не требуется: прогон
// последовательный, а клиент gotd сам сериализует запросы.
type Checker struct {
	api *tg.Client
}

// New создаёт классификатор поверх готового (авторизованного) API-клиента.
func New(api *tg.Client) *Checker {
	return &Checker{api: api}
}

// Компиляторная проверка соответствия интерфейсу классификатора прогона.
var _ pipeline.Classifier = (*Checker)(nil)

// Check классифицирует один номер. Выполняет ровно одну попытку: ретраи
// и паузы между номерами принадлежат циклу прогона, FLOOD_WAIT обрабатывает
// middleware клиента.
func (c *Checker) Check(ctx context.Context, number string) (pipeline.Status, error) {
	// ClientID — локальный идентификатор контакта в запросе; случайное значение
	// исключает коллизии между последовательными импортами.
	clientID := rand.Int63() // #nosec G404

	imported, err := c.api.ContactsImportContacts(ctx, []tg.InputPhoneContact{{
		ClientID:  clientID,
		Phone:     number,
		FirstName: "Lookup",
		LastName:  "Probe",
	}})
	if err != nil {
		if tgerr.Is(err, invalidNumberErrors...) {
			return pipeline.StatusInvalid, errors.Wrap(err, "import contact")
		}
		return pipeline.StatusError, errors.Wrap(err, "import contact")
	}

	if logger.IsDebugEnabled() {
		logger.Debugf("importContacts response: %s", pr.Pf(imported))
	}
	if len(imported.RetryContacts) > 0 {
		logger.Warn("import asked to retry contact",
			zap.String("number", number),
			zap.Int64s("retry_contacts", imported.RetryContacts),
		)
	}

	user, ok := matchImported(imported, clientID)
	if !ok {
		// Импорт прошёл, но пользователь не сопоставлен: номера нет в Telegram.
		return pipeline.StatusNonRegistered, nil
	}

	// Сопоставленный контакт удаляется всегда, даже если статус уже известен.
	if _, derr := c.api.ContactsDeleteContacts(ctx, []tg.InputUserClass{user.AsInput()}); derr != nil {
		logger.Warn("delete imported contact",
			zap.String("number", number),
			zap.Int64("user_id", user.ID),
			zap.Error(derr),
		)
	}

	return pipeline.StatusRegistered, nil
}

// matchImported находит пользователя, сопоставленного нашему ClientID,
// в ответе importContacts. Возвращает ok=false, если Telegram не сопоставил
// контакт или не вернул полноценную сущность пользователя.
func matchImported(res *tg.ContactsImportedContacts, clientID int64) (*tg.User, bool) {
	var userID int64
	found := false
	for _, imp := range res.Imported {
		if imp.ClientID == clientID {
			userID = imp.UserID
			found = true
			break
		}
	}
	if !found {
		return nil, false
	}

	for _, u := range res.Users {
		user, ok := u.(*tg.User)
		if !ok {
			continue
		}
		if user.ID == userID {
			return user, true
		}
	}
	return nil, false
}
