package pipeline

// Оркестрация одного прогона. Номера проверяются строго последовательно;
// обязательная пауза между обращениями к backend принадлежит циклу прогона,
// а не классификатору (тот выполняет ровно одну попытку на номер).
// Отмена контекста прекращает выдачу новых запросов, но уже собранные
// результаты возвращаются вызывающему и идут в обычный путь агрегации.

import (
	"context"

	"go.uber.org/zap"

	"telegram-number-checker/internal/infra/logger"
)

// Classifier выполняет одиночную проверку номера во внешнем механизме.
// Возвращаемый Status всегда валиден; ошибка носит диагностический характер
// и сопровождает StatusInvalid/StatusError. Ретраев у классификатора нет.
type Classifier interface {
	Check(ctx context.Context, number string) (Status, error)
}

// Pacer задаёт минимальный интервал между проверками. *rate.Limiter
// удовлетворяет этому интерфейсу.
type Pacer interface {
	Wait(ctx context.Context) error
}

// Run последовательно классифицирует записи и возвращает результаты в исходном
// порядке. Ошибка уровня прогона возможна только из-за отмены контекста;
// частичные результаты при этом всё равно возвращаются. Ошибки отдельных
// номеров изолированы и фиксируются как StatusError.
func Run(ctx context.Context, records []Record, cl Classifier, pacer Pacer) ([]Result, error) {
	results := make([]Result, 0, len(records))

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		// Защита от записей, просочившихся мимо нормализации: пустой номер
		// не отправляется в backend, а сразу помечается Invalid.
		if rec.Number == "" || rec.Number == "+" {
			results = append(results, Result{
				Number: rec.Number, Message: rec.Message, Status: StatusInvalid, Index: rec.Index,
			})
			continue
		}

		if err := pacer.Wait(ctx); err != nil {
			return results, err
		}

		status, err := cl.Check(ctx, rec.Number)
		if ctx.Err() != nil {
			// Прерванная на середине проверка не классифицирует номер:
			// он остаётся непроверенным и не попадает в результаты.
			return results, ctx.Err()
		}
		if err != nil {
			logger.Warn("number check problem",
				zap.String("number", rec.Number),
				zap.Stringer("status", status),
				zap.Error(err),
			)
		}

		results = append(results, Result{
			Number:  rec.Number,
			Message: rec.Message,
			Status:  status,
			Index:   rec.Index,
		})
	}

	return results, nil
}
