// Package sessions — оперативное состояние диалога с пользователем бота.
// Registry хранит по одному слоту на пользователя: загруженные записи,
// результаты последнего прогона и флаг активной проверки. Слоты живут в памяти
// и вычищаются фоновым джанитором после периода бездействия; персистентная
// часть состояния (стиль значков, последние итоги) лежит отдельно в bbolt.

package sessions

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"telegram-number-checker/internal/domain/pipeline"
	"telegram-number-checker/internal/infra/logger"
)

// ErrRunActive возвращается попыткой начать прогон, пока предыдущий не завершён.
// Параллельные проверки одного пользователя не поддерживаются: повторная команда
// отклоняется, а не ставится в очередь.
var ErrRunActive = &runActiveError{}

type runActiveError struct{}

func (*runActiveError) Error() string { return "a check is already in progress" }

// session — слот одного пользователя. Все поля защищены мьютексом Registry.
type session struct {
	records  []pipeline.Record
	results  []pipeline.Result
	running  bool
	cancel   context.CancelFunc // cancel прерывает активный прогон; nil вне прогона.
	lastSeen time.Time
}

// Registry — потокобезопасная карта слотов пользователей с TTL-выселением.
// Слот с активным прогоном не выселяется независимо от давности lastSeen.
type Registry struct {
	mu   sync.Mutex
	byID map[int64]*session
	ttl  time.Duration

	runMu  sync.Mutex         // runMu защищает старт/остановку фоновой горутины выселения.
	cancel context.CancelFunc // cancel завершает цикл выселения, если он был запущен.
	wg     sync.WaitGroup
}

// NewRegistry создаёт реестр со временем жизни бездействующего слота ttl.
// Неположительный ttl отключает выселение: слоты живут до рестарта процесса.
func NewRegistry(ttl time.Duration) *Registry {
	return &Registry{
		byID: make(map[int64]*session),
		ttl:  ttl,
	}
}

// Start поднимает фоновую горутину выселения простаивающих слотов. Повторные
// вызовы безопасны и игнорируются.
func (r *Registry) Start(ctx context.Context) {
	if ctx == nil || r.ttl <= 0 {
		return
	}

	r.runMu.Lock()
	defer r.runMu.Unlock()

	if r.cancel != nil {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				r.evictStale()
			}
		}
	}()
}

// Stop завершает фоновое выселение и дожидается его окончания.
func (r *Registry) Stop() {
	r.runMu.Lock()
	cancel := r.cancel
	r.cancel = nil
	r.runMu.Unlock()

	if cancel == nil {
		return
	}

	cancel()
	r.wg.Wait()
}

// PutRecords заменяет загруженные записи пользователя новой пачкой.
// Новая загрузка перечёркивает прошлую: прежние записи и результаты обнуляются.
func (r *Registry) PutRecords(userID int64, records []pipeline.Record) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.slot(userID)
	s.records = records
	s.results = nil
	s.lastSeen = time.Now()
}

// Records возвращает записи пользователя. Второе значение false, когда
// загрузки ещё не было или слот уже выселен.
func (r *Registry) Records(userID int64) ([]pipeline.Record, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.byID[userID]
	if !ok || s.records == nil {
		return nil, false
	}
	s.lastSeen = time.Now()
	return s.records, true
}

// Results возвращает результаты последнего завершённого прогона.
func (r *Registry) Results(userID int64) ([]pipeline.Result, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.byID[userID]
	if !ok || s.results == nil {
		return nil, false
	}
	s.lastSeen = time.Now()
	return s.results, true
}

// Running сообщает, идёт ли у пользователя проверка прямо сейчас.
func (r *Registry) Running(userID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.byID[userID]
	return ok && s.running
}

// BeginRun помечает слот как выполняющий прогон и возвращает производный
// контекст, который CancelRun умеет прервать. Второй прогон того же
// пользователя отклоняется с ErrRunActive до вызова FinishRun.
func (r *Registry) BeginRun(ctx context.Context, userID int64) (context.Context, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.slot(userID)
	if s.running {
		return nil, ErrRunActive
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.running = true
	s.cancel = cancel
	s.lastSeen = time.Now()
	return runCtx, nil
}

// FinishRun снимает флаг прогона и фиксирует его результаты (в том числе
// частичные после отмены). Вызывается ровно один раз на каждый BeginRun.
func (r *Registry) FinishRun(userID int64, results []pipeline.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.byID[userID]
	if !ok {
		return
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.running = false
	s.results = results
	s.lastSeen = time.Now()
}

// CancelRun прерывает активный прогон пользователя. Возвращает false, если
// прерывать нечего. Слот остаётся помеченным running до FinishRun: частичные
// результаты доезжают обычным путём.
func (r *Registry) CancelRun(userID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.byID[userID]
	if !ok || !s.running || s.cancel == nil {
		return false
	}
	s.cancel()
	s.cancel = nil
	return true
}

// slot возвращает существующий слот или создаёт пустой. Вызывается под r.mu.
func (r *Registry) slot(userID int64) *session {
	s, ok := r.byID[userID]
	if !ok {
		s = &session{lastSeen: time.Now()}
		r.byID[userID] = s
	}
	return s
}

// evictStale удаляет слоты, простаивающие дольше ttl. Слоты с активным
// прогоном пропускаются.
func (r *Registry) evictStale() {
	r.mu.Lock()
	defer r.mu.Unlock()

	deadline := time.Now().Add(-r.ttl)
	for id, s := range r.byID {
		if s.running || s.lastSeen.After(deadline) {
			continue
		}
		delete(r.byID, id)
		logger.Debug("session evicted", zap.Int64("user_id", id))
	}
}
