package pipeline_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"telegram-number-checker/internal/domain/pipeline"
)

// fakeClassifier раздаёт статусы по таблице и считает обращения.
type fakeClassifier struct {
	statuses map[string]pipeline.Status
	errs     map[string]error
	calls    []string

	cancelAfter int                // после скольких вызовов дёрнуть cancel (0 — никогда)
	cancel      context.CancelFunc
}

func (f *fakeClassifier) Check(_ context.Context, number string) (pipeline.Status, error) {
	f.calls = append(f.calls, number)
	if f.cancelAfter > 0 && len(f.calls) == f.cancelAfter {
		f.cancel()
	}
	st, ok := f.statuses[number]
	if !ok {
		st = pipeline.StatusNonRegistered
	}
	return st, f.errs[number]
}

// nopPacer не вносит пауз, но уважает отмену контекста, как rate.Limiter.
type nopPacer struct{}

func (nopPacer) Wait(ctx context.Context) error { return ctx.Err() }

func records(numbers ...string) []pipeline.Record {
	recs := make([]pipeline.Record, 0, len(numbers))
	for i, n := range numbers {
		recs = append(recs, pipeline.Record{Number: n, Index: i})
	}
	return recs
}

func TestRunSequentialOrder(t *testing.T) {
	t.Parallel()

	cl := &fakeClassifier{statuses: map[string]pipeline.Status{
		"+911111111": pipeline.StatusRegistered,
		"+922222222": pipeline.StatusNonRegistered,
	}}
	recs := records("+911111111", "+922222222")

	results, err := pipeline.Run(context.Background(), recs, cl, nopPacer{})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := []pipeline.Result{
		{Number: "+911111111", Status: pipeline.StatusRegistered, Index: 0},
		{Number: "+922222222", Status: pipeline.StatusNonRegistered, Index: 1},
	}
	if !reflect.DeepEqual(results, want) {
		t.Fatalf("Run() = %#v, want %#v", results, want)
	}
	if !reflect.DeepEqual(cl.calls, []string{"+911111111", "+922222222"}) {
		t.Fatalf("порядок обращений нарушен: %v", cl.calls)
	}

	summary := pipeline.Summarize(results)
	if summary != (pipeline.Summary{TotalChecked: 2, Registered: 1, NonRegistered: 1}) {
		t.Fatalf("итоги = %+v", summary)
	}
}

func TestRunIsolatesPerNumberErrors(t *testing.T) {
	t.Parallel()

	cl := &fakeClassifier{
		statuses: map[string]pipeline.Status{
			"+911111111": pipeline.StatusRegistered,
			"+922222222": pipeline.StatusError,
			"+933333333": pipeline.StatusInvalid,
			"+944444444": pipeline.StatusNonRegistered,
		},
		errs: map[string]error{
			"+922222222": errors.New("backend hiccup"),
			"+933333333": errors.New("rejected number"),
		},
	}
	recs := records("+911111111", "+922222222", "+933333333", "+944444444")

	results, err := pipeline.Run(context.Background(), recs, cl, nopPacer{})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(results) != len(recs) {
		t.Fatalf("получено %d результатов, want %d", len(results), len(recs))
	}

	// Проблемный номер не роняет проверку остальных.
	wantStatuses := []pipeline.Status{
		pipeline.StatusRegistered,
		pipeline.StatusError,
		pipeline.StatusInvalid,
		pipeline.StatusNonRegistered,
	}
	for i, r := range results {
		if r.Status != wantStatuses[i] {
			t.Fatalf("результат %d: статус %v, want %v", i, r.Status, wantStatuses[i])
		}
	}

	summary := pipeline.Summarize(results)
	if summary != (pipeline.Summary{TotalChecked: 4, Registered: 1, NonRegistered: 1}) {
		t.Fatalf("итоги = %+v", summary)
	}
}

func TestRunEmptyNumberMarkedInvalidWithoutCheck(t *testing.T) {
	t.Parallel()

	cl := &fakeClassifier{statuses: map[string]pipeline.Status{
		"+911111111": pipeline.StatusRegistered,
	}}
	recs := []pipeline.Record{
		{Number: "", Index: 0},
		{Number: "+911111111", Index: 1},
	}

	results, err := pipeline.Run(context.Background(), recs, cl, nopPacer{})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if results[0].Status != pipeline.StatusInvalid {
		t.Fatalf("пустой номер: статус %v, want Invalid", results[0].Status)
	}
	if !reflect.DeepEqual(cl.calls, []string{"+911111111"}) {
		t.Fatalf("пустой номер ушёл в backend: %v", cl.calls)
	}
}

func TestRunCancelReturnsPartialResults(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cl := &fakeClassifier{
		statuses: map[string]pipeline.Status{
			"+911111111": pipeline.StatusRegistered,
			"+922222222": pipeline.StatusNonRegistered,
		},
		cancelAfter: 2,
		cancel:      cancel,
	}
	recs := records("+911111111", "+922222222", "+933333333", "+944444444")

	results, err := pipeline.Run(ctx, recs, cl, nopPacer{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}

	// Номер, на котором случилась отмена, остаётся непроверенным.
	want := []pipeline.Result{
		{Number: "+911111111", Status: pipeline.StatusRegistered, Index: 0},
	}
	if !reflect.DeepEqual(results, want) {
		t.Fatalf("частичные результаты = %#v, want %#v", results, want)
	}
	if len(cl.calls) != 2 {
		t.Fatalf("после отмены продолжились обращения: %v", cl.calls)
	}
}

func TestRunCanceledBeforeStart(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cl := &fakeClassifier{}
	results, err := pipeline.Run(ctx, records("+911111111"), cl, nopPacer{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}
	if len(results) != 0 {
		t.Fatalf("результаты при отменённом контексте: %#v", results)
	}
	if len(cl.calls) != 0 {
		t.Fatalf("обращения при отменённом контексте: %v", cl.calls)
	}
}
