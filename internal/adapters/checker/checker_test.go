package checker_test

import (
	"context"
	"testing"

	"github.com/gotd/td/bin"
	"github.com/gotd/td/tg"
	"github.com/gotd/td/tgerr"

	"telegram-number-checker/internal/adapters/checker"
	"telegram-number-checker/internal/domain/pipeline"
)

// fakeInvoker подменяет сетевой слой gotd: отвечает на importContacts по
// заранее заданному сценарию и фиксирует вызовы deleteContacts.
type fakeInvoker struct {
	importErr  error
	registered bool // true — номер сопоставляется с пользователем

	importCalls int
	deleteCalls int
}

const fakeUserID int64 = 424242

func (f *fakeInvoker) Invoke(_ context.Context, input bin.Encoder, output bin.Decoder) error {
	switch req := input.(type) {
	case *tg.ContactsImportContactsRequest:
		f.importCalls++
		if f.importErr != nil {
			return f.importErr
		}
		res := &tg.ContactsImportedContacts{}
		if f.registered {
			res.Imported = []tg.ImportedContact{{
				UserID:   fakeUserID,
				ClientID: req.Contacts[0].ClientID,
			}}
			res.Users = []tg.UserClass{&tg.User{ID: fakeUserID, AccessHash: 7}}
		}
		return reply(res, output)
	case *tg.ContactsDeleteContactsRequest:
		f.deleteCalls++
		return reply(&tg.Updates{}, output)
	default:
		return tgerr.New(400, "METHOD_INVALID")
	}
}

// reply прогоняет готовый ответ через TL-кодек, как это сделал бы сетевой слой.
func reply(res bin.Encoder, output bin.Decoder) error {
	var b bin.Buffer
	if err := res.Encode(&b); err != nil {
		return err
	}
	return output.Decode(&b)
}

func TestCheckRegistered(t *testing.T) {
	t.Parallel()

	inv := &fakeInvoker{registered: true}
	c := checker.New(tg.NewClient(inv))

	status, err := c.Check(context.Background(), "+911111111")
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if status != pipeline.StatusRegistered {
		t.Fatalf("Check() = %v, want Registered", status)
	}
	// Импортированный контакт удаляется сразу после сопоставления.
	if inv.deleteCalls != 1 {
		t.Fatalf("deleteContacts вызван %d раз, want 1", inv.deleteCalls)
	}
}

func TestCheckNonRegistered(t *testing.T) {
	t.Parallel()

	inv := &fakeInvoker{}
	c := checker.New(tg.NewClient(inv))

	status, err := c.Check(context.Background(), "+922222222")
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if status != pipeline.StatusNonRegistered {
		t.Fatalf("Check() = %v, want NonRegistered", status)
	}
	// Несопоставленный номер не порождает удаление.
	if inv.deleteCalls != 0 {
		t.Fatalf("deleteContacts вызван %d раз, want 0", inv.deleteCalls)
	}
}

func TestCheckErrorMapping(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		want pipeline.Status
	}{
		{name: "невалидный номер", err: tgerr.New(400, "PHONE_NUMBER_INVALID"), want: pipeline.StatusInvalid},
		{name: "забаненный номер", err: tgerr.New(400, "PHONE_NUMBER_BANNED"), want: pipeline.StatusInvalid},
		{name: "прочая ошибка API", err: tgerr.New(500, "INTERNAL"), want: pipeline.StatusError},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			inv := &fakeInvoker{importErr: tc.err}
			c := checker.New(tg.NewClient(inv))

			status, err := c.Check(context.Background(), "+933333333")
			if err == nil {
				t.Fatal("Check() error = nil, want diagnostic error")
			}
			if status != tc.want {
				t.Fatalf("Check() = %v, want %v", status, tc.want)
			}
			if inv.importCalls != 1 {
				t.Fatalf("ровно одна попытка на номер, got %d", inv.importCalls)
			}
		})
	}
}
