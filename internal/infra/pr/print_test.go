package pr

import (
	"os"
	"testing"
	"time"

	"github.com/chzyer/readline"
)

// TestInterruptReadlineUnblocksRead проверяет механизм прерывания интерактивного
// ввода при shutdown: закрытие cancelable stdin должно разблокировать висящий Read,
// не дожидаясь данных от пользователя.
func TestInterruptReadlineUnblocksRead(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	t.Cleanup(func() {
		_ = r.Close()
		_ = w.Close()
	})

	cs := readline.NewCancelableStdin(r)

	prev := cancelableIn
	cancelableIn = cs
	t.Cleanup(func() { cancelableIn = prev })

	done := make(chan error, 1)
	go func() {
		buf := make([]byte, 1)
		_, readErr := cs.Read(buf)
		done <- readErr
	}()

	InterruptReadline()

	select {
	case readErr := <-done:
		if readErr == nil {
			t.Errorf("Read завершился без ошибки, ожидался EOF после прерывания")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Read не разблокировался после InterruptReadline")
	}
}

// TestInterruptReadlineBeforeInit — до Init() прерывать нечего, вызов должен быть no-op.
func TestInterruptReadlineBeforeInit(t *testing.T) {
	prev := cancelableIn
	cancelableIn = nil
	t.Cleanup(func() { cancelableIn = prev })

	InterruptReadline()
	InterruptReadline() // повторный вызов также безопасен
}
