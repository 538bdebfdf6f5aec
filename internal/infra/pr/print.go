// Package pr — тонкая обёртка для унифицированного консольного вывода бота.
// Инициализирует readline с отменяемым stdin (интерактивный логин MTProto-аккаунта
// читает код подтверждения через него), переназначает stdout/stderr на буферы readline
// и предоставляет функции печати для обычного и диагностического вывода.
// Конкурентность: мьютекс защищает только смену целевых writer'ов; сами записи
// должны быть потокобезопасны на стороне целевого writer'а (rl.Stdout таковым является).
package pr

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/chzyer/readline"
	"github.com/kr/pretty"
)

var (
	// rl — активный инстанс readline. Появляется после Init(); до этого nil.
	rl *readline.Instance
	// out — текущий поток стандартного вывода. До Init() указывает на os.Stdout.
	out io.Writer = os.Stdout
	// errOut — поток вывода ошибок. До Init() — os.Stderr.
	errOut io.Writer = os.Stderr
	// mu защищает замену ссылок на writer'ы и cancelableIn.
	mu sync.Mutex

	// cancelableIn — дескриптор stdin, который можно закрыть для прерывания чтения
	// (readline получит io.EOF). Инициализируется в Init().
	cancelableIn interface{ Close() error }
)

// Init настраивает readline и перенаправляет внутренние потоки вывода на его stdout/stderr.
// Отменяемый stdin нужен, чтобы прервать ожидание кода авторизации при shutdown.
// Повторный вызов не предусмотрен.
func Init() error {
	cs := readline.NewCancelableStdin(os.Stdin)
	newRl, err := readline.NewEx(&readline.Config{Stdin: cs})
	if err != nil {
		_ = cs.Close()
		return err
	}
	rl = newRl

	mu.Lock()
	cancelableIn = cs
	out = rl.Stdout()
	errOut = rl.Stderr()
	mu.Unlock()

	return nil
}

// InterruptReadline закрывает cancelable stdin: Readline() получает io.EOF и возвращается.
// Идемпотентна: повторное закрытие проигнорируется реализацией.
func InterruptReadline() {
	if cancelableIn != nil {
		_ = cancelableIn.Close()
	}
}

// SetPrompt задаёт строку приглашения. Безопасный no-op до Init().
func SetPrompt(prompt string) {
	if rl == nil {
		return
	}
	rl.SetPrompt(prompt)
}

// Rl возвращает текущий инстанс readline (nil, если Init() не вызывался).
func Rl() *readline.Instance {
	return rl
}

// Stdout возвращает текущий writer стандартного вывода. Блокировка защищает только чтение ссылки.
func Stdout() io.Writer {
	mu.Lock()
	defer mu.Unlock()
	return out
}

// Stderr возвращает текущий writer ошибок.
func Stderr() io.Writer {
	mu.Lock()
	defer mu.Unlock()
	return errOut
}

// Print печатает значения в Stdout без перевода строки.
func Print(a ...any) {
	fmt.Fprint(Stdout(), a...)
}

// Println печатает значения в Stdout и добавляет перевод строки. Работает и до Init().
func Println(a ...any) {
	fmt.Fprintln(Stdout(), a...)
}

// Printf форматирует строку и печатает её в Stdout.
func Printf(format string, a ...any) {
	fmt.Fprintf(Stdout(), format, a...)
}

// ErrPrintf форматирует строку и печатает её в Stderr.
func ErrPrintf(format string, a ...any) {
	fmt.Fprintf(Stderr(), format, a...)
}

// PP pretty-печатает значение в Stdout. Удобно для отладки ответов Telegram API;
// не используйте в горячих участках из-за аллокаций.
func PP(v any) {
	fmt.Fprintf(Stdout(), "%# v\n", pretty.Formatter(v))
}

// Pf возвращает pretty-строку значения. Полезно для debug-логов.
func Pf(v any) string {
	return fmt.Sprintf("%# v", pretty.Formatter(v))
}
