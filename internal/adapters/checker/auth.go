package checker

// Интерактивный слой авторизации сервисного аккаунта на базе gotd:
// чтение кода подтверждения и пароля 2FA из консоли при первом запуске.
// Дальше сессия живёт в файле и повторный ввод не требуется.

import (
	"context"
	"strings"
	"syscall"

	"telegram-number-checker/internal/infra/pr"

	"github.com/go-faster/errors"
	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/tg"
	"golang.org/x/term"
)

// readLine выводит приглашение, читает строку из общего readline и обрезает пробелы по краям.
func readLine(prompt string) (string, error) {
	pr.SetPrompt(prompt)
	line, err := pr.Rl().Readline()
	return strings.TrimSpace(line), err
}

// TerminalAuthenticator реализует auth.UserAuthenticator и собирает ввод из терминала.
// Номер телефона известен заранее из конфигурации; формат не валидируется.
type TerminalAuthenticator struct {
	PhoneNumber string
}

// Phone возвращает заранее известный номер сервисного аккаунта.
func (t TerminalAuthenticator) Phone(_ context.Context) (string, error) {
	return t.PhoneNumber, nil
}

// Code запрашивает код подтверждения у оператора и возвращает его без пробелов по краям.
func (t TerminalAuthenticator) Code(_ context.Context, _ *tg.AuthSentCode) (string, error) {
	return readLine("Enter the code from Telegram: ")
}

// Password считывает пароль двухфакторной аутентификации без отображения вводимых символов.
func (t TerminalAuthenticator) Password(_ context.Context) (string, error) {
	// Сообщение без перевода строки, чтобы ввод шёл в той же строке.
	pr.Print("Enter 2FA password: ")
	passwordBytes, err := term.ReadPassword(syscall.Stdin)
	// Возвращаем курсор на новую строку после скрытого ввода.
	pr.Println()
	if err != nil {
		return "", err
	}
	return string(passwordBytes), nil
}

// AcceptTermsOfService выводит текст условий использования и запрашивает согласие оператора.
func (t TerminalAuthenticator) AcceptTermsOfService(_ context.Context, tos tg.HelpTermsOfService) error {
	pr.Printf("Telegram Terms of Service: %s\n", tos.Text)
	resp, err := readLine("Do you accept? (y/n): ")
	if err != nil {
		return err
	}
	if resp != "y" && resp != "Y" {
		return errors.New("user did not accept terms of service")
	}
	return nil
}

// SignUp не поддерживается: сервисный аккаунт проверки должен существовать заранее,
// регистрация нового номера из этого процесса — ошибка конфигурации.
func (t TerminalAuthenticator) SignUp(_ context.Context) (auth.UserInfo, error) {
	return auth.UserInfo{}, errors.New("checker account must already be registered")
}
