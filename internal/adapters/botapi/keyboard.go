package botapi

// Инлайн-клавиатуры бота. Данные колбэков — короткие селекторы действий;
// соответствие селектор→обработчик живёт в bot.go.

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Селекторы действий инлайн-клавиатур.
const (
	actionCheck    = "check"
	actionCancel   = "cancel"
	actionStyle    = "style"
	actionLastNreg = "lastnreg"

	actionChat     = "chat"
	actionReg      = "reg"
	actionNreg     = "nreg"
	actionAll      = "all"
	actionOnlyNum  = "onlynum"
	actionOnlyMsg  = "onlymsg"
	actionTxtFile  = "txt"
	actionXlsxFile = "xlsx"
)

// uploadKeyboard предлагается сразу после успешной загрузки файла.
func uploadKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Проверить номера", actionCheck),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Только номера", actionOnlyNum),
			tgbotapi.NewInlineKeyboardButtonData("Только сообщения", actionOnlyMsg),
		),
	)
}

// runKeyboard показывается на время прогона: единственное действие — отмена.
func runKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Отменить проверку", actionCancel),
		),
	)
}

// resultsKeyboard предлагает представления результатов завершённого прогона.
func resultsKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("В чат", actionChat),
			tgbotapi.NewInlineKeyboardButtonData("Все", actionAll),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Зарегистрированные", actionReg),
			tgbotapi.NewInlineKeyboardButtonData("Незарегистрированные", actionNreg),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("TXT", actionTxtFile),
			tgbotapi.NewInlineKeyboardButtonData("XLSX", actionXlsxFile),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Стиль значков", actionStyle),
			tgbotapi.NewInlineKeyboardButtonData("Прошлые незарег.", actionLastNreg),
		),
	)
}
