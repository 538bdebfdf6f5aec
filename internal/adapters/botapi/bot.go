package botapi

// Файл bot.go — цикл long polling и обработчики: команды, загрузка файла,
// колбэки инлайн-клавиатуры, запуск и отмена прогона проверки. Представления
// результатов и экспорт отданы domain/pipeline; здесь только маршрутизация,
// скачивание и доставка. Ошибки пользователю показываются одной короткой
// строкой, подробности уходят в лог.

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-faster/errors"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"telegram-number-checker/internal/adapters/checker"
	"telegram-number-checker/internal/domain/pipeline"
	"telegram-number-checker/internal/domain/sessions"
	"telegram-number-checker/internal/domain/state"
	"telegram-number-checker/internal/infra/config"
	"telegram-number-checker/internal/infra/logger"
	"telegram-number-checker/internal/infra/storage"
)

const (
	// updateTimeoutSec — long-poll таймаут getUpdates.
	updateTimeoutSec = 60
	// defaultSendRPS — темп исходящих запросов Bot API.
	defaultSendRPS = 5
	// downloadTimeout ограничивает скачивание одного загруженного файла.
	downloadTimeout = 2 * time.Minute
)

const helpText = `Бот проверяет, какие номера зарегистрированы в Telegram.

Загрузите файл .xlsx или .txt: номера в первой колонке (или просто
по одному в строке для txt). Если вторая колонка называется "message",
её содержимое сохраняется рядом с номером.

После загрузки нажмите «Проверить номера» и дождитесь итогов. Кнопки под
итогами выдают результаты в чат или файлом (TXT/XLSX).`

// Bot — фронтенд на Bot API. Держит long polling, реестр сессий,
// персистентное состояние и MTProto-клиента проверки.
type Bot struct {
	api    *tgbotapi.BotAPI
	sender *Sender
	reg    *sessions.Registry
	store  *state.Store
	svc    *checker.Service
	env    config.EnvConfig

	runs sync.WaitGroup // активные горутины прогонов
}

// New авторизует бота по токену и собирает обработчики поверх переданных
// зависимостей. Сетевой вызов getMe выполняется прямо здесь.
func New(env config.EnvConfig, reg *sessions.Registry, store *state.Store, svc *checker.Service) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(env.BotToken)
	if err != nil {
		return nil, errors.Wrap(err, "create bot api")
	}
	logger.Logger().Info("Bot authorized",
		zap.String("username", api.Self.UserName),
		zap.Int64("id", api.Self.ID),
	)

	return &Bot{
		api:    api,
		sender: NewSender(api, defaultSendRPS),
		reg:    reg,
		store:  store,
		svc:    svc,
		env:    env,
	}, nil
}

// Run блокируется до отмены контекста: читает апдейты long polling и
// раздаёт их обработчикам. Перед возвратом дожидается активных прогонов.
func (b *Bot) Run(ctx context.Context) error {
	b.sender.Start(ctx)
	defer b.sender.Stop()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = updateTimeoutSec
	updates := b.api.GetUpdatesChan(u)

	logger.Info("Bot polling started")
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.runs.Wait()
			return ctx.Err()
		case update := <-updates:
			switch {
			case update.Message != nil:
				b.handleMessage(ctx, update.Message)
			case update.CallbackQuery != nil:
				b.handleCallback(ctx, update.CallbackQuery)
			}
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}
	if msg.IsCommand() {
		switch msg.Command() {
		case "start", "help":
			b.reply(ctx, msg.Chat.ID, helpText)
		default:
			b.reply(ctx, msg.Chat.ID, "Я не знаю такой команды. /help — краткая справка.")
		}
		return
	}
	if msg.Document != nil {
		b.handleDocument(ctx, msg)
		return
	}
	b.reply(ctx, msg.Chat.ID, "Пришлите файл .xlsx или .txt со списком номеров.")
}

// acceptedUploadExt возвращает нормализованное расширение загруженного файла
// и признак, что формат поддерживается. Легаси .xls (бинарный Excel 97-2003)
// не принимается: читатель книг понимает только xlsx.
func acceptedUploadExt(name string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case ".xlsx", ".txt":
		return ext, true
	}
	return ext, false
}

func (b *Bot) handleDocument(ctx context.Context, msg *tgbotapi.Message) {
	userID := msg.From.ID
	chatID := msg.Chat.ID
	log := logger.Logger().With(zap.Int64("user_id", userID))

	if b.reg.Running(userID) {
		b.reply(ctx, chatID, "Проверка уже выполняется. Дождитесь её завершения или отмените.")
		return
	}

	ext, ok := acceptedUploadExt(msg.Document.FileName)
	if !ok {
		if ext == ".xls" {
			b.reply(ctx, chatID, "Формат .xls (Excel 97-2003) не поддерживается. Пересохраните файл как .xlsx.")
		} else {
			b.reply(ctx, chatID, "Такой формат не поддерживается. Нужен .xlsx или .txt.")
		}
		return
	}

	path, err := b.download(ctx, msg.Document, ext)
	if err != nil {
		log.Error("download upload", zap.String("file", msg.Document.FileName), zap.Error(err))
		b.reply(ctx, chatID, "Не удалось скачать файл. Попробуйте отправить его ещё раз.")
		return
	}
	defer func() { _ = os.Remove(path) }()

	var raws []pipeline.RawRecord
	if ext == ".txt" {
		raws, err = pipeline.ParseText(path)
	} else {
		raws, err = pipeline.ParseWorkbook(path)
	}
	if err != nil {
		log.Warn("parse upload", zap.String("file", msg.Document.FileName), zap.Error(err))
		b.reply(ctx, chatID, "Не удалось разобрать файл. Проверьте, что это корректный список номеров.")
		return
	}

	records, skipped := pipeline.NormalizeRecords(raws)
	if len(records) == 0 {
		b.reply(ctx, chatID, "В файле не нашлось ни одного номера.")
		return
	}
	b.reg.PutRecords(userID, records)
	log.Info("upload accepted",
		zap.Int("records", len(records)),
		zap.Int("skipped", skipped),
	)

	text := fmt.Sprintf("Файл получен: номеров — %d.", len(records))
	if skipped > 0 {
		text += fmt.Sprintf(" Пустых строк пропущено: %d.", skipped)
	}
	if pipeline.RecordsHaveMessages(records) {
		text += " Колонка сообщений распознана."
	}
	out := tgbotapi.NewMessage(chatID, text)
	out.ReplyMarkup = uploadKeyboard()
	b.send(ctx, out)
}

// download скачивает документ во временный файл в DOWNLOAD_DIR и возвращает путь.
// Удаление файла — обязанность вызывающего.
func (b *Bot) download(ctx context.Context, doc *tgbotapi.Document, ext string) (string, error) {
	fileURL, err := b.api.GetFileDirectURL(doc.FileID)
	if err != nil {
		return "", errors.Wrap(err, "file direct url")
	}

	if err = storage.EnsureDir(filepath.Join(b.env.DownloadDir, "upload")); err != nil {
		return "", err
	}

	dlCtx, cancel := context.WithTimeout(ctx, downloadTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(dlCtx, http.MethodGet, fileURL, http.NoBody)
	if err != nil {
		return "", errors.Wrap(err, "build download request")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "download file")
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return "", errors.Errorf("download file: status %d", resp.StatusCode)
	}

	tmp, err := os.CreateTemp(b.env.DownloadDir, "upload-*"+ext)
	if err != nil {
		return "", errors.Wrap(err, "create temp upload")
	}
	path := tmp.Name()
	if _, err = io.Copy(tmp, resp.Body); err != nil {
		_ = tmp.Close()
		_ = os.Remove(path)
		return "", errors.Wrap(err, "write upload")
	}
	if err = tmp.Close(); err != nil {
		_ = os.Remove(path)
		return "", errors.Wrap(err, "close upload")
	}
	return path, nil
}

func (b *Bot) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	// Колбэк подтверждается сразу, чтобы у пользователя не висели «часики».
	if err := b.sender.Request(ctx, tgbotapi.NewCallback(cq.ID, "")); err != nil {
		logger.Warn("answer callback", zap.Error(err))
	}
	if cq.Message == nil {
		return
	}
	userID := cq.From.ID
	chatID := cq.Message.Chat.ID

	switch cq.Data {
	case actionCheck:
		b.startRun(ctx, userID, chatID)
	case actionCancel:
		if b.reg.CancelRun(userID) {
			b.reply(ctx, chatID, "Останавливаю проверку. Частичные результаты придут в итогах.")
		} else {
			b.reply(ctx, chatID, "Сейчас нет активной проверки.")
		}
	case actionStyle:
		b.toggleStyle(ctx, userID, chatID)
	case actionLastNreg:
		b.lastNonRegistered(ctx, userID, chatID)
	default:
		b.handleView(ctx, userID, chatID, cq.Data)
	}
}

func (b *Bot) toggleStyle(ctx context.Context, userID, chatID int64) {
	style, err := b.store.ToggleStyle(userID)
	if err != nil {
		logger.Error("toggle style", zap.Int64("user_id", userID), zap.Error(err))
		b.reply(ctx, chatID, "Не удалось сохранить настройку, попробуйте позже.")
		return
	}
	ok, bad, _ := style.Marks()
	b.reply(ctx, chatID, fmt.Sprintf("Стиль значков переключён: %s / %s", ok, bad))
}

func (b *Bot) lastNonRegistered(ctx context.Context, userID, chatID int64) {
	st, err := b.store.Load(userID)
	if err != nil {
		logger.Error("load persisted state", zap.Int64("user_id", userID), zap.Error(err))
		b.reply(ctx, chatID, "Не удалось прочитать сохранённые результаты.")
		return
	}
	if len(st.NonRegisteredNumbers) == 0 {
		b.reply(ctx, chatID, "Сохранённых незарегистрированных номеров нет.")
		return
	}
	b.reply(ctx, chatID,
		"Незарегистрированные из прошлого прогона:\n"+
			pipeline.Preview(st.NonRegisteredNumbers, b.env.PreviewLimit))
}

// startRun запускает прогон проверки в отдельной горутине. Повторный запуск
// того же пользователя отклоняется, пока текущий прогон не завершён.
func (b *Bot) startRun(ctx context.Context, userID, chatID int64) {
	records, ok := b.reg.Records(userID)
	if !ok || len(records) == 0 {
		b.reply(ctx, chatID, "Сначала загрузите файл с номерами.")
		return
	}

	runCtx, err := b.reg.BeginRun(ctx, userID)
	if err != nil {
		b.reply(ctx, chatID, "Проверка уже выполняется. Дождитесь её завершения или отмените.")
		return
	}

	out := tgbotapi.NewMessage(chatID, fmt.Sprintf("Начинаю проверку %d номеров. Это займёт время: примерно %d сек.",
		len(records), len(records)/b.env.CheckRPS+1))
	out.ReplyMarkup = runKeyboard()
	b.send(ctx, out)

	b.runs.Add(1)
	go func() {
		defer b.runs.Done()
		b.runCheck(ctx, runCtx, userID, chatID, records)
	}()
}

// runCheck — тело прогона: ожидание готовности MTProto-клиента, последовательная
// классификация с пейсингом, фиксация результатов и доставка итогов.
// Итоги отправляются во внешнем контексте: runCtx после отмены уже мёртв.
func (b *Bot) runCheck(ctx, runCtx context.Context, userID, chatID int64, records []pipeline.Record) {
	log := logger.Logger().With(zap.Int64("user_id", userID))

	if err := b.svc.WaitReady(runCtx); err != nil {
		b.reg.FinishRun(userID, nil)
		log.Error("checker not ready", zap.Error(err))
		if ctx.Err() == nil {
			b.reply(ctx, chatID, "Механизм проверки сейчас недоступен. Попробуйте позже.")
		}
		return
	}

	cl := checker.New(b.svc.API())
	pacer := rate.NewLimiter(rate.Limit(b.env.CheckRPS), 1)

	results, runErr := pipeline.Run(runCtx, records, cl, pacer)
	b.reg.FinishRun(userID, results)
	canceled := runErr != nil
	log.Info("run finished",
		zap.Int("results", len(results)),
		zap.Bool("canceled", canceled),
	)

	if ctx.Err() != nil {
		// Процесс гасится: итоги отправлять уже некуда.
		return
	}

	summary := pipeline.Summarize(results)

	// Сбой персистентности не скрывает результаты от пользователя.
	if err := b.store.SaveRun(userID, summary, pipeline.NonRegisteredLines(results)); err != nil {
		log.Error("persist run results", zap.Error(err))
	}

	style := pipeline.StyleA
	if st, err := b.store.Load(userID); err == nil {
		style = st.TickStyle
	} else {
		log.Error("load persisted state", zap.Error(err))
	}
	ok, bad, _ := style.Marks()

	header := "Проверка завершена."
	if canceled {
		header = "Проверка отменена, ниже итоги по уже проверенным номерам."
	}
	text := fmt.Sprintf("%s\nВсего проверено: %d\n%s Зарегистрировано: %d\n%s Не зарегистрировано: %d",
		header, summary.TotalChecked, ok, summary.Registered, bad, summary.NonRegistered)

	out := tgbotapi.NewMessage(chatID, text)
	out.ReplyMarkup = resultsKeyboard()
	b.send(ctx, out)
}

// handleView отображает одно представление результатов. Селектор действия
// однозначно задаёт пару «представление × форма выдачи»; numbersOnly и
// messagesOnly доступны и до прогона, по одной только загрузке.
func (b *Bot) handleView(ctx context.Context, userID, chatID int64, action string) {
	if b.reg.Running(userID) {
		b.reply(ctx, chatID, "Дождитесь завершения проверки: результаты ещё собираются.")
		return
	}

	results, haveResults := b.reg.Results(userID)
	records, haveRecords := b.reg.Records(userID)
	if !haveResults && !haveRecords {
		b.reply(ctx, chatID, "Сначала загрузите файл с номерами.")
		return
	}

	style := pipeline.StyleA
	if st, err := b.store.Load(userID); err == nil {
		style = st.TickStyle
	}
	limit := b.env.PreviewLimit

	switch action {
	case actionChat:
		if !haveResults {
			b.reply(ctx, chatID, "Результатов пока нет — сначала запустите проверку.")
			return
		}
		b.reply(ctx, chatID, "Результаты:\n"+pipeline.Preview(pipeline.AllLines(results, style), limit))

	case actionReg:
		if !haveResults {
			b.reply(ctx, chatID, "Результатов пока нет — сначала запустите проверку.")
			return
		}
		b.reply(ctx, chatID, "Зарегистрированные:\n"+pipeline.Preview(pipeline.RegisteredLines(results), limit))

	case actionNreg:
		if !haveResults {
			b.reply(ctx, chatID, "Результатов пока нет — сначала запустите проверку.")
			return
		}
		b.reply(ctx, chatID, "Незарегистрированные:\n"+pipeline.Preview(pipeline.NonRegisteredLines(results), limit))

	case actionAll:
		if !haveResults {
			b.reply(ctx, chatID, "Результатов пока нет — сначала запустите проверку.")
			return
		}
		b.sendTextArtifact(ctx, chatID, pipeline.AllLines(results, style), "results.txt", "Все результаты")

	case actionOnlyNum:
		lines := b.numberLines(results, haveResults, records)
		b.reply(ctx, chatID, "Номера:\n"+pipeline.Preview(lines, limit))

	case actionOnlyMsg:
		lines, ok := b.messageLines(results, haveResults, records)
		if !ok {
			b.reply(ctx, chatID, "Сообщений в загруженном файле нет.")
			return
		}
		b.reply(ctx, chatID, "Сообщения:\n"+pipeline.Preview(lines, limit))

	case actionTxtFile:
		// Если в загрузке была колонка сообщений, текстовый файл сохраняет их
		// рядом с номерами.
		var lines []string
		switch {
		case haveResults && pipeline.HasMessages(results):
			lines = pipeline.NumberMessageLines(results)
		case haveResults:
			lines = pipeline.NumbersOnly(results)
		case pipeline.RecordsHaveMessages(records):
			lines = pipeline.RecordNumberMessageLines(records)
		default:
			lines = pipeline.RecordNumbers(records)
		}
		b.sendTextArtifact(ctx, chatID, lines, "numbers.txt", "Номера одним файлом")

	case actionXlsxFile:
		if !haveResults {
			b.reply(ctx, chatID, "Результатов пока нет — сначала запустите проверку.")
			return
		}
		b.sendWorkbookArtifact(ctx, chatID, results)

	default:
		logger.Warn("unknown callback action", zap.String("action", action))
	}
}

// numberLines — голые номера: из результатов, если прогон был, иначе из загрузки.
func (b *Bot) numberLines(results []pipeline.Result, haveResults bool, records []pipeline.Record) []string {
	if haveResults {
		return pipeline.NumbersOnly(results)
	}
	return pipeline.RecordNumbers(records)
}

// messageLines — сообщения, выровненные по строкам. ok=false, когда сообщений нет.
func (b *Bot) messageLines(results []pipeline.Result, haveResults bool, records []pipeline.Record) ([]string, bool) {
	if haveResults {
		if !pipeline.HasMessages(results) {
			return nil, false
		}
		return pipeline.MessagesOnly(results), true
	}
	if !pipeline.RecordsHaveMessages(records) {
		return nil, false
	}
	return pipeline.RecordMessages(records), true
}

// sendTextArtifact выгружает полный список строк текстовым файлом.
// Временный файл удаляется независимо от исхода доставки.
func (b *Bot) sendTextArtifact(ctx context.Context, chatID int64, lines []string, name, caption string) {
	path, cleanup, err := pipeline.WriteTextArtifact(b.env.DownloadDir, lines)
	if err != nil {
		logger.Error("write text artifact", zap.Error(err))
		b.reply(ctx, chatID, "Не удалось подготовить файл. Попробуйте позже.")
		return
	}
	defer cleanup()
	b.sendDocument(ctx, chatID, path, name, caption)
}

// sendWorkbookArtifact выгружает полный результат прогона книгой xlsx.
func (b *Bot) sendWorkbookArtifact(ctx context.Context, chatID int64, results []pipeline.Result) {
	path, cleanup, err := pipeline.WriteWorkbookArtifact(b.env.DownloadDir, results)
	if err != nil {
		logger.Error("write workbook artifact", zap.Error(err))
		b.reply(ctx, chatID, "Не удалось подготовить файл. Попробуйте позже.")
		return
	}
	defer cleanup()
	b.sendDocument(ctx, chatID, path, "results.xlsx", "Результаты проверки")
}

func (b *Bot) sendDocument(ctx context.Context, chatID int64, path, name, caption string) {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Error("read artifact", zap.String("path", path), zap.Error(err))
		b.reply(ctx, chatID, "Не удалось подготовить файл. Попробуйте позже.")
		return
	}
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: name, Bytes: data})
	doc.Caption = caption
	b.send(ctx, doc)
}

func (b *Bot) reply(ctx context.Context, chatID int64, text string) {
	b.send(ctx, tgbotapi.NewMessage(chatID, text))
}

func (b *Bot) send(ctx context.Context, c tgbotapi.Chattable) {
	if _, err := b.sender.Send(ctx, c); err != nil {
		logger.Error("bot send", zap.Error(err))
	}
}
