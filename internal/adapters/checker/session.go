package checker

// Файловое хранилище MTProto-сессии поверх tdsession.Storage.
// Запись выполняется атомарно, чтобы сессия не осталась в частичном состоянии
// при падении процесса посреди сохранения.

import (
	"context"
	"fmt"
	"os"
	"sync"

	"telegram-number-checker/internal/infra/storage"

	"github.com/go-faster/errors"

	tdsession "github.com/gotd/td/session"
)

// FileStorage реализует tdsession.Storage поверх обычного файла.
// Потокобезопасен: операции Load/Store защищены мьютексом. Поле Path указывает
// абсолютный или относительный путь до файла сессии на диске.
type FileStorage struct {
	Path string
	mux  sync.Mutex
}

// Компиляторная проверка соответствия интерфейсу tdsession.Storage.
var _ tdsession.Storage = (*FileStorage)(nil)

// LoadSession читает файл сессии с диска.
func (f *FileStorage) LoadSession(_ context.Context) ([]byte, error) {
	if f == nil {
		return nil, errors.New("nil session storage is invalid")
	}
	f.mux.Lock()
	defer f.mux.Unlock()

	data, err := os.ReadFile(f.Path)
	if os.IsNotExist(err) {
		return nil, tdsession.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "read session")
	}
	return data, nil
}

// StoreSession атомарно сохраняет данные сессии на диск.
func (f *FileStorage) StoreSession(_ context.Context, data []byte) error {
	if f == nil {
		return errors.New("nil session storage is invalid")
	}

	f.mux.Lock()
	defer f.mux.Unlock()

	if err := storage.AtomicWriteFile(f.Path, data); err != nil {
		return fmt.Errorf("atomic write session: %w", err)
	}
	return nil
}
