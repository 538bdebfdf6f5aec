// Package state — персистентная часть пользовательского состояния на bbolt.
// В отличие от оперативных слотов sessions, эти данные переживают рестарт
// процесса: стиль значков пользователя, итоги последнего прогона и список
// незарегистрированных номеров из него. Значения сериализуются в JSON и
// пишутся в одной транзакции на операцию.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.etcd.io/bbolt"

	"telegram-number-checker/internal/domain/pipeline"
)

const (
	userStateBucket             = "user_state"
	dbOpenTimeout               = time.Second
	dbFileMode      os.FileMode = 0o600
)

var userStateBucketBytes = []byte(userStateBucket)

// UserState — сохранённый снимок пользователя. Нулевое значение с StyleA
// выдаётся для пользователей, которых бот ещё не видел.
type UserState struct {
	TickStyle            pipeline.TickStyle `json:"tickStyle"`
	LastSummary          pipeline.Summary   `json:"lastSummary"`
	NonRegisteredNumbers []string           `json:"nonRegisteredNumbers"`
}

// Store — обёртка над файлом bbolt с одним бакетом пользовательских снимков.
type Store struct {
	db *bbolt.DB
}

// Open открывает (или создаёт) файл базы и гарантирует наличие бакета.
func Open(path string) (*Store, error) {
	p := strings.TrimSpace(path)
	if p == "" {
		return nil, errors.New("state: db path is empty")
	}

	dir := filepath.Dir(p)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return nil, fmt.Errorf("state: ensure dir %q: %w", dir, err)
		}
	}

	db, err := bbolt.Open(p, dbFileMode, &bbolt.Options{Timeout: dbOpenTimeout})
	if err != nil {
		return nil, fmt.Errorf("state: open db: %w", err)
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		_, berr := tx.CreateBucketIfNotExists(userStateBucketBytes)
		return berr
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("state: create bucket: %w", err)
	}

	return &Store{db: db}, nil
}

// Close закрывает файл базы данных.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Load возвращает снимок пользователя. Для неизвестного пользователя —
// состояние по умолчанию (StyleA, пустые итоги) без ошибки.
func (s *Store) Load(userID int64) (UserState, error) {
	st := UserState{TickStyle: pipeline.StyleA}

	err := s.db.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket(userStateBucketBytes).Get(userKey(userID))
		if raw == nil {
			return nil
		}
		if uerr := json.Unmarshal(raw, &st); uerr != nil {
			return fmt.Errorf("state: decode user %d: %w", userID, uerr)
		}
		return nil
	})
	if err != nil {
		return UserState{TickStyle: pipeline.StyleA}, err
	}
	if st.TickStyle != pipeline.StyleA && st.TickStyle != pipeline.StyleB {
		st.TickStyle = pipeline.StyleA
	}
	return st, nil
}

// SaveRun фиксирует итоги завершённого прогона, не трогая стиль значков:
// чтение старого значения и запись нового происходят в одной транзакции.
func (s *Store) SaveRun(userID int64, summary pipeline.Summary, nonRegistered []string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(userStateBucketBytes)
		st := UserState{TickStyle: pipeline.StyleA}
		if raw := b.Get(userKey(userID)); raw != nil {
			if uerr := json.Unmarshal(raw, &st); uerr != nil {
				// Битую запись перезаписываем начисто, прогон важнее истории.
				st = UserState{TickStyle: pipeline.StyleA}
			}
		}

		st.LastSummary = summary
		st.NonRegisteredNumbers = nonRegistered

		raw, merr := json.Marshal(st)
		if merr != nil {
			return fmt.Errorf("state: encode user %d: %w", userID, merr)
		}
		return b.Put(userKey(userID), raw)
	})
}

// ToggleStyle переключает стиль значков пользователя и возвращает новый стиль.
func (s *Store) ToggleStyle(userID int64) (pipeline.TickStyle, error) {
	var next pipeline.TickStyle

	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(userStateBucketBytes)
		st := UserState{TickStyle: pipeline.StyleA}
		if raw := b.Get(userKey(userID)); raw != nil {
			if uerr := json.Unmarshal(raw, &st); uerr != nil {
				st = UserState{TickStyle: pipeline.StyleA}
			}
		}

		st.TickStyle = st.TickStyle.Toggle()
		next = st.TickStyle

		raw, merr := json.Marshal(st)
		if merr != nil {
			return fmt.Errorf("state: encode user %d: %w", userID, merr)
		}
		return b.Put(userKey(userID), raw)
	})
	if err != nil {
		return pipeline.StyleA, err
	}
	return next, nil
}

// userKey — ключ записи пользователя в бакете: десятичная строка userID.
func userKey(userID int64) []byte {
	return []byte(strconv.FormatInt(userID, 10))
}
