package e

import (
	"errors"
	"fmt"
)

// Kind — закрытый набор категорий ошибок, которые видит вызывающий.
type Kind uint8

const (
	// KindStorage: любой сбой хранилища (таймауты, права, битые данные).
	KindStorage Kind = iota
	KindValidation
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	default:
		return "storage"
	}
}

var (
	// Базовые категории
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrStorage    = errors.New("storage failure")

	// 400 Bad Request
	ErrProductNameRequired = fmt.Errorf("%w: name is required", ErrValidation)
	ErrMissingFields       = fmt.Errorf("%w: id and name are required", ErrValidation)
	ErrNegativePrice       = fmt.Errorf("%w: price must be >= 0", ErrValidation)
	ErrNegativeStock       = fmt.Errorf("%w: stock must be >= 0", ErrValidation)

	// 404 Not Found
	ErrProductNotFound = fmt.Errorf("product %w", ErrNotFound)

	// Конфигурация
	ErrIncorrectEnvVariable = errors.New("incorrect environment variable")
	ErrUnknownStoreBackend  = errors.New("unknown store backend")
)

// Wrap оборачивает ошибку
func Wrap(msg string, err error) error {
	return fmt.Errorf("%s: %w", msg, err)
}

// Storage помечает err как сбой хранилища.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrStorage) || errors.Is(err, ErrNotFound) {
		return Wrap(op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
}

// KindOf возвращает категорию err. Всё, что не ошибка валидации
// и не not-found, считается сбоем хранилища.
func KindOf(err error) Kind {
	switch {
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	default:
		return KindStorage
	}
}
