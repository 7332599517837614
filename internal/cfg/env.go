package cfg

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/DRSN-tech/products-api/pkg/e"
)

// envReader читает переменные окружения и копит ошибки разбора,
// чтобы о всех неверных переменных сообщить за один запуск.
type envReader struct {
	errs []error
}

func (r *envReader) str(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func (r *envReader) required(key string) string {
	v := os.Getenv(key)
	if v == "" {
		r.errs = append(r.errs, e.Wrap(key+" is required", e.ErrIncorrectEnvVariable))
	}
	return v
}

func (r *envReader) duration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		r.errs = append(r.errs, e.Wrap(key, e.ErrIncorrectEnvVariable))
		return def
	}
	return d
}

func (r *envReader) int(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		r.errs = append(r.errs, e.Wrap(key, e.ErrIncorrectEnvVariable))
		return def
	}
	return n
}

func (r *envReader) err() error {
	return errors.Join(r.errs...)
}
