// Package jitter добавляет случайный разброс к длительностям (TTL кэша),
// чтобы ключи, записанные одновременно, не истекали одновременно.
package jitter

import (
	"math/rand/v2"
	"time"
)

// DefaultJitter: 50%
const DefaultJitter = 0.5

// Source — источник случайности в [0, 1).
type Source interface {
	Float64() float64
}

// Duration растягивает d на случайную долю до factor: результат в [d, d*(1+factor)].
func Duration(d time.Duration, factor float64) time.Duration {
	return DurationFrom(d, factor, nil)
}

// DurationFrom: src == nil означает глобальный генератор.
func DurationFrom(d time.Duration, factor float64, src Source) time.Duration {
	if d <= 0 || factor <= 0 {
		return d
	}

	r := rand.Float64()
	if src != nil {
		r = src.Float64()
	}

	return d + time.Duration(r*factor*float64(d))
}
