// internal/catalog/errors.go
package catalog

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotConfigured возвращается, если API ключ каталога не задан.
var ErrNotConfigured = errors.New("catalog API key not configured")

// UpstreamError - отказ внешнего каталога. Status - код ответа каталога
// (или 502/503, если ответа не было).
type UpstreamError struct {
	Status  int
	Message string
	Err     error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("catalog upstream error (%d): %s: %v", e.Status, e.Message, e.Err)
	}
	return fmt.Sprintf("catalog upstream error (%d): %s", e.Status, e.Message)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// HTTPStatus возвращает код, который следует отдать клиенту.
func (e *UpstreamError) HTTPStatus() int {
	if e.Status < 400 || e.Status > 599 {
		return http.StatusBadGateway
	}
	return e.Status
}

// serverSide сообщает, считается ли ошибка отказом каталога для
// circuit breaker. Ответы 4xx означают, что каталог работает.
func (e *UpstreamError) serverSide() bool {
	return e.Status >= 500 || e.Status == http.StatusTooManyRequests
}
