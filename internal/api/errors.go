package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// Error — неуспешный HTTP-статус бэкенда (запрос завершился, сервер отказал).
// Message берётся из конверта {"message": ...}; если сервер его не прислал,
// поле остаётся пустым и вызывающая сторона подставляет сообщение по умолчанию.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend: %d: %s", e.Status, e.Message)
	}

	return fmt.Sprintf("backend: %d %s", e.Status, http.StatusText(e.Status))
}

// IsStatus сообщает, является ли err отказом бэкенда с данным HTTP-статусом.
func IsStatus(err error, status int) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// errorEnvelope — формат тела ошибки бэкенда.
type errorEnvelope struct {
	Message string `json:"message"`
}

// decodeError строит *Error из неуспешного ответа.
// Нечитаемое или не-JSON тело не фатально: остаёмся со статусом.
func decodeError(resp *http.Response) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return &Error{Status: resp.StatusCode}
	}

	var envelope errorEnvelope
	if json.Unmarshal(body, &envelope) == nil && envelope.Message != "" {
		return &Error{Status: resp.StatusCode, Message: envelope.Message}
	}

	return &Error{Status: resp.StatusCode}
}
