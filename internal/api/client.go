// api — низкоуровневый REST-клиент бэкенда NassNews.
// Пакет отвечает только за транспорт: JSON-запросы/ответы, подстановку
// Bearer-токена, прокидывание X-Request-Id и разбор конверта ошибки.
// Сырые записи отдаются вверх нетипизированными (map[string]any);
// нормализацию выполняет пакет mapper.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TokenSource отдаёт текущий токен сессии; пустая строка — запрос без авторизации.
type TokenSource func() string

// Client — HTTP-клиент бэкенда. Безопасен для конкурентного использования
// после завершения конфигурирования (SetTokenSource вызывается один раз при сборке).
type Client struct {
	baseURL  string
	basePath string
	http     *http.Client
	token    TokenSource
}

// New создаёт клиент поверх базового адреса бэкенда.
// basePath — префикс REST-маршрутов (обычно "/api").
func New(baseURL, basePath string, timeout time.Duration) *Client {
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		basePath: basePath,
		http:     &http.Client{Timeout: timeout},
	}
}

// SetTokenSource подключает источник токена (обычно session.Store.Token).
func (c *Client) SetTokenSource(src TokenSource) {
	c.token = src
}

// GetJSON выполняет GET и декодирует тело ответа в out (если out != nil).
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

// PostJSON выполняет POST с JSON-телом body (nil — без тела).
func (c *Client) PostJSON(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

// PutJSON выполняет PUT с JSON-телом body.
func (c *Client) PutJSON(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, nil, body, out)
}

// Delete выполняет DELETE; тело успешного ответа игнорируется.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	const op = "api.Client.do"

	target := c.baseURL + c.basePath + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())

	if c.token != nil {
		if tok := c.token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp)
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
