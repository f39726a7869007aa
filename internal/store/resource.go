// store содержит клиентские хранилища сущностей: обобщённую механику
// коллекции (Resource) и по одному хранилищу на вид сущности — города,
// новости, события, пользователи — плюс хранилище выбора текущего города.
//
// Основные аспекты:
//   - каждая коллекция принадлежит ровно одному хранилищу; между собой
//     хранилища ссылаются только идентификаторами;
//   - операции чтения гасят ошибки в поле Err и опустошают коллекцию,
//     операции записи оседают в Err И возвращаются вызывающему;
//   - параллельные операции над одним хранилищем не сериализуются:
//     финальное состояние определяет завершившаяся последней
//     (осознанная гонка однопользовательского клиента, см. тесты).
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"

	"github.com/nassnews/nassnews-client/internal/api"
	"github.com/nassnews/nassnews-client/internal/pkg/log"
)

// ErrMalformedResponse — ответ бэкенда завершился успешно, но не содержит
// минимально необходимой формы (например, записи без идентификатора).
var ErrMalformedResponse = errors.New("malformed response")

// Entity — элемент коллекции ресурсного хранилища.
type Entity interface {
	EntityID() string
}

// mapFunc нормализует сырую запись; ok=false — запись отбрасывается.
type mapFunc[T Entity] func(map[string]any) (T, bool)

// Resource — обобщённое хранилище коллекции одного вида сущностей.
// Мьютекс защищает срез от гонок данных, но намеренно не сериализует
// сетевые операции целиком.
type Resource[T Entity] struct {
	name      string // множественное имя вида для логов и сообщений
	client    *api.Client
	path      string // коллекционный REST-путь, например "/actualites"
	cityParam string // имя query-параметра фильтра по городу
	mapOne    mapFunc[T]

	mu      sync.Mutex
	items   []T
	loading bool
	lastErr string
}

func newResource[T Entity](client *api.Client, name, path, cityParam string, mapOne mapFunc[T]) *Resource[T] {
	return &Resource[T]{
		name:      name,
		client:    client,
		path:      path,
		cityParam: cityParam,
		mapOne:    mapOne,
	}
}

// FetchAll загружает коллекцию целиком: успех полностью замещает
// содержимое (не сливает), сбой оставляет сообщение в Err и пустую
// коллекцию. Флаг загрузки снимается на обоих путях.
func (r *Resource[T]) FetchAll(ctx context.Context) {
	r.fetch(ctx, nil)
}

// FetchByCity загружает записи, относящиеся к одному городу.
func (r *Resource[T]) FetchByCity(ctx context.Context, cityID string) {
	query := url.Values{}
	query.Set(r.cityParam, cityID)
	r.fetch(ctx, query)
}

func (r *Resource[T]) fetch(ctx context.Context, query url.Values) {
	r.begin()
	defer r.finish()

	var recs []map[string]any
	if err := r.client.GetJSON(ctx, r.path, query, &recs); err != nil {
		r.mu.Lock()
		r.lastErr = failureMessage(err, "Failed to fetch "+r.name)
		r.items = nil
		r.mu.Unlock()
		return
	}

	mapped, dropped := r.mapAll(recs)
	if dropped > 0 {
		log.From(ctx).Warn("records_dropped",
			slog.String("resource", r.name), slog.Int("count", dropped))
	}

	r.mu.Lock()
	r.items = mapped
	r.mu.Unlock()
}

// Create создаёт сущность и вставляет ответ бэкенда в начало коллекции
// (порядок «свежее — выше»). При сбое коллекция не меняется, ошибка
// оседает в Err и возвращается вызывающему.
func (r *Resource[T]) Create(ctx context.Context, payload any) (T, error) {
	const op = "store.Resource.Create"

	var zero T

	r.begin()
	defer r.finish()

	var rec map[string]any
	if err := r.client.PostJSON(ctx, r.path, payload, &rec); err != nil {
		r.setErr(failureMessage(err, "Failed to create "+r.name))
		return zero, fmt.Errorf("%s: %w", op, err)
	}

	entity, ok := r.mapOne(rec)
	if !ok {
		r.setErr("Failed to create " + r.name)
		return zero, fmt.Errorf("%s: %w", op, ErrMalformedResponse)
	}

	r.mu.Lock()
	r.items = append([]T{entity}, r.items...)
	r.mu.Unlock()

	return entity, nil
}

// Update обновляет сущность и замещает её в коллекции на прежней позиции
// (позиция ищется по равенству идентификаторов). Отсутствующий в коллекции
// идентификатор не приводит к вставке.
func (r *Resource[T]) Update(ctx context.Context, id string, payload any) (T, error) {
	const op = "store.Resource.Update"

	var zero T

	r.begin()
	defer r.finish()

	var rec map[string]any
	if err := r.client.PutJSON(ctx, r.path+"/"+url.PathEscape(id), payload, &rec); err != nil {
		r.setErr(failureMessage(err, "Failed to update "+r.name))
		return zero, fmt.Errorf("%s: %w", op, err)
	}

	entity, ok := r.mapOne(rec)
	if !ok {
		r.setErr("Failed to update " + r.name)
		return zero, fmt.Errorf("%s: %w", op, ErrMalformedResponse)
	}

	r.mu.Lock()
	for i := range r.items {
		if r.items[i].EntityID() == id {
			r.items[i] = entity
			break
		}
	}
	r.mu.Unlock()

	return entity, nil
}

// Delete удаляет сущность; при успехе из коллекции уходят все записи
// с этим идентификатором (идентификаторы уникальны, так что ровно одна).
func (r *Resource[T]) Delete(ctx context.Context, id string) error {
	const op = "store.Resource.Delete"

	r.begin()
	defer r.finish()

	if err := r.client.Delete(ctx, r.path+"/"+url.PathEscape(id)); err != nil {
		r.setErr(failureMessage(err, "Failed to delete "+r.name))
		return fmt.Errorf("%s: %w", op, err)
	}

	r.mu.Lock()
	kept := r.items[:0]
	for _, item := range r.items {
		if item.EntityID() != id {
			kept = append(kept, item)
		}
	}
	r.items = kept
	r.mu.Unlock()

	return nil
}

// ByID ищет сущность по идентификатору.
func (r *Resource[T]) ByID(id string) (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.byIDLocked(id)
}

// byIDLocked — поиск без захвата мьютекса (вызывается под ним).
func (r *Resource[T]) byIDLocked(id string) (T, bool) {
	for _, item := range r.items {
		if item.EntityID() == id {
			return item, true
		}
	}

	var zero T
	return zero, false
}

// Items возвращает копию коллекции в актуальном порядке.
func (r *Resource[T]) Items() []T {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]T, len(r.items))
	copy(out, r.items)
	return out
}

// Len — текущий размер коллекции.
func (r *Resource[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.items)
}

// Loading — выполняется ли сейчас операция хранилища.
func (r *Resource[T]) Loading() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.loading
}

// Err — сообщение последней ошибки чтения/записи (пустая строка — ошибок нет).
func (r *Resource[T]) Err() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.lastErr
}

// Reset возвращает хранилище в начальное состояние (тестовая изоляция).
func (r *Resource[T]) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items = nil
	r.loading = false
	r.lastErr = ""
}

func (r *Resource[T]) begin() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.loading = true
	r.lastErr = ""
}

func (r *Resource[T]) finish() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.loading = false
}

func (r *Resource[T]) setErr(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastErr = msg
}

func (r *Resource[T]) mapAll(recs []map[string]any) ([]T, int) {
	out := make([]T, 0, len(recs))
	dropped := 0

	for _, rec := range recs {
		entity, ok := r.mapOne(rec)
		if !ok {
			dropped++
			continue
		}
		out = append(out, entity)
	}

	return out, dropped
}

// failureMessage предпочитает серверное сообщение из конверта ошибки,
// иначе возвращает сообщение по умолчанию.
func failureMessage(err error, fallback string) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}

	return fallback
}
