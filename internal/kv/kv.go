// kv — долговременное клиентское хранилище: плоская карта ключ→значение,
// аналог localStorage браузерного клиента. Сессия и выбор города пишут
// в непересекающиеся пространства ключей, координация между ними не нужна.
// Версионирования схемы нет: восстановление управляется только наличием ключа.
package kv

import "errors"

// ErrNotFound — ключ отсутствует в хранилище.
var ErrNotFound = errors.New("key not found")

// Store — интерфейс долговременного хранилища.
type Store interface {
	// Get возвращает значение ключа или ErrNotFound.
	Get(key string) (string, error)
	// Set записывает значение ключа.
	Set(key, value string) error
	// Delete удаляет ключ; отсутствие ключа не ошибка.
	Delete(key string) error
}
