package store

import (
	"sync"

	"github.com/nassnews/nassnews-client/internal/kv"
	"github.com/nassnews/nassnews-client/internal/models"
)

// KeySelectedCity — ключ сохранённого выбора в долговременном хранилище
// (имя историческое, по нему восстанавливаются старые записи).
const KeySelectedCity = "currentCityId"

// Selection — выбор «текущего города». Инвариант: выбор либо пуст,
// либо ссылается на идентификатор, присутствующий в коллекции городов;
// при изменении коллекции выбор сверяется заново (Reconcile).
type Selection struct {
	cities  *CityStore
	storage kv.Store

	mu        sync.Mutex
	currentID string
}

// NewSelection создаёт хранилище выбора поверх коллекции городов.
func NewSelection(cities *CityStore, storage kv.Store) *Selection {
	return &Selection{
		cities:  cities,
		storage: storage,
	}
}

// SetCurrent устанавливает текущий город и сохраняет выбор.
func (s *Selection) SetCurrent(cityID string) {
	s.mu.Lock()
	s.currentID = cityID
	s.mu.Unlock()

	_ = s.storage.Set(KeySelectedCity, cityID)
}

// LoadSaved восстанавливает сохранённый выбор, но только если он
// указывает на город из текущей коллекции: устаревшая запись
// (город с тех пор исчез) молча отбрасывается, выбор остаётся пустым.
func (s *Selection) LoadSaved() {
	saved, err := s.storage.Get(KeySelectedCity)
	if err != nil || saved == "" {
		return
	}

	if _, ok := s.cities.ByID(saved); !ok {
		return
	}

	s.mu.Lock()
	s.currentID = saved
	s.mu.Unlock()
}

// Reconcile сверяет выбор с коллекцией городов после её изменения:
// исчезнувший город обнуляет выбор.
func (s *Selection) Reconcile() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.currentID == "" {
		return
	}

	if _, ok := s.cities.ByID(s.currentID); !ok {
		s.currentID = ""
	}
}

// CurrentID возвращает идентификатор выбранного города (пустая строка — выбора нет).
func (s *Selection) CurrentID() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.currentID
}

// Current — производный поиск полной сущности города по выбору;
// nil, когда выбор пуст или город не разрешается в коллекции.
func (s *Selection) Current() *models.City {
	id := s.CurrentID()
	if id == "" {
		return nil
	}

	city, ok := s.cities.ByID(id)
	if !ok {
		return nil
	}

	return &city
}

// Reset очищает выбор в памяти, не трогая сохранённое значение.
func (s *Selection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.currentID = ""
}
