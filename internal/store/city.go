package store

import (
	"context"
	"fmt"

	"github.com/nassnews/nassnews-client/internal/api"
	"github.com/nassnews/nassnews-client/internal/mapper"
	"github.com/nassnews/nassnews-client/internal/models"
)

// CityStore — коллекция городов. Города появляются при полной загрузке
// либо при определении по координатам и локально никогда не удаляются.
type CityStore struct {
	*Resource[models.City]
}

// NewCityStore создаёт хранилище городов.
func NewCityStore(client *api.Client) *CityStore {
	return &CityStore{
		Resource: newResource(client, "cities", "/cities", "", mapper.City),
	}
}

// detectRequest — тело запроса определения города по координатам.
type detectRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// DetectCity определяет город по координатам позиции. Ответ обязан
// содержать разрешимый идентификатор и имя, иначе он считается
// неполным и отбрасывается. Найденный город добавляется в коллекцию,
// если его там ещё нет. Ошибка гасится в Err, результат — nil
// (политика операций чтения).
func (s *CityStore) DetectCity(ctx context.Context, latitude, longitude float64) *models.City {
	s.begin()
	defer s.finish()

	var rec map[string]any
	err := s.client.PostJSON(ctx, "/cities/detect-city", detectRequest{
		Latitude:  latitude,
		Longitude: longitude,
	}, &rec)
	if err != nil {
		s.setErr(failureMessage(err, "Failed to detect city"))
		return nil
	}

	city, ok := mapper.City(rec)
	if !ok || city.Name == "" {
		s.setErr(fmt.Sprintf("Failed to detect city: %s", ErrMalformedResponse))
		return nil
	}

	s.mu.Lock()
	if _, exists := s.byIDLocked(city.ID); !exists {
		s.items = append(s.items, city)
	}
	s.mu.Unlock()

	return &city
}
