// models содержит нормализованные сущности клиента.
// Поля именуются по «английской» схеме фронтенда; перевод из
// исторических форматов бэкенда выполняет исключительно пакет mapper.
package models

// City — город, к которому привязываются новости и события.
// ID — непрозрачный строковый идентификатор (см. решение в DESIGN.md:
// числовые идентификаторы старой схемы приводятся к десятичной строке).
type City struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Region     string `json:"region"`
	Population int64  `json:"population,omitempty"`
	Coords     string `json:"coords,omitempty"`
}

// EntityID возвращает идентификатор для обобщённого хранилища коллекции.
func (c City) EntityID() string { return c.ID }
