package models

import "time"

// EventStatus — производный статус события относительно текущего дня.
type EventStatus string

const (
	// EventUpcoming — событие сегодня или позже (равенство дней считается Upcoming).
	EventUpcoming EventStatus = "Upcoming"
	// EventCompleted — событие в прошлом.
	EventCompleted EventStatus = "Completed"
)

// Event — городское событие.
type Event struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Date        string      `json:"date"`
	Location    string      `json:"location"`
	CityID      string      `json:"cityId"`
	Type        string      `json:"type"`
	Status      EventStatus `json:"status"`
	Description string      `json:"description,omitempty"`
	ImageURL    string      `json:"imageUrl,omitempty"`
	Time        string      `json:"time,omitempty"`
}

// EntityID возвращает идентификатор для обобщённого хранилища коллекции.
func (e Event) EntityID() string { return e.ID }

// StatusFor вычисляет статус по дате события с точностью до дня:
// время суток обнуляется у обеих сторон сравнения. Нераспознанная дата
// считается прошедшей.
func StatusFor(date string, now time.Time) EventStatus {
	parsed, err := parseEventDate(date)
	if err != nil {
		return EventCompleted
	}

	day := func(t time.Time) time.Time {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	}

	if day(parsed).Before(day(now)) {
		return EventCompleted
	}

	return EventUpcoming
}

// parseEventDate принимает ISO-даты с временем и без него.
func parseEventDate(raw string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}

	return time.Parse("2006-01-02", raw)
}
