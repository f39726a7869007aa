package models

import (
	"strings"
	"time"
)

// SummaryLimit — порог усечения контента при выводе краткой сводки (в рунах).
const SummaryLimit = 150

// SummaryEllipsis — маркер усечения, добавляемый к обрезанной сводке.
const SummaryEllipsis = "..."

// News — новость, привязанная к городу.
// Summary — производное поле: контент, усечённый до SummaryLimit рун
// с маркером усечения (см. Summarize).
type News struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Summary     string `json:"summary"`
	Content     string `json:"content,omitempty"`
	PublishedAt string `json:"datePublication"`
	CityID      string `json:"cityId"`
	ImageURL    string `json:"imageUrl,omitempty"`
	Author      string `json:"author,omitempty"`
	Category    string `json:"category,omitempty"`
}

// EntityID возвращает идентификатор для обобщённого хранилища коллекции.
func (n News) EntityID() string { return n.ID }

// Summarize строит сводку из полного контента: первые SummaryLimit рун
// плюс маркер усечения, либо контент целиком, если он короче порога.
// Пустой контент даёт пустую сводку.
func Summarize(content string) string {
	runes := []rune(content)
	if len(runes) <= SummaryLimit {
		return content
	}

	return string(runes[:SummaryLimit]) + SummaryEllipsis
}

// PublishedToday сравнивает дату публикации с «сегодня» с точностью до дня.
// Дата публикации хранится строкой ISO-8601; сравниваем строковые префиксы
// YYYY-MM-DD, как это делал исходный фронтенд.
func (n News) PublishedToday(now time.Time) bool {
	return strings.HasPrefix(n.PublishedAt, now.Format("2006-01-02"))
}
