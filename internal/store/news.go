package store

import (
	"context"
	"log/slog"
	"net/url"
	"time"

	"github.com/nassnews/nassnews-client/internal/api"
	"github.com/nassnews/nassnews-client/internal/mapper"
	"github.com/nassnews/nassnews-client/internal/models"
	"github.com/nassnews/nassnews-client/internal/pkg/log"
)

// NewsStore — коллекция новостей плюс операции избранного,
// вложенные под идентификатор пользователя.
type NewsStore struct {
	*Resource[models.News]
}

// NewNewsStore создаёт хранилище новостей.
func NewNewsStore(client *api.Client) *NewsStore {
	return &NewsStore{
		Resource: newResource(client, "news", "/actualites", "villeId", mapper.News),
	}
}

// TodaysNews отбирает новости, опубликованные сегодня (с точностью до дня).
func (s *NewsStore) TodaysNews(now time.Time) []models.News {
	var out []models.News
	for _, item := range s.Items() {
		if item.PublishedToday(now) {
			out = append(out, item)
		}
	}

	return out
}

// favoritesPath — путь избранных новостей пользователя.
func favoritesPath(userID string) string {
	return "/utilisateurs/" + url.PathEscape(userID) + "/favorites/news"
}

// AddFavorite помечает новость избранной для пользователя.
// Ошибки не пробрасываются: ответ — получилось или нет
// (исторический контракт вызывающих экранов).
func (s *NewsStore) AddFavorite(ctx context.Context, userID, newsID string) bool {
	err := s.client.PostJSON(ctx, favoritesPath(userID)+"/"+url.PathEscape(newsID), nil, nil)
	if err != nil {
		log.From(ctx).Warn("favorite_add_failed",
			slog.String("news_id", newsID), slog.String("err", err.Error()))
		return false
	}

	return true
}

// RemoveFavorite снимает пометку избранного.
func (s *NewsStore) RemoveFavorite(ctx context.Context, userID, newsID string) bool {
	err := s.client.Delete(ctx, favoritesPath(userID)+"/"+url.PathEscape(newsID))
	if err != nil {
		log.From(ctx).Warn("favorite_remove_failed",
			slog.String("news_id", newsID), slog.String("err", err.Error()))
		return false
	}

	return true
}

// Favorites возвращает идентификаторы избранных новостей пользователя.
// 404 означает «избранного ещё нет» и даёт пустой список; прочие сбои
// тоже гасятся в пустой список.
func (s *NewsStore) Favorites(ctx context.Context, userID string) []string {
	var ids []any
	if err := s.client.GetJSON(ctx, favoritesPath(userID), nil, &ids); err != nil {
		if !api.IsStatus(err, 404) {
			log.From(ctx).Warn("favorites_fetch_failed", slog.String("err", err.Error()))
		}
		return []string{}
	}

	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if id, ok := v.(string); ok && id != "" {
			out = append(out, id)
		}
	}

	return out
}
