// mapper — единственная граница нормализации сырых записей бэкенда.
// Имена полей бэкенда менялись между ревизиями (франкоязычная схема
// сменилась английской, числовые идентификаторы — непрозрачными строками),
// поэтому каждая функция принимает нетипизированную запись map[string]any
// и терпимо относится к альтернативным именам одного и того же поля.
//
// Контракт:
//   - функции чистые и тотальные: никогда не паникуют;
//   - запись без распознаваемого идентификатора отбрасывается (ok=false),
//     пакетные варианты исключают её из результата и считают мягкой ошибкой;
//   - никакой другой пакет не вправе заглядывать в сырые имена полей.
package mapper

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/nassnews/nassnews-client/internal/models"
)

// City нормализует запись города. ok=false — идентификатор не распознан.
func City(rec map[string]any) (models.City, bool) {
	id, ok := idField(rec, "id", "_id")
	if !ok {
		return models.City{}, false
	}

	return models.City{
		ID:         id,
		Name:       stringField(rec, "nom", "name"),
		Region:     stringField(rec, "region"),
		Population: intField(rec, "population"),
		Coords:     stringField(rec, "coordonnees", "coords"),
	}, true
}

// News нормализует запись новости и выводит сводку из контента.
func News(rec map[string]any) (models.News, bool) {
	id, ok := idField(rec, "id", "_id")
	if !ok {
		return models.News{}, false
	}

	content := stringField(rec, "contenu", "content")

	return models.News{
		ID:          id,
		Title:       stringField(rec, "titre", "title"),
		Summary:     models.Summarize(content),
		Content:     content,
		PublishedAt: normalizeDate(stringField(rec, "datePublication", "publishedAt")),
		CityID:      idString(rec, "villeId", "cityId"),
		ImageURL:    stringField(rec, "imageUrl"),
		Author:      stringField(rec, "source", "author"),
		Category:    stringField(rec, "categorie", "category"),
	}, true
}

// Event нормализует запись события и вычисляет статус относительно now.
func Event(rec map[string]any, now time.Time) (models.Event, bool) {
	id, ok := idField(rec, "idEvenement", "id", "_id")
	if !ok {
		return models.Event{}, false
	}

	date := stringField(rec, "dateEvenement", "date")

	return models.Event{
		ID:          id,
		Title:       stringField(rec, "titre", "title"),
		Date:        date,
		Location:    stringField(rec, "lieu", "location"),
		CityID:      idString(rec, "villeId", "cityId"),
		Type:        stringField(rec, "typeEvenement", "type"),
		Status:      models.StatusFor(date, now),
		Description: stringField(rec, "description"),
		ImageURL:    stringField(rec, "imageUrl"),
		Time:        stringField(rec, "heure", "time"),
	}, true
}

// User нормализует запись пользователя. Роль приводится к текущему
// перечислению; отсутствующий флаг active трактуется как true.
func User(rec map[string]any) (models.User, bool) {
	id, ok := idField(rec, "idUtilisateur", "id", "_id")
	if !ok {
		return models.User{}, false
	}

	active := true
	if v, present := rec["active"]; present {
		if b, isBool := v.(bool); isBool {
			active = b
		}
	}

	return models.User{
		ID:             id,
		Username:       stringField(rec, "nom", "username"),
		Email:          stringField(rec, "email"),
		Role:           models.NormalizeRole(stringField(rec, "role")),
		FavoriteCities: idList(rec, "villesFavorites", "favoriteCities"),
		CityID:         idString(rec, "villeId", "cityId"),
		Active:         active,
	}, true
}

// Cities нормализует пакет записей; возвращает результат и число отброшенных.
func Cities(recs []map[string]any) ([]models.City, int) {
	out := make([]models.City, 0, len(recs))
	dropped := 0

	for _, rec := range recs {
		city, ok := City(rec)
		if !ok {
			dropped++
			continue
		}
		out = append(out, city)
	}

	return out, dropped
}

// NewsList нормализует пакет новостей; порядок ответа сохраняется.
func NewsList(recs []map[string]any) ([]models.News, int) {
	out := make([]models.News, 0, len(recs))
	dropped := 0

	for _, rec := range recs {
		item, ok := News(rec)
		if !ok {
			dropped++
			continue
		}
		out = append(out, item)
	}

	return out, dropped
}

// Events нормализует пакет событий.
func Events(recs []map[string]any, now time.Time) ([]models.Event, int) {
	out := make([]models.Event, 0, len(recs))
	dropped := 0

	for _, rec := range recs {
		event, ok := Event(rec, now)
		if !ok {
			dropped++
			continue
		}
		out = append(out, event)
	}

	return out, dropped
}

// Users нормализует пакет пользователей.
func Users(recs []map[string]any) ([]models.User, int) {
	out := make([]models.User, 0, len(recs))
	dropped := 0

	for _, rec := range recs {
		user, ok := User(rec)
		if !ok {
			dropped++
			continue
		}
		out = append(out, user)
	}

	return out, dropped
}

// stringField возвращает первое присутствующее строковое значение
// из перечисленных альтернативных имён поля.
func stringField(rec map[string]any, aliases ...string) string {
	for _, key := range aliases {
		if v, ok := rec[key]; ok {
			if s, isStr := v.(string); isStr && s != "" {
				return s
			}
		}
	}

	return ""
}

// idField разрешает идентификатор по списку альтернативных имён.
// Обе исторические схемы поддерживаются: непрозрачные строки берутся
// как есть, числовые значения форматируются в десятичную строку.
// ok=false — ни одно имя не дало непустого значения.
func idField(rec map[string]any, aliases ...string) (string, bool) {
	for _, key := range aliases {
		if s := coerceID(rec[key]); s != "" {
			return s, true
		}
	}

	return "", false
}

// idString — как idField, но отсутствие значения не фатально (ссылки на город).
func idString(rec map[string]any, aliases ...string) string {
	s, _ := idField(rec, aliases...)
	return s
}

// coerceID приводит значение произвольного JSON-типа к строковому идентификатору.
func coerceID(v any) string {
	switch id := v.(type) {
	case string:
		return strings.TrimSpace(id)
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(id, 10)
	case int:
		return strconv.Itoa(id)
	case json.Number:
		return id.String()
	default:
		return ""
	}
}

// idList приводит массив ссылок (любого исторического типа) к строкам.
func idList(rec map[string]any, aliases ...string) []string {
	for _, key := range aliases {
		raw, ok := rec[key].([]any)
		if !ok {
			continue
		}

		out := make([]string, 0, len(raw))
		for _, v := range raw {
			if s := coerceID(v); s != "" {
				out = append(out, s)
			}
		}

		return out
	}

	return nil
}

// intField принимает число или числовую строку.
func intField(rec map[string]any, key string) int64 {
	switch v := rec[key].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	case json.Number:
		n, _ := v.Int64()
		return n
	case string:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	default:
		return 0
	}
}

// normalizeDate дополняет «голую» дату нулевым временем,
// как это делал исходный фронтенд при отрисовке.
func normalizeDate(raw string) string {
	if raw == "" || strings.Contains(raw, "T") {
		return raw
	}

	return raw + "T00:00:00"
}
