package store

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nassnews/nassnews-client/internal/api"
)

func newClient(t *testing.T, handler http.Handler) *api.Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return api.New(srv.URL, "/api", 5*time.Second)
}

func TestFetchByCity_MapsAndFilters(t *testing.T) {
	t.Parallel()

	r := chi.NewRouter()
	r.Get("/api/actualites", func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "c1", req.URL.Query().Get("villeId"))
		// Две полноценные записи и одна без распознаваемого идентификатора.
		_, _ = w.Write([]byte(`[
			{"id":"n1","titre":"first","contenu":"a","villeId":"c1"},
			{"titre":"no id","contenu":"b","villeId":"c1"},
			{"_id":"n2","titre":"second","contenu":"c","villeId":"c1"}
		]`))
	})

	s := NewNewsStore(newClient(t, r))
	s.FetchByCity(context.Background(), "c1")

	require.Empty(t, s.Err())
	require.Equal(t, 2, s.Len())

	items := s.Items()
	// Порядок ответа сохраняется.
	assert.Equal(t, "n1", items[0].ID)
	assert.Equal(t, "n2", items[1].ID)
	for _, item := range items {
		assert.Equal(t, "c1", item.CityID)
	}
	assert.False(t, s.Loading())
}

func TestFetchAll_FailureEmptiesCollection(t *testing.T) {
	t.Parallel()

	var fail atomic.Bool
	r := chi.NewRouter()
	r.Get("/api/actualites", func(w http.ResponseWriter, _ *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`[{"id":"n1","titre":"t","contenu":"c"}]`))
	})

	s := NewNewsStore(newClient(t, r))

	s.FetchAll(context.Background())
	require.Equal(t, 1, s.Len())

	// Ошибка чтения гасится: сообщение в Err, коллекция опустошена.
	fail.Store(true)
	s.FetchAll(context.Background())

	assert.Equal(t, 0, s.Len())
	assert.Equal(t, "Failed to fetch news", s.Err())
	assert.False(t, s.Loading())

	// Следующий успех очищает ошибку и замещает коллекцию.
	fail.Store(false)
	s.FetchAll(context.Background())
	assert.Empty(t, s.Err())
	assert.Equal(t, 1, s.Len())
}

func TestCreate_InsertsAtFront(t *testing.T) {
	t.Parallel()

	r := chi.NewRouter()
	r.Get("/api/events", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"idEvenement":"e1","titre":"old","dateEvenement":"2099-01-01","villeId":"c1"}]`))
	})
	r.Post("/api/events", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"idEvenement":"e2","titre":"new","dateEvenement":"2099-06-01","villeId":"c1"}`))
	})

	s := NewEventStore(newClient(t, r), nil)
	s.FetchByCity(context.Background(), "c1")
	require.Equal(t, 1, s.Len())

	created, err := s.Create(context.Background(), map[string]any{"titre": "new"})
	require.NoError(t, err)
	assert.Equal(t, "e2", created.ID)

	items := s.Items()
	require.Len(t, items, 2)
	// Свежая запись встаёт в начало.
	assert.Equal(t, "e2", items[0].ID)
	assert.Equal(t, "e1", items[1].ID)
}

func TestCreate_FailureLeavesCollectionUnchanged(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		body     string
		wantMsg  string
		wantErrs string
	}{
		{
			name:     "server-supplied message",
			body:     `{"message":"titre is required"}`,
			wantMsg:  "titre is required",
			wantErrs: "titre is required",
		},
		{
			name:     "default message when server is silent",
			body:     ``,
			wantMsg:  "",
			wantErrs: "Failed to create events",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			r := chi.NewRouter()
			r.Get("/api/events", func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`[{"idEvenement":"e1","titre":"old","dateEvenement":"2099-01-01"}]`))
			})
			r.Post("/api/events", func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(tc.body))
			})

			s := NewEventStore(newClient(t, r), nil)
			s.FetchAll(context.Background())
			before := s.Items()

			_, err := s.Create(context.Background(), map[string]any{})
			require.Error(t, err)

			// Ошибка записи пробрасывается И оседает в Err.
			var apiErr *api.Error
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tc.wantMsg, apiErr.Message)
			assert.Equal(t, tc.wantErrs, s.Err())

			assert.Equal(t, before, s.Items())
			assert.False(t, s.Loading())
		})
	}
}

func TestUpdate_ReplacesInPlace(t *testing.T) {
	t.Parallel()

	r := chi.NewRouter()
	r.Get("/api/events", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[
			{"idEvenement":"e1","titre":"a","dateEvenement":"2099-01-01"},
			{"idEvenement":"e2","titre":"b","dateEvenement":"2099-01-02"},
			{"idEvenement":"e3","titre":"c","dateEvenement":"2099-01-03"}
		]`))
	})
	r.Put("/api/events/{id}", func(w http.ResponseWriter, req *http.Request) {
		_, _ = w.Write([]byte(`{"idEvenement":"` + chi.URLParam(req, "id") + `","titre":"updated","dateEvenement":"2099-01-02"}`))
	})

	s := NewEventStore(newClient(t, r), nil)
	s.FetchAll(context.Background())
	require.Equal(t, 3, s.Len())

	updated, err := s.Update(context.Background(), "e2", map[string]any{"titre": "updated"})
	require.NoError(t, err)
	assert.Equal(t, "updated", updated.Title)

	items := s.Items()
	require.Len(t, items, 3)
	// Позиция сохранена.
	assert.Equal(t, "e1", items[0].ID)
	assert.Equal(t, "e2", items[1].ID)
	assert.Equal(t, "updated", items[1].Title)
	assert.Equal(t, "e3", items[2].ID)
}

func TestUpdate_UnknownIDNotInserted(t *testing.T) {
	t.Parallel()

	r := chi.NewRouter()
	r.Put("/api/events/{id}", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"idEvenement":"ghost","titre":"x","dateEvenement":"2099-01-01"}`))
	})

	s := NewEventStore(newClient(t, r), nil)

	_, err := s.Update(context.Background(), "ghost", map[string]any{})
	require.NoError(t, err)

	// Отсутствующий идентификатор не приводит к вставке.
	assert.Equal(t, 0, s.Len())
}

func TestDelete_RemovesByID(t *testing.T) {
	t.Parallel()

	var deleteFails atomic.Bool
	r := chi.NewRouter()
	r.Get("/api/events", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[
			{"idEvenement":"e1","titre":"a","dateEvenement":"2099-01-01"},
			{"idEvenement":"e2","titre":"b","dateEvenement":"2099-01-02"}
		]`))
	})
	r.Delete("/api/events/{id}", func(w http.ResponseWriter, _ *http.Request) {
		if deleteFails.Load() {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	s := NewEventStore(newClient(t, r), nil)
	s.FetchAll(context.Background())
	require.Equal(t, 2, s.Len())

	// Сбой удаления не меняет коллекцию.
	deleteFails.Store(true)
	err := s.Delete(context.Background(), "e1")
	require.Error(t, err)
	assert.Equal(t, 2, s.Len())

	deleteFails.Store(false)
	require.NoError(t, s.Delete(context.Background(), "e1"))

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "e2", items[0].ID)
}

func TestByID(t *testing.T) {
	t.Parallel()

	r := chi.NewRouter()
	r.Get("/api/actualites", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"id":"n1","titre":"t","contenu":"c"}]`))
	})

	s := NewNewsStore(newClient(t, r))
	s.FetchAll(context.Background())

	item, ok := s.ByID("n1")
	require.True(t, ok)
	assert.Equal(t, "t", item.Title)

	_, ok = s.ByID("missing")
	assert.False(t, ok)
}

// TestConcurrentFetch_LastWriteWins фиксирует осознанную гонку:
// параллельные загрузки одного хранилища не сериализуются, финальное
// состояние коллекции определяет завершившаяся последней.
func TestConcurrentFetch_LastWriteWins(t *testing.T) {
	t.Parallel()

	firstArrived := make(chan struct{})
	release := make(chan struct{})

	var calls atomic.Int32
	r := chi.NewRouter()
	r.Get("/api/actualites", func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			close(firstArrived)
			<-release // первый ответ задерживается до завершения второго
			_, _ = w.Write([]byte(`[{"id":"slow","titre":"slow","contenu":"s"}]`))
			return
		}
		_, _ = w.Write([]byte(`[{"id":"fast","titre":"fast","contenu":"f"}]`))
	})

	s := NewNewsStore(newClient(t, r))

	done := make(chan struct{})
	go func() {
		s.FetchAll(context.Background())
		close(done)
	}()

	<-firstArrived
	s.FetchAll(context.Background()) // второй запрос завершается первым

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "fast", items[0].ID)

	close(release)
	<-done

	// Запоздавший первый ответ перезаписал результат второго.
	items = s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "slow", items[0].ID)
}

func TestReset(t *testing.T) {
	t.Parallel()

	r := chi.NewRouter()
	r.Get("/api/actualites", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	s := NewNewsStore(newClient(t, r))
	s.FetchAll(context.Background())
	require.NotEmpty(t, s.Err())

	s.Reset()

	assert.Equal(t, 0, s.Len())
	assert.Empty(t, s.Err())
	assert.False(t, s.Loading())
}
