// session владеет состоянием аутентификации клиента: личностью,
// токеном и их восстановлением из долговременного хранилища.
//
// Основные аспекты:
//   - инвариант «аутентифицирован» = непустой токен И ненулевая личность,
//     никогда одно без другого;
//   - состояние в памяти не переживает перезапуск процесса; единственный
//     путь восстановления — CheckAuth поверх хранилища kv;
//   - Login гасит ошибки и отчитывается булевым результатом, Register,
//     напротив, пробрасывает ошибку вызывающему (ему нужно показать причину).
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/nassnews/nassnews-client/internal/api"
	"github.com/nassnews/nassnews-client/internal/kv"
	"github.com/nassnews/nassnews-client/internal/mapper"
	"github.com/nassnews/nassnews-client/internal/models"
	"github.com/nassnews/nassnews-client/internal/pkg/log"
)

// Ключи долговременного хранилища (имена исторические, менять нельзя:
// по ним восстанавливаются сессии, записанные прошлыми версиями клиента).
const (
	KeyToken = "jwt_token"
	KeyUser  = "currentUser"
	KeyRole  = "userRole"
)

// State — состояние машины сессии.
type State int

const (
	// StateAnonymous — сессии нет.
	StateAnonymous State = iota
	// StateAuthenticating — выполняется вход.
	StateAuthenticating
	// StateAuthenticated — токен и личность установлены.
	StateAuthenticated
	// StateAuthFailed — последняя попытка входа отклонена.
	StateAuthFailed
)

// Store — хранилище сессии. Конструируется явно и независимо,
// зависимости передаются снаружи (тестовая изоляция).
type Store struct {
	client  *api.Client
	storage kv.Store

	mu      sync.Mutex
	state   State
	user    *models.User
	token   string
	loading bool
	lastErr string
}

// New создаёт хранилище сессии в начальном состоянии StateAnonymous.
func New(client *api.Client, storage kv.Store) *Store {
	return &Store{
		client:  client,
		storage: storage,
		state:   StateAnonymous,
	}
}

// Login выполняет вход. Ошибки не пробрасываются: при любом сбое
// (транспорт, отказ сервера, нечитаемый ответ) состояние переходит
// в StateAuthFailed, сообщение оседает в Err, результат — false.
// Исторические формы ответа терпимы: токен под token или accessToken,
// личность — вложенным объектом user либо полями верхнего уровня.
func (s *Store) Login(ctx context.Context, creds models.LoginRequest) bool {
	s.begin(StateAuthenticating)
	defer s.finish()

	var resp map[string]any
	if err := s.client.PostJSON(ctx, "/auth/login", creds, &resp); err != nil {
		s.fail(failureMessage(err, "Login failed"))
		return false
	}

	token := tokenFromResponse(resp)
	if token == "" {
		s.fail("Login failed: no token in response")
		return false
	}

	user, ok := identityFromResponse(resp)
	if !ok {
		s.fail("Login failed: no user in response")
		return false
	}

	s.mu.Lock()
	s.token = token
	s.user = &user
	s.state = StateAuthenticated
	s.mu.Unlock()

	s.persist(ctx, token, user)

	return true
}

// Register создаёт учётную запись и возвращает сырой ответ бэкенда.
// В отличие от Login ошибка пробрасывается вызывающему.
func (s *Store) Register(ctx context.Context, data models.RegisterRequest) (map[string]any, error) {
	const op = "session.Store.Register"

	s.begin(s.stateLocked())
	defer s.finish()

	var resp map[string]any
	if err := s.client.PostJSON(ctx, "/auth/register", data, &resp); err != nil {
		s.setErr(failureMessage(err, "Registration failed"))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return resp, nil
}

// Logout очищает личность, токен и ошибку и стирает сессию из хранилища.
// Идемпотентен.
func (s *Store) Logout() {
	s.mu.Lock()
	s.user = nil
	s.token = ""
	s.lastErr = ""
	s.state = StateAnonymous
	s.mu.Unlock()

	_ = s.storage.Delete(KeyToken)
	_ = s.storage.Delete(KeyUser)
	_ = s.storage.Delete(KeyRole)
}

// CheckAuth восстанавливает сессию из хранилища: токен и личность
// подхватываются только вместе. Нечитаемая запись личности
// равносильна её отсутствию.
func (s *Store) CheckAuth() {
	token, err := s.storage.Get(KeyToken)
	if err != nil || token == "" {
		return
	}

	raw, err := s.storage.Get(KeyUser)
	if err != nil || raw == "" {
		return
	}

	var user models.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = token
	s.user = &user
	s.state = StateAuthenticated
}

// Reset возвращает хранилище в начальное состояние, не трогая диск.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.user = nil
	s.token = ""
	s.lastErr = ""
	s.loading = false
	s.state = StateAnonymous
}

// Authenticated — токен и личность присутствуют одновременно.
func (s *Store) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.token != "" && s.user != nil
}

// State возвращает текущее состояние машины сессии.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

// Token отдаёт токен сессии; сигнатура совместима с api.TokenSource.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.token
}

// CurrentUser возвращает копию личности или nil.
func (s *Store) CurrentUser() *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.user == nil {
		return nil
	}

	u := *s.user
	return &u
}

// Role возвращает роль текущей личности (пустая при анонимной сессии).
func (s *Store) Role() models.Role {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.user == nil {
		return ""
	}

	return s.user.Role
}

// IsCitizen — роль обычного жителя.
func (s *Store) IsCitizen() bool { return s.Role() == models.RoleCitizen }

// IsCommunalAdmin — роль администратора города.
func (s *Store) IsCommunalAdmin() bool { return s.Role() == models.RoleCommunalAdmin }

// IsSystemAdmin — роль администратора системы.
func (s *Store) IsSystemAdmin() bool { return s.Role() == models.RoleSystemAdmin }

// Loading — выполняется ли сейчас операция входа/регистрации.
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.loading
}

// Err — сообщение последней ошибки (пустая строка — ошибок нет).
func (s *Store) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.lastErr
}

// TokenExpiresAt извлекает срок действия из JWT-токена без проверки подписи
// (подпись проверяет бэкенд). Нулевое время — токена нет, он не JWT
// или клейм exp отсутствует. Значение информационное: восстановление
// сессии и маршрутная проверка его не учитывают.
func (s *Store) TokenExpiresAt() time.Time {
	tok := s.Token()
	if tok == "" {
		return time.Time{}
	}

	parsed, _, err := jwt.NewParser().ParseUnverified(tok, jwt.MapClaims{})
	if err != nil {
		return time.Time{}
	}

	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}

	return exp.Time
}

func (s *Store) begin(next State) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loading = true
	s.lastErr = ""
	s.state = next
}

func (s *Store) finish() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loading = false
}

func (s *Store) fail(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastErr = msg
	s.state = StateAuthFailed
}

func (s *Store) setErr(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastErr = msg
}

func (s *Store) stateLocked() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

// persist пишет сессию в хранилище. Сбой записи не отменяет вход:
// сессия остаётся валидной в памяти, проблема уходит в лог.
func (s *Store) persist(ctx context.Context, token string, user models.User) {
	raw, err := json.Marshal(user)
	if err != nil {
		log.From(ctx).Warn("session_persist_failed", slog.String("err", err.Error()))
		return
	}

	for key, value := range map[string]string{
		KeyToken: token,
		KeyUser:  string(raw),
		KeyRole:  string(user.Role),
	} {
		if err := s.storage.Set(key, value); err != nil {
			log.From(ctx).Warn("session_persist_failed",
				slog.String("key", key), slog.String("err", err.Error()))
		}
	}
}

// tokenFromResponse разрешает токен по историческим именам поля.
func tokenFromResponse(resp map[string]any) string {
	for _, key := range []string{"token", "accessToken"} {
		if s, ok := resp[key].(string); ok && s != "" {
			return s
		}
	}

	return ""
}

// identityFromResponse принимает личность вложенным объектом user
// либо полями верхнего уровня (старый формат ответа).
func identityFromResponse(resp map[string]any) (models.User, bool) {
	if nested, ok := resp["user"].(map[string]any); ok {
		return mapper.User(nested)
	}

	return mapper.User(resp)
}

// failureMessage достаёт серверное сообщение из ошибки API,
// иначе возвращает сообщение по умолчанию.
func failureMessage(err error, fallback string) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}

	return fallback
}
