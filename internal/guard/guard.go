// guard — проверка доступа перед каждым переходом к защищённому экрану.
// Маршрут объявляет требования (аутентификация и/или конкретная роль);
// guard сверяет их с состоянием сессии и выносит решение: пропустить
// или перенаправить на экран входа с запоминанием исходной цели.
package guard

import (
	"github.com/nassnews/nassnews-client/internal/kv"
	"github.com/nassnews/nassnews-client/internal/models"
	"github.com/nassnews/nassnews-client/internal/session"
)

// LoginRoute — единый пункт перенаправления. Несовпадение роли ведёт
// туда же, куда и отсутствие входа: отдельного экрана «доступ запрещён»
// в продукте нет, и придумывать его здесь нельзя.
const LoginRoute = "login"

// Requirements — объявленные требования маршрута.
// Непустая RequiresRole подразумевает и требование аутентификации.
type Requirements struct {
	RequiresAuth bool
	RequiresRole models.Role
}

// Decision — решение guard по одному переходу.
type Decision struct {
	Allowed    bool
	RedirectTo string // маршрут перенаправления (LoginRoute)
	ReturnTo   string // исходно запрошенный маршрут
}

// Guard сверяет требования маршрутов с состоянием сессии.
// Токен проверяется напрямую в долговременном хранилище: после полного
// перезапуска память сессии пуста, и только хранилище знает правду.
type Guard struct {
	session *session.Store
	storage kv.Store
}

// New создаёт guard поверх сессии и её хранилища.
func New(sess *session.Store, storage kv.Store) *Guard {
	return &Guard{
		session: sess,
		storage: storage,
	}
}

// Check выполняет проверку перехода к маршруту route с требованиями req.
func (g *Guard) Check(route string, req Requirements) Decision {
	needsAuth := req.RequiresAuth || req.RequiresRole != ""
	if !needsAuth {
		return Decision{Allowed: true}
	}

	redirect := Decision{
		RedirectTo: LoginRoute,
		ReturnTo:   route,
	}

	token, err := g.storage.Get(session.KeyToken)
	if err != nil || token == "" {
		return redirect
	}

	// Память сессии расходится с хранилищем (процесс перезапущен,
	// восстановление ещё не выполнялось) — сверяем через CheckAuth.
	if !g.session.Authenticated() {
		g.session.CheckAuth()
	}

	if !g.session.Authenticated() {
		return redirect
	}

	if req.RequiresRole != "" && g.session.Role() != req.RequiresRole {
		return redirect
	}

	return Decision{Allowed: true}
}
