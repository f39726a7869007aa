package store

import (
	"context"

	"github.com/nassnews/nassnews-client/internal/api"
	"github.com/nassnews/nassnews-client/internal/mapper"
	"github.com/nassnews/nassnews-client/internal/models"
)

// UserStore — коллекция учётных записей для админ-экранов системы.
type UserStore struct {
	*Resource[models.User]
}

// NewUserStore создаёт хранилище пользователей.
func NewUserStore(client *api.Client) *UserStore {
	return &UserStore{
		Resource: newResource(client, "users", "/utilisateurs", "villeId", mapper.User),
	}
}

// Activate снимает блокировку учётной записи.
func (s *UserStore) Activate(ctx context.Context, userID string) (models.User, error) {
	return s.Update(ctx, userID, map[string]any{"active": true})
}

// Suspend блокирует учётную запись.
func (s *UserStore) Suspend(ctx context.Context, userID string) (models.User, error) {
	return s.Update(ctx, userID, map[string]any{"active": false})
}

// Citizens — пользователи с ролью обычного жителя.
func (s *UserStore) Citizens() []models.User { return s.byRole(models.RoleCitizen) }

// CommunalAdmins — администраторы уровня города.
func (s *UserStore) CommunalAdmins() []models.User { return s.byRole(models.RoleCommunalAdmin) }

// SystemAdmins — администраторы системы.
func (s *UserStore) SystemAdmins() []models.User { return s.byRole(models.RoleSystemAdmin) }

// Active — неблокированные учётные записи.
func (s *UserStore) Active() []models.User {
	var out []models.User
	for _, u := range s.Items() {
		if u.Active {
			out = append(out, u)
		}
	}

	return out
}

// Suspended — заблокированные учётные записи.
func (s *UserStore) Suspended() []models.User {
	var out []models.User
	for _, u := range s.Items() {
		if !u.Active {
			out = append(out, u)
		}
	}

	return out
}

func (s *UserStore) byRole(role models.Role) []models.User {
	var out []models.User
	for _, u := range s.Items() {
		if u.Role == role {
			out = append(out, u)
		}
	}

	return out
}
