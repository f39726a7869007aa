package models

// Role — закрытое перечисление ролей пользователя.
type Role string

const (
	// RoleCitizen — обычный житель.
	RoleCitizen Role = "CITIZEN"
	// RoleCommunalAdmin — администратор уровня города.
	RoleCommunalAdmin Role = "ADMIN_COMMUNAL"
	// RoleSystemAdmin — администратор системы.
	RoleSystemAdmin Role = "ADMIN_SYSTEM"
)

// NormalizeRole приводит исторические написания ролей бэкенда к текущим.
// Старая схема использовала франкоязычные значения UTILISATEUR и ADMIN_SYSTEME.
func NormalizeRole(raw string) Role {
	switch raw {
	case "UTILISATEUR":
		return RoleCitizen
	case "ADMIN_SYSTEME":
		return RoleSystemAdmin
	default:
		return Role(raw)
	}
}

// User — профиль пользователя (и учётная запись в админ-списках).
// Active отсутствует в части ответов бэкенда; отсутствие трактуется как true.
type User struct {
	ID             string   `json:"id"`
	Username       string   `json:"username"`
	Email          string   `json:"email"`
	Role           Role     `json:"role"`
	FavoriteCities []string `json:"favoriteCities,omitempty"`
	CityID         string   `json:"cityId,omitempty"`
	Active         bool     `json:"active"`
}

// EntityID возвращает идентификатор для обобщённого хранилища коллекции.
func (u User) EntityID() string { return u.ID }
