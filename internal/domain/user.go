package domain

import (
	"slices"
	"strings"
)

const (
	RoleBuyer           = "buyer"
	RoleSeller          = "seller"
	RoleServiceProvider = "service_provider"
	RoleWalker          = "walker"
	RoleAdmin           = "admin"
)

// SelfServiceRoles are the roles a user may pick at registration.
var SelfServiceRoles = []string{RoleBuyer, RoleSeller, RoleServiceProvider}

var AllRoles = []string{RoleBuyer, RoleSeller, RoleServiceProvider, RoleWalker, RoleAdmin}

type User struct {
	ID         string `db:"id" json:"id"`
	Email      string `db:"email" json:"email"`
	Name       string `db:"name" json:"name"`
	Phone      string `db:"phone" json:"phone"`
	Avatar     string `db:"avatar" json:"avatar"`
	Hash       string `db:"password_hash" json:"-"`
	RolesCSV   string `db:"roles" json:"-"`
	IsVerified bool   `db:"is_verified" json:"is_verified"`
	CreatedAt  string `db:"created_at" json:"created_at"`
	UpdatedAt  string `db:"updated_at" json:"updated_at"`
}

func (u *User) Roles() []string { return SplitRoles(u.RolesCSV) }

func (u *User) HasRole(role string) bool { return slices.Contains(u.Roles(), role) }

// UserView is the shape returned to clients.
type UserView struct {
	ID         string   `json:"id"`
	Email      string   `json:"email"`
	Name       string   `json:"name"`
	Phone      string   `json:"phone"`
	Avatar     string   `json:"avatar"`
	Roles      []string `json:"roles"`
	IsVerified bool     `json:"is_verified"`
	CreatedAt  string   `json:"created_at"`
}

func (u *User) View() UserView {
	return UserView{
		ID: u.ID, Email: u.Email, Name: u.Name, Phone: u.Phone, Avatar: u.Avatar,
		Roles: u.Roles(), IsVerified: u.IsVerified, CreatedAt: u.CreatedAt,
	}
}

func SplitRoles(csv string) []string {
	var out []string
	for _, r := range strings.Split(csv, ",") {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return out
}

// JoinRoles dedupes and keeps the canonical role order.
func JoinRoles(roles []string) string {
	var out []string
	for _, r := range AllRoles {
		if slices.Contains(roles, r) {
			out = append(out, r)
		}
	}
	return strings.Join(out, ",")
}

func ValidRole(r string) bool { return slices.Contains(AllRoles, r) }
