package domain

import (
	"strings"
	"time"
)

type UserID string
type TeamID string

// Role is the authoritative role field carried on every user.
type Role string

const (
	RoleUser               Role = "user"
	RoleMarketingDirector  Role = "marketing_director"
	RoleMarketingManager   Role = "marketing_manager"
	RoleMarketingAssistant Role = "marketing_assistant"
	RoleGraphicsDesigner   Role = "graphics_designer"
	RoleContentWriter      Role = "content_writer"
	RoleAccountManager     Role = "account_manager"
	RoleAccountant         Role = "accountant"
)

// TeamRoles are the roles resolved from a client's team membership.
// Everything else is either client-scoped (account_manager) or global.
var TeamRoles = map[Role]bool{
	RoleMarketingManager:   true,
	RoleContentWriter:      true,
	RoleMarketingAssistant: true,
	RoleGraphicsDesigner:   true,
}

// GlobalRoles are process-wide roles not tied to any team.
var GlobalRoles = map[Role]bool{
	RoleAccountant:        true,
	RoleMarketingDirector: true,
}

type User struct {
	ID        UserID    `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// FullName returns first and last name joined, falling back to the username.
func (u User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}

type Team struct {
	ID        TeamID    `json:"id"`
	Name      string    `json:"name"`
	CreatedBy UserID    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// TeamMember links a user into a team. A user appears in a team at most once.
type TeamMember struct {
	TeamID TeamID `json:"team_id"`
	UserID UserID `json:"user_id"`
}
