package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/agencyflow/agencyflow/internal/core/domain"
)

// RoleRepo is the minimal storage surface role resolution needs.
type RoleRepo interface {
	GetUser(ctx context.Context, id domain.UserID) (domain.User, error)
	FirstUserWithRole(ctx context.Context, role domain.Role) (*domain.User, error)
	TeamMemberWithRole(ctx context.Context, teamID domain.TeamID, role domain.Role) (*domain.User, error)
}

// RoleDirectory resolves an abstract role name to a concrete user in the
// context of one client. Global roles (accountant, marketing_director) go
// through an explicit config mapping first; the first-user-with-role lookup
// is only a fallback for unconfigured deployments.
type RoleDirectory struct {
	logger  *slog.Logger
	repo    RoleRepo
	globals map[domain.Role]domain.UserID
}

func NewRoleDirectory(logger *slog.Logger, repo RoleRepo, globals map[domain.Role]domain.UserID) *RoleDirectory {
	if globals == nil {
		globals = map[domain.Role]domain.UserID{}
	}
	return &RoleDirectory{logger: logger, repo: repo, globals: globals}
}

// Resolve returns the user holding the role for this client, or nil when the
// role cannot be filled. A nil user is not an error: callers treat it as
// "cannot advance the workflow".
func (d *RoleDirectory) Resolve(ctx context.Context, role domain.Role, client domain.Client) (*domain.User, error) {
	switch {
	case domain.TeamRoles[role]:
		if client.TeamID == nil {
			d.logger.Warn("role resolution failed: client has no team", "role", role, "client", client.ID)
			return nil, nil
		}
		member, err := d.repo.TeamMemberWithRole(ctx, *client.TeamID, role)
		if err != nil {
			return nil, fmt.Errorf("lookup team member %s: %w", role, err)
		}
		if member == nil {
			d.logger.Warn("role not filled on team", "role", role, "team", *client.TeamID)
		}
		return member, nil

	case role == domain.RoleAccountManager:
		if client.AccountManager != "" {
			u, err := d.repo.GetUser(ctx, client.AccountManager)
			if err == nil {
				return &u, nil
			}
			if !errors.Is(err, domain.ErrNotFound) {
				return nil, fmt.Errorf("lookup account manager: %w", err)
			}
		}
		// Fall back to the team's account manager member.
		if client.TeamID == nil {
			return nil, nil
		}
		member, err := d.repo.TeamMemberWithRole(ctx, *client.TeamID, domain.RoleAccountManager)
		if err != nil {
			return nil, fmt.Errorf("lookup team account manager: %w", err)
		}
		return member, nil

	case domain.GlobalRoles[role]:
		if id, ok := d.globals[role]; ok {
			u, err := d.repo.GetUser(ctx, id)
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					d.logger.Warn("configured global role points at missing user", "role", role, "user", id)
					return nil, nil
				}
				return nil, fmt.Errorf("lookup configured %s: %w", role, err)
			}
			return &u, nil
		}
		u, err := d.repo.FirstUserWithRole(ctx, role)
		if err != nil {
			return nil, fmt.Errorf("lookup global role %s: %w", role, err)
		}
		if u == nil {
			d.logger.Warn("global role has no holder", "role", role)
		}
		return u, nil
	}

	d.logger.Warn("unrecognized role", "role", role)
	return nil, nil
}
