package studio

import (
	"context"
	"errors"
)

// ErrNotAuthenticated is returned when no backend credential is available.
var ErrNotAuthenticated = errors.New("no authentication token available, please log in")

// Fetcher retrieves full current collections from the studio backend.
// Implementations must not filter, page or cache.
type Fetcher interface {
	ListPrintJobs(ctx context.Context, credential string) ([]PrintJob, error)
	ListPhotoSessions(ctx context.Context, credential string) ([]PhotoSession, error)
}

// managerRoleDisplay is the display label the backend serves for the manager role.
const managerRoleDisplay = "مدير"

// Actor is the backend user the bot acts as.
// The backend only exposes the role's display label on reads.
type Actor struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	RoleDisplay string `json:"profile_role_display"`
}

func (a *Actor) IsManager() bool {
	return a != nil && a.RoleDisplay == managerRoleDisplay
}

// Directory resolves credentials and the acting user.
type Directory interface {
	Login(ctx context.Context, username, password string) (string, error)
	CurrentUser(ctx context.Context, credential string) (*Actor, error)
}
