// Package lookup resolves people and issues by the loose names a user types.
package lookup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"jtask/internal/logging"
	"jtask/internal/service"
)

// ErrUserNotFound is returned when no account matches a name.
var ErrUserNotFound = errors.New("user not found")

// Resolver maps a name or email to a tracker account.
type Resolver struct {
	svc    service.Service
	logger *slog.Logger
}

// NewResolver creates a Resolver backed by svc.
func NewResolver(svc service.Service, logger *slog.Logger) *Resolver {
	return &Resolver{svc: svc, logger: logging.OrDiscard(logger)}
}

// ResolveUser returns the first account the tracker lists for query.
// Ambiguous names are not detected: the tracker's ordering decides.
// A search failure is logged and returned wrapped; callers that only care
// about "usable or not" can treat any error as not found.
func (r *Resolver) ResolveUser(ctx context.Context, query string) (service.User, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return service.User{}, ErrUserNotFound
	}

	users, err := r.svc.SearchUsers(ctx, query)
	if err != nil {
		r.logger.Error("user search failed", "query", query, "err", err)
		return service.User{}, fmt.Errorf("search users %q: %w", query, err)
	}
	if len(users) == 0 || users[0].AccountID == "" {
		r.logger.Debug("no user matched", "query", query)
		return service.User{}, fmt.Errorf("%w: %q", ErrUserNotFound, query)
	}
	return users[0], nil
}
