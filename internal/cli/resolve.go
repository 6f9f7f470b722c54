package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/alexanderramin/miru/internal/domain"
	"github.com/alexanderramin/miru/internal/repository"
)

// resolveConnection finds a connection by full ID, ID prefix or nickname.
func resolveConnection(ctx context.Context, app *App, userID, input string) (*domain.Connection, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, fmt.Errorf("connection is required")
	}

	conns, err := app.Connections.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	// 1. Exact ID
	for _, c := range conns {
		if c.ID == input {
			return c, nil
		}
	}

	// 2. Exact nickname
	var matches []*domain.Connection
	for _, c := range conns {
		if strings.EqualFold(c.Nickname, input) {
			matches = append(matches, c)
		}
	}

	// 3. ID prefix
	if len(matches) == 0 {
		for _, c := range conns {
			if strings.HasPrefix(c.ID, strings.ToLower(input)) {
				matches = append(matches, c)
			}
		}
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %q", repository.ErrNotFound, input)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("%q matches %d connections; use the ID", input, len(matches))
	}
}
