package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"reflectivejournal/internal/domain"
)

var ErrEmptyToken = errors.New("token is empty")

// Storage persists credentials per user. A missing session is (nil, nil).
type Storage interface {
	GetSession(ctx context.Context, userID int64) (*domain.Credentials, error)
	UpsertSession(ctx context.Context, userID int64, creds domain.Credentials) error
	DeleteSession(ctx context.Context, userID int64) error
}

// Holder is the credential slot of a single user.
type Holder struct {
	storage Storage
	userID  int64
}

func NewHolder(storage Storage, userID int64) *Holder {
	return &Holder{storage: storage, userID: userID}
}

func (h *Holder) UserID() int64 {
	return h.userID
}

// Load reports false when the user has never logged in or has logged out.
func (h *Holder) Load(ctx context.Context) (domain.Credentials, bool, error) {
	creds, err := h.storage.GetSession(ctx, h.userID)
	if err != nil {
		return domain.Credentials{}, false, fmt.Errorf("get session: %w", err)
	}

	if creds == nil || strings.TrimSpace(creds.Token) == "" {
		return domain.Credentials{}, false, nil
	}

	return *creds, true, nil
}

func (h *Holder) Save(ctx context.Context, creds domain.Credentials) error {
	creds.Token = strings.TrimSpace(creds.Token)
	if creds.Token == "" {
		return ErrEmptyToken
	}

	if err := h.storage.UpsertSession(ctx, h.userID, creds); err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}

	return nil
}

func (h *Holder) Clear(ctx context.Context) error {
	if err := h.storage.DeleteSession(ctx, h.userID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	return nil
}
