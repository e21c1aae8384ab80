package chat

import (
	"context"
	"errors"

	"jasaku/server/internal/models"
	"jasaku/server/internal/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrAdmissionDenied is returned when a connection attempt must be rejected
// before a session is created
var ErrAdmissionDenied = errors.New("connection admission denied")

// UserFinder resolves a durable user identity. FindByID returns (nil, nil)
// when the user does not exist.
type UserFinder interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// Gate decides the identity attached to a real-time session at
// connection-open time.
type Gate struct {
	users          UserFinder
	allowAnonymous bool
	log            *zap.Logger
}

// NewGate creates a connection gate. When allowAnonymous is set, a missing
// credential yields a throwaway guest identity instead of a rejection.
func NewGate(users UserFinder, allowAnonymous bool, log *zap.Logger) *Gate {
	return &Gate{users: users, allowAnonymous: allowAnonymous, log: log}
}

// Admit verifies the optional bearer credential and returns the identity and
// display profile for the session. A present-but-invalid credential, or a
// credential whose user no longer exists, is rejected.
func (g *Gate) Admit(ctx context.Context, token string) (models.UserResponse, error) {
	if token == "" {
		if !g.allowAnonymous {
			return models.UserResponse{}, ErrAdmissionDenied
		}
		guest := models.UserResponse{
			ID:   "guest-" + uuid.NewString(),
			Name: "Guest",
		}
		g.log.Info("admitting anonymous connection", zap.String("userId", guest.ID))
		return guest, nil
	}

	claims, err := utils.ValidateToken(token)
	if err != nil {
		g.log.Warn("rejected connection with invalid token", zap.Error(err))
		return models.UserResponse{}, ErrAdmissionDenied
	}

	user, err := g.users.FindByID(ctx, claims.UserID)
	if err != nil {
		return models.UserResponse{}, err
	}
	if user == nil {
		g.log.Warn("rejected connection for unknown user", zap.String("userId", claims.UserID))
		return models.UserResponse{}, ErrAdmissionDenied
	}

	return user.ToResponse(), nil
}
