package repository

import (
	"context"

	"tallerlink/internal/domain/entity"
)

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*entity.User, error)
	ListByRole(ctx context.Context, role string, limit int) ([]*entity.User, error)
}
