package tui

import (
	"context"

	"github.com/naveenspark/webadmin/pkg/domain"
)

// API is the slice of client.Client the views call.
type API interface {
	Login(ctx context.Context, creds domain.Credentials) (*domain.AuthResponse, error)
	Signup(ctx context.Context, p domain.UserPayload) (*domain.AuthResponse, error)
	Logout(ctx context.Context) error
	Me(ctx context.Context) (*domain.User, error)
	ListUsers(ctx context.Context, page int) (*domain.UserPage, error)
	GetUser(ctx context.Context, id int64) (*domain.User, error)
	CreateUser(ctx context.Context, p domain.UserPayload) (*domain.User, error)
	UpdateUser(ctx context.Context, id int64, p domain.UserPayload) (*domain.User, error)
	DeleteUser(ctx context.Context, id int64) error
}
