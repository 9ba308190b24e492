package handler

import (
	"context"

	"github.com/Astemirdum/library-web/library/internal/model"
	"github.com/Astemirdum/library-web/library/internal/service"
)

//go:generate go run github.com/golang/mock/mockgen -source=service.go -destination=mocks/mock.go

type LibraryService interface {
	GetBook(ctx context.Context, id int64) (model.Book, error)
	ListAvailableBooks(ctx context.Context, page, size int) (model.ListBooks, error)
	ListBorrowedBooks(ctx context.Context, userID int64) ([]model.Book, error)
	ListCatalog(ctx context.Context, userID int64, page, size int) (model.ListBooks, error)
	Borrow(ctx context.Context, bookID, userID int64) (model.Book, error)
	Return(ctx context.Context, bookID, userID int64) (model.Book, error)
}

type AuthService interface {
	Register(ctx context.Context, req model.RegisterRequest) (model.User, error)
	Authenticate(ctx context.Context, req model.LoginRequest) (model.User, error)
	ResolveSession(ctx context.Context, userID int64) (model.User, error)
	Logout(ctx context.Context, userID int64) error
}

var (
	_ LibraryService = (*service.Service)(nil)
	_ AuthService    = (*service.Service)(nil)
)
