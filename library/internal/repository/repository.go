package repository

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-web/library/internal/model"
)

type Repository interface {
	BookRepository
	UserRepository
}

type BookRepository interface {
	GetBook(ctx context.Context, id int64) (model.Book, error)
	ListBooks(ctx context.Context, filter model.BookFilter) (model.ListBooks, error)
	// UpdateBook locks the row, applies fn and persists the result in one
	// transaction. Nothing is written when fn fails.
	UpdateBook(ctx context.Context, id int64, fn func(b *model.Book) error) (model.Book, error)
	CountBooks(ctx context.Context) (int, error)
	SeedCatalog(ctx context.Context, books []model.SeedBook) (int, error)
}

type UserRepository interface {
	GetUser(ctx context.Context, id int64) (model.User, error)
	GetUserByEmail(ctx context.Context, email string) (model.User, error)
	CreateUser(ctx context.Context, user model.User) (model.User, error)
	UpdateUser(ctx context.Context, user model.User) error
}

type repository struct {
	db  *sqlx.DB
	log *zap.Logger
}

var _ Repository = (*repository)(nil)

func NewRepository(db *sqlx.DB, log *zap.Logger) (*repository, error) {
	return &repository{
		db:  db,
		log: log.Named("repo"),
	}, nil
}

const (
	bookTableName       = `book`
	authorTableName     = `author`
	bookAuthorTableName = `book_author`
	userTableName       = `users`
)

var qb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
