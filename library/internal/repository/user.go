package repository

import (
	"context"
	"database/sql"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-web/library/internal/errs"
	"github.com/Astemirdum/library-web/library/internal/model"
)

var userColumns = []string{
	"id", "email", "first_name", "last_name", "password", "logged_in", "last_seen", "is_admin",
}

func (r *repository) GetUser(ctx context.Context, id int64) (model.User, error) {
	return r.getUser(ctx, sq.Eq{"id": id})
}

func (r *repository) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	return r.getUser(ctx, sq.Eq{"email": email})
}

func (r *repository) getUser(ctx context.Context, where sq.Eq) (model.User, error) {
	query, args, err := qb.Select(userColumns...).
		From(userTableName).
		Where(where).
		Limit(1).
		ToSql()
	if err != nil {
		return model.User{}, err
	}
	var user model.User
	if err := r.db.GetContext(ctx, &user, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, errs.ErrNotFound
		}
		return model.User{}, errors.Wrap(err, "get user")
	}
	return user, nil
}

func (r *repository) CreateUser(ctx context.Context, user model.User) (model.User, error) {
	query, args, err := qb.Insert(userTableName).
		Columns("email", "first_name", "last_name", "password", "logged_in", "last_seen", "is_admin").
		Values(user.Email, user.FirstName, user.LastName, user.Password, user.LoggedIn, user.LastSeen, user.IsAdmin).
		Suffix("returning " + strings.Join(userColumns, ", ")).
		ToSql()
	if err != nil {
		return model.User{}, err
	}
	var created model.User
	if err := r.db.GetContext(ctx, &created, query, args...); err != nil {
		if isUniqueViolation(err) {
			return model.User{}, errs.ErrEmailTaken
		}
		r.log.Error("CreateUser", zap.String("q", query), zap.Error(err))
		return model.User{}, errors.Wrap(err, "insert user")
	}
	return created, nil
}

func (r *repository) UpdateUser(ctx context.Context, user model.User) error {
	query, args, err := qb.Update(userTableName).
		SetMap(map[string]interface{}{
			"email":      user.Email,
			"first_name": user.FirstName,
			"last_name":  user.LastName,
			"password":   user.Password,
			"logged_in":  user.LoggedIn,
			"last_seen":  user.LastSeen,
			"is_admin":   user.IsAdmin,
		}).
		Where(sq.Eq{"id": user.ID}).
		ToSql()
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return errs.ErrEmailTaken
		}
		return errors.Wrap(err, "update user")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
