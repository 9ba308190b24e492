package repository

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-web/library/internal/errs"
	"github.com/Astemirdum/library-web/library/internal/model"
)

var bookColumns = []string{
	"b.id", "b.title", "b.publication_year", "b.average_rating", "b.ratings_count",
	"b.image_url", "b.borrowed_by", "b.borrowed_at",
}

func selectBooksWithAuthors() sq.SelectBuilder {
	cols := append(append([]string{}, bookColumns...),
		"coalesce(string_agg(a.name, ', ' order by a.name), '') as authors")
	return qb.Select(cols...).
		From(bookTableName + " b").
		LeftJoin(fmt.Sprintf("%s ba on ba.book_id = b.id", bookAuthorTableName)).
		LeftJoin(fmt.Sprintf("%s a on a.id = ba.author_id", authorTableName)).
		GroupBy("b.id")
}

func bookConditions(filter model.BookFilter) sq.And {
	cond := sq.And{}
	if filter.AvailableOnly {
		cond = append(cond, sq.Eq{"b.borrowed_by": nil})
	}
	if filter.BorrowedBy != 0 {
		cond = append(cond, sq.Eq{"b.borrowed_by": filter.BorrowedBy})
	}
	if filter.ExcludeBorrower != 0 {
		cond = append(cond, sq.Or{
			sq.Eq{"b.borrowed_by": nil},
			sq.NotEq{"b.borrowed_by": filter.ExcludeBorrower},
		})
	}
	return cond
}

func (r *repository) GetBook(ctx context.Context, id int64) (model.Book, error) {
	query, args, err := selectBooksWithAuthors().
		Where(sq.Eq{"b.id": id}).
		ToSql()
	if err != nil {
		return model.Book{}, err
	}

	var book model.Book
	if err := r.db.GetContext(ctx, &book, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Book{}, errs.ErrNotFound
		}
		r.log.Error("GetBook", zap.String("q", query), zap.Any("args", args), zap.Error(err))
		return model.Book{}, err
	}
	return book, nil
}

func (r *repository) ListBooks(ctx context.Context, filter model.BookFilter) (model.ListBooks, error) {
	cond := bookConditions(filter)
	q := selectBooksWithAuthors().Where(cond).OrderBy("b.title")
	if filter.Page > 0 && filter.Size > 0 {
		q = q.Limit(uint64(filter.Size)).Offset(uint64((filter.Page - 1) * filter.Size))
	}

	query, args, err := q.ToSql()
	if err != nil {
		return model.ListBooks{}, err
	}
	r.log.Debug("ListBooks", zap.String("query", query), zap.Any("args", args))

	books := make([]model.Book, 0)
	if err := r.db.SelectContext(ctx, &books, query, args...); err != nil {
		return model.ListBooks{}, errors.Wrap(err, "select books")
	}

	total, err := r.countBooks(ctx, cond)
	if err != nil {
		return model.ListBooks{}, err
	}

	return model.ListBooks{
		Paging: model.Paging{
			Page:          filter.Page,
			PageSize:      filter.Size,
			TotalElements: total,
		},
		Items: books,
	}, nil
}

func (r *repository) CountBooks(ctx context.Context) (int, error) {
	return r.countBooks(ctx, sq.And{})
}

func (r *repository) countBooks(ctx context.Context, cond sq.Sqlizer) (int, error) {
	query, args, err := qb.Select("count(*)").
		From(bookTableName + " b").
		Where(cond).
		ToSql()
	if err != nil {
		return 0, err
	}
	var total int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, errors.Wrap(err, "count books")
	}
	return total, nil
}

func (r *repository) UpdateBook(ctx context.Context, id int64, fn func(b *model.Book) error) (model.Book, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return model.Book{}, errors.Wrap(err, "begin")
	}
	defer tx.Rollback() //nolint:errcheck

	query, args, err := qb.Select(bookColumns...).
		From(bookTableName + " b").
		Where(sq.Eq{"b.id": id}).
		Suffix("for update").
		ToSql()
	if err != nil {
		return model.Book{}, err
	}
	var book model.Book
	if err := tx.GetContext(ctx, &book, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Book{}, errs.ErrNotFound
		}
		return model.Book{}, errors.Wrap(err, "lock book")
	}

	if err := fn(&book); err != nil {
		return model.Book{}, err
	}
	if err := r.saveBook(ctx, tx, book); err != nil {
		return model.Book{}, err
	}
	if book.Authors, err = r.bookAuthors(ctx, tx, book.ID); err != nil {
		return model.Book{}, err
	}

	if err := tx.Commit(); err != nil {
		return model.Book{}, errors.Wrap(err, "commit")
	}
	return book, nil
}

// saveBook writes the borrowing columns; the catalog itself is immutable.
func (r *repository) saveBook(ctx context.Context, ext sqlx.ExecerContext, book model.Book) error {
	query, args, err := qb.Update(bookTableName).
		Set("borrowed_by", book.BorrowedBy).
		Set("borrowed_at", book.BorrowedAt).
		Where(sq.Eq{"id": book.ID}).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := ext.ExecContext(ctx, query, args...); err != nil {
		r.log.Error("saveBook", zap.String("q", query), zap.Any("args", args), zap.Error(err))
		return errors.Wrap(err, "update book")
	}
	return nil
}

func (r *repository) bookAuthors(ctx context.Context, q sqlx.QueryerContext, bookID int64) (string, error) {
	query, args, err := qb.Select("coalesce(string_agg(a.name, ', ' order by a.name), '')").
		From(authorTableName + " a").
		Join(fmt.Sprintf("%s ba on ba.author_id = a.id", bookAuthorTableName)).
		Where(sq.Eq{"ba.book_id": bookID}).
		ToSql()
	if err != nil {
		return "", err
	}
	var authors string
	if err := sqlx.GetContext(ctx, q, &authors, query, args...); err != nil {
		return "", errors.Wrap(err, "book authors")
	}
	return authors, nil
}
