package repository

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-web/library/internal/model"
)

// SeedCatalog loads books into an empty catalog. It is a no-op returning 0
// when any book already exists.
func (r *repository) SeedCatalog(ctx context.Context, books []model.SeedBook) (int, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, "begin")
	}
	defer tx.Rollback() //nolint:errcheck

	// serializes concurrent seeders on the same database
	if _, err := tx.ExecContext(ctx, `lock table book in share row exclusive mode`); err != nil {
		return 0, errors.Wrap(err, "lock book")
	}
	var existing int
	if err := tx.GetContext(ctx, &existing, `select count(*) from book`); err != nil {
		return 0, errors.Wrap(err, "count books")
	}
	if existing > 0 {
		return 0, nil
	}

	authorIDs := make(map[string]int64)
	for _, b := range books {
		var bookID int64
		query, args, err := qb.Insert(bookTableName).
			Columns("title", "publication_year", "average_rating", "ratings_count", "image_url").
			Values(b.Title, b.PublicationYear, b.AverageRating, b.RatingsCount, b.ImageURL).
			Suffix("returning id").
			ToSql()
		if err != nil {
			return 0, err
		}
		if err := tx.GetContext(ctx, &bookID, query, args...); err != nil {
			return 0, errors.Wrapf(err, "insert book %q", b.Title)
		}

		for _, name := range b.Authors {
			authorID, ok := authorIDs[name]
			if !ok {
				if err := tx.GetContext(ctx, &authorID,
					`insert into author (name) values ($1)
					on conflict (name) do update set name = excluded.name
					returning id`, name); err != nil {
					return 0, errors.Wrapf(err, "upsert author %q", name)
				}
				authorIDs[name] = authorID
			}
			if _, err := tx.ExecContext(ctx,
				`insert into book_author (book_id, author_id) values ($1, $2) on conflict do nothing`,
				bookID, authorID); err != nil {
				return 0, errors.Wrap(err, "link author")
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.Wrap(err, "commit")
	}
	r.log.Info("catalog seeded", zap.Int("books", len(books)), zap.Int("authors", len(authorIDs)))
	return len(books), nil
}
