package seed

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-web/library/internal/model"
)

//go:embed books.csv
var booksCSV []byte

var requiredColumns = []string{
	"title", "authors", "publication_year", "average_rating", "ratings_count", "image_url",
}

type Catalog interface {
	SeedCatalog(ctx context.Context, books []model.SeedBook) (int, error)
}

// Run loads the embedded catalog unless the database already has books.
func Run(ctx context.Context, catalog Catalog, log *zap.Logger) error {
	books, err := Books()
	if err != nil {
		return err
	}
	n, err := catalog.SeedCatalog(ctx, books)
	if err != nil {
		return errors.Wrap(err, "seed catalog")
	}
	if n == 0 {
		log.Debug("catalog already present, seed skipped")
	}
	return nil
}

func Books() ([]model.SeedBook, error) {
	return Parse(bytes.NewReader(booksCSV))
}

// Parse reads a CSV with a header row. Columns other than requiredColumns
// are ignored; authors are separated by ", ".
func Parse(r io.Reader) ([]model.SeedBook, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, errors.Wrap(err, "read header")
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(h)] = i
	}
	for _, col := range requiredColumns {
		if _, ok := idx[col]; !ok {
			return nil, errors.Errorf("missing column %q", col)
		}
	}

	var books []model.SeedBook
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}
		book, err := parseRecord(rec, idx)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}
		books = append(books, book)
	}
	return books, nil
}

func parseRecord(rec []string, idx map[string]int) (model.SeedBook, error) {
	get := func(col string) string { return strings.TrimSpace(rec[idx[col]]) }

	book := model.SeedBook{
		Title:    get("title"),
		ImageURL: get("image_url"),
	}
	if book.Title == "" {
		return model.SeedBook{}, errors.New("empty title")
	}

	seen := make(map[string]struct{})
	for _, name := range strings.Split(get("authors"), ", ") {
		name = strings.TrimSpace(name)
		if _, dup := seen[name]; dup || name == "" {
			continue
		}
		seen[name] = struct{}{}
		book.Authors = append(book.Authors, name)
	}

	year, err := strconv.ParseFloat(get("publication_year"), 64)
	if err != nil {
		return model.SeedBook{}, errors.Wrap(err, "publication_year")
	}
	book.PublicationYear = int(year)

	if v := get("average_rating"); v != "" {
		rating, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return model.SeedBook{}, errors.Wrap(err, "average_rating")
		}
		if rating < 0 || rating > 5 {
			return model.SeedBook{}, errors.Errorf("average_rating %v out of range", rating)
		}
		book.AverageRating = &rating
	}
	if v := get("ratings_count"); v != "" {
		if book.RatingsCount, err = strconv.Atoi(v); err != nil {
			return model.SeedBook{}, errors.Wrap(err, "ratings_count")
		}
	}
	return book, nil
}
