package seed_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-web/library/internal/model"
	"github.com/Astemirdum/library-web/library/internal/seed"
)

func TestBooks_Embedded(t *testing.T) {
	books, err := seed.Books()
	require.NoError(t, err)
	require.Len(t, books, 100)

	titles := make(map[string]struct{}, len(books))
	for _, b := range books {
		require.NotEmpty(t, b.Authors, b.Title)
		require.NotEmpty(t, b.ImageURL, b.Title)
		require.NotNil(t, b.AverageRating, b.Title)
		require.GreaterOrEqual(t, *b.AverageRating, 0.0)
		require.LessOrEqual(t, *b.AverageRating, 5.0)
		_, dup := titles[b.Title]
		require.False(t, dup, "duplicate title %q", b.Title)
		titles[b.Title] = struct{}{}
	}
	require.Equal(t, "The Hunger Games", books[0].Title)
	require.Equal(t, []string{"J.K. Rowling", "Mary GrandPré"}, books[1].Authors)
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    []model.SeedBook
		wantErr string
	}{
		{
			name: "extra columns and duplicate authors",
			in: "id,title,authors,publication_year,average_rating,ratings_count,image_url\n" +
				`9,Good Omens,"Terry Pratchett, Neil Gaiman, Terry Pratchett",1990.0,4.25,12,http://img` + "\n",
			want: []model.SeedBook{{
				Title:           "Good Omens",
				Authors:         []string{"Terry Pratchett", "Neil Gaiman"},
				PublicationYear: 1990,
				AverageRating:   ptr(4.25),
				RatingsCount:    12,
				ImageURL:        "http://img",
			}},
		},
		{
			name: "empty rating",
			in: "title,authors,publication_year,average_rating,ratings_count,image_url\n" +
				"Odyssey,Homer,-720,,0,http://img\n",
			want: []model.SeedBook{{
				Title:           "Odyssey",
				Authors:         []string{"Homer"},
				PublicationYear: -720,
				ImageURL:        "http://img",
			}},
		},
		{
			name:    "missing column",
			in:      "title,authors\nA,B\n",
			wantErr: `missing column "publication_year"`,
		},
		{
			name: "rating out of range",
			in: "title,authors,publication_year,average_rating,ratings_count,image_url\n" +
				"A,B,2000,7,1,x\n",
			wantErr: "line 2",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := seed.Parse(strings.NewReader(tt.in))
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

type catalogStub struct {
	got []model.SeedBook
	n   int
}

func (c *catalogStub) SeedCatalog(_ context.Context, books []model.SeedBook) (int, error) {
	c.got = books
	return c.n, nil
}

func TestRun(t *testing.T) {
	stub := &catalogStub{n: 100}
	require.NoError(t, seed.Run(context.Background(), stub, zap.NewNop()))
	require.Len(t, stub.got, 100)
}

func ptr(f float64) *float64 { return &f }
