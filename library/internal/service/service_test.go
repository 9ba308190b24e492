package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Astemirdum/library-web/library/internal/errs"
	"github.com/Astemirdum/library-web/library/internal/model"
	"github.com/Astemirdum/library-web/library/internal/service"
	"github.com/Astemirdum/library-web/pkg/kafka"
)

var t0 = time.Date(2024, time.March, 1, 10, 0, 0, 0, time.UTC)

func newTestService(repo *memRepo, pub *spyPublisher, now time.Time) *service.Service {
	return service.NewService(repo, pub, zap.NewNop(), service.WithClock(func() time.Time { return now }))
}

func TestService_BorrowReturnScenario(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo(model.Book{ID: 1, Title: "The Hunger Games"})
	pub := &spyPublisher{}
	svc := newTestService(repo, pub, t0)

	book, err := svc.Borrow(ctx, 1, 42)
	require.NoError(t, err)
	require.Equal(t, int64(42), *book.BorrowedBy)
	require.True(t, book.BorrowedAt.Equal(t0))
	due, ok := book.ReturnDate()
	require.True(t, ok)
	require.True(t, due.Equal(t0.AddDate(0, 0, 30)))

	stored, err := svc.GetBook(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, book, stored)

	book, err = svc.Return(ctx, 1, 42)
	require.NoError(t, err)
	require.Nil(t, book.BorrowedBy)
	require.Nil(t, book.BorrowedAt)

	events := pub.Events()
	require.Len(t, events, 2)
	require.Equal(t, kafka.EventBorrowed, events[0].Type)
	require.Equal(t, kafka.EventReturned, events[1].Type)
	for _, e := range events {
		require.Equal(t, int64(1), e.BookID)
		require.Equal(t, int64(42), e.UserID)
		require.NotEmpty(t, e.ID)
	}
	require.NotEqual(t, events[0].ID, events[1].ID)
}

func TestService_RejectedTransitionsKeepState(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name    string
		setup   func(svc *service.Service)
		apply   func(svc *service.Service) error
		wantErr error
	}{
		{
			name:  "second borrower",
			setup: func(svc *service.Service) { _, _ = svc.Borrow(ctx, 1, 1) },
			apply: func(svc *service.Service) error {
				_, err := svc.Borrow(ctx, 1, 2)
				return err
			},
			wantErr: errs.ErrAlreadyBorrowed,
		},
		{
			name:  "same borrower twice",
			setup: func(svc *service.Service) { _, _ = svc.Borrow(ctx, 1, 1) },
			apply: func(svc *service.Service) error {
				_, err := svc.Borrow(ctx, 1, 1)
				return err
			},
			wantErr: errs.ErrAlreadyBorrowed,
		},
		{
			name:  "return by other user",
			setup: func(svc *service.Service) { _, _ = svc.Borrow(ctx, 1, 1) },
			apply: func(svc *service.Service) error {
				_, err := svc.Return(ctx, 1, 2)
				return err
			},
			wantErr: errs.ErrNotBorrower,
		},
		{
			name:  "return available",
			setup: func(*service.Service) {},
			apply: func(svc *service.Service) error {
				_, err := svc.Return(ctx, 1, 1)
				return err
			},
			wantErr: errs.ErrNotBorrowed,
		},
		{
			name:  "unknown book",
			setup: func(*service.Service) {},
			apply: func(svc *service.Service) error {
				_, err := svc.Borrow(ctx, 404, 1)
				return err
			},
			wantErr: errs.ErrNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMemRepo(model.Book{ID: 1, Title: "Dune"})
			pub := &spyPublisher{}
			svc := newTestService(repo, pub, t0)
			tt.setup(svc)
			before, err := svc.GetBook(ctx, 1)
			require.NoError(t, err)
			published := len(pub.Events())

			require.ErrorIs(t, tt.apply(svc), tt.wantErr)

			after, err := svc.GetBook(ctx, 1)
			require.NoError(t, err)
			require.Equal(t, before, after)
			require.Len(t, pub.Events(), published, "failed transition must not publish")
		})
	}
}

func TestService_ConcurrentBorrow(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo(model.Book{ID: 1, Title: "Dune"})
	svc := newTestService(repo, &spyPublisher{}, t0)

	const borrowers = 16
	results := make([]error, borrowers)
	var g errgroup.Group
	for i := 0; i < borrowers; i++ {
		i := i
		g.Go(func() error {
			_, results[i] = svc.Borrow(ctx, 1, int64(i+1))
			return nil
		})
	}
	require.NoError(t, g.Wait())

	var winner int64
	for i, err := range results {
		if err == nil {
			require.Zero(t, winner, "more than one borrower succeeded")
			winner = int64(i + 1)
			continue
		}
		require.ErrorIs(t, err, errs.ErrAlreadyBorrowed)
	}
	require.NotZero(t, winner)

	book, err := svc.GetBook(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, winner, *book.BorrowedBy)
}

func TestService_PublishFailureDoesNotFailBorrow(t *testing.T) {
	repo := newMemRepo(model.Book{ID: 1, Title: "Dune"})
	svc := newTestService(repo, &spyPublisher{err: errors.New("kafka down")}, t0)

	_, err := svc.Borrow(context.Background(), 1, 7)
	require.NoError(t, err)
}

func TestService_Listings(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo(
		model.Book{ID: 1, Title: "A"},
		model.Book{ID: 2, Title: "B"},
		model.Book{ID: 3, Title: "C"},
	)
	svc := newTestService(repo, &spyPublisher{}, t0)
	_, err := svc.Borrow(ctx, 1, 10)
	require.NoError(t, err)
	_, err = svc.Borrow(ctx, 2, 20)
	require.NoError(t, err)

	titles := func(books []model.Book) []string {
		out := make([]string, 0, len(books))
		for _, b := range books {
			out = append(out, b.Title)
		}
		return out
	}

	available, err := svc.ListAvailableBooks(ctx, 0, 0)
	require.NoError(t, err)
	require.Equal(t, []string{"C"}, titles(available.Items))

	borrowed, err := svc.ListBorrowedBooks(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, []string{"A"}, titles(borrowed))

	catalog, err := svc.ListCatalog(ctx, 10, 0, 0)
	require.NoError(t, err)
	require.Equal(t, []string{"B", "C"}, titles(catalog.Items))
}
