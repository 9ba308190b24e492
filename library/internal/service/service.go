package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-web/library/internal/model"
	"github.com/Astemirdum/library-web/library/internal/queue"
	"github.com/Astemirdum/library-web/library/internal/repository"
	"github.com/Astemirdum/library-web/pkg/kafka"
	"github.com/Astemirdum/library-web/pkg/validate"
)

const defaultSessionIdle = time.Hour

type Service struct {
	log       *zap.Logger
	repo      repository.Repository
	publisher queue.Publisher
	validator *validate.CustomValidator

	now         func() time.Time
	sessionIdle time.Duration
}

type Option func(s *Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithSessionIdle sets how long a logged in user may stay inactive.
func WithSessionIdle(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.sessionIdle = d
		}
	}
}

func NewService(repo repository.Repository, publisher queue.Publisher, log *zap.Logger, opts ...Option) *Service {
	s := &Service{
		log:         log.Named("service"),
		repo:        repo,
		publisher:   publisher,
		validator:   validate.NewCustomValidator(),
		now:         time.Now,
		sessionIdle: defaultSessionIdle,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) GetBook(ctx context.Context, id int64) (model.Book, error) {
	return s.repo.GetBook(ctx, id)
}

func (s *Service) ListAvailableBooks(ctx context.Context, page, size int) (model.ListBooks, error) {
	return s.repo.ListBooks(ctx, model.BookFilter{AvailableOnly: true, Page: page, Size: size})
}

func (s *Service) ListBorrowedBooks(ctx context.Context, userID int64) ([]model.Book, error) {
	books, err := s.repo.ListBooks(ctx, model.BookFilter{BorrowedBy: userID})
	if err != nil {
		return nil, err
	}
	return books.Items, nil
}

// ListCatalog is every book except those userID currently holds.
func (s *Service) ListCatalog(ctx context.Context, userID int64, page, size int) (model.ListBooks, error) {
	return s.repo.ListBooks(ctx, model.BookFilter{ExcludeBorrower: userID, Page: page, Size: size})
}

func (s *Service) Borrow(ctx context.Context, bookID, userID int64) (model.Book, error) {
	now := s.now()
	book, err := s.repo.UpdateBook(ctx, bookID, func(b *model.Book) error {
		return b.Borrow(userID, now)
	})
	if err != nil {
		return model.Book{}, err
	}
	s.log.Info("book borrowed", zap.Int64("book", bookID), zap.Int64("user", userID))
	s.publish(ctx, kafka.EventBorrowed, bookID, userID, now)
	return book, nil
}

func (s *Service) Return(ctx context.Context, bookID, userID int64) (model.Book, error) {
	book, err := s.repo.UpdateBook(ctx, bookID, func(b *model.Book) error {
		return b.Return(userID)
	})
	if err != nil {
		return model.Book{}, err
	}
	s.log.Info("book returned", zap.Int64("book", bookID), zap.Int64("user", userID))
	s.publish(ctx, kafka.EventReturned, bookID, userID, s.now())
	return book, nil
}

// publish is best effort: the transition is already committed.
func (s *Service) publish(ctx context.Context, typ kafka.EventType, bookID, userID int64, at time.Time) {
	event := kafka.EventBorrowing{
		ID:         uuid.NewString(),
		Type:       typ,
		BookID:     bookID,
		UserID:     userID,
		OccurredAt: at.UTC(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.log.Warn("publish", zap.String("type", string(typ)), zap.Int64("book", bookID), zap.Error(err))
	}
}
