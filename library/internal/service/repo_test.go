package service_test

import (
	"context"
	"sort"
	"sync"

	"github.com/Astemirdum/library-web/library/internal/errs"
	"github.com/Astemirdum/library-web/library/internal/model"
	"github.com/Astemirdum/library-web/library/internal/repository"
	"github.com/Astemirdum/library-web/pkg/kafka"
)

// memRepo serializes UpdateBook the way a row lock does.
type memRepo struct {
	mu     sync.Mutex
	books  map[int64]model.Book
	users  map[int64]model.User
	nextID int64
}

var _ repository.Repository = (*memRepo)(nil)

func newMemRepo(books ...model.Book) *memRepo {
	r := &memRepo{books: map[int64]model.Book{}, users: map[int64]model.User{}}
	for _, b := range books {
		r.books[b.ID] = b
	}
	return r
}

func (r *memRepo) GetBook(_ context.Context, id int64) (model.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.books[id]
	if !ok {
		return model.Book{}, errs.ErrNotFound
	}
	return b, nil
}

func (r *memRepo) ListBooks(_ context.Context, f model.BookFilter) (model.ListBooks, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := make([]model.Book, 0)
	for _, b := range r.books {
		switch {
		case f.AvailableOnly && b.BorrowedBy != nil:
			continue
		case f.BorrowedBy != 0 && !b.IsBorrowedBy(f.BorrowedBy):
			continue
		case f.ExcludeBorrower != 0 && b.IsBorrowedBy(f.ExcludeBorrower):
			continue
		}
		items = append(items, b)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Title < items[j].Title })
	return model.ListBooks{
		Paging: model.Paging{Page: f.Page, PageSize: f.Size, TotalElements: len(items)},
		Items:  items,
	}, nil
}

func (r *memRepo) UpdateBook(_ context.Context, id int64, fn func(b *model.Book) error) (model.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.books[id]
	if !ok {
		return model.Book{}, errs.ErrNotFound
	}
	if err := fn(&b); err != nil {
		return model.Book{}, err
	}
	r.books[id] = b
	return b, nil
}

func (r *memRepo) CountBooks(context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.books), nil
}

func (r *memRepo) SeedCatalog(_ context.Context, books []model.SeedBook) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.books) > 0 {
		return 0, nil
	}
	for i, sb := range books {
		id := int64(i + 1)
		r.books[id] = model.Book{ID: id, Title: sb.Title, PublicationYear: sb.PublicationYear}
	}
	return len(books), nil
}

func (r *memRepo) GetUser(_ context.Context, id int64) (model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return model.User{}, errs.ErrNotFound
	}
	return u, nil
}

func (r *memRepo) GetUserByEmail(_ context.Context, email string) (model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, errs.ErrNotFound
}

func (r *memRepo) CreateUser(_ context.Context, user model.User) (model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return model.User{}, errs.ErrEmailTaken
		}
	}
	r.nextID++
	user.ID = r.nextID
	r.users[user.ID] = user
	return user, nil
}

func (r *memRepo) UpdateUser(_ context.Context, user model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return errs.ErrNotFound
	}
	r.users[user.ID] = user
	return nil
}

type spyPublisher struct {
	mu     sync.Mutex
	events []kafka.EventBorrowing
	err    error
}

func (p *spyPublisher) Publish(_ context.Context, e kafka.EventBorrowing) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *spyPublisher) Events() []kafka.EventBorrowing {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]kafka.EventBorrowing(nil), p.events...)
}
