package model

import (
	"time"

	"github.com/Astemirdum/library-web/library/internal/errs"
)

// AllowedBorrowDays is the grace period before a borrowed book counts as overdue.
const AllowedBorrowDays = 30

type BookState string

const (
	StateAvailable BookState = "AVAILABLE"
	StateBorrowed  BookState = "BORROWED"
)

func (b *Book) State() BookState {
	if b.BorrowedBy == nil {
		return StateAvailable
	}
	return StateBorrowed
}

func (b *Book) IsBorrowedBy(userID int64) bool {
	return b.BorrowedBy != nil && *b.BorrowedBy == userID
}

// Borrow moves an available book to borrowed by userID at now.
func (b *Book) Borrow(userID int64, now time.Time) error {
	if b.State() == StateBorrowed {
		return errs.ErrAlreadyBorrowed
	}
	by, at := userID, now
	b.BorrowedBy, b.BorrowedAt = &by, &at
	return nil
}

// Return makes the book available again. Only the borrower may return it.
func (b *Book) Return(userID int64) error {
	if b.State() == StateAvailable {
		return errs.ErrNotBorrowed
	}
	if !b.IsBorrowedBy(userID) {
		return errs.ErrNotBorrower
	}
	b.BorrowedBy, b.BorrowedAt = nil, nil
	return nil
}

// ReturnDate is BorrowedAt plus the grace period; ok is false for an available book.
func (b *Book) ReturnDate() (date time.Time, ok bool) {
	if b.BorrowedAt == nil {
		return time.Time{}, false
	}
	return b.BorrowedAt.AddDate(0, 0, AllowedBorrowDays), true
}

// IsOverdue compares calendar dates in now's location. Display only.
func (b *Book) IsOverdue(now time.Time) bool {
	due, ok := b.ReturnDate()
	if !ok {
		return false
	}
	return dateOf(now).After(dateOf(due.In(now.Location())))
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
