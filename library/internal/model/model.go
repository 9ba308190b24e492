package model

import (
	"strings"
	"time"
)

type Book struct {
	ID              int64      `json:"id" db:"id"`
	Title           string     `json:"title" db:"title"`
	PublicationYear int        `json:"publicationYear" db:"publication_year"`
	AverageRating   *float64   `json:"averageRating,omitempty" db:"average_rating"`
	RatingsCount    int        `json:"ratingsCount" db:"ratings_count"`
	ImageURL        string     `json:"imageUrl" db:"image_url"`
	BorrowedBy      *int64     `json:"borrowedBy,omitempty" db:"borrowed_by"`
	BorrowedAt      *time.Time `json:"borrowedAt,omitempty" db:"borrowed_at"`
	// Authors is filled by listing queries only: names joined with ", ".
	Authors string `json:"authors" db:"authors"`
}

func (b *Book) AuthorNames() []string {
	if b.Authors == "" {
		return nil
	}
	return strings.Split(b.Authors, ", ")
}

type Author struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

type User struct {
	ID        int64      `json:"id" db:"id"`
	Email     string     `json:"email" db:"email"`
	FirstName string     `json:"firstName" db:"first_name"`
	LastName  string     `json:"lastName" db:"last_name"`
	Password  string     `json:"-" db:"password"`
	LoggedIn  bool       `json:"loggedIn" db:"logged_in"`
	LastSeen  *time.Time `json:"lastSeen,omitempty" db:"last_seen"`
	IsAdmin   bool       `json:"isAdmin" db:"is_admin"`
}

func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

type BookFilter struct {
	AvailableOnly bool
	// BorrowedBy restricts to books held by this user when non-zero.
	BorrowedBy int64
	// ExcludeBorrower drops books held by this user when non-zero.
	ExcludeBorrower int64
	Page            int
	Size            int
}

type ListBooks struct {
	Paging `json:",inline"`
	Items  []Book `json:"items"`
}

type Paging struct {
	Page          int `json:"page"`
	PageSize      int `json:"pageSize"`
	TotalElements int `json:"totalElements"`
}

type RegisterRequest struct {
	FirstName string `form:"first_name" validate:"required"`
	LastName  string `form:"last_name" validate:"required"`
	Email     string `form:"email" validate:"required,email"`
	Password  string `form:"password" validate:"required"`
}

type LoginRequest struct {
	Email    string `form:"email" validate:"required"`
	Password string `form:"password" validate:"required"`
}

// SeedBook is one catalog row of the embedded dataset.
type SeedBook struct {
	Title           string
	Authors         []string
	PublicationYear int
	AverageRating   *float64
	RatingsCount    int
	ImageURL        string
}
