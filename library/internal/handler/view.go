package handler

import (
	"time"

	"github.com/Astemirdum/library-web/library/internal/model"
)

// Every page carries User (nil when anonymous) and Error for the base layout.

type homePage struct {
	User  *model.User
	Error string
	Today time.Time
	Books []borrowedBook
}

type borrowedBook struct {
	Book       model.Book
	ReturnDate time.Time
	Overdue    bool
}

type catalogPage struct {
	User          *model.User
	Error         string
	Books         []catalogBook
	AvailableOnly bool
	Paging        model.Paging
	PrevPage      int
	NextPage      int
}

type catalogBook struct {
	Book      model.Book
	Available bool
}

type borrowPage struct {
	User        *model.User
	Error       string
	Book        model.Book
	Borrowed    bool
	ReturnDate  time.Time
	AllowedDays int
}

type loginPage struct {
	User  *model.User
	Error string
	Email string
}

type registerPage struct {
	User       *model.User
	Error      string
	FirstName  string
	LastName   string
	Email      string
	EmailTaken bool
}

type errorPage struct {
	User    *model.User
	Error   string
	Code    int
	Message string
}

func newHomePage(user model.User, books []model.Book, now time.Time) homePage {
	page := homePage{User: &user, Today: now, Books: make([]borrowedBook, 0, len(books))}
	for i := range books {
		b := &books[i]
		due, _ := b.ReturnDate()
		page.Books = append(page.Books, borrowedBook{
			Book:       *b,
			ReturnDate: due,
			Overdue:    b.IsOverdue(now),
		})
	}
	return page
}

func newCatalogPage(user model.User, list model.ListBooks, availableOnly bool) catalogPage {
	page := catalogPage{
		User:          &user,
		Books:         make([]catalogBook, 0, len(list.Items)),
		AvailableOnly: availableOnly,
		Paging:        list.Paging,
	}
	for _, b := range list.Items {
		page.Books = append(page.Books, catalogBook{Book: b, Available: b.BorrowedBy == nil})
	}
	if p := list.Page; p > 0 && list.PageSize > 0 {
		if p > 1 {
			page.PrevPage = p - 1
		}
		if p*list.PageSize < list.TotalElements {
			page.NextPage = p + 1
		}
	}
	return page
}
