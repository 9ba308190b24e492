package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-web/library/internal/errs"
	"github.com/Astemirdum/library-web/library/internal/model"
	"github.com/Astemirdum/library-web/library/internal/session"
	md "github.com/Astemirdum/library-web/pkg/middleware"
	"github.com/Astemirdum/library-web/pkg/validate"
)

const defaultPageSize = 20

type Handler struct {
	librarySvc LibraryService
	authSvc    AuthService
	sessions   *session.Manager
	log        *zap.Logger
	now        func() time.Time
}

func New(librarySvc LibraryService, authSvc AuthService, sessions *session.Manager, log *zap.Logger) *Handler {
	return &Handler{
		librarySvc: librarySvc,
		authSvc:    authSvc,
		sessions:   sessions,
		log:        log.Named("handler"),
		now:        time.Now,
	}
}

func (h *Handler) NewRouter() (*echo.Echo, error) {
	renderer, err := NewRenderer()
	if err != nil {
		return nil, err
	}
	e := echo.New()
	e.HideBanner = true
	e.Renderer = renderer
	e.Validator = validate.NewCustomValidator()
	e.HTTPErrorHandler = h.errorHandler

	const (
		baseRPS = 10
		webRPS  = 100
	)
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 4 << 10, // 4 KB
	}))

	base := e.Group("", md.NewRateLimiter(baseRPS))
	base.GET("/manage/health", h.Health)

	web := e.Group("",
		middleware.RequestLoggerWithConfig(md.RequestLoggerConfig(h.log)),
		middleware.RequestID(),
		md.NewRateLimiter(webRPS),
	)
	web.GET("/login", h.LoginForm)
	web.POST("/login", h.Login)
	web.GET("/register", h.RegisterForm)
	web.POST("/register", h.Register)

	user := web.Group("", h.requireUser)
	user.GET("/", h.Home)
	user.GET("/home", h.Home)
	user.GET("/borrow_books", h.BorrowBooks)
	user.GET("/borrow_book/:id", h.BorrowBook)
	user.GET("/return_book/:id", h.ReturnBook)
	user.GET("/logout", h.Logout)

	return e, nil
}

func (h *Handler) Health(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

func (h *Handler) Home(c echo.Context) error {
	return h.renderHome(c, http.StatusOK, "")
}

func (h *Handler) renderHome(c echo.Context, code int, msg string) error {
	user := currentUser(c)
	books, err := h.librarySvc.ListBorrowedBooks(c.Request().Context(), user.ID)
	if err != nil {
		return err
	}
	page := newHomePage(user, books, h.now())
	page.Error = msg
	return c.Render(code, pageHome, page)
}

func (h *Handler) BorrowBooks(c echo.Context) error {
	var (
		err           error
		page          = 1
		size          = defaultPageSize
		availableOnly bool
	)
	if pageParam := c.QueryParam("page"); pageParam != "" {
		if page, err = strconv.Atoi(pageParam); err != nil || page < 1 {
			return echo.NewHTTPError(http.StatusBadRequest, "page is invalid")
		}
	}
	if sizeParam := c.QueryParam("size"); sizeParam != "" {
		if size, err = strconv.Atoi(sizeParam); err != nil || size < 1 {
			return echo.NewHTTPError(http.StatusBadRequest, "size is invalid")
		}
	}
	if availableParam := c.QueryParam("available"); availableParam != "" {
		if availableOnly, err = strconv.ParseBool(availableParam); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "available is invalid")
		}
	}

	ctx := c.Request().Context()
	user := currentUser(c)
	var list model.ListBooks
	if availableOnly {
		list, err = h.librarySvc.ListAvailableBooks(ctx, page, size)
	} else {
		list, err = h.librarySvc.ListCatalog(ctx, user.ID, page, size)
	}
	if err != nil {
		return err
	}
	return c.Render(http.StatusOK, pageBorrowBooks, newCatalogPage(user, list, availableOnly))
}

func (h *Handler) BorrowBook(c echo.Context) error {
	id, err := bookID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	user := currentUser(c)

	book, borrowErr := h.librarySvc.Borrow(ctx, id, user.ID)
	if borrowErr != nil {
		if !errs.IsBorrowing(borrowErr) {
			return borrowErr
		}
		h.log.Debug("borrow rejected", zap.Int64("book", id), zap.Int64("user", user.ID), zap.Error(borrowErr))
		if book, err = h.librarySvc.GetBook(ctx, id); err != nil {
			return err
		}
		return c.Render(http.StatusConflict, pageBorrowBook, borrowPage{
			User:  &user,
			Error: borrowingMessage(borrowErr, book),
			Book:  book,
		})
	}
	due, _ := book.ReturnDate()
	return c.Render(http.StatusOK, pageBorrowBook, borrowPage{
		User:        &user,
		Book:        book,
		Borrowed:    true,
		ReturnDate:  due,
		AllowedDays: model.AllowedBorrowDays,
	})
}

func (h *Handler) ReturnBook(c echo.Context) error {
	id, err := bookID(c)
	if err != nil {
		return err
	}
	user := currentUser(c)
	book, err := h.librarySvc.Return(c.Request().Context(), id, user.ID)
	if err != nil {
		if !errs.IsBorrowing(err) {
			return err
		}
		h.log.Debug("return rejected", zap.Int64("book", id), zap.Int64("user", user.ID), zap.Error(err))
		return h.renderHome(c, http.StatusConflict, borrowingMessage(err, book))
	}
	return c.Redirect(http.StatusSeeOther, "/home")
}

func bookID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusNotFound, "Book not found.")
	}
	return id, nil
}

func borrowingMessage(err error, book model.Book) string {
	title := "This book"
	if book.Title != "" {
		title = book.Title
	}
	switch {
	case errors.Is(err, errs.ErrAlreadyBorrowed):
		return title + " is already borrowed."
	case errors.Is(err, errs.ErrNotBorrowed):
		return title + " is not borrowed."
	case errors.Is(err, errs.ErrNotBorrower):
		return title + " was borrowed by someone else."
	}
	return "Something went wrong."
}

func (h *Handler) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := http.StatusInternalServerError
	msg := http.StatusText(code)

	var he *echo.HTTPError
	switch {
	case errors.As(err, &he):
		code = he.Code
		if m, ok := he.Message.(string); ok {
			msg = m
		} else {
			msg = http.StatusText(code)
		}
	case errors.Is(err, errs.ErrNotFound):
		code, msg = http.StatusNotFound, "Book not found."
	default:
		h.log.Error("request failed", zap.String("uri", c.Request().RequestURI), zap.Error(err))
	}

	page := errorPage{Code: code, Message: msg}
	if u, ok := c.Get(userKey).(model.User); ok {
		page.User = &u
	}
	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.Render(code, pageError, page)
	}
	if err != nil {
		h.log.Error("render error page", zap.Error(err))
	}
}
