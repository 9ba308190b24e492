package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Astemirdum/library-web/library/internal/errs"
	"github.com/Astemirdum/library-web/library/internal/model"
	"github.com/Astemirdum/library-web/pkg/validate"
)

// form messages keyed by struct field and failed tag
var fieldMessages = map[string]string{
	"FirstName.required": "Please enter a First Name.",
	"LastName.required":  "Please enter a Last Name.",
	"Email.required":     "Please enter an email address.",
	"Email.email":        "Please enter a valid email address.",
	"Password.required":  "Please enter a password.",
}

func (s *Service) validate(req interface{}) error {
	fe := validate.FirstFieldError(s.validator.Validate(req))
	if fe == nil {
		return nil
	}
	msg, ok := fieldMessages[fe.Field()+"."+fe.Tag()]
	if !ok {
		msg = fmt.Sprintf("%s is invalid.", fe.Field())
	}
	return errs.NewValidationError(fe.Field(), msg)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates the account and logs it in.
func (s *Service) Register(ctx context.Context, req model.RegisterRequest) (model.User, error) {
	req.Email = normalizeEmail(req.Email)
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	if err := s.validate(req); err != nil {
		return model.User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return model.User{}, errors.Wrap(err, "hash password")
	}
	now := s.now()
	user, err := s.repo.CreateUser(ctx, model.User{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  string(hash),
		LoggedIn:  true,
		LastSeen:  &now,
	})
	if err != nil {
		if errors.Is(err, errs.ErrEmailTaken) {
			return model.User{}, &errs.ValidationError{
				Field:   "Email",
				Message: fmt.Sprintf("User with email %s already registered.", req.Email),
				Err:     errs.ErrEmailTaken,
			}
		}
		return model.User{}, err
	}
	s.log.Info("user registered", zap.Int64("user", user.ID))
	return user, nil
}

func (s *Service) Authenticate(ctx context.Context, req model.LoginRequest) (model.User, error) {
	req.Email = normalizeEmail(req.Email)
	if err := s.validate(req); err != nil {
		return model.User{}, err
	}

	user, err := s.repo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return model.User{}, errs.ErrAuth
		}
		return model.User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return model.User{}, errs.ErrAuth
	}

	now := s.now()
	user.LoggedIn = true
	user.LastSeen = &now
	if err := s.repo.UpdateUser(ctx, user); err != nil {
		return model.User{}, err
	}
	return user, nil
}

// ResolveSession accepts a user that is logged in and was seen within the
// idle window, and refreshes last_seen.
func (s *Service) ResolveSession(ctx context.Context, userID int64) (model.User, error) {
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return model.User{}, errs.ErrAuth
		}
		return model.User{}, err
	}
	now := s.now()
	if !user.LoggedIn || user.LastSeen == nil || now.Sub(*user.LastSeen) >= s.sessionIdle {
		return model.User{}, errs.ErrAuth
	}
	user.LastSeen = &now
	if err := s.repo.UpdateUser(ctx, user); err != nil {
		return model.User{}, err
	}
	return user, nil
}

func (s *Service) Logout(ctx context.Context, userID int64) error {
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	user.LoggedIn = false
	return s.repo.UpdateUser(ctx, user)
}

// EnsureAdmin creates an admin account unless the email is already registered.
func (s *Service) EnsureAdmin(ctx context.Context, email, password string) error {
	email = normalizeEmail(email)
	_, err := s.repo.GetUserByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, errs.ErrNotFound) {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(err, "hash password")
	}
	name, _, _ := strings.Cut(email, "@")
	if _, err := s.repo.CreateUser(ctx, model.User{
		Email:     email,
		FirstName: name,
		LastName:  "Admin",
		Password:  string(hash),
		IsAdmin:   true,
	}); err != nil && !errors.Is(err, errs.ErrEmailTaken) {
		return err
	}
	s.log.Info("admin ensured", zap.String("email", email))
	return nil
}
