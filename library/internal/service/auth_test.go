package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Astemirdum/library-web/library/internal/errs"
	"github.com/Astemirdum/library-web/library/internal/model"
	"github.com/Astemirdum/library-web/library/internal/service"
)

func TestService_RegisterValidation(t *testing.T) {
	valid := model.RegisterRequest{FirstName: "Ayax", LastName: "Diaz", Email: "ayax@example.com", Password: "chorizo"}
	tests := []struct {
		name      string
		mutate    func(r *model.RegisterRequest)
		wantField string
		wantMsg   string
	}{
		{
			name:      "everything empty reports first name",
			mutate:    func(r *model.RegisterRequest) { *r = model.RegisterRequest{} },
			wantField: "FirstName",
			wantMsg:   "Please enter a First Name.",
		},
		{
			name:      "last name",
			mutate:    func(r *model.RegisterRequest) { r.LastName = "  "; r.Password = "" },
			wantField: "LastName",
			wantMsg:   "Please enter a Last Name.",
		},
		{
			name:      "email",
			mutate:    func(r *model.RegisterRequest) { r.Email = ""; r.Password = "" },
			wantField: "Email",
			wantMsg:   "Please enter an email address.",
		},
		{
			name:      "malformed email",
			mutate:    func(r *model.RegisterRequest) { r.Email = "not-an-email" },
			wantField: "Email",
			wantMsg:   "Please enter a valid email address.",
		},
		{
			name:      "password",
			mutate:    func(r *model.RegisterRequest) { r.Password = "" },
			wantField: "Password",
			wantMsg:   "Please enter a password.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMemRepo()
			svc := newTestService(repo, &spyPublisher{}, t0)
			req := valid
			tt.mutate(&req)

			_, err := svc.Register(context.Background(), req)
			var ve *errs.ValidationError
			require.ErrorAs(t, err, &ve)
			require.Equal(t, tt.wantField, ve.Field)
			require.Equal(t, tt.wantMsg, ve.Message)
			require.Empty(t, repo.users)
		})
	}
}

func TestService_RegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	svc := newTestService(repo, &spyPublisher{}, t0)

	user, err := svc.Register(ctx, model.RegisterRequest{
		FirstName: "Mustafa", LastName: "Sanli", Email: " Mustafa@Example.com ", Password: "1234",
	})
	require.NoError(t, err)
	require.Equal(t, "mustafa@example.com", user.Email)
	require.True(t, user.LoggedIn)
	require.True(t, user.LastSeen.Equal(t0))
	require.NotEqual(t, "1234", user.Password)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("1234")))

	_, err = svc.Register(ctx, model.RegisterRequest{
		FirstName: "M", LastName: "S", Email: "mustafa@example.com", Password: "x",
	})
	var ve *errs.ValidationError
	require.ErrorAs(t, err, &ve)
	require.Equal(t, "Email", ve.Field)
	require.Contains(t, ve.Message, "already registered")

	require.NoError(t, svc.Logout(ctx, user.ID))
	stored, err := repo.GetUser(ctx, user.ID)
	require.NoError(t, err)
	require.False(t, stored.LoggedIn)

	_, err = svc.Authenticate(ctx, model.LoginRequest{Email: "mustafa@example.com", Password: "wrong"})
	require.ErrorIs(t, err, errs.ErrAuth)
	stored, _ = repo.GetUser(ctx, user.ID)
	require.False(t, stored.LoggedIn, "failed login must not log the user in")

	_, err = svc.Authenticate(ctx, model.LoginRequest{Email: "nobody@example.com", Password: "1234"})
	require.ErrorIs(t, err, errs.ErrAuth)

	_, err = svc.Authenticate(ctx, model.LoginRequest{Email: "mustafa@example.com"})
	require.ErrorAs(t, err, &ve)
	require.Equal(t, "Please enter a password.", ve.Message)

	logged, err := svc.Authenticate(ctx, model.LoginRequest{Email: "MUSTAFA@example.com", Password: "1234"})
	require.NoError(t, err)
	require.True(t, logged.LoggedIn)
}

func TestService_ResolveSession(t *testing.T) {
	ctx := context.Background()
	seen := t0
	tests := []struct {
		name     string
		user     model.User
		now      time.Time
		wantErr  error
		wantSeen time.Time
	}{
		{
			name:     "active",
			user:     model.User{ID: 1, LoggedIn: true, LastSeen: &seen},
			now:      t0.Add(59 * time.Minute),
			wantSeen: t0.Add(59 * time.Minute),
		},
		{
			name:    "idle for an hour",
			user:    model.User{ID: 1, LoggedIn: true, LastSeen: &seen},
			now:     t0.Add(time.Hour),
			wantErr: errs.ErrAuth,
		},
		{
			name:    "logged out",
			user:    model.User{ID: 1, LoggedIn: false, LastSeen: &seen},
			now:     t0,
			wantErr: errs.ErrAuth,
		},
		{
			name:    "never seen",
			user:    model.User{ID: 1, LoggedIn: true},
			now:     t0,
			wantErr: errs.ErrAuth,
		},
		{
			name:    "unknown user",
			user:    model.User{ID: 2, LoggedIn: true, LastSeen: &seen},
			now:     t0,
			wantErr: errs.ErrAuth,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMemRepo()
			repo.users[tt.user.ID] = tt.user
			svc := newTestService(repo, &spyPublisher{}, tt.now)

			user, err := svc.ResolveSession(ctx, 1)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.True(t, user.LastSeen.Equal(tt.wantSeen))
			stored, _ := repo.GetUser(ctx, 1)
			require.True(t, stored.LastSeen.Equal(tt.wantSeen))
		})
	}
}

func TestService_SessionIdleOption(t *testing.T) {
	seen := t0
	repo := newMemRepo()
	repo.users[1] = model.User{ID: 1, LoggedIn: true, LastSeen: &seen}
	svc := service.NewService(repo, &spyPublisher{}, zap.NewNop(),
		service.WithClock(func() time.Time { return t0.Add(2 * time.Hour) }),
		service.WithSessionIdle(3*time.Hour),
	)
	_, err := svc.ResolveSession(context.Background(), 1)
	require.NoError(t, err)
}

func TestService_EnsureAdmin(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	svc := newTestService(repo, &spyPublisher{}, t0)

	require.NoError(t, svc.EnsureAdmin(ctx, "admin@example.com", "secret"))
	require.NoError(t, svc.EnsureAdmin(ctx, "admin@example.com", "other"))
	require.Len(t, repo.users, 1)

	admin, err := repo.GetUserByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	require.True(t, admin.IsAdmin)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte("secret")))
}
