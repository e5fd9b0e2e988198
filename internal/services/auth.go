package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/stoalearn/stoa-backend/internal/data/repos"
	types "github.com/stoalearn/stoa-backend/internal/domain"
	"github.com/stoalearn/stoa-backend/internal/observability"
	"github.com/stoalearn/stoa-backend/internal/platform/apperr"
	"github.com/stoalearn/stoa-backend/internal/platform/ctxutil"
	"github.com/stoalearn/stoa-backend/internal/platform/dbctx"
	"github.com/stoalearn/stoa-backend/internal/platform/logger"
)

const minPasswordLength = 8

// refreshExpiryBuffer keeps a just-expired refresh token usable for a
// short window so a client mid-rotation does not get logged out.
const refreshExpiryBuffer = 5 * time.Minute

// JWTClaims is the access token payload. Subject carries the user id
// and Role rides along so middleware can gate admin routes without a
// user lookup.
type JWTClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// RegisterInput carries a signup request.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// AuthTokens is an issued access/refresh pair.
type AuthTokens struct {
	AccessToken  string
	RefreshToken string
}

type AuthService interface {
	RegisterUser(ctx context.Context, input RegisterInput) (*types.User, AuthTokens, error)
	LoginUser(ctx context.Context, email, password string) (*types.User, AuthTokens, error)
	RefreshUser(ctx context.Context, refreshToken string) (AuthTokens, error)
	LogoutUser(ctx context.Context) error
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	GetAccessTTL() time.Duration
}

type authService struct {
	log         *logger.Logger
	runner      TxRunner
	users       repos.UserRepo
	tokens      repos.UserTokenRepo
	jwtSecret   string
	accessTTL   time.Duration
	refreshTTL  time.Duration
	adminEmails map[string]bool
}

func NewAuthService(
	runner TxRunner,
	userRepo repos.UserRepo,
	tokenRepo repos.UserTokenRepo,
	jwtSecret string,
	accessTTL time.Duration,
	refreshTTL time.Duration,
	adminEmails []string,
	baseLog *logger.Logger,
) AuthService {
	admins := make(map[string]bool, len(adminEmails))
	for _, e := range adminEmails {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" {
			admins[e] = true
		}
	}
	return &authService{
		log:         baseLog.With("service", "auth"),
		runner:      runner,
		users:       userRepo,
		tokens:      tokenRepo,
		jwtSecret:   jwtSecret,
		accessTTL:   accessTTL,
		refreshTTL:  refreshTTL,
		adminEmails: admins,
	}
}

func (s *authService) RegisterUser(ctx context.Context, input RegisterInput) (*types.User, AuthTokens, error) {
	const op = "RegisterUser"
	if s == nil || s.runner == nil || s.users == nil || s.tokens == nil {
		return nil, AuthTokens{}, &apperr.DatabaseError{Op: op, Err: errNotConfigured("auth service")}
	}
	email := strings.ToLower(strings.TrimSpace(input.Email))
	firstName := strings.TrimSpace(input.FirstName)
	lastName := strings.TrimSpace(input.LastName)

	fields := map[string]string{}
	if email == "" || !strings.Contains(email, "@") {
		fields["email"] = "must be a valid email address"
	}
	if len(input.Password) < minPasswordLength {
		fields["password"] = fmt.Sprintf("must be at least %d characters", minPasswordLength)
	}
	if firstName == "" {
		fields["first_name"] = "required"
	}
	if lastName == "" {
		fields["last_name"] = "required"
	}
	if len(fields) > 0 {
		return nil, AuthTokens{}, &apperr.ValidationError{Op: op, Fields: fields}
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, AuthTokens{}, &apperr.DatabaseError{Op: op, Err: fmt.Errorf("hash password: %w", err)}
	}
	role := types.RoleStudent
	if s.adminEmails[email] {
		role = types.RoleAdmin
	}

	var (
		created *types.User
		pair    AuthTokens
	)
	err = s.runner.InTx(ctx, func(dbc dbctx.Context) error {
		taken, err := s.users.EmailExists(dbc, email)
		if err != nil {
			return apperr.MapDB(op, err)
		}
		if taken {
			return &apperr.ConflictError{Op: op, Message: "email already registered"}
		}
		rows, err := s.users.Create(dbc, []*types.User{{
			ID:        uuid.New(),
			Email:     email,
			Password:  string(hashed),
			FirstName: firstName,
			LastName:  lastName,
			Role:      role,
		}})
		if err != nil {
			return apperr.MapDB(op, err)
		}
		if len(rows) == 0 || rows[0] == nil {
			return &apperr.DatabaseError{Op: op, Err: fmt.Errorf("user create returned no rows")}
		}
		created = rows[0]
		issued, err := s.issueTokens(dbc, created)
		if err != nil {
			return err
		}
		pair = issued
		return nil
	})
	if err != nil {
		return nil, AuthTokens{}, err
	}
	if metrics := observability.Current(); metrics != nil {
		metrics.IncAuthEvent("registered")
	}
	s.log.Info("user registered", "user_id", created.ID, "role", created.Role)
	return created, pair, nil
}

func (s *authService) LoginUser(ctx context.Context, email, password string) (*types.User, AuthTokens, error) {
	const op = "LoginUser"
	if s == nil || s.runner == nil || s.users == nil || s.tokens == nil {
		return nil, AuthTokens{}, &apperr.DatabaseError{Op: op, Err: errNotConfigured("auth service")}
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, AuthTokens{}, apperr.ErrInvalidCredentials
	}

	users, err := s.users.GetByEmails(dbctx.Context{Ctx: ctx}, []string{email})
	if err != nil {
		return nil, AuthTokens{}, apperr.MapDB(op, err)
	}
	if len(users) == 0 || users[0] == nil {
		if metrics := observability.Current(); metrics != nil {
			metrics.IncAuthEvent("login_failed")
		}
		return nil, AuthTokens{}, apperr.ErrInvalidCredentials
	}
	user := users[0]
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		if metrics := observability.Current(); metrics != nil {
			metrics.IncAuthEvent("login_failed")
		}
		return nil, AuthTokens{}, apperr.ErrInvalidCredentials
	}

	var pair AuthTokens
	err = s.runner.InTx(ctx, func(dbc dbctx.Context) error {
		issued, err := s.issueTokens(dbc, user)
		if err != nil {
			return err
		}
		pair = issued
		return nil
	})
	if err != nil {
		return nil, AuthTokens{}, err
	}
	if metrics := observability.Current(); metrics != nil {
		metrics.IncAuthEvent("login")
	}
	return user, pair, nil
}

// RefreshUser rotates a session: the old token row is retired and a
// fresh pair issued, keyed by the opaque refresh token string.
func (s *authService) RefreshUser(ctx context.Context, refreshToken string) (AuthTokens, error) {
	const op = "RefreshUser"
	if s == nil || s.runner == nil || s.users == nil || s.tokens == nil {
		return AuthTokens{}, &apperr.DatabaseError{Op: op, Err: errNotConfigured("auth service")}
	}
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return AuthTokens{}, apperr.ErrUnauthorized
	}

	var pair AuthTokens
	err := s.runner.InTx(ctx, func(dbc dbctx.Context) error {
		rows, err := s.tokens.GetByRefreshTokens(dbc, []string{refreshToken})
		if err != nil {
			return apperr.MapDB(op, err)
		}
		if len(rows) == 0 || rows[0] == nil {
			return apperr.ErrUnauthorized
		}
		existing := rows[0]
		if existing.ExpiresAt.Add(refreshExpiryBuffer).Before(time.Now()) {
			if err := s.tokens.SoftDeleteByIDs(dbc, []uuid.UUID{existing.ID}); err != nil {
				s.log.Warn("retire expired refresh token failed", "error", err)
			}
			return apperr.ErrUnauthorized
		}
		users, err := s.users.GetByIDs(dbc, []uuid.UUID{existing.UserID})
		if err != nil {
			return apperr.MapDB(op, err)
		}
		if len(users) == 0 || users[0] == nil {
			return apperr.ErrUnauthorized
		}
		issued, err := s.issueTokens(dbc, users[0])
		if err != nil {
			return err
		}
		if err := s.tokens.SoftDeleteByIDs(dbc, []uuid.UUID{existing.ID}); err != nil {
			return apperr.MapDB(op, err)
		}
		pair = issued
		return nil
	})
	if err != nil {
		if metrics := observability.Current(); metrics != nil && errors.Is(err, apperr.ErrUnauthorized) {
			metrics.IncAuthEvent("refresh_rejected")
		}
		return AuthTokens{}, err
	}
	if metrics := observability.Current(); metrics != nil {
		metrics.IncAuthEvent("token_refreshed")
	}
	return pair, nil
}

func (s *authService) LogoutUser(ctx context.Context) error {
	const op = "LogoutUser"
	if s == nil || s.runner == nil || s.tokens == nil {
		return &apperr.DatabaseError{Op: op, Err: errNotConfigured("auth service")}
	}
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.SessionID == uuid.Nil {
		return apperr.ErrUnauthorized
	}
	err := s.runner.InTx(ctx, func(dbc dbctx.Context) error {
		if err := s.tokens.SoftDeleteByIDs(dbc, []uuid.UUID{rd.SessionID}); err != nil {
			return apperr.MapDB(op, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if metrics := observability.Current(); metrics != nil {
		metrics.IncAuthEvent("logout")
	}
	return nil
}

// SetContextFromToken verifies an access token and, when the session
// row still exists, attaches the request identity to the context. The
// row check is what makes logout effective before the JWT expires.
func (s *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	if s == nil || s.tokens == nil {
		return ctx, &apperr.DatabaseError{Op: "SetContextFromToken", Err: errNotConfigured("auth service")}
	}
	if tokenString == "" {
		return ctx, apperr.ErrUnauthorized
	}
	parsed, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil || !parsed.Valid {
		return ctx, apperr.ErrUnauthorized
	}
	claims, ok := parsed.Claims.(*JWTClaims)
	if !ok {
		return ctx, apperr.ErrUnauthorized
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return ctx, apperr.ErrUnauthorized
	}

	rows, err := s.tokens.GetByAccessTokens(dbctx.Context{Ctx: ctx}, []string{tokenString})
	if err != nil {
		return ctx, apperr.MapDB("SetContextFromToken", err)
	}
	if len(rows) == 0 || rows[0] == nil {
		// Signed but revoked, a logged-out session.
		return ctx, apperr.ErrUnauthorized
	}
	row := rows[0]

	rd := &ctxutil.RequestData{
		TokenString:  tokenString,
		RefreshToken: row.RefreshToken,
		UserID:       userID,
		SessionID:    row.ID,
		Role:         claims.Role,
	}
	return ctxutil.WithRequestData(ctx, rd), nil
}

func (s *authService) GetAccessTTL() time.Duration {
	return s.accessTTL
}

// issueTokens signs an access JWT, mints an opaque refresh token, and
// persists the session row whose id doubles as the session identity.
func (s *authService) issueTokens(dbc dbctx.Context, user *types.User) (AuthTokens, error) {
	const op = "issueTokens"
	now := time.Now()
	claims := JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.New().String(),
		},
		Role: user.Role,
	}
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.jwtSecret))
	if err != nil {
		return AuthTokens{}, &apperr.DatabaseError{Op: op, Err: fmt.Errorf("sign access token: %w", err)}
	}
	refresh := uuid.New().String()
	row := &types.UserToken{
		ID:           uuid.New(),
		UserID:       user.ID,
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    now.Add(s.refreshTTL),
	}
	if _, err := s.tokens.Create(dbc, []*types.UserToken{row}); err != nil {
		return AuthTokens{}, apperr.MapDB(op, err)
	}
	return AuthTokens{AccessToken: access, RefreshToken: refresh}, nil
}
