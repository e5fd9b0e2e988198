package services

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/stoalearn/stoa-backend/internal/data/repos"
	types "github.com/stoalearn/stoa-backend/internal/domain"
	"github.com/stoalearn/stoa-backend/internal/platform/apperr"
	"github.com/stoalearn/stoa-backend/internal/platform/ctxutil"
	"github.com/stoalearn/stoa-backend/internal/platform/dbctx"
	"github.com/stoalearn/stoa-backend/internal/platform/logger"
)

type UserService interface {
	GetMe(ctx context.Context) (*types.User, error)
	UpdateName(ctx context.Context, firstName, lastName string) (*types.User, error)
}

type userService struct {
	log    *logger.Logger
	runner TxRunner
	users  repos.UserRepo
}

func NewUserService(runner TxRunner, userRepo repos.UserRepo, baseLog *logger.Logger) UserService {
	return &userService{
		log:    baseLog.With("service", "user"),
		runner: runner,
		users:  userRepo,
	}
}

func (s *userService) GetMe(ctx context.Context) (*types.User, error) {
	const op = "GetMe"
	if s == nil || s.users == nil {
		return nil, &apperr.DatabaseError{Op: op, Err: errNotConfigured("user service")}
	}
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apperr.ErrUnauthorized
	}
	found, err := s.users.GetByIDs(dbctx.Context{Ctx: ctx}, []uuid.UUID{rd.UserID})
	if err != nil {
		return nil, apperr.MapDB(op, err)
	}
	if len(found) == 0 || found[0] == nil {
		return nil, &apperr.NotFoundError{Resource: "user", ID: rd.UserID}
	}
	return found[0], nil
}

func (s *userService) UpdateName(ctx context.Context, firstName, lastName string) (*types.User, error) {
	const op = "UpdateName"
	if s == nil || s.runner == nil || s.users == nil {
		return nil, &apperr.DatabaseError{Op: op, Err: errNotConfigured("user service")}
	}
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apperr.ErrUnauthorized
	}

	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)
	fields := map[string]string{}
	if firstName == "" {
		fields["first_name"] = "required"
	}
	if lastName == "" {
		fields["last_name"] = "required"
	}
	if len(fields) > 0 {
		return nil, &apperr.ValidationError{Op: op, Fields: fields}
	}

	var out *types.User
	err := s.runner.InTx(ctx, func(dbc dbctx.Context) error {
		found, err := s.users.GetByIDs(dbc, []uuid.UUID{rd.UserID})
		if err != nil {
			return apperr.MapDB(op, err)
		}
		if len(found) == 0 || found[0] == nil {
			return &apperr.NotFoundError{Resource: "user", ID: rd.UserID}
		}
		u := found[0]
		if err := s.users.UpdateName(dbc, rd.UserID, firstName, lastName); err != nil {
			return apperr.MapDB(op, err)
		}
		u.FirstName = firstName
		u.LastName = lastName
		out = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
