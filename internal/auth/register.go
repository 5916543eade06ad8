package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"github.com/zatgpt/zatgpt-backend/internal/users"
	"github.com/zatgpt/zatgpt-backend/pkg/db"
	pkgerrors "github.com/zatgpt/zatgpt-backend/pkg/errors"
	"github.com/zatgpt/zatgpt-backend/pkg/security"
)

// RegisterService handles self-service signup. Registered users are always
// active and never privileged.
type RegisterService interface {
	Register(ctx context.Context, req RegisterRequest) (*users.UserDTO, error)
}

// RegisterServiceParams packages the dependencies for the registration flow.
type RegisterServiceParams struct {
	DB     *db.Client
	Hasher *security.Hasher
}

type registerService struct {
	db     *db.Client
	hasher *security.Hasher
}

// NewRegisterService builds a registration service with the provided dependencies.
func NewRegisterService(params RegisterServiceParams) (RegisterService, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "database client required")
	}
	if params.Hasher == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "password hasher required")
	}
	return &registerService{db: params.DB, hasher: params.Hasher}, nil
}

func (s *registerService) Register(ctx context.Context, req RegisterRequest) (*users.UserDTO, error) {
	dto, err := newUserDTO(req.Username, req.Account, req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	return createUser(ctx, s.db, s.hasher, dto, req.Password)
}

var fieldValidator = validator.New()

// validEmail applies the same rule as the `email` tag on request bodies.
func validEmail(email string) bool {
	return fieldValidator.Var(email, "required,email") == nil
}

// newUserDTO normalises and checks the identity fields shared by every
// creation path.
func newUserDTO(handle, account, email, password string) (users.CreateUserDTO, error) {
	dto := users.CreateUserDTO{
		Handle:  strings.TrimSpace(handle),
		Account: strings.TrimSpace(account),
		Email:   strings.ToLower(strings.TrimSpace(email)),
	}
	switch {
	case dto.Handle == "":
		return dto, pkgerrors.New(pkgerrors.CodeValidation, "username is required")
	case dto.Account == "":
		return dto, pkgerrors.New(pkgerrors.CodeValidation, "account is required")
	case dto.Email == "":
		return dto, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	case !validEmail(dto.Email):
		return dto, pkgerrors.New(pkgerrors.CodeValidation, "email must be a valid email")
	case password == "":
		return dto, pkgerrors.New(pkgerrors.CodeValidation, "password is required")
	}
	return dto, nil
}

func createUser(ctx context.Context, client *db.Client, hasher *security.Hasher, dto users.CreateUserDTO, password string) (*users.UserDTO, error) {
	hash, err := hasher.Hash(password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	dto.PasswordHash = hash

	var created *users.UserDTO
	err = client.WithTx(ctx, func(tx *gorm.DB) error {
		repo := users.NewRepository(tx)
		if err := ensureAvailable(ctx, repo, dto); err != nil {
			return err
		}

		user, err := repo.Create(ctx, dto)
		if err != nil {
			if field, ok := users.DuplicateField(err); ok {
				if field == "" {
					field = "user"
				}
				return pkgerrors.Duplicate(field, err)
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
		}
		created = users.FromModel(user)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// ensureAvailable reports a taken handle or email before the insert. The
// unique constraints still decide races between concurrent signups.
func ensureAvailable(ctx context.Context, repo *users.Repository, dto users.CreateUserDTO) error {
	if _, err := repo.FindByHandle(ctx, dto.Handle); err == nil {
		return pkgerrors.Duplicate("username", nil)
	} else if !errors.Is(err, users.ErrNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup username")
	}
	if _, err := repo.FindByEmail(ctx, dto.Email); err == nil {
		return pkgerrors.Duplicate("email", nil)
	} else if !errors.Is(err, users.ErrNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup email")
	}
	return nil
}
