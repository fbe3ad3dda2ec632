package user

import (
	"context"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/shulehq/shule/core"
	"github.com/shulehq/shule/core/query"
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrEmailExists        = errors.New("a user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type (
	Page struct {
		Docs       []User `json:"docs"`
		TotalDocs  int    `json:"totalDocs"`
		TotalPages int    `json:"totalPages"`
	}

	Repository interface {
		FindByID(ctx context.Context, id int) (User, error)
		FindByEmail(ctx context.Context, email string) (User, error)
		FindByRole(ctx context.Context, role string, schoolID int) ([]User, error)
		FindBySchool(ctx context.Context, schoolID int) ([]User, error)
		FindMany(ctx context.Context, opts core.FindOptions) (Page, error)
		// Count never fails: store errors degrade to 0 and are logged.
		Count(ctx context.Context, where query.Expr) int
		// HasAny reports whether the collection holds at least one user.
		// Unlike Count, store failures propagate: the bootstrap access
		// exception must never fire because of a broken query.
		HasAny(ctx context.Context) (bool, error)
		Stats(ctx context.Context, schoolID int) (Stats, error) // schoolID 0 = platform-wide
		Create(ctx context.Context, usr User) (User, error)
		Update(ctx context.Context, id int, patch core.Document) (User, error)
		Delete(ctx context.Context, id int) bool
	}

	ServiceInterface interface {
		GetByID(ctx context.Context, id int) (User, error)
		GetByEmail(ctx context.Context, email string) (User, error)
		Authenticate(ctx context.Context, email, pwd string) (User, error)
		CheckEmailUniqueness(email string) error
		Create(ctx context.Context, nu NewUser) (User, error)
		Update(ctx context.Context, id int, uu UpdateUser) (User, error)
		Stats(ctx context.Context, schoolID int) (Stats, error)
	}

	Service struct {
		repo Repository
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) GetByID(ctx context.Context, id int) (User, error) {
	return svc.repo.FindByID(ctx, id)
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.FindByEmail(ctx, core.CleanString(email, true /* lower */))
}

// Authenticate checks the credentials and returns the matching user.
// A missing user and a bad password are indistinguishable to the caller.
func (svc *Service) Authenticate(ctx context.Context, email, pwd string) (User, error) {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return User{}, ErrInvalidCredentials
		}
		return User{}, errors.Wrap(err, "finding user by email")
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return usr, nil
}

func (svc *Service) CheckEmailUniqueness(email string) error {
	_, err := svc.repo.FindByEmail(context.Background(), email)
	switch errors.Cause(err) {
	case ErrNotFound:
		return nil
	case nil:
		return core.NewValidationError(ErrEmailExists, core.FieldError{Field: "email", Error: ErrEmailExists.Error()})
	}
	return err
}

func (svc *Service) Create(ctx context.Context, nu NewUser) (User, error) {
	usr := User{
		FirstName: nu.FirstName,
		LastName:  nu.LastName,
		Email:     nu.Email,
		Role:      nu.Role,
	}
	if nu.School != nil {
		usr.School = null.IntFrom(*nu.School)
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, err
	}
	return svc.repo.Create(ctx, usr)
}

func (svc *Service) Update(ctx context.Context, id int, uu UpdateUser) (User, error) {
	patch := core.Document{}
	if uu.FirstName != "" {
		patch["firstName"] = uu.FirstName
	}
	if uu.LastName != "" {
		patch["lastName"] = uu.LastName
	}
	if uu.Email != "" {
		patch["email"] = uu.Email
	}
	if uu.Phone != "" {
		patch["phone"] = uu.Phone
	}
	if uu.Role != "" {
		patch["role"] = uu.Role
	}
	if uu.School != nil {
		patch["school"] = *uu.School
	}
	if uu.Password != "" {
		var usr User
		if err := usr.SetPassword(uu.Password); err != nil {
			return User{}, err
		}
		patch["passwordHash"] = usr.PasswordHash
	}
	return svc.repo.Update(ctx, id, patch)
}

func (svc *Service) Stats(ctx context.Context, schoolID int) (Stats, error) {
	return svc.repo.Stats(ctx, schoolID)
}
