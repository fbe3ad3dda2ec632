package school

import (
	"context"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/shulehq/shule/core"
	"github.com/shulehq/shule/core/query"
)

var (
	ErrNotFound   = errors.New("school not found")
	ErrSlugExists = errors.New("a school with this slug already exists")
)

// School is the root tenant boundary; most other entities reference exactly one.
type School struct {
	ID              int            `json:"id"`
	Name            string         `json:"name"`
	Slug            string         `json:"slug"`
	Address         string         `json:"address,omitempty"`
	Phone           string         `json:"phone,omitempty"`
	Email           string         `json:"email,omitempty"`
	Website         string         `json:"website,omitempty"`
	EstablishedYear int            `json:"establishedYear,omitempty"`
	Settings        Settings       `json:"settings"`
	CreatedAt       core.Timestamp `json:"createdAt"`
	UpdatedAt       core.Timestamp `json:"updatedAt"`
}

type Settings struct {
	AllowOnlineApplications bool         `json:"allowOnlineApplications"`
	ApplicationDeadline     string       `json:"applicationDeadline,omitempty"`
	GradeClasses            []GradeClass `json:"gradeClasses,omitempty"`
}

type GradeClass struct {
	Grade    string `json:"grade"`
	Capacity int    `json:"capacity,omitempty"`
}

// NewSchool contains information needed to create a new School.
type NewSchool struct {
	Name    string `json:"name" validate:"required"`
	Slug    string `json:"slug" validate:"required,lowercase"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Email   string `json:"email" validate:"omitempty,email"`
}

func (ns *NewSchool) Validate(validate *validator.Validate, _ ut.Translator) error {
	ns.Name = core.CleanString(ns.Name)
	ns.Slug = core.CleanString(ns.Slug, true /* lower */)
	ns.Email = core.CleanString(ns.Email, true /* lower */)
	return validate.Struct(ns)
}

type Repository interface {
	FindByID(ctx context.Context, id int) (School, error)
	FindBySlug(ctx context.Context, slug string) (School, error)
	FindMany(ctx context.Context, opts core.FindOptions) (Page, error)
	Count(ctx context.Context, where query.Expr) int
	Create(ctx context.Context, sch School) (School, error)
	Update(ctx context.Context, id int, patch core.Document) (School, error)
	Delete(ctx context.Context, id int) bool
}

type Page struct {
	Docs       []School `json:"docs"`
	TotalDocs  int      `json:"totalDocs"`
	TotalPages int      `json:"totalPages"`
}
