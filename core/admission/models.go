package admission

import (
	"context"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/shulehq/shule/core"
	"github.com/shulehq/shule/core/query"
)

var (
	ErrInquiryNotFound     = errors.New("inquiry not found")
	ErrApplicationNotFound = errors.New("application not found")
)

// Inquiry statuses
const (
	InquiryNew           = "NEW"
	InquiryContacted     = "CONTACTED"
	InquiryTourScheduled = "TOUR_SCHEDULED"
	InquiryApplied       = "APPLIED"
	InquiryClosed        = "CLOSED"
)

// Application statuses
const (
	ApplicationDraft     = "DRAFT"
	ApplicationSubmitted = "SUBMITTED"
	ApplicationReview    = "REVIEW"
	ApplicationInterview = "INTERVIEW"
	ApplicationAccepted  = "ACCEPTED"
	ApplicationRejected  = "REJECTED"
	ApplicationEnrolled  = "ENROLLED"
)

// Inquiry is a public admissions lead: anyone, including anonymous visitors,
// may create one against a school.
type Inquiry struct {
	ID              int            `json:"id"`
	Reference       string         `json:"reference"`
	StudentName     string         `json:"studentName"`
	ParentFirstName string         `json:"parentFirstName"`
	ParentLastName  string         `json:"parentLastName"`
	ParentEmail     string         `json:"parentEmail"`
	ParentPhone     string         `json:"parentPhone,omitempty"`
	GradeInterested string         `json:"gradeInterested,omitempty"`
	School          int            `json:"school"`
	Notes           string         `json:"notes,omitempty"`
	Status          string         `json:"status"`
	CreatedAt       core.Timestamp `json:"createdAt"`
	UpdatedAt       core.Timestamp `json:"updatedAt"`
}

type Application struct {
	ID                int            `json:"id"`
	ApplicationNumber string         `json:"applicationNumber"`
	Inquiry           null.Int       `json:"inquiry"`
	School            int            `json:"school"`
	StudentFirstName  string         `json:"studentFirstName"`
	StudentLastName   string         `json:"studentLastName"`
	GradeApplied      string         `json:"gradeApplied,omitempty"`
	Status            string         `json:"status"`
	SubmittedAt       core.Timestamp `json:"submittedAt,omitempty"`
	InterviewDate     string         `json:"interviewDate,omitempty"`
	TuitionAid        bool           `json:"tuitionAidRequested,omitempty"`
	CreatedAt         core.Timestamp `json:"createdAt"`
	UpdatedAt         core.Timestamp `json:"updatedAt"`
}

// NewInquiry is the public lead-intake payload.
type NewInquiry struct {
	StudentName     string `json:"studentName" validate:"required"`
	ParentFirstName string `json:"parentFirstName" validate:"required"`
	ParentLastName  string `json:"parentLastName" validate:"required"`
	ParentEmail     string `json:"parentEmail" validate:"required,email"`
	ParentPhone     string `json:"parentPhone"`
	GradeInterested string `json:"gradeInterested"`
	School          int    `json:"school" validate:"required"`
	Notes           string `json:"notes"`
}

func (ni *NewInquiry) Validate(validate *validator.Validate, _ ut.Translator) error {
	ni.StudentName = core.CleanString(ni.StudentName)
	ni.ParentFirstName = core.CleanString(ni.ParentFirstName)
	ni.ParentLastName = core.CleanString(ni.ParentLastName)
	ni.ParentEmail = core.CleanString(ni.ParentEmail, true /* lower */)
	return validate.Struct(ni)
}

// NewApplication starts an application, optionally from an inquiry.
type NewApplication struct {
	Inquiry          *int   `json:"inquiry"`
	School           int    `json:"school"`
	StudentFirstName string `json:"studentFirstName" validate:"required"`
	StudentLastName  string `json:"studentLastName" validate:"required"`
	GradeApplied     string `json:"gradeApplied"`
}

func (na *NewApplication) Validate(validate *validator.Validate, _ ut.Translator) error {
	na.StudentFirstName = core.CleanString(na.StudentFirstName)
	na.StudentLastName = core.CleanString(na.StudentLastName)
	return validate.Struct(na)
}

type (
	InquiryPage struct {
		Docs       []Inquiry `json:"docs"`
		TotalDocs  int       `json:"totalDocs"`
		TotalPages int       `json:"totalPages"`
	}

	ApplicationPage struct {
		Docs       []Application `json:"docs"`
		TotalDocs  int           `json:"totalDocs"`
		TotalPages int           `json:"totalPages"`
	}

	InquiryRepository interface {
		FindByID(ctx context.Context, id int) (Inquiry, error)
		FindMany(ctx context.Context, opts core.FindOptions) (InquiryPage, error)
		Count(ctx context.Context, where query.Expr) int
		Create(ctx context.Context, inq Inquiry) (Inquiry, error)
		Update(ctx context.Context, id int, patch core.Document) (Inquiry, error)
		Delete(ctx context.Context, id int) bool
	}

	ApplicationRepository interface {
		FindByID(ctx context.Context, id int) (Application, error)
		FindMany(ctx context.Context, opts core.FindOptions) (ApplicationPage, error)
		Count(ctx context.Context, where query.Expr) int
		Create(ctx context.Context, app Application) (Application, error)
		Update(ctx context.Context, id int, patch core.Document) (Application, error)
		Delete(ctx context.Context, id int) bool
	}
)
