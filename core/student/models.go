package student

import (
	"context"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/shulehq/shule/core"
	"github.com/shulehq/shule/core/query"
)

var ErrNotFound = errors.New("student not found")

// Enrollment statuses
const (
	StatusEnrolled   = "ENROLLED"
	StatusPending    = "PENDING"
	StatusWaitlisted = "WAITLISTED"
	StatusWithdrawn  = "WITHDRAWN"
	StatusGraduated  = "GRADUATED"
)

// HistogramScanCap bounds the client-side grade histogram: stats load at most
// this many rows instead of running a grouped aggregate, so the distribution
// is an approximation past the cap.
const HistogramScanCap = 1000

type Student struct {
	ID               int              `json:"id"`
	FirstName        string           `json:"firstName"`
	LastName         string           `json:"lastName"`
	DateOfBirth      string           `json:"dateOfBirth,omitempty"`
	Grade            string           `json:"grade"`
	School           int              `json:"school"`
	Parents          []int            `json:"parents,omitempty"`
	Account          null.Int         `json:"account"` // the student's own user record, if any
	EnrollmentStatus string           `json:"enrollmentStatus"`
	EnrollmentDate   string           `json:"enrollmentDate,omitempty"`
	StudentID        string           `json:"studentId,omitempty"`
	EmergencyContact EmergencyContact `json:"emergencyContact,omitempty"`
	MedicalInfo      MedicalInfo      `json:"medicalInfo,omitempty"`
	CreatedAt        core.Timestamp   `json:"createdAt"`
	UpdatedAt        core.Timestamp   `json:"updatedAt"`
}

type EmergencyContact struct {
	Name         string `json:"name,omitempty"`
	Relationship string `json:"relationship,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Email        string `json:"email,omitempty"`
}

type MedicalInfo struct {
	Allergies    string `json:"allergies,omitempty"`
	Medications  string `json:"medications,omitempty"`
	SpecialNeeds string `json:"specialNeeds,omitempty"`
}

// NewStudent contains information needed to register a new Student.
type NewStudent struct {
	FirstName        string `json:"firstName" validate:"required"`
	LastName         string `json:"lastName" validate:"required"`
	DateOfBirth      string `json:"dateOfBirth" validate:"required"`
	Grade            string `json:"grade" validate:"required"`
	School           int    `json:"school"`
	Parents          []int  `json:"parents"`
	EnrollmentStatus string `json:"enrollmentStatus" validate:"omitempty,enrollmentstatus"`
	StudentID        string `json:"studentId"`
}

func (ns *NewStudent) Validate(validate *validator.Validate, _ ut.Translator) error {
	ns.FirstName = core.CleanString(ns.FirstName)
	ns.LastName = core.CleanString(ns.LastName)
	return validate.Struct(ns)
}

// Stats aggregates a school's roster by enrollment status plus a bounded
// client-side grade histogram.
type Stats struct {
	Total      int            `json:"total"`
	Enrolled   int            `json:"enrolled"`
	Pending    int            `json:"pending"`
	Waitlisted int            `json:"waitlisted"`
	ByGrade    map[string]int `json:"byGrade"`
}

type (
	Page struct {
		Docs       []Student `json:"docs"`
		TotalDocs  int       `json:"totalDocs"`
		TotalPages int       `json:"totalPages"`
	}

	// ListOptions narrow a by-school listing.
	ListOptions struct {
		Page   int
		Limit  int
		Grade  string
		Status string
	}

	Repository interface {
		FindByID(ctx context.Context, id int) (Student, error)
		FindMany(ctx context.Context, opts core.FindOptions) (Page, error)
		// Count never fails: store errors degrade to 0 and are logged.
		Count(ctx context.Context, where query.Expr) int
		FindByParentID(ctx context.Context, parentID int) ([]Student, error)
		// FindByAccount resolves the Student linked to a STUDENT-role user.
		FindByAccount(ctx context.Context, userID int) (Student, error)
		FindBySchool(ctx context.Context, schoolID int, opts ListOptions) (Page, error)
		FindByGrade(ctx context.Context, schoolID int, grade string) ([]Student, error)
		// Search does a case-insensitive substring match across first name,
		// last name and student id, OR-combined, within one school.
		Search(ctx context.Context, schoolID int, term string, limit int) ([]Student, error)
		Stats(ctx context.Context, schoolID int) (Stats, error)
		Create(ctx context.Context, st Student) (Student, error)
		Update(ctx context.Context, id int, patch core.Document) (Student, error)
		Delete(ctx context.Context, id int) bool
	}
)
