package message

import (
	"context"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/shulehq/shule/core"
	"github.com/shulehq/shule/core/query"
)

var ErrNotFound = errors.New("message not found")

// Statuses
const (
	StatusDraft     = "DRAFT"
	StatusSent      = "SENT"
	StatusScheduled = "SCHEDULED"
	StatusFailed    = "FAILED"
)

// Message types
const (
	TypeIndividual         = "INDIVIDUAL"
	TypeGroup              = "GROUP"
	TypeClassAnnouncement  = "CLASS_ANNOUNCEMENT"
	TypeSchoolAnnouncement = "SCHOOL_ANNOUNCEMENT"
	TypeEmergency          = "EMERGENCY"
	TypeNewsletter         = "NEWSLETTER"
)

// Priorities
const (
	PriorityLow    = "LOW"
	PriorityNormal = "NORMAL"
	PriorityHigh   = "HIGH"
	PriorityUrgent = "URGENT"
)

// Delivery methods
const (
	DeliveryInApp = "IN_APP"
	DeliveryEmail = "EMAIL"
	DeliverySMS   = "SMS"
	DeliveryPush  = "PUSH"
)

// HistogramScanCap bounds the client-side type/priority breakdowns in Stats,
// mirroring the student grade histogram's bounded scan.
const HistogramScanCap = 1000

type Message struct {
	ID              int            `json:"id"`
	Subject         string         `json:"subject"`
	Content         string         `json:"content"`
	Sender          int            `json:"sender"`
	Recipients      []int          `json:"recipients"`
	MessageType     string         `json:"messageType"`
	Priority        string         `json:"priority"`
	School          int            `json:"school"`
	RelatedStudent  null.Int       `json:"relatedStudent"`
	Status          string         `json:"status"`
	SentAt          core.Timestamp `json:"sentAt,omitempty"`
	ScheduledFor    core.Timestamp `json:"scheduledFor,omitempty"`
	ReadReceipts    []ReadReceipt  `json:"readReceipts,omitempty"`
	Template        null.Int       `json:"template"`
	ParentThread    null.Int       `json:"parentThread"`
	DeliveryMethods []string       `json:"deliveryMethods,omitempty"`
	CreatedAt       core.Timestamp `json:"createdAt"`
	UpdatedAt       core.Timestamp `json:"updatedAt"`
}

// ReadReceipt marks that a user has viewed a message; unique per user.
type ReadReceipt struct {
	User   int            `json:"user"`
	ReadAt core.Timestamp `json:"readAt"`
}

// HasRead reports whether userID already holds a read receipt.
func (m *Message) HasRead(userID int) bool {
	for _, r := range m.ReadReceipts {
		if r.User == userID {
			return true
		}
	}
	return false
}

// Template is a reusable message body, optionally scoped to one school
// (null school = global/system template).
type Template struct {
	ID        int            `json:"id"`
	Name      string         `json:"name"`
	Subject   string         `json:"subject"`
	Content   string         `json:"content"`
	School    null.Int       `json:"school"`
	CreatedAt core.Timestamp `json:"createdAt"`
	UpdatedAt core.Timestamp `json:"updatedAt"`
}

// NewMessage contains information needed to compose a Message. Sender and
// school are never trusted from the payload: pre-write hooks stamp both.
type NewMessage struct {
	Subject         string   `json:"subject" validate:"required"`
	Content         string   `json:"content" validate:"required"`
	Recipients      []int    `json:"recipients" validate:"required,min=1"`
	MessageType     string   `json:"messageType" validate:"required"`
	Priority        string   `json:"priority"`
	School          int      `json:"school"`
	Status          string   `json:"status"`
	DeliveryMethods []string `json:"deliveryMethods"`
}

func (nm *NewMessage) Validate(validate *validator.Validate, _ ut.Translator) error {
	nm.Subject = core.CleanString(nm.Subject)
	return validate.Struct(nm)
}

// Stats is a time-windowed aggregate of a school's messages.
type Stats struct {
	Total      int            `json:"total"`
	Sent       int            `json:"sent"`
	Draft      int            `json:"draft"`
	Scheduled  int            `json:"scheduled"`
	Unread     int            `json:"unreadCount,omitempty"`
	ByType     map[string]int `json:"byType,omitempty"`
	ByPriority map[string]int `json:"byPriority,omitempty"`
}

type (
	Page struct {
		Docs       []Message `json:"docs"`
		TotalDocs  int       `json:"totalDocs"`
		TotalPages int       `json:"totalPages"`
	}

	// RecipientPage adds the unread count to a recipient-scoped listing.
	RecipientPage struct {
		Docs        []Message `json:"docs"`
		TotalDocs   int       `json:"totalDocs"`
		UnreadCount int       `json:"unreadCount"`
	}

	RecipientOptions struct {
		UnreadOnly bool
		Page       int
		Limit      int
		Start      time.Time
		End        time.Time
	}

	SchoolOptions struct {
		MessageType string
		Priority    string
		Start       time.Time
		Page        int
		Limit       int
	}

	TemplatePage struct {
		Docs       []Template `json:"docs"`
		TotalDocs  int        `json:"totalDocs"`
		TotalPages int        `json:"totalPages"`
	}

	Repository interface {
		FindByID(ctx context.Context, id int) (Message, error)
		FindMany(ctx context.Context, opts core.FindOptions) (Page, error)
		// Count never fails: store errors degrade to 0 and are logged.
		Count(ctx context.Context, where query.Expr) int
		FindByRecipient(ctx context.Context, recipientID int, opts RecipientOptions) (RecipientPage, error)
		FindBySender(ctx context.Context, senderID, page, limit int) (Page, error)
		FindBySchool(ctx context.Context, schoolID int, opts SchoolOptions) (Page, error)
		// Stats aggregates over a trailing window: "week", "month" or "year".
		Stats(ctx context.Context, schoolID int, timeframe string) (Stats, error)
		// MarkAsRead appends a read receipt for userID unless one exists.
		// Idempotent; guarded by an optimistic compare-and-swap retry.
		MarkAsRead(ctx context.Context, messageID, userID int) (bool, error)
		Create(ctx context.Context, msg Message) (Message, error)
		Update(ctx context.Context, id int, patch core.Document) (Message, error)
		Delete(ctx context.Context, id int) bool
	}

	TemplateRepository interface {
		FindByID(ctx context.Context, id int) (Template, error)
		FindMany(ctx context.Context, opts core.FindOptions) (TemplatePage, error)
		Create(ctx context.Context, tpl Template) (Template, error)
		Delete(ctx context.Context, id int) bool
	}
)

// Timeframes accepted by Stats.
const (
	TimeframeWeek  = "week"
	TimeframeMonth = "month"
	TimeframeYear  = "year"
)

// TimeframeStart maps a timeframe selector to its cutoff timestamp.
func TimeframeStart(timeframe string, now time.Time) time.Time {
	switch timeframe {
	case TimeframeMonth:
		return now.Add(-30 * 24 * time.Hour)
	case TimeframeYear:
		return now.Add(-365 * 24 * time.Hour)
	default: // week
		return now.Add(-7 * 24 * time.Hour)
	}
}
