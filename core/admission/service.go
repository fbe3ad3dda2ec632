package admission

import (
	"context"
	"fmt"
	"net/mail"

	"github.com/pkg/errors"

	"github.com/shulehq/shule/core"
	"github.com/shulehq/shule/core/school"
	"github.com/shulehq/shule/core/user"
)

type Service struct {
	inquiries    InquiryRepository
	applications ApplicationRepository
	schools      school.Repository
	mailSvc      core.EmailService
	log          core.Logger
}

func NewService(
	inquiries InquiryRepository,
	applications ApplicationRepository,
	schools school.Repository,
	mailSvc core.EmailService,
	log core.Logger,
) *Service {
	return &Service{
		inquiries:    inquiries,
		applications: applications,
		schools:      schools,
		mailSvc:      mailSvc,
		log:          log,
	}
}

// CreateInquiry records a public admissions lead and notifies the school's
// contact address. The actor may be nil (anonymous intake).
func (svc *Service) CreateInquiry(ctx context.Context, actor *user.User, ni NewInquiry) (Inquiry, error) {
	inq := Inquiry{
		StudentName:     ni.StudentName,
		ParentFirstName: ni.ParentFirstName,
		ParentLastName:  ni.ParentLastName,
		ParentEmail:     ni.ParentEmail,
		ParentPhone:     ni.ParentPhone,
		GradeInterested: ni.GradeInterested,
		School:          ni.School,
		Notes:           ni.Notes,
	}
	ApplyInquiryCreateHooks(actor, &inq)

	inq, err := svc.inquiries.Create(ctx, inq)
	if err != nil {
		return Inquiry{}, errors.Wrap(err, "creating inquiry")
	}

	svc.notifySchool(ctx, inq)
	return inq, nil
}

// StartApplication opens an application for the actor's school (or the
// requested one), linking back to an inquiry when given.
func (svc *Service) StartApplication(ctx context.Context, actor *user.User, na NewApplication) (Application, error) {
	app := Application{
		School:           na.School,
		StudentFirstName: na.StudentFirstName,
		StudentLastName:  na.StudentLastName,
		GradeApplied:     na.GradeApplied,
	}
	if na.Inquiry != nil {
		inq, err := svc.inquiries.FindByID(ctx, *na.Inquiry)
		if err != nil {
			return Application{}, errors.Wrap(err, "resolving inquiry")
		}
		app.Inquiry.SetValid(inq.ID)
		if app.School == 0 {
			app.School = inq.School
		}
	}
	ApplyApplicationCreateHooks(actor, &app)

	app, err := svc.applications.Create(ctx, app)
	if err != nil {
		return Application{}, errors.Wrap(err, "creating application")
	}

	if app.Inquiry.Valid {
		if _, err := svc.inquiries.Update(ctx, app.Inquiry.Int, core.Document{"status": InquiryApplied}); err != nil {
			// the application exists either way; the stale lead status is recoverable
			svc.log.Warn("admission: updating inquiry status", err)
		}
	}
	return app, nil
}

func (svc *Service) notifySchool(ctx context.Context, inq Inquiry) {
	sch, err := svc.schools.FindByID(ctx, inq.School)
	if err != nil || sch.Email == "" {
		if err != nil {
			svc.log.Warn("admission: resolving school for inquiry notification", err)
		}
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: sch.Name, Address: sch.Email}},
		Subject: fmt.Sprintf("New admissions inquiry %s", inq.Reference),
		BodyStr: fmt.Sprintf(
			"%s %s inquired about %s (grade %s).\nContact: %s",
			inq.ParentFirstName, inq.ParentLastName, inq.StudentName, inq.GradeInterested, inq.ParentEmail,
		),
	})
}
