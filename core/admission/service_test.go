package admission_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/volatiletech/null/v8"

	"github.com/shulehq/shule/core/admission"
	"github.com/shulehq/shule/core/school"
	"github.com/shulehq/shule/core/user"
	dummymail "github.com/shulehq/shule/services/email/dummy"
	inmemdb "github.com/shulehq/shule/storage/document/inmem"
	"github.com/shulehq/shule/storage/repos"
	testutil "github.com/shulehq/shule/tests"
)

type fixture struct {
	svc       *admission.Service
	inquiries admission.InquiryRepository
	schools   *repos.SchoolRepository
	mailSvc   *dummymail.Service
}

func setup() fixture {
	store := inmemdb.Open()
	log := testutil.NewLogger()
	inquiries := repos.NewInquiryRepository(store, log)
	applications := repos.NewApplicationRepository(store, log)
	schools := repos.NewSchoolRepository(store, log)
	mailSvc := dummymail.NewService("Shule")
	return fixture{
		svc:       admission.NewService(inquiries, applications, schools, mailSvc, log),
		inquiries: inquiries,
		schools:   schools,
		mailSvc:   mailSvc,
	}
}

func schoolWithEmail(name, slug, email string) school.School {
	return school.School{Name: name, Slug: slug, Email: email}
}

func TestService_CreateInquiry(t *testing.T) {
	f := setup()
	ctx := context.Background()

	sch, err := f.schools.Create(ctx, schoolWithEmail("Hilltop Academy", "hilltop", "office@hilltop.test"))
	assert.NoError(t, err)

	inq, err := f.svc.CreateInquiry(ctx, nil /* anonymous */, admission.NewInquiry{
		StudentName:     "Amina Okoro",
		ParentFirstName: "Grace",
		ParentLastName:  "Okoro",
		ParentEmail:     "grace@test.cd",
		GradeInterested: "3",
		School:          sch.ID,
	})
	assert.NoError(t, err)
	assert.NotZero(t, inq.ID)
	assert.Equal(t, admission.InquiryNew, inq.Status)
	assert.True(t, strings.HasPrefix(inq.Reference, "INQ-"))

	// the school's contact address was notified
	sent := f.mailSvc.SentMessages()
	if assert.Len(t, sent, 1) {
		assert.Equal(t, "office@hilltop.test", sent[0].To[0].Address)
		assert.Contains(t, sent[0].Subject, inq.Reference)
	}
}

func TestService_CreateInquiry_schoolWithoutContact(t *testing.T) {
	f := setup()
	ctx := context.Background()

	sch, err := f.schools.Create(ctx, schoolWithEmail("Quiet School", "quiet", ""))
	assert.NoError(t, err)

	_, err = f.svc.CreateInquiry(ctx, nil, admission.NewInquiry{
		StudentName:     "Amina Okoro",
		ParentFirstName: "Grace",
		ParentLastName:  "Okoro",
		ParentEmail:     "grace@test.cd",
		School:          sch.ID,
	})
	assert.NoError(t, err)
	assert.Len(t, f.mailSvc.SentMessages(), 0)
}

func TestService_StartApplication(t *testing.T) {
	f := setup()
	ctx := context.Background()

	parent := &user.User{ID: 42, Role: user.RoleParent, School: null.IntFrom(5)}

	t.Run("school filled from the actor", func(t *testing.T) {
		app, err := f.svc.StartApplication(ctx, parent, admission.NewApplication{
			StudentFirstName: "Amina",
			StudentLastName:  "Okoro",
			GradeApplied:     "3",
		})
		assert.NoError(t, err)
		assert.NotZero(t, app.ID)
		assert.Equal(t, 5, app.School)
		assert.Equal(t, admission.ApplicationDraft, app.Status)
		assert.True(t, strings.HasPrefix(app.ApplicationNumber, "APP-"))
		assert.False(t, app.Inquiry.Valid)
	})

	t.Run("linked inquiry is marked applied", func(t *testing.T) {
		inq, err := f.inquiries.Create(ctx, admission.Inquiry{
			StudentName: "Brian Abara",
			ParentEmail: "b@test.cd",
			School:      6,
			Status:      admission.InquiryNew,
		})
		assert.NoError(t, err)

		app, err := f.svc.StartApplication(ctx, parent, admission.NewApplication{
			Inquiry:          &inq.ID,
			StudentFirstName: "Brian",
			StudentLastName:  "Abara",
		})
		assert.NoError(t, err)
		assert.Equal(t, inq.ID, app.Inquiry.Int)
		assert.Equal(t, 6, app.School) // inherited from the inquiry

		refreshed, err := f.inquiries.FindByID(ctx, inq.ID)
		assert.NoError(t, err)
		assert.Equal(t, admission.InquiryApplied, refreshed.Status)
	})

	t.Run("unknown inquiry", func(t *testing.T) {
		bogus := 99
		_, err := f.svc.StartApplication(ctx, parent, admission.NewApplication{
			Inquiry:          &bogus,
			StudentFirstName: "X",
			StudentLastName:  "Y",
		})
		assert.Error(t, err)
	})
}
