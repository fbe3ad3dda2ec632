// Package dashboard composes per-role dashboards by fanning repository
// queries out in parallel and reducing them into role-appropriate stats and
// an activity feed. Admin aggregation bypasses this service entirely (the
// admin panel queries counts directly).
package dashboard

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/shulehq/shule/core"
	"github.com/shulehq/shule/core/message"
	"github.com/shulehq/shule/core/student"
	"github.com/shulehq/shule/core/user"
)

var (
	// ErrNoSchool short-circuits a teacher dashboard before any repository
	// is hit: there is nothing meaningful to aggregate without a school.
	ErrNoSchool = errors.New("teacher not assigned to a school")
	// ErrAdminExcluded: admins are directed to the admin panel instead.
	ErrAdminExcluded = errors.New("admin users should use the admin panel directly")
	ErrUnknownRole   = errors.New("unknown user role")
)

type (
	Stats struct {
		Students *student.Stats `json:"students,omitempty"`
		Messages *message.Stats `json:"messages,omitempty"`
	}

	Data struct {
		User           user.Public       `json:"user"`
		Stats          Stats             `json:"stats"`
		RecentActivity []message.Message `json:"recentActivity"`
		// Student is the viewer's own record, set on student dashboards
		// whose account linkage resolves.
		Student *student.Student `json:"student,omitempty"`
	}

	Service struct {
		students student.Repository
		messages message.Repository
		log      core.Logger
	}
)

func NewService(students student.Repository, messages message.Repository, log core.Logger) *Service {
	return &Service{students: students, messages: messages, log: log}
}

// GetDashboardData dispatches to the per-role aggregation strategy.
func (svc *Service) GetDashboardData(ctx context.Context, usr user.User) (Data, error) {
	switch usr.Role {
	case user.RoleAdmin:
		return Data{}, ErrAdminExcluded
	case user.RoleTeacher:
		return svc.teacherDashboard(ctx, usr)
	case user.RoleParent:
		return svc.parentDashboard(ctx, usr)
	case user.RoleStudent:
		return svc.studentDashboard(ctx, usr)
	}
	return Data{}, errors.Wrapf(ErrUnknownRole, "%q", usr.Role)
}

func (svc *Service) teacherDashboard(ctx context.Context, usr user.User) (Data, error) {
	if !usr.School.Valid {
		return Data{}, ErrNoSchool
	}
	schoolID := usr.School.Int

	var (
		studentStats student.Stats
		messageStats message.Stats
		recent       message.Page
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		studentStats, err = svc.students.Stats(gctx, schoolID)
		return err
	})
	g.Go(func() (err error) {
		messageStats, err = svc.messages.Stats(gctx, schoolID, message.TimeframeWeek)
		return err
	})
	g.Go(func() (err error) {
		recent, err = svc.messages.FindBySchool(gctx, schoolID, message.SchoolOptions{
			Limit: 5,
			Start: time.Now().Add(-7 * 24 * time.Hour),
		})
		return err
	})
	if err := g.Wait(); err != nil {
		return Data{}, core.NewOperationError("getTeacherDashboard", err)
	}

	return Data{
		User: usr.Public(),
		Stats: Stats{
			Students: &studentStats,
			Messages: &messageStats,
		},
		RecentActivity: recent.Docs,
	}, nil
}

func (svc *Service) parentDashboard(ctx context.Context, usr user.User) (Data, error) {
	var (
		children []student.Student
		inbox    message.RecipientPage
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		children, err = svc.students.FindByParentID(gctx, usr.ID)
		return err
	})
	g.Go(func() (err error) {
		inbox, err = svc.messages.FindByRecipient(gctx, usr.ID, message.RecipientOptions{
			Limit: 10,
			Start: time.Now().Add(-30 * 24 * time.Hour),
		})
		return err
	})
	if err := g.Wait(); err != nil {
		return Data{}, core.NewOperationError("getParentDashboard", err)
	}

	// child roster stats are computed in memory: the roster is tiny
	studentStats := student.Stats{
		Total:   len(children),
		ByGrade: map[string]int{},
	}
	for _, child := range children {
		switch child.EnrollmentStatus {
		case student.StatusEnrolled:
			studentStats.Enrolled++
		case student.StatusPending:
			studentStats.Pending++
		case student.StatusWaitlisted:
			studentStats.Waitlisted++
		}
		grade := child.Grade
		if grade == "" {
			grade = "Unknown"
		}
		studentStats.ByGrade[grade]++
	}

	return Data{
		User: usr.Public(),
		Stats: Stats{
			Students: &studentStats,
			Messages: &message.Stats{
				Total:  inbox.TotalDocs,
				Unread: inbox.UnreadCount,
			},
		},
		RecentActivity: inbox.Docs,
	}, nil
}

func (svc *Service) studentDashboard(ctx context.Context, usr user.User) (Data, error) {
	inbox, err := svc.messages.FindByRecipient(ctx, usr.ID, message.RecipientOptions{
		Limit: 10,
		Start: time.Now().Add(-30 * 24 * time.Hour),
	})
	if err != nil {
		return Data{}, core.NewOperationError("getStudentDashboard", err)
	}

	// the student's own record is linked through the account reference;
	// missing linkage degrades the dashboard, it does not fail it
	var record *student.Student
	if st, err := svc.students.FindByAccount(ctx, usr.ID); err == nil {
		record = &st
	} else if errors.Cause(err) != student.ErrNotFound {
		svc.log.Warn("dashboard: resolving student record", err)
	}

	return Data{
		User: usr.Public(),
		Stats: Stats{
			Messages: &message.Stats{
				Total:  inbox.TotalDocs,
				Unread: inbox.UnreadCount,
			},
		},
		RecentActivity: inbox.Docs,
		Student:        record,
	}, nil
}
