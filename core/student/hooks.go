package student

import "github.com/shulehq/shule/core/user"

// CreateHooks is the ordered pre-write chain the repository applies before
// persisting a new student. The acting user may be nil (admin CLI paths).
var CreateHooks = []func(actor *user.User, st *Student){
	fillSchoolFromActor,
	defaultEnrollmentStatus,
}

func ApplyCreateHooks(actor *user.User, st *Student) {
	for _, hook := range CreateHooks {
		hook(actor, st)
	}
}

func fillSchoolFromActor(actor *user.User, st *Student) {
	if st.School == 0 && actor != nil && actor.School.Valid {
		st.School = actor.School.Int
	}
}

func defaultEnrollmentStatus(_ *user.User, st *Student) {
	if st.EnrollmentStatus == "" {
		st.EnrollmentStatus = StatusPending
	}
}
