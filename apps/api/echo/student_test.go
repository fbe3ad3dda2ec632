package echoapi

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shulehq/shule/core/student"
	"github.com/shulehq/shule/core/user"
	testutil "github.com/shulehq/shule/tests"
)

func TestStudentApi_list(t *testing.T) {
	app := newTestApp(t)

	admin := testutil.CreateUser(t, app.users, "Ada", "Admin", "ada@test.cd", "", user.RoleAdmin, 0)
	teacher := testutil.CreateUser(t, app.users, "Tina", "Teacher", "tina@test.cd", "", user.RoleTeacher, 5)
	parent := testutil.CreateUser(t, app.users, "Pam", "Parent", "pam@test.cd", "", user.RoleParent, 5)
	pupil := testutil.CreateUser(t, app.users, "Sam", "Student", "sam@test.cd", "", user.RoleStudent, 5)

	testutil.CreateStudent(t, app.students, "Amina", "Okoro", "3", student.StatusEnrolled, 5, parent.ID)
	testutil.CreateStudent(t, app.students, "Brian", "Abara", "4", student.StatusPending, 5)
	testutil.CreateStudent(t, app.students, "Chipo", "Zulu", "3", student.StatusEnrolled, 6)

	listStudents := func(t *testing.T, path string, usr user.User) ([]student.Student, envelope, int) {
		t.Helper()
		rec := app.do(newAuthRequest(http.MethodGet, path, app.getToken(t, usr)))
		if rec.Code != http.StatusOK {
			return nil, envelope{}, rec.Code
		}
		var docs []student.Student
		env := decodeData(t, rec, &docs)
		return docs, env, rec.Code
	}

	t.Run("teacher is scoped to their own school", func(t *testing.T) {
		docs, env, code := listStudents(t, "/api/students", teacher)
		assert.Equal(t, http.StatusOK, code)
		if assert.Len(t, docs, 2) {
			// sorted by last name
			assert.Equal(t, "Abara", docs[0].LastName)
			assert.Equal(t, "Okoro", docs[1].LastName)
		}
		assert.Equal(t, 2, env.Pagination.TotalDocs)
	})

	t.Run("teacher filters by grade and status", func(t *testing.T) {
		docs, _, code := listStudents(t, "/api/students?grade=3&status=ENROLLED", teacher)
		assert.Equal(t, http.StatusOK, code)
		if assert.Len(t, docs, 1) {
			assert.Equal(t, "Amina", docs[0].FirstName)
		}
	})

	t.Run("teacher searches the roster", func(t *testing.T) {
		docs, _, code := listStudents(t, "/api/students?search=ami", teacher)
		assert.Equal(t, http.StatusOK, code)
		assert.Len(t, docs, 1)
	})

	t.Run("parent sees their own children only, filters ignored", func(t *testing.T) {
		docs, _, code := listStudents(t, "/api/students?grade=4", parent)
		assert.Equal(t, http.StatusOK, code)
		if assert.Len(t, docs, 1) {
			assert.Equal(t, "Amina", docs[0].FirstName)
		}
	})

	t.Run("admin must pick a school", func(t *testing.T) {
		rec := app.do(newAuthRequest(http.MethodGet, "/api/students", app.getToken(t, admin)))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "this parameter is required", errorFields(t, rec)["schoolId"])
	})

	t.Run("admin reads any school", func(t *testing.T) {
		docs, _, code := listStudents(t, "/api/students?schoolId=6", admin)
		assert.Equal(t, http.StatusOK, code)
		if assert.Len(t, docs, 1) {
			assert.Equal(t, "Zulu", docs[0].LastName)
		}
	})

	t.Run("bogus schoolId", func(t *testing.T) {
		rec := app.do(newAuthRequest(http.MethodGet, "/api/students?schoolId=abc", app.getToken(t, admin)))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "must be an integer", errorFields(t, rec)["schoolId"])
	})

	t.Run("students may not browse the roster", func(t *testing.T) {
		_, _, code := listStudents(t, "/api/students", pupil)
		assert.Equal(t, http.StatusForbidden, code)
	})

	t.Run("pagination", func(t *testing.T) {
		docs, env, code := listStudents(t, "/api/students?page=1&limit=1", teacher)
		assert.Equal(t, http.StatusOK, code)
		assert.Len(t, docs, 1)
		assert.Equal(t, 2, env.Pagination.TotalDocs)
		assert.Equal(t, 2, env.Pagination.TotalPages)
	})
}

func TestStudentApi_create(t *testing.T) {
	app := newTestApp(t)

	teacher := testutil.CreateUser(t, app.users, "Tina", "Teacher", "tina@test.cd", "", user.RoleTeacher, 5)
	parent := testutil.CreateUser(t, app.users, "Pam", "Parent", "pam@test.cd", "", user.RoleParent, 5)

	newStudent := student.NewStudent{
		FirstName:   "Amina",
		LastName:    "Okoro",
		DateOfBirth: "2018-04-12",
		Grade:       "3",
	}

	t.Run("teacher enrolls a student; school filled from the actor", func(t *testing.T) {
		body := marshallObj(t, newStudent)
		rec := app.do(newAuthRequest(http.MethodPost, "/api/students", app.getToken(t, teacher), body))

		assert.Equal(t, http.StatusCreated, rec.Code)
		var st student.Student
		decodeData(t, rec, &st)
		assert.NotZero(t, st.ID)
		assert.Equal(t, 5, st.School)
		assert.Equal(t, student.StatusPending, st.EnrollmentStatus)
	})

	t.Run("parents may not enroll", func(t *testing.T) {
		body := marshallObj(t, newStudent)
		rec := app.do(newAuthRequest(http.MethodPost, "/api/students", app.getToken(t, parent), body))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("missing fields", func(t *testing.T) {
		rec := app.do(newAuthRequest(http.MethodPost, "/api/students", app.getToken(t, teacher), []byte(`{}`)))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		flds := errorFields(t, rec)
		assert.Equal(t, "this field is required", flds["firstName"])
		assert.Equal(t, "this field is required", flds["dateOfBirth"])
	})

	t.Run("invalid enrollment status", func(t *testing.T) {
		bad := newStudent
		bad.EnrollmentStatus = "LOST"
		rec := app.do(newAuthRequest(http.MethodPost, "/api/students", app.getToken(t, teacher), marshallObj(t, bad)))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, errorFields(t, rec)["enrollmentStatus"], "must be one of")
	})
}
