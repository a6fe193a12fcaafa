package services

import (
	"context"
	"errors"
	"testing"

	"github.com/coursehub/lms-service/internal/events"
	"github.com/coursehub/lms-service/internal/models"
	"github.com/coursehub/lms-service/internal/validator"
)

func newCourseServiceForTest(repo *fakeRepository) (CourseService, *events.MockEventPublisher) {
	publisher := events.NewMockEventPublisher()
	svc := NewCourseService(repo, testLogger(), validator.NewBusinessValidator(), publisher)
	return svc, publisher
}

func TestCourseService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("teacher creates unpublished course", func(t *testing.T) {
		repo := newFakeRepository()
		svc, _ := newCourseServiceForTest(repo)

		course, err := svc.Create(ctx, Actor{ID: "teacher-1", Role: models.RoleTeacher}, &CreateCourseRequest{
			Title:       "Distributed Systems",
			Description: "Consensus, replication, and failure",
			Duration:    12,
		})
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if course.ID == 0 {
			t.Error("expected course to get an id")
		}
		if course.TeacherID != "teacher-1" {
			t.Errorf("expected teacher-1 as owner, got %s", course.TeacherID)
		}
		if course.IsPublished {
			t.Error("new courses must start unpublished")
		}
	})

	t.Run("student cannot create a course", func(t *testing.T) {
		repo := newFakeRepository()
		svc, _ := newCourseServiceForTest(repo)

		_, err := svc.Create(ctx, Actor{ID: "student-1", Role: models.RoleStudent}, &CreateCourseRequest{
			Title:       "Nope",
			Description: "students do not teach",
		})
		if !errors.Is(err, ErrForbidden) {
			t.Errorf("expected ErrForbidden, got %v", err)
		}
	})

	t.Run("missing title fails validation", func(t *testing.T) {
		repo := newFakeRepository()
		svc, _ := newCourseServiceForTest(repo)

		_, err := svc.Create(ctx, Actor{ID: "teacher-1", Role: models.RoleTeacher}, &CreateCourseRequest{
			Description: "no title",
		})
		if !errors.Is(err, ErrValidationFailed) {
			t.Errorf("expected ErrValidationFailed, got %v", err)
		}
	})
}

func TestCourseService_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("unpublished course hidden from students", func(t *testing.T) {
		repo := newFakeRepository()
		svc, _ := newCourseServiceForTest(repo)
		course := repo.seedCourse("teacher-1", false)

		_, err := svc.Get(ctx, Actor{ID: "student-1", Role: models.RoleStudent}, course.ID)
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound for unpublished course, got %v", err)
		}
	})

	t.Run("owner sees own unpublished course", func(t *testing.T) {
		repo := newFakeRepository()
		svc, _ := newCourseServiceForTest(repo)
		course := repo.seedCourse("teacher-1", false)

		got, err := svc.Get(ctx, Actor{ID: "teacher-1", Role: models.RoleTeacher}, course.ID)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got.ID != course.ID {
			t.Errorf("expected course %d, got %d", course.ID, got.ID)
		}
	})

	t.Run("enrollment flag set for students", func(t *testing.T) {
		repo := newFakeRepository()
		svc, _ := newCourseServiceForTest(repo)
		course := repo.seedCourse("teacher-1", true)
		repo.seedEnrollment("student-1", course.ID, models.EnrollmentEnrolled)

		got, err := svc.Get(ctx, Actor{ID: "student-1", Role: models.RoleStudent}, course.ID)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if !got.IsEnrolled {
			t.Error("expected IsEnrolled to be true")
		}
	})
}

func TestCourseService_Enroll(t *testing.T) {
	ctx := context.Background()
	student := Actor{ID: "student-1", Role: models.RoleStudent}

	t.Run("enrolls into published course and publishes event", func(t *testing.T) {
		repo := newFakeRepository()
		svc, publisher := newCourseServiceForTest(repo)
		course := repo.seedCourse("teacher-1", true)

		enrollment, err := svc.Enroll(ctx, student, course.ID)
		if err != nil {
			t.Fatalf("Enroll failed: %v", err)
		}
		if enrollment.Status != models.EnrollmentEnrolled {
			t.Errorf("expected enrolled status, got %s", enrollment.Status)
		}

		published := publisher.Published(events.TopicEnrollmentCreated)
		if len(published) != 1 {
			t.Fatalf("expected 1 enrollment event, got %d", len(published))
		}
	})

	t.Run("unpublished course is not enrollable", func(t *testing.T) {
		repo := newFakeRepository()
		svc, _ := newCourseServiceForTest(repo)
		course := repo.seedCourse("teacher-1", false)

		_, err := svc.Enroll(ctx, student, course.ID)
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("teacher cannot enroll in own course", func(t *testing.T) {
		repo := newFakeRepository()
		svc, _ := newCourseServiceForTest(repo)
		course := repo.seedCourse("teacher-1", true)

		_, err := svc.Enroll(ctx, Actor{ID: "teacher-1", Role: models.RoleTeacher}, course.ID)
		if !errors.Is(err, ErrForbidden) {
			t.Errorf("expected ErrForbidden, got %v", err)
		}
	})

	t.Run("teacher cannot enroll in another teacher's course", func(t *testing.T) {
		repo := newFakeRepository()
		svc, _ := newCourseServiceForTest(repo)
		course := repo.seedCourse("teacher-1", true)

		_, err := svc.Enroll(ctx, Actor{ID: "teacher-2", Role: models.RoleTeacher}, course.ID)
		if !errors.Is(err, ErrForbidden) {
			t.Errorf("expected ErrForbidden, got %v", err)
		}
	})

	t.Run("duplicate enrollment conflicts", func(t *testing.T) {
		repo := newFakeRepository()
		svc, _ := newCourseServiceForTest(repo)
		course := repo.seedCourse("teacher-1", true)
		repo.seedEnrollment(student.ID, course.ID, models.EnrollmentEnrolled)

		_, err := svc.Enroll(ctx, student, course.ID)
		if !errors.Is(err, ErrConflict) {
			t.Errorf("expected ErrConflict, got %v", err)
		}
	})

	t.Run("re-enrolling revives a dropped enrollment", func(t *testing.T) {
		repo := newFakeRepository()
		svc, _ := newCourseServiceForTest(repo)
		course := repo.seedCourse("teacher-1", true)
		dropped := repo.seedEnrollment(student.ID, course.ID, models.EnrollmentDropped)

		enrollment, err := svc.Enroll(ctx, student, course.ID)
		if err != nil {
			t.Fatalf("Enroll failed: %v", err)
		}
		if enrollment.ID != dropped.ID {
			t.Errorf("expected revived enrollment %d, got %d", dropped.ID, enrollment.ID)
		}
		if enrollment.Status != models.EnrollmentEnrolled {
			t.Errorf("expected enrolled status, got %s", enrollment.Status)
		}
	})
}

func TestCourseService_Drop(t *testing.T) {
	ctx := context.Background()
	student := Actor{ID: "student-1", Role: models.RoleStudent}

	t.Run("drops an active enrollment", func(t *testing.T) {
		repo := newFakeRepository()
		svc, _ := newCourseServiceForTest(repo)
		course := repo.seedCourse("teacher-1", true)
		repo.seedEnrollment(student.ID, course.ID, models.EnrollmentEnrolled)

		if err := svc.Drop(ctx, student, course.ID); err != nil {
			t.Fatalf("Drop failed: %v", err)
		}

		enrollment, err := repo.Enrollment().GetByStudentAndCourse(ctx, student.ID, course.ID)
		if err != nil {
			t.Fatalf("enrollment lookup failed: %v", err)
		}
		if enrollment.Status != models.EnrollmentDropped {
			t.Errorf("expected dropped status, got %s", enrollment.Status)
		}
	})

	t.Run("dropping without an enrollment fails", func(t *testing.T) {
		repo := newFakeRepository()
		svc, _ := newCourseServiceForTest(repo)
		course := repo.seedCourse("teacher-1", true)

		err := svc.Drop(ctx, student, course.ID)
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("dropping twice conflicts", func(t *testing.T) {
		repo := newFakeRepository()
		svc, _ := newCourseServiceForTest(repo)
		course := repo.seedCourse("teacher-1", true)
		repo.seedEnrollment(student.ID, course.ID, models.EnrollmentDropped)

		err := svc.Drop(ctx, student, course.ID)
		if !errors.Is(err, ErrConflict) {
			t.Errorf("expected ErrConflict, got %v", err)
		}
	})
}

func TestCourseService_Delete(t *testing.T) {
	ctx := context.Background()
	teacher := Actor{ID: "teacher-1", Role: models.RoleTeacher}

	t.Run("blocked while enrollments are active", func(t *testing.T) {
		repo := newFakeRepository()
		svc, _ := newCourseServiceForTest(repo)
		course := repo.seedCourse(teacher.ID, true)
		repo.seedEnrollment("student-1", course.ID, models.EnrollmentEnrolled)

		err := svc.Delete(ctx, teacher, course.ID)
		if !errors.Is(err, ErrConflict) {
			t.Errorf("expected ErrConflict, got %v", err)
		}
	})

	t.Run("deletes once enrollments are dropped", func(t *testing.T) {
		repo := newFakeRepository()
		svc, _ := newCourseServiceForTest(repo)
		course := repo.seedCourse(teacher.ID, true)
		repo.seedEnrollment("student-1", course.ID, models.EnrollmentDropped)

		if err := svc.Delete(ctx, teacher, course.ID); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
	})

	t.Run("non-owner teacher is denied", func(t *testing.T) {
		repo := newFakeRepository()
		svc, _ := newCourseServiceForTest(repo)
		course := repo.seedCourse(teacher.ID, true)

		err := svc.Delete(ctx, Actor{ID: "teacher-2", Role: models.RoleTeacher}, course.ID)
		if !errors.Is(err, ErrForbidden) {
			t.Errorf("expected ErrForbidden, got %v", err)
		}
	})
}

func TestCourseService_List(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepository()
	svc, _ := newCourseServiceForTest(repo)
	repo.seedCourse("teacher-1", true)
	repo.seedCourse("teacher-1", false)

	t.Run("students see only published courses", func(t *testing.T) {
		resp, err := svc.List(ctx, Actor{ID: "student-1", Role: models.RoleStudent}, 1, 20)
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(resp.Courses) != 1 {
			t.Errorf("expected 1 published course, got %d", len(resp.Courses))
		}
	})

	t.Run("teachers see their own courses including drafts", func(t *testing.T) {
		resp, err := svc.List(ctx, Actor{ID: "teacher-1", Role: models.RoleTeacher}, 1, 20)
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(resp.Courses) != 2 {
			t.Errorf("expected 2 courses, got %d", len(resp.Courses))
		}
	})

	t.Run("page defaults are clamped", func(t *testing.T) {
		resp, err := svc.List(ctx, Actor{ID: "student-1", Role: models.RoleStudent}, 0, -5)
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if resp.Page != 1 || resp.Size != 20 {
			t.Errorf("expected page=1 size=20, got page=%d size=%d", resp.Page, resp.Size)
		}
	})
}
