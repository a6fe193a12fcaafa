package services

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/coursehub/lms-service/internal/models"
	"github.com/coursehub/lms-service/internal/repositories"
)

// fakeRepository is an in-memory Repository used by the service tests.
// Each sub-repository stores rows in maps guarded by one shared mutex.
type fakeRepository struct {
	mu sync.Mutex

	courses     map[uint]*models.Course
	enrollments map[uint]*models.Enrollment
	assignments map[uint]*models.Assignment
	submissions map[uint]*models.Submission
	categories  map[uint]*models.ForumCategory
	threads     map[uint]*models.ForumThread
	posts       map[uint]*models.ForumPost
	reactions   map[uint]*models.ForumReaction
	users       map[string]*models.User

	nextID uint
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		courses:     make(map[uint]*models.Course),
		enrollments: make(map[uint]*models.Enrollment),
		assignments: make(map[uint]*models.Assignment),
		submissions: make(map[uint]*models.Submission),
		categories:  make(map[uint]*models.ForumCategory),
		threads:     make(map[uint]*models.ForumThread),
		posts:       make(map[uint]*models.ForumPost),
		reactions:   make(map[uint]*models.ForumReaction),
		users:       make(map[string]*models.User),
	}
}

func (r *fakeRepository) allocID() uint {
	r.nextID++
	return r.nextID
}

func (r *fakeRepository) Course() repositories.CourseRepository        { return &fakeCourseRepo{r} }
func (r *fakeRepository) Enrollment() repositories.EnrollmentRepository {
	return &fakeEnrollmentRepo{r}
}
func (r *fakeRepository) Assignment() repositories.AssignmentRepository {
	return &fakeAssignmentRepo{r}
}
func (r *fakeRepository) Submission() repositories.SubmissionRepository {
	return &fakeSubmissionRepo{r}
}
func (r *fakeRepository) ForumCategory() repositories.ForumCategoryRepository {
	return &fakeCategoryRepo{r}
}
func (r *fakeRepository) ForumThread() repositories.ForumThreadRepository {
	return &fakeThreadRepo{r}
}
func (r *fakeRepository) ForumPost() repositories.ForumPostRepository { return &fakePostRepo{r} }
func (r *fakeRepository) ForumReaction() repositories.ForumReactionRepository {
	return &fakeReactionRepo{r}
}
func (r *fakeRepository) User() repositories.UserRepository { return &fakeUserRepo{r} }

func (r *fakeRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(r)
}

func (r *fakeRepository) Ping(context.Context) error { return nil }
func (r *fakeRepository) Close() error               { return nil }

// ===== seeding helpers =====

func (r *fakeRepository) seedCourse(teacherID string, published bool) *models.Course {
	r.mu.Lock()
	defer r.mu.Unlock()
	course := &models.Course{
		ID:          r.allocID(),
		Title:       "Course",
		Description: "description",
		TeacherID:   teacherID,
		IsPublished: published,
		CreatedAt:   time.Now(),
	}
	r.courses[course.ID] = course
	return course
}

func (r *fakeRepository) seedEnrollment(studentID string, courseID uint, status models.EnrollmentStatus) *models.Enrollment {
	r.mu.Lock()
	defer r.mu.Unlock()
	enrollment := &models.Enrollment{
		ID:         r.allocID(),
		StudentID:  studentID,
		CourseID:   courseID,
		EnrolledAt: time.Now(),
		Status:     status,
	}
	r.enrollments[enrollment.ID] = enrollment
	return enrollment
}

func (r *fakeRepository) seedAssignment(courseID uint, maxPoints int, dueDate *time.Time) *models.Assignment {
	r.mu.Lock()
	defer r.mu.Unlock()
	assignment := &models.Assignment{
		ID:        r.allocID(),
		CourseID:  courseID,
		Title:     "Assignment",
		MaxPoints: maxPoints,
		DueDate:   dueDate,
		Type:      models.AssignmentHomework,
	}
	r.assignments[assignment.ID] = assignment
	return assignment
}

func (r *fakeRepository) seedCategory(courseID uint, title string) *models.ForumCategory {
	r.mu.Lock()
	defer r.mu.Unlock()
	category := &models.ForumCategory{
		ID:       r.allocID(),
		CourseID: courseID,
		Title:    title,
	}
	r.categories[category.ID] = category
	return category
}

func (r *fakeRepository) seedThread(categoryID uint, authorID string) *models.ForumThread {
	r.mu.Lock()
	defer r.mu.Unlock()
	thread := &models.ForumThread{
		ID:         r.allocID(),
		CategoryID: categoryID,
		AuthorID:   authorID,
		Title:      "Thread",
		Content:    "content",
		CreatedAt:  time.Now(),
	}
	if category, ok := r.categories[categoryID]; ok {
		thread.Category = *category
	}
	r.threads[thread.ID] = thread
	return thread
}

// ===== course repo =====

type fakeCourseRepo struct{ r *fakeRepository }

func (f *fakeCourseRepo) Create(_ context.Context, course *models.Course) error {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	course.ID = f.r.allocID()
	course.CreatedAt = time.Now()
	f.r.courses[course.ID] = course
	return nil
}

func (f *fakeCourseRepo) GetByID(_ context.Context, id uint) (*models.Course, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	course, ok := f.r.courses[id]
	if !ok {
		return nil, repositories.NewNotFoundError("course", id)
	}
	copied := *course
	return &copied, nil
}

func (f *fakeCourseRepo) GetByIDWithTeacher(ctx context.Context, id uint) (*models.Course, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeCourseRepo) List(_ context.Context, filters repositories.CourseFilters) ([]*models.Course, int64, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	var out []*models.Course
	for _, course := range f.r.courses {
		if filters.TeacherID != nil && course.TeacherID != *filters.TeacherID {
			continue
		}
		if filters.IsPublished != nil && course.IsPublished != *filters.IsPublished {
			continue
		}
		copied := *course
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (f *fakeCourseRepo) Update(_ context.Context, id uint, updates map[string]interface{}) error {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	course, ok := f.r.courses[id]
	if !ok {
		return repositories.NewNotFoundError("course", id)
	}
	if v, ok := updates["title"]; ok {
		course.Title = v.(string)
	}
	if v, ok := updates["description"]; ok {
		course.Description = v.(string)
	}
	if v, ok := updates["duration"]; ok {
		course.Duration = v.(int)
	}
	if v, ok := updates["is_published"]; ok {
		course.IsPublished = v.(bool)
	}
	return nil
}

func (f *fakeCourseRepo) Delete(_ context.Context, id uint) error {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	if _, ok := f.r.courses[id]; !ok {
		return repositories.NewNotFoundError("course", id)
	}
	delete(f.r.courses, id)
	return nil
}

func (f *fakeCourseRepo) ExistsOwnedBy(_ context.Context, courseID uint, teacherID string) (bool, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	course, ok := f.r.courses[courseID]
	return ok && course.TeacherID == teacherID, nil
}

// ===== enrollment repo =====

type fakeEnrollmentRepo struct{ r *fakeRepository }

func (f *fakeEnrollmentRepo) Create(_ context.Context, enrollment *models.Enrollment) error {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	for _, existing := range f.r.enrollments {
		if existing.StudentID == enrollment.StudentID && existing.CourseID == enrollment.CourseID {
			return gormDuplicateErr{}
		}
	}
	enrollment.ID = f.r.allocID()
	f.r.enrollments[enrollment.ID] = enrollment
	return nil
}

func (f *fakeEnrollmentRepo) GetByStudentAndCourse(_ context.Context, studentID string, courseID uint) (*models.Enrollment, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	for _, enrollment := range f.r.enrollments {
		if enrollment.StudentID == studentID && enrollment.CourseID == courseID {
			copied := *enrollment
			return &copied, nil
		}
	}
	return nil, repositories.NewNotFoundError("enrollment", courseID)
}

func (f *fakeEnrollmentRepo) ListByStudent(_ context.Context, studentID string) ([]*models.Enrollment, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	var out []*models.Enrollment
	for _, enrollment := range f.r.enrollments {
		if enrollment.StudentID == studentID {
			copied := *enrollment
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeEnrollmentRepo) ListByCourse(_ context.Context, courseID uint) ([]*models.Enrollment, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	var out []*models.Enrollment
	for _, enrollment := range f.r.enrollments {
		if enrollment.CourseID == courseID {
			copied := *enrollment
			if user, ok := f.r.users[enrollment.StudentID]; ok {
				copied.Student = *user
			}
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeEnrollmentRepo) UpdateStatus(_ context.Context, id uint, status models.EnrollmentStatus) error {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	enrollment, ok := f.r.enrollments[id]
	if !ok {
		return repositories.NewNotFoundError("enrollment", id)
	}
	enrollment.Status = status
	return nil
}

func (f *fakeEnrollmentRepo) Exists(_ context.Context, studentID string, courseID uint) (bool, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	for _, enrollment := range f.r.enrollments {
		if enrollment.StudentID == studentID && enrollment.CourseID == courseID && enrollment.Status == models.EnrollmentEnrolled {
			return true, nil
		}
	}
	return false, nil
}

// gormDuplicateErr mimics the driver's unique violation text.
type gormDuplicateErr struct{}

func (gormDuplicateErr) Error() string {
	return `duplicate key value violates unique constraint (SQLSTATE 23505)`
}

// ===== assignment repo =====

type fakeAssignmentRepo struct{ r *fakeRepository }

func (f *fakeAssignmentRepo) Create(_ context.Context, assignment *models.Assignment) error {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	assignment.ID = f.r.allocID()
	f.r.assignments[assignment.ID] = assignment
	return nil
}

func (f *fakeAssignmentRepo) GetByID(_ context.Context, id uint) (*models.Assignment, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	assignment, ok := f.r.assignments[id]
	if !ok {
		return nil, repositories.NewNotFoundError("assignment", id)
	}
	copied := *assignment
	return &copied, nil
}

func (f *fakeAssignmentRepo) GetByIDWithCourse(_ context.Context, id uint) (*models.Assignment, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	assignment, ok := f.r.assignments[id]
	if !ok {
		return nil, repositories.NewNotFoundError("assignment", id)
	}
	copied := *assignment
	if course, ok := f.r.courses[assignment.CourseID]; ok {
		copied.Course = *course
	}
	return &copied, nil
}

func (f *fakeAssignmentRepo) ListByCourse(_ context.Context, courseID uint) ([]*models.Assignment, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	var out []*models.Assignment
	for _, assignment := range f.r.assignments {
		if assignment.CourseID == courseID {
			copied := *assignment
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeAssignmentRepo) ListForStudent(_ context.Context, studentID string) ([]*repositories.StudentAssignmentRow, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	var out []*repositories.StudentAssignmentRow
	for _, assignment := range f.r.assignments {
		enrolled := false
		for _, enrollment := range f.r.enrollments {
			if enrollment.StudentID == studentID && enrollment.CourseID == assignment.CourseID && enrollment.Status == models.EnrollmentEnrolled {
				enrolled = true
				break
			}
		}
		if !enrolled {
			continue
		}
		row := &repositories.StudentAssignmentRow{Assignment: *assignment}
		for _, submission := range f.r.submissions {
			if submission.AssignmentID == assignment.ID && submission.StudentID == studentID {
				row.HasSubmitted = true
				row.Grade = submission.Grade
				submittedAt := submission.SubmittedAt
				row.SubmittedAt = &submittedAt
			}
		}
		out = append(out, row)
	}
	return out, nil
}

func (f *fakeAssignmentRepo) Update(_ context.Context, id uint, updates map[string]interface{}) error {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	assignment, ok := f.r.assignments[id]
	if !ok {
		return repositories.NewNotFoundError("assignment", id)
	}
	if v, ok := updates["title"]; ok {
		assignment.Title = v.(string)
	}
	if v, ok := updates["max_points"]; ok {
		assignment.MaxPoints = v.(int)
	}
	return nil
}

func (f *fakeAssignmentRepo) Delete(_ context.Context, id uint) error {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	if _, ok := f.r.assignments[id]; !ok {
		return repositories.NewNotFoundError("assignment", id)
	}
	delete(f.r.assignments, id)
	return nil
}

// ===== submission repo =====

type fakeSubmissionRepo struct{ r *fakeRepository }

func (f *fakeSubmissionRepo) Create(_ context.Context, submission *models.Submission) error {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	for _, existing := range f.r.submissions {
		if existing.AssignmentID == submission.AssignmentID && existing.StudentID == submission.StudentID {
			return gormDuplicateErr{}
		}
	}
	submission.ID = f.r.allocID()
	f.r.submissions[submission.ID] = submission
	return nil
}

func (f *fakeSubmissionRepo) GetByID(_ context.Context, id uint) (*models.Submission, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	submission, ok := f.r.submissions[id]
	if !ok {
		return nil, repositories.NewNotFoundError("submission", id)
	}
	copied := *submission
	return &copied, nil
}

func (f *fakeSubmissionRepo) GetByIDWithDetails(_ context.Context, id uint) (*models.Submission, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	submission, ok := f.r.submissions[id]
	if !ok {
		return nil, repositories.NewNotFoundError("submission", id)
	}
	copied := *submission
	if assignment, ok := f.r.assignments[submission.AssignmentID]; ok {
		copied.Assignment = *assignment
	}
	return &copied, nil
}

func (f *fakeSubmissionRepo) GetByAssignmentAndStudent(_ context.Context, assignmentID uint, studentID string) (*models.Submission, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	for _, submission := range f.r.submissions {
		if submission.AssignmentID == assignmentID && submission.StudentID == studentID {
			copied := *submission
			return &copied, nil
		}
	}
	return nil, repositories.NewNotFoundError("submission", assignmentID)
}

func (f *fakeSubmissionRepo) ListByAssignment(_ context.Context, assignmentID uint) ([]*models.Submission, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	var out []*models.Submission
	for _, submission := range f.r.submissions {
		if submission.AssignmentID == assignmentID {
			copied := *submission
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeSubmissionRepo) ListByStudent(_ context.Context, studentID string) ([]*models.Submission, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	var out []*models.Submission
	for _, submission := range f.r.submissions {
		if submission.StudentID == studentID {
			copied := *submission
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeSubmissionRepo) Grade(_ context.Context, id uint, grade float64, feedback *string, gradedBy string) error {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	submission, ok := f.r.submissions[id]
	if !ok {
		return repositories.NewNotFoundError("submission", id)
	}
	now := time.Now()
	submission.Grade = &grade
	submission.Feedback = feedback
	submission.GradedBy = &gradedBy
	submission.GradedAt = &now
	submission.Status = models.SubmissionGraded
	return nil
}

func (f *fakeSubmissionRepo) GradeStats(_ context.Context, studentID string) (*repositories.GradeStats, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()

	stats := &repositories.GradeStats{}
	var gradedPctSum float64

	for _, assignment := range f.r.assignments {
		course, ok := f.r.courses[assignment.CourseID]
		if !ok || !course.IsPublished {
			continue
		}

		enrolled := false
		for _, enrollment := range f.r.enrollments {
			if enrollment.CourseID == assignment.CourseID &&
				enrollment.StudentID == studentID &&
				enrollment.Status == models.EnrollmentEnrolled {
				enrolled = true
				break
			}
		}
		if !enrolled {
			continue
		}
		stats.TotalAssignments++

		for _, submission := range f.r.submissions {
			if submission.AssignmentID != assignment.ID || submission.StudentID != studentID {
				continue
			}
			stats.SubmittedCount++
			if submission.Grade != nil {
				stats.GradedCount++
				stats.TotalPossiblePoints += float64(assignment.MaxPoints)
				stats.TotalEarnedPoints += *submission.Grade
				gradedPctSum += *submission.Grade / float64(assignment.MaxPoints) * 100
			}
			break
		}
	}

	if stats.GradedCount > 0 {
		stats.AverageGrade = int(math.Round(gradedPctSum / float64(stats.GradedCount)))
	}
	if stats.TotalPossiblePoints > 0 {
		stats.OverallPercentage = int(math.Round(stats.TotalEarnedPoints / stats.TotalPossiblePoints * 100))
	}

	return stats, nil
}

// ===== forum category repo =====

type fakeCategoryRepo struct{ r *fakeRepository }

func (f *fakeCategoryRepo) CreateBatch(_ context.Context, categories []*models.ForumCategory) error {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	for _, category := range categories {
		category.ID = f.r.allocID()
		f.r.categories[category.ID] = category
	}
	return nil
}

func (f *fakeCategoryRepo) GetByID(_ context.Context, id uint) (*models.ForumCategory, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	category, ok := f.r.categories[id]
	if !ok {
		return nil, repositories.NewNotFoundError("category", id)
	}
	copied := *category
	return &copied, nil
}

func (f *fakeCategoryRepo) ListByCourse(_ context.Context, courseID uint) ([]*models.ForumCategory, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	var out []*models.ForumCategory
	for _, category := range f.r.categories {
		if category.CourseID == courseID {
			copied := *category
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeCategoryRepo) CountByCourse(_ context.Context, courseID uint) (int64, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	var count int64
	for _, category := range f.r.categories {
		if category.CourseID == courseID {
			count++
		}
	}
	return count, nil
}

// ===== forum thread repo =====

type fakeThreadRepo struct{ r *fakeRepository }

func (f *fakeThreadRepo) Create(_ context.Context, thread *models.ForumThread) error {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	thread.ID = f.r.allocID()
	thread.CreatedAt = time.Now()
	f.r.threads[thread.ID] = thread
	return nil
}

func (f *fakeThreadRepo) GetByID(_ context.Context, id uint) (*models.ForumThread, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	thread, ok := f.r.threads[id]
	if !ok {
		return nil, repositories.NewNotFoundError("thread", id)
	}
	copied := *thread
	if category, ok := f.r.categories[thread.CategoryID]; ok {
		copied.Category = *category
	}
	return &copied, nil
}

func (f *fakeThreadRepo) ListByCategory(_ context.Context, categoryID uint, filters repositories.ThreadFilters) ([]*models.ForumThread, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	var out []*models.ForumThread
	for _, thread := range f.r.threads {
		if thread.CategoryID == categoryID {
			copied := *thread
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsPinned != out[j].IsPinned {
			return out[i].IsPinned
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (f *fakeThreadRepo) Search(_ context.Context, courseID uint, query string) ([]*models.ForumThread, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	lowered := strings.ToLower(query)
	var out []*models.ForumThread
	for _, thread := range f.r.threads {
		category, ok := f.r.categories[thread.CategoryID]
		if !ok || category.CourseID != courseID {
			continue
		}
		if strings.Contains(strings.ToLower(thread.Title), lowered) ||
			strings.Contains(strings.ToLower(thread.Content), lowered) {
			copied := *thread
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeThreadRepo) IncrementViewCount(_ context.Context, id uint) error {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	thread, ok := f.r.threads[id]
	if !ok {
		return repositories.NewNotFoundError("thread", id)
	}
	thread.ViewCount++
	return nil
}

func (f *fakeThreadRepo) IncrementReplyCount(_ context.Context, id uint, repliedAt time.Time) error {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	thread, ok := f.r.threads[id]
	if !ok {
		return repositories.NewNotFoundError("thread", id)
	}
	thread.ReplyCount++
	thread.LastReplyAt = &repliedAt
	return nil
}

func (f *fakeThreadRepo) SetPinned(_ context.Context, id uint, pinned bool) error {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	thread, ok := f.r.threads[id]
	if !ok {
		return repositories.NewNotFoundError("thread", id)
	}
	thread.IsPinned = pinned
	return nil
}

func (f *fakeThreadRepo) SetLocked(_ context.Context, id uint, locked bool) error {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	thread, ok := f.r.threads[id]
	if !ok {
		return repositories.NewNotFoundError("thread", id)
	}
	thread.IsLocked = locked
	return nil
}

// ===== forum post repo =====

type fakePostRepo struct{ r *fakeRepository }

func (f *fakePostRepo) Create(_ context.Context, post *models.ForumPost) error {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	post.ID = f.r.allocID()
	post.CreatedAt = time.Now()
	f.r.posts[post.ID] = post
	return nil
}

func (f *fakePostRepo) GetByID(_ context.Context, id uint) (*models.ForumPost, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	post, ok := f.r.posts[id]
	if !ok {
		return nil, repositories.NewNotFoundError("post", id)
	}
	copied := *post
	return &copied, nil
}

func (f *fakePostRepo) GetByIDWithThread(_ context.Context, id uint) (*models.ForumPost, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	post, ok := f.r.posts[id]
	if !ok {
		return nil, repositories.NewNotFoundError("post", id)
	}
	copied := *post
	if thread, ok := f.r.threads[post.ThreadID]; ok {
		copied.Thread = *thread
		if category, ok := f.r.categories[thread.CategoryID]; ok {
			copied.Thread.Category = *category
		}
	}
	return &copied, nil
}

func (f *fakePostRepo) ListTopLevel(_ context.Context, threadID uint) ([]*models.ForumPost, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	var out []*models.ForumPost
	for _, post := range f.r.posts {
		if post.ThreadID == threadID && post.ParentID == nil {
			copied := *post
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakePostRepo) ListReplies(_ context.Context, parentID uint) ([]*models.ForumPost, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	var out []*models.ForumPost
	for _, post := range f.r.posts {
		if post.ParentID != nil && *post.ParentID == parentID {
			copied := *post
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakePostRepo) CountByThread(_ context.Context, threadID uint) (int64, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	var count int64
	for _, post := range f.r.posts {
		if post.ThreadID == threadID {
			count++
		}
	}
	return count, nil
}

func (f *fakePostRepo) SetAnswer(_ context.Context, id uint, isAnswer bool) error {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	post, ok := f.r.posts[id]
	if !ok {
		return repositories.NewNotFoundError("post", id)
	}
	post.IsAnswer = isAnswer
	return nil
}

// ===== forum reaction repo =====

type fakeReactionRepo struct{ r *fakeRepository }

func (f *fakeReactionRepo) Upsert(_ context.Context, reaction *models.ForumReaction) error {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	for _, existing := range f.r.reactions {
		if existing.PostID == reaction.PostID && existing.UserID == reaction.UserID {
			existing.ReactionType = reaction.ReactionType
			reaction.ID = existing.ID
			return nil
		}
	}
	reaction.ID = f.r.allocID()
	f.r.reactions[reaction.ID] = reaction
	return nil
}

func (f *fakeReactionRepo) Delete(_ context.Context, postID uint, userID string) error {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	for id, reaction := range f.r.reactions {
		if reaction.PostID == postID && reaction.UserID == userID {
			delete(f.r.reactions, id)
			return nil
		}
	}
	return repositories.NewNotFoundError("reaction", postID)
}

func (f *fakeReactionRepo) ListByPost(_ context.Context, postID uint) ([]*models.ForumReaction, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	var out []*models.ForumReaction
	for _, reaction := range f.r.reactions {
		if reaction.PostID == postID {
			copied := *reaction
			out = append(out, &copied)
		}
	}
	return out, nil
}

// ===== user repo =====

type fakeUserRepo struct{ r *fakeRepository }

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	user, ok := f.r.users[id]
	if !ok {
		return nil, repositories.NewNotFoundError("user", id)
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	for _, user := range f.r.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, repositories.NewNotFoundError("user", email)
}

func (f *fakeUserRepo) List(_ context.Context, filters repositories.UserFilters) ([]*models.User, int64, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	var out []*models.User
	for _, user := range f.r.users {
		copied := *user
		out = append(out, &copied)
	}
	return out, int64(len(out)), nil
}

func (f *fakeUserRepo) ExistsByID(_ context.Context, id string) (bool, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	_, ok := f.r.users[id]
	return ok, nil
}

func (f *fakeUserRepo) HasRole(_ context.Context, id string, role models.UserRole) (bool, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	user, ok := f.r.users[id]
	return ok && user.Role == role, nil
}

func (f *fakeUserRepo) Mirror(_ context.Context, user *models.User) error {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	copied := *user
	f.r.users[user.ID] = &copied
	return nil
}

// ===== shared test wiring =====

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
