package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/coursehub/lms-service/internal/models"
	"github.com/coursehub/lms-service/internal/repositories"
)

const gradebookSheet = "Gradebook"

type gradebookService struct {
	repo   repositories.Repository
	logger *slog.Logger
	guard  *accessGuard
}

func NewGradebookService(repo repositories.Repository, logger *slog.Logger) GradebookService {
	return &gradebookService{
		repo:   repo,
		logger: logger,
		guard:  newAccessGuard(repo),
	}
}

// ExportCourseGradebook renders the course's grades as an xlsx grid:
// one row per enrolled student, one column per assignment, plus a
// total column. Only the course teacher exports.
func (s *gradebookService) ExportCourseGradebook(ctx context.Context, actor Actor, courseID uint) (*GradebookExport, error) {
	if err := s.guard.requireCourseOwner(ctx, actor, courseID); err != nil {
		return nil, err
	}

	course, err := s.repo.Course().GetByID(ctx, courseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("course", courseID)
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	assignments, err := s.repo.Assignment().ListByCourse(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}

	enrollments, err := s.repo.Enrollment().ListByCourse(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list roster: %w", err)
	}

	grades, err := s.collectGrades(ctx, assignments)
	if err != nil {
		return nil, err
	}

	content, err := s.renderWorkbook(course, assignments, enrollments, grades)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "gradebook exported",
		"course_id", courseID,
		"students", len(enrollments),
		"assignments", len(assignments))

	return &GradebookExport{
		FileName:    gradebookFileName(course.Title),
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Content:     content,
	}, nil
}

// collectGrades maps (assignment, student) to the recorded grade.
func (s *gradebookService) collectGrades(ctx context.Context, assignments []*models.Assignment) (map[uint]map[string]*float64, error) {
	grades := make(map[uint]map[string]*float64, len(assignments))
	for _, assignment := range assignments {
		submissions, err := s.repo.Submission().ListByAssignment(ctx, assignment.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list submissions for assignment %d: %w", assignment.ID, err)
		}

		byStudent := make(map[string]*float64, len(submissions))
		for _, submission := range submissions {
			byStudent[submission.StudentID] = submission.Grade
		}
		grades[assignment.ID] = byStudent
	}
	return grades, nil
}

func (s *gradebookService) renderWorkbook(course *models.Course, assignments []*models.Assignment, enrollments []*models.Enrollment, grades map[uint]map[string]*float64) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName(f.GetSheetName(0), gradebookSheet)

	headers := []interface{}{"Student", "Email", "Status"}
	for _, assignment := range assignments {
		headers = append(headers, fmt.Sprintf("%s (%d pts)", assignment.Title, assignment.MaxPoints))
	}
	headers = append(headers, "Total", "Percentage")

	if err := f.SetSheetRow(gradebookSheet, "A1", &headers); err != nil {
		return nil, fmt.Errorf("failed to write header row: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"DDEBF7"}, Pattern: 1},
	})
	if err == nil {
		lastCol, _ := excelize.CoordinatesToCellName(len(headers), 1)
		_ = f.SetCellStyle(gradebookSheet, "A1", lastCol, headerStyle)
	}

	maxTotal := 0
	for _, assignment := range assignments {
		maxTotal += assignment.MaxPoints
	}

	for i, enrollment := range enrollments {
		row := []interface{}{
			enrollment.Student.FullName,
			enrollment.Student.Email,
			string(enrollment.Status),
		}

		total := 0.0
		gradedAny := false
		for _, assignment := range assignments {
			grade := grades[assignment.ID][enrollment.StudentID]
			if grade == nil {
				row = append(row, "")
				continue
			}
			row = append(row, *grade)
			total += *grade
			gradedAny = true
		}

		if gradedAny && maxTotal > 0 {
			row = append(row, total, fmt.Sprintf("%.1f%%", total/float64(maxTotal)*100))
		} else {
			row = append(row, "", "")
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("failed to compute cell name: %w", err)
		}
		if err := f.SetSheetRow(gradebookSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write gradebook row: %w", err)
		}
	}

	_ = f.SetColWidth(gradebookSheet, "A", "B", 28)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to render gradebook: %w", err)
	}
	return buf.Bytes(), nil
}

func gradebookFileName(courseTitle string) string {
	slug := strings.ToLower(strings.TrimSpace(courseTitle))
	slug = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r == ' ', r == '-', r == '_':
			return '-'
		default:
			return -1
		}
	}, slug)
	if slug == "" {
		slug = "course"
	}
	return fmt.Sprintf("gradebook-%s-%s.xlsx", slug, time.Now().Format("2006-01-02"))
}
