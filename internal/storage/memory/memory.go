package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/app_errors"
	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/models"
)

// Storage is the in-process data set the demo API runs on. Every repository
// interface of the services is implemented here.
type Storage struct {
	mu          sync.RWMutex
	users       map[uuid.UUID]models.User
	courses     map[uuid.UUID]models.Course
	quizzes     map[uuid.UUID]models.Quiz
	questions   map[uuid.UUID][]models.Question
	submissions map[uuid.UUID]models.Submission
	enrollments map[uuid.UUID]models.Enrollment
	materials   map[uuid.UUID]models.CourseMaterial
}

func New() *Storage {
	return &Storage{
		users:       make(map[uuid.UUID]models.User),
		courses:     make(map[uuid.UUID]models.Course),
		quizzes:     make(map[uuid.UUID]models.Quiz),
		questions:   make(map[uuid.UUID][]models.Question),
		submissions: make(map[uuid.UUID]models.Submission),
		enrollments: make(map[uuid.UUID]models.Enrollment),
		materials:   make(map[uuid.UUID]models.CourseMaterial),
	}
}

func (s *Storage) CreateUser(ctx context.Context, user models.User) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, user.Email) {
			return nil, app_errors.ErrUserExists
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	s.users[user.ID] = user
	return &user, nil
}

func (s *Storage) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, app_errors.ErrUserNotFound
}

func (s *Storage) UserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, app_errors.ErrUserNotFound
	}
	return &u, nil
}

func (s *Storage) NewCourse(ctx context.Context, course *models.Course) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.courses {
		if c.JoinCode == course.JoinCode {
			return fmt.Errorf("join code %s is taken", course.JoinCode)
		}
	}
	s.courses[course.ID] = *course
	return nil
}

func (s *Storage) CourseByID(ctx context.Context, id uuid.UUID) (*models.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.courses[id]
	if !ok {
		return nil, app_errors.ErrCourseNotFound
	}
	return &c, nil
}

func (s *Storage) CourseByJoinCode(ctx context.Context, code string) (*models.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.courses {
		if c.JoinCode == code {
			return &c, nil
		}
	}
	return nil, app_errors.ErrJoinCodeNotFound
}

func (s *Storage) UpdateCourse(ctx context.Context, course *models.Course) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.courses[course.ID]; !ok {
		return app_errors.ErrCourseNotFound
	}
	s.courses[course.ID] = *course
	return nil
}

// DeleteCourse drops the course with its quizzes, materials and enrollments.
func (s *Storage) DeleteCourse(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.courses[id]; !ok {
		return app_errors.ErrCourseNotFound
	}
	delete(s.courses, id)
	for qid, q := range s.quizzes {
		if q.CourseID == id {
			s.deleteQuizLocked(qid)
		}
	}
	for mid, m := range s.materials {
		if m.CourseID == id {
			delete(s.materials, mid)
		}
	}
	for eid, e := range s.enrollments {
		if e.CourseID == id {
			delete(s.enrollments, eid)
		}
	}
	return nil
}

func (s *Storage) ListCourses(ctx context.Context) ([]models.Course, error) {
	return s.filterCourses(func(models.Course) bool { return true }), nil
}

func (s *Storage) CoursesByTeacher(ctx context.Context, teacherID uuid.UUID) ([]models.Course, error) {
	return s.filterCourses(func(c models.Course) bool { return c.TeacherID == teacherID }), nil
}

// CoursesByIDs keeps the order of ids and skips the unknown ones.
func (s *Storage) CoursesByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Course, 0, len(ids))
	for _, id := range ids {
		if c, ok := s.courses[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *Storage) filterCourses(keep func(models.Course) bool) []models.Course {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Course, 0)
	for _, c := range s.courses {
		if keep(c) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (s *Storage) NewQuiz(ctx context.Context, quiz *models.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.courses[quiz.CourseID]; !ok {
		return app_errors.ErrCourseNotFound
	}
	s.quizzes[quiz.ID] = *quiz
	return nil
}

func (s *Storage) QuizByID(ctx context.Context, id uuid.UUID) (*models.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.quizzes[id]
	if !ok {
		return nil, app_errors.ErrQuizNotFound
	}
	return &q, nil
}

func (s *Storage) QuizzesByCourse(ctx context.Context, courseID uuid.UUID) ([]models.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Quiz, 0)
	for _, q := range s.quizzes {
		if q.CourseID == courseID {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Storage) DeleteQuiz(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quizzes[id]; !ok {
		return app_errors.ErrQuizNotFound
	}
	s.deleteQuizLocked(id)
	return nil
}

func (s *Storage) deleteQuizLocked(id uuid.UUID) {
	delete(s.quizzes, id)
	delete(s.questions, id)
	for sid, sub := range s.submissions {
		if sub.QuizID == id {
			delete(s.submissions, sid)
		}
	}
}

func (s *Storage) AddQuestion(ctx context.Context, question *models.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quizzes[question.QuizID]; !ok {
		return app_errors.ErrQuizNotFound
	}
	s.questions[question.QuizID] = append(s.questions[question.QuizID], copyQuestion(*question))
	return nil
}

func (s *Storage) QuestionsByQuiz(ctx context.Context, quizID uuid.UUID) ([]models.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := s.questions[quizID]
	out := make([]models.Question, len(list))
	for i, q := range list {
		out[i] = copyQuestion(q)
	}
	return out, nil
}

func copyQuestion(q models.Question) models.Question {
	answers := make([]models.Answer, len(q.Answers))
	for i, a := range q.Answers {
		if a.IsCorrect != nil {
			v := *a.IsCorrect
			a.IsCorrect = &v
		}
		answers[i] = a
	}
	q.Answers = answers
	return q
}

func (s *Storage) NewSubmission(ctx context.Context, sub *models.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *sub
	cp.Answers = append([]models.SelectedAnswer(nil), sub.Answers...)
	s.submissions[sub.ID] = cp
	return nil
}

func (s *Storage) SubmissionByID(ctx context.Context, id uuid.UUID) (*models.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.submissions[id]
	if !ok {
		return nil, app_errors.ErrSubmissionNotFound
	}
	return &sub, nil
}

func (s *Storage) SubmissionsByQuiz(ctx context.Context, quizID uuid.UUID) ([]models.Submission, error) {
	return s.filterSubmissions(func(sub models.Submission) bool { return sub.QuizID == quizID }), nil
}

func (s *Storage) SubmissionsByStudent(ctx context.Context, studentID uuid.UUID) ([]models.Submission, error) {
	return s.filterSubmissions(func(sub models.Submission) bool { return sub.StudentID == studentID }), nil
}

func (s *Storage) filterSubmissions(keep func(models.Submission) bool) []models.Submission {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Submission, 0)
	for _, sub := range s.submissions {
		if keep(sub) {
			sub.Answers = append([]models.SelectedAnswer(nil), sub.Answers...)
			out = append(out, sub)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.Before(out[j].SubmittedAt) })
	return out
}

func (s *Storage) Enroll(ctx context.Context, e *models.Enrollment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.courses[e.CourseID]; !ok {
		return app_errors.ErrCourseNotFound
	}
	for _, existing := range s.enrollments {
		if existing.CourseID == e.CourseID && existing.StudentID == e.StudentID {
			return app_errors.ErrAlreadyEnrolled
		}
	}
	s.enrollments[e.ID] = *e
	return nil
}

func (s *Storage) IsEnrolled(ctx context.Context, courseID, studentID uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.enrollments {
		if e.CourseID == courseID && e.StudentID == studentID {
			return true, nil
		}
	}
	return false, nil
}

func (s *Storage) EnrollmentsByStudent(ctx context.Context, studentID uuid.UUID) ([]models.Enrollment, error) {
	return s.filterEnrollments(func(e models.Enrollment) bool { return e.StudentID == studentID }), nil
}

func (s *Storage) EnrollmentsByCourse(ctx context.Context, courseID uuid.UUID) ([]models.Enrollment, error) {
	return s.filterEnrollments(func(e models.Enrollment) bool { return e.CourseID == courseID }), nil
}

func (s *Storage) filterEnrollments(keep func(models.Enrollment) bool) []models.Enrollment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Enrollment, 0)
	for _, e := range s.enrollments {
		if keep(e) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EnrolledAt.Before(out[j].EnrolledAt) })
	return out
}

func (s *Storage) NewMaterial(ctx context.Context, m *models.CourseMaterial) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.courses[m.CourseID]; !ok {
		return app_errors.ErrCourseNotFound
	}
	s.materials[m.ID] = *m
	return nil
}

func (s *Storage) MaterialByID(ctx context.Context, id uuid.UUID) (*models.CourseMaterial, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.materials[id]
	if !ok {
		return nil, app_errors.ErrMaterialNotFound
	}
	return &m, nil
}

func (s *Storage) MaterialsByCourse(ctx context.Context, courseID uuid.UUID) ([]models.CourseMaterial, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.CourseMaterial, 0)
	for _, m := range s.materials {
		if m.CourseID == courseID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Storage) DeleteMaterial(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.materials[id]; !ok {
		return app_errors.ErrMaterialNotFound
	}
	delete(s.materials, id)
	return nil
}
