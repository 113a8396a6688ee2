package forms

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/app_errors"
	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/models"
)

var joinCodePattern = regexp.MustCompile(`^[A-Z0-9]{6,8}$`)

var registerOnce sync.Once

// Register installs the custom rules on gin's validator. Safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			_ = v.RegisterValidation("joincode", func(fl validator.FieldLevel) bool {
				return ValidJoinCode(fl.Field().String())
			})
		}
	})
}

// NormalizeJoinCode trims and upper-cases a code typed by a student.
func NormalizeJoinCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func ValidJoinCode(code string) bool {
	return joinCodePattern.MatchString(NormalizeJoinCode(code))
}

type LoginForm struct {
	Email    string `form:"email" binding:"required,email"`
	Password string `form:"password" binding:"required"`
	Next     string `form:"next"`
}

type RegisterForm struct {
	Name     string `form:"name" binding:"required"`
	Email    string `form:"email" binding:"required,email"`
	Password string `form:"password" binding:"required,min=6"`
	Role     string `form:"role" binding:"required,oneof=student teacher"`
}

type CourseForm struct {
	Title       string `form:"title" binding:"required"`
	Description string `form:"description"`
}

func (f CourseForm) Input() models.CourseInput {
	return models.CourseInput{Title: strings.TrimSpace(f.Title), Description: strings.TrimSpace(f.Description)}
}

type QuizForm struct {
	Title           string `form:"title" binding:"required"`
	Description     string `form:"description"`
	DurationMinutes int    `form:"duration_minutes" binding:"required,min=1,max=600"`
}

type QuestionForm struct {
	Text    string   `form:"text" binding:"required"`
	Answers []string `form:"answers"`
	Correct *int     `form:"correct" binding:"required,min=0"`
}

// Input drops blank answer rows and checks that the correct one survived.
func (f QuestionForm) Input() (models.QuestionInput, error) {
	in := models.QuestionInput{Text: strings.TrimSpace(f.Text)}
	correctKept := false
	for i, a := range f.Answers {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		isCorrect := f.Correct != nil && *f.Correct == i
		correctKept = correctKept || isCorrect
		in.Answers = append(in.Answers, models.AnswerInput{Text: a, IsCorrect: isCorrect})
	}
	if len(in.Answers) < 2 {
		return in, fmt.Errorf("%w: a question needs at least two answers", app_errors.ErrValidation)
	}
	if !correctKept {
		return in, fmt.Errorf("%w: mark one filled-in answer as correct", app_errors.ErrValidation)
	}
	return in, nil
}

type MaterialForm struct {
	Title       string `form:"title" binding:"required"`
	Description string `form:"description"`
	URL         string `form:"url" binding:"omitempty,url"`
}

// Check enforces that a material has a link or an uploaded file.
func (f MaterialForm) Check(hasFile bool) error {
	if !hasFile && strings.TrimSpace(f.URL) == "" {
		return app_errors.ErrMaterialSource
	}
	return nil
}

type JoinForm struct {
	JoinCode string `form:"join_code" binding:"required,joincode"`
}

func (f JoinForm) Code() string {
	return NormalizeJoinCode(f.JoinCode)
}

type AnswerForm struct {
	QuestionID string `form:"question_id" binding:"required,uuid"`
	AnswerID   string `form:"answer_id" binding:"required,uuid"`
}

// Bind decodes the request form into dst and runs its rules.
func Bind(c *gin.Context, dst interface{}) error {
	Register()
	return c.ShouldBind(dst)
}

var fieldMessages = map[string]string{
	"required": "is required",
	"email":    "must be a valid email address",
	"min":      "is too short or too small",
	"max":      "is too long or too large",
	"oneof":    "has an unexpected value",
	"url":      "must be a valid URL",
	"uuid":     "is malformed",
	"joincode": "must be 6 to 8 letters or digits",
}

// Errors turns a binding error into per-field messages for inline alerts.
func Errors(err error) map[string]string {
	out := make(map[string]string)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			msg, ok := fieldMessages[fe.Tag()]
			if !ok {
				msg = "is invalid"
			}
			out[fieldKey(fe.Field())] = msg
		}
		return out
	}
	if err != nil {
		out["form"] = strings.TrimPrefix(err.Error(), app_errors.ErrValidation.Error()+": ")
	}
	return out
}

// Summary is a one-line version of Errors.
func Summary(err error) string {
	errs := Errors(err)
	if msg, ok := errs["form"]; ok && len(errs) == 1 {
		return msg
	}
	parts := make([]string, 0, len(errs))
	for _, k := range sortedKeys(errs) {
		parts = append(parts, strings.ReplaceAll(k, "_", " ")+" "+errs[k])
	}
	return strings.Join(parts, "; ")
}

// fieldKey maps a struct field name to its form key: DurationMinutes -> duration_minutes.
func fieldKey(field string) string {
	var b strings.Builder
	prevLower := false
	for _, r := range field {
		upper := r >= 'A' && r <= 'Z'
		if upper {
			if prevLower {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		prevLower = !upper
		b.WriteRune(r)
	}
	return b.String()
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
