package controllers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/models"
)

type answerView struct {
	ID       uuid.UUID
	Text     string
	Selected bool
	Correct  bool
}

type questionView struct {
	ID      uuid.UUID
	Number  int
	Text    string
	Answers []answerView
}

// questionViews numbers the questions and marks the chosen answers. chosen may
// be nil.
func questionViews(qs []models.Question, chosen func(questionID uuid.UUID) (uuid.UUID, bool)) []questionView {
	out := make([]questionView, len(qs))
	for i, q := range qs {
		v := questionView{ID: q.ID, Number: i + 1, Text: q.Text}
		var picked uuid.UUID
		hasPick := false
		if chosen != nil {
			picked, hasPick = chosen(q.ID)
		}
		for _, a := range q.Answers {
			v.Answers = append(v.Answers, answerView{
				ID:       a.ID,
				Text:     a.Text,
				Selected: hasPick && a.ID == picked,
				Correct:  a.Correct(),
			})
		}
		out[i] = v
	}
	return out
}

// submittedChoice looks answers up in a stored submission.
func submittedChoice(sub *models.Submission) func(uuid.UUID) (uuid.UUID, bool) {
	picked := make(map[uuid.UUID]uuid.UUID, len(sub.Answers))
	for _, a := range sub.Answers {
		picked[a.QuestionID] = a.AnswerID
	}
	return func(questionID uuid.UUID) (uuid.UUID, bool) {
		id, ok := picked[questionID]
		return id, ok
	}
}

// refreshSeconds reloads the quiz page often enough to land right after the
// deadline.
func refreshSeconds(every, remaining time.Duration) int {
	secs := int(every.Seconds())
	if left := int(remaining.Seconds()) + 1; left < secs {
		secs = left
	}
	if secs < 1 {
		secs = 1
	}
	return secs
}

func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	return id, err == nil
}
