package models

import (
	"time"

	fsrs "github.com/open-spaced-repetition/go-fsrs"
)

// Flashcard is a question/answer pair for self-study review.
type Flashcard struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Alternative is one option of a multiple-choice question.
type Alternative struct {
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}

// GeneratedQuestion always carries four alternatives with exactly one correct.
type GeneratedQuestion struct {
	Question     string        `json:"question"`
	Alternatives []Alternative `json:"alternatives"`
}

// GenerationRequest is the validated input of the AI question pipeline.
type GenerationRequest struct {
	SourceText string
	Subject    string `validate:"required"`
	Count      int    `validate:"min=1,max=50"`
}

// Deck is the set of flashcards produced from one PDF, with per-card
// scheduling state for the review session.
type Deck struct {
	ID        string     `json:"id"`
	Cards     []DeckCard `json:"cards"`
	Fallback  bool       `json:"fallback"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

type DeckCard struct {
	Index         int        `json:"index"`
	Question      string     `json:"question"`
	Answer        string     `json:"answer"`
	Due           time.Time  `json:"due"`
	Stability     float64    `json:"stability"`
	Difficulty    float64    `json:"difficulty"`
	ElapsedDays   int        `json:"elapsedDays"`
	ScheduledDays int        `json:"scheduledDays"`
	Reps          int        `json:"reps"`
	Lapses        int        `json:"lapses"`
	State         int        `json:"state"`
	LastReview    *time.Time `json:"lastReview,omitempty"`
}

// Flashcard strips the scheduling state.
func (c *DeckCard) Flashcard() Flashcard {
	return Flashcard{Question: c.Question, Answer: c.Answer}
}

func (c *DeckCard) ToFSRSCard() fsrs.Card {
	card := fsrs.Card{
		Due:           c.Due,
		Stability:     c.Stability,
		Difficulty:    c.Difficulty,
		ElapsedDays:   uint64(max(c.ElapsedDays, 0)),
		ScheduledDays: uint64(max(c.ScheduledDays, 0)),
		Reps:          uint64(max(c.Reps, 0)),
		Lapses:        uint64(max(c.Lapses, 0)),
		State:         fsrs.State(max(c.State, 0)),
	}
	if c.LastReview != nil {
		card.LastReview = *c.LastReview
	}
	return card
}

func (c *DeckCard) ApplyFSRSCard(f fsrs.Card) {
	c.Due = f.Due
	c.Stability = f.Stability
	c.Difficulty = f.Difficulty
	c.ElapsedDays = int(f.ElapsedDays)
	c.ScheduledDays = int(f.ScheduledDays)
	c.Reps = int(f.Reps)
	c.Lapses = int(f.Lapses)
	c.State = int(f.State)
	if f.LastReview.IsZero() {
		c.LastReview = nil
	} else {
		last := f.LastReview
		c.LastReview = &last
	}
}

type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
)

// User is the public profile; the password hash lives only in the session
// service's stored record.
type User struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Role        Role      `json:"role"`
	Institution string    `json:"institution,omitempty"`
	Subject     string    `json:"subject,omitempty"`
	Grade       string    `json:"grade,omitempty"`
	Class       string    `json:"class,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Session binds a bearer token to a user. It is passed explicitly through
// request contexts, never held globally.
type Session struct {
	Token     string    `json:"token"`
	User      User      `json:"user"`
	CreatedAt time.Time `json:"createdAt"`
}
