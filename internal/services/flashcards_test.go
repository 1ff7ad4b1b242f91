package services

import (
	"context"
	"strings"
	"testing"
	"time"

	fsrs "github.com/open-spaced-repetition/go-fsrs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quiz-ai/internal/db"
	"quiz-ai/internal/models"
	"quiz-ai/internal/testutil"
)

func TestBuildFlashcards(t *testing.T) {
	const (
		s1 = "A fotossintese converte luz em energia quimica"
		s2 = "Ela acontece principalmente nas folhas das plantas"
		s3 = "A clorofila absorve a luz vermelha e a azul"
	)

	tests := []struct {
		name         string
		text         string
		want         []models.Flashcard
		wantFallback bool
	}{
		{
			name: "two sentences form one pair",
			text: s1 + ". " + s2 + ".",
			want: []models.Flashcard{{Question: s1 + "?", Answer: s2}},
		},
		{
			name: "odd trailing sentence is dropped",
			text: s1 + "! " + s2 + "?! " + s3 + ".",
			want: []models.Flashcard{{Question: s1 + "?", Answer: s2}},
		},
		{
			name: "short fragments are skipped",
			text: "Curto. " + s1 + ". Muito curto! " + s2,
			want: []models.Flashcard{{Question: s1 + "?", Answer: s2}},
		},
		{
			name:         "empty text",
			text:         "",
			want:         []models.Flashcard{{Question: fallbackQuestion, Answer: fallbackAnswer}},
			wantFallback: true,
		},
		{
			name:         "single long sentence",
			text:         s1,
			want:         []models.Flashcard{{Question: fallbackQuestion, Answer: fallbackAnswer}},
			wantFallback: true,
		},
		{
			name:         "exactly twenty characters is too short",
			text:         "abcdefghijklmnopqrst. abcdefghijklmnopqrst.",
			want:         []models.Flashcard{{Question: fallbackQuestion, Answer: fallbackAnswer}},
			wantFallback: true,
		},
		{
			name: "length counts characters not bytes",
			text: "ação ação ação ação. " + s1 + ". " + s2 + ".",
			want: []models.Flashcard{{Question: s1 + "?", Answer: s2}},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, fallback := BuildFlashcards(tc.text)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.wantFallback, fallback)
		})
	}
}

func TestBuildFlashcardsCapsAtFiveCards(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 14; i++ {
		b.WriteString("Esta frase tem tamanho suficiente numero ")
		b.WriteByte(byte('a' + i))
		b.WriteString(". ")
	}

	cards, fallback := BuildFlashcards(b.String())
	require.Len(t, cards, 5)
	assert.False(t, fallback)
	assert.Equal(t, "Esta frase tem tamanho suficiente numero a?", cards[0].Question)
	assert.Equal(t, "Esta frase tem tamanho suficiente numero b", cards[0].Answer)
	assert.Equal(t, "Esta frase tem tamanho suficiente numero j", cards[4].Answer)
}

func TestBuildFlashcardsIsDeterministic(t *testing.T) {
	text := "O ciclo da agua inclui evaporacao e condensacao. A chuva devolve a agua para rios e mares. " +
		"Parte da agua infiltra no solo e forma lencois freaticos."

	first, _ := BuildFlashcards(text)
	second, _ := BuildFlashcards(text)
	assert.Equal(t, first, second)
	for _, c := range first {
		assert.True(t, strings.HasSuffix(c.Question, "?"))
		assert.False(t, strings.HasSuffix(c.Answer, "?"))
	}
}

func newTestFlashcardService(now time.Time) *FlashcardService {
	svc := NewFlashcardService(db.NewMemoryStore(), NewPDFService())
	svc.now = func() time.Time { return now }
	return svc
}

func TestCreateDeckAndReview(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestFlashcardService(now)
	ctx := context.Background()

	pdf := testutil.BuildPDF(
		"O ciclo da agua descreve o movimento continuo da agua.",
		"A evaporacao transforma a agua liquida em vapor. A condensacao forma as nuvens no ceu. A precipitacao devolve a agua ao solo.",
	)

	deck, err := svc.CreateDeck(ctx, pdf)
	require.NoError(t, err)
	require.Len(t, deck.Cards, 2)
	assert.False(t, deck.Fallback)
	assert.Equal(t, "O ciclo da agua descreve o movimento continuo da agua?", deck.Cards[0].Question)
	assert.Equal(t, "A evaporacao transforma a agua liquida em vapor", deck.Cards[0].Answer)

	stored, err := svc.GetDeck(ctx, deck.ID)
	require.NoError(t, err)
	assert.Equal(t, deck.ID, stored.ID)

	next, err := svc.NextCard(ctx, deck.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, next.Index)

	reviewed, err := svc.ReviewCard(ctx, deck.ID, 0, fsrs.Good)
	require.NoError(t, err)
	assert.True(t, reviewed.Due.After(now))
	assert.Equal(t, 1, reviewed.Reps)
	require.NotNil(t, reviewed.LastReview)

	next, err = svc.NextCard(ctx, deck.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, next.Index)

	_, err = svc.ReviewCard(ctx, deck.ID, 1, fsrs.Easy)
	require.NoError(t, err)

	_, err = svc.NextCard(ctx, deck.ID)
	assert.ErrorIs(t, err, ErrNoDueCards)
}

func TestCreateDeckFallback(t *testing.T) {
	svc := newTestFlashcardService(time.Now().UTC())

	deck, err := svc.CreateDeck(context.Background(), testutil.BuildPDF("curto"))
	require.NoError(t, err)
	assert.True(t, deck.Fallback)
	require.Len(t, deck.Cards, 1)
	assert.Equal(t, fallbackQuestion, deck.Cards[0].Question)
}

func TestCreateDeckRejectsBrokenPDF(t *testing.T) {
	svc := newTestFlashcardService(time.Now().UTC())

	_, err := svc.CreateDeck(context.Background(), []byte("%PDF-1.4 broken"))
	assert.ErrorIs(t, err, ErrParse)
}

func TestReviewCardErrors(t *testing.T) {
	svc := newTestFlashcardService(time.Now().UTC())
	ctx := context.Background()

	_, err := svc.ReviewCard(ctx, "missing", 0, fsrs.Good)
	assert.ErrorIs(t, err, ErrNotFound)

	deck, err := svc.CreateDeck(ctx, testutil.BuildPDF("curto"))
	require.NoError(t, err)

	_, err = svc.ReviewCard(ctx, deck.ID, 3, fsrs.Good)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.ReviewCard(ctx, deck.ID, 0, fsrs.Rating(9))
	assert.ErrorIs(t, err, ErrValidation)
}

func TestParseRating(t *testing.T) {
	tests := map[string]fsrs.Rating{
		"again": fsrs.Again,
		"Hard":  fsrs.Hard,
		" good": fsrs.Good,
		"EASY":  fsrs.Easy,
	}
	for in, want := range tests {
		got, err := ParseRating(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := ParseRating("perfect")
	assert.ErrorIs(t, err, ErrValidation)
}
