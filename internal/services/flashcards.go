package services

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	fsrs "github.com/open-spaced-repetition/go-fsrs"

	"quiz-ai/internal/models"
)

const (
	minSentenceRunes = 20
	maxSentences     = 10
	fallbackQuestion = "O que você aprendeu neste documento?"
	fallbackAnswer   = "Flashcards gerados automaticamente a partir do conteúdo do PDF."
	deckKeyPrefix    = "deck:"
)

var sentenceBreak = regexp.MustCompile(`[.!?]+`)

// BuildFlashcards pairs consecutive sentences of text into question/answer
// cards. Only sentences longer than 20 characters count, and only the first
// ten of those are used. When no pair can be formed a single fallback card
// is returned, so the result always holds between one and five cards.
func BuildFlashcards(text string) (cards []models.Flashcard, fallback bool) {
	sentences := make([]string, 0, maxSentences)
	for _, fragment := range sentenceBreak.Split(text, -1) {
		fragment = strings.TrimSpace(fragment)
		if utf8.RuneCountInString(fragment) <= minSentenceRunes {
			continue
		}
		sentences = append(sentences, fragment)
		if len(sentences) == maxSentences {
			break
		}
	}

	for i := 0; i+1 < len(sentences); i += 2 {
		cards = append(cards, models.Flashcard{
			Question: sentences[i] + "?",
			Answer:   sentences[i+1],
		})
	}

	if len(cards) == 0 {
		return []models.Flashcard{{Question: fallbackQuestion, Answer: fallbackAnswer}}, true
	}
	return cards, false
}

// FlashcardService builds decks from PDFs and schedules their review with FSRS.
type FlashcardService struct {
	store  KVStore
	pdf    *PDFService
	params fsrs.Parameters
	now    func() time.Time

	mu sync.Mutex
}

func NewFlashcardService(store KVStore, pdf *PDFService) *FlashcardService {
	return &FlashcardService{
		store:  store,
		pdf:    pdf,
		params: fsrs.DefaultParam(),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// CreateDeck extracts the PDF text, builds the flashcards and stores them as
// a new deck with every card due immediately.
func (s *FlashcardService) CreateDeck(ctx context.Context, data []byte) (*models.Deck, error) {
	text, err := s.pdf.ExtractText(data)
	if err != nil {
		return nil, err
	}

	cards, fallback := BuildFlashcards(text)
	if fallback {
		slog.Info("no sentence pairs found, using fallback flashcard",
			"text_runes", utf8.RuneCountInString(text))
	}

	now := s.now()
	deck := &models.Deck{
		ID:        uuid.NewString(),
		Cards:     make([]models.DeckCard, len(cards)),
		Fallback:  fallback,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for i, card := range cards {
		deck.Cards[i] = models.DeckCard{
			Index:    i,
			Question: card.Question,
			Answer:   card.Answer,
			Due:      now,
			State:    int(fsrs.New),
		}
	}

	if err := putJSON(ctx, s.store, deckKeyPrefix+deck.ID, deck); err != nil {
		return nil, fmt.Errorf("save deck: %w", err)
	}
	return deck, nil
}

func (s *FlashcardService) GetDeck(ctx context.Context, id string) (*models.Deck, error) {
	deck := &models.Deck{}
	if err := getJSON(ctx, s.store, deckKeyPrefix+id, deck); err != nil {
		return nil, fmt.Errorf("load deck %s: %w", id, err)
	}
	return deck, nil
}

// NextCard returns the card with the earliest due time, ties broken by
// position. ErrNoDueCards is returned when nothing is due yet.
func (s *FlashcardService) NextCard(ctx context.Context, deckID string) (*models.DeckCard, error) {
	deck, err := s.GetDeck(ctx, deckID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	var next *models.DeckCard
	for i := range deck.Cards {
		card := &deck.Cards[i]
		if card.Due.After(now) {
			continue
		}
		if next == nil || card.Due.Before(next.Due) {
			next = card
		}
	}
	if next == nil {
		return nil, ErrNoDueCards
	}
	return next, nil
}

// ReviewCard updates the scheduling information based on the user's rating.
func (s *FlashcardService) ReviewCard(ctx context.Context, deckID string, index int, rating fsrs.Rating) (*models.DeckCard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deck, err := s.GetDeck(ctx, deckID)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(deck.Cards) {
		return nil, fmt.Errorf("card %d of deck %s: %w", index, deckID, ErrNotFound)
	}

	now := s.now()
	card := &deck.Cards[index]
	scheduling := s.params.Repeat(card.ToFSRSCard(), now)
	info, ok := scheduling[rating]
	if !ok {
		return nil, errorf(ErrValidation, "rating %d not supported", rating)
	}
	card.ApplyFSRSCard(info.Card)
	deck.UpdatedAt = now

	if err := putJSON(ctx, s.store, deckKeyPrefix+deck.ID, deck); err != nil {
		return nil, fmt.Errorf("save deck: %w", err)
	}

	out := *card
	return &out, nil
}

// ParseRating maps again/hard/good/easy to an FSRS rating.
func ParseRating(raw string) (fsrs.Rating, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "again":
		return fsrs.Again, nil
	case "hard":
		return fsrs.Hard, nil
	case "good":
		return fsrs.Good, nil
	case "easy":
		return fsrs.Easy, nil
	default:
		return 0, errorf(ErrValidation, "unknown rating %q", raw)
	}
}
