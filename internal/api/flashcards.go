package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"quiz-ai/internal/services"
)

type reviewRequest struct {
	Rating string `json:"rating"`
}

func (s *Server) handleCreateDeck(w http.ResponseWriter, r *http.Request) {
	data, err := s.readPDFUpload(w, r, s.uploads.FlashcardMaxPDFBytes)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	deck, err := s.flashcards.CreateDeck(r.Context(), data)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"deck": deck})
}

func (s *Server) handleGetDeck(w http.ResponseWriter, r *http.Request) {
	deck, err := s.flashcards.GetDeck(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deck": deck})
}

func (s *Server) handleNextCard(w http.ResponseWriter, r *http.Request) {
	card, err := s.flashcards.NextCard(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, services.ErrNoDueCards) {
			writeJSON(w, http.StatusOK, map[string]any{
				"card":    nil,
				"message": "Nenhum cartão pendente. Volte mais tarde!",
			})
			return
		}
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"card": card})
}

func (s *Server) handleReviewCard(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid card index")
		return
	}

	var payload reviewRequest
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	rating, err := services.ParseRating(payload.Rating)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	card, err := s.flashcards.ReviewCard(r.Context(), chi.URLParam(r, "id"), index, rating)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"card": card})
}
