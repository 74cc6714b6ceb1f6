package httpapi

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"leaderboard-service/leaderboard/application"
	"leaderboard-service/leaderboard/domain"
)

const (
	msgInvalidJSON   = "Invalid JSON"
	msgPayloadTooBig = "Payload too large"
	msgInternal      = "Internal server error"
)

type leaderboardResponse struct {
	Scores []domain.Entry `json:"scores"`
}

type submitResponse struct {
	Success bool           `json:"success"`
	Rank    int            `json:"rank"`
	Scores  []domain.Entry `json:"scores"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, leaderboardResponse{Scores: s.Leaderboard.Top(r.Context(), domain.TopN)})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Leaderboard.Stats(r.Context()))
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	defer r.Body.Close()

	var sub application.Submission
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&sub); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, msgPayloadTooBig)
			return
		}
		writeError(w, http.StatusBadRequest, msgInvalidJSON)
		return
	}

	res, err := s.Leaderboard.Submit(r.Context(), sub)
	if err != nil {
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			writeError(w, http.StatusBadRequest, ve.Message)
			return
		}
		log.Printf("submit failed request_id=%s: %v", RequestIDFromContext(r.Context()), err)
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}

	writeJSON(w, http.StatusOK, submitResponse{Success: true, Rank: res.Rank, Scores: res.Top})
}

func (s *Server) handleLimitStats(w http.ResponseWriter, r *http.Request) {
	snap, err := s.LimitStats.Snapshot(r.Context())
	if err != nil {
		log.Printf("rate-limit stats failed request_id=%s: %v", RequestIDFromContext(r.Context()), err)
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
