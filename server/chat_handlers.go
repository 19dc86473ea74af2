package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/sgcombinator/web/chat"
)

type chatRequest struct {
	Prompt string `json:"prompt" validate:"required,max=8000"`
}

type chatResponse struct {
	Success  bool   `json:"success"`
	Response string `json:"response"`
}

type sanityResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

// ChatHandler forwards a prompt to the AI consultant backend
func (s *Server) ChatHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeJSONError(w, http.StatusBadRequest, chat.CodeMissingPrompt, "Prompt is required")
			return
		}
		req.Prompt = strings.TrimSpace(req.Prompt)
		if req.Prompt == "" {
			writeJSONError(w, http.StatusBadRequest, chat.CodeMissingPrompt, "Prompt is required")
			return
		}
		if err := s.validate.Struct(req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", validationMessage(err))
			return
		}

		answer, err := s.chat.Chat(r.Context(), req.Prompt)
		if err != nil {
			log.Ctx(r.Context()).Error().Err(err).Msg("Chat request failed")
			writeJSONError(w, http.StatusInternalServerError, chat.ErrorCode(err), err.Error())
			return
		}

		writeJSON(w, http.StatusOK, chatResponse{Success: true, Response: answer})
	}
}

// SanityCheckHandler reports whether the AI consultant backend is reachable
func (s *Server) SanityCheckHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := s.chat.SanityCheck(r.Context())
		if err != nil {
			log.Ctx(r.Context()).Error().Err(err).Msg("Chat sanity check failed")
			code := chat.ErrorCode(err)
			if code == chat.CodeFormat {
				code = chat.CodeUnknown
			}
			writeJSONError(w, http.StatusInternalServerError, code, err.Error())
			return
		}

		writeJSON(w, http.StatusOK, sanityResponse{Success: true, Data: data})
	}
}

// HealthHandler reports that the process is up
func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
