package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/sgcombinator/web/academy"
)

type academyChatRequest struct {
	Messages []academy.Message `json:"messages" validate:"required,min=1,max=50,dive"`
}

// AcademyChatHandler answers a course question, streaming the reply as plain text.
func (s *Server) AcademyChatHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.academy == nil {
			writeJSONError(w, http.StatusServiceUnavailable, "ASSISTANT_UNAVAILABLE", "The Academy assistant is not configured")
			return
		}

		var req academyChatRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
			return
		}
		if err := academy.ValidateConversation(req.Messages); err != nil {
			writeJSONError(w, http.StatusBadRequest, "INVALID_MESSAGE_FORMAT", "Invalid message format")
			return
		}
		if err := s.validate.Struct(req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", validationMessage(err))
			return
		}

		reply, err := s.academy.Stream(r.Context(), req.Messages)
		if err != nil {
			log.Ctx(r.Context()).Error().Err(err).Msg("Academy chat failed")
			writeJSONError(w, http.StatusInternalServerError, "SERVER_ERROR", "Error processing your request")
			return
		}
		defer reply.Close()

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.WriteHeader(http.StatusOK)

		rc := http.NewResponseController(w)
		for {
			chunk, err := reply.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				// headers are gone, all we can do is stop
				log.Ctx(r.Context()).Error().Err(err).Msg("Academy chat stream interrupted")
				return
			}
			if _, err := io.WriteString(w, chunk); err != nil {
				return
			}
			if err := rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
				return
			}
		}
	}
}
