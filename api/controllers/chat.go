package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/angelmondragon/vapevault-backend/api/responses"
	"github.com/angelmondragon/vapevault-backend/internal/assistant"
	pkgerrors "github.com/angelmondragon/vapevault-backend/pkg/errors"
	"github.com/angelmondragon/vapevault-backend/pkg/logger"
)

const maxChatBody = 1 << 20

type chatRequest struct {
	Messages []json.RawMessage `json:"messages"`
}

// Chat relays the conversation to the assistant and writes the upstream
// completion body unchanged.
func Chat(svc assistant.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteStorefrontError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeDependency, "assistant unavailable"), "Failed to reach the assistant")
			return
		}

		var body chatRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxChatBody)).Decode(&body); err != nil {
			responses.WriteStorefrontError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "Invalid request body"), "")
			return
		}

		reply, err := svc.Chat(r.Context(), body.Messages)
		if err != nil {
			responses.WriteStorefrontError(r.Context(), logg, w, err, assistant.FailureMessage(err))
			return
		}
		responses.WriteRaw(w, reply.Status, reply.Body)
	}
}
