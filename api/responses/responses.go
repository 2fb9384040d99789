package responses

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	pkgerrors "github.com/angelmondragon/vapevault-backend/pkg/errors"
	"github.com/angelmondragon/vapevault-backend/pkg/logger"
	"github.com/angelmondragon/vapevault-backend/pkg/types"
)

// encodeFailure is sent when a payload cannot be marshalled.
var encodeFailure = []byte(`{"error":{"code":"INTERNAL_ERROR","message":"internal server error"}}`)

func WriteSuccess(w http.ResponseWriter, data any) {
	WriteSuccessStatus(w, http.StatusOK, data)
}

func WriteSuccessStatus(w http.ResponseWriter, status int, data any) {
	WriteJSON(w, status, types.SuccessEnvelope{Data: data})
}

// WriteJSON writes payload as is, without the data envelope.
func WriteJSON(w http.ResponseWriter, status int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		WriteRaw(w, http.StatusInternalServerError, encodeFailure)
		return
	}
	WriteRaw(w, status, append(body, '\n'))
}

// WriteRaw writes an already-encoded JSON body.
func WriteRaw(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// WriteError renders err as the {"error":{code,message,details}} envelope.
// Untyped errors are reported as internal.
func WriteError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error) {
	typed := classify(err)
	meta := pkgerrors.MetadataFor(typed.Code())
	logFailure(ctx, logg, err, meta.HTTPStatus)

	WriteJSON(w, meta.HTTPStatus, types.ErrorEnvelope{Error: types.APIError{
		Code:    string(typed.Code()),
		Message: typed.PublicMessage(),
		Details: typed.PublicDetails(),
	}})
}

// WriteStorefrontError writes the flat {"error": msg} body. Typed errors keep
// their status and exposed message; anything else is a 500 carrying fallback.
func WriteStorefrontError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error, fallback string) {
	status := http.StatusInternalServerError
	msg := fallback
	if typed := pkgerrors.As(err); typed != nil {
		meta := pkgerrors.MetadataFor(typed.Code())
		status = meta.HTTPStatus
		if meta.Exposed && typed.Message() != "" {
			msg = typed.Message()
		}
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	logFailure(ctx, logg, err, status)
	WriteJSON(w, status, types.StorefrontError{Error: msg})
}

func classify(err error) *pkgerrors.Error {
	if err == nil {
		err = errors.New("unknown error")
	}
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unexpected error")
}

// logFailure logs server-side failures at error level and client mistakes at
// debug.
func logFailure(ctx context.Context, logg *logger.Logger, err error, status int) {
	if logg == nil || err == nil {
		return
	}
	fields := pkgerrors.Dump(err).Fields()
	if step := pkgerrors.StepDetail(err); step != "" {
		fields["step"] = step
	}
	fields["status"] = status
	ctx = logg.WithFields(ctx, fields)
	if status >= http.StatusInternalServerError {
		logg.Error(ctx, "request.error", err)
		return
	}
	logg.Debug(ctx, "request.rejected")
}
