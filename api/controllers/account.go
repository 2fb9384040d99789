package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/vapevault-backend/internal/account"
	"github.com/angelmondragon/vapevault-backend/internal/users"
	"github.com/angelmondragon/vapevault-backend/pkg/logger"
)

func AccountGet(svc account.Service, logg *logger.Logger) http.HandlerFunc {
	return forShopper(logg, http.StatusOK, func(r *http.Request, userID uuid.UUID) (*users.UserDTO, error) {
		return svc.Get(r.Context(), userID)
	})
}

// AccountUpdate applies the account settings form.
func AccountUpdate(svc account.Service, logg *logger.Logger) http.HandlerFunc {
	return forShopper(logg, http.StatusOK, func(r *http.Request, userID uuid.UUID) (*users.UserDTO, error) {
		body, err := decodeBody[account.UpdateRequest](r)
		if err != nil {
			return nil, err
		}
		return svc.Update(r.Context(), userID, body)
	})
}
