// Package handlers translates HTTP requests into commands and queries.
package handlers

import (
	"net/http"

	"prepcoach/application/commands/bus"
	"prepcoach/application/ports"
	querybus "prepcoach/application/queries/bus"
	"prepcoach/pkg/auth"
	"prepcoach/pkg/common"
	pkgerrors "prepcoach/pkg/errors"
	"prepcoach/pkg/utils"
)

const maxBodyBytes = 1 << 20

// Base carries what every handler needs to dispatch and respond
type Base struct {
	commands *bus.CommandBus
	queries  *querybus.QueryBus
	errors   *pkgerrors.ErrorHandler
}

// NewBase creates the shared handler base
func NewBase(commands *bus.CommandBus, queries *querybus.QueryBus, errs *pkgerrors.ErrorHandler) Base {
	return Base{commands: commands, queries: queries, errors: errs}
}

// actorFrom maps the authenticated caller onto the application actor. Anonymous requests get the zero actor.
func actorFrom(r *http.Request) ports.Actor {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		return ports.Actor{}
	}
	return ports.Actor{UserID: user.UserID, Email: user.Email, IsAdmin: user.IsAdmin()}
}

func (b Base) send(w http.ResponseWriter, r *http.Request, status int, cmd bus.Command) {
	result, err := b.commands.Send(r.Context(), cmd)
	if err != nil {
		b.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, status, result)
}

func (b Base) ask(w http.ResponseWriter, r *http.Request, query querybus.Query) {
	result, err := b.queries.Ask(r.Context(), query)
	if err != nil {
		b.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, result)
}

// decode parses and validates a JSON body, answering with VALIDATION on failure
func (b Base) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := common.ParseJSONBody(w, r, v, maxBodyBytes); err != nil {
		b.errors.Handle(w, r, pkgerrors.NewValidationError("invalid request body").WithCause(err))
		return false
	}
	if err := utils.ValidateStruct(v); err != nil {
		b.errors.Handle(w, r, err)
		return false
	}
	return true
}
