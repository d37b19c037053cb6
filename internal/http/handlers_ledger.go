package http

import (
	"errors"
	"html/template"
	"net/http"

	"saldo/internal/core"
	applog "saldo/internal/log"
	"saldo/internal/middleware/trace"
)

// handleCreateMovement records a new unsettled movement.
func (s *Server) handleCreateMovement(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	p, ok := s.parseBody(w, r)
	if !ok {
		return
	}

	in, err := movementInput(p, s.today())
	if err == nil {
		var id core.ID
		if id, err = s.svc.CreateMovement(r.Context(), in); err == nil {
			s.events.LogMovementChanged(r.Context(), applog.OpCreate, int64(id),
				string(in.Kind), in.Category, in.Amount.Fixed(), in.Date.String())
			s.respondChanged(w, r, p, "Movimiento agregado", map[string]any{"id": id}, true)
			return
		}
	}
	s.fail(w, r, p, err, applog.OpCreate)
}

// handleUpdateMovement patches the fields present in the request.
func (s *Server) handleUpdateMovement(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodPost, http.MethodPut, http.MethodPatch); resp != nil {
		resp.Write(w)
		return
	}
	p, ok := s.parseBody(w, r)
	if !ok {
		return
	}

	id, err := movementID(p)
	if err != nil {
		s.fail(w, r, p, err, applog.OpUpdate)
		return
	}
	patch, err := movementPatch(p)
	if err != nil {
		s.fail(w, r, p, err, applog.OpUpdate)
		return
	}
	found, err := s.svc.UpdateMovement(r.Context(), id, patch)
	if err != nil {
		s.fail(w, r, p, err, applog.OpUpdate)
		return
	}
	if !found {
		s.respondError(w, r, p, http.StatusNotFound, "Movimiento no encontrado")
		return
	}

	if m, ok := s.svc.Ledger(r.Context()).Find(id); ok {
		s.events.LogMovementChanged(r.Context(), applog.OpUpdate, int64(id),
			string(m.Kind), m.Category, m.Amount.Fixed(), m.Date.String())
	}
	s.respondChanged(w, r, p, "Movimiento actualizado", map[string]any{"id": id}, true)
}

// handleDeleteMovement removes a movement. The id may come in the body or,
// for DELETE, in the query string.
func (s *Server) handleDeleteMovement(w http.ResponseWriter, r *http.Request) {
	if resp := RequireDeleteOrPOST(r); resp != nil {
		resp.Write(w)
		return
	}
	p, ok := s.parseBody(w, r)
	if !ok {
		return
	}

	id, err := movementID(p)
	if err != nil {
		s.fail(w, r, p, err, applog.OpDelete)
		return
	}
	found, err := s.svc.DeleteMovement(r.Context(), id)
	if err != nil {
		s.fail(w, r, p, err, applog.OpDelete)
		return
	}
	if !found {
		s.respondError(w, r, p, http.StatusNotFound, "Movimiento no encontrado")
		return
	}
	s.respondChanged(w, r, p, "Movimiento eliminado", map[string]any{"id": id}, false)
}

// handleToggleMovement flips the settled flag.
func (s *Server) handleToggleMovement(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	p, ok := s.parseBody(w, r)
	if !ok {
		return
	}

	id, err := movementID(p)
	if err != nil {
		s.fail(w, r, p, err, applog.OpToggle)
		return
	}
	found, err := s.svc.ToggleSettled(r.Context(), id)
	if err != nil {
		s.fail(w, r, p, err, applog.OpToggle)
		return
	}
	if !found {
		s.respondError(w, r, p, http.StatusNotFound, "Movimiento no encontrado")
		return
	}

	m, _ := s.svc.Ledger(r.Context()).Find(id)
	s.respondChanged(w, r, p, "Estado actualizado", map[string]any{"id": id, "realizado": m.Settled}, false)
}

// handleClearLedger drops every movement and resets the initial balance.
func (s *Server) handleClearLedger(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	p, ok := s.parseBody(w, r)
	if !ok {
		return
	}
	if err := s.svc.ClearAll(r.Context()); err != nil {
		s.fail(w, r, p, err, applog.OpClear)
		return
	}
	s.respondChanged(w, r, p, "Todos los movimientos fueron eliminados", map[string]any{}, false)
}

// handleSetBalance sets the initial balance, which may be zero or negative.
func (s *Server) handleSetBalance(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	p, ok := s.parseBody(w, r)
	if !ok {
		return
	}

	balance, err := core.ParseBalance(p.Get("amount"))
	if err != nil {
		s.respondError(w, r, p, http.StatusUnprocessableEntity, "Saldo inválido: introduce un número, p. ej. 1500,00")
		return
	}
	if err := s.svc.SetInitialBalance(r.Context(), balance); err != nil {
		s.fail(w, r, p, err, applog.OpBalance)
		return
	}
	s.respondChanged(w, r, p, "Saldo inicial actualizado", map[string]any{"initial_balance": balance}, false)
}

// handleSetCurrency changes the display currency symbol.
func (s *Server) handleSetCurrency(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	p, ok := s.parseBody(w, r)
	if !ok {
		return
	}

	symbol := p.Get("symbol")
	if err := s.svc.SetCurrency(r.Context(), symbol); err != nil {
		s.fail(w, r, p, err, applog.OpCurrency)
		return
	}
	s.respondChanged(w, r, p, "Moneda actualizada", map[string]any{"currency": symbol}, false)
}

// handleVoice turns a transcript into a movement draft. Nothing is saved;
// the page fills its form with the draft.
func (s *Server) handleVoice(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	p, ok := s.parseBody(w, r)
	if !ok {
		return
	}

	draft, err := s.svc.DraftFromVoice(p.Get("transcript"))
	if err != nil {
		applog.FromContext(r.Context()).WithComponent(applog.ComponentVoice).
			InfoContext(r.Context(), "Voice command rejected", applog.FieldError, err)
		JSONErrorResponse(http.StatusUnprocessableEntity, err.Error()).Write(w)
		return
	}
	NewHTMXResponse().JSON(draft).Write(w)
}

func (s *Server) parseBody(w http.ResponseWriter, r *http.Request) (*RequestBodyParser, bool) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		if errors.Is(err, errBodyTooLarge) {
			s.respondError(w, r, nil, http.StatusRequestEntityTooLarge, "Solicitud demasiado grande")
			return nil, false
		}
		s.respondError(w, r, nil, http.StatusBadRequest, "Formato de solicitud no válido")
		return nil, false
	}
	return p, true
}

// fail answers validation errors with 422 and anything else with 500.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, p *RequestBodyParser, err error, op string) {
	if msg, ok := validationMessage(err); ok {
		s.respondError(w, r, p, http.StatusUnprocessableEntity, msg)
		return
	}
	s.events.LogError(r.Context(), "Ledger mutation failed", err, applog.ComponentLedger, op,
		applog.NewFields().WithRequestID(trace.RequestID(r)))
	s.respondError(w, r, p, http.StatusInternalServerError, "Error al guardar los cambios")
}

func (s *Server) respondError(w http.ResponseWriter, r *http.Request, p *RequestBodyParser, code int, msg string) {
	if wantsJSON(r, p) {
		JSONErrorResponse(code, msg).Write(w)
		return
	}
	ErrorResponse(code, msg).TriggerErrorNotification(msg).Write(w)
}

// respondChanged confirms a mutation and fires ledger:changed so the page
// reloads its views.
func (s *Server) respondChanged(w http.ResponseWriter, r *http.Request, p *RequestBodyParser, msg string, payload map[string]any, resetForm bool) {
	rev := s.svc.Projection(r.Context()).Revision
	b := NewHTMXResponse().TriggerLedgerChanged(rev)
	if resetForm {
		b.TriggerFormReset()
	}
	if wantsJSON(r, p) {
		payload["revision"] = rev
		b.JSON(payload)
	} else {
		b.TriggerSuccessNotification(msg).
			BodyHTML(`<div class="success">` + template.HTMLEscapeString(msg) + `</div>`)
	}
	b.Write(w)
}
