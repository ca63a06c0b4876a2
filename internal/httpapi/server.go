// Package httpapi is a thin JSON transport over the ledger services.
//
// It does no authentication of its own: the deployment's auth boundary
// terminates credentials upstream and forwards the authenticated actor in
// the X-Actor-ID header. The handlers only shape requests and responses;
// all rules live in the service layer.
package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/microsave/microsave/internal/reconcile"
	"github.com/microsave/microsave/internal/service"
	"github.com/microsave/microsave/internal/storage"
)

// actorHeader carries the authenticated actor ID set by the auth boundary.
const actorHeader = "X-Actor-ID"

// Server holds the services the API exposes.
type Server struct {
	groups     *service.GroupService
	expenses   *service.ExpenseService
	budgets    *service.BudgetService
	savings    *service.SavingsService
	reconciler *reconcile.Reconciler
}

// NewServer creates a Server over the given services.
func NewServer(
	groups *service.GroupService,
	expenses *service.ExpenseService,
	budgets *service.BudgetService,
	savings *service.SavingsService,
	reconciler *reconcile.Reconciler,
) *Server {
	return &Server{
		groups:     groups,
		expenses:   expenses,
		budgets:    budgets,
		savings:    savings,
		reconciler: reconciler,
	}
}

// Register mounts all API routes on the mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/groups", s.handleCreateGroup)
	mux.HandleFunc("GET /api/groups", s.handleListGroups)
	mux.HandleFunc("GET /api/groups/{id}", s.handleGetGroup)
	mux.HandleFunc("POST /api/groups/{id}/members", s.handleAddMembers)
	mux.HandleFunc("GET /api/groups/{id}/balances", s.handleGroupBalances)
	mux.HandleFunc("GET /api/groups/{id}/reconcile", s.handleReconcile)

	mux.HandleFunc("POST /api/expenses", s.handleRecordExpense)
	mux.HandleFunc("GET /api/expenses", s.handleListExpenses)
	mux.HandleFunc("POST /api/expenses/{id}/settle", s.handleSettleSplit)

	mux.HandleFunc("POST /api/budgets", s.handleCreateBudget)
	mux.HandleFunc("GET /api/budgets", s.handleListBudgets)

	mux.HandleFunc("POST /api/savings-goals", s.handleCreateGoal)
	mux.HandleFunc("GET /api/savings-goals", s.handleListGoals)
	mux.HandleFunc("POST /api/savings-goals/{id}/contributions", s.handleContribute)
}

// actor extracts the authenticated actor ID, writing a 401 if absent.
func actor(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.Header.Get(actorHeader)
	if id == "" {
		writeError(w, http.StatusUnauthorized, "missing actor identity")
		return "", false
	}
	return id, true
}

// decode reads the request body as JSON into v.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps core error kinds onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrAccessDenied):
		writeError(w, http.StatusForbidden, "access denied")
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, storage.ErrCategoryNotFound):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, service.ErrAlreadySettled):
		writeError(w, http.StatusConflict, err.Error())
	default:
		slog.Error("Request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
