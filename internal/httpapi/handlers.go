package httpapi

import (
	"net/http"

	"github.com/microsave/microsave/internal/models"
	"github.com/microsave/microsave/internal/service"
)

func (s *Server) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}

	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if !decode(w, r, &req) {
		return
	}

	group, err := s.groups.CreateGroup(r.Context(), actorID, req.Name, req.Description)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"group": group})
}

func (s *Server) handleListGroups(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}

	groups, err := s.groups.ListGroups(r.Context(), actorID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"groups": groups})
}

func (s *Server) handleGetGroup(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}

	group, err := s.groups.GetGroup(r.Context(), actorID, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"group": group})
}

func (s *Server) handleAddMembers(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}

	var req struct {
		Members []string `json:"members"`
	}
	if !decode(w, r, &req) {
		return
	}

	group, err := s.groups.AddMembers(r.Context(), actorID, r.PathValue("id"), req.Members)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"group": group})
}

func (s *Server) handleGroupBalances(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}

	balances, debts, err := s.groups.GroupBalances(r.Context(), actorID, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"balances": balances, "debts": debts})
}

func (s *Server) handleReconcile(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}

	// The reconciler reads group-scoped state, so it sits behind the
	// same membership gate as every other read.
	if _, err := s.groups.GetGroup(r.Context(), actorID, r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}

	drifts, err := s.reconciler.CheckGroup(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"clean": len(drifts) == 0, "drifts": drifts})
}

func (s *Server) handleRecordExpense(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}

	var req struct {
		GroupID     string  `json:"groupId"`
		Title       string  `json:"title"`
		Description string  `json:"description"`
		Type        string  `json:"type"`
		Amount      float64 `json:"amount"`
		Payer       string  `json:"payer"`
		BudgetID    string  `json:"budgetId"`
		Category    string  `json:"category"`
		DueDate     int64   `json:"dueDate"`
		Splits      []struct {
			Member string  `json:"member"`
			Amount float64 `json:"amount"`
		} `json:"splits"`
	}
	if !decode(w, r, &req) {
		return
	}

	splits := make([]service.SplitInput, len(req.Splits))
	for i, sp := range req.Splits {
		splits[i] = service.SplitInput{Member: sp.Member, Amount: sp.Amount}
	}

	expense, err := s.expenses.RecordExpense(r.Context(), actorID, service.RecordExpenseInput{
		GroupID:     req.GroupID,
		Title:       req.Title,
		Description: req.Description,
		Type:        req.Type,
		Amount:      req.Amount,
		Payer:       req.Payer,
		Splits:      splits,
		BudgetID:    req.BudgetID,
		Category:    req.Category,
		DueDate:     req.DueDate,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"expense": expense})
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}

	groupID := r.URL.Query().Get("groupId")
	if groupID == "" {
		writeError(w, http.StatusBadRequest, "groupId query parameter required")
		return
	}

	expenses, err := s.expenses.ListExpenses(r.Context(), actorID, groupID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"expenses": expenses})
}

func (s *Server) handleSettleSplit(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}

	var req struct {
		Member string `json:"member"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.Member == "" {
		req.Member = actorID
	}

	if err := s.expenses.MarkSplitPaid(r.Context(), actorID, r.PathValue("id"), req.Member); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"settled": true})
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}

	var req struct {
		GroupID    string `json:"groupId"`
		Name       string `json:"name"`
		Period     string `json:"period"`
		StartDate  int64  `json:"startDate"`
		EndDate    int64  `json:"endDate"`
		Categories []struct {
			Name  string  `json:"name"`
			Limit float64 `json:"limit"`
		} `json:"categories"`
	}
	if !decode(w, r, &req) {
		return
	}

	categories := make([]service.CategoryInput, len(req.Categories))
	for i, cat := range req.Categories {
		categories[i] = service.CategoryInput{Name: cat.Name, Limit: cat.Limit}
	}

	budget, err := s.budgets.CreateBudget(r.Context(), actorID, service.CreateBudgetInput{
		GroupID:    req.GroupID,
		Name:       req.Name,
		Categories: categories,
		Period:     models.Period(req.Period),
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"budget": budget})
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}

	groupID := r.URL.Query().Get("groupId")
	if groupID == "" {
		writeError(w, http.StatusBadRequest, "groupId query parameter required")
		return
	}

	budgets, err := s.budgets.ListBudgets(r.Context(), actorID, groupID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"budgets": budgets})
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}

	var req struct {
		GroupID      string  `json:"groupId"`
		Name         string  `json:"name"`
		Description  string  `json:"description"`
		TargetAmount float64 `json:"targetAmount"`
		TargetDate   int64   `json:"targetDate"`
	}
	if !decode(w, r, &req) {
		return
	}

	goal, err := s.savings.CreateGoal(r.Context(), actorID, req.GroupID, req.Name, req.Description, req.TargetAmount, req.TargetDate)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"savingsGoal": goal})
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}

	groupID := r.URL.Query().Get("groupId")
	if groupID == "" {
		writeError(w, http.StatusBadRequest, "groupId query parameter required")
		return
	}

	goals, err := s.savings.ListGoals(r.Context(), actorID, groupID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	// Attach derived progress so clients do not recompute the clamp.
	type goalWithProgress struct {
		*models.SavingsGoal
		Progress float64 `json:"progress"`
	}
	out := make([]goalWithProgress, len(goals))
	for i, g := range goals {
		out[i] = goalWithProgress{SavingsGoal: g, Progress: g.Progress()}
	}
	writeJSON(w, http.StatusOK, map[string]any{"savingsGoals": out})
}

func (s *Server) handleContribute(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}

	var req struct {
		Amount float64 `json:"amount"`
	}
	if !decode(w, r, &req) {
		return
	}

	goal, err := s.savings.Contribute(r.Context(), actorID, r.PathValue("id"), req.Amount)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"savingsGoal": goal, "progress": goal.Progress()})
}
