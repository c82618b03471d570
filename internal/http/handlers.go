package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"duoledger/internal/core"
	"duoledger/internal/export"
	"duoledger/internal/services"
	"duoledger/internal/storage"

	"github.com/shopspring/decimal"
)

type transactionDTO struct {
	ID        string `json:"id,omitempty"`
	Period    string `json:"period"`
	Category  string `json:"category"`
	Label     string `json:"label"`
	Amount    string `json:"amount"`
	Split     string `json:"split"`
	Owner     string `json:"owner"`
	Note      string `json:"note,omitempty"`
	Recurring bool   `json:"recurring"`
	Pinned    bool   `json:"pinned"`
	Method    string `json:"method,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

type settingsDTO struct {
	Salary  string `json:"salary"`
	Savings string `json:"savings"`
}

type cascadeDTO struct {
	Kind    string           `json:"kind"`
	Updates []transactionDTO `json:"updates,omitempty"`
	Creates []transactionDTO `json:"creates,omitempty"`
	Deletes []string         `json:"deletes,omitempty"`
}

type summaryDTO struct {
	Total          string                       `json:"total"`
	OwnerATotal    string                       `json:"owner_a_total"`
	OwnerBTotal    string                       `json:"owner_b_total"`
	APaidForB      string                       `json:"a_paid_for_b"`
	BPaidForA      string                       `json:"b_paid_for_a"`
	Net            string                       `json:"net"`
	OwnerARetained string                       `json:"owner_a_retained"`
	Remaining      string                       `json:"remaining"`
	ByMethod       map[string]string            `json:"by_method"`
	ByCategory     map[string]categoryTotalsDTO `json:"by_category"`
}

type categoryTotalsDTO struct {
	Total  string `json:"total"`
	OwnerA string `json:"owner_a"`
	OwnerB string `json:"owner_b"`
}

func toTransactionDTO(t core.Transaction) transactionDTO {
	dto := transactionDTO{
		ID:        t.ID,
		Period:    t.Period.Key(),
		Category:  string(t.Category),
		Label:     t.Label,
		Amount:    t.Amount.String(),
		Split:     string(t.Split),
		Owner:     string(t.Owner),
		Note:      t.Note,
		Recurring: t.Recurring,
		Pinned:    t.Pinned,
		Method:    string(t.Method),
	}
	if !t.CreatedAt.IsZero() {
		dto.CreatedAt = t.CreatedAt.UTC().Format(time.RFC3339Nano)
	}
	return dto
}

func (d transactionDTO) toTransaction() (core.Transaction, error) {
	period, err := core.ParsePeriodKey(d.Period)
	if err != nil {
		return core.Transaction{}, err
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(d.Amount))
	if err != nil {
		return core.Transaction{}, core.ErrInvalidAmount
	}
	return core.Transaction{
		ID:        d.ID,
		Period:    period,
		Category:  core.Category(d.Category),
		Label:     strings.TrimSpace(d.Label),
		Amount:    amount,
		Split:     core.SplitMode(d.Split),
		Owner:     core.Owner(d.Owner),
		Note:      d.Note,
		Recurring: d.Recurring,
		Pinned:    d.Pinned,
		Method:    core.PaymentMethod(d.Method),
	}, nil
}

func toCascadeDTO(plan services.CascadePlan) cascadeDTO {
	dto := cascadeDTO{Kind: string(plan.Kind), Deletes: plan.Deletes}
	for _, u := range plan.Updates {
		dto.Updates = append(dto.Updates, toTransactionDTO(u))
	}
	for _, c := range plan.Creates {
		dto.Creates = append(dto.Creates, toTransactionDTO(c))
	}
	return dto
}

func toSummaryDTO(s core.Summary) summaryDTO {
	dto := summaryDTO{
		Total:          s.Total.String(),
		OwnerATotal:    s.OwnerATotal.String(),
		OwnerBTotal:    s.OwnerBTotal.String(),
		APaidForB:      s.APaidForB.String(),
		BPaidForA:      s.BPaidForA.String(),
		Net:            s.Net.String(),
		OwnerARetained: s.OwnerARetained.String(),
		Remaining:      s.Remaining.String(),
		ByMethod:       map[string]string{},
		ByCategory:     map[string]categoryTotalsDTO{},
	}
	for method, total := range s.ByMethod {
		dto.ByMethod[string(method)] = total.String()
	}
	for category, totals := range s.ByCategory {
		dto.ByCategory[string(category)] = categoryTotalsDTO{
			Total:  totals.Total.String(),
			OwnerA: totals.OwnerA.String(),
			OwnerB: totals.OwnerB.String(),
		}
	}
	return dto
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

// periodParam reads the period query parameter, defaulting to the current
// month.
func periodParam(r *http.Request) (core.PeriodKey, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("period"))
	if raw == "" {
		return core.PeriodOf(time.Now()), nil
	}
	return core.ParsePeriodKey(raw)
}

func confirmParam(r *http.Request) bool {
	v := r.URL.Query().Get("confirm")
	return v == "1" || v == "true"
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrRolloverInFlight):
		return http.StatusConflict
	case errors.Is(err, core.ErrInvalidPeriod),
		errors.Is(err, core.ErrEmptyLabel),
		errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrUnknownCategory),
		errors.Is(err, core.ErrUnknownMethod),
		errors.Is(err, core.ErrOwnerSplitMismatch):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleListPeriods(w http.ResponseWriter, r *http.Request) {
	active, err := periodParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid period")
		return
	}
	periods, err := s.ledger.Periods(r.Context(), active)
	if err != nil {
		slog.ErrorContext(r.Context(), "List periods failed", "error", err)
		writeError(w, statusForError(err), "failed to list periods")
		return
	}
	keys := make([]string, len(periods))
	for i, p := range periods {
		keys[i] = p.Key()
	}
	writeJSON(w, http.StatusOK, map[string]any{"periods": keys})
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	period, err := periodParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid period")
		return
	}
	transactions, err := s.ledger.List(r.Context(), period)
	if err != nil {
		slog.ErrorContext(r.Context(), "List transactions failed", "period", period.Key(), "error", err)
		writeError(w, statusForError(err), "failed to list transactions")
		return
	}
	out := make([]transactionDTO, len(transactions))
	for i, t := range transactions {
		out[i] = toTransactionDTO(t)
	}
	writeJSON(w, http.StatusOK, map[string]any{"period": period.Key(), "transactions": out})
}

func (s *Server) handleExportTransactions(w http.ResponseWriter, r *http.Request) {
	period, err := periodParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid period")
		return
	}
	transactions, err := s.ledger.List(r.Context(), period)
	if err != nil {
		slog.ErrorContext(r.Context(), "Export failed", "period", period.Key(), "error", err)
		writeError(w, statusForError(err), "failed to export transactions")
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="ledger-`+period.Key()+`.csv"`)
	if err := export.WriteCSV(w, transactions); err != nil {
		slog.ErrorContext(r.Context(), "CSV write failed", "error", err)
	}
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	s.saveTransaction(w, r, "")
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	s.saveTransaction(w, r, r.PathValue("id"))
}

func (s *Server) saveTransaction(w http.ResponseWriter, r *http.Request, id string) {
	var dto transactionDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	dto.ID = id

	tx, err := dto.toTransaction()
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}

	saved, plan, err := s.ledger.SaveTransaction(r.Context(), tx)
	if err != nil {
		slog.ErrorContext(r.Context(), "Save transaction failed",
			"label", tx.Label, "period", tx.Period.Key(), "error", err)
		writeError(w, statusForError(err), err.Error())
		return
	}

	applied := false
	if confirmParam(r) && !plan.IsEmpty() {
		if err := s.ledger.ApplyCascade(r.Context(), saved.Period, plan); err != nil {
			slog.ErrorContext(r.Context(), "Apply cascade failed",
				"label", saved.Label, "error", err)
			writeError(w, statusForError(err), "transaction saved but cascade failed")
			return
		}
		applied = true
	}

	status := http.StatusOK
	if id == "" {
		status = http.StatusCreated
	}
	writeJSON(w, status, map[string]any{
		"transaction":     toTransactionDTO(saved),
		"cascade":         toCascadeDTO(plan),
		"cascade_applied": applied,
	})
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	plan, err := s.ledger.DeleteTransaction(r.Context(), id)
	if err != nil {
		slog.ErrorContext(r.Context(), "Delete transaction failed", "id", id, "error", err)
		writeError(w, statusForError(err), err.Error())
		return
	}

	applied := false
	if confirmParam(r) && !plan.IsEmpty() {
		// The cascade only deletes, so any period key works as the event
		// subject; use the current one.
		if err := s.ledger.ApplyCascade(r.Context(), core.PeriodOf(time.Now()), plan); err != nil {
			slog.ErrorContext(r.Context(), "Apply delete cascade failed", "id", id, "error", err)
			writeError(w, statusForError(err), "transaction deleted but cascade failed")
			return
		}
		applied = true
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"cascade":         toCascadeDTO(plan),
		"cascade_applied": applied,
	})
}

func (s *Server) handleTogglePin(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	tx, err := s.ledger.TogglePin(r.Context(), id)
	if err != nil {
		slog.ErrorContext(r.Context(), "Toggle pin failed", "id", id, "error", err)
		writeError(w, statusForError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"transaction": toTransactionDTO(tx)})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	period, err := periodParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid period")
		return
	}
	summary, err := s.ledger.Summary(r.Context(), period)
	if err != nil {
		slog.ErrorContext(r.Context(), "Summary failed", "period", period.Key(), "error", err)
		writeError(w, statusForError(err), "failed to compute summary")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"period":  period.Key(),
		"summary": toSummaryDTO(summary),
	})
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	period, err := periodParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid period")
		return
	}
	settings, err := s.ledger.Settings(r.Context(), period)
	if err != nil {
		slog.ErrorContext(r.Context(), "Get settings failed", "period", period.Key(), "error", err)
		writeError(w, statusForError(err), "failed to read settings")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"period": period.Key(),
		"settings": settingsDTO{
			Salary:  settings.Salary.String(),
			Savings: settings.Savings.String(),
		},
	})
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	period, err := periodParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid period")
		return
	}

	var dto settingsDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	salary, err := decimal.NewFromString(strings.TrimSpace(dto.Salary))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid salary")
		return
	}
	savings, err := decimal.NewFromString(strings.TrimSpace(dto.Savings))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid savings")
		return
	}

	settings := core.Settings{Salary: salary, Savings: savings}
	if err := s.ledger.PutSettings(r.Context(), period, settings); err != nil {
		slog.ErrorContext(r.Context(), "Put settings failed", "period", period.Key(), "error", err)
		writeError(w, statusForError(err), "failed to save settings")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"period": period.Key(), "settings": dto})
}

type rolloverRequestDTO struct {
	Period string `json:"period"`
}

func (s *Server) handleRollover(w http.ResponseWriter, r *http.Request) {
	var dto rolloverRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	period, err := core.ParsePeriodKey(strings.TrimSpace(dto.Period))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid period")
		return
	}

	// With a queue attached the rollover runs in the worker.
	if s.rollover != nil {
		if err := s.rollover.PublishRolloverRequest(r.Context(), period); err != nil {
			slog.ErrorContext(r.Context(), "Publish rollover request failed",
				"period", period.Key(), "error", err)
			writeError(w, http.StatusInternalServerError, "failed to queue rollover")
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]any{
			"period": period.Key(),
			"queued": true,
		})
		return
	}

	plan, err := s.ledger.AdvancePeriod(r.Context(), period)
	if err != nil {
		slog.ErrorContext(r.Context(), "Rollover failed", "period", period.Key(), "error", err)
		writeError(w, statusForError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"period":          period.Key(),
		"next_period":     plan.NextPeriod.Key(),
		"created":         plan.Added(),
		"seeded_settings": plan.SeedSettings != nil,
	})
}
