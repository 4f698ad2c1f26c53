package http

import (
	"net/http"

	"daan/internal/core"
	"daan/internal/log"
)

// expenseInput is the editable part of an expense.
type expenseInput struct {
	Date          core.Date          `json:"date"`
	Title         string             `json:"title"`
	Amount        core.Money         `json:"amount"`
	Description   string             `json:"description"`
	PaymentMethod core.PaymentMethod `json:"payment_method"`
	TransactionID string             `json:"transaction_id"`
}

func (in expenseInput) expense() core.Expense {
	return core.Expense{
		Date:          in.Date,
		Title:         in.Title,
		Amount:        in.Amount,
		Description:   in.Description,
		PaymentMethod: defaultMethod(in.PaymentMethod),
		TransactionID: in.TransactionID,
	}
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var in expenseInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeDecodeError(w, err)
		return
	}
	e, err := s.svc.Expenses.AddExpense(r.Context(), in.expense())
	if err != nil {
		fail(w, r, log.OpCreate, err)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Expense created",
		log.FieldOperation, log.OpCreate,
		log.FieldExpenseID, e.ID,
		log.FieldAmountCents, e.Amount.Cents)
	NewJSONResponse().Status(http.StatusCreated).Field("expense", e).Write(w)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		DomainError(err).Write(w)
		return
	}
	var in expenseInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeDecodeError(w, err)
		return
	}
	e, err := s.svc.Expenses.UpdateExpense(r.Context(), id, in.expense())
	if err != nil {
		fail(w, r, log.OpUpdate, err)
		return
	}
	NewJSONResponse().Field("expense", e).Write(w)
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		DomainError(err).Write(w)
		return
	}
	e, err := s.svc.Expenses.GetExpense(r.Context(), id)
	if err != nil {
		fail(w, r, log.OpRead, err)
		return
	}
	NewJSONResponse().Field("expense", e).Write(w)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		DomainError(err).Write(w)
		return
	}
	if err := s.svc.Expenses.DeleteExpense(r.Context(), id, r.Header.Get(ConfirmTokenHeader)); err != nil {
		fail(w, r, log.OpDelete, err)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Expense deleted",
		log.FieldOperation, log.OpDelete,
		log.FieldExpenseID, id)
	NewJSONResponse().Field("id", id).Write(w)
}

func (s *Server) handleAllExpenses(w http.ResponseWriter, r *http.Request) {
	es, err := s.svc.Expenses.AllExpenses(r.Context())
	if err != nil {
		fail(w, r, log.OpList, err)
		return
	}
	NewJSONResponse().Field("expenses", es).Write(w)
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	page, err := s.svc.Expenses.ListExpenses(r.Context(), ParsePageRequest(r.URL.Query()))
	if err != nil {
		fail(w, r, log.OpList, err)
		return
	}
	NewJSONResponse().
		Field("expenses", page.Items).
		Field("total", page.Total).
		Field("page", page.Page).
		Field("limit", page.Limit).
		Field("total_pages", page.TotalPages).
		Write(w)
}
