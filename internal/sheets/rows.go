package sheets

import "daan/internal/core"

// Column layouts shared by every mirror adapter. The first column is always
// the action so a deleted record can be told apart from its earlier saves.
var (
	DonationHeader    = []any{"Action", "ID", "Donor", "Date", "Category", "Amount", "Method", "Reference", "Pending", "Cleared"}
	InstallmentHeader = []any{"ID", "Donation ID", "Date", "Amount Paid", "Method", "Reference"}
	ExpenseHeader     = []any{"Action", "ID", "Date", "Title", "Amount", "Description", "Method", "Reference"}
)

func DonationRow(d core.Donation, action Action) []any {
	cleared := ""
	if d.ClearedDate != nil {
		cleared = d.ClearedDate.String()
	}
	return []any{
		string(action),
		d.ID,
		d.DonorName,
		d.Date.String(),
		d.Category,
		d.Amount.Float(),
		string(d.PaymentMethod),
		d.TransactionID,
		d.Pending.Float(),
		cleared,
	}
}

func InstallmentRow(i core.Installment) []any {
	return []any{
		i.ID,
		i.DonationID,
		i.Date.String(),
		i.AmountPaid.Float(),
		string(i.PaymentMethod),
		i.TransactionID,
	}
}

func ExpenseRow(e core.Expense, action Action) []any {
	return []any{
		string(action),
		e.ID,
		e.Date.String(),
		e.Title,
		e.Amount.Float(),
		e.Description,
		string(e.PaymentMethod),
		e.TransactionID,
	}
}
