package core

// DonorPending is the outstanding total of one donor.
type DonorPending struct {
	Name         string `json:"name"`
	TotalPending Money  `json:"total_pending"`
}

// DateTotal is the donation total received on one date.
type DateTotal struct {
	Date  Date  `json:"date"`
	Total Money `json:"total"`
}

// Dashboard is the aggregate overview of the ledger.
type Dashboard struct {
	TotalCashIn       Money       `json:"total_cash_in"`
	TotalPending      Money       `json:"total_pending"`
	TotalExpense      Money       `json:"total_expense"`
	DateWiseDonations []DateTotal `json:"date_wise_donations"`
}

// DonorHistory lists a donor's donations, newest first, with totals.
type DonorHistory struct {
	Name         string     `json:"name"`
	Donations    []Donation `json:"donations"`
	TotalPaid    Money      `json:"total_paid"`
	TotalPending Money      `json:"total_pending"`
}

// PageRequest selects one page of a filtered listing. Page is 1-based.
type PageRequest struct {
	Page   int
	Limit  int
	Search string
}

// Offset is the number of rows skipped before the page.
func (p PageRequest) Offset() int {
	if p.Page < 1 || p.Limit < 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

// Page is one page of results plus the size of the whole filtered set.
type Page[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"total_pages"`
}

// NewPage assembles a page, never returning nil Items.
func NewPage[T any](items []T, total int64, req PageRequest) Page[T] {
	if items == nil {
		items = []T{}
	}
	pages := 0
	if total > 0 && req.Limit > 0 {
		pages = int((total + int64(req.Limit) - 1) / int64(req.Limit))
	}
	return Page[T]{Items: items, Total: total, Page: req.Page, Limit: req.Limit, TotalPages: pages}
}
