package http

import (
	"bytes"
	"net/http"
	"strconv"
	"time"

	"daan/internal/export"
	"daan/internal/log"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.svc.Reports.Dashboard(r.Context())
	if err != nil {
		fail(w, r, log.OpRead, err)
		return
	}
	NewJSONResponse().
		Field("total_cash_in", d.TotalCashIn).
		Field("total_pending", d.TotalPending).
		Field("total_expense", d.TotalExpense).
		Field("date_wise_donations", d.DateWiseDonations).
		Write(w)
}

func (s *Server) handlePending(w http.ResponseWriter, r *http.Request) {
	rows, err := s.svc.Reports.Pending(r.Context())
	if err != nil {
		fail(w, r, log.OpRead, err)
		return
	}
	NewJSONResponse().Field("pending", rows).Write(w)
}

func (s *Server) handleExportDonations(w http.ResponseWriter, r *http.Request) {
	ds, err := s.svc.Donations.AllDonations(r.Context())
	if err != nil {
		fail(w, r, log.OpExport, err)
		return
	}
	var buf bytes.Buffer
	if err := export.WriteDonations(&buf, ds); err != nil {
		fail(w, r, log.OpExport, err)
		return
	}
	writeAttachment(w, export.FileName("donations", time.Now()), buf.Bytes())
}

func (s *Server) handleExportExpenses(w http.ResponseWriter, r *http.Request) {
	es, err := s.svc.Expenses.AllExpenses(r.Context())
	if err != nil {
		fail(w, r, log.OpExport, err)
		return
	}
	var buf bytes.Buffer
	if err := export.WriteExpenses(&buf, es); err != nil {
		fail(w, r, log.OpExport, err)
		return
	}
	writeAttachment(w, export.FileName("expenses", time.Now()), buf.Bytes())
}

// writeAttachment sends a fully rendered workbook so a failed render can
// still return the JSON envelope.
func writeAttachment(w http.ResponseWriter, name string, body []byte) {
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
