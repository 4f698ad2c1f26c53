package http

import (
	"net/http"

	"daan/internal/core"
	"daan/internal/log"
)

func (s *Server) handleSearchDonors(w http.ResponseWriter, r *http.Request) {
	names, err := s.svc.Donations.SearchDonors(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		fail(w, r, log.OpRead, err)
		return
	}
	NewJSONResponse().Field("donors", names).Write(w)
}

func (s *Server) handleCreateDonation(w http.ResponseWriter, r *http.Request) {
	var in core.DonationInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeDecodeError(w, err)
		return
	}
	in.PaymentMethod = defaultMethod(in.PaymentMethod)

	d, err := s.svc.Donations.AddDonation(r.Context(), in)
	if err != nil {
		fail(w, r, log.OpCreate, err)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Donation created",
		log.FieldOperation, log.OpCreate,
		log.FieldDonationID, d.ID,
		log.FieldAmountCents, d.Amount.Cents,
		log.FieldPendingCents, d.Pending.Cents)
	NewJSONResponse().Status(http.StatusCreated).Field("donation", d).Write(w)
}

func (s *Server) handleUpdateDonation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		DomainError(err).Write(w)
		return
	}
	var in core.DonationInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeDecodeError(w, err)
		return
	}
	in.PaymentMethod = defaultMethod(in.PaymentMethod)

	d, err := s.svc.Donations.UpdateDonation(r.Context(), id, in)
	if err != nil {
		fail(w, r, log.OpUpdate, err)
		return
	}
	NewJSONResponse().Field("donation", d).Write(w)
}

func (s *Server) handleGetDonation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		DomainError(err).Write(w)
		return
	}
	d, err := s.svc.Donations.GetDonation(r.Context(), id)
	if err != nil {
		fail(w, r, log.OpRead, err)
		return
	}
	NewJSONResponse().Field("donation", d).Write(w)
}

func (s *Server) handleDeleteDonation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		DomainError(err).Write(w)
		return
	}
	if err := s.svc.Donations.DeleteDonation(r.Context(), id, r.Header.Get(ConfirmTokenHeader)); err != nil {
		fail(w, r, log.OpDelete, err)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Donation deleted",
		log.FieldOperation, log.OpDelete,
		log.FieldDonationID, id)
	NewJSONResponse().Field("id", id).Write(w)
}

func (s *Server) handleDonorHistory(w http.ResponseWriter, r *http.Request) {
	h, err := s.svc.Donations.DonorHistory(r.Context(), pathName(r))
	if err != nil {
		fail(w, r, log.OpRead, err)
		return
	}
	NewJSONResponse().Field("history", h).Write(w)
}

func (s *Server) handleAllDonations(w http.ResponseWriter, r *http.Request) {
	ds, err := s.svc.Donations.AllDonations(r.Context())
	if err != nil {
		fail(w, r, log.OpList, err)
		return
	}
	NewJSONResponse().Field("donations", ds).Write(w)
}

func (s *Server) handleListDonations(w http.ResponseWriter, r *http.Request) {
	page, err := s.svc.Donations.ListDonations(r.Context(), ParsePageRequest(r.URL.Query()))
	if err != nil {
		fail(w, r, log.OpList, err)
		return
	}
	NewJSONResponse().
		Field("donations", page.Items).
		Field("total", page.Total).
		Field("page", page.Page).
		Field("limit", page.Limit).
		Field("total_pages", page.TotalPages).
		Write(w)
}
