package http

import (
	"net/http"

	"daan/internal/core"
	"daan/internal/log"
)

func (s *Server) handlePayDonation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		DomainError(err).Write(w)
		return
	}
	var p core.Payment
	if err := decodeJSON(w, r, &p); err != nil {
		writeDecodeError(w, err)
		return
	}
	p.PaymentMethod = defaultMethod(p.PaymentMethod)

	res, err := s.svc.Settlement.SettleOne(r.Context(), id, p)
	if err != nil {
		fail(w, r, log.OpSettle, err)
		return
	}
	NewJSONResponse().Field("settlement", res).Write(w)
}

func (s *Server) handlePayDonor(w http.ResponseWriter, r *http.Request) {
	var p core.Payment
	if err := decodeJSON(w, r, &p); err != nil {
		writeDecodeError(w, err)
		return
	}
	p.PaymentMethod = defaultMethod(p.PaymentMethod)

	res, err := s.svc.Settlement.SettleByDonor(r.Context(), pathName(r), p)
	if err != nil {
		fail(w, r, log.OpSettle, err)
		return
	}
	NewJSONResponse().Field("settlement", res).Write(w)
}

func (s *Server) handleListPayments(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		DomainError(err).Write(w)
		return
	}
	items, err := s.svc.Donations.Installments(r.Context(), id)
	if err != nil {
		fail(w, r, log.OpList, err)
		return
	}
	NewJSONResponse().Field("payments", items).Write(w)
}
