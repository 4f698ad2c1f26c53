package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"daan/internal/core"
)

const (
	maxBodyBytes = 1 << 20

	// ConfirmTokenHeader carries the secret that authorizes a delete.
	ConfirmTokenHeader = "X-Confirm-Token"
)

// errBadBody marks request bodies that are not valid JSON at all.
var errBadBody = errors.New("invalid request body")

// decodeJSON reads a single JSON object into dst. Field-level failures from
// core types (amounts, dates, methods) keep their validation class; anything
// else is a malformed body.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, core.ErrValidation) {
			return err
		}
		return fmt.Errorf("%w: %v", errBadBody, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: trailing data", errBadBody)
	}
	return nil
}

// writeDecodeError renders a decodeJSON failure.
func writeDecodeError(w http.ResponseWriter, err error) {
	if errors.Is(err, errBadBody) {
		BadRequestError(err.Error()).Write(w)
		return
	}
	DomainError(err).Write(w)
}

// defaultMethod treats an omitted payment method as Offline.
func defaultMethod(m core.PaymentMethod) core.PaymentMethod {
	if m == "" {
		return core.Offline
	}
	return m
}

// pathID parses the {id} URL parameter.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, core.ErrInvalidID
	}
	return id, nil
}

// pathName returns the {name} URL parameter, undoing escapes chi leaves in
// place when the raw path was encoded.
func pathName(r *http.Request) string {
	name := chi.URLParam(r, "name")
	if unescaped, err := url.PathUnescape(name); err == nil {
		return unescaped
	}
	return name
}

// ParsePageRequest reads page, limit and search. Unparseable numbers are left
// at zero for the service to normalize.
func ParsePageRequest(query url.Values) core.PageRequest {
	page, _ := strconv.Atoi(strings.TrimSpace(query.Get("page")))
	limit, _ := strconv.Atoi(strings.TrimSpace(query.Get("limit")))
	return core.PageRequest{
		Page:   page,
		Limit:  limit,
		Search: strings.TrimSpace(query.Get("search")),
	}
}
