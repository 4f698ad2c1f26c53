package core

import "strings"

const (
	Offline PaymentMethod = "Offline"
	Online  PaymentMethod = "Online"
)

// Canonical donation categories. Any other non-empty text is accepted too.
const (
	CategoryPrathamAbhishek = "Pratham Abhishek"
	CategoryShantiDhara     = "Shanti Dhara"
)

const maxTextLen = 500

type (
	PaymentMethod string

	// DonationInput carries the editable fields of a donation.
	DonationInput struct {
		DonorName     string        `json:"name"`
		Date          Date          `json:"date"`
		Category      string        `json:"category"`
		Amount        Money         `json:"amount"`
		PaymentMethod PaymentMethod `json:"payment_method"`
		TransactionID string        `json:"transaction_id"`
		// Pending is the outstanding balance. On update a nil value keeps the
		// stored balance.
		Pending *Money `json:"pending_amount"`
	}

	Donation struct {
		ID            int64         `json:"id"`
		DonorID       int64         `json:"donor_id"`
		DonorName     string        `json:"donor_name"`
		Date          Date          `json:"date"`
		Category      string        `json:"category"`
		Amount        Money         `json:"amount"`
		PaymentMethod PaymentMethod `json:"payment_method"`
		TransactionID string        `json:"transaction_id"`
		Pending       Money         `json:"pending_amount"`
		ClearedDate   *Date         `json:"cleared_date"`
	}

	Expense struct {
		ID            int64         `json:"id"`
		Date          Date          `json:"date"`
		Title         string        `json:"title"`
		Amount        Money         `json:"amount"`
		Description   string        `json:"description"`
		PaymentMethod PaymentMethod `json:"payment_method"`
		TransactionID string        `json:"transaction_id"`
	}

	// Installment is one recorded payment against a donation's pending balance.
	Installment struct {
		ID            int64         `json:"id"`
		DonationID    int64         `json:"donation_id"`
		Date          Date          `json:"date"`
		AmountPaid    Money         `json:"amount_paid"`
		PaymentMethod PaymentMethod `json:"payment_method"`
		TransactionID string        `json:"transaction_id"`
	}

	// Payment is an incoming settlement request.
	Payment struct {
		Amount        Money         `json:"amount_paid"`
		Date          Date          `json:"date"`
		PaymentMethod PaymentMethod `json:"payment_method"`
		TransactionID string        `json:"transaction_id"`
	}
)

// Fully settled donations have no pending balance left.
func (d Donation) IsSettled() bool { return d.Pending.Cents <= 0 }

// ParsePaymentMethod maps user input to a PaymentMethod. Empty input means Offline.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "offline":
		return Offline, nil
	case "online":
		return Online, nil
	default:
		return "", ErrInvalidMethod
	}
}

func (m *PaymentMethod) UnmarshalJSON(b []byte) error {
	raw := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if raw == "null" {
		raw = ""
	}
	parsed, err := ParsePaymentMethod(raw)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

func (m PaymentMethod) Validate() error {
	switch m {
	case Offline, Online:
		return nil
	default:
		return ErrInvalidMethod
	}
}

// validateMethodReference enforces that online payments carry a reference.
func validateMethodReference(m PaymentMethod, ref string) error {
	if err := m.Validate(); err != nil {
		return err
	}
	if m == Online && strings.TrimSpace(ref) == "" {
		return ErrMissingReference
	}
	if len(ref) > maxTextLen {
		return ErrTextTooLong
	}
	return nil
}

// Validate checks a donation for create. The donor name is checked but never
// normalized: distinct spellings are distinct donors.
func (in DonationInput) Validate() error {
	if strings.TrimSpace(in.DonorName) == "" {
		return ErrEmptyDonorName
	}
	if len(in.DonorName) > maxTextLen {
		return ErrTextTooLong
	}
	return in.ValidateFields()
}

// ValidateFields checks everything but the donor, as used by update.
func (in DonationInput) ValidateFields() error {
	if err := in.Date.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(in.Category) == "" {
		return ErrEmptyCategory
	}
	if len(in.Category) > maxTextLen {
		return ErrTextTooLong
	}
	if in.Amount.IsNegative() {
		return ErrNegativeAmount
	}
	if in.Pending != nil && in.Pending.IsNegative() {
		return ErrNegativePending
	}
	return validateMethodReference(in.PaymentMethod, in.TransactionID)
}

func (e Expense) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(e.Title) == "" {
		return ErrEmptyTitle
	}
	if len(e.Title) > maxTextLen || len(e.Description) > 4*maxTextLen {
		return ErrTextTooLong
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	return validateMethodReference(e.PaymentMethod, e.TransactionID)
}

func (p Payment) Validate() error {
	if err := p.Amount.Validate(); err != nil {
		return err
	}
	if err := p.Date.Validate(); err != nil {
		return err
	}
	return validateMethodReference(p.PaymentMethod, p.TransactionID)
}
