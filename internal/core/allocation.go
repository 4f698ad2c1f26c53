package core

import "sort"

// Outstanding is a donation balance that a payment can be applied to.
type Outstanding struct {
	DonationID int64
	Date       Date
	Pending    Money
}

// Allocation is the part of a payment applied to one donation.
type Allocation struct {
	DonationID    int64 `json:"donation_id"`
	Applied       Money `json:"amount_applied"`
	BalanceBefore Money `json:"balance_before"`
	BalanceAfter  Money `json:"balance_after"`
}

// AllocationResult is the outcome of planning a payment.
type AllocationResult struct {
	Allocations []Allocation `json:"allocations"`
	Requested   Money        `json:"amount_requested"`
	Applied     Money        `json:"amount_applied"`
	// Discarded is the part of the request exceeding everything owed. It is
	// dropped, never credited.
	Discarded Money `json:"amount_discarded"`
}

// SortOldestFirst orders balances by date ascending, then donation id ascending.
func SortOldestFirst(items []Outstanding) {
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].Date.Equal(items[j].Date.Time) {
			return items[i].Date.Before(items[j].Date)
		}
		return items[i].DonationID < items[j].DonationID
	})
}

// AllocateOldestFirst spreads amount across items in oldest-first order.
// Items without a positive balance are skipped. The input slice is not
// reordered.
func AllocateOldestFirst(amount Money, items []Outstanding) AllocationResult {
	ordered := make([]Outstanding, len(items))
	copy(ordered, items)
	SortOldestFirst(ordered)

	res := AllocationResult{Requested: amount}
	remaining := amount
	for _, it := range ordered {
		if !remaining.IsPositive() {
			break
		}
		if !it.Pending.IsPositive() {
			continue
		}
		applied := MinMoney(remaining, it.Pending)
		res.Allocations = append(res.Allocations, Allocation{
			DonationID:    it.DonationID,
			Applied:       applied,
			BalanceBefore: it.Pending,
			BalanceAfter:  it.Pending.Sub(applied),
		})
		res.Applied = res.Applied.Add(applied)
		remaining = remaining.Sub(applied)
	}
	if remaining.IsPositive() {
		res.Discarded = remaining
	}
	return res
}

// AllocateSingle clamps amount to one balance.
func AllocateSingle(amount Money, item Outstanding) AllocationResult {
	return AllocateOldestFirst(amount, []Outstanding{item})
}
