package core

import "testing"

func TestAllocateOldestFirst(t *testing.T) {
	a := Outstanding{DonationID: 1, Date: NewDate(2024, 1, 1), Pending: Cents(5000)}
	b := Outstanding{DonationID: 2, Date: NewDate(2024, 2, 1), Pending: Cents(8000)}

	// Input deliberately out of order.
	res := AllocateOldestFirst(Cents(10000), []Outstanding{b, a})

	if len(res.Allocations) != 2 {
		t.Fatalf("expected 2 allocations, got %d", len(res.Allocations))
	}
	if got := res.Allocations[0]; got.DonationID != 1 || got.Applied.Cents != 5000 || got.BalanceAfter.Cents != 0 {
		t.Fatalf("unexpected first allocation %+v", got)
	}
	if got := res.Allocations[1]; got.DonationID != 2 || got.Applied.Cents != 5000 || got.BalanceAfter.Cents != 3000 {
		t.Fatalf("unexpected second allocation %+v", got)
	}
	if res.Applied.Cents != 10000 || res.Discarded.Cents != 0 {
		t.Fatalf("unexpected totals %+v", res)
	}
}

func TestAllocateTiesBreakByID(t *testing.T) {
	day := NewDate(2024, 5, 5)
	res := AllocateOldestFirst(Cents(100), []Outstanding{
		{DonationID: 9, Date: day, Pending: Cents(100)},
		{DonationID: 3, Date: day, Pending: Cents(100)},
	})
	if len(res.Allocations) != 1 || res.Allocations[0].DonationID != 3 {
		t.Fatalf("expected lowest id first, got %+v", res.Allocations)
	}
}

func TestAllocateDiscardsExcess(t *testing.T) {
	res := AllocateSingle(Cents(100000), Outstanding{DonationID: 1, Date: NewDate(2024, 1, 1), Pending: Cents(6000)})
	if len(res.Allocations) != 1 || res.Allocations[0].Applied.Cents != 6000 {
		t.Fatalf("expected clamp to 6000, got %+v", res.Allocations)
	}
	if res.Discarded.Cents != 94000 {
		t.Fatalf("expected 94000 discarded, got %d", res.Discarded.Cents)
	}
}

func TestAllocateNothingOwed(t *testing.T) {
	res := AllocateOldestFirst(Cents(500), []Outstanding{{DonationID: 1, Date: NewDate(2024, 1, 1), Pending: Cents(0)}})
	if len(res.Allocations) != 0 || res.Applied.Cents != 0 || res.Discarded.Cents != 500 {
		t.Fatalf("unexpected result %+v", res)
	}
	res = AllocateOldestFirst(Cents(500), nil)
	if len(res.Allocations) != 0 {
		t.Fatalf("expected no allocations for empty input")
	}
}

func TestAllocateConservation(t *testing.T) {
	items := []Outstanding{
		{DonationID: 1, Date: NewDate(2023, 12, 1), Pending: Cents(333)},
		{DonationID: 2, Date: NewDate(2024, 1, 1), Pending: Cents(1)},
		{DonationID: 3, Date: NewDate(2024, 1, 2), Pending: Cents(9999)},
	}
	for _, pay := range []int64{1, 333, 334, 5000, 10333, 20000} {
		res := AllocateOldestFirst(Cents(pay), items)
		var sum int64
		for _, a := range res.Allocations {
			if a.BalanceBefore.Cents-a.Applied.Cents != a.BalanceAfter.Cents || a.BalanceAfter.IsNegative() {
				t.Fatalf("pay %d: inconsistent allocation %+v", pay, a)
			}
			sum += a.Applied.Cents
		}
		if sum != res.Applied.Cents || sum+res.Discarded.Cents != pay {
			t.Fatalf("pay %d: applied %d discarded %d", pay, sum, res.Discarded.Cents)
		}
	}
}

func TestSortOldestFirst(t *testing.T) {
	items := []Outstanding{
		{DonationID: 4, Date: NewDate(2024, 3, 1), Pending: Cents(100)},
		{DonationID: 9, Date: NewDate(2024, 1, 1), Pending: Cents(100)},
		{DonationID: 2, Date: NewDate(2024, 3, 1), Pending: Cents(100)},
		{DonationID: 5, Date: NewDate(2023, 12, 31), Pending: Cents(100)},
	}
	SortOldestFirst(items)

	want := []int64{5, 9, 2, 4}
	for i, id := range want {
		if items[i].DonationID != id {
			t.Fatalf("position %d: got donation %d, want %d (order %+v)", i, items[i].DonationID, id, items)
		}
	}
}
