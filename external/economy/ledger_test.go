package economy

import (
	"errors"
	"sync"
	"testing"
)

func TestOpenAndBalance(t *testing.T) {
	l := NewLedger()

	if err := l.Open("shop_1", 5000); err != nil {
		t.Fatalf("Failed to open account: %v", err)
	}

	bal, err := l.Balance("shop_1")
	if err != nil {
		t.Fatalf("Failed to query balance: %v", err)
	}
	if bal != 5000 {
		t.Errorf("Expected balance 5000, got %d", bal)
	}

	if err := l.Open("shop_1", 0); !errors.Is(err, ErrAccountExists) {
		t.Errorf("Expected ErrAccountExists, got %v", err)
	}
	if _, err := l.Balance("nobody"); !errors.Is(err, ErrNoAccount) {
		t.Errorf("Expected ErrNoAccount, got %v", err)
	}
	if err := l.Open("shop_2", -1); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("Expected ErrInvalidAmount for negative opening, got %v", err)
	}
}

func TestDepositAndWithdraw(t *testing.T) {
	l := NewLedger()
	l.Open("shop_1", 1000)

	if err := l.Deposit("shop_1", 250, "coffee sale"); err != nil {
		t.Fatalf("Failed to deposit: %v", err)
	}
	if err := l.Withdraw("shop_1", 750, "bean order"); err != nil {
		t.Fatalf("Failed to withdraw: %v", err)
	}

	bal, _ := l.Balance("shop_1")
	if bal != 500 {
		t.Errorf("Expected balance 500, got %d", bal)
	}

	// Overdraw leaves the balance untouched
	if err := l.Withdraw("shop_1", 501, "too much"); !errors.Is(err, ErrInsufficientFunds) {
		t.Errorf("Expected ErrInsufficientFunds, got %v", err)
	}
	if bal, _ = l.Balance("shop_1"); bal != 500 {
		t.Errorf("Balance changed on failed withdraw: %d", bal)
	}

	if err := l.Deposit("shop_1", 0, "nothing"); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("Expected ErrInvalidAmount for zero deposit, got %v", err)
	}
	if err := l.Withdraw("shop_1", -5, "negative"); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("Expected ErrInvalidAmount for negative withdraw, got %v", err)
	}
	if err := l.Deposit("nobody", 100, "lost"); !errors.Is(err, ErrNoAccount) {
		t.Errorf("Expected ErrNoAccount, got %v", err)
	}
}

func TestTransfer(t *testing.T) {
	l := NewLedger()
	l.Open("shop_1", 1000)
	l.Open("market", 50000)

	if err := l.Transfer("shop_1", "market", 400, "buy green beans"); err != nil {
		t.Fatalf("Failed to transfer: %v", err)
	}

	shopBal, _ := l.Balance("shop_1")
	marketBal, _ := l.Balance("market")
	if shopBal != 600 {
		t.Errorf("Expected shop balance 600, got %d", shopBal)
	}
	if marketBal != 50400 {
		t.Errorf("Expected market balance 50400, got %d", marketBal)
	}

	// Failed transfers must not move anything
	if err := l.Transfer("shop_1", "market", 601, "overdraw"); !errors.Is(err, ErrInsufficientFunds) {
		t.Errorf("Expected ErrInsufficientFunds, got %v", err)
	}
	if err := l.Transfer("shop_1", "nobody", 100, "missing"); !errors.Is(err, ErrNoAccount) {
		t.Errorf("Expected ErrNoAccount for missing credit side, got %v", err)
	}
	if err := l.Transfer("nobody", "market", 100, "missing"); !errors.Is(err, ErrNoAccount) {
		t.Errorf("Expected ErrNoAccount for missing debit side, got %v", err)
	}
	if shopBal, _ = l.Balance("shop_1"); shopBal != 600 {
		t.Errorf("Shop balance changed on failed transfers: %d", shopBal)
	}
	if marketBal, _ = l.Balance("market"); marketBal != 50400 {
		t.Errorf("Market balance changed on failed transfers: %d", marketBal)
	}

	// Transfers conserve the total
	if total := l.TotalBalance(); total != 51000 {
		t.Errorf("Expected total 51000, got %d", total)
	}
}

func TestJournal(t *testing.T) {
	l := NewLedger()
	l.Open("shop_1", 1000)
	l.Open("market", 0) // zero opening writes no entry
	l.Transfer("shop_1", "market", 300, "buy milk")
	l.Withdraw("market", 100, "payout")

	entries := l.Journal(0)
	if len(entries) != 3 {
		t.Fatalf("Expected 3 journal entries, got %d", len(entries))
	}
	for i, e := range entries {
		if e.Seq != uint64(i+1) {
			t.Errorf("Entry %d: expected seq %d, got %d", i, i+1, e.Seq)
		}
	}

	tx := entries[1]
	if tx.From != "shop_1" || tx.To != "market" || tx.Amount != 300 || tx.Reason != "buy milk" {
		t.Errorf("Unexpected transfer entry: %+v", tx)
	}
	if entries[0].From != "" {
		t.Errorf("Opening entry should have empty From, got %q", entries[0].From)
	}
	if entries[2].To != "" {
		t.Errorf("Withdraw entry should have empty To, got %q", entries[2].To)
	}

	// Limit returns the newest entries
	tail := l.Journal(2)
	if len(tail) != 2 || tail[0].Seq != 2 || tail[1].Seq != 3 {
		t.Errorf("Unexpected limited journal: %+v", tail)
	}
}

func TestConcurrentTransfersConserveTotal(t *testing.T) {
	l := NewLedger()
	l.Open("shop_1", 10000)
	l.Open("shop_2", 10000)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				l.Transfer("shop_1", "shop_2", 1, "ping")
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				l.Transfer("shop_2", "shop_1", 1, "pong")
			}
		}()
	}
	wg.Wait()

	if total := l.TotalBalance(); total != 20000 {
		t.Errorf("Expected total 20000 after concurrent transfers, got %d", total)
	}
	b1, _ := l.Balance("shop_1")
	b2, _ := l.Balance("shop_2")
	if b1 < 0 || b2 < 0 {
		t.Errorf("Negative balance after concurrent transfers: shop_1=%d shop_2=%d", b1, b2)
	}
}
