// Package economy holds the money side of the game: a shared balance
// ledger and a market price list. All amounts are integer cents so no
// arithmetic ever touches floating point.
package economy

import (
	"errors"
	"sync"
	"time"
)

// Ledger errors.
var (
	ErrNoAccount         = errors.New("account does not exist")
	ErrAccountExists     = errors.New("account already exists")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidAmount     = errors.New("amount must be positive")
)

// AccountID identifies a ledger account (a player's wallet, the market
// house account, etc).
type AccountID string

// Entry is one journal line. The journal is append-only; Seq increases
// by one per entry. A mint (Deposit/Open) has an empty From, a burn
// (Withdraw) has an empty To.
type Entry struct {
	Seq       uint64    `json:"seq"`
	From      AccountID `json:"from,omitempty"`
	To        AccountID `json:"to,omitempty"`
	Amount    int64     `json:"amount"` // cents
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

// Ledger is a thread-safe set of accounts with non-negative balances.
// Transfers move money atomically between two accounts: either both
// sides change or neither does, and the sum of all balances is only
// changed by explicit mints and burns.
type Ledger struct {
	mu       sync.RWMutex
	balances map[AccountID]int64
	journal  []Entry
	nextSeq  uint64
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		balances: make(map[AccountID]int64, 16),
	}
}

// Open creates an account with an opening balance (may be zero).
// Returns ErrAccountExists if the account is already open.
func (l *Ledger) Open(id AccountID, opening int64) error {
	if opening < 0 {
		return ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.balances[id]; ok {
		return ErrAccountExists
	}
	l.balances[id] = opening
	if opening > 0 {
		l.appendEntry("", id, opening, "opening balance")
	}
	return nil
}

// Balance returns the current balance of an account.
func (l *Ledger) Balance(id AccountID) (int64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	bal, ok := l.balances[id]
	if !ok {
		return 0, ErrNoAccount
	}
	return bal, nil
}

// Deposit mints amount cents into an account.
func (l *Ledger) Deposit(id AccountID, amount int64, reason string) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.balances[id]; !ok {
		return ErrNoAccount
	}
	l.balances[id] += amount
	l.appendEntry("", id, amount, reason)
	return nil
}

// Withdraw burns amount cents from an account. Returns
// ErrInsufficientFunds if the balance would go negative.
func (l *Ledger) Withdraw(id AccountID, amount int64, reason string) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	bal, ok := l.balances[id]
	if !ok {
		return ErrNoAccount
	}
	if bal < amount {
		return ErrInsufficientFunds
	}
	l.balances[id] = bal - amount
	l.appendEntry(id, "", amount, reason)
	return nil
}

// Transfer moves amount cents from one account to another atomically.
// Both accounts must exist and the debit side must cover the amount;
// on any error neither balance changes.
func (l *Ledger) Transfer(from, to AccountID, amount int64, reason string) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	fromBal, ok := l.balances[from]
	if !ok {
		return ErrNoAccount
	}
	if _, ok := l.balances[to]; !ok {
		return ErrNoAccount
	}
	if fromBal < amount {
		return ErrInsufficientFunds
	}

	l.balances[from] = fromBal - amount
	l.balances[to] += amount
	l.appendEntry(from, to, amount, reason)
	return nil
}

// TotalBalance returns the sum of all balances.
func (l *Ledger) TotalBalance() int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var total int64
	for _, bal := range l.balances {
		total += bal
	}
	return total
}

// Journal returns a copy of the most recent limit entries in order.
// A non-positive limit returns the whole journal.
func (l *Ledger) Journal(limit int) []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	start := 0
	if limit > 0 && len(l.journal) > limit {
		start = len(l.journal) - limit
	}
	out := make([]Entry, len(l.journal)-start)
	copy(out, l.journal[start:])
	return out
}

// appendEntry records a journal line. Caller must hold l.mu.
func (l *Ledger) appendEntry(from, to AccountID, amount int64, reason string) {
	l.nextSeq++
	l.journal = append(l.journal, Entry{
		Seq:       l.nextSeq,
		From:      from,
		To:        to,
		Amount:    amount,
		Reason:    reason,
		Timestamp: time.Now(),
	})
}
