package play

// Wallet holds the session balance. It enforces no floor; callers check the
// balance before staking. A Wallet is owned by the dispatcher goroutine.
type Wallet struct {
	balance float64
}

// NewWallet returns a wallet seeded with balance.
func NewWallet(balance float64) *Wallet {
	return &Wallet{balance: balance}
}

func (w *Wallet) Add(amount float64) { w.balance += amount }

func (w *Wallet) Sub(amount float64) { w.balance -= amount }

// Set replaces the balance with a value fetched from the betting platform.
func (w *Wallet) Set(balance float64) { w.balance = balance }

func (w *Wallet) Balance() float64 { return w.balance }
