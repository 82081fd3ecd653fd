package notifier

// DefaultConcurrency bounds in-flight deliveries across all flows.
const DefaultConcurrency = 8

// Limiter is a counting semaphore shared by every delivery.
type Limiter struct {
	slots chan struct{}
}

func NewLimiter(n int) *Limiter {
	if n <= 0 {
		n = DefaultConcurrency
	}
	return &Limiter{slots: make(chan struct{}, n)}
}

// Run executes fn once a slot is free. The slot is released even if fn
// panics; the panic is re-raised for the caller.
func (l *Limiter) Run(fn func()) {
	l.slots <- struct{}{}
	defer func() { <-l.slots }()
	fn()
}

// InFlight reports how many slots are taken.
func (l *Limiter) InFlight() int {
	return len(l.slots)
}
