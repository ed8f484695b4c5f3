package export

import "context"

// ConcurrencyGate enforces the two job-admission bounds from spec §5: a cap
// on large (multi-strategy) exports and a cap on exports in flight overall.
// Both are non-blocking; a saturated gate fails fast with KindBackpressure
// rather than queuing, since a queued caller has no way to know its
// position or an ETA.
type ConcurrencyGate struct {
	total chan struct{}
	large chan struct{}
}

// NewConcurrencyGate builds a gate with the given total and large-export
// capacities. A non-positive value disables that particular bound.
func NewConcurrencyGate(totalCap, largeCap int) *ConcurrencyGate {
	g := &ConcurrencyGate{}
	if totalCap > 0 {
		g.total = make(chan struct{}, totalCap)
	}
	if largeCap > 0 {
		g.large = make(chan struct{}, largeCap)
	}
	return g
}

// admission is the token returned by Acquire; Release must be called
// exactly once per successful Acquire.
type admission struct {
	gate  *ConcurrencyGate
	large bool
}

// Acquire attempts to admit a job, returning KindBackpressure immediately if
// either bound is saturated. isLarge marks a job the Strategy Planner has
// already determined will use the multi-file strategy.
func (g *ConcurrencyGate) Acquire(ctx context.Context, isLarge bool) (*admission, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if g.total != nil {
		select {
		case g.total <- struct{}{}:
		default:
			return nil, NewError(KindBackpressure, "too many exports in flight", nil)
		}
	}
	if isLarge && g.large != nil {
		select {
		case g.large <- struct{}{}:
		default:
			if g.total != nil {
				<-g.total
			}
			return nil, NewError(KindBackpressure, "too many large exports in flight", nil)
		}
	}
	return &admission{gate: g, large: isLarge}, nil
}

// Release returns the admission's tokens to the gate. Safe to call once per
// successful Acquire; a nil admission is a no-op so deferred releases in
// early-return paths don't need a guard.
func (a *admission) Release() {
	if a == nil {
		return
	}
	if a.large && a.gate.large != nil {
		<-a.gate.large
	}
	if a.gate.total != nil {
		<-a.gate.total
	}
}
