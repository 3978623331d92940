package execution

import "sync"

// Correlator reconciles asynchronous gateway events with the orders this
// process sent. Reports for ids it never tracked are still recorded so a
// shared gateway remains observable; fills for unknown ids are dropped to
// keep memory bounded to orders we actually originated.
type Correlator struct {
	mu      sync.Mutex
	pending map[string]struct{}
	status  map[string]string
	fills   map[string][]Fill
}

// NewCorrelator returns an empty correlator.
func NewCorrelator() *Correlator {
	return &Correlator{
		pending: make(map[string]struct{}),
		status:  make(map[string]string),
		fills:   make(map[string][]Fill),
	}
}

// Track registers a dispatched client id as awaiting its first report.
func (c *Correlator) Track(clientID string) {
	if clientID == "" {
		return
	}
	c.mu.Lock()
	c.pending[clientID] = struct{}{}
	c.mu.Unlock()
}

// OnReport records the latest status for the order and clears it from the
// pending set. Unknown ids never error.
func (c *Correlator) OnReport(r Report) {
	if r.ClientID == "" {
		return
	}
	c.mu.Lock()
	c.status[r.ClientID] = r.Status
	delete(c.pending, r.ClientID)
	c.mu.Unlock()
}

// OnFill appends the fill to the order's history. Fills for ids this
// correlator has never seen are discarded silently.
func (c *Correlator) OnFill(f Fill) {
	if f.ClientID == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.knownLocked(f.ClientID) {
		return
	}
	c.fills[f.ClientID] = append(c.fills[f.ClientID], f)
}

func (c *Correlator) knownLocked(clientID string) bool {
	if _, ok := c.pending[clientID]; ok {
		return true
	}
	if _, ok := c.status[clientID]; ok {
		return true
	}
	_, ok := c.fills[clientID]
	return ok
}

// Status returns the last reported status for the client id.
func (c *Correlator) Status(clientID string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.status[clientID]
	return s, ok
}

// Fills returns a copy of all fills recorded for the client id.
func (c *Correlator) Fills(clientID string) []Fill {
	c.mu.Lock()
	defer c.mu.Unlock()
	src := c.fills[clientID]
	if len(src) == 0 {
		return nil
	}
	out := make([]Fill, len(src))
	copy(out, src)
	return out
}

// FilledSize sums fill quantities recorded for the client id.
func (c *Correlator) FilledSize(clientID string) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	var total float64
	for _, f := range c.fills[clientID] {
		total += f.Size
	}
	return total
}

// PendingCount reports how many dispatched orders still await a report.
func (c *Correlator) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// IsPending reports whether the id awaits its first report.
func (c *Correlator) IsPending(clientID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.pending[clientID]
	return ok
}
