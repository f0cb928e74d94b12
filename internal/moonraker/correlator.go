package moonraker

import "github.com/google/uuid"

// Correlator remembers which method every outstanding call id belongs to.
// It is not safe for concurrent use; the link's consumer loop owns it.
type Correlator struct {
	pending map[string]string
	newID   func() string
}

// NewCorrelator returns a correlator that mints random UUID ids.
func NewCorrelator() *Correlator {
	return NewCorrelatorWithIDs(uuid.NewString)
}

// NewCorrelatorWithIDs uses newID as the id source. Tests use it to get
// predictable ids.
func NewCorrelatorWithIDs(newID func() string) *Correlator {
	if newID == nil {
		newID = uuid.NewString
	}
	return &Correlator{
		pending: make(map[string]string),
		newID:   newID,
	}
}

// Issue builds a request for method and records it as pending.
func (c *Correlator) Issue(method string, params any) Request {
	id := c.newID()
	for {
		if _, taken := c.pending[id]; !taken {
			break
		}
		id = c.newID()
	}
	c.pending[id] = method
	return Request{JSONRPC: jsonrpcVersion, Method: method, Params: params, ID: id}
}

// Resolve looks up and forgets id. A second call for the same id reports
// false.
func (c *Correlator) Resolve(id string) (string, bool) {
	method, ok := c.pending[id]
	if ok {
		delete(c.pending, id)
	}
	return method, ok
}

// Pending reports how many calls are still waiting for a reply.
func (c *Correlator) Pending() int {
	return len(c.pending)
}

// Reset forgets every outstanding call. The link calls it when a session
// ends, since replies can only arrive on the socket that carried the call.
func (c *Correlator) Reset() {
	clear(c.pending)
}
