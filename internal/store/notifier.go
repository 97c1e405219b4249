package store

import "sync"

// Tables that publish change notifications.
const (
	TableSessions = "sessions"
	TablePlayers  = "players"
	TableEntries  = "round_entries"
)

type ChangeType string

const (
	ChangeInsert ChangeType = "INSERT"
	ChangeUpdate ChangeType = "UPDATE"
)

// Change is a row-level notification. It carries no row data on purpose:
// delivery is at-least-once and unordered, so subscribers must re-read
// current state instead of trusting a payload.
type Change struct {
	Table     string
	Type      ChangeType
	SessionID uint
}

// Notifier fans row changes out to per-session subscribers. It stands in
// for the change feed a hosted store would deliver; swapping in a real feed
// only replaces Publish's caller.
type Notifier struct {
	mu   sync.Mutex
	subs map[uint]map[chan Change]struct{}
}

func NewNotifier() *Notifier {
	return &Notifier{
		subs: make(map[uint]map[chan Change]struct{}),
	}
}

// Subscribe returns a channel of changes for one session and a function to
// cancel the subscription. A slow subscriber misses notifications rather
// than blocking writers; the next change re-triggers it and state is always
// re-read, so missed deliveries are benign.
func (n *Notifier) Subscribe(sessionID uint) (<-chan Change, func()) {
	ch := make(chan Change, 64)
	n.mu.Lock()
	group := n.subs[sessionID]
	if group == nil {
		group = make(map[chan Change]struct{})
		n.subs[sessionID] = group
	}
	group[ch] = struct{}{}
	n.mu.Unlock()

	cancel := func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		group := n.subs[sessionID]
		if group == nil {
			return
		}
		if _, ok := group[ch]; !ok {
			return
		}
		delete(group, ch)
		close(ch)
		if len(group) == 0 {
			delete(n.subs, sessionID)
		}
	}
	return ch, cancel
}

func (n *Notifier) Publish(change Change) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for ch := range n.subs[change.SessionID] {
		select {
		case ch <- change:
		default:
		}
	}
}
