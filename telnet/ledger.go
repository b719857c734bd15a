package telnet

// Direction selects which half of the negotiation ledger to consult.
type Direction int

const (
	Sent Direction = iota
	Received
)

func (d Direction) String() string {
	if d == Sent {
		return "sent"
	}
	return "received"
}

// ledger remembers every negotiation command exchanged during a session so
// that a reply is never sent twice for the same option.
type ledger struct {
	m map[Option]*ledgerEntry
}

type ledgerEntry struct {
	sent, received map[Command]bool
	sub            [2][]byte
}

func newLedger() *ledger {
	return &ledger{m: make(map[Option]*ledgerEntry)}
}

func (l *ledger) get(opt Option) (e *ledgerEntry) {
	e, ok := l.m[opt]
	if !ok {
		e = &ledgerEntry{
			sent:     make(map[Command]bool),
			received: make(map[Command]bool),
		}
		l.m[opt] = e
	}
	return
}

func (l *ledger) record(dir Direction, cmd Command, opt Option) {
	e := l.get(opt)
	if dir == Sent {
		e.sent[cmd] = true
	} else {
		e.received[cmd] = true
	}
}

func (l *ledger) has(dir Direction, cmd Command, opt Option) bool {
	e, ok := l.m[opt]
	if !ok {
		return false
	}
	if dir == Sent {
		return e.sent[cmd]
	}
	return e.received[cmd]
}

func (l *ledger) recordSub(dir Direction, opt Option, payload []byte) {
	l.get(opt).sub[dir] = append([]byte(nil), payload...)
}

func (l *ledger) sub(dir Direction, opt Option) []byte {
	if e, ok := l.m[opt]; ok {
		return e.sub[dir]
	}
	return nil
}
