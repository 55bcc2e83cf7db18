// Package inflight implements the two bounded ack-tracking tables of
// spec.md §4.3 (C3): PubTable tracks outbound PUBLISH requests awaiting
// PUBACK/PUBREC, SubTable tracks outbound SUBSCRIBE/UNSUBSCRIBE requests
// awaiting SUBACK/UNSUBACK.
//
// Grounded on the teacher's pending map (client.go: "pending
// map[uint16]*pendingOp") for the bookkeeping shape, and on
// netdata-paho.golang's use of golang.org/x/sync/semaphore
// (serverInflight/clientInflight in paho/client.go) for bounding
// concurrent capacity: instead of a hand-rolled "len(table) >= cap" check,
// each table holds a weighted semaphore sized to its capacity and a push
// first tries a non-blocking acquire, exactly the idiom that package uses
// to bound in-flight QoS 1/2 publications.
//
// Each table is protected by its own sync.Mutex (spec.md §3 invariant 5:
// "mutation of each in-flight table occurs only under that table's
// dedicated lock"). The mark-then-sweep pattern (spec.md §4.3 rationale)
// exists so that user-visible timeout/republish callbacks never run with
// the table lock held — the corresponding primitive in the C source is a
// linked list with an Invalid flag; spec.md §9 explicitly allows the
// "equivalent" indexed-slab-with-live-flag implementation used here.
package inflight

import (
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// RequestKind distinguishes a SubTable entry's original request.
type RequestKind uint8

const (
	Subscribe RequestKind = iota
	Unsubscribe
)

// PubEntry is a pub-inflight table row (spec.md §3 PubInflight).
type PubEntry struct {
	PacketID   uint16
	Start      time.Time
	Serialized []byte
}

// SubEntry is a sub-inflight table row (spec.md §3 SubInflight). Binding
// carries an opaque copy of the subscription-table entry that will be
// installed on success; inflight does not know its concrete type to avoid
// an import cycle with the package that defines it, so the owner type-
// asserts it back on retrieval.
type SubEntry struct {
	PacketID   uint16
	Start      time.Time
	Kind       RequestKind
	Binding    any
	Serialized []byte
}

type pubSlot struct {
	entry PubEntry
	live  bool
}

// PubTable is the pub-ack bookkeeping table.
type PubTable struct {
	mu   sync.Mutex
	sem  *semaphore.Weighted
	cap  int
	rows []pubSlot
}

// NewPubTable creates a table with the given fixed capacity.
func NewPubTable(cap int) *PubTable {
	return &PubTable{
		sem:  semaphore.NewWeighted(int64(cap)),
		cap:  cap,
		rows: make([]pubSlot, 0, cap),
	}
}

// ErrFull is returned by Push when the table is at capacity.
type errFull struct{}

func (errFull) Error() string { return "inflight: table full" }

// ErrFull is the sentinel capacity error (spec.md §7 PushToListFull).
var ErrFull error = errFull{}

// Push appends a new live entry, failing with ErrFull if the table's
// capacity (tracked by the weighted semaphore) is exhausted.
func (t *PubTable) Push(packetID uint16, now time.Time, serialized []byte) error {
	if !t.sem.TryAcquire(1) {
		return ErrFull
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	cp := make([]byte, len(serialized))
	copy(cp, serialized)
	t.rows = append(t.rows, pubSlot{entry: PubEntry{PacketID: packetID, Start: now, Serialized: cp}, live: true})
	return nil
}

// MarkInvalidByID marks every live entry with the given packet id invalid,
// reporting whether any were found.
func (t *PubTable) MarkInvalidByID(packetID uint16) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	found := false
	for i := range t.rows {
		if t.rows[i].live && t.rows[i].entry.PacketID == packetID {
			t.rows[i].live = false
			found = true
		}
	}
	return found
}

// Remove drops every entry (live or not) with the given packet id,
// releasing its semaphore slot. Used when a send fails after Push
// registered the entry (spec.md §4.9 "on send failure remove the entry").
func (t *PubTable) Remove(packetID uint16) {
	t.mu.Lock()
	kept := t.rows[:0]
	removed := 0
	for _, r := range t.rows {
		if r.entry.PacketID == packetID {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	t.rows = kept
	t.mu.Unlock()
	for i := 0; i < removed; i++ {
		t.sem.Release(1)
	}
}

// Sweep performs the pub-inflight sweep of spec.md §4.3/§4.9: first it
// drops every Invalid (acked) entry, releasing its capacity slot; then,
// for each remaining live entry older than 2*timeout, it calls
// onRepublish (lock released, per the mark-then-sweep rationale) to
// resend the entry's original bytes, and resets the entry's Start time
// on a successful resend so it gets another full timeout window —
// grounded on the original's MQTTPubInfoProc/MQTTRePublish (resends the
// same buffer and resets pub_start_time; it never drops the entry or
// fires a user event on a pub-inflight timeout). If onRepublish reports
// an error the entry is left with its old Start time, so the very next
// sweep retries it again.
func (t *PubTable) Sweep(now time.Time, timeout time.Duration, onRepublish func(PubEntry) error) {
	t.mu.Lock()
	kept := t.rows[:0]
	freed := 0
	for _, r := range t.rows {
		if !r.live {
			freed++
			continue
		}
		kept = append(kept, r)
	}
	t.rows = kept
	t.mu.Unlock()
	for i := 0; i < freed; i++ {
		t.sem.Release(1)
	}

	deadline := 2 * timeout
	t.mu.Lock()
	var due []PubEntry
	for _, r := range t.rows {
		if now.Sub(r.entry.Start) >= deadline {
			due = append(due, r.entry)
		}
	}
	t.mu.Unlock()

	for _, e := range due {
		if err := onRepublish(e); err != nil {
			continue
		}
		t.mu.Lock()
		for i := range t.rows {
			if t.rows[i].live && t.rows[i].entry.PacketID == e.PacketID {
				t.rows[i].entry.Start = now
			}
		}
		t.mu.Unlock()
	}
}

// Len reports the number of entries currently tracked (live or marked
// invalid but not yet swept), for tests and diagnostics.
func (t *PubTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.rows)
}

type subSlot struct {
	entry SubEntry
	live  bool
}

// SubTable is the sub/unsub-ack bookkeeping table. Its capacity is fixed
// at spec.md §3's SubInflightCap (10), independent of PubTable's cap.
type SubTable struct {
	mu   sync.Mutex
	sem  *semaphore.Weighted
	rows []subSlot
}

// NewSubTable creates a table with the given fixed capacity.
func NewSubTable(cap int) *SubTable {
	return &SubTable{
		sem:  semaphore.NewWeighted(int64(cap)),
		rows: make([]subSlot, 0, cap),
	}
}

// Push appends a new live entry, failing with ErrFull if full.
func (t *SubTable) Push(e SubEntry) error {
	if !t.sem.TryAcquire(1) {
		return ErrFull
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	cp := make([]byte, len(e.Serialized))
	copy(cp, e.Serialized)
	e.Serialized = cp
	t.rows = append(t.rows, subSlot{entry: e, live: true})
	return nil
}

// MarkInvalidByID marks the matching live entry invalid and returns a copy
// of it (so the ack handler can retrieve its TopicBinding), or ok=false if
// no live entry matches (spec.md §4.6 SUBACK/UNSUBACK handling).
func (t *SubTable) MarkInvalidByID(packetID uint16) (entry SubEntry, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.rows {
		if t.rows[i].live && t.rows[i].entry.PacketID == packetID {
			t.rows[i].live = false
			return t.rows[i].entry, true
		}
	}
	return SubEntry{}, false
}

// Remove drops every entry with the given packet id, releasing its slot.
func (t *SubTable) Remove(packetID uint16) {
	t.mu.Lock()
	kept := t.rows[:0]
	removed := 0
	for _, r := range t.rows {
		if r.entry.PacketID == packetID {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	t.rows = kept
	t.mu.Unlock()
	for i := 0; i < removed; i++ {
		t.sem.Release(1)
	}
}

// Sweep is SubTable's analogue of PubTable.Sweep: drop Invalid entries,
// then surface a timeout for anything older than 2*timeout.
func (t *SubTable) Sweep(now time.Time, timeout time.Duration, onTimeout func(SubEntry)) {
	t.mu.Lock()
	kept := t.rows[:0]
	freed := 0
	for _, r := range t.rows {
		if !r.live {
			freed++
			continue
		}
		kept = append(kept, r)
	}
	t.rows = kept
	t.mu.Unlock()
	for i := 0; i < freed; i++ {
		t.sem.Release(1)
	}

	deadline := 2 * timeout
	t.mu.Lock()
	var expired []SubEntry
	stillLive := t.rows[:0]
	for _, r := range t.rows {
		if now.Sub(r.entry.Start) >= deadline {
			expired = append(expired, r.entry)
			continue
		}
		stillLive = append(stillLive, r)
	}
	t.rows = stillLive
	t.mu.Unlock()

	for _, e := range expired {
		onTimeout(e)
	}
	for range expired {
		t.sem.Release(1)
	}
}

// Len reports the number of entries currently tracked, for tests.
func (t *SubTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.rows)
}
