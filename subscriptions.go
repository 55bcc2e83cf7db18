package mqttcore

// MessageHandler is invoked for an inbound PUBLISH whose topic matches a
// registered filter, or as the default handler for unmatched topics
// (spec.md §4.4). It is always called with no Client lock held.
type MessageHandler func(msg Message, ctx any)

// TopicBinding is a subscription-table entry: a topic filter bound to a
// handler and an opaque context (spec.md §3). Identity is the triple
// (Filter, handler-pointer, Ctx-pointer) — two bindings with the same
// filter but a different handler or context are distinct entries.
type TopicBinding struct {
	Filter  string
	Handler MessageHandler
	Ctx     any
}

func sameBinding(a, b TopicBinding) bool {
	return a.Filter == b.Filter && funcEqual(a.Handler, b.Handler) && a.Ctx == b.Ctx
}

// subscriptionTable is a fixed-capacity array of TopicBinding slots; a
// false live flag marks a slot as unoccupied, and a cleared slot holds the
// zero TopicBinding (spec.md §3 invariant 2). It is
// protected by the Client's general lock (spec.md §3 invariant 5); callers
// must hold that lock around install/remove, and must NOT hold it around
// matchAndInvoke's handler calls (spec.md §3 invariant 6).
type subscriptionTable struct {
	slots []TopicBinding
	live  []bool
}

func newSubscriptionTable(cap int) *subscriptionTable {
	return &subscriptionTable{
		slots: make([]TopicBinding, cap),
		live:  make([]bool, cap),
	}
}

// installResult is the outcome of subscriptionTable.install.
type installResult int

const (
	installOK installResult = iota
	installDuplicateIgnored
	installFull
)

// install records binding in the first empty slot found while scanning for
// a duplicate, or reports installDuplicateIgnored if an identical binding
// already occupies a slot (spec.md §4.4, §8 property 5: install is
// idempotent).
func (t *subscriptionTable) install(binding TopicBinding) installResult {
	firstEmpty := -1
	for i, live := range t.live {
		if !live {
			if firstEmpty == -1 {
				firstEmpty = i
			}
			continue
		}
		if sameBinding(t.slots[i], binding) {
			return installDuplicateIgnored
		}
	}
	if firstEmpty == -1 {
		return installFull
	}
	t.slots[firstEmpty] = binding
	t.live[firstEmpty] = true
	return installOK
}

// removeByFilter clears every slot bound to filter, regardless of handler
// or context identity (spec.md §4.9: UNSUBSCRIBE addresses a filter, not a
// single registered callback — the broker itself only tracks filters).
func (t *subscriptionTable) removeByFilter(filter string) {
	for i, live := range t.live {
		if live && t.slots[i].Filter == filter {
			t.live[i] = false
			t.slots[i] = TopicBinding{}
		}
	}
}

// matchAndInvoke returns the bindings whose filter matches topic. The
// caller is responsible for releasing the general lock before invoking any
// returned handler (spec.md §3 invariant 6, §5); this function only reads
// the table and must itself be called with the lock held.
func (t *subscriptionTable) matchAndInvoke(topic string) []TopicBinding {
	var matched []TopicBinding
	for i, live := range t.live {
		if live && matchTopic(t.slots[i].Filter, topic) {
			matched = append(matched, t.slots[i])
		}
	}
	return matched
}
