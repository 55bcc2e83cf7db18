package mqttcore

// EventKind identifies the kind of Event delivered to an EventHandler
// (spec.md §4.7 "Events surfaced via the user event handler").
type EventKind uint8

const (
	EventPublishReceived EventKind = iota
	EventPublishSuccess
	EventSubscribeSuccess
	EventSubscribeNack
	EventSubscribeTimeout
	EventUnsubscribeSuccess
	EventUnsubscribeTimeout
	EventDisconnect
	EventReconnect
)

func (k EventKind) String() string {
	switch k {
	case EventPublishReceived:
		return "PublishReceived"
	case EventPublishSuccess:
		return "PublishSuccess"
	case EventSubscribeSuccess:
		return "SubscribeSuccess"
	case EventSubscribeNack:
		return "SubscribeNack"
	case EventSubscribeTimeout:
		return "SubscribeTimeout"
	case EventUnsubscribeSuccess:
		return "UnsubscribeSuccess"
	case EventUnsubscribeTimeout:
		return "UnsubscribeTimeout"
	case EventDisconnect:
		return "Disconnect"
	case EventReconnect:
		return "Reconnect"
	default:
		return "Unknown"
	}
}

// Event is the sum type delivered to an EventHandler. Only the fields
// relevant to Kind are populated; this mirrors the teacher's variant
// dispatch (dynamic dispatch via function pointer + opaque context,
// modeled per spec.md §9 as a Go interface method over a sum type).
type Event struct {
	Kind    EventKind
	MsgID   uint16  // valid for PublishSuccess, Subscribe*, Unsubscribe*
	Message Message // valid for PublishReceived
	Err     error   // valid for SubscribeNack, SubscribeTimeout, UnsubscribeTimeout
}

// EventHandler receives lifecycle and delivery events from a Client. It is
// always invoked with no Client lock held (spec.md §3 invariant 6, §5).
type EventHandler interface {
	OnEvent(c *Client, ev Event)
}

// EventHandlerFunc adapts a function to the EventHandler interface.
type EventHandlerFunc func(c *Client, ev Event)

func (f EventHandlerFunc) OnEvent(c *Client, ev Event) { f(c, ev) }
