package mqttcore

// Message represents an inbound PUBLISH delivered to a MessageHandler or as
// the Message field of an EventPublishReceived Event (spec.md §4.6).
// Grounded on the teacher's Message (message.go), trimmed of MQTT v5.0
// properties (non-goal: MQTT 5.0 features).
type Message struct {
	Topic     string
	Payload   []byte
	QoS       QoS
	Retained  bool
	Duplicate bool
}

// QoS is an MQTT Quality of Service level, grounded on the teacher's QoS
// type (qos.go).
type QoS uint8

const (
	// QoS0 (at most once) is fire-and-forget: no ack, no retry.
	QoS0 QoS = 0
	// QoS1 (at least once) is acked with PUBACK and retried on timeout.
	QoS1 QoS = 1
	// QoS2 (exactly once) is accepted on inbound PUBLISH (PUBREC is sent)
	// but not supported outbound — see SPEC_FULL.md §9 and ErrQoS2Unsupported.
	QoS2 QoS = 2
)
