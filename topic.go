package mqttcore

import "strings"

// matchTopic reports whether topic satisfies the MQTT 3.1.1 topic-filter
// semantics of filter: '+' matches exactly one level, a trailing '#'
// matches zero or more trailing levels, any other character is literal
// (spec.md §4.4, §8 property 2). Grounded on the teacher's matchTopic
// (topic.go), rewritten over pre-validated filters/topics that are
// guaranteed '/'-prefixed by validateTopicFilter/validateTopicName below,
// so the '$'-prefix carve-out the teacher applies for broker-side
// dispatch does not apply here (this client only ever matches its own
// locally-registered filters against its own locally-received topics).
func matchTopic(filter, topic string) bool {
	fIdx, tIdx := 0, 0
	fLen, tLen := len(filter), len(topic)

	for fIdx <= fLen {
		var fLevel string
		var fNext int
		if idx := strings.IndexByte(filter[fIdx:], '/'); idx >= 0 {
			fNext = fIdx + idx
			fLevel = filter[fIdx:fNext]
		} else {
			fNext = fLen
			fLevel = filter[fIdx:]
		}

		if fLevel == "#" {
			return true
		}

		if tIdx > tLen {
			return false
		}

		var tLevel string
		var tNext int
		if idx := strings.IndexByte(topic[tIdx:], '/'); idx >= 0 {
			tNext = tIdx + idx
			tLevel = topic[tIdx:tNext]
		} else {
			tNext = tLen
			tLevel = topic[tIdx:]
		}

		if fLevel != "+" && fLevel != tLevel {
			return false
		}

		if fNext == fLen {
			fIdx = fLen + 1
		} else {
			fIdx = fNext + 1
		}
		if tNext == tLen {
			tIdx = tLen + 1
		} else {
			tIdx = tNext + 1
		}
	}

	return tIdx > tLen
}

// validateLevels checks the shared structural rules for both topic names
// and topic filters (spec.md §4.4): '/'-prefixed, <= MaxTopicLength bytes,
// each level either printable ASCII with no wildcard character, or
// (for filters) exactly "+" or a final exactly "#".
func validateLevels(s string, allowWildcards bool) error {
	if s == "" || s[0] != '/' {
		return ErrTopicFormat
	}
	if len(s) > MaxTopicLength {
		return ErrTopicFormat
	}

	levels := strings.Split(s, "/")[1:] // drop the empty prefix level
	for i, level := range levels {
		switch level {
		case "+":
			if !allowWildcards {
				return ErrTopicFormat
			}
			continue
		case "#":
			if !allowWildcards {
				return ErrTopicFormat
			}
			if i != len(levels)-1 {
				return ErrTopicFormat
			}
			continue
		}

		for _, b := range []byte(level) {
			if b == '+' || b == '#' {
				return ErrTopicFormat
			}
			if b < 32 || b > 126 {
				return ErrTopicFormat
			}
		}
	}
	return nil
}

// validateTopicFilter validates a SUBSCRIBE/UNSUBSCRIBE topic filter
// (spec.md §4.4, §8 property 6).
func validateTopicFilter(filter string) error {
	return validateLevels(filter, true)
}

// validateTopicName validates a PUBLISH topic name, which forbids
// wildcards entirely (spec.md §4.4).
func validateTopicName(name string) error {
	return validateLevels(name, false)
}
