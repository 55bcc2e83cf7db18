package mqttcore

import "reflect"

// funcEqual reports whether two MessageHandler values refer to the same
// underlying function, used by the subscription table's duplicate check
// (spec.md §3 invariant 2: "identity of a binding = (topic-filter bytes,
// callback pointer, context pointer)"). Go function values aren't
// comparable with ==, so this compares code entry points via reflect,
// the same pattern used throughout the ecosystem for handler
// deduplication. Caveat: two distinct closures compiled from the same
// literal share one entry point and compare equal here even with
// different captured state — callers that need reliable de-duplication
// across closures should pass the same named handler value (or nil Ctx
// disambiguated by a distinct Ctx) to Subscribe, not two ad-hoc closures.
func funcEqual(a, b MessageHandler) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
}
