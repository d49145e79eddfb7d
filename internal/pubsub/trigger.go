package pubsub

// Trigger names are the interop contract between publishers and subscribers:
// both sides must compute them identically. They are a pure function of the
// domain id and the scoped path or action id.

// ChangedTrigger keys whole-domain change events.
func ChangedTrigger(domainID string) string {
	return domainID + ":changed"
}

// FieldTrigger keys change events for one field path.
func FieldTrigger(domainID, path string) string {
	return domainID + ":field:" + path
}

// ActionTrigger keys events for one action invocation.
func ActionTrigger(domainID, actionID string) string {
	return domainID + ":action:" + actionID
}
