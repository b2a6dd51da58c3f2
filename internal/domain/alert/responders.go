package alert

// ResponderSet is the ordered, duplicate-free list of responders of a target.
type ResponderSet []string

// ResponderSetFromRecord reads the assigned responders of a target record.
// Non-string and empty entries are skipped and duplicates keep their first position.
// A record without the field, or with a non-list value, yields an empty set.
func ResponderSetFromRecord(record map[string]any) ResponderSet {
	var raw []any

	switch v := record[FieldAssignedResponders].(type) {
	case []any:
		raw = v
	case []string:
		raw = make([]any, 0, len(v))
		for _, s := range v {
			raw = append(raw, s)
		}
	default:
		return ResponderSet{}
	}

	var (
		set  = make(ResponderSet, 0, len(raw))
		seen = make(map[string]struct{}, len(raw))
	)

	for _, entry := range raw {
		id, ok := entry.(string)
		if !ok || id == "" {
			continue
		}

		if _, dup := seen[id]; dup {
			continue
		}

		seen[id] = struct{}{}
		set = append(set, id)
	}

	return set
}

// DeliveryAddressFromRecord returns the push token of a responder record, if any.
func DeliveryAddressFromRecord(record map[string]any) (string, bool) {
	for _, key := range []string{FieldDeliveryAddress, FieldLegacyToken} {
		if token, ok := record[key].(string); ok && token != "" {
			return token, true
		}
	}

	return "", false
}
