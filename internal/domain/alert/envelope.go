package alert

import "time"

// TypeCriticalAlert is the message type carried by every alert envelope.
const TypeCriticalAlert = "critical_alert"

// Envelope is the message built once per trigger and sent to every responder.
type Envelope struct {
	// AlertID is generated before any lookup and deduplicates presentation on devices.
	AlertID string
	// Target is the snapshot of the person the alert concerns.
	Target *Target
	// TriggeredBy identifies the actor who raised the alert.
	TriggeredBy string
	// CreatedAt is when the envelope was built.
	CreatedAt time.Time
}

// BuildEnvelope assembles the envelope. It performs no I/O and does not
// retain target, so later changes to the record snapshot cannot leak into it.
func BuildEnvelope(target *Target, actorID, alertID string, now time.Time) *Envelope {
	snapshot := target.Clone()
	if snapshot == nil {
		snapshot = &Target{MedicalInfo: map[string]any{}}
	}

	return &Envelope{
		AlertID:     alertID,
		Target:      snapshot,
		TriggeredBy: actorID,
		CreatedAt:   now.UTC(),
	}
}

// AnonymousActor stands in for a caller that did not identify itself.
const AnonymousActor = "anonymous"
