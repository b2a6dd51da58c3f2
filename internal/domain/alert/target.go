package alert

import (
	"fmt"
	"maps"
	"strconv"
)

// Record field names read from the per-user record store.
const (
	FieldAssignedResponders = "assignedResponders"
	FieldDeliveryAddress    = "deliveryAddress"
	// FieldLegacyToken is the address field written by older clients.
	FieldLegacyToken = "fcmToken"

	fieldUID                  = "uid"
	fieldFullName             = "fullName"
	fieldEmail                = "email"
	fieldContact              = "contact"
	fieldGuardianContact      = "guardianContact"
	fieldEnrollmentNumber     = "enrollmentNumber"
	fieldAccommodationType    = "accommodationType"
	fieldHostelWingAndRoom    = "hostelWingAndRoom"
	fieldPermanentHomeAddress = "permanentHomeAddress"
	fieldMedicalInfo          = "medicalInfo"
)

// Target is the immutable snapshot of the person an alert concerns,
// taken from their record at trigger time.
type Target struct {
	UID                  Optional       `json:"uid"`
	FullName             Optional       `json:"fullName"`
	Email                Optional       `json:"email"`
	Contact              Optional       `json:"contact"`
	GuardianContact      Optional       `json:"guardianContact"`
	EnrollmentNumber     Optional       `json:"enrollmentNumber"`
	AccommodationType    Optional       `json:"accommodationType"`
	HostelWingAndRoom    Optional       `json:"hostelWingAndRoom"`
	PermanentHomeAddress Optional       `json:"permanentHomeAddress"`
	MedicalInfo          map[string]any `json:"medicalInfo"`
}

// Clone returns a copy of the target that does not share the medical info map.
func (t *Target) Clone() *Target {
	if t == nil {
		return nil
	}

	cloned := *t
	cloned.MedicalInfo = maps.Clone(t.MedicalInfo)

	if cloned.MedicalInfo == nil {
		cloned.MedicalInfo = map[string]any{}
	}

	return &cloned
}

// TargetFromRecord copies the enumerated fields out of a raw record.
// Anything else on the record is ignored.
func TargetFromRecord(id string, record map[string]any) *Target {
	target := &Target{
		UID:                  optionalField(record, fieldUID),
		FullName:             optionalField(record, fieldFullName),
		Email:                optionalField(record, fieldEmail),
		Contact:              optionalField(record, fieldContact),
		GuardianContact:      optionalField(record, fieldGuardianContact),
		EnrollmentNumber:     optionalField(record, fieldEnrollmentNumber),
		AccommodationType:    optionalField(record, fieldAccommodationType),
		HostelWingAndRoom:    optionalField(record, fieldHostelWingAndRoom),
		PermanentHomeAddress: optionalField(record, fieldPermanentHomeAddress),
		MedicalInfo:          map[string]any{},
	}

	// Records created before uid was stored inline are keyed by it.
	if !target.UID.Set && id != "" {
		target.UID = Some(id)
	}

	if medical, ok := record[fieldMedicalInfo].(map[string]any); ok {
		target.MedicalInfo = maps.Clone(medical)
	}

	return target
}

// optionalField reads a scalar field; missing, null and structured values stay unset.
func optionalField(record map[string]any, key string) Optional {
	switch v := record[key].(type) {
	case string:
		return Some(v)
	case bool:
		return Some(strconv.FormatBool(v))
	case int:
		return Some(strconv.Itoa(v))
	case int64:
		return Some(strconv.FormatInt(v, 10))
	case float64:
		return Some(strconv.FormatFloat(v, 'f', -1, 64))
	case fmt.Stringer:
		return Some(v.String())
	default:
		return Unset()
	}
}
