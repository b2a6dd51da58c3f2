package pb

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"
)

// Struct field names of the callable payloads.
const (
	FieldTargetID    = "targetId"
	FieldSuccess     = "success"
	FieldAlertID     = "alertId"
	FieldMessage     = "message"
	FieldSentCount   = "sentCount"
	FieldFailedCount = "failedCount"
	FieldType        = "type"
	FieldStudentInfo = "studentInfo"
	FieldTriggeredBy = "triggeredBy"
)

// ErrNotAString is returned when a field that must be a string has another kind.
var ErrNotAString = errors.New("field is not a string")

// TriggerRequest is the input of TriggerCriticalAlert.
type TriggerRequest struct {
	TargetID string
}

// ToStruct encodes the request.
func (r *TriggerRequest) ToStruct() *structpb.Struct {
	return &structpb.Struct{
		Fields: map[string]*structpb.Value{
			FieldTargetID: structpb.NewStringValue(r.TargetID),
		},
	}
}

// TriggerRequestFromStruct decodes the request. A missing or non-string
// targetId yields ErrNotAString.
func TriggerRequestFromStruct(s *structpb.Struct) (*TriggerRequest, error) {
	targetID, err := StringField(s, FieldTargetID)
	if err != nil {
		return nil, err
	}

	return &TriggerRequest{TargetID: targetID}, nil
}

// TriggerResponse is the output of TriggerCriticalAlert.
type TriggerResponse struct {
	Success     bool
	AlertID     string
	SentCount   int
	FailedCount int
	Message     string
}

// ToStruct encodes the response.
func (r *TriggerResponse) ToStruct() *structpb.Struct {
	return &structpb.Struct{
		Fields: map[string]*structpb.Value{
			FieldSuccess:     structpb.NewBoolValue(r.Success),
			FieldAlertID:     structpb.NewStringValue(r.AlertID),
			FieldSentCount:   structpb.NewNumberValue(float64(r.SentCount)),
			FieldFailedCount: structpb.NewNumberValue(float64(r.FailedCount)),
			FieldMessage:     structpb.NewStringValue(r.Message),
		},
	}
}

// TriggerResponseFromStruct decodes the response; absent fields keep zero values.
func TriggerResponseFromStruct(s *structpb.Struct) *TriggerResponse {
	fields := s.GetFields()

	return &TriggerResponse{
		Success:     fields[FieldSuccess].GetBoolValue(),
		AlertID:     fields[FieldAlertID].GetStringValue(),
		SentCount:   int(fields[FieldSentCount].GetNumberValue()),
		FailedCount: int(fields[FieldFailedCount].GetNumberValue()),
		Message:     fields[FieldMessage].GetStringValue(),
	}
}

// StartRequest is the input of StartCriticalAlert. An empty AlertID asks
// the device to present a locally raised alarm.
type StartRequest struct {
	AlertID string
}

// ToStruct encodes the request.
func (r *StartRequest) ToStruct() *structpb.Struct {
	fields := map[string]*structpb.Value{}
	if r.AlertID != "" {
		fields[FieldAlertID] = structpb.NewStringValue(r.AlertID)
	}

	return &structpb.Struct{Fields: fields}
}

// StartRequestFromStruct decodes the request.
func StartRequestFromStruct(s *structpb.Struct) (*StartRequest, error) {
	if _, ok := s.GetFields()[FieldAlertID]; !ok {
		return &StartRequest{}, nil
	}

	alertID, err := StringField(s, FieldAlertID)
	if err != nil {
		return nil, err
	}

	return &StartRequest{AlertID: alertID}, nil
}

// DataToStruct encodes a push data map.
func DataToStruct(data map[string]string) *structpb.Struct {
	fields := make(map[string]*structpb.Value, len(data))
	for k, v := range data {
		fields[k] = structpb.NewStringValue(v)
	}

	return &structpb.Struct{Fields: fields}
}

// DataFromStruct decodes a push data map. Push data is string-only.
func DataFromStruct(s *structpb.Struct) (map[string]string, error) {
	data := make(map[string]string, len(s.GetFields()))

	for k := range s.GetFields() {
		v, err := StringField(s, k)
		if err != nil {
			return nil, err
		}

		data[k] = v
	}

	return data, nil
}

// StringField returns a string field of s.
func StringField(s *structpb.Struct, name string) (string, error) {
	value, ok := s.GetFields()[name]
	if !ok {
		return "", fmt.Errorf("%s: %w", name, ErrNotAString)
	}

	str, ok := value.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return "", fmt.Errorf("%s: %w", name, ErrNotAString)
	}

	return str.StringValue, nil
}

// Struct field names of AlarmState.
const (
	FieldPhase       = "phase"
	FieldSubject     = "subject"
	FieldStartedAt   = "startedAt"
	FieldDeadline    = "deadline"
	FieldLastAlertID = "lastAlertId"
	FieldLastReason  = "lastReason"
	FieldLastEndedAt = "lastEndedAt"
)

// AlarmState is the output of GetAlarmState. Times are RFC 3339 strings,
// empty when not applicable.
type AlarmState struct {
	Phase       string
	AlertID     string
	Subject     string
	StartedAt   string
	Deadline    string
	LastAlertID string
	LastReason  string
	LastEndedAt string
}

// ToStruct encodes the state, leaving out empty fields.
func (s *AlarmState) ToStruct() *structpb.Struct {
	fields := make(map[string]*structpb.Value)

	for name, value := range map[string]string{
		FieldPhase:       s.Phase,
		FieldAlertID:     s.AlertID,
		FieldSubject:     s.Subject,
		FieldStartedAt:   s.StartedAt,
		FieldDeadline:    s.Deadline,
		FieldLastAlertID: s.LastAlertID,
		FieldLastReason:  s.LastReason,
		FieldLastEndedAt: s.LastEndedAt,
	} {
		if value != "" {
			fields[name] = structpb.NewStringValue(value)
		}
	}

	return &structpb.Struct{Fields: fields}
}

// AlarmStateFromStruct decodes the state; absent fields stay empty.
func AlarmStateFromStruct(s *structpb.Struct) *AlarmState {
	fields := s.GetFields()

	return &AlarmState{
		Phase:       fields[FieldPhase].GetStringValue(),
		AlertID:     fields[FieldAlertID].GetStringValue(),
		Subject:     fields[FieldSubject].GetStringValue(),
		StartedAt:   fields[FieldStartedAt].GetStringValue(),
		Deadline:    fields[FieldDeadline].GetStringValue(),
		LastAlertID: fields[FieldLastAlertID].GetStringValue(),
		LastReason:  fields[FieldLastReason].GetStringValue(),
		LastEndedAt: fields[FieldLastEndedAt].GetStringValue(),
	}
}
