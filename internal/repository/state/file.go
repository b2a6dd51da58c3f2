package state

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/critical-alert/internal/config"
	domain "github.com/oshokin/critical-alert/internal/domain/alarm"
)

// Field names of the history document.
const (
	fieldRecent    = "recentAlertIds"
	fieldLast      = "last"
	fieldAlertID   = "alertId"
	fieldSubject   = "subject"
	fieldStartedAt = "startedAt"
	fieldDeadline  = "deadline"
	fieldEndedAt   = "endedAt"
	fieldReason    = "reason"
)

// Repository defines persistence operations for the alarm history.
type Repository interface {
	Load(ctx context.Context) (*domain.History, error)
	Save(ctx context.Context, history *domain.History) error
}

// FileRepository persists the alarm history to a JSON file on disk.
// The document is a protobuf Struct written with protojson.
type FileRepository struct {
	// path is the filesystem location of the JSON history file.
	path string
	// mu protects concurrent access to the history file.
	mu sync.Mutex
}

var errMalformedHistory = errors.New("malformed history")

// NewFileRepository creates a repository that reads/writes JSON at the provided path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path: filepath.Clean(path),
	}
}

// Load reads the history from disk. A missing file yields domain.ErrNoHistory.
func (r *FileRepository) Load(_ context.Context) (*domain.History, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	contents, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domain.ErrNoHistory
		}

		return nil, fmt.Errorf("read history file: %w", err)
	}

	var document structpb.Struct
	if err = protojson.Unmarshal(contents, &document); err != nil {
		return nil, fmt.Errorf("decode history file: %w", err)
	}

	return fromStruct(&document)
}

// Save writes the history to disk, replacing the previous file atomically.
func (r *FileRepository) Save(_ context.Context, history *domain.History) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	marshalOptions := protojson.MarshalOptions{Multiline: true}

	data, err := marshalOptions.Marshal(toStruct(history))
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}

	tmp := r.path + ".tmp"
	if err = os.WriteFile(tmp, data, config.DefaultFilePermissions); err != nil {
		return fmt.Errorf("write history file: %w", err)
	}

	if err = os.Rename(tmp, r.path); err != nil {
		return fmt.Errorf("replace history file: %w", err)
	}

	return nil
}

// toStruct converts the domain history into its JSON document.
func toStruct(history *domain.History) *structpb.Struct {
	recent := make([]*structpb.Value, 0, len(history.Recent))
	for _, id := range history.Recent {
		recent = append(recent, structpb.NewStringValue(id))
	}

	fields := map[string]*structpb.Value{
		fieldRecent: structpb.NewListValue(&structpb.ListValue{Values: recent}),
	}

	if last := history.Last; last != nil {
		fields[fieldLast] = structpb.NewStructValue(&structpb.Struct{
			Fields: map[string]*structpb.Value{
				fieldAlertID:   structpb.NewStringValue(last.AlertID),
				fieldSubject:   structpb.NewStringValue(last.Subject),
				fieldStartedAt: structpb.NewStringValue(formatTime(last.StartedAt)),
				fieldDeadline:  structpb.NewStringValue(formatTime(last.Deadline)),
				fieldEndedAt:   structpb.NewStringValue(formatTime(last.EndedAt)),
				fieldReason:    structpb.NewStringValue(string(last.Reason)),
			},
		})
	}

	return &structpb.Struct{Fields: fields}
}

// fromStruct converts the JSON document into the domain history.
func fromStruct(document *structpb.Struct) (*domain.History, error) {
	fields := document.GetFields()
	history := &domain.History{}

	for _, value := range fields[fieldRecent].GetListValue().GetValues() {
		id, ok := value.GetKind().(*structpb.Value_StringValue)
		if !ok {
			return nil, fmt.Errorf("%w: %s holds a non-string id", errMalformedHistory, fieldRecent)
		}

		history.Recent = append(history.Recent, id.StringValue)
	}

	last := fields[fieldLast].GetStructValue()
	if last == nil {
		return history, nil
	}

	session := &domain.Session{
		AlertID: last.GetFields()[fieldAlertID].GetStringValue(),
		Subject: last.GetFields()[fieldSubject].GetStringValue(),
		Reason:  domain.EndReason(last.GetFields()[fieldReason].GetStringValue()),
	}

	for name, target := range map[string]*time.Time{
		fieldStartedAt: &session.StartedAt,
		fieldDeadline:  &session.Deadline,
		fieldEndedAt:   &session.EndedAt,
	} {
		parsed, err := parseTime(last.GetFields()[name].GetStringValue())
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", errMalformedHistory, name, err)
		}

		*target = parsed
	}

	history.Last = session

	return history, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}

	return time.Parse(time.RFC3339Nano, value)
}
