package device

import (
	"context"
	"errors"
	"time"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	domain "github.com/oshokin/critical-alert/internal/domain/alarm"
	"github.com/oshokin/critical-alert/internal/logger"
	pb "github.com/oshokin/critical-alert/internal/pb/v1"
)

// ErrorDomain is the ErrorInfo domain of control errors.
const ErrorDomain = "critical-alert.device"

// Service abstracts the control surface the transport layer depends on.
type Service interface {
	StartCriticalAlert(ctx context.Context, alertID string) (string, error)
	StopCriticalAlert(ctx context.Context) (string, error)
	DeliverAlert(ctx context.Context, data map[string]string) (string, error)
	AlarmState(ctx context.Context) *domain.State
}

// Server implements the DeviceService gRPC API.
type Server struct {
	pb.UnimplementedDeviceServiceServer

	// service provides the alarm control operations.
	service Service
}

// NewServer wires the provided service implementation into a gRPC handler.
func NewServer(service Service) *Server {
	return &Server{
		service: service,
	}
}

// StartCriticalAlert starts the alarm.
func (s *Server) StartCriticalAlert(ctx context.Context, req *structpb.Struct) (*wrapperspb.StringValue, error) {
	request, err := pb.StartRequestFromStruct(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "alertId must be a string")
	}

	message, err := s.service.StartCriticalAlert(ctx, request.AlertID)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	return wrapperspb.String(message), nil
}

// StopCriticalAlert stops the alarm.
func (s *Server) StopCriticalAlert(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.StringValue, error) {
	message, err := s.service.StopCriticalAlert(ctx)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	return wrapperspb.String(message), nil
}

// DeliverAlert presents a pushed alert.
func (s *Server) DeliverAlert(ctx context.Context, req *structpb.Struct) (*wrapperspb.StringValue, error) {
	data, err := pb.DataFromStruct(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "push data must be a map of strings")
	}

	message, err := s.service.DeliverAlert(ctx, data)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	return wrapperspb.String(message), nil
}

// GetAlarmState returns the current alarm status.
func (s *Server) GetAlarmState(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return toProtoState(s.service.AlarmState(ctx)).ToStruct(), nil
}

// ReasonFromError returns the control error code carried by a status error.
func ReasonFromError(err error) (string, bool) {
	st, ok := status.FromError(err)
	if !ok {
		return "", false
	}

	for _, detail := range st.Details() {
		if info, isInfo := detail.(*errdetails.ErrorInfo); isInfo && info.GetDomain() == ErrorDomain {
			return info.GetReason(), true
		}
	}

	return "", false
}

// toStatus maps control errors to gRPC statuses.
func toStatus(ctx context.Context, err error) error {
	if errors.Is(err, domain.ErrInvalidDelivery) {
		return status.Error(codes.InvalidArgument, err.Error())
	}

	controlErr, ok := domain.AsControlError(err)
	if !ok {
		logger.ErrorKV(ctx, "Unexpected device error", "error", err)

		controlErr = &domain.ControlError{Code: domain.CodeServiceError, Message: "Unexpected device error", Err: err}
	}

	code := codes.Internal
	if controlErr.Code == domain.CodePermissionDenied || controlErr.Code == domain.CodeAudioPermissionDenied {
		code = codes.PermissionDenied
	}

	st, detailErr := status.New(code, controlErr.Message).WithDetails(&errdetails.ErrorInfo{
		Reason: controlErr.Code,
		Domain: ErrorDomain,
	})
	if detailErr != nil {
		return status.Error(code, controlErr.Message)
	}

	return st.Err()
}

// toProtoState converts a domain state into the GetAlarmState payload.
func toProtoState(state *domain.State) *pb.AlarmState {
	if state == nil {
		return &pb.AlarmState{Phase: string(domain.PhaseIdle)}
	}

	result := &pb.AlarmState{Phase: string(state.Phase)}

	if current := state.Current; current != nil {
		result.AlertID = current.AlertID
		result.Subject = current.Subject
		result.StartedAt = formatTime(current.StartedAt)
		result.Deadline = formatTime(current.Deadline)
	}

	if last := state.Last; last != nil {
		result.LastAlertID = last.AlertID
		result.LastReason = string(last.Reason)
		result.LastEndedAt = formatTime(last.EndedAt)
	}

	return result
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	return t.UTC().Format(time.RFC3339)
}
