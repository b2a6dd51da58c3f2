package alert

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	domain "github.com/oshokin/critical-alert/internal/domain/alert"
	"github.com/oshokin/critical-alert/internal/logger"
	pb "github.com/oshokin/critical-alert/internal/pb/v1"
)

// Service abstracts the business operation the transport layer depends on.
type Service interface {
	Trigger(ctx context.Context, targetID, actorID string) (*domain.DispatchResult, error)
}

// Server implements the AlertService gRPC API.
type Server struct {
	pb.UnimplementedAlertServiceServer

	// service provides the dispatch pipeline.
	service Service
}

// NewServer wires the provided service implementation into a gRPC handler.
func NewServer(service Service) *Server {
	return &Server{
		service: service,
	}
}

// TriggerCriticalAlert raises an alert for the requested target.
func (s *Server) TriggerCriticalAlert(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	request, err := pb.TriggerRequestFromStruct(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "targetId is required and must be a string")
	}

	result, err := s.service.Trigger(ctx, request.TargetID, actorFromContext(ctx))
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	return toResponse(result).ToStruct(), nil
}

// actorFromContext reads the optional caller identity from request metadata.
func actorFromContext(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return domain.AnonymousActor
	}

	for _, value := range md.Get(pb.ActorMetadataKey) {
		if value != "" {
			return value
		}
	}

	return domain.AnonymousActor
}

// toStatus maps dispatcher errors to gRPC statuses. Messages of expected
// failures are surfaced verbatim; anything else is logged and hidden.
func toStatus(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, domain.ErrFailedPrecondition):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "request canceled")
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "request timed out")
	default:
		logger.ErrorKV(ctx, "Error in TriggerCriticalAlert", "error", err)
		return status.Error(codes.Internal, "An error occurred while triggering the alert")
	}
}

// toResponse converts a dispatch result into the callable response.
func toResponse(result *domain.DispatchResult) *pb.TriggerResponse {
	message := fmt.Sprintf("Alert triggered successfully. Sent to %d device(s).", result.SentCount)
	if !result.Success() {
		message = fmt.Sprintf("Alert could not be delivered. %d device(s) failed.", result.FailedCount)
	}

	return &pb.TriggerResponse{
		Success:     result.Success(),
		AlertID:     result.AlertID,
		SentCount:   result.SentCount,
		FailedCount: result.FailedCount,
		Message:     message,
	}
}
