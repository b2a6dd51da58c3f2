package trigger

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"go.uber.org/zap/zapcore"
	"google.golang.org/grpc/status"

	"github.com/oshokin/critical-alert/internal/config"
	"github.com/oshokin/critical-alert/internal/logger"
	pb "github.com/oshokin/critical-alert/internal/pb/v1"
	"github.com/oshokin/critical-alert/internal/service/common"
)

// Options configures a trigger call.
type Options struct {
	// ConfigPath to YAML settings file, defaults to standard filename if empty.
	ConfigPath string
	// ServerAddress overrides server_addr from config when specified.
	ServerAddress string
	// TargetID names the person in distress.
	TargetID string
	// Actor overrides the detected username@hostname.
	Actor string
	// Anonymous sends no caller identity.
	Anonymous bool
	// Output receives the result; os.Stdout when nil.
	Output io.Writer
}

// Triggerer raises alerts on the dispatcher.
type Triggerer interface {
	TriggerCriticalAlert(ctx context.Context, actorID, targetID string) (*pb.TriggerResponse, error)
}

// Run triggers one alert and prints the dispatcher's answer.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "sos-trigger")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}

	if err = logger.Configure(cfg.LogLevel); err != nil {
		return err
	}

	// The result is printed to stdout; info lines would interleave with it.
	if logger.Level() > zapcore.DebugLevel {
		ctx = logger.WithOptions(ctx, logger.WithLevel(zapcore.WarnLevel))
	}

	serverAddress := cfg.ServerAddress
	if opts.ServerAddress != "" {
		serverAddress = opts.ServerAddress
	}

	actor, err := resolveActor(opts)
	if err != nil {
		return err
	}

	client, err := common.Dial(ctx, serverAddress, common.WithCallTimeout(cfg.Timeout))
	if err != nil {
		return err
	}

	defer func() {
		_ = client.Close()
	}()

	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	logger.DebugKV(ctx, "Triggering critical alert", "server_address", serverAddress, "target_id", opts.TargetID, "actor", actor)

	return Trigger(ctx, client, out, actor, opts.TargetID)
}

// Trigger calls the dispatcher and renders the outcome to out.
// An undelivered alert is reported as an error so scripts can react to it.
func Trigger(ctx context.Context, triggerer Triggerer, out io.Writer, actor, targetID string) error {
	resp, err := triggerer.TriggerCriticalAlert(ctx, actor, targetID)
	if err != nil {
		st := status.Convert(err)
		_, _ = color.New(color.FgRed, color.Bold).Fprintf(out, "✘ %s (%s)\n", st.Message(), st.Code())

		return err
	}

	render(out, resp)

	if !resp.Success {
		return fmt.Errorf("%w: alert %s", errUndelivered, resp.AlertID)
	}

	return nil
}

// render prints the response in colour when out is a terminal.
func render(out io.Writer, resp *pb.TriggerResponse) {
	headline := color.New(color.FgGreen, color.Bold)
	mark := "✔"

	switch {
	case !resp.Success:
		headline = color.New(color.FgRed, color.Bold)
		mark = "✘"
	case resp.FailedCount > 0:
		headline = color.New(color.FgYellow, color.Bold)
		mark = "!"
	}

	_, _ = headline.Fprintf(out, "%s %s\n", mark, resp.Message)
	_, _ = fmt.Fprintf(out, "  alert id: %s\n", resp.AlertID)
	_, _ = fmt.Fprintf(out, "  sent: %d, failed: %d\n", resp.SentCount, resp.FailedCount)
}

func resolveActor(opts *Options) (string, error) {
	switch {
	case opts.Anonymous:
		return "", nil
	case opts.Actor != "":
		return opts.Actor, nil
	default:
		return common.DetectActor()
	}
}
