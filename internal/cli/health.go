package cli

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/google/subcommands"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"

	"github.com/GriffinCanCode/chardrv/internal/infrastructure/server"
	"github.com/GriffinCanCode/chardrv/internal/infrastructure/tracing"
)

// HealthCommand asks the gRPC health service whether the device is loaded.
type HealthCommand struct {
	g       *Globals
	service string
}

func (*HealthCommand) Name() string     { return "health" }
func (*HealthCommand) Synopsis() string { return "Check the device health over gRPC" }
func (*HealthCommand) Usage() string {
	return `health [-service name]:
	Exit 0 when the service reports SERVING.
`
}

func (cmd *HealthCommand) SetFlags(f *flag.FlagSet) {
	f.StringVar(&cmd.service, "service", server.HealthService, "health service name")
}

func (cmd *HealthCommand) Execute(ctx context.Context, _ *flag.FlagSet, args ...any) subcommands.ExitStatus {
	out := outputs(args)

	tracer := tracing.New("chardevctl", zap.NewNop())
	defer tracer.Close()

	opts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:    60 * time.Second,
			Timeout: 20 * time.Second,
		}),
		grpc.WithUnaryInterceptor(tracing.GRPCClientInterceptor(tracer)),
	}
	target := cmd.g.GRPCAddr
	if cmd.g.dial != nil {
		opts = append(opts, grpc.WithContextDialer(cmd.g.dial))
		target = "passthrough:///" + target
	}

	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return fail(out.err, "health", err)
	}
	defer conn.Close()

	if cmd.g.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cmd.g.Timeout)
		defer cancel()
	}

	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: cmd.service})
	if err != nil {
		return fail(out.err, "health", err)
	}
	fmt.Fprintln(out.out, resp.Status.String())
	if resp.Status != healthpb.HealthCheckResponse_SERVING {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
