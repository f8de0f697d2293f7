package api

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/mitchellh/cli"
	"github.com/satori/uuid"
	"github.com/yusufsyaifudin/ylog"
	jaegerPropagator "go.opentelemetry.io/contrib/propagators/jaeger"
	"go.opentelemetry.io/contrib/propagators/ot"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/propagation"

	"github.com/yusufsyaifudin/layang/config"
	"github.com/yusufsyaifudin/layang/container"
	"github.com/yusufsyaifudin/layang/internal/mailfile"
	"github.com/yusufsyaifudin/layang/pkg/tracer"
	"github.com/yusufsyaifudin/layang/transport/restapi"
)

const (
	ExitSuccess = 0
	ExitErr     = -1
)

type Cmd struct {
	flags      *flag.FlagSet
	appName    string
	appVersion string
	configFile string
	jaegerURL  string
}

func NewCmd(appName, appVersion string) func() (cli.Command, error) {
	return func() (cli.Command, error) {
		cmd := &Cmd{
			flags:      &flag.FlagSet{},
			appName:    appName,
			appVersion: appVersion,
		}
		err := cmd.init()
		return cmd, err
	}
}

var _ cli.Command = (*Cmd)(nil)
var _ cli.CommandFactory = NewCmd("", "")

func (c *Cmd) init() error {
	c.flags = flag.NewFlagSet("", flag.ContinueOnError)
	c.flags.StringVar(&c.configFile, "config", "config.yml",
		"Config file to load")
	c.flags.StringVar(&c.configFile, "c", "config.yml",
		"Alias for config file to load")
	c.flags.StringVar(&c.jaegerURL, "jaeger", "http://localhost:14268/api/traces",
		"Jaeger collector endpoint for traces")
	return nil
}

func (c *Cmd) Help() string {
	return `Run the HTTP API: csv upload and editing, validation, template management,
email generation and the outbox endpoints.`
}

func (c *Cmd) Run(args []string) int {
	err := c.flags.Parse(args)
	if err != nil {
		log.Printf("error parsing arguments: %s", err)
		return ExitErr
	}

	// ** load config file
	configVal := &config.Config{}
	zapLog, err := config.Setup(c.configFile, configVal)
	if err != nil {
		log.Printf("error load config: %s", err)
		return ExitErr
	}

	configVal.ApplyDefaults()

	// ** set global logger
	ylog.SetGlobalLogger(ylog.NewZap(zapLog))

	// ** define system context
	sysTracer, err := ylog.NewTracer(tracer.LogData{
		RemoteAddr: "system",
		TraceID:    uuid.NewV4().String(),
	}, ylog.WithTag("tracer"))
	if err != nil {
		log.Printf("error prepare system log tracer: %s", err)
		return ExitErr
	}

	ctx := ylog.Inject(context.Background(), sysTracer)

	exp, err := jaeger.New(
		jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(c.jaegerURL)),
	)
	if err != nil {
		ylog.Error(ctx, "cannot setup jaeger exporter", ylog.KV("error", err))
		return ExitErr
	}

	tracer.InitTraceProvider(c.appName, exp)

	// register ot propagator
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		&ot.OT{},
		&jaegerPropagator.Jaeger{},
	))

	ylog.Info(ctx, "container preparation: starting")
	defaultContainer, err := container.Setup(ctx, configVal)
	if err != nil {
		ylog.Error(ctx, "container preparation: failed", ylog.KV("error", err))
		return ExitErr
	}

	defer func() {
		ylog.Info(ctx, "closing container: starting")
		if _err := defaultContainer.Close(); _err != nil {
			ylog.Error(ctx, "closing container: failed", ylog.KV("error", _err))
		}
	}()

	// probe the native writer once per process
	native := mailfile.DetectNative(ctx)
	if native == nil {
		ylog.Info(ctx, "native msg writer unavailable, portable eml only")
	}

	// ** HTTP TRANSPORT
	ylog.Info(ctx, "http transport: starting")
	serverConfig := restapi.Config{
		AppServiceName: c.appName,
		AppVersion:     c.appVersion,
		ConfigStore:    config.NewStore(c.configFile, *configVal),
		TableService:   defaultContainer.TableService(),
		Dispatcher:     mailfile.NewDispatcher(native),
	}

	server, err := restapi.NewHTTPTransport(serverConfig)
	if err != nil {
		ylog.Error(ctx, "http transport: failed", ylog.KV("error", err))
		return ExitErr
	}

	httpPort := fmt.Sprintf(":%d", configVal.Transport.HTTP.Port)
	httpServer := &http.Server{
		Addr:    httpPort,
		Handler: server.Server(),
	}

	var apiErrChan = make(chan error, 1)
	go func() {
		ylog.Info(ctx, fmt.Sprintf("http transport: running on port %d", configVal.Transport.HTTP.Port))
		apiErrChan <- httpServer.ListenAndServe()
	}()

	// ** listen for sigterm signal
	var signalChan = make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)
	select {
	case <-signalChan:
		ylog.Info(ctx, "http transport: exiting")
		if _err := httpServer.Shutdown(ctx); _err != nil {
			ylog.Error(ctx, "error shutdown", ylog.KV("error", _err))
		}

	case err := <-apiErrChan:
		if err != nil {
			ylog.Error(ctx, "error HTTP API", ylog.KV("error", err))
		}
	}

	return ExitSuccess
}

func (c *Cmd) Synopsis() string {
	return `Run the HTTP API server`
}
