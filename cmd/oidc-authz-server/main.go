// Command oidc-authz-server runs the OIDC authorization filter as a
// standalone Envoy ext_authz gRPC server.
package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	authv3 "github.com/envoyproxy/go-control-plane/envoy/service/auth/v3"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthv1 "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/openauthz/oidcauthzfilter/cryptor"
	"github.com/openauthz/oidcauthzfilter/extauthz"
	"github.com/openauthz/oidcauthzfilter/httpclient"
	"github.com/openauthz/oidcauthzfilter/internal/config"
	"github.com/openauthz/oidcauthzfilter/internal/logger"
	"github.com/openauthz/oidcauthzfilter/oidcfilter"
	"github.com/openauthz/oidcauthzfilter/randomsource"
	"github.com/openauthz/oidcauthzfilter/tokenparser"
)

func main() {
	configPath := flag.String("config", "", "path to the YAML config file (optional; env vars can supply everything)")
	listenAddr := flag.String("listen", ":9191", "address the ext_authz gRPC server listens on")
	flag.Parse()

	if err := run(*configPath, *listenAddr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath, listenAddr string) error {
	loaded, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log := logger.Default(loaded.LogLevel)

	tokenCryptor, err := cryptor.New(loaded.CryptorHashKey, loaded.CryptorBlockKey)
	if err != nil {
		return fmt.Errorf("building cryptor: %w", err)
	}

	tokenClient := httpclient.New(httpclient.TokenClientConfig())

	parser, err := tokenparser.New(loaded.JWKSEndpoint, loaded.Issuer, log.WithField("component", "tokenparser"))
	if err != nil {
		return fmt.Errorf("building token parser: %w", err)
	}

	filter, err := oidcfilter.New(loaded.Filter, tokenCryptor, tokenClient, parser, randomsource.New(), log.WithField("component", "oidcfilter"))
	if err != nil {
		return fmt.Errorf("building filter: %w", err)
	}

	listener, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", listenAddr, err)
	}

	grpcServer := grpc.NewServer()
	authv3.RegisterAuthorizationServer(grpcServer, extauthz.NewServer(filter, log.WithField("component", "extauthz")))

	healthServer := health.NewServer()
	healthv1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", healthv1.HealthCheckResponse_SERVING)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Infof("ext_authz server listening on %s", listenAddr)
		errCh <- grpcServer.Serve(listener)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info("shutdown signal received, draining connections")
		grpcServer.GracefulStop()
		return nil
	}
}
