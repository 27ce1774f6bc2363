// Command mockapi serves the in-memory clinic backend for local
// development of the web front end.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/rs/zerolog/log"

	"github.com/beautyclinic/clinic-web/internal/config"
	"github.com/beautyclinic/clinic-web/internal/logging"
	"github.com/beautyclinic/clinic-web/mockapi"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("Mock API stopped with error")
	}
}

func run() error {
	c := config.New()
	logging.Setup(c.GetLogLevel(), c.GetEnv())

	opts := []mockapi.Option{mockapi.WithOTPCode(config.GetEnv("MOCK_OTP_CODE", mockapi.DefaultOTPCode))}
	if secret := os.Getenv("MOCK_JWT_SECRET"); secret != "" {
		opts = append(opts, mockapi.WithSecret([]byte(secret)))
	}
	opts = append(opts, mockapi.WithAccessTokenExpiry(config.GetEnvAsDuration("MOCK_ACCESS_TOKEN_EXPIRY", 15*time.Minute)))

	addr := config.GetEnv("MOCK_PORT", "8000")
	if !strings.HasPrefix(addr, ":") {
		addr = ":" + addr
	}

	figure.NewFigure("mock api", "cybermedium", true).Print()
	fmt.Println()

	srv := &http.Server{Addr: addr, Handler: mockapi.New(opts...), ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("Mock API listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-stop:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
