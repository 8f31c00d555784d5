package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/curnce/curnce-client/internal/mockapi"
	"github.com/curnce/curnce-client/users"
	"github.com/rs/zerolog/log"
)

const (
	demoEmail    = "demo@curnce.test"
	demoPassword = "Passw0rd!"
)

// runMock serves the mock backend until ctx is cancelled.
func runMock(ctx context.Context, addr string) error {
	api := mockapi.New(mockapi.WithLogger(log.Logger))
	if _, err := api.AddUser(users.User{Email: demoEmail, Name: "Demo", Role: users.RoleOwner}, demoPassword, false); err != nil {
		return err
	}
	if _, err := api.AddUser(users.User{Email: "2fa@curnce.test", Name: "Two Factor", Role: users.RoleAccountant}, demoPassword, true); err != nil {
		return err
	}
	for _, route := range api.Routes() {
		log.Debug().Msg(route)
	}

	server := &http.Server{Addr: addr, Handler: api}
	errs := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Str("user", demoEmail).Str("password", demoPassword).Msg("Mock backend listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errs <- fmt.Errorf("server.ListenAndServe %w", err)
		}
		close(errs)
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}
	return shutdown(server)
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}
