package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"rifas/internal/client"
	"rifas/internal/logger"
	"rifas/internal/models"
)

// validate runs read-only smoke checks against a running API
func main() {
	baseURL := flag.String("url", "http://localhost:8081", "Base URL of the API")
	tenant := flag.String("tenant", "demo", "Tenant slug")
	email := flag.String("email", "", "Optional account used to check authenticated reads")
	password := flag.String("password", "", "Password of -email")
	flag.Parse()

	logger.Init("info", "text")
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := validate(ctx, *baseURL, *tenant, *email, *password); err != nil {
		slog.Error("Validation failed", "error", err, "message", client.MapError(err))
		os.Exit(1)
	}
	slog.Info("Validation passed")
}

func validate(ctx context.Context, baseURL, tenant, email, password string) error {
	resp, err := http.Get(baseURL + "/health")
	if err != nil {
		return fmt.Errorf("%w: %v", client.ErrNetwork, err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health returned %d", resp.StatusCode)
	}
	slog.Info("Health ok")

	c := client.New(baseURL, client.NewSession(), client.WithTenant(tenant))
	if email != "" {
		token, err := c.Login(ctx, email, password)
		if err != nil {
			return fmt.Errorf("login: %w", err)
		}
		if _, err := c.Session().SetToken(token); err != nil {
			return err
		}
		if _, err := c.Me(ctx); err != nil {
			return fmt.Errorf("me: %w", err)
		}
		slog.Info("Login ok", "email", email)
	}

	raffles, err := c.Raffles(ctx, string(models.RaffleActive), "")
	if err != nil {
		return fmt.Errorf("list raffles: %w", err)
	}
	slog.Info("Raffles listed", "active", len(raffles))

	for _, r := range raffles {
		numbers, err := c.Catalog(ctx, r.ID)
		if err != nil {
			return fmt.Errorf("catalog of %s: %w", r.ID, err)
		}
		if want := r.TipoRifa.Size(); len(numbers) != want {
			return fmt.Errorf("catalog of %s has %d numbers, want %d", r.ID, len(numbers), want)
		}
		slog.Info("Catalog ok", "rifa_id", r.ID, "tipo", r.TipoRifa, "numbers", len(numbers))
	}
	return nil
}
