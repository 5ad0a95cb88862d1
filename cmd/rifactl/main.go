package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"rifas/internal/client"
	"rifas/internal/logger"
)

const usage = `usage: rifactl <command> [flags]

commands:
  login     -email -password     sign in and keep the session
  logout                         drop the stored session
  rifas     [-status] [-q]       list raffles
  numeros   <rifa> [-status]     show the numbers of a raffle
  comprar   <rifa> <numero>      reserve a number and show the PIX code
  minhas                         list your purchases
  resultado <rifa> -valor -local [-data] [-tipo]   record the official result (admin)
  apurar    <rifa>               compute the winners (admin)
  tema                           toggle the light/dark theme
`

type app struct {
	client   *client.Client
	state    *client.AppState
	interval time.Duration
}

func loadConfig() {
	home, _ := os.UserHomeDir()
	dir := filepath.Join(home, ".config", "rifactl")

	viper.SetDefault("base_url", "http://localhost:8081")
	viper.SetDefault("tenant", "demo")
	viper.SetDefault("token_file", filepath.Join(dir, "credentials.json"))
	viper.SetDefault("watchdog_interval", time.Second)
	viper.SetDefault("timeout", 15*time.Second)
	viper.SetDefault("log_level", "warn")

	viper.SetConfigName("config")
	viper.SetConfigType("toml")
	viper.AddConfigPath(dir)
	viper.AddConfigPath(".")

	viper.SetEnvPrefix("RIFACTL")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "rifactl: failed to read config: %v\n", err)
		}
	}
}

func newApp() (*app, error) {
	session := client.NewSession()
	store := client.FileCredentialStore{Path: viper.GetString("token_file")}
	state, err := client.NewAppState(store, session)
	if err != nil {
		return nil, err
	}

	c := client.New(viper.GetString("base_url"), session,
		client.WithTenant(viper.GetString("tenant")),
		client.WithHTTPClient(newHTTPClient(viper.GetDuration("timeout"))),
	)
	interval := viper.GetDuration("watchdog_interval")
	if interval <= 0 {
		interval = client.DefaultWatchdogInterval
	}
	return &app{client: c, state: state, interval: interval}, nil
}

func main() {
	_ = godotenv.Load()
	loadConfig()
	logger.Init(viper.GetString("log_level"), "text")

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	a, err := newApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "rifactl: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.run(ctx, os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintln(os.Stderr, client.MapError(err))
		logger.Get().Debug("Command failed", "command", os.Args[1], "error", err)
		stop()
		os.Exit(1)
	}
}

func (a *app) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "login":
		return a.login(ctx, args)
	case "logout":
		a.state.Logout()
		fmt.Println("Sessão encerrada.")
		return nil
	case "rifas":
		return a.raffles(ctx, args)
	case "numeros":
		return a.numbers(ctx, args)
	case "comprar":
		return a.buy(ctx, args)
	case "minhas":
		return a.myRaffles(ctx)
	case "resultado":
		return a.recordResult(ctx, args)
	case "apurar":
		return a.apurar(ctx, args)
	case "tema":
		theme, err := a.state.ToggleTheme()
		if err != nil {
			return err
		}
		fmt.Printf("Tema: %s\n", theme)
		return nil
	case "help", "-h", "--help":
		fmt.Print(usage)
		return nil
	}
	fmt.Fprint(os.Stderr, usage)
	return fmt.Errorf("%w: unknown command %q", client.ErrValidation, command)
}
