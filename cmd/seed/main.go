package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"rifas/internal/auth"
	"rifas/internal/config"
	"rifas/internal/logger"
	"rifas/internal/models"
	"rifas/internal/platform"
	"rifas/internal/repository"
	"rifas/internal/service"
)

var (
	tenantSlug     = flag.String("tenant", "demo", "Tenant slug to create or update")
	tenantName     = flag.String("name", "Rifas Demo", "Tenant display name")
	tenantHost     = flag.String("host", "", "Host name that resolves to the tenant")
	adminEmail     = flag.String("admin-email", "admin@rifas.dev", "Email of the tenant admin")
	adminPassword  = flag.String("admin-password", "admin123", "Password of the tenant admin")
	playerEmail    = flag.String("player-email", "jogador@rifas.dev", "Email of a sample player, empty to skip")
	playerPassword = flag.String("player-password", "jogador123", "Password of the sample player")
	pixKey         = flag.String("pix-key", "", "PIX key used for static copia e cola payloads")
	demoRaffle     = flag.String("demo", "milhar", "Type of the active demo raffle (milhar, centena, dezena, grupo), empty to skip")
	dryRun         = flag.Bool("dry-run", false, "Show what would be seeded without making changes")
)

func main() {
	flag.Parse()
	_ = godotenv.Load()

	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	if *dryRun {
		slog.Info("Dry run",
			"tenant", *tenantSlug, "host", *tenantHost,
			"admin", *adminEmail, "demo_raffle", *demoRaffle)
		return
	}

	p, err := platform.Open(cfg, "seed")
	if err != nil {
		logger.Fatal("Failed to open platform", "error", err)
	}
	defer p.Close()

	if err := p.DB.RunMigrations(); err != nil {
		logger.Fatal("Failed to run migrations", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := seed(ctx, p.Repos, p.Services); err != nil {
		logger.Fatal("Seeding failed", "error", err)
	}
	slog.Info("Seeding completed successfully!")
}

func seed(ctx context.Context, repos *repository.Repositories, svc *service.Services) error {
	tenant := &models.Tenant{Name: *tenantName, Slug: *tenantSlug, Host: strings.ToLower(*tenantHost)}
	if err := repos.Tenants.Create(ctx, tenant); err != nil {
		return err
	}
	slog.Info("Tenant ready", "tenant_id", tenant.ID, "slug", tenant.Slug)

	admin, err := ensureUser(ctx, repos, tenant.ID, *adminEmail, *adminPassword, "Administrador", models.RoleAdmin)
	if err != nil {
		return err
	}
	if *playerEmail != "" {
		if _, err := ensureUser(ctx, repos, tenant.ID, *playerEmail, *playerPassword, "Jogador", models.RolePlayer); err != nil {
			return err
		}
	}

	settings, err := repos.Settings.Get(ctx, tenant.ID)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	if *pixKey != "" {
		settings.PixKey = *pixKey
	}
	if err := repos.Settings.Upsert(ctx, settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	if err := ensureSorteio(ctx, repos, tenant.ID, defaultSorteio, "19:00"); err != nil {
		return err
	}

	if *demoRaffle == "" {
		return nil
	}

	actor := models.Actor{ID: admin.ID, Role: admin.Role, TenantID: tenant.ID, UserAgent: "seed"}
	raffle, err := svc.Raffles.Create(ctx, actor, &models.CreateRaffleRequest{
		Titulo:       "Rifa demonstração " + *demoRaffle,
		PrecoNumero:  500,
		ValorPremio:  100000,
		TipoRifa:     *demoRaffle,
		LocalSorteio: defaultSorteio,
		DataSorteio:  time.Now().AddDate(0, 0, 7).UTC(),
		Status:       string(models.RaffleActive),
	})
	if err != nil {
		return fmt.Errorf("failed to create demo raffle: %w", err)
	}
	slog.Info("Demo raffle created", "rifa_id", raffle.ID, "tipo", raffle.TipoRifa)
	return nil
}

const defaultSorteio = "Loteria Federal"

func ensureSorteio(ctx context.Context, repos *repository.Repositories, tenantID, nome, horario string) error {
	existing, err := repos.Sorteios.GetActiveByName(ctx, tenantID, nome)
	if err != nil {
		return fmt.Errorf("failed to look up sorteio: %w", err)
	}
	if existing != nil {
		slog.Info("Sorteio already exists", "sorteio_id", existing.ID, "nome", existing.Nome)
		return nil
	}

	sorteio := &models.Sorteio{TenantID: tenantID, Nome: nome, Horario: horario, Ativo: true}
	if err := repos.Sorteios.Create(ctx, sorteio); err != nil {
		if repository.IsUniqueViolation(err) {
			slog.Warn("Sorteio exists but is inactive", "nome", nome)
			return nil
		}
		return fmt.Errorf("failed to create sorteio: %w", err)
	}
	slog.Info("Sorteio created", "sorteio_id", sorteio.ID, "nome", nome, "horario", horario)
	return nil
}

func ensureUser(ctx context.Context, repos *repository.Repositories, tenantID, email, password, name, role string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	existing, err := repos.Users.GetByEmail(ctx, tenantID, email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up %s: %w", email, err)
	}
	if existing != nil {
		slog.Info("User already exists", "user_id", existing.ID, "email", email, "role", existing.Role)
		return existing, nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		TenantID:     tenantID,
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
	}
	if err := repos.Users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", email, err)
	}
	slog.Info("User created", "user_id", user.ID, "email", email, "role", role)
	return user, nil
}
