package database

import (
	"fmt"
	"log/slog"
)

func (db *DB) RunMigrations() error {
	slog.Info("Running database migrations...")

	migrations := []string{
		createExtensions,
		createTenantsTable,
		createUsersTable,
		createSorteiosTable,
		createRifasTable,
		createRifaNumerosTable,
		createRifaResultadosTable,
		createRifaGanhadoresTable,
		createAdminSettingsTable,
		createAuditLogsTable,
		createPaymentLogsTable,
		createBlockedEntitiesTable,
		createIndexes,
	}

	for i, migration := range migrations {
		slog.Info("Running migration", "step", i+1)
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	slog.Info("All migrations completed successfully")
	return nil
}

const createExtensions = `
CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`

const createTenantsTable = `
CREATE TABLE IF NOT EXISTS tenants (
    id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
    name VARCHAR(255) NOT NULL,
    slug VARCHAR(100) NOT NULL UNIQUE,
    host VARCHAR(255) UNIQUE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

const createUsersTable = `
CREATE TABLE IF NOT EXISTS users (
    id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
    tenant_id UUID NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
    email VARCHAR(255) NOT NULL,
    name VARCHAR(255) NOT NULL,
    phone VARCHAR(32),
    password_hash VARCHAR(100) NOT NULL,
    role VARCHAR(20) NOT NULL DEFAULT 'player',
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    whatsapp_opt_in BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),

    UNIQUE(tenant_id, email),
    CHECK (role IN ('player', 'admin', 'global_admin'))
);`

const createSorteiosTable = `
CREATE TABLE IF NOT EXISTS sorteios (
    id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
    tenant_id UUID NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
    nome VARCHAR(255) NOT NULL,
    horario VARCHAR(5) NOT NULL,
    ativo BOOLEAN NOT NULL DEFAULT TRUE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),

    UNIQUE(tenant_id, nome)
);`

const createRifasTable = `
CREATE TABLE IF NOT EXISTS rifas (
    id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
    tenant_id UUID NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
    owner_id UUID NOT NULL REFERENCES users(id),
    titulo VARCHAR(255) NOT NULL,
    descricao TEXT,
    preco_numero NUMERIC(12,2) NOT NULL,
    valor_premio NUMERIC(12,2) NOT NULL DEFAULT 0,
    tipo_rifa VARCHAR(20) NOT NULL,
    local_sorteio VARCHAR(255) NOT NULL,
    data_sorteio TIMESTAMPTZ NOT NULL,
    hora_encerramento TIMESTAMPTZ,
    status VARCHAR(20) NOT NULL DEFAULT 'rascunho',
    resultado VARCHAR(20),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),

    CHECK (tipo_rifa IN ('milhar', 'centena', 'dezena', 'grupo')),
    CHECK (status IN ('rascunho', 'ativa', 'encerrada', 'apurada'))
);`

const createRifaNumerosTable = `
CREATE TABLE IF NOT EXISTS rifa_numeros (
    id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
    rifa_id UUID NOT NULL REFERENCES rifas(id) ON DELETE CASCADE,
    tenant_id UUID NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
    numero VARCHAR(4) NOT NULL,
    status VARCHAR(20) NOT NULL DEFAULT 'livre',
    premio_status VARCHAR(10) NOT NULL DEFAULT 'PENDING',
    user_id UUID REFERENCES users(id),
    payment_id VARCHAR(100),
    reserved_until TIMESTAMPTZ,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),

    UNIQUE(rifa_id, numero),
    CHECK (status IN ('livre', 'reservado', 'pago', 'expirado', 'cancelado')),
    CHECK (premio_status IN ('PENDING', 'WINNER', 'LOSER'))
);`

const createRifaResultadosTable = `
CREATE TABLE IF NOT EXISTS rifa_resultados (
    id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
    rifa_id UUID NOT NULL UNIQUE REFERENCES rifas(id) ON DELETE CASCADE,
    tenant_id UUID NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
    tipo_rifa VARCHAR(20) NOT NULL,
    resultado VARCHAR(20) NOT NULL,
    local_sorteio VARCHAR(255) NOT NULL,
    data_resultado TIMESTAMPTZ NOT NULL,
    apurado BOOLEAN NOT NULL DEFAULT FALSE,
    created_by UUID NOT NULL REFERENCES users(id),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

const createRifaGanhadoresTable = `
CREATE TABLE IF NOT EXISTS rifa_ganhadores (
    id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
    rifa_id UUID NOT NULL REFERENCES rifas(id) ON DELETE CASCADE,
    rifa_numero_id UUID NOT NULL REFERENCES rifa_numeros(id) ON DELETE CASCADE,
    user_id UUID NOT NULL REFERENCES users(id),
    tenant_id UUID NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),

    UNIQUE(rifa_id, rifa_numero_id)
);`

const createAdminSettingsTable = `
CREATE TABLE IF NOT EXISTS admin_settings (
    tenant_id UUID PRIMARY KEY REFERENCES tenants(id) ON DELETE CASCADE,
    pix_key VARCHAR(255) NOT NULL DEFAULT '',
    accept_pix BOOLEAN NOT NULL DEFAULT TRUE,
    accept_debito BOOLEAN NOT NULL DEFAULT FALSE,
    accept_credito BOOLEAN NOT NULL DEFAULT FALSE,
    reservation_timeout_minutes INTEGER NOT NULL DEFAULT 20,
    fechamento_minutos INTEGER NOT NULL DEFAULT 20,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

const createAuditLogsTable = `
CREATE TABLE IF NOT EXISTS audit_logs (
    id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
    tenant_id UUID,
    actor_id UUID,
    actor_role VARCHAR(20) NOT NULL DEFAULT 'system',
    action VARCHAR(50) NOT NULL,
    entity_type VARCHAR(50) NOT NULL,
    entity_id VARCHAR(100) NOT NULL,
    old_value JSONB,
    new_value JSONB,
    ip_address VARCHAR(64),
    user_agent TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

const createPaymentLogsTable = `
CREATE TABLE IF NOT EXISTS payment_logs (
    id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
    tenant_id UUID NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
    rifa_id UUID NOT NULL REFERENCES rifas(id) ON DELETE CASCADE,
    numero_id UUID NOT NULL REFERENCES rifa_numeros(id) ON DELETE CASCADE,
    user_id UUID REFERENCES users(id),
    payment_id VARCHAR(100) NOT NULL,
    valor NUMERIC(12,2) NOT NULL,
    metodo VARCHAR(20) NOT NULL,
    status VARCHAR(20) NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),

    CHECK (metodo IN ('pix', 'debito', 'credito')),
    CHECK (status IN ('pago', 'cancelado', 'estornado'))
);`

const createBlockedEntitiesTable = `
CREATE TABLE IF NOT EXISTS blocked_entities (
    id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
    tenant_id UUID NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
    type VARCHAR(10) NOT NULL,
    value VARCHAR(255) NOT NULL,
    reason TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),

    UNIQUE(tenant_id, type, value),
    CHECK (type IN ('ip', 'user'))
);`

const createIndexes = `
CREATE INDEX IF NOT EXISTS idx_rifas_tenant_status ON rifas(tenant_id, status);
CREATE INDEX IF NOT EXISTS idx_rifa_numeros_status_until ON rifa_numeros(status, reserved_until);
CREATE INDEX IF NOT EXISTS idx_rifa_numeros_user ON rifa_numeros(user_id);
CREATE INDEX IF NOT EXISTS idx_rifa_numeros_payment ON rifa_numeros(payment_id);
CREATE INDEX IF NOT EXISTS idx_audit_logs_action_created ON audit_logs(action, created_at);
CREATE INDEX IF NOT EXISTS idx_payment_logs_rifa ON payment_logs(rifa_id);
CREATE INDEX IF NOT EXISTS idx_payment_logs_tenant_created ON payment_logs(tenant_id, created_at);
CREATE INDEX IF NOT EXISTS idx_audit_logs_tenant_created ON audit_logs(tenant_id, created_at);`
