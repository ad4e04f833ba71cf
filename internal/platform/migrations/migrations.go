// Package migrations contains the ordered schema statements for the SGA
// database. Statements are idempotent so Apply can run at every startup.
package migrations

import (
	"context"
	"database/sql"
	"fmt"
)

var statements = []string{
	`CREATE TABLE IF NOT EXISTS usuarios (
		id TEXT PRIMARY KEY,
		nombre_completo TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		rol TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS ubicaciones (
		id TEXT PRIMARY KEY,
		nombre TEXT NOT NULL UNIQUE,
		descripcion TEXT NOT NULL DEFAULT '',
		parent_ubicacion_id TEXT REFERENCES ubicaciones(id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS compras (
		id TEXT PRIMARY KEY,
		numero_factura TEXT NOT NULL DEFAULT '',
		proveedor TEXT NOT NULL DEFAULT '',
		fecha_compra DATE NOT NULL,
		solicitado_por_id TEXT REFERENCES usuarios(id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS activos (
		id TEXT PRIMARY KEY,
		codigo_activo TEXT NOT NULL UNIQUE,
		nombre_activo TEXT NOT NULL,
		descripcion TEXT NOT NULL DEFAULT '',
		marca TEXT NOT NULL DEFAULT '',
		modelo TEXT NOT NULL DEFAULT '',
		numero_serie TEXT,
		status TEXT NOT NULL,
		fecha_adquisicion DATE NOT NULL,
		costo_adquisicion NUMERIC(12,2) NOT NULL,
		vida_util_meses INTEGER NOT NULL DEFAULT 36,
		valor_residual NUMERIC(12,2) NOT NULL DEFAULT 0,
		qr_url TEXT NOT NULL DEFAULT '',
		ubicacion_id TEXT REFERENCES ubicaciones(id),
		usuario_asignado_id TEXT REFERENCES usuarios(id),
		compra_id TEXT REFERENCES compras(id),
		ultima_auditoria_fecha TIMESTAMPTZ,
		ultima_auditoria_por_id TEXT REFERENCES usuarios(id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS activos_numero_serie_idx
		ON activos (numero_serie) WHERE numero_serie IS NOT NULL`,
	`CREATE TABLE IF NOT EXISTS mantenimientos (
		id TEXT PRIMARY KEY,
		activo_id TEXT NOT NULL REFERENCES activos(id) ON DELETE CASCADE,
		fecha_mantenimiento DATE NOT NULL,
		tipo_mantenimiento TEXT NOT NULL,
		descripcion TEXT NOT NULL,
		costo NUMERIC(12,2) NOT NULL DEFAULT 0,
		realizado_por_id TEXT NOT NULL REFERENCES usuarios(id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS historial_movimientos (
		id TEXT PRIMARY KEY,
		activo_id TEXT NOT NULL REFERENCES activos(id) ON DELETE CASCADE,
		usuario_id TEXT,
		fecha_cambio TIMESTAMPTZ NOT NULL DEFAULT now(),
		campo_modificado TEXT NOT NULL,
		valor_anterior TEXT NOT NULL DEFAULT '',
		valor_nuevo TEXT NOT NULL DEFAULT '',
		nota TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS auditorias (
		id TEXT PRIMARY KEY,
		ubicacion_auditada_id TEXT NOT NULL REFERENCES ubicaciones(id),
		auditor_id TEXT NOT NULL REFERENCES usuarios(id),
		fecha_inicio TIMESTAMPTZ NOT NULL DEFAULT now(),
		fecha_fin TIMESTAMPTZ,
		status TEXT NOT NULL,
		resumen TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS auditoria_detalles (
		id TEXT PRIMARY KEY,
		auditoria_id TEXT NOT NULL REFERENCES auditorias(id) ON DELETE CASCADE,
		activo_id TEXT,
		codigo_activo TEXT NOT NULL,
		resultado TEXT NOT NULL,
		timestamp_scan TIMESTAMPTZ NOT NULL DEFAULT now(),
		nota TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS api_audit_log (
		id BIGSERIAL PRIMARY KEY,
		time TIMESTAMPTZ NOT NULL,
		username TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL DEFAULT '',
		path TEXT NOT NULL,
		method TEXT NOT NULL,
		status INTEGER NOT NULL,
		remote_addr TEXT NOT NULL DEFAULT '',
		user_agent TEXT NOT NULL DEFAULT ''
	)`,
}

// Apply executes every migration statement in order.
func Apply(ctx context.Context, db *sql.DB) error {
	for i, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
	}
	return nil
}

// Count reports how many statements Apply runs; used by tests.
func Count() int { return len(statements) }
