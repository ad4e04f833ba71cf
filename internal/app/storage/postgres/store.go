// Package postgres implements the storage interfaces backed by PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/assetops/sga/internal/app/domain/asset"
	"github.com/assetops/sga/internal/app/domain/audit"
	"github.com/assetops/sga/internal/app/domain/location"
	"github.com/assetops/sga/internal/app/domain/maintenance"
	"github.com/assetops/sga/internal/app/domain/purchase"
	"github.com/assetops/sga/internal/app/domain/user"
	"github.com/assetops/sga/internal/app/storage"
)

// Store implements the storage interfaces backed by PostgreSQL.
type Store struct {
	db *sql.DB
}

var _ storage.UserStore = (*Store)(nil)
var _ storage.LocationStore = (*Store)(nil)
var _ storage.PurchaseStore = (*Store)(nil)
var _ storage.AssetStore = (*Store)(nil)
var _ storage.MaintenanceStore = (*Store)(nil)
var _ storage.AuditStore = (*Store)(nil)

// New creates a Store using the provided database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const uniqueViolation = "23505"

func translateErr(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, storage.ErrNotFound)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
		return fmt.Errorf("%s: %w", what, storage.ErrConflict)
	}
	return err
}

func nullStr(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil || t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// --- UserStore ---------------------------------------------------------------

func (s *Store) CreateUser(ctx context.Context, u user.User) (user.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO usuarios (id, nombre_completo, email, rol, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, u.ID, u.FullName, strings.ToLower(u.Email), string(u.Role), u.CreatedAt)
	if err != nil {
		return user.User{}, translateErr(err, "user "+u.Email)
	}
	return u, nil
}

func scanUser(row interface{ Scan(...any) error }) (user.User, error) {
	var u user.User
	var role string
	if err := row.Scan(&u.ID, &u.FullName, &u.Email, &role, &u.CreatedAt); err != nil {
		return user.User{}, err
	}
	u.Role = user.Role(role)
	return u, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (user.User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, nombre_completo, email, rol, created_at
		FROM usuarios WHERE id = $1
	`, id)
	u, err := scanUser(row)
	if err != nil {
		return user.User{}, translateErr(err, "user "+id)
	}
	return u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, nombre_completo, email, rol, created_at
		FROM usuarios WHERE email = $1
	`, strings.ToLower(email))
	u, err := scanUser(row)
	if err != nil {
		return user.User{}, translateErr(err, "user "+email)
	}
	return u, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]user.User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, nombre_completo, email, rol, created_at
		FROM usuarios ORDER BY nombre_completo
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []user.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// --- LocationStore -------------------------------------------------------------

func scanLocation(row interface{ Scan(...any) error }) (location.Location, error) {
	var loc location.Location
	var parent sql.NullString
	if err := row.Scan(&loc.ID, &loc.Name, &loc.Description, &parent, &loc.CreatedAt); err != nil {
		return location.Location{}, err
	}
	loc.ParentID = parent.String
	return loc, nil
}

func (s *Store) CreateLocation(ctx context.Context, loc location.Location) (location.Location, error) {
	if loc.ID == "" {
		loc.ID = uuid.NewString()
	}
	if loc.CreatedAt.IsZero() {
		loc.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ubicaciones (id, nombre, descripcion, parent_ubicacion_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, loc.ID, loc.Name, loc.Description, nullStr(loc.ParentID), loc.CreatedAt)
	if err != nil {
		return location.Location{}, translateErr(err, "location "+loc.Name)
	}
	return loc, nil
}

func (s *Store) UpdateLocation(ctx context.Context, loc location.Location) (location.Location, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE ubicaciones
		SET nombre = $2, descripcion = $3, parent_ubicacion_id = $4
		WHERE id = $1
	`, loc.ID, loc.Name, loc.Description, nullStr(loc.ParentID))
	if err != nil {
		return location.Location{}, translateErr(err, "location "+loc.ID)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return location.Location{}, fmt.Errorf("location %s: %w", loc.ID, storage.ErrNotFound)
	}
	return loc, nil
}

func (s *Store) GetLocation(ctx context.Context, id string) (location.Location, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, nombre, descripcion, parent_ubicacion_id, created_at
		FROM ubicaciones WHERE id = $1
	`, id)
	loc, err := scanLocation(row)
	if err != nil {
		return location.Location{}, translateErr(err, "location "+id)
	}
	return loc, nil
}

func (s *Store) GetLocationByName(ctx context.Context, name string) (location.Location, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, nombre, descripcion, parent_ubicacion_id, created_at
		FROM ubicaciones WHERE lower(nombre) = lower($1)
	`, name)
	loc, err := scanLocation(row)
	if err != nil {
		return location.Location{}, translateErr(err, "location "+name)
	}
	return loc, nil
}

func (s *Store) ListLocations(ctx context.Context) ([]location.Location, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, nombre, descripcion, parent_ubicacion_id, created_at
		FROM ubicaciones ORDER BY nombre
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []location.Location
	for rows.Next() {
		loc, err := scanLocation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, loc)
	}
	return out, rows.Err()
}

// --- PurchaseStore -------------------------------------------------------------

func (s *Store) CreatePurchase(ctx context.Context, p purchase.Purchase) (purchase.Purchase, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO compras (id, numero_factura, proveedor, fecha_compra, solicitado_por_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, p.ID, p.InvoiceNumber, p.Supplier, p.PurchaseDate, nullStr(p.RequestedByID), p.CreatedAt)
	if err != nil {
		return purchase.Purchase{}, translateErr(err, "purchase "+p.ID)
	}
	return p, nil
}

func scanPurchase(row interface{ Scan(...any) error }) (purchase.Purchase, error) {
	var p purchase.Purchase
	var requestedBy sql.NullString
	if err := row.Scan(&p.ID, &p.InvoiceNumber, &p.Supplier, &p.PurchaseDate, &requestedBy, &p.CreatedAt); err != nil {
		return purchase.Purchase{}, err
	}
	p.RequestedByID = requestedBy.String
	return p, nil
}

func (s *Store) GetPurchase(ctx context.Context, id string) (purchase.Purchase, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, numero_factura, proveedor, fecha_compra, solicitado_por_id, created_at
		FROM compras WHERE id = $1
	`, id)
	p, err := scanPurchase(row)
	if err != nil {
		return purchase.Purchase{}, translateErr(err, "purchase "+id)
	}
	return p, nil
}

func (s *Store) ListPurchases(ctx context.Context) ([]purchase.Purchase, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, numero_factura, proveedor, fecha_compra, solicitado_por_id, created_at
		FROM compras ORDER BY fecha_compra
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []purchase.Purchase
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// --- AssetStore ----------------------------------------------------------------

const assetColumns = `id, codigo_activo, nombre_activo, descripcion, marca, modelo,
	numero_serie, status, fecha_adquisicion, costo_adquisicion, vida_util_meses,
	valor_residual, qr_url, ubicacion_id, usuario_asignado_id, compra_id,
	ultima_auditoria_fecha, ultima_auditoria_por_id, created_at, updated_at`

func scanAsset(row interface{ Scan(...any) error }) (asset.Asset, error) {
	var a asset.Asset
	var serial, locID, assigneeID, purchaseID, auditBy sql.NullString
	var status string
	var auditAt sql.NullTime
	err := row.Scan(&a.ID, &a.Code, &a.Name, &a.Description, &a.Brand, &a.Model,
		&serial, &status, &a.AcquiredAt, &a.Cost, &a.UsefulLifeMonths,
		&a.ResidualValue, &a.QRURL, &locID, &assigneeID, &purchaseID,
		&auditAt, &auditBy, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return asset.Asset{}, err
	}
	a.SerialNumber = serial.String
	a.Status = asset.Status(status)
	a.LocationID = locID.String
	a.AssigneeID = assigneeID.String
	a.PurchaseID = purchaseID.String
	a.LastAuditByID = auditBy.String
	if auditAt.Valid {
		t := auditAt.Time
		a.LastAuditAt = &t
	}
	return a, nil
}

func (s *Store) CreateAsset(ctx context.Context, a asset.Asset) (asset.Asset, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO activos (`+assetColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	`, a.ID, a.Code, a.Name, a.Description, a.Brand, a.Model,
		nullStr(a.SerialNumber), string(a.Status), a.AcquiredAt, a.Cost, a.UsefulLifeMonths,
		a.ResidualValue, a.QRURL, nullStr(a.LocationID), nullStr(a.AssigneeID), nullStr(a.PurchaseID),
		nullTime(a.LastAuditAt), nullStr(a.LastAuditByID), a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return asset.Asset{}, translateErr(err, "asset "+a.Code)
	}
	return a, nil
}

func (s *Store) UpdateAsset(ctx context.Context, a asset.Asset) (asset.Asset, error) {
	a.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		UPDATE activos SET
			codigo_activo = $2, nombre_activo = $3, descripcion = $4, marca = $5,
			modelo = $6, numero_serie = $7, status = $8, fecha_adquisicion = $9,
			costo_adquisicion = $10, vida_util_meses = $11, valor_residual = $12,
			qr_url = $13, ubicacion_id = $14, usuario_asignado_id = $15,
			compra_id = $16, ultima_auditoria_fecha = $17, ultima_auditoria_por_id = $18,
			updated_at = $19
		WHERE id = $1
	`, a.ID, a.Code, a.Name, a.Description, a.Brand,
		a.Model, nullStr(a.SerialNumber), string(a.Status), a.AcquiredAt,
		a.Cost, a.UsefulLifeMonths, a.ResidualValue,
		a.QRURL, nullStr(a.LocationID), nullStr(a.AssigneeID),
		nullStr(a.PurchaseID), nullTime(a.LastAuditAt), nullStr(a.LastAuditByID),
		a.UpdatedAt)
	if err != nil {
		return asset.Asset{}, translateErr(err, "asset "+a.ID)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return asset.Asset{}, fmt.Errorf("asset %s: %w", a.ID, storage.ErrNotFound)
	}
	return a, nil
}

func (s *Store) GetAsset(ctx context.Context, id string) (asset.Asset, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+assetColumns+` FROM activos WHERE id = $1`, id)
	a, err := scanAsset(row)
	if err != nil {
		return asset.Asset{}, translateErr(err, "asset "+id)
	}
	return a, nil
}

func (s *Store) GetAssetByCode(ctx context.Context, code string) (asset.Asset, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+assetColumns+` FROM activos WHERE upper(codigo_activo) = upper($1)
	`, code)
	a, err := scanAsset(row)
	if err != nil {
		return asset.Asset{}, translateErr(err, "asset "+code)
	}
	return a, nil
}

func (s *Store) DeleteAsset(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM activos WHERE id = $1`, id)
	if err != nil {
		return translateErr(err, "asset "+id)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("asset %s: %w", id, storage.ErrNotFound)
	}
	return nil
}

func assetFilterClause(f asset.Filter, args *[]any) string {
	var conds []string
	if f.Search != "" {
		*args = append(*args, "%"+f.Search+"%")
		n := len(*args)
		conds = append(conds, fmt.Sprintf(
			"(codigo_activo ILIKE $%d OR nombre_activo ILIKE $%d OR marca ILIKE $%d)", n, n, n))
	}
	if f.Status != "" {
		*args = append(*args, string(f.Status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(*args)))
	}
	if len(conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conds, " AND ")
}

func (s *Store) ListAssets(ctx context.Context, f asset.Filter) ([]asset.Asset, int, error) {
	var args []any
	where := assetFilterClause(f, &args)

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM activos`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + assetColumns + ` FROM activos` + where + ` ORDER BY codigo_activo`
	if f.PerPage > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		args = append(args, f.PerPage)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
		args = append(args, (page-1)*f.PerPage)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []asset.Asset{}
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, a)
	}
	return out, total, rows.Err()
}

func (s *Store) ListAssetsByLocation(ctx context.Context, locationID string) ([]asset.Asset, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+assetColumns+` FROM activos WHERE ubicacion_id = $1 ORDER BY codigo_activo
	`, locationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []asset.Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) SearchAssets(ctx context.Context, query string, limit int) ([]asset.Asset, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+assetColumns+` FROM activos
		WHERE codigo_activo ILIKE $1 OR nombre_activo ILIKE $1 OR marca ILIKE $1
		ORDER BY codigo_activo LIMIT $2
	`, "%"+query+"%", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []asset.Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) AssetStats(ctx context.Context) (asset.Stats, error) {
	stats := asset.Stats{ByStatus: make(map[asset.Status]int)}
	for _, st := range asset.Statuses() {
		stats.ByStatus[st] = 0
	}

	rows, err := s.db.QueryContext(ctx, `SELECT status, count(*) FROM activos GROUP BY status`)
	if err != nil {
		return asset.Stats{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return asset.Stats{}, err
		}
		stats.ByStatus[asset.Status(status)] = count
		stats.Total += count
	}
	if err := rows.Err(); err != nil {
		return asset.Stats{}, err
	}

	err = s.db.QueryRowContext(ctx, `
		SELECT
			count(*) FILTER (WHERE ubicacion_id IS NULL),
			count(*) FILTER (WHERE usuario_asignado_id IS NULL)
		FROM activos
	`).Scan(&stats.Unlocated, &stats.Unassigned)
	if err != nil {
		return asset.Stats{}, err
	}
	return stats, nil
}

func (s *Store) CreateMovement(ctx context.Context, m asset.Movement) (asset.Movement, error) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.ChangedAt.IsZero() {
		m.ChangedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO historial_movimientos (id, activo_id, usuario_id, fecha_cambio, campo_modificado, valor_anterior, valor_nuevo, nota)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, m.ID, m.AssetID, nullStr(m.UserID), m.ChangedAt, m.Field, m.OldValue, m.NewValue, m.Note)
	if err != nil {
		return asset.Movement{}, translateErr(err, "movement for asset "+m.AssetID)
	}
	return m, nil
}

func (s *Store) ListMovements(ctx context.Context, assetID string) ([]asset.Movement, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, activo_id, usuario_id, fecha_cambio, campo_modificado, valor_anterior, valor_nuevo, nota
		FROM historial_movimientos WHERE activo_id = $1 ORDER BY fecha_cambio DESC
	`, assetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []asset.Movement
	for rows.Next() {
		var m asset.Movement
		var userID sql.NullString
		if err := rows.Scan(&m.ID, &m.AssetID, &userID, &m.ChangedAt, &m.Field, &m.OldValue, &m.NewValue, &m.Note); err != nil {
			return nil, err
		}
		m.UserID = userID.String
		out = append(out, m)
	}
	return out, rows.Err()
}

// --- MaintenanceStore -----------------------------------------------------------

func (s *Store) CreateMaintenance(ctx context.Context, rec maintenance.Record) (maintenance.Record, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO mantenimientos (id, activo_id, fecha_mantenimiento, tipo_mantenimiento, descripcion, costo, realizado_por_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, rec.ID, rec.AssetID, rec.Date, string(rec.Type), rec.Description, rec.Cost, rec.TechnicianID, rec.CreatedAt)
	if err != nil {
		return maintenance.Record{}, translateErr(err, "maintenance for asset "+rec.AssetID)
	}
	return rec, nil
}

func (s *Store) ListMaintenance(ctx context.Context, assetID string) ([]maintenance.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, activo_id, fecha_mantenimiento, tipo_mantenimiento, descripcion, costo, realizado_por_id, created_at
		FROM mantenimientos WHERE activo_id = $1 ORDER BY fecha_mantenimiento DESC
	`, assetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []maintenance.Record
	for rows.Next() {
		var rec maintenance.Record
		var typ string
		if err := rows.Scan(&rec.ID, &rec.AssetID, &rec.Date, &typ, &rec.Description, &rec.Cost, &rec.TechnicianID, &rec.CreatedAt); err != nil {
			return nil, err
		}
		rec.Type = maintenance.Type(typ)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// --- AuditStore -------------------------------------------------------------------

func (s *Store) CreateAudit(ctx context.Context, a audit.Audit) (audit.Audit, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.StartedAt.IsZero() {
		a.StartedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO auditorias (id, ubicacion_auditada_id, auditor_id, fecha_inicio, fecha_fin, status, resumen)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, a.ID, a.LocationID, a.AuditorID, a.StartedAt, nullTime(a.FinishedAt), string(a.Status), a.Summary)
	if err != nil {
		return audit.Audit{}, translateErr(err, "audit "+a.ID)
	}
	return a, nil
}

func (s *Store) UpdateAudit(ctx context.Context, a audit.Audit) (audit.Audit, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE auditorias SET fecha_fin = $2, status = $3, resumen = $4 WHERE id = $1
	`, a.ID, nullTime(a.FinishedAt), string(a.Status), a.Summary)
	if err != nil {
		return audit.Audit{}, translateErr(err, "audit "+a.ID)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return audit.Audit{}, fmt.Errorf("audit %s: %w", a.ID, storage.ErrNotFound)
	}
	return a, nil
}

func scanAudit(row interface{ Scan(...any) error }) (audit.Audit, error) {
	var a audit.Audit
	var status string
	var finished sql.NullTime
	if err := row.Scan(&a.ID, &a.LocationID, &a.AuditorID, &a.StartedAt, &finished, &status, &a.Summary); err != nil {
		return audit.Audit{}, err
	}
	a.Status = audit.Status(status)
	if finished.Valid {
		t := finished.Time
		a.FinishedAt = &t
	}
	return a, nil
}

func (s *Store) GetAudit(ctx context.Context, id string) (audit.Audit, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, ubicacion_auditada_id, auditor_id, fecha_inicio, fecha_fin, status, resumen
		FROM auditorias WHERE id = $1
	`, id)
	a, err := scanAudit(row)
	if err != nil {
		return audit.Audit{}, translateErr(err, "audit "+id)
	}
	return a, nil
}

func (s *Store) ListAudits(ctx context.Context, f audit.Filter) ([]audit.Audit, error) {
	var args []any
	var conds []string
	if f.LocationID != "" {
		args = append(args, f.LocationID)
		conds = append(conds, fmt.Sprintf("ubicacion_auditada_id = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, string(f.Status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	query := `SELECT id, ubicacion_auditada_id, auditor_id, fecha_inicio, fecha_fin, status, resumen FROM auditorias`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY fecha_inicio DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []audit.Audit
	for rows.Next() {
		a, err := scanAudit(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) CreateScan(ctx context.Context, sc audit.Scan) (audit.Scan, error) {
	if sc.ID == "" {
		sc.ID = uuid.NewString()
	}
	if sc.ScannedAt.IsZero() {
		sc.ScannedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO auditoria_detalles (id, auditoria_id, activo_id, codigo_activo, resultado, timestamp_scan, nota)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, sc.ID, sc.AuditID, nullStr(sc.AssetID), sc.AssetCode, string(sc.Result), sc.ScannedAt, sc.Note)
	if err != nil {
		return audit.Scan{}, translateErr(err, "scan for audit "+sc.AuditID)
	}
	return sc, nil
}

func (s *Store) ListScans(ctx context.Context, auditID string) ([]audit.Scan, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, auditoria_id, activo_id, codigo_activo, resultado, timestamp_scan, nota
		FROM auditoria_detalles WHERE auditoria_id = $1 ORDER BY timestamp_scan
	`, auditID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []audit.Scan
	for rows.Next() {
		var sc audit.Scan
		var assetID sql.NullString
		var result string
		if err := rows.Scan(&sc.ID, &sc.AuditID, &assetID, &sc.AssetCode, &result, &sc.ScannedAt, &sc.Note); err != nil {
			return nil, err
		}
		sc.AssetID = assetID.String
		sc.Result = audit.ScanResult(result)
		out = append(out, sc)
	}
	return out, rows.Err()
}
