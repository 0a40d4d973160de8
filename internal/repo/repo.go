package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/dbpg"

	"zettahub/internal/model"
)

var (
	ErrEventNotFound         = errors.New("event not found")
	ErrUserNotFound          = errors.New("user not found")
	ErrRegistrationNotFound  = errors.New("registration not found")
	ErrAdminNotFound         = errors.New("admin not found")
	ErrDuplicateRegistration = errors.New("duplicate registration")
	ErrDuplicateEmail        = errors.New("duplicate email")
	ErrDuplicateAdmin        = errors.New("duplicate admin username")
	ErrEventHasRegistrations = errors.New("event has registrations")
)

// RecentRegistration is the joined shape the dashboard shows.
type RecentRegistration struct {
	ID           string
	UserName     string
	EventTitle   string
	RegisteredAt time.Time
}

type Counts struct {
	Events        int
	Registrations int
	Users         int
}

type Repository interface {
	CreateEvent(ctx context.Context, e *model.Event) error
	GetEventByID(ctx context.Context, id string) (*model.Event, error)
	GetAllEvents(ctx context.Context) ([]model.Event, error)
	UpdateEvent(ctx context.Context, e *model.Event) error
	DeleteEvent(ctx context.Context, id string) error
	CountEventRegistrations(ctx context.Context, eventID string) (int, error)

	ResolveOrCreateUser(ctx context.Context, name, email, requestedID string) (*model.User, error)
	CreateUser(ctx context.Context, u *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetAllUsers(ctx context.Context) ([]model.User, error)

	CreateRegistrationTx(ctx context.Context, reg *model.Registration, writeArtifact func() (string, error)) error
	GetRegistrationByID(ctx context.Context, id string) (*model.Registration, error)
	GetRegistrationsByEventID(ctx context.Context, eventID string) ([]model.Registration, error)
	GetRegistrationsByUserID(ctx context.Context, userID string) ([]model.Registration, error)
	GetAllRegistrations(ctx context.Context) ([]model.Registration, error)
	DeleteRegistration(ctx context.Context, id string) error

	CreateAdmin(ctx context.Context, username, hashedPassword string) error
	GetAdminByUsername(ctx context.Context, username string) (*model.Admin, error)

	DashboardCounts(ctx context.Context) (Counts, error)
	RecentRegistrations(ctx context.Context, limit int) ([]RecentRegistration, error)

	MigrateUp(migrationsDir string) error
	MigrateDown(migrationsDir string) error
}

type repository struct {
	db  *dbpg.DB
	log *zerolog.Logger
}

func NewRepository(db *dbpg.DB, log *zerolog.Logger) (Repository, error) {
	if db == nil {
		return nil, fmt.Errorf("db cannot be nil")
	}
	if err := db.Master.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}
	return &repository{db: db, log: log}, nil
}

// isUniqueViolation reports whether err is a postgres unique-constraint
// violation (class 23505). Constraint violations are the authoritative
// duplicate detector; pre-checks are only an optimization.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func (r *repository) MigrateUp(migrationsDir string) error {
	files, err := filepath.Glob(filepath.Join(migrationsDir, "*.up.sql"))
	if err != nil {
		return fmt.Errorf("failed to read migration files: %w", err)
	}

	for _, file := range files {
		sqlBytes, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read migration file %s: %w", file, err)
		}
		if _, err := r.db.ExecContext(context.Background(), string(sqlBytes)); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", file, err)
		}
	}

	r.log.Info().Msgf("Migrations applied successfully from %s", migrationsDir)
	return nil
}

func (r *repository) MigrateDown(migrationsDir string) error {
	files, err := filepath.Glob(filepath.Join(migrationsDir, "*.down.sql"))
	if err != nil {
		return fmt.Errorf("failed to read rollback files: %w", err)
	}

	for _, file := range files {
		sqlBytes, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read rollback file %s: %w", file, err)
		}
		if _, err := r.db.ExecContext(context.Background(), string(sqlBytes)); err != nil {
			return fmt.Errorf("failed to rollback migration %s: %w", file, err)
		}
	}

	r.log.Info().Msgf("Migrations rolled back successfully from %s", migrationsDir)
	return nil
}

func (r *repository) CreateEvent(ctx context.Context, e *model.Event) error {
	query := `
		INSERT INTO events (id, title, description, date, max_team_size, solo, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	if _, err := r.db.ExecContext(ctx, query,
		e.ID, e.Title, e.Description, e.Date, e.MaxTeamSize, e.Solo, e.CreatedBy,
	); err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

func (r *repository) GetEventByID(ctx context.Context, id string) (*model.Event, error) {
	query := `
		SELECT id, title, description, date, max_team_size, solo, created_by
		FROM events WHERE id = $1
	`
	var e model.Event
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&e.ID, &e.Title, &e.Description, &e.Date, &e.MaxTeamSize, &e.Solo, &e.CreatedBy,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return &e, nil
}

func (r *repository) GetAllEvents(ctx context.Context) ([]model.Event, error) {
	query := `
		SELECT id, title, description, date, max_team_size, solo, created_by
		FROM events
		ORDER BY date ASC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		var e model.Event
		if err := rows.Scan(&e.ID, &e.Title, &e.Description, &e.Date, &e.MaxTeamSize, &e.Solo, &e.CreatedBy); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *repository) UpdateEvent(ctx context.Context, e *model.Event) error {
	query := `
		UPDATE events
		SET title = $1, description = $2, date = $3, max_team_size = $4, solo = $5
		WHERE id = $6
	`
	res, err := r.db.ExecContext(ctx, query, e.Title, e.Description, e.Date, e.MaxTeamSize, e.Solo, e.ID)
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 {
		return ErrEventNotFound
	}
	return nil
}

func (r *repository) DeleteEvent(ctx context.Context, id string) error {
	count, err := r.CountEventRegistrations(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrEventHasRegistrations
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if affected == 0 {
		return ErrEventNotFound
	}
	return nil
}

func (r *repository) CountEventRegistrations(ctx context.Context, eventID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM registrations WHERE event_id = $1`, eventID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count registrations: %w", err)
	}
	return count, nil
}

func (r *repository) getUserByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `
		SELECT id, name, email, role, registered_at
		FROM users WHERE email = $1
	`
	var u model.User
	err := r.db.QueryRowContext(ctx, query, email).Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.RegisteredAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &u, nil
}

// ResolveOrCreateUser returns the user owning email, creating it when absent.
// An existing user is returned unchanged: name and requestedID only apply to
// a brand-new row. The insert commits immediately so the duplicate check in
// the registration transaction sees a stable user id. When two requests race
// on the same new email, the loser re-fetches the winner's row.
func (r *repository) ResolveOrCreateUser(ctx context.Context, name, email, requestedID string) (*model.User, error) {
	u, err := r.getUserByEmail(ctx, email)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	id := requestedID
	if id == "" {
		id = model.NewID()
	}
	created := &model.User{
		ID:           id,
		Name:         name,
		Email:        email,
		Role:         model.RoleUser,
		RegisteredAt: time.Now().UTC(),
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO users (id, name, email, role, registered_at)
		VALUES ($1, $2, $3, $4, $5)
	`, created.ID, created.Name, created.Email, created.Role, created.RegisteredAt)
	if isUniqueViolation(err) {
		r.log.Debug().Str("email", email).Msg("lost user-creation race, re-fetching existing row")
		return r.getUserByEmail(ctx, email)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	return created, nil
}

func (r *repository) CreateUser(ctx context.Context, u *model.User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, name, email, role, registered_at)
		VALUES ($1, $2, $3, $4, $5)
	`, u.ID, u.Name, u.Email, u.Role, u.RegisteredAt)
	if isUniqueViolation(err) {
		return ErrDuplicateEmail
	}
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (r *repository) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	query := `
		SELECT id, name, email, role, registered_at
		FROM users WHERE id = $1
	`
	var u model.User
	err := r.db.QueryRowContext(ctx, query, id).Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.RegisteredAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

func (r *repository) GetAllUsers(ctx context.Context) ([]model.User, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, email, role, registered_at
		FROM users
		ORDER BY registered_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.RegisteredAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// CreateRegistrationTx runs the registration commit path: duplicate check,
// artifact write, row insert, commit. The artifact is written before the
// commit so a committed row always has its image on disk; a commit failure
// can leave an orphan png, which an out-of-band sweep removes.
func (r *repository) CreateRegistrationTx(ctx context.Context, reg *model.Registration, writeArtifact func() (string, error)) error {
	tx, err := r.db.Master.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	var existing int
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM registrations
		WHERE event_id = $1 AND user_id = $2
	`, reg.EventID, reg.UserID).Scan(&existing)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to check duplicate registration: %w", err)
	}
	if existing > 0 {
		_ = tx.Rollback()
		return ErrDuplicateRegistration
	}

	locator, err := writeArtifact()
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to write credential artifact: %w", err)
	}
	reg.QRCode = locator

	_, err = tx.ExecContext(ctx, `
		INSERT INTO registrations (id, event_id, user_id, team_name, phone, qr_code, registered_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, reg.ID, reg.EventID, reg.UserID, reg.TeamName, reg.Phone, reg.QRCode, reg.RegisteredAt)
	if err != nil {
		_ = tx.Rollback()
		if isUniqueViolation(err) {
			return ErrDuplicateRegistration
		}
		return fmt.Errorf("failed to insert registration: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit registration: %w", err)
	}
	return nil
}

const registrationWithUserQuery = `
	SELECT r.id, r.event_id, r.user_id, r.team_name, r.phone, r.qr_code, r.registered_at,
	       u.id, u.name, u.email, u.role, u.registered_at
	FROM registrations r
	JOIN users u ON u.id = r.user_id
`

func scanRegistrationWithUser(rows *sql.Rows) (model.Registration, error) {
	var reg model.Registration
	var u model.User
	err := rows.Scan(
		&reg.ID, &reg.EventID, &reg.UserID, &reg.TeamName, &reg.Phone, &reg.QRCode, &reg.RegisteredAt,
		&u.ID, &u.Name, &u.Email, &u.Role, &u.RegisteredAt,
	)
	if err != nil {
		return model.Registration{}, fmt.Errorf("failed to scan registration: %w", err)
	}
	reg.User = &u
	return reg, nil
}

func (r *repository) queryRegistrations(ctx context.Context, where string, args ...any) ([]model.Registration, error) {
	rows, err := r.db.QueryContext(ctx, registrationWithUserQuery+where, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get registrations: %w", err)
	}
	defer rows.Close()

	var regs []model.Registration
	for rows.Next() {
		reg, err := scanRegistrationWithUser(rows)
		if err != nil {
			return nil, err
		}
		regs = append(regs, reg)
	}
	return regs, rows.Err()
}

func (r *repository) GetRegistrationByID(ctx context.Context, id string) (*model.Registration, error) {
	regs, err := r.queryRegistrations(ctx, ` WHERE r.id = $1`, id)
	if err != nil {
		return nil, err
	}
	if len(regs) == 0 {
		return nil, ErrRegistrationNotFound
	}
	return &regs[0], nil
}

func (r *repository) GetRegistrationsByEventID(ctx context.Context, eventID string) ([]model.Registration, error) {
	return r.queryRegistrations(ctx, ` WHERE r.event_id = $1 ORDER BY r.registered_at ASC`, eventID)
}

func (r *repository) GetRegistrationsByUserID(ctx context.Context, userID string) ([]model.Registration, error) {
	return r.queryRegistrations(ctx, ` WHERE r.user_id = $1 ORDER BY r.registered_at ASC`, userID)
}

func (r *repository) GetAllRegistrations(ctx context.Context) ([]model.Registration, error) {
	return r.queryRegistrations(ctx, ` ORDER BY r.registered_at DESC`)
}

func (r *repository) DeleteRegistration(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM registrations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete registration: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if affected == 0 {
		return ErrRegistrationNotFound
	}
	return nil
}

func (r *repository) CreateAdmin(ctx context.Context, username, hashedPassword string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO admins (username, hashed_password)
		VALUES ($1, $2)
	`, username, hashedPassword)
	if isUniqueViolation(err) {
		return ErrDuplicateAdmin
	}
	if err != nil {
		return fmt.Errorf("failed to insert admin: %w", err)
	}
	return nil
}

func (r *repository) GetAdminByUsername(ctx context.Context, username string) (*model.Admin, error) {
	var a model.Admin
	err := r.db.QueryRowContext(ctx, `
		SELECT id, username, hashed_password
		FROM admins WHERE username = $1
	`, username).Scan(&a.ID, &a.Username, &a.HashedPassword)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAdminNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get admin: %w", err)
	}
	return &a, nil
}

func (r *repository) DashboardCounts(ctx context.Context) (Counts, error) {
	var c Counts
	err := r.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM events),
			(SELECT COUNT(*) FROM registrations),
			(SELECT COUNT(*) FROM users)
	`).Scan(&c.Events, &c.Registrations, &c.Users)
	if err != nil {
		return Counts{}, fmt.Errorf("failed to count dashboard totals: %w", err)
	}
	return c, nil
}

func (r *repository) RecentRegistrations(ctx context.Context, limit int) ([]RecentRegistration, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT r.id, u.name, e.title, r.registered_at
		FROM registrations r
		JOIN users u ON u.id = r.user_id
		JOIN events e ON e.id = r.event_id
		ORDER BY r.registered_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent registrations: %w", err)
	}
	defer rows.Close()

	var recent []RecentRegistration
	for rows.Next() {
		var rr RecentRegistration
		if err := rows.Scan(&rr.ID, &rr.UserName, &rr.EventTitle, &rr.RegisteredAt); err != nil {
			return nil, fmt.Errorf("failed to scan recent registration: %w", err)
		}
		recent = append(recent, rr)
	}
	return recent, rows.Err()
}
