package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"log/slog"

	"github.com/sgangavaram08/CodeSync1/internal/app"
	"github.com/sgangavaram08/CodeSync1/internal/session"
)

// ErrNotFound is returned when a looked-up user or room does not exist.
var ErrNotFound = errors.New("not found")

type Postgres struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

// NewPostgres connects to postgres and returns a pool wrapper
func NewPostgres(ctx context.Context, cfg app.Config, log *slog.Logger) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, cfg.PGURL)
	if err != nil {
		return nil, err
	}
	return &Postgres{pool: pool, log: log}, nil
}

func (p *Postgres) Close() { p.pool.Close() }

// CreateOrJoinRoom creates the room with username as admin, or appends the
// username to the member list of an existing room. The returned role tells
// the caller whether this user is the admin or an ordinary member.
func (p *Postgres) CreateOrJoinRoom(ctx context.Context, roomID, username string) (Room, string, error) {
	rm, err := p.FindRoom(ctx, roomID)
	if errors.Is(err, ErrNotFound) {
		row := p.pool.QueryRow(ctx, `
			INSERT INTO rooms (room_id, admin_username, members)
			VALUES ($1, $2, ARRAY[$2])
			RETURNING id, room_id, admin_username, members, locked, created_at, updated_at
		`, roomID, username)
		rm, err = scanRoom(row)
		if err != nil {
			return Room{}, "", err
		}
		p.log.Info("room.created", "room", roomID, "admin", username)
		return rm, "admin", nil
	}
	if err != nil {
		return Room{}, "", err
	}

	role := "user"
	if rm.Admin == username {
		role = "admin"
	}
	for _, m := range rm.Members {
		if m == username {
			return rm, role, nil
		}
	}

	row := p.pool.QueryRow(ctx, `
		UPDATE rooms
		SET members = array_append(members, $2), updated_at = NOW()
		WHERE room_id = $1
		RETURNING id, room_id, admin_username, members, locked, created_at, updated_at
	`, roomID, username)
	rm, err = scanRoom(row)
	if err != nil {
		return Room{}, "", err
	}
	return rm, role, nil
}

// FindRoom fetches the full room record by its public room ID.
func (p *Postgres) FindRoom(ctx context.Context, roomID string) (Room, error) {
	row := p.pool.QueryRow(ctx, `
		SELECT id, room_id, admin_username, members, locked, created_at, updated_at
		FROM rooms
		WHERE room_id = $1
	`, roomID)
	rm, err := scanRoom(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Room{}, ErrNotFound
	}
	return rm, err
}

// GetRoom satisfies the coordinator's room-metadata collaborator. It is a
// read-through on every call so admin changes are never served stale.
func (p *Postgres) GetRoom(ctx context.Context, roomID string) (session.RoomInfo, error) {
	rm, err := p.FindRoom(ctx, roomID)
	if err != nil {
		return session.RoomInfo{}, err
	}
	return session.RoomInfo{Admin: rm.Admin, Locked: rm.Locked}, nil
}

// SetRoomLock flips the room-level lock flag.
func (p *Postgres) SetRoomLock(ctx context.Context, roomID string, locked bool) error {
	ct, err := p.pool.Exec(ctx, `
		UPDATE rooms SET locked = $2, updated_at = NOW() WHERE room_id = $1
	`, roomID, locked)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	p.log.Info("room.lock", "room", roomID, "locked", locked)
	return nil
}

func scanRoom(row pgx.Row) (Room, error) {
	var rm Room
	err := row.Scan(&rm.ID, &rm.RoomID, &rm.Admin, &rm.Members, &rm.Locked, &rm.CreatedAt, &rm.UpdatedAt)
	return rm, err
}
