package trip

import (
	"context"
	"crypto/md5"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"
)

type UserRefDTO struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

type TripDTO struct {
	ID             int64       `json:"id"`
	NK             string      `json:"nk"`
	Created        time.Time   `json:"created"`
	Updated        time.Time   `json:"updated"`
	PickUpAddress  string      `json:"pick_up_address"`
	DropOffAddress string      `json:"drop_off_address"`
	Status         string      `json:"status"`
	Driver         *UserRefDTO `json:"driver"`
	Rider          *UserRefDTO `json:"rider"`
}

const (
	StatusRequested  = "REQUESTED"
	StatusStarted    = "STARTED"
	StatusInProgress = "IN_PROGRESS"
	StatusCompleted  = "COMPLETED"
)

const (
	RoleDriver = "driver"
	RoleRider  = "rider"
)

var (
	ErrTripNotFound  = errors.New("trip not found")
	ErrInvalidStatus = errors.New("invalid trip status")
	ErrInvalidRole   = errors.New("invalid role")
)

// ValidStatus reports whether s is one of the enumerated trip statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusRequested, StatusStarted, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// UpdateTripParams carries the partial-update fields; nil means "leave unchanged".
type UpdateTripParams struct {
	PickUpAddress  *string
	DropOffAddress *string
	Status         *string
	DriverID       *int64
}

type ITripService interface {
	CreateTrip(ctx context.Context, pickUpAddress, dropOffAddress string, riderID int64) (*TripDTO, error)
	UpdateTrip(ctx context.Context, nk string, params UpdateTripParams) (*TripDTO, error)
	GetTrip(ctx context.Context, nk string) (*TripDTO, error)
	TripsForUser(ctx context.Context, userID int64, role string) ([]TripDTO, error)
	ListTrips(ctx context.Context, status string, limit, offset int) ([]TripDTO, error)
}

type tripService struct {
	db      *sql.DB
	nkLocks *keyedMutex
}

func NewTripService(db *sql.DB) ITripService {
	return &tripService{
		db:      db,
		nkLocks: newKeyedMutex(),
	}
}

// NewNaturalKey derives the 32-character trip identifier from the creation
// instant plus both addresses. It is assigned exactly once per trip.
func NewNaturalKey(pickUpAddress, dropOffAddress string) string {
	sum := md5.Sum([]byte(fmt.Sprintf("%s:%s:%s",
		time.Now().Format(time.RFC3339Nano), pickUpAddress, dropOffAddress,
	)))
	return hex.EncodeToString(sum[:])
}

const selectTripQ = `
	SELECT t.id, t.nk, t.created, t.updated,
	       t.pick_up_address, t.drop_off_address, t.status,
	       d.id, d.username, r.id, r.username
	  FROM trips t
	  LEFT JOIN users d ON d.id = t.driver_id
	  LEFT JOIN users r ON r.id = t.rider_id`

func (svc *tripService) CreateTrip(ctx context.Context, pickUpAddress, dropOffAddress string, riderID int64) (*TripDTO, error) {
	nk := NewNaturalKey(pickUpAddress, dropOffAddress)

	const insQ = `
	  INSERT INTO trips (nk, pick_up_address, drop_off_address, status, rider_id)
	       VALUES ($1, $2, $3, $4, $5)`

	// A unique-index violation on nk fails the create outright; no retry
	// with a fresh key is attempted.
	if _, err := svc.db.ExecContext(ctx, insQ,
		nk, pickUpAddress, dropOffAddress, StatusRequested, riderID,
	); err != nil {
		return nil, err
	}
	return svc.GetTrip(ctx, nk)
}

func (svc *tripService) UpdateTrip(ctx context.Context, nk string, params UpdateTripParams) (*TripDTO, error) {
	if params.Status != nil && !ValidStatus(*params.Status) {
		return nil, ErrInvalidStatus
	}

	// One update in flight per natural key. Two near-simultaneous updates
	// both succeed; the later one wins field by field (no optimistic check).
	svc.nkLocks.Lock(nk)
	defer svc.nkLocks.Unlock(nk)

	const updQ = `
	  UPDATE trips
	     SET pick_up_address  = COALESCE($1, pick_up_address),
	         drop_off_address = COALESCE($2, drop_off_address),
	         status           = COALESCE($3, status),
	         driver_id        = COALESCE($4, driver_id),
	         updated          = now()
	   WHERE nk = $5`

	res, err := svc.db.ExecContext(ctx, updQ,
		params.PickUpAddress, params.DropOffAddress, params.Status, params.DriverID, nk,
	)
	if err != nil {
		return nil, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, err
	} else if n == 0 {
		return nil, ErrTripNotFound
	}
	return svc.GetTrip(ctx, nk)
}

func (svc *tripService) GetTrip(ctx context.Context, nk string) (*TripDTO, error) {
	row := svc.db.QueryRowContext(ctx, selectTripQ+` WHERE t.nk = $1`, nk)
	dto, err := scanTrip(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTripNotFound
	}
	return dto, err
}

// TripsForUser returns the user's non-completed trips in the given role.
func (svc *tripService) TripsForUser(ctx context.Context, userID int64, role string) ([]TripDTO, error) {
	var ownerCol string
	switch role {
	case RoleDriver:
		ownerCol = "t.driver_id"
	case RoleRider:
		ownerCol = "t.rider_id"
	default:
		return nil, ErrInvalidRole
	}

	q := selectTripQ + ` WHERE ` + ownerCol + ` = $1 AND t.status <> $2 ORDER BY t.created`
	rows, err := svc.db.QueryContext(ctx, q, userID, StatusCompleted)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTrips(rows)
}

func (svc *tripService) ListTrips(ctx context.Context, status string, limit, offset int) ([]TripDTO, error) {
	if limit == 0 {
		limit = 10
	}
	var (
		rows *sql.Rows
		err  error
	)
	if ValidStatus(status) {
		rows, err = svc.db.QueryContext(ctx,
			selectTripQ+` WHERE t.status = $1 ORDER BY t.created DESC LIMIT $2 OFFSET $3`,
			status, limit, offset)
	} else {
		rows, err = svc.db.QueryContext(ctx,
			selectTripQ+` ORDER BY t.created DESC LIMIT $1 OFFSET $2`,
			limit, offset)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTrips(rows)
}

// ─────────────────────────────── helpers ─────────────────────────────────────

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrip(row rowScanner) (*TripDTO, error) {
	var (
		dto                   TripDTO
		driverID, riderID     sql.NullInt64
		driverName, riderName sql.NullString
	)
	err := row.Scan(&dto.ID, &dto.NK, &dto.Created, &dto.Updated,
		&dto.PickUpAddress, &dto.DropOffAddress, &dto.Status,
		&driverID, &driverName, &riderID, &riderName)
	if err != nil {
		return nil, err
	}
	if driverID.Valid {
		dto.Driver = &UserRefDTO{ID: driverID.Int64, Username: driverName.String}
	}
	if riderID.Valid {
		dto.Rider = &UserRefDTO{ID: riderID.Int64, Username: riderName.String}
	}
	return &dto, nil
}

func collectTrips(rows *sql.Rows) ([]TripDTO, error) {
	list := make([]TripDTO, 0)
	for rows.Next() {
		dto, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *dto)
	}
	return list, rows.Err()
}

// keyedMutex hands out one mutex per natural key, ref-counted so entries for
// idle keys do not accumulate.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*keyedLock)}
}

func (km *keyedMutex) Lock(key string) {
	km.mu.Lock()
	l, ok := km.locks[key]
	if !ok {
		l = &keyedLock{}
		km.locks[key] = l
	}
	l.refs++
	km.mu.Unlock()

	l.mu.Lock()
}

func (km *keyedMutex) Unlock(key string) {
	km.mu.Lock()
	l := km.locks[key]
	l.refs--
	if l.refs == 0 {
		delete(km.locks, key)
	}
	km.mu.Unlock()

	l.mu.Unlock()
}
