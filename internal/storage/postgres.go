package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/naka-gawa/repo-compare/internal/domain"
)

// repoInfoRow is the database shape of a cached record. The three timeseries
// are persisted as JSON columns; full_name is denormalized for the indexed
// lookup the cache performs on every request.
type repoInfoRow struct {
	ID       int    `gorm:"primaryKey;autoIncrement"`
	Provider string `gorm:"not null"`
	Owner    string `gorm:"not null"`
	Repo     string `gorm:"not null"`
	FullName string `gorm:"index;not null"`

	OpenPRsCount   int
	ClosedPRsCount int
	UsersCount     int
	OldestPR       *time.Time

	OpenPRs   datatypes.JSON
	ClosedPRs datatypes.JSON
	Users     datatypes.JSON

	CreatedAt time.Time  `gorm:"autoCreateTime:false"`
	UpdatedAt *time.Time `gorm:"autoUpdateTime:false"`
}

func (repoInfoRow) TableName() string { return "repo_infos" }

// Postgres is the gorm-backed Store implementation.
type Postgres struct {
	db  *gorm.DB
	now func() time.Time
}

var _ Store = (*Postgres)(nil)

// NewPostgres connects to the database and migrates the schema.
func NewPostgres(dsn string) (*Postgres, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.AutoMigrate(&repoInfoRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	return &Postgres{db: db, now: time.Now}, nil
}

// NewPostgresWithDB wraps an already-open gorm handle. Used by tests to
// inject a mocked connection; no migration is attempted.
func NewPostgresWithDB(db *gorm.DB) *Postgres {
	return &Postgres{db: db, now: time.Now}
}

func marshalSeries(points []domain.TimeseriesPoint) (datatypes.JSON, error) {
	if points == nil {
		points = []domain.TimeseriesPoint{}
	}
	raw, err := json.Marshal(points)
	if err != nil {
		return nil, fmt.Errorf("failed to encode timeseries: %w", err)
	}
	return datatypes.JSON(raw), nil
}

func unmarshalSeries(raw datatypes.JSON) ([]domain.TimeseriesPoint, error) {
	points := []domain.TimeseriesPoint{}
	if len(raw) == 0 {
		return points, nil
	}
	if err := json.Unmarshal(raw, &points); err != nil {
		return nil, fmt.Errorf("failed to decode timeseries: %w", err)
	}
	return points, nil
}

func toRow(rec domain.RepoInfo) (repoInfoRow, error) {
	openPRs, err := marshalSeries(rec.OpenPRs)
	if err != nil {
		return repoInfoRow{}, err
	}
	closedPRs, err := marshalSeries(rec.ClosedPRs)
	if err != nil {
		return repoInfoRow{}, err
	}
	users, err := marshalSeries(rec.Users)
	if err != nil {
		return repoInfoRow{}, err
	}
	return repoInfoRow{
		ID:             rec.ID,
		Provider:       rec.Provider,
		Owner:          rec.Owner,
		Repo:           rec.Repo,
		FullName:       rec.FullName(),
		OpenPRsCount:   rec.OpenPRsCount,
		ClosedPRsCount: rec.ClosedPRsCount,
		UsersCount:     rec.UsersCount,
		OldestPR:       rec.OldestPR,
		OpenPRs:        openPRs,
		ClosedPRs:      closedPRs,
		Users:          users,
		CreatedAt:      rec.CreatedAt,
		UpdatedAt:      rec.UpdatedAt,
	}, nil
}

func fromRow(row repoInfoRow) (domain.RepoInfo, error) {
	openPRs, err := unmarshalSeries(row.OpenPRs)
	if err != nil {
		return domain.RepoInfo{}, err
	}
	closedPRs, err := unmarshalSeries(row.ClosedPRs)
	if err != nil {
		return domain.RepoInfo{}, err
	}
	users, err := unmarshalSeries(row.Users)
	if err != nil {
		return domain.RepoInfo{}, err
	}
	return domain.RepoInfo{
		ID:             row.ID,
		Provider:       row.Provider,
		Owner:          row.Owner,
		Repo:           row.Repo,
		OpenPRsCount:   row.OpenPRsCount,
		ClosedPRsCount: row.ClosedPRsCount,
		UsersCount:     row.UsersCount,
		OldestPR:       row.OldestPR,
		OpenPRs:        openPRs,
		ClosedPRs:      closedPRs,
		Users:          users,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}, nil
}

// CreateOne inserts a new record, letting the database assign the id.
func (p *Postgres) CreateOne(ctx context.Context, draft domain.RepoInfo) (domain.RepoInfo, error) {
	if draft.CreatedAt.IsZero() {
		draft.CreatedAt = p.now()
	}
	row, err := toRow(draft)
	if err != nil {
		return domain.RepoInfo{}, err
	}
	row.ID = 0
	if err := p.db.WithContext(ctx).Create(&row).Error; err != nil {
		return domain.RepoInfo{}, fmt.Errorf("failed to create record: %w", err)
	}
	return fromRow(row)
}

// GetOne returns the record with the given id, or nil when absent.
func (p *Postgres) GetOne(ctx context.Context, id int) (*domain.RepoInfo, error) {
	var row repoInfoRow
	err := p.db.WithContext(ctx).First(&row, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load record %d: %w", id, err)
	}
	rec, err := fromRow(row)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// GetMany returns matching records ordered by id ascending.
func (p *Postgres) GetMany(ctx context.Context, filter Filter, skip, limit int) ([]domain.RepoInfo, error) {
	query := p.db.WithContext(ctx).Model(&repoInfoRow{}).Order("id")
	if filter.FullName != nil {
		query = query.Where("full_name = ?", *filter.FullName)
	}
	if skip > 0 {
		query = query.Offset(skip)
	}
	if limit >= 0 {
		query = query.Limit(limit)
	}

	var rows []repoInfoRow
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}

	result := make([]domain.RepoInfo, 0, len(rows))
	for _, row := range rows {
		rec, err := fromRow(row)
		if err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	return result, nil
}

// UpdateOne applies the patch to the stored record and bumps its UpdatedAt.
// Returns nil when the id is unknown.
func (p *Postgres) UpdateOne(ctx context.Context, id int, patch Patch) (*domain.RepoInfo, error) {
	rec, err := p.GetOne(ctx, id)
	if err != nil || rec == nil {
		return nil, err
	}

	patch.apply(rec, p.now())
	row, err := toRow(*rec)
	if err != nil {
		return nil, err
	}
	if err := p.db.WithContext(ctx).Save(&row).Error; err != nil {
		return nil, fmt.Errorf("failed to update record %d: %w", id, err)
	}
	return rec, nil
}

// DeleteOne removes the record with the given id, reporting whether a row
// was actually deleted.
func (p *Postgres) DeleteOne(ctx context.Context, id int) (bool, error) {
	result := p.db.WithContext(ctx).Delete(&repoInfoRow{}, id)
	if result.Error != nil {
		return false, fmt.Errorf("failed to delete record %d: %w", id, result.Error)
	}
	return result.RowsAffected > 0, nil
}
