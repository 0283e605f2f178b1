package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"gate-service/internal/model"
)

type EntryRepository struct {
	db *gorm.DB
}

func NewEntryRepository(db *gorm.DB) *EntryRepository {
	return &EntryRepository{db: db}
}

func (r *EntryRepository) Create(ctx context.Context, entry *model.VehicleEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// FindLatestByPlate returns the most recent entry for an exact plate match,
// or nil when the plate has never been logged.
func (r *EntryRepository) FindLatestByPlate(ctx context.Context, plate string) (*model.VehicleEntry, error) {
	var entry model.VehicleEntry
	err := r.db.WithContext(ctx).
		Where("plate_number = ?", plate).
		Order("entry_time DESC").
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

// EntryListFilter narrows report queries. Nil fields mean no constraint on
// that dimension.
type EntryListFilter struct {
	From        *time.Time
	To          *time.Time
	VehicleType *model.VehicleType
}

// EntryReportRow is a vehicle entry enriched with the recorder's username.
type EntryReportRow struct {
	ID                 uuid.UUID         `json:"_id"`
	PlateNumber        string            `json:"plateNumber"`
	VehicleType        model.VehicleType `json:"vehicleType"`
	PhoneNumber        *string           `json:"phoneNumber"`
	EntryTime          time.Time         `json:"entryTime"`
	RecordedByID       uuid.UUID         `json:"-"`
	RecordedByUsername string            `json:"-"`
}

func (r *EntryRepository) applyFilter(query *gorm.DB, filter EntryListFilter) *gorm.DB {
	if filter.From != nil && filter.To != nil {
		query = query.Where("vehicle_entries.entry_time BETWEEN ? AND ?", *filter.From, *filter.To)
	}
	if filter.VehicleType != nil {
		query = query.Where("vehicle_entries.vehicle_type = ?", *filter.VehicleType)
	}
	return query
}

// List returns one page of entries, newest first, joined with the recording
// user. The join is read-only.
func (r *EntryRepository) List(ctx context.Context, filter EntryListFilter, limit, offset int) ([]EntryReportRow, error) {
	query := r.db.WithContext(ctx).Table("vehicle_entries").
		Select(`
			vehicle_entries.id,
			vehicle_entries.plate_number,
			vehicle_entries.vehicle_type,
			vehicle_entries.phone_number,
			vehicle_entries.entry_time,
			vehicle_entries.recorded_by AS recorded_by_id,
			u.username AS recorded_by_username
		`).
		Joins("LEFT JOIN users u ON u.id = vehicle_entries.recorded_by")

	query = r.applyFilter(query, filter)

	var rows []EntryReportRow
	err := query.
		Order("vehicle_entries.entry_time DESC").
		Limit(limit).
		Offset(offset).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *EntryRepository) Count(ctx context.Context, filter EntryListFilter) (int64, error) {
	query := r.db.WithContext(ctx).Model(&model.VehicleEntry{})
	query = r.applyFilter(query, filter)

	var count int64
	err := query.Count(&count).Error
	return count, err
}

// TypeCount is one bucket of the per-type group-by.
type TypeCount struct {
	VehicleType string `json:"vehicleType"`
	Count       int64  `json:"count"`
}

// CountByType groups entries in [from, to] by vehicle type. Types with no
// entries are absent from the result; the aggregator maps them to zero.
func (r *EntryRepository) CountByType(ctx context.Context, from, to time.Time) ([]TypeCount, error) {
	var counts []TypeCount
	err := r.db.WithContext(ctx).
		Model(&model.VehicleEntry{}).
		Select("vehicle_type::text AS vehicle_type, COUNT(*) AS count").
		Where("entry_time BETWEEN ? AND ?", from, to).
		Group("vehicle_type").
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}
	return counts, nil
}

// RecentActivity is the trimmed entry shape shown on the dashboard feed.
type RecentActivity struct {
	PlateNumber string            `json:"plateNumber"`
	VehicleType model.VehicleType `json:"vehicleType"`
	EntryTime   time.Time         `json:"entryTime"`
}

func (r *EntryRepository) Recent(ctx context.Context, from, to time.Time, limit int) ([]RecentActivity, error) {
	var activity []RecentActivity
	err := r.db.WithContext(ctx).
		Model(&model.VehicleEntry{}).
		Select("plate_number", "vehicle_type", "entry_time").
		Where("entry_time BETWEEN ? AND ?", from, to).
		Order("entry_time DESC").
		Limit(limit).
		Scan(&activity).Error
	if err != nil {
		return nil, err
	}
	return activity, nil
}
