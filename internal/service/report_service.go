package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"gate-service/internal/model"
	"gate-service/internal/repository"
)

const (
	defaultPage       = 1
	defaultLimit      = 20
	recentActivityMax = 5

	// value for the vehicleType query param meaning "no type filter"
	typeFilterAll = "All"
)

type reportStore interface {
	List(ctx context.Context, filter repository.EntryListFilter, limit, offset int) ([]repository.EntryReportRow, error)
	Count(ctx context.Context, filter repository.EntryListFilter) (int64, error)
	CountByType(ctx context.Context, from, to time.Time) ([]repository.TypeCount, error)
	Recent(ctx context.Context, from, to time.Time, limit int) ([]repository.RecentActivity, error)
}

type ReportService struct {
	entries reportStore
	now     func() time.Time
}

func NewReportService(entries reportStore) *ReportService {
	return &ReportService{
		entries: entries,
		now:     time.Now,
	}
}

// ReportQuery carries the raw query parameters of a report request.
type ReportQuery struct {
	StartDate   string
	EndDate     string
	VehicleType string
	Page        string
	Limit       string
}

type RecordedBy struct {
	ID       uuid.UUID `json:"_id"`
	Username string    `json:"username"`
}

type ReportRecord struct {
	ID          uuid.UUID         `json:"_id"`
	PlateNumber string            `json:"plateNumber"`
	VehicleType model.VehicleType `json:"vehicleType"`
	PhoneNumber *string           `json:"phoneNumber"`
	EntryTime   time.Time         `json:"entryTime"`
	RecordedBy  RecordedBy        `json:"recordedBy"`
}

type Pagination struct {
	TotalRecords int64 `json:"totalRecords"`
	TotalPages   int64 `json:"totalPages"`
	CurrentPage  int   `json:"currentPage"`
}

type ReportPage struct {
	Records    []ReportRecord
	Pagination Pagination
}

// ListReports runs the filtered, paginated report query. The page fetch and
// the total count are independent reads issued concurrently and joined before
// the page metadata is computed.
func (s *ReportService) ListReports(ctx context.Context, query ReportQuery) (*ReportPage, error) {
	filter, err := s.buildFilter(query)
	if err != nil {
		return nil, err
	}

	page, limit := normalizePagination(query.Page, query.Limit)
	offset := (page - 1) * limit

	var (
		rows  []repository.EntryReportRow
		total int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rows, err = s.entries.List(gctx, filter, limit, offset)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.entries.Count(gctx, filter)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	records := make([]ReportRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, ReportRecord{
			ID:          row.ID,
			PlateNumber: row.PlateNumber,
			VehicleType: row.VehicleType,
			PhoneNumber: row.PhoneNumber,
			EntryTime:   row.EntryTime,
			RecordedBy: RecordedBy{
				ID:       row.RecordedByID,
				Username: row.RecordedByUsername,
			},
		})
	}

	return &ReportPage{
		Records: records,
		Pagination: Pagination{
			TotalRecords: total,
			TotalPages:   totalPages(total, limit),
			CurrentPage:  page,
		},
	}, nil
}

func (s *ReportService) buildFilter(query ReportQuery) (repository.EntryListFilter, error) {
	var filter repository.EntryListFilter

	if query.StartDate != "" && query.EndDate != "" {
		start, err := parseDate(query.StartDate)
		if err != nil {
			return filter, fmt.Errorf("%w: invalid start date", ErrInvalidInput)
		}
		end, err := parseDate(query.EndDate)
		if err != nil {
			return filter, fmt.Errorf("%w: invalid end date", ErrInvalidInput)
		}

		from, _ := dayRange(start)
		_, to := dayRange(end)
		filter.From = &from
		filter.To = &to
	}

	if query.VehicleType != "" && query.VehicleType != typeFilterAll {
		vehicleType, ok := model.ParseVehicleType(query.VehicleType)
		if !ok {
			return filter, fmt.Errorf("%w: unknown vehicle type %q", ErrInvalidInput, query.VehicleType)
		}
		filter.VehicleType = &vehicleType
	}

	return filter, nil
}

// TypeBreakdown maps the per-type group counts into three fixed buckets. Keys
// of the source rows must match the enum values character for character.
type TypeBreakdown struct {
	TwoWheeler  int64 `json:"twoWheeler"`
	FourWheeler int64 `json:"fourWheeler"`
	Others      int64 `json:"others"`
}

type DashboardStats struct {
	Total          int64                       `json:"total"`
	TypeBreakdown  TypeBreakdown               `json:"typeBreakdown"`
	RecentActivity []repository.RecentActivity `json:"recentActivity"`
}

type Dashboard struct {
	SelectedDate string
	Stats        DashboardStats
}

// GetDashboard computes the single-day totals, per-type breakdown and the
// most recent activity for the selected date (defaulting to today). The three
// reads are independent and run concurrently.
func (s *ReportService) GetDashboard(ctx context.Context, dateParam string) (*Dashboard, error) {
	selected := s.now()
	if dateParam != "" {
		parsed, err := parseDate(dateParam)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid date format", ErrInvalidInput)
		}
		selected = parsed
	}

	from, to := dayRange(selected)

	var (
		total  int64
		counts []repository.TypeCount
		recent []repository.RecentActivity
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		total, err = s.entries.Count(gctx, repository.EntryListFilter{From: &from, To: &to})
		return err
	})
	g.Go(func() error {
		var err error
		counts, err = s.entries.CountByType(gctx, from, to)
		return err
	})
	g.Go(func() error {
		var err error
		recent, err = s.entries.Recent(gctx, from, to, recentActivityMax)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if recent == nil {
		recent = []repository.RecentActivity{}
	}

	return &Dashboard{
		SelectedDate: from.Format("Mon Jan 02 2006"),
		Stats: DashboardStats{
			Total:          total,
			TypeBreakdown:  mapBreakdown(counts),
			RecentActivity: recent,
		},
	}, nil
}

func mapBreakdown(counts []repository.TypeCount) TypeBreakdown {
	byType := make(map[string]int64, len(counts))
	for _, c := range counts {
		byType[c.VehicleType] = c.Count
	}
	return TypeBreakdown{
		TwoWheeler:  byType[string(model.VehicleTypeTwoWheeler)],
		FourWheeler: byType[string(model.VehicleTypeFourWheeler)],
		Others:      byType[string(model.VehicleTypeOthers)],
	}
}

// normalizePagination coerces raw page/limit values, falling back to the
// defaults for anything non-numeric or non-positive.
func normalizePagination(pageRaw, limitRaw string) (page, limit int) {
	page = defaultPage
	if v, err := strconv.Atoi(strings.TrimSpace(pageRaw)); err == nil && v > 0 {
		page = v
	}
	limit = defaultLimit
	if v, err := strconv.Atoi(strings.TrimSpace(limitRaw)); err == nil && v > 0 {
		limit = v
	}
	return page, limit
}

func totalPages(total int64, limit int) int64 {
	if total == 0 {
		return 0
	}
	return (total + int64(limit) - 1) / int64(limit)
}

// dayRange expands a timestamp to the full local day containing it,
// 00:00:00.000 through 23:59:59.999. The end is built from wall-clock
// components rather than adding 24h, which would drift on DST-transition
// days where the local day is 23 or 25 hours long.
func dayRange(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	end := time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(999*time.Millisecond), t.Location())
	return start, end
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	layouts := []string{
		"2006-01-02",
		time.RFC3339,
		"2006-01-02T15:04:05",
	}
	for _, layout := range layouts {
		if parsed, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date: %s", raw)
}
