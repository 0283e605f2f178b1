package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"gate-service/internal/model"
	"gate-service/internal/repository"
)

type fakeReportStore struct {
	rows   []repository.EntryReportRow
	total  int64
	counts []repository.TypeCount
	recent []repository.RecentActivity
	err    error

	gotFilter repository.EntryListFilter
	gotLimit  int
	gotOffset int
}

func (f *fakeReportStore) List(_ context.Context, filter repository.EntryListFilter, limit, offset int) ([]repository.EntryReportRow, error) {
	f.gotFilter = filter
	f.gotLimit = limit
	f.gotOffset = offset
	if f.err != nil {
		return nil, f.err
	}
	return f.rows, nil
}

func (f *fakeReportStore) Count(_ context.Context, filter repository.EntryListFilter) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.total, nil
}

func (f *fakeReportStore) CountByType(_ context.Context, _, _ time.Time) ([]repository.TypeCount, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.counts, nil
}

func (f *fakeReportStore) Recent(_ context.Context, _, _ time.Time, limit int) ([]repository.RecentActivity, error) {
	if f.err != nil {
		return nil, f.err
	}
	if limit < len(f.recent) {
		return f.recent[:limit], nil
	}
	return f.recent, nil
}

func TestListReportsPagination(t *testing.T) {
	store := &fakeReportStore{total: 45}
	for i := 0; i < 5; i++ {
		store.rows = append(store.rows, repository.EntryReportRow{
			ID:          uuid.New(),
			PlateNumber: "DL4C1234",
			VehicleType: model.VehicleTypeFourWheeler,
			EntryTime:   time.Now(),
		})
	}
	svc := NewReportService(store)

	page, err := svc.ListReports(context.Background(), ReportQuery{Page: "3", Limit: "20"})
	if err != nil {
		t.Fatalf("ListReports: %v", err)
	}

	if store.gotLimit != 20 || store.gotOffset != 40 {
		t.Fatalf("limit/offset = %d/%d, want 20/40", store.gotLimit, store.gotOffset)
	}
	if page.Pagination.TotalRecords != 45 {
		t.Fatalf("totalRecords = %d", page.Pagination.TotalRecords)
	}
	if page.Pagination.TotalPages != 3 {
		t.Fatalf("totalPages = %d, want 3", page.Pagination.TotalPages)
	}
	if page.Pagination.CurrentPage != 3 {
		t.Fatalf("currentPage = %d, want 3", page.Pagination.CurrentPage)
	}
	if len(page.Records) != 5 {
		t.Fatalf("records = %d, want 5", len(page.Records))
	}
}

func TestListReportsMalformedPaginationFallsBack(t *testing.T) {
	store := &fakeReportStore{}
	svc := NewReportService(store)

	for _, q := range []ReportQuery{
		{Page: "abc", Limit: "xyz"},
		{Page: "-1", Limit: "0"},
		{Page: "", Limit: ""},
	} {
		page, err := svc.ListReports(context.Background(), q)
		if err != nil {
			t.Fatalf("ListReports(%+v): %v", q, err)
		}
		if store.gotLimit != 20 || store.gotOffset != 0 {
			t.Fatalf("query %+v: limit/offset = %d/%d, want defaults 20/0", q, store.gotLimit, store.gotOffset)
		}
		if page.Pagination.CurrentPage != 1 {
			t.Fatalf("query %+v: currentPage = %d, want 1", q, page.Pagination.CurrentPage)
		}
	}
}

func TestListReportsTypeAllMeansNoFilter(t *testing.T) {
	store := &fakeReportStore{}
	svc := NewReportService(store)

	if _, err := svc.ListReports(context.Background(), ReportQuery{VehicleType: "All"}); err != nil {
		t.Fatalf("ListReports: %v", err)
	}
	allFilter := store.gotFilter

	if _, err := svc.ListReports(context.Background(), ReportQuery{}); err != nil {
		t.Fatalf("ListReports: %v", err)
	}
	if allFilter != store.gotFilter {
		t.Fatalf("filter with vehicleType=All %+v differs from no filter %+v", allFilter, store.gotFilter)
	}
	if allFilter.VehicleType != nil {
		t.Fatalf("expected nil type filter, got %v", *allFilter.VehicleType)
	}
}

func TestListReportsDateRangeCoversFullDays(t *testing.T) {
	store := &fakeReportStore{}
	svc := NewReportService(store)

	if _, err := svc.ListReports(context.Background(), ReportQuery{
		StartDate: "2024-03-01",
		EndDate:   "2024-03-02",
	}); err != nil {
		t.Fatalf("ListReports: %v", err)
	}

	if store.gotFilter.From == nil || store.gotFilter.To == nil {
		t.Fatalf("expected date range filter, got %+v", store.gotFilter)
	}

	from, to := *store.gotFilter.From, *store.gotFilter.To
	if from.Hour() != 0 || from.Minute() != 0 || from.Second() != 0 || from.Nanosecond() != 0 {
		t.Fatalf("range start not at midnight: %v", from)
	}
	if to.Hour() != 23 || to.Minute() != 59 || to.Second() != 59 {
		t.Fatalf("range end not at end of day: %v", to)
	}
	if from.Day() != 1 || to.Day() != 2 {
		t.Fatalf("range days = %d..%d, want 1..2", from.Day(), to.Day())
	}
}

func TestListReportsInvalidTypeRejected(t *testing.T) {
	svc := NewReportService(&fakeReportStore{})
	_, err := svc.ListReports(context.Background(), ReportQuery{VehicleType: "Truck"})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestListReportsStoreError(t *testing.T) {
	svc := NewReportService(&fakeReportStore{err: errors.New("db down")})
	if _, err := svc.ListReports(context.Background(), ReportQuery{}); err == nil {
		t.Fatalf("expected error from failing store")
	}
}

func TestDashboardBreakdownMapping(t *testing.T) {
	store := &fakeReportStore{
		total: 7,
		counts: []repository.TypeCount{
			{VehicleType: "2-Wheeler", Count: 3},
			{VehicleType: "4-Wheeler", Count: 3},
			{VehicleType: "Others", Count: 1},
		},
		recent: []repository.RecentActivity{
			{PlateNumber: "DL4C1234", VehicleType: model.VehicleTypeFourWheeler, EntryTime: time.Now()},
		},
	}
	svc := NewReportService(store)

	dashboard, err := svc.GetDashboard(context.Background(), "2024-03-01")
	if err != nil {
		t.Fatalf("GetDashboard: %v", err)
	}

	b := dashboard.Stats.TypeBreakdown
	if b.TwoWheeler != 3 || b.FourWheeler != 3 || b.Others != 1 {
		t.Fatalf("breakdown = %+v", b)
	}
	if b.TwoWheeler+b.FourWheeler+b.Others != dashboard.Stats.Total {
		t.Fatalf("buckets sum to %d, total is %d", b.TwoWheeler+b.FourWheeler+b.Others, dashboard.Stats.Total)
	}
	if len(dashboard.Stats.RecentActivity) != 1 {
		t.Fatalf("recent = %d entries", len(dashboard.Stats.RecentActivity))
	}
	if dashboard.SelectedDate != "Fri Mar 01 2024" {
		t.Fatalf("selectedDate = %q", dashboard.SelectedDate)
	}
}

func TestDashboardEmptyDay(t *testing.T) {
	svc := NewReportService(&fakeReportStore{})

	dashboard, err := svc.GetDashboard(context.Background(), "2024-03-01")
	if err != nil {
		t.Fatalf("GetDashboard: %v", err)
	}
	if dashboard.Stats.Total != 0 {
		t.Fatalf("total = %d, want 0", dashboard.Stats.Total)
	}
	b := dashboard.Stats.TypeBreakdown
	if b.TwoWheeler != 0 || b.FourWheeler != 0 || b.Others != 0 {
		t.Fatalf("breakdown = %+v, want zeros", b)
	}
	if dashboard.Stats.RecentActivity == nil || len(dashboard.Stats.RecentActivity) != 0 {
		t.Fatalf("recentActivity = %#v, want empty slice", dashboard.Stats.RecentActivity)
	}
}

func TestDashboardUnmappedKeysIgnored(t *testing.T) {
	// keys must match the enum character for character; anything else
	// never lands in a bucket
	store := &fakeReportStore{
		total: 2,
		counts: []repository.TypeCount{
			{VehicleType: "Other", Count: 1},
			{VehicleType: "2-wheeler", Count: 1},
		},
	}
	svc := NewReportService(store)

	dashboard, err := svc.GetDashboard(context.Background(), "2024-03-01")
	if err != nil {
		t.Fatalf("GetDashboard: %v", err)
	}
	b := dashboard.Stats.TypeBreakdown
	if b.TwoWheeler != 0 || b.FourWheeler != 0 || b.Others != 0 {
		t.Fatalf("breakdown = %+v, want zeros for unmapped keys", b)
	}
}

func TestDashboardInvalidDate(t *testing.T) {
	svc := NewReportService(&fakeReportStore{})
	_, err := svc.GetDashboard(context.Background(), "garbage-date")
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestDashboardDefaultsToToday(t *testing.T) {
	store := &fakeReportStore{}
	svc := NewReportService(store)
	svc.now = func() time.Time {
		return time.Date(2024, 3, 15, 14, 30, 0, 0, time.Local)
	}

	dashboard, err := svc.GetDashboard(context.Background(), "")
	if err != nil {
		t.Fatalf("GetDashboard: %v", err)
	}
	if dashboard.SelectedDate != "Fri Mar 15 2024" {
		t.Fatalf("selectedDate = %q, want \"Fri Mar 15 2024\"", dashboard.SelectedDate)
	}
}

func TestNormalizePagination(t *testing.T) {
	cases := []struct {
		page, limit         string
		wantPage, wantLimit int
	}{
		{"", "", 1, 20},
		{"2", "10", 2, 10},
		{"0", "-5", 1, 20},
		{"NaN", "1e3", 1, 20},
		{" 4 ", " 25 ", 4, 25},
	}

	for _, tc := range cases {
		page, limit := normalizePagination(tc.page, tc.limit)
		if page != tc.wantPage || limit != tc.wantLimit {
			t.Fatalf("normalizePagination(%q, %q) = %d, %d; want %d, %d",
				tc.page, tc.limit, page, limit, tc.wantPage, tc.wantLimit)
		}
	}
}

func TestDayRangeEndsAtEndOfSameDay(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	days := []time.Time{
		time.Date(2024, 11, 3, 12, 0, 0, 0, loc), // fall back, 25h day
		time.Date(2024, 3, 10, 12, 0, 0, 0, loc), // spring forward, 23h day
		time.Date(2024, 6, 1, 12, 0, 0, 0, loc),  // plain day
	}

	for _, day := range days {
		from, to := dayRange(day)
		if from.Hour() != 0 || from.Minute() != 0 || from.Second() != 0 || from.Nanosecond() != 0 {
			t.Fatalf("%v: range start not at midnight: %v", day, from)
		}
		if to.Year() != day.Year() || to.Month() != day.Month() || to.Day() != day.Day() {
			t.Fatalf("%v: range end left the day: %v", day, to)
		}
		if to.Hour() != 23 || to.Minute() != 59 || to.Second() != 59 || to.Nanosecond() != int(999*time.Millisecond) {
			t.Fatalf("%v: range end not 23:59:59.999: %v", day, to)
		}
	}
}

func TestTotalPages(t *testing.T) {
	cases := []struct {
		total int64
		limit int
		want  int64
	}{
		{45, 20, 3},
		{40, 20, 2},
		{1, 20, 1},
		{0, 20, 0},
	}
	for _, tc := range cases {
		if got := totalPages(tc.total, tc.limit); got != tc.want {
			t.Fatalf("totalPages(%d, %d) = %d, want %d", tc.total, tc.limit, got, tc.want)
		}
	}
}
