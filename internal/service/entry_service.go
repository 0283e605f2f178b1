package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"gate-service/internal/client"
	"gate-service/internal/model"
	"gate-service/internal/utils"
)

type entryStore interface {
	Create(ctx context.Context, entry *model.VehicleEntry) error
	FindLatestByPlate(ctx context.Context, plate string) (*model.VehicleEntry, error)
}

type plateExtractor interface {
	ExtractPlateText(ctx context.Context, imagePath string) client.Extraction
}

type EntryService struct {
	entries   entryStore
	extractor plateExtractor
	log       zerolog.Logger
}

func NewEntryService(entries entryStore, extractor plateExtractor, log zerolog.Logger) *EntryService {
	return &EntryService{
		entries:   entries,
		extractor: extractor,
		log:       log,
	}
}

// ExtractPlate runs text extraction on the uploaded image. The caller owns
// the image file and deletes it as soon as this returns.
func (s *EntryService) ExtractPlate(ctx context.Context, imagePath string) client.Extraction {
	return s.extractor.ExtractPlateText(ctx, imagePath)
}

// Suggestions are the auto-fill values surfaced from the most recent prior
// entry for a plate. Absence is an empty string, never null.
type Suggestions struct {
	Phone       string
	VehicleType string
}

// Suggest looks up auto-fill history for a detected plate. Best effort: an
// unavailable extraction or a failed lookup yields empty suggestions, never
// an error, so the scan response always goes out.
func (s *EntryService) Suggest(ctx context.Context, plate client.Extraction) Suggestions {
	if !plate.Available || plate.Text == "" {
		return Suggestions{}
	}

	previous, err := s.entries.FindLatestByPlate(ctx, plate.Text)
	if err != nil {
		s.log.Warn().Err(err).Str("plate", plate.Text).Msg("auto-fill lookup failed")
		return Suggestions{}
	}
	if previous == nil {
		return Suggestions{}
	}

	var suggestions Suggestions
	if previous.PhoneNumber != nil {
		suggestions.Phone = *previous.PhoneNumber
	}
	suggestions.VehicleType = string(previous.VehicleType)

	return suggestions
}

type CreateEntryInput struct {
	PlateNumber string
	VehicleType string
	PhoneNumber string
}

// CreateEntry validates and persists a gate entry. The recorder always comes
// from the authenticated principal, never from the request body.
func (s *EntryService) CreateEntry(ctx context.Context, principal model.Principal, input CreateEntryInput) (*model.VehicleEntry, error) {
	if input.PlateNumber == "" || input.VehicleType == "" {
		return nil, fmt.Errorf("%w: plate number and type are required", ErrInvalidInput)
	}

	vehicleType, ok := model.ParseVehicleType(input.VehicleType)
	if !ok {
		return nil, fmt.Errorf("%w: unknown vehicle type %q", ErrInvalidInput, input.VehicleType)
	}

	plate := utils.NormalizePlate(input.PlateNumber)
	if plate == "" {
		return nil, fmt.Errorf("%w: invalid plate number (resulted in empty value after cleaning)", ErrInvalidInput)
	}

	var phone *string
	if input.PhoneNumber != "" {
		phone = &input.PhoneNumber
	}

	entry := &model.VehicleEntry{
		PlateNumber: plate,
		VehicleType: vehicleType,
		PhoneNumber: phone,
		RecordedBy:  principal.UserID,
	}

	if err := s.entries.Create(ctx, entry); err != nil {
		return nil, err
	}

	return entry, nil
}
