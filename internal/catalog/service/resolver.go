package service

import (
	"context"

	"github.com/eczanem/pharmatrack-backend/internal/catalog/repository"
	"github.com/eczanem/pharmatrack-backend/pkg/errors"
	"github.com/eczanem/pharmatrack-backend/pkg/logger"
)

// ResolutionStatus is the outcome of an identifier lookup.
type ResolutionStatus int

const (
	// StatusFound means the identifier matched exactly one medicine.
	StatusFound ResolutionStatus = iota
	// StatusNotFound means no medicine matched the identifier.
	StatusNotFound
	// StatusAmbiguous means the identifier matched more than one medicine.
	StatusAmbiguous
)

// Resolution is the tagged result of resolving a medicine identifier.
// Callers must branch on Status; MedicineID is only valid for StatusFound.
type Resolution struct {
	Status     ResolutionStatus
	MedicineID string
	Matches    []*repository.Medicine
}

// Resolver translates an ambiguous sale identifier (medicine id, barcode or
// name) into a concrete medicine id.
type Resolver struct {
	medicineRepo *repository.MedicineRepository
	logger       *logger.Logger
}

// NewResolver creates a new identifier resolver
func NewResolver(medicineRepo *repository.MedicineRepository, log *logger.Logger) *Resolver {
	return &Resolver{
		medicineRepo: medicineRepo,
		logger:       log,
	}
}

// Resolve looks up a medicine by id, then barcode, then exact name.
// A name matching several brands yields StatusAmbiguous.
func (r *Resolver) Resolve(ctx context.Context, identifier string) (*Resolution, error) {
	if identifier == "" {
		return nil, errors.BadRequest("identifier is required")
	}

	m, err := r.medicineRepo.GetByID(ctx, identifier)
	if err == nil {
		return &Resolution{Status: StatusFound, MedicineID: m.ID, Matches: []*repository.Medicine{m}}, nil
	}
	if !errors.Is(err, errors.ErrNotFound) {
		return nil, err
	}

	m, err = r.medicineRepo.GetByBarcode(ctx, identifier)
	if err == nil {
		return &Resolution{Status: StatusFound, MedicineID: m.ID, Matches: []*repository.Medicine{m}}, nil
	}
	if !errors.Is(err, errors.ErrNotFound) {
		return nil, err
	}

	matches, err := r.medicineRepo.FindByName(ctx, identifier)
	if err != nil {
		return nil, err
	}

	switch len(matches) {
	case 0:
		return &Resolution{Status: StatusNotFound}, nil
	case 1:
		return &Resolution{Status: StatusFound, MedicineID: matches[0].ID, Matches: matches}, nil
	default:
		r.logger.Debug().
			Str("identifier", identifier).
			Int("matches", len(matches)).
			Msg("ambiguous medicine identifier")
		return &Resolution{Status: StatusAmbiguous, Matches: matches}, nil
	}
}
