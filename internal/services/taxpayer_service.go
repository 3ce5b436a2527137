package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pesafrisma19/pbbkemang/internal/logger"
	"github.com/pesafrisma19/pbbkemang/internal/models"
	"github.com/pesafrisma19/pbbkemang/internal/nop"
	"github.com/pesafrisma19/pbbkemang/internal/ownership"
	"github.com/pesafrisma19/pbbkemang/internal/repository"
)

// Service-level errors
var (
	ErrTaxpayerNotFound  = ownership.ErrTaxpayerNotFound
	ErrTaxObjectNotFound = ownership.ErrTaxObjectNotFound
	ErrInvalidInput      = errors.New("invalid input")
)

// TaxObjectInput is one tax object in a create or edit form.
type TaxObjectInput struct {
	OriginalName *string
	Persil       *string
	Blok         *string
	NOP          string
	LocationName string
	Status       models.PaymentStatus
	AmountDue    int64
	Year         int
}

// TaxpayerInput is the full create or edit form of a taxpayer.
type TaxpayerInput struct {
	NIK        string
	WhatsApp   string
	GroupID    string
	RT         string
	RW         string
	Name       string
	Address    string
	TaxObjects []TaxObjectInput
}

// TaxpayerDetail is a taxpayer with its billing summary and the other
// owners of each shared NOP.
type TaxpayerDetail struct {
	CoOwners     map[string][]ownership.Owner `json:"co_owners"`
	WhatsAppLink string                       `json:"whatsapp_link,omitempty"`
	Taxpayer     models.Taxpayer              `json:"taxpayer"`
	Summary      ownership.Summary            `json:"summary"`
}

// NOPOwners lists everyone billed for a NOP.
type NOPOwners struct {
	NOP            string            `json:"nop"`
	Formatted      string            `json:"formatted"`
	Owners         []ownership.Owner `json:"owners"`
	CombinedAmount int64             `json:"combined_amount"`
	Shared         bool              `json:"shared"`
}

// TaxpayerService defines taxpayer management operations.
type TaxpayerService interface {
	// Search returns the grouped admin list.
	Search(ctx context.Context, q ownership.Query) (ownership.SearchResult, error)

	// Get returns ErrTaxpayerNotFound if the taxpayer does not exist.
	Get(ctx context.Context, id uuid.UUID) (*TaxpayerDetail, error)

	// Create inserts a taxpayer with its tax objects.
	Create(ctx context.Context, in TaxpayerInput) (*models.Taxpayer, error)

	// Update replaces the taxpayer's fields and its whole tax object set.
	// Objects that stay paid keep their payment time.
	Update(ctx context.Context, id uuid.UUID, in TaxpayerInput) (*models.Taxpayer, error)

	// Delete removes a taxpayer and its tax objects.
	Delete(ctx context.Context, id uuid.UUID) error

	// Owners returns every owner of a NOP. Short codes are expanded.
	Owners(ctx context.Context, rawNOP string) (*NOPOwners, error)
}

type taxpayerService struct {
	repo     repository.TaxpayerRepository
	books    *BookCache
	expander nop.Expander
	now      func() time.Time
	log      *logger.Logger
}

// NewTaxpayerService creates a new instance of TaxpayerService.
func NewTaxpayerService(
	repo repository.TaxpayerRepository,
	books *BookCache,
	expander nop.Expander,
	log *logger.Logger,
) TaxpayerService {
	return &taxpayerService{
		repo:     repo,
		books:    books,
		expander: expander,
		now:      time.Now,
		log:      log,
	}
}

func (s *taxpayerService) Search(ctx context.Context, q ownership.Query) (ownership.SearchResult, error) {
	book, err := s.books.Get(ctx)
	if err != nil {
		s.log.Error("Failed to load taxpayers", err, nil)
		return ownership.SearchResult{}, err
	}
	return book.Search(q), nil
}

func (s *taxpayerService) Get(ctx context.Context, id uuid.UUID) (*TaxpayerDetail, error) {
	book, err := s.books.Get(ctx)
	if err != nil {
		return nil, err
	}

	tp, ok := book.Taxpayer(id)
	if !ok {
		return nil, ErrTaxpayerNotFound
	}
	summary, _ := book.Summary(id)

	detail := &TaxpayerDetail{
		Taxpayer: tp,
		Summary:  summary,
		CoOwners: make(map[string][]ownership.Owner),
	}
	for _, n := range summary.SharedNOPs {
		detail.CoOwners[n] = book.CoOwners(n, id)
	}
	if tp.WhatsApp != nil {
		detail.WhatsAppLink = ownership.WhatsAppLink(*tp.WhatsApp)
	}
	return detail, nil
}

func (s *taxpayerService) Create(ctx context.Context, in TaxpayerInput) (*models.Taxpayer, error) {
	fields, objects, err := s.normalize(in, nil)
	if err != nil {
		return nil, err
	}

	tp, err := s.repo.Create(ctx, fields)
	if err != nil {
		s.log.Warn("Failed to create taxpayer", map[string]interface{}{
			"name":  fields.Name,
			"error": err.Error(),
		})
		return nil, err
	}

	saved, err := s.repo.ReplaceTaxObjects(ctx, tp.ID, objects)
	if err != nil {
		// Remove the half-created taxpayer so the form can be resubmitted.
		if _, delErr := s.repo.Delete(ctx, tp.ID); delErr != nil {
			s.log.Error("Failed to remove taxpayer after tax object error", delErr, map[string]interface{}{
				"taxpayer_id": tp.ID.String(),
			})
		}
		return nil, err
	}
	tp.TaxObjects = saved
	s.books.Invalidate()

	s.log.Info("Taxpayer created", map[string]interface{}{
		"taxpayer_id": tp.ID.String(),
		"tax_objects": len(saved),
	})
	return tp, nil
}

func (s *taxpayerService) Update(ctx context.Context, id uuid.UUID, in TaxpayerInput) (*models.Taxpayer, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrTaxpayerNotFound
	}

	fields, objects, err := s.normalize(in, existing.TaxObjects)
	if err != nil {
		return nil, err
	}

	tp, err := s.repo.Update(ctx, id, fields)
	if err != nil {
		return nil, err
	}
	if tp == nil {
		return nil, ErrTaxpayerNotFound
	}
	s.books.Invalidate()

	saved, err := s.repo.ReplaceTaxObjects(ctx, id, objects)
	if err != nil {
		return nil, err
	}
	tp.TaxObjects = saved

	s.log.Info("Taxpayer updated", map[string]interface{}{
		"taxpayer_id": id.String(),
		"tax_objects": len(saved),
	})
	return tp, nil
}

func (s *taxpayerService) Delete(ctx context.Context, id uuid.UUID) error {
	book, err := s.books.Get(ctx)
	if err != nil {
		return err
	}

	err = book.Remove(ctx, id, func(ctx context.Context) error {
		deleted, err := s.repo.Delete(ctx, id)
		if err != nil {
			return err
		}
		if !deleted {
			return ErrTaxpayerNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrTaxpayerNotFound) {
			s.books.Invalidate()
		}
		return err
	}

	s.log.Info("Taxpayer deleted", map[string]interface{}{"taxpayer_id": id.String()})
	return nil
}

func (s *taxpayerService) Owners(ctx context.Context, rawNOP string) (*NOPOwners, error) {
	n := s.expander.Expand(rawNOP)
	if n == "" {
		return nil, fmt.Errorf("%w: NOP must contain digits", ErrInvalidInput)
	}

	book, err := s.books.Get(ctx)
	if err != nil {
		return nil, err
	}

	owners := book.Owners(n)
	if len(owners) == 0 {
		return nil, ErrTaxObjectNotFound
	}
	return &NOPOwners{
		NOP:            n,
		Formatted:      nop.Format(n),
		Owners:         owners,
		CombinedAmount: book.CombinedAmount(n),
		Shared:         len(owners) > 1,
	}, nil
}

// normalize trims and validates a form. previous carries the current tax
// objects so paid ones keep their payment time.
func (s *taxpayerService) normalize(in TaxpayerInput, previous []models.TaxObject) (models.NewTaxpayer, []models.TaxObjectUpsert, error) {
	fields := models.NewTaxpayer{
		Name:    strings.TrimSpace(in.Name),
		Address: strings.TrimSpace(in.Address),
		NIK:     models.OptionalString(in.NIK),
		GroupID: models.OptionalString(in.GroupID),
		RT:      models.OptionalString(in.RT),
		RW:      models.OptionalString(in.RW),
	}
	if phone := nop.Clean(in.WhatsApp); phone != "" {
		fields.WhatsApp = &phone
	}
	if fields.Name == "" || fields.Address == "" {
		return fields, nil, fmt.Errorf("%w: name and address are required", ErrInvalidInput)
	}

	paidAt := make(map[string]*time.Time)
	for _, obj := range previous {
		if obj.Status.IsPaid() {
			paidAt[obj.NOP] = obj.PaidAt
		}
	}

	now := s.now()
	seen := make(map[string]bool)
	objects := make([]models.TaxObjectUpsert, 0, len(in.TaxObjects))
	for i, obj := range in.TaxObjects {
		n := s.expander.Expand(obj.NOP)
		if n == "" {
			return fields, nil, fmt.Errorf("%w: tax object %d has no NOP", ErrInvalidInput, i+1)
		}
		if seen[n] {
			return fields, nil, fmt.Errorf("%w: NOP %s is listed twice", ErrInvalidInput, nop.Format(n))
		}
		seen[n] = true
		if obj.AmountDue < 0 {
			return fields, nil, fmt.Errorf("%w: tax object %d has a negative amount", ErrInvalidInput, i+1)
		}

		status := obj.Status
		if status == "" {
			status = models.StatusUnpaid
		}
		location := strings.TrimSpace(obj.LocationName)
		if location == "" {
			location = models.DefaultLocation
		}
		year := obj.Year
		if year == 0 {
			year = now.Year()
		}

		up := models.TaxObjectUpsert{
			NOP:          n,
			LocationName: location,
			AmountDue:    obj.AmountDue,
			Year:         year,
			Status:       status,
			OriginalName: trimOptional(obj.OriginalName),
			Persil:       trimOptional(obj.Persil),
			Blok:         trimOptional(obj.Blok),
		}
		if status.IsPaid() {
			if at, ok := paidAt[n]; ok && at != nil {
				up.PaidAt = at
			} else {
				stamp := now
				up.PaidAt = &stamp
			}
		}
		objects = append(objects, up)
	}
	return fields, objects, nil
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	return models.OptionalString(*s)
}
