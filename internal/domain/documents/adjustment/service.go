package adjustment

import (
	"context"
	"time"

	"stocktrack/internal/core/apperror"
	"stocktrack/internal/core/entity"
	"stocktrack/internal/core/id"
	"stocktrack/internal/core/security"
	"stocktrack/internal/core/types"
	"stocktrack/internal/domain"
	"stocktrack/internal/domain/docflow"
	"stocktrack/internal/domain/movement"
	"stocktrack/internal/domain/stock"
	"stocktrack/pkg/logger"
	"stocktrack/pkg/refnum"
)

// CreateInput carries the fields for a new adjustment.
type CreateInput struct {
	ProductID        id.ID
	WarehouseID      id.ID
	PhysicalQuantity types.Quantity
	Date             *time.Time
	Reason           string

	// ValidateNow applies the adjustment in the same transaction that
	// creates it.
	ValidateNow bool
}

// Service manages stock adjustments.
type Service struct {
	repo      Repository
	stockRepo stock.Repository
	engine    *movement.Engine
	machine   *docflow.Machine
	numbers   refnum.Generator
}

// NewService creates an adjustment service.
func NewService(
	repo Repository,
	stockRepo stock.Repository,
	engine *movement.Engine,
	machine *docflow.Machine,
	numbers refnum.Generator,
) *Service {
	return &Service{
		repo:      repo,
		stockRepo: stockRepo,
		engine:    engine,
		machine:   machine,
		numbers:   numbers,
	}
}

// Create creates an adjustment. The recorded quantity is snapshotted
// from the live balance at creation time and kept even if the balance
// moves before the adjustment is validated.
func (s *Service) Create(ctx context.Context, input CreateInput) (*Adjustment, error) {
	actor, ok := security.GetActor(ctx)
	if !ok {
		return nil, apperror.NewUnauthorized("authentication required")
	}
	if !security.HasPermission(actor.Role, security.PermAdjustStock) {
		return nil, apperror.NewForbidden("missing permission: " + security.PermAdjustStock)
	}

	balance, err := s.stockRepo.GetBalance(ctx, stock.Key{
		ProductID:   input.ProductID,
		WarehouseID: input.WarehouseID,
	})
	if err != nil {
		return nil, err
	}

	doc := &Adjustment{
		Document:         entity.NewDocument(),
		ProductID:        input.ProductID,
		WarehouseID:      input.WarehouseID,
		RecordedQuantity: balance.Quantity,
		PhysicalQuantity: input.PhysicalQuantity,
		Reason:           input.Reason,
	}
	doc.Number = s.numbers.Next(Prefix)
	doc.Date = input.Date
	doc.Notes = input.Reason
	doc.CreatedBy = actor.UserID

	if err := doc.Validate(); err != nil {
		return nil, err
	}

	if !input.ValidateNow {
		if err := s.repo.Create(ctx, doc); err != nil {
			return nil, err
		}
		logger.Info(ctx, "adjustment created",
			"id", doc.ID, "number", doc.Number, "delta", doc.Delta())
		return doc, nil
	}

	if err := s.machine.Check(ctx, doc.Kind(), entity.StatusDraft, entity.StatusDone); err != nil {
		return nil, err
	}
	err = s.engine.Apply(ctx, doc, func(ctx context.Context) error {
		doc.Status = entity.StatusDone
		return s.repo.Create(ctx, doc)
	})
	if err != nil {
		doc.Status = entity.StatusDraft
		return nil, err
	}
	return doc, nil
}

// GetByID returns an adjustment by ID.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*Adjustment, error) {
	return s.repo.GetByID(ctx, docID)
}

// GetByNumber returns an adjustment by its reference number.
func (s *Service) GetByNumber(ctx context.Context, number string) (*Adjustment, error) {
	return s.repo.GetByNumber(ctx, number)
}

// List returns a page of adjustments.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Adjustment], error) {
	filter.Normalize()
	return s.repo.List(ctx, filter)
}

// SetStatus moves an adjustment to a new status. Moving into done pins
// the balance to the physical count.
func (s *Service) SetStatus(ctx context.Context, docID id.ID, to entity.Status) (*Adjustment, error) {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}

	if err := s.machine.Check(ctx, doc.Kind(), doc.Status, to); err != nil {
		return nil, err
	}

	if to != entity.StatusDone {
		doc.Status = to
		if err := s.repo.Update(ctx, doc); err != nil {
			return nil, err
		}
		return doc, nil
	}

	if err := doc.Validate(); err != nil {
		return nil, err
	}
	err = s.engine.Apply(ctx, doc, func(ctx context.Context) error {
		doc.Status = entity.StatusDone
		return s.repo.Update(ctx, doc)
	})
	if err != nil {
		return nil, err
	}
	logger.Info(ctx, "adjustment validated",
		"id", doc.ID, "number", doc.Number, "delta", doc.Delta())
	return doc, nil
}
