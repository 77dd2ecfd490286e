package receipt

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
	"stocktrack/pkg/logger"
	"stocktrack/pkg/refnum"
)

// CreateInput carries the fields for a new receipt.
type CreateInput struct {
	WarehouseID  id.ID
	SupplierName string
	Date         *time.Time
	Notes        string
	Items        []ItemInput

	// ValidateNow applies the receipt in the same transaction that
	// creates it, landing directly in done.
	ValidateNow bool
}

// ItemInput is one line of CreateInput.
type ItemInput struct {
	ProductID id.ID
	Quantity  types.Quantity
	UnitPrice types.Money
}

// Service manages goods receipts.
type Service struct {
	repo    Repository
	engine  *movement.Engine
	machine *docflow.Machine
	numbers refnum.Generator
}

// NewService creates a receipt service.
func NewService(repo Repository, engine *movement.Engine, machine *docflow.Machine, numbers refnum.Generator) *Service {
	return &Service{repo: repo, engine: engine, machine: machine, numbers: numbers}
}

// Create creates a receipt, optionally validating it immediately.
func (s *Service) Create(ctx context.Context, input CreateInput) (*Receipt, error) {
	actor, ok := security.GetActor(ctx)
	if !ok {
		return nil, apperror.NewUnauthorized("authentication required")
	}
	if !security.HasPermission(actor.Role, security.PermCreateReceipt) {
		return nil, apperror.NewForbidden("missing permission: " + security.PermCreateReceipt)
	}

	doc := &Receipt{
		Document:     entity.NewDocument(),
		WarehouseID:  input.WarehouseID,
		SupplierName: input.SupplierName,
		Items:        make([]Item, 0, len(input.Items)),
	}
	doc.Number = s.numbers.Next(Prefix)
	doc.Date = input.Date
	doc.Notes = input.Notes
	doc.CreatedBy = actor.UserID
	for _, item := range input.Items {
		doc.Items = append(doc.Items, Item{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}

	if err := doc.Validate(); err != nil {
		return nil, err
	}

	if !input.ValidateNow {
		if err := s.repo.Create(ctx, doc); err != nil {
			return nil, err
		}
		logger.Info(ctx, "receipt created", "id", doc.ID, "number", doc.Number)
		return doc, nil
	}

	// Direct to done: the insert and the stock movement share a transaction.
	if err := s.machine.Check(ctx, doc.Kind(), entity.StatusDraft, entity.StatusDone); err != nil {
		return nil, err
	}
	err := s.engine.Apply(ctx, doc, func(ctx context.Context) error {
		doc.Status = entity.StatusDone
		return s.repo.Create(ctx, doc)
	})
	if err != nil {
		doc.Status = entity.StatusDraft
		return nil, err
	}
	return doc, nil
}

// GetByID returns a receipt by ID.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*Receipt, error) {
	return s.repo.GetByID(ctx, docID)
}

// GetByNumber returns a receipt by its reference number.
func (s *Service) GetByNumber(ctx context.Context, number string) (*Receipt, error) {
	return s.repo.GetByNumber(ctx, number)
}

// List returns a page of receipts.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Receipt], error) {
	filter.Normalize()
	return s.repo.List(ctx, filter)
}

// SetStatus moves a receipt to a new status. Moving into done applies
// the receipt's stock effects atomically with the status write.
func (s *Service) SetStatus(ctx context.Context, docID id.ID, to entity.Status) (*Receipt, error) {
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
	logger.Info(ctx, "receipt validated", "id", doc.ID, "number", doc.Number)
	return doc, nil
}
