package delivery

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

// CreateInput carries the fields for a new delivery.
type CreateInput struct {
	WarehouseID  id.ID
	CustomerName string
	Date         *time.Time
	Notes        string
	Items        []ItemInput

	// ValidateNow applies the delivery in the same transaction that
	// creates it, skipping the picking chain entirely.
	ValidateNow bool
}

// ItemInput is one line of CreateInput.
type ItemInput struct {
	ProductID id.ID
	Quantity  types.Quantity
}

// Service manages delivery orders.
type Service struct {
	repo    Repository
	engine  *movement.Engine
	machine *docflow.Machine
	numbers refnum.Generator
}

// NewService creates a delivery service.
func NewService(repo Repository, engine *movement.Engine, machine *docflow.Machine, numbers refnum.Generator) *Service {
	return &Service{repo: repo, engine: engine, machine: machine, numbers: numbers}
}

// Create creates a delivery, optionally validating it immediately.
// Without ValidateNow the order starts in draft and stock leaves only
// after the picking chain completes.
func (s *Service) Create(ctx context.Context, input CreateInput) (*Delivery, error) {
	actor, ok := security.GetActor(ctx)
	if !ok {
		return nil, apperror.NewUnauthorized("authentication required")
	}
	if !security.HasPermission(actor.Role, security.PermCreateDelivery) {
		return nil, apperror.NewForbidden("missing permission: " + security.PermCreateDelivery)
	}

	doc := &Delivery{
		Document:     entity.NewDocument(),
		WarehouseID:  input.WarehouseID,
		CustomerName: input.CustomerName,
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
		})
	}

	if err := doc.Validate(); err != nil {
		return nil, err
	}

	if !input.ValidateNow {
		if err := s.repo.Create(ctx, doc); err != nil {
			return nil, err
		}
		logger.Info(ctx, "delivery created", "id", doc.ID, "number", doc.Number)
		return doc, nil
	}

	// Direct to done: the availability check, the insert and the stock
	// movement share a transaction.
	if err := s.machine.CheckValidate(ctx, doc.Kind()); err != nil {
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
	logger.Info(ctx, "delivery created and validated", "id", doc.ID, "number", doc.Number)
	return doc, nil
}

// GetByID returns a delivery by ID.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*Delivery, error) {
	return s.repo.GetByID(ctx, docID)
}

// GetByNumber returns a delivery by its reference number.
func (s *Service) GetByNumber(ctx context.Context, number string) (*Delivery, error) {
	return s.repo.GetByNumber(ctx, number)
}

// List returns a page of deliveries.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Delivery], error) {
	filter.Normalize()
	return s.repo.List(ctx, filter)
}

// NextStatuses returns the statuses the delivery may move to.
func (s *Service) NextStatuses(doc *Delivery) []entity.Status {
	return s.machine.NextStatuses(doc.Kind(), doc.Status)
}

// SetStatus moves a delivery along the picking chain. The move into done
// decrements balances atomically with the status write; availability is
// checked then, not at draft time, so stock is not reserved by drafts.
func (s *Service) SetStatus(ctx context.Context, docID id.ID, to entity.Status) (*Delivery, error) {
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
	logger.Info(ctx, "delivery validated", "id", doc.ID, "number", doc.Number)
	return doc, nil
}
