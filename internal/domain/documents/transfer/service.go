package transfer

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

// CreateInput carries the fields for a new transfer.
type CreateInput struct {
	FromWarehouseID id.ID
	ToWarehouseID   id.ID
	Date            *time.Time
	Notes           string
	Items           []ItemInput

	// ValidateNow applies the transfer in the same transaction that
	// creates it.
	ValidateNow bool
}

// ItemInput is one line of CreateInput.
type ItemInput struct {
	ProductID id.ID
	Quantity  types.Quantity
}

// Service manages inter-warehouse transfers.
type Service struct {
	repo    Repository
	engine  *movement.Engine
	machine *docflow.Machine
	numbers refnum.Generator
}

// NewService creates a transfer service.
func NewService(repo Repository, engine *movement.Engine, machine *docflow.Machine, numbers refnum.Generator) *Service {
	return &Service{repo: repo, engine: engine, machine: machine, numbers: numbers}
}

// Create creates a transfer, optionally validating it immediately.
func (s *Service) Create(ctx context.Context, input CreateInput) (*Transfer, error) {
	actor, ok := security.GetActor(ctx)
	if !ok {
		return nil, apperror.NewUnauthorized("authentication required")
	}
	if !security.HasPermission(actor.Role, security.PermCreateTransfer) {
		return nil, apperror.NewForbidden("missing permission: " + security.PermCreateTransfer)
	}

	doc := &Transfer{
		Document:        entity.NewDocument(),
		FromWarehouseID: input.FromWarehouseID,
		ToWarehouseID:   input.ToWarehouseID,
		Items:           make([]Item, 0, len(input.Items)),
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
		logger.Info(ctx, "transfer created", "id", doc.ID, "number", doc.Number)
		return doc, nil
	}

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

// GetByID returns a transfer by ID.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*Transfer, error) {
	return s.repo.GetByID(ctx, docID)
}

// GetByNumber returns a transfer by its reference number.
func (s *Service) GetByNumber(ctx context.Context, number string) (*Transfer, error) {
	return s.repo.GetByNumber(ctx, number)
}

// List returns a page of transfers.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Transfer], error) {
	filter.Normalize()
	return s.repo.List(ctx, filter)
}

// SetStatus moves a transfer to a new status. Moving into done applies
// both sides of every line atomically; a shortage at the source leaves
// the destination untouched.
func (s *Service) SetStatus(ctx context.Context, docID id.ID, to entity.Status) (*Transfer, error) {
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
	logger.Info(ctx, "transfer validated", "id", doc.ID, "number", doc.Number)
	return doc, nil
}
