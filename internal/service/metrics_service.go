package service

import (
	"context"
	"sort"
	"time"

	"go-armory-ledger/internal/model"
	"go-armory-ledger/internal/repository"
	"go-armory-ledger/pkg/apperrors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// MetricsQuery selects a (base set, equipment type, date range) slice. From
// and To are inclusive and either may be open.
type MetricsQuery struct {
	BaseIDs         []uuid.UUID
	EquipmentTypeID *uuid.UUID
	From            *time.Time
	To              *time.Time
}

type Metrics struct {
	BaseIDs         []uuid.UUID `json:"base_ids"`
	EquipmentTypeID *uuid.UUID  `json:"equipment_type_id,omitempty"`
	From            *time.Time  `json:"from,omitempty"`
	To              *time.Time  `json:"to,omitempty"`
	OpeningBalance  int64       `json:"opening_balance"`
	ClosingBalance  int64       `json:"closing_balance"`
	NetMovement     int64       `json:"net_movement"`
	Purchases       int64       `json:"purchases"`
	TransfersIn     int64       `json:"transfers_in"`
	TransfersOut    int64       `json:"transfers_out"`
	Assigned        int64       `json:"assigned"`
	Returned        int64       `json:"returned"`
	Expended        int64       `json:"expended"`
}

// Reconciliation compares stored balances with the value rebuilt from the
// journal for the same scope.
type Reconciliation struct {
	BaseIDs         []uuid.UUID `json:"base_ids"`
	EquipmentTypeID *uuid.UUID  `json:"equipment_type_id,omitempty"`
	OnHand          int64       `json:"on_hand"`
	Expected        int64       `json:"expected"`
	Drift           int64       `json:"drift"`
	Consistent      bool        `json:"consistent"`
}

// MovementQuery selects journal records for the merged movement history.
type MovementQuery struct {
	BaseIDs         []uuid.UUID
	EquipmentTypeID *uuid.UUID
	From            *time.Time
	To              *time.Time
	Limit           int
}

type MetricsService interface {
	GetMetrics(ctx context.Context, actor model.Actor, q MetricsQuery) (*Metrics, error)
	Reconcile(ctx context.Context, actor model.Actor, q MetricsQuery) (*Reconciliation, error)
	Movements(ctx context.Context, actor model.Actor, q MovementQuery) ([]model.Movement, error)
}

// JournalRepos groups the read side of every journal table.
type JournalRepos struct {
	Purchases    repository.PurchaseRepository
	Transfers    repository.TransferRepository
	Assignments  repository.AssignmentRepository
	Expenditures repository.ExpenditureRepository
}

type metricsService struct {
	*Ledger
	metricsRepo repository.MetricsRepository
	journals    JournalRepos
}

func NewMetricsService(l *Ledger, metricsRepo repository.MetricsRepository, journals JournalRepos) MetricsService {
	return &metricsService{Ledger: l, metricsRepo: metricsRepo, journals: journals}
}

func (s *metricsService) scope(ctx context.Context, actor model.Actor, bases []uuid.UUID, equipmentTypeID *uuid.UUID) (repository.MetricsScope, error) {
	resolved, err := s.visibleBases(ctx, actor, bases)
	if err != nil {
		return repository.MetricsScope{}, err
	}
	sorted := make([]uuid.UUID, len(resolved))
	copy(sorted, resolved)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].String() < sorted[j].String() })
	return repository.MetricsScope{BaseIDs: sorted, EquipmentTypeID: equipmentTypeID}, nil
}

func checkRange(from, to *time.Time) error {
	if from != nil && to != nil && to.Before(*from) {
		return apperrors.NewValidationError("range end precedes range start")
	}
	return nil
}

func (s *metricsService) GetMetrics(ctx context.Context, actor model.Actor, q MetricsQuery) (*Metrics, error) {
	if err := checkRange(q.From, q.To); err != nil {
		return nil, err
	}
	scope, err := s.scope(ctx, actor, q.BaseIDs, q.EquipmentTypeID)
	if err != nil {
		return nil, err
	}

	cached, key := s.Cache.load(ctx, q, scope.BaseIDs)
	if cached != nil {
		return cached, nil
	}

	m := &Metrics{BaseIDs: scope.BaseIDs, EquipmentTypeID: q.EquipmentTypeID, From: q.From, To: q.To}
	inRange := []struct {
		source repository.MovementSource
		dst    *int64
	}{
		{repository.SourcePurchases, &m.Purchases},
		{repository.SourceTransfersIn, &m.TransfersIn},
		{repository.SourceTransfersOut, &m.TransfersOut},
		{repository.SourceAssigned, &m.Assigned},
		{repository.SourceReturned, &m.Returned},
		{repository.SourceExpended, &m.Expended},
	}

	var onHand, outstanding, since int64
	err = s.metricsRepo.Snapshot(ctx, func(repo repository.MetricsRepository) error {
		var err error
		for _, r := range inRange {
			total, err := repo.SumMovements(ctx, r.source, scope, q.From, q.To)
			if err != nil {
				return err
			}
			*r.dst = total
		}
		if onHand, err = repo.SumOnHand(ctx, scope); err != nil {
			return err
		}
		if outstanding, err = repo.SumOutstandingAssignments(ctx, scope); err != nil {
			return err
		}
		since, err = ownershipChange(ctx, repo, scope, q.From)
		return err
	})
	if err != nil {
		return nil, err
	}

	m.NetMovement = m.Purchases + m.TransfersIn - m.TransfersOut - m.Expended
	m.OpeningBalance = onHand + outstanding - since
	m.ClosingBalance = m.OpeningBalance + m.NetMovement

	s.Cache.store(ctx, key, m)
	return m, nil
}

// ownershipSigns lists the movement sources that change what a base owns.
// Custody moves (assignments) are absent.
var ownershipSigns = []struct {
	source repository.MovementSource
	sign   int64
}{
	{repository.SourcePurchases, 1},
	{repository.SourceTransfersIn, 1},
	{repository.SourceTransfersOut, -1},
	{repository.SourceExpended, -1},
}

// ownershipChange sums ownership effects dated on or after from.
func ownershipChange(ctx context.Context, repo repository.MetricsRepository, scope repository.MetricsScope, from *time.Time) (int64, error) {
	var total int64
	for _, o := range ownershipSigns {
		sum, err := repo.SumMovements(ctx, o.source, scope, from, nil)
		if err != nil {
			return 0, err
		}
		total += o.sign * sum
	}
	return total, nil
}

func (s *metricsService) Reconcile(ctx context.Context, actor model.Actor, q MetricsQuery) (*Reconciliation, error) {
	scope, err := s.scope(ctx, actor, q.BaseIDs, q.EquipmentTypeID)
	if err != nil {
		return nil, err
	}

	var onHand, outstanding, owned int64
	err = s.metricsRepo.Snapshot(ctx, func(repo repository.MetricsRepository) error {
		var err error
		if onHand, err = repo.SumOnHand(ctx, scope); err != nil {
			return err
		}
		if outstanding, err = repo.SumOutstandingAssignments(ctx, scope); err != nil {
			return err
		}
		owned, err = ownershipChange(ctx, repo, scope, nil)
		return err
	})
	if err != nil {
		return nil, err
	}

	r := &Reconciliation{
		BaseIDs:         scope.BaseIDs,
		EquipmentTypeID: q.EquipmentTypeID,
		OnHand:          onHand,
		Expected:        owned - outstanding,
	}
	r.Drift = r.OnHand - r.Expected
	r.Consistent = r.Drift == 0
	if !r.Consistent {
		s.Logger.Error("balance drift detected",
			zap.Int64("on_hand", r.OnHand),
			zap.Int64("expected", r.Expected),
			zap.Int("bases", len(r.BaseIDs)),
		)
	}
	return r, nil
}

// Movements merges every journal table into one history, newest first, with
// each record's signed effect on the base it is seen from.
func (s *metricsService) Movements(ctx context.Context, actor model.Actor, q MovementQuery) ([]model.Movement, error) {
	if err := checkRange(q.From, q.To); err != nil {
		return nil, err
	}
	scope, err := s.scope(ctx, actor, q.BaseIDs, q.EquipmentTypeID)
	if err != nil {
		return nil, err
	}
	if len(scope.BaseIDs) == 0 {
		return []model.Movement{}, nil
	}

	filter := repository.JournalFilter{
		BaseIDs:         scope.BaseIDs,
		EquipmentTypeID: q.EquipmentTypeID,
		From:            q.From,
		To:              q.To,
		Limit:           q.Limit,
	}
	inScope := make(map[uuid.UUID]bool, len(scope.BaseIDs))
	for _, id := range scope.BaseIDs {
		inScope[id] = true
	}

	completed := filter
	completed.Status = string(model.TransferCompleted)
	returnedFilter := filter
	returnedFilter.Status = string(model.AssignmentReturned)

	var (
		purchases    []model.Purchase
		transfers    []model.Transfer
		assignments  []model.Assignment
		returned     []model.Assignment
		expenditures []model.Expenditure
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		purchases, err = s.journals.Purchases.List(gctx, filter)
		return err
	})
	g.Go(func() (err error) {
		transfers, err = s.journals.Transfers.List(gctx, completed)
		return err
	})
	g.Go(func() (err error) {
		assignments, err = s.journals.Assignments.List(gctx, filter)
		return err
	})
	g.Go(func() (err error) {
		returned, err = s.journals.Assignments.List(gctx, returnedFilter)
		return err
	})
	g.Go(func() (err error) {
		expenditures, err = s.journals.Expenditures.List(gctx, filter)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var movements []model.Movement
	for _, p := range purchases {
		movements = append(movements, model.Movement{
			Kind: model.MovementPurchase, ReferenceID: p.ID, Date: p.PurchaseDate,
			BaseID: p.BaseID, EquipmentTypeID: p.EquipmentTypeID,
			Quantity: p.Quantity, Effect: p.Quantity, Counterparty: p.Supplier, ActorID: p.CreatedBy,
		})
	}

	for _, t := range transfers {
		if t.CompletedAt == nil {
			continue
		}
		actorID := t.CreatedBy
		if t.CompletedBy != nil {
			actorID = *t.CompletedBy
		}
		if inScope[t.FromBaseID] {
			movements = append(movements, model.Movement{
				Kind: model.MovementTransferOut, ReferenceID: t.ID, Date: *t.CompletedAt,
				BaseID: t.FromBaseID, EquipmentTypeID: t.EquipmentTypeID,
				Quantity: t.Quantity, Effect: -t.Quantity, Counterparty: baseLabel(t.ToBase, t.ToBaseID), ActorID: actorID,
			})
		}
		if inScope[t.ToBaseID] {
			movements = append(movements, model.Movement{
				Kind: model.MovementTransferIn, ReferenceID: t.ID, Date: *t.CompletedAt,
				BaseID: t.ToBaseID, EquipmentTypeID: t.EquipmentTypeID,
				Quantity: t.Quantity, Effect: t.Quantity, Counterparty: baseLabel(t.FromBase, t.FromBaseID), ActorID: actorID,
			})
		}
	}

	for _, a := range assignments {
		movements = append(movements, model.Movement{
			Kind: model.MovementAssignment, ReferenceID: a.ID, Date: a.AssignmentDate,
			BaseID: a.BaseID, EquipmentTypeID: a.EquipmentTypeID,
			Quantity: a.Quantity, Effect: -a.Quantity, Counterparty: a.AssignedTo, ActorID: a.CreatedBy,
		})
	}

	for _, a := range returned {
		if a.ActualReturnDate == nil {
			continue
		}
		actorID := a.CreatedBy
		if a.ReturnedBy != nil {
			actorID = *a.ReturnedBy
		}
		movements = append(movements, model.Movement{
			Kind: model.MovementAssignmentReturn, ReferenceID: a.ID, Date: *a.ActualReturnDate,
			BaseID: a.BaseID, EquipmentTypeID: a.EquipmentTypeID,
			Quantity: a.Quantity, Effect: a.Quantity, Counterparty: a.AssignedTo, ActorID: actorID,
		})
	}

	for _, e := range expenditures {
		movements = append(movements, model.Movement{
			Kind: model.MovementExpenditure, ReferenceID: e.ID, Date: e.ExpenditureDate,
			BaseID: e.BaseID, EquipmentTypeID: e.EquipmentTypeID,
			Quantity: e.Quantity, Effect: -e.Quantity, Counterparty: e.Reason, ActorID: e.CreatedBy,
		})
	}

	sort.SliceStable(movements, func(i, j int) bool { return movements[i].Date.After(movements[j].Date) })

	limit := q.Limit
	if limit <= 0 {
		limit = repository.DefaultLimit
	}
	if limit > repository.MaxLimit {
		limit = repository.MaxLimit
	}
	if len(movements) > limit {
		movements = movements[:limit]
	}
	if movements == nil {
		movements = []model.Movement{}
	}
	return movements, nil
}

func baseLabel(base *model.Base, id uuid.UUID) string {
	if base != nil && base.Name != "" {
		return base.Name
	}
	return id.String()
}
