// Package simulation drives the engine with reproducible random traffic.
// Every random choice comes from one injected *rand.Rand and every actor
// carries its own session, so a seed fully determines a run.
package simulation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"math/rand"
	"slices"
	"time"

	"bobiz-backend/internal/domain"
	"bobiz-backend/internal/metrics"
	"bobiz-backend/internal/security"
	"bobiz-backend/internal/service"
)

type Config struct {
	Seed          int64
	Users         int
	Events        int
	NeedsPerEvent int
	Steps         int
	MaxPoints     int32
}

func DefaultConfig() Config {
	return Config{
		Users:         12,
		Events:        3,
		NeedsPerEvent: 4,
		Steps:         200,
		MaxPoints:     10,
	}
}

type UserBalance struct {
	UserID  int32
	Balance int64
}

type NeedReport struct {
	NeedID    int32
	Label     string
	Requested int32
	Assigned  int64
	Status    domain.NeedStatus
}

// Report is the deterministic outcome of a run.
type Report struct {
	Seed      int64
	Outcomes  map[string]int
	Balances  []UserBalance
	Needs     []NeedReport
	LedgerSum int64
}

type Simulator struct {
	cfg      Config
	engine   *service.Engine
	rng      *rand.Rand
	sessions []*security.Session
	needs    []int32
	rows     map[int32]domain.Need
	direct   []int32
	spawned  []int32
	outcomes map[string]int
}

// New prepares a run. tokens mints one session per simulated user.
func New(engine *service.Engine, tokens security.TokenManager, rng *rand.Rand, cfg Config) (*Simulator, error) {
	if cfg.Users < 2 {
		return nil, errors.New("simulation needs at least two users")
	}
	if cfg.MaxPoints < 1 {
		cfg.MaxPoints = 1
	}
	s := &Simulator{
		cfg:      cfg,
		engine:   engine,
		rng:      rng,
		rows:     make(map[int32]domain.Need),
		outcomes: make(map[string]int),
	}
	for i := 1; i <= cfg.Users; i++ {
		session, err := tokens.NewSession(int32(i))
		if err != nil {
			return nil, fmt.Errorf("session for user %d: %w", i, err)
		}
		s.sessions = append(s.sessions, session)
	}
	return s, nil
}

func (s *Simulator) Run(ctx context.Context) (*Report, error) {
	if err := s.setup(ctx); err != nil {
		return nil, err
	}
	for i := 0; i < s.cfg.Steps; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := s.step(ctx); err != nil {
			return nil, err
		}
	}
	return s.report(ctx)
}

func (s *Simulator) actor() *security.Session {
	return s.sessions[s.rng.Intn(len(s.sessions))]
}

func (s *Simulator) setup(ctx context.Context) error {
	categories := []domain.NeedCategory{domain.NeedCategoryItem, domain.NeedCategoryService}
	for e := 0; e < s.cfg.Events; e++ {
		organizer := s.actor()
		startsAt := time.Date(2026, 6, 1+e, 18, 0, 0, 0, time.UTC)
		ev, err := s.engine.Catalog.CreateEvent(ctx, organizer.UserID, fmt.Sprintf("Event %d", e+1), &startsAt)
		if err != nil {
			return err
		}
		for n := 0; n < s.cfg.NeedsPerEvent; n++ {
			need, err := s.engine.Catalog.AddNeed(ctx, service.NeedParams{
				EventID:           ev.ID,
				Label:             fmt.Sprintf("Need %d.%d", e+1, n+1),
				Category:          categories[s.rng.Intn(len(categories))],
				RequestedQuantity: int32(1 + s.rng.Intn(4)),
				Urgent:            s.rng.Intn(4) == 0,
			})
			if err != nil {
				return err
			}
			s.needs = append(s.needs, need.ID)
			s.rows[need.ID] = *need
		}
	}
	return nil
}

// step performs one random action. Business rejections are expected and
// counted; any other error aborts the run.
func (s *Simulator) step(ctx context.Context) error {
	var (
		action string
		err    error
	)
	switch roll := s.rng.Intn(100); {
	case roll < 35 && len(s.needs) > 0:
		action = "position"
		err = s.position(ctx)
	case roll < 45:
		action = "create"
		err = s.create(ctx)
	case roll < 65:
		action = "accept"
		err = s.accept(ctx)
	case roll < 85:
		action = "complete"
		err = s.complete(ctx)
	case roll < 95:
		action = "cancel"
		err = s.cancel(ctx)
	default:
		action = "withdraw"
		err = s.withdraw(ctx)
	}

	outcome := metrics.Outcome(err)
	if outcome == "error" {
		return fmt.Errorf("%s: %w", action, err)
	}
	s.outcomes[action+":"+outcome]++
	return nil
}

func (s *Simulator) points() int32 {
	return 1 + s.rng.Int31n(s.cfg.MaxPoints)
}

func (s *Simulator) pick(ids []int32) (int32, bool) {
	if len(ids) == 0 {
		return 0, false
	}
	return ids[s.rng.Intn(len(ids))], true
}

func (s *Simulator) position(ctx context.Context) error {
	needID, _ := s.pick(s.needs)
	_, ex, err := s.engine.Allocator.Position(ctx, service.PositionRequest{
		NeedID:        needID,
		ParticipantID: s.actor().UserID,
		Quantity:      int32(1 + s.rng.Intn(2)),
		PointsValue:   s.points(),
	})
	if err == nil {
		s.spawned = append(s.spawned, ex.ID)
	}
	return err
}

func (s *Simulator) create(ctx context.Context) error {
	kinds := []domain.ExchangeKind{
		domain.ExchangeKindLoan, domain.ExchangeKindBorrow,
		domain.ExchangeKindServiceOffered, domain.ExchangeKindServiceRequested,
	}
	ex, err := s.engine.Exchanges.Create(ctx, service.ExchangeParams{
		Kind:        kinds[s.rng.Intn(len(kinds))],
		Title:       "Direct exchange",
		CreatorID:   s.actor().UserID,
		PointsValue: s.points(),
		Origin:      domain.DirectOrigin(),
	})
	if err == nil {
		s.direct = append(s.direct, ex.ID)
	}
	return err
}

// anyExchange picks from direct and spawned exchanges alike.
func (s *Simulator) anyExchange(ctx context.Context) (*domain.Exchange, error) {
	all := append(slices.Clone(s.direct), s.spawned...)
	id, ok := s.pick(all)
	if !ok {
		return nil, nil
	}
	return s.engine.Exchanges.Get(ctx, id)
}

func (s *Simulator) accept(ctx context.Context) error {
	ex, err := s.anyExchange(ctx)
	if ex == nil || err != nil {
		return err
	}
	// Spawned exchanges are pre-matched; their participant starts them.
	accepter := s.actor().UserID
	if ex.CounterpartyID != nil && s.rng.Intn(4) != 0 {
		accepter = *ex.CounterpartyID
	}
	_, err = s.engine.Exchanges.AcceptAndStart(ctx, ex.ID, accepter)
	return err
}

func (s *Simulator) complete(ctx context.Context) error {
	ex, err := s.anyExchange(ctx)
	if ex == nil || err != nil {
		return err
	}
	_, err = s.engine.Exchanges.Complete(ctx, ex.ID)
	return err
}

func (s *Simulator) cancel(ctx context.Context) error {
	ex, err := s.anyExchange(ctx)
	if ex == nil || err != nil {
		return err
	}
	_, err = s.engine.Exchanges.Cancel(ctx, ex.ID, "simulated cancellation")
	return err
}

func (s *Simulator) withdraw(ctx context.Context) error {
	needID, ok := s.pick(s.needs)
	if !ok {
		return nil
	}
	_, err := s.engine.Allocator.Withdraw(ctx, needID, s.actor().UserID)
	if errors.Is(err, domain.ErrNotParticipant) {
		return nil
	}
	return err
}

func (s *Simulator) report(ctx context.Context) (*Report, error) {
	r := &Report{Seed: s.cfg.Seed, Outcomes: maps.Clone(s.outcomes)}
	for _, session := range s.sessions {
		balance, err := s.engine.Ledger.Balance(ctx, session.UserID)
		if err != nil {
			return nil, err
		}
		r.Balances = append(r.Balances, UserBalance{UserID: session.UserID, Balance: balance})
		r.LedgerSum += balance
	}
	for _, needID := range s.needs {
		assignments, err := s.engine.Allocator.Assignments(ctx, needID)
		if err != nil {
			return nil, err
		}
		status, err := s.engine.Allocator.Status(ctx, needID)
		if err != nil {
			return nil, err
		}
		var assigned int64
		for _, a := range assignments {
			assigned += int64(a.Quantity)
		}
		r.Needs = append(r.Needs, NeedReport{
			NeedID:    needID,
			Label:     s.rows[needID].Label,
			Requested: s.rows[needID].RequestedQuantity,
			Assigned:  assigned,
			Status:    status,
		})
	}
	return r, nil
}

// Write prints the report in a stable order.
func (r *Report) Write(w io.Writer) {
	fmt.Fprintf(w, "seed %d\n\noutcomes:\n", r.Seed)
	for _, k := range slices.Sorted(maps.Keys(r.Outcomes)) {
		fmt.Fprintf(w, "  %-40s %d\n", k, r.Outcomes[k])
	}
	fmt.Fprintln(w, "\nbalances:")
	for _, b := range r.Balances {
		fmt.Fprintf(w, "  user %-4d %6d\n", b.UserID, b.Balance)
	}
	fmt.Fprintln(w, "\nneeds:")
	for _, n := range r.Needs {
		fmt.Fprintf(w, "  %-12s %d/%d %s\n", n.Label, n.Assigned, n.Requested, n.Status)
	}
	fmt.Fprintf(w, "\nledger sum %d\n", r.LedgerSum)
}
