package crawler

import (
	"github.com/rendis/storetap/internal/engine/dedup"
	"github.com/rendis/storetap/internal/engine/geo"
	"github.com/rendis/storetap/internal/model"
)

// Probe is one dispatched query: a point and the cell it claimed.
type Probe struct {
	Point model.GeoPoint
	Cell  model.Cell
}

// Scheduler is the BFS frontier. It owns the candidate queue, the visited
// cells and the seen record keys, and is driven by a single goroutine.
type Scheduler struct {
	queue  *Queue
	cells  *geo.CellIndex
	seen   *dedup.Store
	radii  []float64
	region geo.Region

	maxCells   int
	dispatched int
	budgetHit  bool

	records []model.Record
	stats   *Stats
}

// NewScheduler seeds a scheduler. Seeds outside the region are dropped.
func NewScheduler(seeds []model.GeoPoint, cfg Config, stats *Stats) *Scheduler {
	if stats == nil {
		stats = &Stats{}
	}
	s := &Scheduler{
		queue:    NewQueue(),
		cells:    geo.NewCellIndex(cfg.CellSize),
		seen:     dedup.NewStore(),
		radii:    cfg.RingRadii,
		region:   cfg.Region,
		maxCells: cfg.MaxCells,
		stats:    stats,
	}

	in := cfg.Region.Filter(seeds)
	s.queue.PushAll(in)
	stats.Seeds = len(in)
	stats.PointsEnqueued.Add(int64(len(in)))
	stats.Frontier.Store(int64(len(in)))
	if len(in) > 0 {
		stats.setState(StateRunning)
	}
	return s
}

// Next pops points until one falls in a cell not yet visited, marks that cell
// and returns it. It returns false when the queue is empty or the cell budget
// is spent; BudgetExhausted tells the two apart.
func (s *Scheduler) Next() (Probe, bool) {
	defer func() { s.stats.Frontier.Store(int64(s.queue.Len())) }()

	for {
		p, ok := s.queue.Pop()
		if !ok {
			return Probe{}, false
		}
		cell := s.cells.Snap(p)

		if s.maxCells > 0 && s.dispatched >= s.maxCells {
			if s.cells.Visited(cell) {
				s.stats.PointsDiscarded.Add(1)
				continue
			}
			s.budgetHit = true
			return Probe{}, false
		}

		if !s.cells.MarkVisited(cell) {
			s.stats.PointsDiscarded.Add(1)
			continue
		}
		s.dispatched++
		return Probe{Point: p, Cell: cell}, true
	}
}

// BudgetExhausted reports whether Next stopped on the cell budget.
func (s *Scheduler) BudgetExhausted() bool {
	return s.budgetHit
}

// Absorb dedups normalized records from one query and expands a ring around
// every newly accepted one. It returns the accepted records.
func (s *Scheduler) Absorb(recs []model.Record) []model.Record {
	var accepted []model.Record
	for _, r := range recs {
		ok, err := s.seen.Accept(&r)
		if err != nil {
			s.stats.SchemaErrors.Add(1)
			continue
		}
		if !ok {
			continue
		}
		accepted = append(accepted, r)
		if r.HasPoint() {
			s.expand(r.Point)
		}
	}

	s.records = append(s.records, accepted...)
	s.stats.RecordsAccepted.Add(int64(len(accepted)))
	s.stats.Frontier.Store(int64(s.queue.Len()))
	return accepted
}

func (s *Scheduler) expand(p model.GeoPoint) {
	for _, q := range geo.RingAround(p, s.radii) {
		if !s.region.Contains(q) {
			continue
		}
		s.queue.Push(q)
		s.stats.PointsEnqueued.Add(1)
	}
}

// Records returns the accepted records in acceptance order.
func (s *Scheduler) Records() []model.Record {
	return s.records
}

// VisitedCells is the number of cells claimed so far.
func (s *Scheduler) VisitedCells() int {
	return s.cells.Len()
}

func (s *Scheduler) Pending() int {
	return s.queue.Len()
}
