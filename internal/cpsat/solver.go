package cpsat

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Status is the outcome of a solve.
type Status int

const (
	// StatusUnknown means the time budget expired before any solution was found.
	StatusUnknown Status = iota
	// StatusOptimal means the search completed and the returned solution maximizes the objective.
	StatusOptimal
	// StatusFeasible means a solution was found but optimality was not proven in time.
	StatusFeasible
	// StatusInfeasible means no assignment satisfies the constraints.
	StatusInfeasible
)

// String returns a human-readable status name.
func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "optimal"
	case StatusFeasible:
		return "feasible"
	case StatusInfeasible:
		return "infeasible"
	default:
		return "unknown"
	}
}

// Parameters bound one solver invocation.
type Parameters struct {
	// TimeBudget caps the wall-clock duration of the search.
	TimeBudget time.Duration
	// Workers is the number of parallel search workers.
	Workers int
}

// DefaultParameters returns the standard solve budget: 30 seconds, 8 workers.
func DefaultParameters() Parameters {
	return Parameters{TimeBudget: 30 * time.Second, Workers: 8}
}

// Result carries the solve status and, when feasible, a value for every
// variable of the model.
type Result struct {
	Status    Status
	Objective int
	values    []bool
}

// Feasible reports whether the result carries a usable assignment.
func (r *Result) Feasible() bool {
	return r.Status == StatusOptimal || r.Status == StatusFeasible
}

// Value returns the assigned value of a variable. It is only meaningful when
// Feasible() is true.
func (r *Result) Value(v *BoolVar) bool {
	if v == nil || v.index >= len(r.values) {
		return false
	}
	return r.values[v.index]
}

// Engine is the solving contract consumed by the scheduling service: submit a
// model with a time/worker budget, get back a status and a variable lookup.
// One invocation per scheduling cycle; the engine never retries internally.
type Engine interface {
	Solve(ctx context.Context, m *Model, params Parameters) *Result
}

// Solver implements Engine with a portfolio of propagating depth-first
// searches. Every assignment, decided or derived, updates per-constraint sum
// bounds; unit propagation then fixes any variable whose remaining slack
// admits only one value, so a decision cascades through implications, quotas,
// and exclusivity constraints instead of being rediscovered by enumeration.
// Workers differ in variable order and branch polarity and share the
// incumbent objective. The first worker to exhaust its search proves
// optimality (or infeasibility).
type Solver struct{}

// NewSolver creates a Solver.
func NewSolver() *Solver {
	return &Solver{}
}

// Solve runs the portfolio search. It blocks until the search completes or
// the time budget expires, whichever comes first.
func (s *Solver) Solve(ctx context.Context, m *Model, params Parameters) *Result {
	if params.Workers <= 0 {
		params.Workers = 1
	}
	if params.TimeBudget <= 0 {
		params.TimeBudget = DefaultParameters().TimeBudget
	}

	ctx, cancel := context.WithTimeout(ctx, params.TimeBudget)
	defer cancel()

	inc := &incumbent{}
	inc.best.Store(-1)

	var stop atomic.Bool
	var anyComplete atomic.Bool
	var wg sync.WaitGroup

	for w := 0; w < params.Workers; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			sr := newSearch(m, inc, &stop, worker)
			if sr.run(ctx) {
				anyComplete.Store(true)
				// One exhausted search settles the outcome; stop the rest.
				stop.Store(true)
			}
		}(w)
	}
	wg.Wait()

	best := inc.best.Load()
	result := &Result{}
	if best >= 0 {
		result.Objective = int(best)
		result.values = inc.values
	}

	switch {
	case anyComplete.Load() && best >= 0:
		result.Status = StatusOptimal
	case anyComplete.Load():
		result.Status = StatusInfeasible
	case best >= 0:
		result.Status = StatusFeasible
	default:
		result.Status = StatusUnknown
	}
	return result
}

// incumbent is the best solution found so far, shared across workers. The
// objective is non-negative by construction (a sum of boolean variables), so
// -1 marks "no solution yet".
type incumbent struct {
	mu     sync.Mutex
	best   atomic.Int64
	values []bool
}

func (in *incumbent) offer(values []int8, objective int) {
	if int64(objective) <= in.best.Load() {
		return
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	if int64(objective) <= in.best.Load() {
		return
	}
	copied := make([]bool, len(values))
	for i, v := range values {
		copied[i] = v == 1
	}
	in.values = copied
	in.best.Store(int64(objective))
}

type conRef struct {
	index int
	coef  int
}

// search is one worker's depth-first search state. Assignments live on a
// trail so that a decision and everything it propagated unwind together.
type search struct {
	model    *Model
	inc      *incumbent
	stop     *atomic.Bool
	order    []int
	firstVal int8

	values     []int8 // -1 unassigned
	lo, hi     []int  // reachable sum bounds per constraint under the partial assignment
	objFixed   int
	objPending int // positive objective coefficients still unassigned
	varCons    [][]conRef
	objCoef    []int
	trail      []int
	queue      []int
	queued     []bool
	nodes      int
}

func newSearch(m *Model, inc *incumbent, stop *atomic.Bool, worker int) *search {
	n := m.NumVars()
	sr := &search{
		model:    m,
		inc:      inc,
		stop:     stop,
		order:    make([]int, n),
		firstVal: 0,
		values:   make([]int8, n),
		lo:       make([]int, len(m.constraints)),
		hi:       make([]int, len(m.constraints)),
		varCons:  make([][]conRef, n),
		objCoef:  make([]int, n),
		trail:    make([]int, 0, n),
		queue:    make([]int, 0, len(m.constraints)),
		queued:   make([]bool, len(m.constraints)),
	}
	for i := range sr.values {
		sr.values[i] = -1
	}
	for i := range sr.order {
		sr.order[i] = i
	}
	for ci, con := range m.constraints {
		for _, term := range con.Terms {
			vi := term.Var.index
			sr.varCons[vi] = append(sr.varCons[vi], conRef{index: ci, coef: term.Coef})
			if term.Coef > 0 {
				sr.hi[ci] += term.Coef
			} else {
				sr.lo[ci] += term.Coef
			}
		}
	}
	for _, term := range m.objective {
		sr.objCoef[term.Var.index] += term.Coef
		if term.Coef > 0 {
			sr.objPending += term.Coef
		}
	}
	// Portfolio diversification: worker 0 branches most-constrained-first
	// (stable within equal degree, so declaration locality survives) with
	// false-first polarity, which keeps sum-equality bounds tight and lets
	// propagation place the forced structure. The other workers use seeded
	// shuffled orders with alternating polarity.
	if worker == 0 {
		sort.SliceStable(sr.order, func(i, j int) bool {
			return len(sr.varCons[sr.order[i]]) > len(sr.varCons[sr.order[j]])
		})
	} else {
		rng := rand.New(rand.NewSource(int64(worker)))
		rng.Shuffle(n, func(i, j int) {
			sr.order[i], sr.order[j] = sr.order[j], sr.order[i]
		})
		sr.firstVal = int8(worker % 2)
	}
	return sr
}

// run executes the search. It returns true when the search space was fully
// explored (proving optimality or infeasibility), false when it was cut short
// by the deadline or a stop signal.
func (sr *search) run(ctx context.Context) bool {
	for ci := range sr.model.constraints {
		sr.queued[ci] = true
		sr.queue = append(sr.queue, ci)
	}
	if !sr.propagate() {
		// Inconsistent before any decision: trivially infeasible.
		return true
	}
	return sr.dfs(ctx, 0)
}

func (sr *search) dfs(ctx context.Context, pos int) bool {
	if sr.stop.Load() {
		return false
	}
	sr.nodes++
	if sr.nodes&255 == 0 {
		select {
		case <-ctx.Done():
			return false
		default:
		}
	}

	for pos < len(sr.order) && sr.values[sr.order[pos]] >= 0 {
		pos++
	}
	if pos == len(sr.order) {
		sr.inc.offer(sr.values, sr.objFixed)
		return true
	}

	// No assignment below this node can beat the incumbent.
	if best := sr.inc.best.Load(); best >= 0 && int64(sr.objFixed+sr.objPending) <= best {
		return true
	}

	vi := sr.order[pos]
	for _, val := range [2]int8{sr.firstVal, 1 - sr.firstVal} {
		mark := len(sr.trail)
		if sr.decide(vi, val) {
			if !sr.dfs(ctx, pos+1) {
				sr.undo(mark)
				return false
			}
		}
		sr.undo(mark)
	}
	return true
}

// decide assigns a decision value and runs propagation to fixpoint. It
// returns false on conflict; the caller must still undo to its trail mark.
func (sr *search) decide(vi int, val int8) bool {
	if !sr.place(vi, val) {
		sr.flushQueue(0)
		return false
	}
	return sr.propagate()
}

// place records an assignment on the trail and updates the bounds of every
// constraint the variable appears in, queueing them for propagation. It
// returns false when some touched constraint can no longer be satisfied.
func (sr *search) place(vi int, val int8) bool {
	sr.values[vi] = val
	sr.trail = append(sr.trail, vi)
	consistent := true
	for _, ref := range sr.varCons[vi] {
		if val == 1 {
			if ref.coef > 0 {
				sr.lo[ref.index] += ref.coef
			} else {
				sr.hi[ref.index] += ref.coef
			}
		} else {
			if ref.coef > 0 {
				sr.hi[ref.index] -= ref.coef
			} else {
				sr.lo[ref.index] -= ref.coef
			}
		}
		con := &sr.model.constraints[ref.index]
		if sr.lo[ref.index] > con.Max || sr.hi[ref.index] < con.Min {
			consistent = false
		}
		if !sr.queued[ref.index] {
			sr.queued[ref.index] = true
			sr.queue = append(sr.queue, ref.index)
		}
	}
	coef := sr.objCoef[vi]
	if val == 1 {
		sr.objFixed += coef
	}
	if coef > 0 {
		sr.objPending -= coef
	}
	return consistent
}

// propagate drains the constraint queue, fixing every unassigned variable
// whose remaining slack admits only one value (unit propagation over the sum
// bounds). Forced assignments re-queue their constraints, so the loop runs to
// fixpoint. Returns false on conflict with the queue left empty.
func (sr *search) propagate() bool {
	for head := 0; head < len(sr.queue); head++ {
		ci := sr.queue[head]
		sr.queued[ci] = false
		con := &sr.model.constraints[ci]
		if sr.lo[ci] > con.Max || sr.hi[ci] < con.Min {
			sr.flushQueue(head + 1)
			return false
		}
		for _, term := range con.Terms {
			vi := term.Var.index
			if sr.values[vi] >= 0 {
				continue
			}
			k := term.Coef
			var canBe1, canBe0 bool
			if k > 0 {
				canBe1 = sr.lo[ci]+k <= con.Max
				canBe0 = sr.hi[ci]-k >= con.Min
			} else {
				canBe1 = sr.hi[ci]+k >= con.Min
				canBe0 = sr.lo[ci]-k <= con.Max
			}
			switch {
			case canBe1 && canBe0:
			case canBe1:
				if !sr.place(vi, 1) {
					sr.flushQueue(head + 1)
					return false
				}
			case canBe0:
				if !sr.place(vi, 0) {
					sr.flushQueue(head + 1)
					return false
				}
			default:
				sr.flushQueue(head + 1)
				return false
			}
		}
	}
	sr.queue = sr.queue[:0]
	return true
}

// flushQueue clears the pending tail of the queue after a conflict.
func (sr *search) flushQueue(from int) {
	for _, ci := range sr.queue[from:] {
		sr.queued[ci] = false
	}
	sr.queue = sr.queue[:0]
}

// undo unwinds the trail back to a mark, reverting values and bounds.
func (sr *search) undo(mark int) {
	for len(sr.trail) > mark {
		vi := sr.trail[len(sr.trail)-1]
		sr.trail = sr.trail[:len(sr.trail)-1]
		val := sr.values[vi]
		sr.values[vi] = -1
		for _, ref := range sr.varCons[vi] {
			if val == 1 {
				if ref.coef > 0 {
					sr.lo[ref.index] -= ref.coef
				} else {
					sr.hi[ref.index] -= ref.coef
				}
			} else {
				if ref.coef > 0 {
					sr.hi[ref.index] += ref.coef
				} else {
					sr.lo[ref.index] += ref.coef
				}
			}
		}
		coef := sr.objCoef[vi]
		if val == 1 {
			sr.objFixed -= coef
		}
		if coef > 0 {
			sr.objPending += coef
		}
	}
}
