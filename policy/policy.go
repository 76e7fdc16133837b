/*
Package policy resolves EA Schedule 1 pay rates and clause references.

PURPOSE:
  Policy rows are reference data: for a given (task type, qualification,
  repeat flag) key, at most one row is active at any session date. The
  Provider holds the loaded rows behind an atomic pointer so a reload (an
  admin-triggered, out-of-core operation per spec §4.9) can swap in a new
  snapshot without locking readers.

KEY CONCEPTS:
  - Row: one Schedule 1 rate entry, valid over [EffectiveFrom, EffectiveTo).
  - Provider.Resolve: exact key match + date-range containment, exactly one
    winner or PolicyNotFound.

LOAD-TIME INVARIANT:
  Two rows with the same key and overlapping [from, to) ranges is a
  configuration error, detected once at load (not on every Resolve call).

SEE ALSO:
  - calculator package: consumes Resolve's result.
  - seed.go: the canonical Schedule 1 rate table used when no external
    PolicyRepository is wired (spec §4.9 PolicyRepository.loadAll).
*/
package policy

import (
	"fmt"
	"sync/atomic"

	"github.com/campuspay/timesheet-core/core"
)

// Row is one Schedule 1 policy entry.
type Row struct {
	TaskType         core.TaskType
	Qualification    core.Qualification
	Repeat           bool
	EffectiveFrom    core.Week
	EffectiveTo      *core.Week // nil = open-ended
	RateCode         string
	HourlyRate       core.Money
	ClauseReference  string
	FormulaTemplate  string

	// TUTORIAL-only associated-hour caps (spec §4.1).
	StandardCap *core.Hours
	RepeatCap   *core.Hours

	// MARKING-only: whether this row covers contemporaneous marking, which
	// is never itself payable (spec §4.1 CONTEMPORANEOUS_MARKING_NOT_PAYABLE).
	Contemporaneous bool
}

type key struct {
	taskType      core.TaskType
	qualification core.Qualification
	repeat        bool
}

// snapshot is the immutable, validated view swapped in by Reload.
type snapshot struct {
	byKey map[key][]Row
}

// Provider resolves policy rows. Safe for concurrent use; Reload performs an
// atomic pointer swap so in-flight Resolve calls never observe a partial
// update (spec §9 "policy table is behind an atomic pointer swap").
type Provider struct {
	current atomic.Pointer[snapshot]
}

// NewProvider constructs a Provider from an initial row set. Returns an
// error if two rows with the same key have overlapping effective ranges.
func NewProvider(rows []Row) (*Provider, error) {
	p := &Provider{}
	if err := p.Reload(rows); err != nil {
		return nil, err
	}
	return p, nil
}

// Reload atomically replaces the policy snapshot. Detects overlapping rows
// for the same key as a configuration error.
func (p *Provider) Reload(rows []Row) error {
	byKey := make(map[key][]Row)
	for _, r := range rows {
		k := key{r.TaskType, r.Qualification, r.Repeat}
		byKey[k] = append(byKey[k], r)
	}
	for k, rs := range byKey {
		for i := 0; i < len(rs); i++ {
			for j := i + 1; j < len(rs); j++ {
				if overlaps(rs[i], rs[j]) {
					return fmt.Errorf("policy: overlapping rows for key %+v: %s and %s", k, rs[i].RateCode, rs[j].RateCode)
				}
			}
		}
	}
	p.current.Store(&snapshot{byKey: byKey})
	return nil
}

func overlaps(a, b Row) bool {
	aEnd := a.EffectiveTo
	bEnd := b.EffectiveTo
	// a starts before b ends (or b is open-ended) AND b starts before a ends (or a is open-ended).
	aStartsBeforeBEnds := bEnd == nil || a.EffectiveFrom.Before(*bEnd)
	bStartsBeforeAEnds := aEnd == nil || b.EffectiveFrom.Before(*aEnd)
	return aStartsBeforeBEnds && bStartsBeforeAEnds
}

// Resolve returns the unique active Row for the given key and session date,
// or *core.Error with CodePolicyNotFound if none (or, by load-time
// invariant, never more than one) matches.
func (p *Provider) Resolve(taskType core.TaskType, qualification core.Qualification, repeat bool, sessionDate core.Week) (Row, *core.Error) {
	snap := p.current.Load()
	if snap == nil {
		return Row{}, core.ErrPolicyNotFound
	}
	k := key{taskType, qualification, repeat}
	for _, r := range snap.byKey[k] {
		if r.EffectiveFrom.After(sessionDate) {
			continue
		}
		if r.EffectiveTo != nil && !sessionDate.Before(*r.EffectiveTo) {
			continue
		}
		return r, nil
	}
	return Row{}, core.ErrPolicyNotFound
}
