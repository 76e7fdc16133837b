package policy_test

import (
	"testing"

	"github.com/campuspay/timesheet-core/core"
	"github.com/campuspay/timesheet-core/policy"
)

func TestResolve_ExactMatch(t *testing.T) {
	// GIVEN: the default Schedule 1 table
	p, err := policy.NewProvider(policy.DefaultRows())
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}

	// WHEN: resolving a TUTORIAL/STANDARD/non-repeat row on a date within range
	row, rerr := p.Resolve(core.TaskTutorial, core.QualificationStandard, false, core.NewWeek(2024, 7, 8))

	// THEN: the TU2 row is returned
	if rerr != nil {
		t.Fatalf("unexpected error: %v", rerr)
	}
	if row.RateCode != "TU2" {
		t.Errorf("expected TU2, got %s", row.RateCode)
	}
}

func TestResolve_RepeatFlagSelectsDifferentRow(t *testing.T) {
	// GIVEN: the default table
	p, _ := policy.NewProvider(policy.DefaultRows())

	// WHEN: resolving the same key but repeat=true
	row, rerr := p.Resolve(core.TaskTutorial, core.QualificationStandard, true, core.NewWeek(2024, 7, 8))

	// THEN: the repeat-rate row (TU1) is returned, not TU2
	if rerr != nil {
		t.Fatalf("unexpected error: %v", rerr)
	}
	if row.RateCode != "TU1" {
		t.Errorf("expected TU1, got %s", row.RateCode)
	}
}

func TestResolve_BeforeEffectiveFrom_PolicyNotFound(t *testing.T) {
	// GIVEN: rows effective from 2024-01-01
	p, _ := policy.NewProvider(policy.DefaultRows())

	// WHEN: resolving for a session date before any row's effective window
	_, rerr := p.Resolve(core.TaskTutorial, core.QualificationStandard, false, core.NewWeek(2023, 12, 25))

	// THEN: POLICY_NOT_FOUND
	if rerr == nil {
		t.Fatal("expected an error, got nil")
	}
	if rerr.Code != core.CodePolicyNotFound {
		t.Errorf("expected %s, got %s", core.CodePolicyNotFound, rerr.Code)
	}
}

func TestResolve_UnknownKey_PolicyNotFound(t *testing.T) {
	// GIVEN: the default table and a key that has no row: a task type the
	// table never seeds.
	p, _ := policy.NewProvider(policy.DefaultRows())

	// WHEN: resolving a task type the table has no rows for
	_, rerr := p.Resolve(core.TaskType("UNKNOWN"), core.QualificationStandard, false, core.NewWeek(2024, 7, 8))

	// THEN: POLICY_NOT_FOUND
	if rerr == nil {
		t.Fatal("expected an error, got nil")
	}
	if rerr.Code != core.CodePolicyNotFound {
		t.Errorf("expected %s, got %s", core.CodePolicyNotFound, rerr.Code)
	}
}

func TestNewProvider_OverlappingRows_Rejected(t *testing.T) {
	// GIVEN: two rows sharing a key with overlapping, open-ended ranges
	rows := []policy.Row{
		{
			TaskType: core.TaskLecture, Qualification: core.QualificationStandard, Repeat: false,
			EffectiveFrom: core.NewWeek(2024, 1, 1), RateCode: "LE1", HourlyRate: core.MoneyFromFloat(100),
		},
		{
			TaskType: core.TaskLecture, Qualification: core.QualificationStandard, Repeat: false,
			EffectiveFrom: core.NewWeek(2024, 6, 1), RateCode: "LE2", HourlyRate: core.MoneyFromFloat(110),
		},
	}

	// WHEN: building a Provider from them
	_, err := policy.NewProvider(rows)

	// THEN: the overlap is rejected at load time
	if err == nil {
		t.Fatal("expected an overlap error, got nil")
	}
}

func TestNewProvider_NonOverlappingSequentialRows_Accepted(t *testing.T) {
	// GIVEN: two rows sharing a key with a closed, non-overlapping range
	// followed by an open-ended successor
	to := core.NewWeek(2024, 6, 1)
	rows := []policy.Row{
		{
			TaskType: core.TaskLecture, Qualification: core.QualificationStandard, Repeat: false,
			EffectiveFrom: core.NewWeek(2024, 1, 1), EffectiveTo: &to, RateCode: "LE1", HourlyRate: core.MoneyFromFloat(100),
		},
		{
			TaskType: core.TaskLecture, Qualification: core.QualificationStandard, Repeat: false,
			EffectiveFrom: to, RateCode: "LE2", HourlyRate: core.MoneyFromFloat(110),
		},
	}

	// WHEN: building a Provider from them
	p, err := policy.NewProvider(rows)

	// THEN: load succeeds and each date resolves to its own row
	if err != nil {
		t.Fatalf("unexpected overlap error: %v", err)
	}
	before, rerr := p.Resolve(core.TaskLecture, core.QualificationStandard, false, core.NewWeek(2024, 3, 1))
	if rerr != nil || before.RateCode != "LE1" {
		t.Errorf("expected LE1 before cutover, got %v / %v", before, rerr)
	}
	after, rerr := p.Resolve(core.TaskLecture, core.QualificationStandard, false, core.NewWeek(2024, 7, 1))
	if rerr != nil || after.RateCode != "LE2" {
		t.Errorf("expected LE2 after cutover, got %v / %v", after, rerr)
	}
}

func TestReload_AtomicSnapshotSwap(t *testing.T) {
	// GIVEN: a Provider seeded with the default table
	p, err := policy.NewProvider(policy.DefaultRows())
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}

	// WHEN: Reload swaps in a single-row replacement table
	replacement := []policy.Row{
		{
			TaskType: core.TaskLecture, Qualification: core.QualificationStandard, Repeat: false,
			EffectiveFrom: core.NewWeek(2024, 1, 1), RateCode: "LE9", HourlyRate: core.MoneyFromFloat(999),
		},
	}
	if err := p.Reload(replacement); err != nil {
		t.Fatalf("Reload: %v", err)
	}

	// THEN: resolving the replaced key returns the new row
	row, rerr := p.Resolve(core.TaskLecture, core.QualificationStandard, false, core.NewWeek(2024, 7, 1))
	if rerr != nil {
		t.Fatalf("unexpected error: %v", rerr)
	}
	if row.RateCode != "LE9" {
		t.Errorf("expected LE9 after reload, got %s", row.RateCode)
	}

	// AND: a key only present in the old table is gone
	_, rerr = p.Resolve(core.TaskTutorial, core.QualificationStandard, false, core.NewWeek(2024, 7, 1))
	if rerr == nil {
		t.Error("expected TUTORIAL key to be gone after reload, got no error")
	}
}
