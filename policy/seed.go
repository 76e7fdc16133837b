package policy

import "github.com/campuspay/timesheet-core/core"

// DefaultRows returns the canonical Schedule 1 policy table effective from
// 2024-01-01, open-ended. This is the reference dataset spec §4.1 describes
// as "loaded at startup from a reference dataset"; a real deployment's
// PolicyRepository.loadAll would replace this with rows read from storage.
func DefaultRows() []Row {
	from := core.NewWeek(2024, 1, 1)
	std := core.NewHours(2.0)
	rep := core.NewHours(1.0)
	stdPhD := core.NewHours(1.0)
	repPhD := core.NewHours(0.5)

	return []Row{
		// TUTORIAL: associated-hour caps vary by (repeat, qualification).
		{
			TaskType: core.TaskTutorial, Qualification: core.QualificationStandard, Repeat: false,
			EffectiveFrom: from, RateCode: "TU2", HourlyRate: core.MoneyFromFloat(58.65),
			ClauseReference: "Schedule 1 cl.3(a)", FormulaTemplate: "1h delivery + %sh associated @ %s",
			StandardCap: &std, RepeatCap: &rep,
		},
		{
			TaskType: core.TaskTutorial, Qualification: core.QualificationStandard, Repeat: true,
			EffectiveFrom: from, RateCode: "TU1", HourlyRate: core.MoneyFromFloat(58.65),
			ClauseReference: "Schedule 1 cl.3(a)", FormulaTemplate: "1h delivery + %sh associated @ %s",
			StandardCap: &std, RepeatCap: &rep,
		},
		{
			TaskType: core.TaskTutorial, Qualification: core.QualificationPhD, Repeat: false,
			EffectiveFrom: from, RateCode: "TU4", HourlyRate: core.MoneyFromFloat(64.12),
			ClauseReference: "Schedule 1 cl.3(b)", FormulaTemplate: "1h delivery + %sh associated @ %s",
			StandardCap: &stdPhD, RepeatCap: &repPhD,
		},
		{
			TaskType: core.TaskTutorial, Qualification: core.QualificationPhD, Repeat: true,
			EffectiveFrom: from, RateCode: "TU3", HourlyRate: core.MoneyFromFloat(64.12),
			ClauseReference: "Schedule 1 cl.3(b)", FormulaTemplate: "1h delivery + %sh associated @ %s",
			StandardCap: &stdPhD, RepeatCap: &repPhD,
		},
		{
			TaskType: core.TaskTutorial, Qualification: core.QualificationCoordinator, Repeat: false,
			EffectiveFrom: from, RateCode: "TU4", HourlyRate: core.MoneyFromFloat(64.12),
			ClauseReference: "Schedule 1 cl.3(b)", FormulaTemplate: "1h delivery + %sh associated @ %s",
			StandardCap: &stdPhD, RepeatCap: &repPhD,
		},
		{
			TaskType: core.TaskTutorial, Qualification: core.QualificationCoordinator, Repeat: true,
			EffectiveFrom: from, RateCode: "TU3", HourlyRate: core.MoneyFromFloat(64.12),
			ClauseReference: "Schedule 1 cl.3(b)", FormulaTemplate: "1h delivery + %sh associated @ %s",
			StandardCap: &stdPhD, RepeatCap: &repPhD,
		},

		// LECTURE: hourly, flat rate regardless of repeat.
		{
			TaskType: core.TaskLecture, Qualification: core.QualificationStandard, Repeat: false,
			EffectiveFrom: from, RateCode: "LE1", HourlyRate: core.MoneyFromFloat(112.50),
			ClauseReference: "Schedule 1 cl.4", FormulaTemplate: "%sh @ %s",
		},
		{
			TaskType: core.TaskLecture, Qualification: core.QualificationStandard, Repeat: true,
			EffectiveFrom: from, RateCode: "LE1", HourlyRate: core.MoneyFromFloat(112.50),
			ClauseReference: "Schedule 1 cl.4", FormulaTemplate: "%sh @ %s",
		},
		{
			TaskType: core.TaskLecture, Qualification: core.QualificationPhD, Repeat: false,
			EffectiveFrom: from, RateCode: "LE1", HourlyRate: core.MoneyFromFloat(112.50),
			ClauseReference: "Schedule 1 cl.4", FormulaTemplate: "%sh @ %s",
		},
		{
			TaskType: core.TaskLecture, Qualification: core.QualificationPhD, Repeat: true,
			EffectiveFrom: from, RateCode: "LE1", HourlyRate: core.MoneyFromFloat(112.50),
			ClauseReference: "Schedule 1 cl.4", FormulaTemplate: "%sh @ %s",
		},
		{
			TaskType: core.TaskLecture, Qualification: core.QualificationCoordinator, Repeat: false,
			EffectiveFrom: from, RateCode: "LE1", HourlyRate: core.MoneyFromFloat(112.50),
			ClauseReference: "Schedule 1 cl.4", FormulaTemplate: "%sh @ %s",
		},
		{
			TaskType: core.TaskLecture, Qualification: core.QualificationCoordinator, Repeat: true,
			EffectiveFrom: from, RateCode: "LE1", HourlyRate: core.MoneyFromFloat(112.50),
			ClauseReference: "Schedule 1 cl.4", FormulaTemplate: "%sh @ %s",
		},

		// ORAA: high-band (PHD/COORDINATOR) -> AO1, STANDARD -> AO2.
		{
			TaskType: core.TaskORAA, Qualification: core.QualificationStandard, Repeat: false,
			EffectiveFrom: from, RateCode: "AO2", HourlyRate: core.MoneyFromFloat(47.81),
			ClauseReference: "Schedule 1 cl.5(b)", FormulaTemplate: "%sh @ %s",
		},
		{
			TaskType: core.TaskORAA, Qualification: core.QualificationStandard, Repeat: true,
			EffectiveFrom: from, RateCode: "AO2", HourlyRate: core.MoneyFromFloat(47.81),
			ClauseReference: "Schedule 1 cl.5(b)", FormulaTemplate: "%sh @ %s",
		},
		{
			TaskType: core.TaskORAA, Qualification: core.QualificationPhD, Repeat: false,
			EffectiveFrom: from, RateCode: "AO1", HourlyRate: core.MoneyFromFloat(58.65),
			ClauseReference: "Schedule 1 cl.5(a)", FormulaTemplate: "%sh @ %s",
		},
		{
			TaskType: core.TaskORAA, Qualification: core.QualificationPhD, Repeat: true,
			EffectiveFrom: from, RateCode: "AO1", HourlyRate: core.MoneyFromFloat(58.65),
			ClauseReference: "Schedule 1 cl.5(a)", FormulaTemplate: "%sh @ %s",
		},
		{
			TaskType: core.TaskORAA, Qualification: core.QualificationCoordinator, Repeat: false,
			EffectiveFrom: from, RateCode: "AO1", HourlyRate: core.MoneyFromFloat(58.65),
			ClauseReference: "Schedule 1 cl.5(a)", FormulaTemplate: "%sh @ %s",
		},
		{
			TaskType: core.TaskORAA, Qualification: core.QualificationCoordinator, Repeat: true,
			EffectiveFrom: from, RateCode: "AO1", HourlyRate: core.MoneyFromFloat(58.65),
			ClauseReference: "Schedule 1 cl.5(a)", FormulaTemplate: "%sh @ %s",
		},

		// DEMO: same high/standard band split as ORAA, distinct rate codes.
		{
			TaskType: core.TaskDemo, Qualification: core.QualificationStandard, Repeat: false,
			EffectiveFrom: from, RateCode: "DE2", HourlyRate: core.MoneyFromFloat(51.30),
			ClauseReference: "Schedule 1 cl.6(b)", FormulaTemplate: "%sh @ %s",
		},
		{
			TaskType: core.TaskDemo, Qualification: core.QualificationStandard, Repeat: true,
			EffectiveFrom: from, RateCode: "DE2", HourlyRate: core.MoneyFromFloat(51.30),
			ClauseReference: "Schedule 1 cl.6(b)", FormulaTemplate: "%sh @ %s",
		},
		{
			TaskType: core.TaskDemo, Qualification: core.QualificationPhD, Repeat: false,
			EffectiveFrom: from, RateCode: "DE1", HourlyRate: core.MoneyFromFloat(61.98),
			ClauseReference: "Schedule 1 cl.6(a)", FormulaTemplate: "%sh @ %s",
		},
		{
			TaskType: core.TaskDemo, Qualification: core.QualificationPhD, Repeat: true,
			EffectiveFrom: from, RateCode: "DE1", HourlyRate: core.MoneyFromFloat(61.98),
			ClauseReference: "Schedule 1 cl.6(a)", FormulaTemplate: "%sh @ %s",
		},
		{
			TaskType: core.TaskDemo, Qualification: core.QualificationCoordinator, Repeat: false,
			EffectiveFrom: from, RateCode: "DE1", HourlyRate: core.MoneyFromFloat(61.98),
			ClauseReference: "Schedule 1 cl.6(a)", FormulaTemplate: "%sh @ %s",
		},
		{
			TaskType: core.TaskDemo, Qualification: core.QualificationCoordinator, Repeat: true,
			EffectiveFrom: from, RateCode: "DE1", HourlyRate: core.MoneyFromFloat(61.98),
			ClauseReference: "Schedule 1 cl.6(a)", FormulaTemplate: "%sh @ %s",
		},

		// MARKING: non-contemporaneous is hourly-payable; contemporaneous is
		// folded into tutorial associated hours and is never payable here.
		{
			TaskType: core.TaskMarking, Qualification: core.QualificationStandard, Repeat: false,
			EffectiveFrom: from, RateCode: "MK1", HourlyRate: core.MoneyFromFloat(58.65),
			ClauseReference: "Schedule 1 cl.7", FormulaTemplate: "%sh @ %s",
		},
		{
			TaskType: core.TaskMarking, Qualification: core.QualificationStandard, Repeat: true,
			EffectiveFrom: from, RateCode: "MK1", HourlyRate: core.MoneyFromFloat(58.65),
			ClauseReference: "Schedule 1 cl.7", FormulaTemplate: "%sh @ %s",
		},
		{
			TaskType: core.TaskMarking, Qualification: core.QualificationPhD, Repeat: false,
			EffectiveFrom: from, RateCode: "MK1", HourlyRate: core.MoneyFromFloat(64.12),
			ClauseReference: "Schedule 1 cl.7", FormulaTemplate: "%sh @ %s",
		},
		{
			TaskType: core.TaskMarking, Qualification: core.QualificationPhD, Repeat: true,
			EffectiveFrom: from, RateCode: "MK1", HourlyRate: core.MoneyFromFloat(64.12),
			ClauseReference: "Schedule 1 cl.7", FormulaTemplate: "%sh @ %s",
		},
		{
			TaskType: core.TaskMarking, Qualification: core.QualificationCoordinator, Repeat: false,
			EffectiveFrom: from, RateCode: "MK1", HourlyRate: core.MoneyFromFloat(64.12),
			ClauseReference: "Schedule 1 cl.7", FormulaTemplate: "%sh @ %s",
		},
		{
			TaskType: core.TaskMarking, Qualification: core.QualificationCoordinator, Repeat: true,
			EffectiveFrom: from, RateCode: "MK1", HourlyRate: core.MoneyFromFloat(64.12),
			ClauseReference: "Schedule 1 cl.7", FormulaTemplate: "%sh @ %s",
		},
	}
}
