/*
Package calculator is the Schedule-1 payroll calculator (spec §4.2).

PURPOSE:
  Translates (task type, qualification, delivery hours, repeat flag, session
  date) into a Quote: rate code, associated hours, payable hours, hourly
  rate, total amount, formula string, and clause reference. Pure and
  deterministic given its inputs and the policy snapshot in effect — no I/O,
  no wall-clock reads, expected latency <10ms (spec §5).

ALGORITHM (per task type, design-level):
  TUTORIAL: delivery hours must equal 1.0 exactly. Associated hours come
    from the resolved policy row's StandardCap/RepeatCap. Payable hours =
    delivery + associated.
  LECTURE / ORAA / DEMO / MARKING (non-contemporaneous): hourly — payable
    hours = delivery hours, rate from policy.
  OTHER: always UNSUPPORTED_TASK_TYPE.
  MARKING marked contemporaneous: always CONTEMPORANEOUS_MARKING_NOT_PAYABLE
    (it folds into TUTORIAL associated hours instead).

NUMERIC SEMANTICS:
  All monetary arithmetic is decimal; rounding to 2 fractional digits is
  applied only at the amount step, not to intermediate multiplications.

SEE ALSO:
  - policy package: supplies the Row this calculator resolves against.
*/
package calculator

import (
	"fmt"

	"github.com/campuspay/timesheet-core/core"
	"github.com/campuspay/timesheet-core/policy"
)

// Quote is the pure computation result of a Schedule-1 calculation.
type Quote struct {
	RateCode        string
	HourlyRate      core.Money
	DeliveryHours   core.Hours
	AssociatedHours core.Hours
	PayableHours    core.Hours
	Amount          core.Money
	Formula         string
	ClauseReference string
	SessionDate     core.Week
}

// Calculator computes Quotes against a policy.Provider.
type Calculator struct {
	Policy *policy.Provider
}

// New constructs a Calculator bound to the given policy provider.
func New(p *policy.Provider) *Calculator {
	return &Calculator{Policy: p}
}

// Calculate computes the payable outcome for the given inputs. The
// contemporaneous flag only applies to MARKING; callers that never pass
// contemporaneous marking may leave it false for all other task types.
func (c *Calculator) Calculate(
	taskType core.TaskType,
	qualification core.Qualification,
	repeat bool,
	deliveryHours core.Hours,
	sessionDate core.Week,
	contemporaneousMarking bool,
) (Quote, *core.Error) {
	if deliveryHours.IsZero() || deliveryHours.IsNegative() {
		return Quote{}, core.ErrNonPositiveHours
	}

	if taskType == core.TaskOther {
		return Quote{}, core.ErrUnsupportedTaskType
	}

	if taskType == core.TaskMarking && contemporaneousMarking {
		return Quote{}, core.ErrContemporaneousMarkingNotPayable
	}

	row, perr := c.Policy.Resolve(taskType, qualification, repeat, sessionDate)
	if perr != nil {
		return Quote{}, perr
	}

	switch taskType {
	case core.TaskTutorial:
		return c.calculateTutorial(row, deliveryHours, sessionDate)
	default:
		return c.calculateHourly(row, deliveryHours, sessionDate)
	}
}

func (c *Calculator) calculateTutorial(row policy.Row, deliveryHours core.Hours, sessionDate core.Week) (Quote, *core.Error) {
	if !deliveryHours.Equal(core.NewHours(1.0)) {
		return Quote{}, core.ErrInvalidTutorialDelivery
	}

	var associated core.Hours
	if row.RepeatCap != nil && row.StandardCap != nil {
		if row.Repeat {
			associated = *row.RepeatCap
		} else {
			associated = *row.StandardCap
		}
	}

	payable := deliveryHours.Add(associated)
	amount := core.NewMoney(row.HourlyRate.Mul(payable.Decimal)).Round2()

	formula := fmt.Sprintf("1h delivery + %sh associated @ %s/h", associated.Decimal.String(), row.HourlyRate.Decimal.StringFixed(2))

	return Quote{
		RateCode:        row.RateCode,
		HourlyRate:      row.HourlyRate,
		DeliveryHours:   deliveryHours,
		AssociatedHours: associated,
		PayableHours:    payable,
		Amount:          amount,
		Formula:         formula,
		ClauseReference: row.ClauseReference,
		SessionDate:     sessionDate,
	}, nil
}

func (c *Calculator) calculateHourly(row policy.Row, deliveryHours core.Hours, sessionDate core.Week) (Quote, *core.Error) {
	amount := core.NewMoney(row.HourlyRate.Mul(deliveryHours.Decimal)).Round2()
	formula := fmt.Sprintf("%sh @ %s/h", deliveryHours.Decimal.String(), row.HourlyRate.Decimal.StringFixed(2))

	return Quote{
		RateCode:        row.RateCode,
		HourlyRate:      row.HourlyRate,
		DeliveryHours:   deliveryHours,
		AssociatedHours: core.Hours{},
		PayableHours:    deliveryHours,
		Amount:          amount,
		Formula:         formula,
		ClauseReference: row.ClauseReference,
		SessionDate:     sessionDate,
	}, nil
}
