/*
Package query is the read-side aggregator (spec §4.8): role-scoped lists,
pending queues, audit history, and per-role dashboard summaries. It never
mutates a Timesheet — every method loads through the store contracts and
shapes the result, the same read-only-facade role api/handlers.go plays
over generic.Store in the teacher, adapted here into a typed service
rather than an HTTP layer so transport/http can stay a thin collaborator.

Every method takes a permission.Actor first and applies the same
dashboard-scoping rule spec §4.4/§4.8 states: TUTORs cannot filter by
course; LECTURERs may filter only within courses they own; ADMIN is
unrestricted.
*/
package query

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/campuspay/timesheet-core/core"
	"github.com/campuspay/timesheet-core/lifecycle"
	"github.com/campuspay/timesheet-core/permission"
	"github.com/campuspay/timesheet-core/store"
	"github.com/campuspay/timesheet-core/timesheet"
)

// Service answers read-only queries over timesheets, courses, and users.
type Service struct {
	Timesheets store.TimesheetRepository
	Courses    store.CourseRepository
	Users      store.UserRepository
	Clock      store.Clock
}

// New constructs a Service.
func New(timesheets store.TimesheetRepository, courses store.CourseRepository, users store.UserRepository, clock store.Clock) *Service {
	return &Service{Timesheets: timesheets, Courses: courses, Users: users, Clock: clock}
}

// Page bounds a list query. A zero Limit means "unbounded" (all matches,
// after sorting).
type Page struct {
	Limit  int
	Offset int
}

// ListFilter narrows ListTimesheets. A nil field is unconstrained, except
// that TutorID and CourseID are further constrained by the actor's own
// scoping rules regardless of what the caller passes.
type ListFilter struct {
	TutorID  *core.UserID
	CourseID *core.CourseID
	Status   *core.Status
	WeekFrom *core.Week
	WeekTo   *core.Week
}

// ListTimesheets returns timesheets matching filter, scoped to what actor
// may see, ordered (created-at DESC, id DESC) per spec §4.8, and paged.
func (s *Service) ListTimesheets(ctx context.Context, actor permission.Actor, filter ListFilter, page Page) ([]*timesheet.Timesheet, *core.Error) {
	scoped, err := s.scopedFilter(ctx, actor, filter)
	if err != nil {
		return nil, err
	}

	items, lerr := s.Timesheets.List(ctx, scoped)
	if lerr != nil {
		return nil, core.AsError(lerr)
	}
	items = filterByWeekRange(items, filter.WeekFrom, filter.WeekTo)
	items = filterByLecturerOwnership(ctx, s.Courses, actor, items)

	sortByCreatedDesc(items)
	return paginate(items, page), nil
}

// scopedFilter translates a caller-supplied ListFilter plus the actor's
// role into a store.TimesheetFilter, enforcing dashboard scoping: TUTOR
// is pinned to its own id and may not set CourseID; LECTURER may only
// set CourseID to a course it owns.
func (s *Service) scopedFilter(ctx context.Context, actor permission.Actor, filter ListFilter) (store.TimesheetFilter, *core.Error) {
	out := store.TimesheetFilter{}
	if filter.Status != nil {
		out.Statuses = []core.Status{*filter.Status}
	}

	switch actor.Role {
	case core.RoleTutor:
		if filter.CourseID != nil {
			return store.TimesheetFilter{}, core.ErrAuthorizationFailed
		}
		self := actor.ID
		out.TutorID = &self
	case core.RoleLecturer:
		if filter.CourseID != nil {
			course, cerr := s.Courses.GetCourse(ctx, *filter.CourseID)
			if cerr != nil {
				return store.TimesheetFilter{}, core.AsError(cerr)
			}
			if course.LecturerID != actor.ID {
				return store.TimesheetFilter{}, core.ErrAuthorizationFailed
			}
			out.CourseID = filter.CourseID
		}
		if filter.TutorID != nil {
			out.TutorID = filter.TutorID
		}
	case core.RoleAdmin:
		out.CourseID = filter.CourseID
		out.TutorID = filter.TutorID
	default:
		return store.TimesheetFilter{}, core.ErrAuthorizationFailed
	}
	return out, nil
}

// Get returns a single timesheet after confirming actor may view it (spec
// §6 `GET /timesheets/{id}`), the same CanView check History applies.
func (s *Service) Get(ctx context.Context, actor permission.Actor, id core.TimesheetID) (*timesheet.Timesheet, *core.Error) {
	ts, err := s.Timesheets.Get(ctx, id)
	if err != nil {
		return nil, core.AsError(err)
	}
	course, cerr := s.Courses.GetCourse(ctx, ts.CourseID)
	if cerr != nil {
		return nil, core.AsError(cerr)
	}
	ref := permission.TimesheetRef{ID: ts.ID, TutorID: ts.TutorID, CourseID: ts.CourseID, Status: ts.Status, CreatedBy: ts.CreatedBy}
	if verr := permission.CanView(actor, ref, course.LecturerID == actor.ID); verr != nil {
		return nil, verr
	}
	return ts, nil
}

// MyTimesheets is a role-inferred convenience over ListTimesheets: a TUTOR
// gets their own timesheets, a LECTURER those of the courses they own, and
// an ADMIN every timesheet.
func (s *Service) MyTimesheets(ctx context.Context, actor permission.Actor, page Page) ([]*timesheet.Timesheet, *core.Error) {
	self := actor.ID
	filter := ListFilter{}
	if actor.Role == core.RoleTutor {
		filter.TutorID = &self
	}
	return s.ListTimesheets(ctx, actor, filter, page)
}

// PendingForTutor returns timesheets awaiting this tutor's own
// confirmation. Only the tutor themselves or an ADMIN may call this for
// a given tutorID.
func (s *Service) PendingForTutor(ctx context.Context, actor permission.Actor, tutorID core.UserID, page Page) ([]*timesheet.Timesheet, *core.Error) {
	if actor.Role != core.RoleAdmin && actor.ID != tutorID {
		return nil, core.ErrAuthorizationFailed
	}
	status := core.StatusPendingTutorConfirm
	items, err := s.Timesheets.List(ctx, store.TimesheetFilter{TutorID: &tutorID, Statuses: []core.Status{status}})
	if err != nil {
		return nil, core.AsError(err)
	}
	sortByCreatedDesc(items)
	return paginate(items, page), nil
}

// PendingForLecturer returns timesheets awaiting this lecturer's
// confirmation, across the courses they own.
func (s *Service) PendingForLecturer(ctx context.Context, actor permission.Actor, lecturerID core.UserID, page Page) ([]*timesheet.Timesheet, *core.Error) {
	if actor.Role != core.RoleAdmin && actor.ID != lecturerID {
		return nil, core.ErrAuthorizationFailed
	}
	items, err := s.Timesheets.List(ctx, store.TimesheetFilter{Statuses: []core.Status{core.StatusTutorConfirmed}})
	if err != nil {
		return nil, core.AsError(err)
	}
	items = filterByOwnedCourses(ctx, s.Courses, lecturerID, items)
	sortByCreatedDesc(items)
	return paginate(items, page), nil
}

// PendingForAdmin returns timesheets awaiting HR/admin final confirmation.
func (s *Service) PendingForAdmin(ctx context.Context, actor permission.Actor, page Page) ([]*timesheet.Timesheet, *core.Error) {
	if actor.Role != core.RoleAdmin {
		return nil, core.ErrAuthorizationFailed
	}
	items, err := s.Timesheets.List(ctx, store.TimesheetFilter{Statuses: []core.Status{core.StatusLecturerConfirmed}})
	if err != nil {
		return nil, core.AsError(err)
	}
	sortByCreatedDesc(items)
	return paginate(items, page), nil
}

// History returns the full ordered approval history of a timesheet, after
// confirming actor may view it.
func (s *Service) History(ctx context.Context, actor permission.Actor, id core.TimesheetID) ([]timesheet.ApprovalHistoryEntry, *core.Error) {
	ts, err := s.Timesheets.Get(ctx, id)
	if err != nil {
		return nil, core.AsError(err)
	}
	course, cerr := s.Courses.GetCourse(ctx, ts.CourseID)
	if cerr != nil {
		return nil, core.AsError(cerr)
	}
	ref := permission.TimesheetRef{ID: ts.ID, TutorID: ts.TutorID, CourseID: ts.CourseID, Status: ts.Status, CreatedBy: ts.CreatedBy}
	if verr := permission.CanView(actor, ref, course.LecturerID == actor.ID); verr != nil {
		return nil, verr
	}
	return ts.History, nil
}

// StatusBreakdown counts timesheets per status within the aggregate set.
type StatusBreakdown map[core.Status]int

// WorkloadTrend is the TUTOR workload metric (spec §4.8): current week vs
// previous week, plus the average over the whole aggregated set.
type WorkloadTrend struct {
	CurrentWeekHours   core.Hours
	PreviousWeekHours  core.Hours
	CurrentWeekPay     core.Money
	PreviousWeekPay    core.Money
	AverageWeeklyHours core.Hours
}

// BudgetUsage is the course budget ledger view (spec §4.8): allocated,
// used, remaining, and utilization as a percentage.
type BudgetUsage struct {
	Allocated      core.Money
	Used           core.Money
	Remaining      core.Money
	UtilizationPct float64
}

// TutorCounts is the ADMIN-only system headcount metric.
type TutorCounts struct {
	Total  int
	Active int
}

// DashboardSummary is the per-role aggregate spec §4.8 describes. Budget
// is nil for TUTOR actors; TutorCounts is populated only for ADMIN.
type DashboardSummary struct {
	TotalTimesheets      int
	PendingConfirmations int
	TotalHours           core.Hours
	TotalPay             core.Money
	ThisWeekHours        core.Hours
	ThisWeekPay          core.Money
	StatusBreakdown      StatusBreakdown
	Workload             WorkloadTrend
	Budget               *BudgetUsage
	TutorCounts          *TutorCounts
}

// DashboardSummary computes the role-scoped dashboard (spec §4.8).
// courseID, when non-nil, narrows a LECTURER/ADMIN view to a single
// course; a TUTOR passing a non-nil courseID is rejected with
// AUTHORIZATION_FAILED, and a LECTURER passing a course they don't own
// is rejected the same way.
func (s *Service) DashboardSummary(ctx context.Context, actor permission.Actor, courseID *core.CourseID) (*DashboardSummary, *core.Error) {
	var scopedCourse *store.Course
	if courseID != nil {
		if actor.Role == core.RoleTutor {
			return nil, core.ErrAuthorizationFailed
		}
		course, cerr := s.Courses.GetCourse(ctx, *courseID)
		if cerr != nil {
			return nil, core.AsError(cerr)
		}
		isLecturer := actor.Role == core.RoleLecturer && course.LecturerID == actor.ID
		if perr := permission.CanFilterDashboardByCourse(actor, isLecturer); perr != nil {
			return nil, perr
		}
		scopedCourse = course
	}

	items, err := s.collectForDashboard(ctx, actor, scopedCourse)
	if err != nil {
		return nil, err
	}

	now := s.Clock.Now()
	currentWeek := core.CurrentWeek(now)
	previousWeek := currentWeek.AddWeeks(-1)

	summary := &DashboardSummary{StatusBreakdown: StatusBreakdown{}}
	summary.TotalTimesheets = len(items)

	distinctWeeks := map[core.Week]bool{}
	var previousHours core.Hours
	var previousPay core.Money
	for _, ts := range items {
		summary.StatusBreakdown[ts.Status]++
		hours := ts.DeliveryHours.Add(ts.AssociatedHours)
		summary.TotalHours = summary.TotalHours.Add(hours)
		summary.TotalPay = summary.TotalPay.Add(ts.Amount())
		distinctWeeks[ts.WeekStart] = true

		if ts.WeekStart.Equal(currentWeek) {
			summary.ThisWeekHours = summary.ThisWeekHours.Add(hours)
			summary.ThisWeekPay = summary.ThisWeekPay.Add(ts.Amount())
			summary.Workload.CurrentWeekHours = summary.Workload.CurrentWeekHours.Add(hours)
			summary.Workload.CurrentWeekPay = summary.Workload.CurrentWeekPay.Add(ts.Amount())
		}
		if ts.WeekStart.Equal(previousWeek) {
			previousHours = previousHours.Add(hours)
			previousPay = previousPay.Add(ts.Amount())
		}
	}
	summary.Workload.PreviousWeekHours = previousHours
	summary.Workload.PreviousWeekPay = previousPay
	if len(distinctWeeks) > 0 {
		summary.Workload.AverageWeeklyHours = core.HoursFromDecimal(summary.TotalHours.Decimal.Div(decimal.NewFromInt(int64(len(distinctWeeks)))))
	}

	summary.PendingConfirmations = countPending(items, actor.Role)

	if actor.Role != core.RoleTutor {
		budget, berr := s.budgetUsage(ctx, actor, scopedCourse)
		if berr != nil {
			return nil, berr
		}
		summary.Budget = budget
	}

	if actor.Role == core.RoleAdmin {
		counts, terr := s.tutorCounts(ctx, items)
		if terr != nil {
			return nil, terr
		}
		summary.TutorCounts = counts
	}

	return summary, nil
}

func countPending(items []*timesheet.Timesheet, role core.Role) int {
	var want core.Status
	switch role {
	case core.RoleTutor:
		want = core.StatusPendingTutorConfirm
	case core.RoleLecturer:
		want = core.StatusTutorConfirmed
	case core.RoleAdmin:
		want = core.StatusLecturerConfirmed
	default:
		return 0
	}
	n := 0
	for _, ts := range items {
		if ts.Status == want {
			n++
		}
	}
	return n
}

// collectForDashboard gathers the set of timesheets a role's dashboard
// aggregates over: TUTOR sees their own; LECTURER sees the given course
// (if scoped) or every course they own; ADMIN sees everything, or one
// course if scoped.
func (s *Service) collectForDashboard(ctx context.Context, actor permission.Actor, scopedCourse *store.Course) ([]*timesheet.Timesheet, *core.Error) {
	switch actor.Role {
	case core.RoleTutor:
		self := actor.ID
		items, err := s.Timesheets.List(ctx, store.TimesheetFilter{TutorID: &self})
		if err != nil {
			return nil, core.AsError(err)
		}
		return items, nil
	case core.RoleLecturer:
		if scopedCourse != nil {
			id := scopedCourse.ID
			items, err := s.Timesheets.List(ctx, store.TimesheetFilter{CourseID: &id})
			if err != nil {
				return nil, core.AsError(err)
			}
			return items, nil
		}
		items, err := s.Timesheets.List(ctx, store.TimesheetFilter{})
		if err != nil {
			return nil, core.AsError(err)
		}
		return filterByOwnedCourses(ctx, s.Courses, actor.ID, items), nil
	case core.RoleAdmin:
		if scopedCourse != nil {
			id := scopedCourse.ID
			items, err := s.Timesheets.List(ctx, store.TimesheetFilter{CourseID: &id})
			if err != nil {
				return nil, core.AsError(err)
			}
			return items, nil
		}
		items, err := s.Timesheets.List(ctx, store.TimesheetFilter{})
		if err != nil {
			return nil, core.AsError(err)
		}
		return items, nil
	default:
		return nil, core.ErrAuthorizationFailed
	}
}

// budgetUsage computes the BudgetUsage triple for either a single scoped
// course or an aggregate across every course the actor's role covers.
func (s *Service) budgetUsage(ctx context.Context, actor permission.Actor, scopedCourse *store.Course) (*BudgetUsage, *core.Error) {
	var courses []*store.Course
	if scopedCourse != nil {
		courses = []*store.Course{scopedCourse}
	} else {
		all, err := s.Courses.ListCourses(ctx)
		if err != nil {
			return nil, core.AsError(err)
		}
		if actor.Role == core.RoleLecturer {
			for _, c := range all {
				if c.LecturerID == actor.ID {
					courses = append(courses, c)
				}
			}
		} else {
			courses = all
		}
	}

	allocated := core.ZeroMoney()
	used := core.ZeroMoney()
	for _, c := range courses {
		allocated = allocated.Add(c.BudgetCap)
		u, err := s.Timesheets.SumBudgetUsed(ctx, c.ID, lifecycle.BudgetExcludedStatuses)
		if err != nil {
			return nil, core.AsError(err)
		}
		used = used.Add(u)
	}

	remaining := allocated.Sub(used)
	var pct float64
	if allocated.IsPositive() {
		pct, _ = used.Decimal.Div(allocated.Decimal).Mul(decimal.NewFromInt(100)).Round(2).Float64()
	}
	return &BudgetUsage{Allocated: allocated, Used: used, Remaining: remaining, UtilizationPct: pct}, nil
}

// tutorCounts reports total distinct users with the TUTOR role, and how
// many of them appear as the tutor on at least one of the aggregated
// timesheets ("active" for this dashboard window).
func (s *Service) tutorCounts(ctx context.Context, items []*timesheet.Timesheet) (*TutorCounts, *core.Error) {
	users, err := s.Users.ListUsers(ctx)
	if err != nil {
		return nil, core.AsError(err)
	}
	active := map[core.UserID]bool{}
	for _, ts := range items {
		active[ts.TutorID] = true
	}

	counts := &TutorCounts{}
	for _, u := range users {
		if u.Role != core.RoleTutor {
			continue
		}
		counts.Total++
		if active[u.ID] {
			counts.Active++
		}
	}
	return counts, nil
}

func filterByWeekRange(items []*timesheet.Timesheet, from, to *core.Week) []*timesheet.Timesheet {
	if from == nil && to == nil {
		return items
	}
	out := items[:0:0]
	for _, ts := range items {
		if from != nil && ts.WeekStart.Before(*from) {
			continue
		}
		if to != nil && ts.WeekStart.After(*to) {
			continue
		}
		out = append(out, ts)
	}
	return out
}

// filterByLecturerOwnership drops items belonging to courses the actor
// does not own, when the actor is a LECTURER browsing without a
// CourseID filter (scopedFilter already enforces ownership when a
// CourseID is given, so this is a no-op in that case since every
// returned item already belongs to the one authorized course).
func filterByLecturerOwnership(ctx context.Context, courses store.CourseRepository, actor permission.Actor, items []*timesheet.Timesheet) []*timesheet.Timesheet {
	if actor.Role != core.RoleLecturer {
		return items
	}
	return filterByOwnedCourses(ctx, courses, actor.ID, items)
}

func filterByOwnedCourses(ctx context.Context, courses store.CourseRepository, lecturerID core.UserID, items []*timesheet.Timesheet) []*timesheet.Timesheet {
	cache := map[core.CourseID]bool{}
	out := items[:0:0]
	for _, ts := range items {
		isOwned, ok := cache[ts.CourseID]
		if !ok {
			course, err := courses.GetCourse(ctx, ts.CourseID)
			isOwned = err == nil && course.LecturerID == lecturerID
			cache[ts.CourseID] = isOwned
		}
		if isOwned {
			out = append(out, ts)
		}
	}
	return out
}

func sortByCreatedDesc(items []*timesheet.Timesheet) {
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return items[i].ID > items[j].ID
	})
}

func paginate(items []*timesheet.Timesheet, page Page) []*timesheet.Timesheet {
	if page.Offset >= len(items) {
		return []*timesheet.Timesheet{}
	}
	items = items[page.Offset:]
	if page.Limit > 0 && page.Limit < len(items) {
		items = items[:page.Limit]
	}
	return items
}
