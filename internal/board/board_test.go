package board

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ankittk/osboard/internal/store"
	"github.com/ankittk/osboard/internal/workorder"
	"github.com/ankittk/osboard/pkg/client"
	"github.com/ankittk/osboard/pkg/models"
)

func strp(s string) *string { return &s }

type fakeRemote struct {
	mu          sync.Mutex
	structure   []models.Structure
	subTeams    []models.SubTeamConfig
	assignments []models.Assignment
	holidays    []models.Holiday
	orders      []models.WorkOrder
	saved       *models.SchedulerConfig
	saves       int

	assignErr    error
	patchErr     error
	structureErr error
	subTeamsErr  error
	holidaysErr  error
	block        chan struct{} // when set, AssignOrder waits on it

	// ordersOnce, when set, answers the next WorkOrders call only.
	ordersOnce func(ctx context.Context) ([]models.WorkOrder, error)

	calls   []string
	patches []models.OrderPatch
	queries []models.OrderQuery
}

func (f *fakeRemote) call(name string) {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	f.mu.Unlock()
}

func (f *fakeRemote) callCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == name {
			n++
		}
	}
	return n
}

func (f *fakeRemote) Structure(context.Context) ([]models.Structure, error) {
	f.call("structure")
	if f.structureErr != nil {
		return nil, f.structureErr
	}
	return f.structure, nil
}

func (f *fakeRemote) SubTeamConfigs(_ context.Context, coordination string) ([]models.SubTeamConfig, error) {
	f.call("subteams")
	if f.subTeamsErr != nil {
		return nil, f.subTeamsErr
	}
	var out []models.SubTeamConfig
	for _, c := range f.subTeams {
		if c.Coordination == coordination {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeRemote) Assignments(context.Context, string, string) ([]models.Assignment, error) {
	f.call("assignments")
	return f.assignments, nil
}

func (f *fakeRemote) Holidays(context.Context, string) ([]models.Holiday, error) {
	f.call("holidays")
	if f.holidaysErr != nil {
		return nil, f.holidaysErr
	}
	return f.holidays, nil
}

func (f *fakeRemote) WorkOrders(ctx context.Context, q models.OrderQuery) ([]models.WorkOrder, error) {
	f.call("orders")
	f.mu.Lock()
	f.queries = append(f.queries, q)
	once := f.ordersOnce
	f.ordersOnce = nil
	f.mu.Unlock()
	if once != nil {
		return once(ctx)
	}
	return f.orders, nil
}

func (f *fakeRemote) AssignOrder(ctx context.Context, _ models.Assignment) error {
	f.call("assign")
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return f.assignErr
}

func (f *fakeRemote) ClearAssignment(context.Context, string) error {
	f.call("unassign")
	return nil
}

func (f *fakeRemote) PatchOrder(_ context.Context, p models.OrderPatch) error {
	f.call("patch")
	f.mu.Lock()
	f.patches = append(f.patches, p)
	f.mu.Unlock()
	return f.patchErr
}

func (f *fakeRemote) SchedulerConfig(context.Context, models.ConfigKey) (*models.SchedulerConfig, error) {
	f.call("config")
	return f.saved, nil
}

func (f *fakeRemote) SaveSchedulerConfig(_ context.Context, _ models.ConfigKey, cfg models.SchedulerConfig) error {
	f.call("save")
	f.mu.Lock()
	f.saves++
	f.saved = &cfg
	f.mu.Unlock()
	return nil
}

func (f *fakeRemote) networkCalls() int {
	return f.callCount("assign") + f.callCount("patch") + f.callCount("unassign")
}

type memPrefs struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (p *memPrefs) SaveFilters(_ context.Context, key string, value []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.data == nil {
		p.data = map[string][]byte{}
	}
	p.data[key] = value
	return nil
}

func (p *memPrefs) LoadFilters(_ context.Context, key string) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, ok := p.data[key]
	if !ok {
		return nil, store.ErrNotFound
	}
	return v, nil
}

type memJournal struct {
	mu   sync.Mutex
	acts []models.Activity
}

func (j *memJournal) RecordActivity(_ context.Context, a models.Activity) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.acts = append(j.acts, a)
	return nil
}

func (j *memJournal) last() models.Activity {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.acts[len(j.acts)-1]
}

// Today is Wednesday 2025-03-12. The March grid runs from 2025-02-24 to 2025-03-30:
// week 3 is 03-10..03-16 and week 4 is 03-17..03-23.
var fixedNow = time.Date(2025, 3, 12, 9, 0, 0, 0, time.Local)

func newFixture(t *testing.T) (*Board, *fakeRemote, *memJournal) {
	t.Helper()
	remote := &fakeRemote{
		structure: []models.Structure{
			{ID: "E1", Coordination: "C1", Team: "Linha Viva", Status: "ativo", Execution: "sim"},
			{ID: "E2", Coordination: "C1", Team: "Subestacoes", Status: "ativo", Execution: "nao"},
			{ID: "E9", Coordination: "C9", Team: "Inativa", Status: "inativo", Execution: "sim"},
		},
		subTeams: []models.SubTeamConfig{
			{Coordination: "C1", TeamID: "E1", SubTeam: "S1", Escala: "A", Status: "ativo"},
			{Coordination: "C1", TeamID: "E1", SubTeam: "S2", Escala: "A", Status: "ativo"},
			{Coordination: "C1", TeamID: "E1", SubTeam: "S3", Escala: "B", Status: "ativo"},
		},
		holidays: []models.Holiday{{ID: "h1", TeamID: "E1", Label: "Feriado local", Date: "2025-03-18T00:00:00Z"}},
		orders: []models.WorkOrder{
			{ID: "a", Number: 1, Type: "PREVENTIVA", Status: "CRIADO", Team: "Linha Viva", AssetCode: "TR-01"},
			{ID: "b", Number: 2, Type: "CORRETIVA", Status: "PROGRAMADO", Programado3: strp("2025-03-14"), Team: "Linha Viva"},
			{ID: "c", Number: 3, Type: "PREVENTIVA", Status: "PROGRAMADO", Programado1: strp("2025-03-01"), Team: "Linha Viva"},
			{ID: "d", Number: 4, Type: "PREVENTIVA", Status: "REALIZADO", Programado2: strp("2025-03-05"), Team: "Linha Viva"},
			{ID: "x", Number: 5, Type: "PREVENTIVA", Status: "CRIADO", Team: "Outra"},
		},
	}
	journal := &memJournal{}
	b := New(Options{
		Remote:     remote,
		Prefs:      &memPrefs{},
		Journal:    journal,
		FlushDelay: time.Hour,
		Now:        func() time.Time { return fixedNow },
	})
	require.NoError(t, b.SetFilters(context.Background(), models.Filters{Month: "2025-03", Coordination: "C1", TeamID: "E1"}))
	return b, remote, journal
}

func backlogIDs(v models.BoardView) []string {
	var ids []string
	for _, o := range v.Backlog {
		ids = append(ids, o.ID)
	}
	return ids
}

func entriesOn(v models.BoardView, date string) []models.BoardEntry {
	for _, d := range v.Days {
		if d.Date == date {
			return d.Entries
		}
	}
	return nil
}

func TestLoad_normalizesAndDerives(t *testing.T) {
	b, remote, _ := newFixture(t)
	v := b.View()

	assert.True(t, v.Loaded)
	assert.Equal(t, "A", v.Filters.Escala, "escala defaults to the first option")
	assert.Equal(t, "S1", v.Filters.SubTeam, "sub-team defaults to the first option")
	assert.Equal(t, []string{"C1"}, v.Options.Coordinations)
	assert.Equal(t, []models.TeamOption{{ID: "E1", Label: "Linha Viva"}}, v.Options.Teams)
	assert.Equal(t, []string{"S1", "S2"}, v.Options.SubTeams)
	assert.Equal(t, "Linha Viva", v.TeamLabel)
	assert.Len(t, v.Days, 35)

	assert.Equal(t, []string{"a", "c"}, backlogIDs(v))
	assert.Equal(t, []string{"PREVENTIVA"}, v.BacklogTypes)

	require.Len(t, entriesOn(v, "2025-03-14"), 1)
	overdue := entriesOn(v, "2025-03-01")
	require.Len(t, overdue, 1)
	assert.True(t, overdue[0].OverdueWeek1)
	assert.True(t, overdue[0].ReadOnly)
	realized := entriesOn(v, "2025-03-05")
	require.Len(t, realized, 1)
	assert.Equal(t, "green", realized[0].Color)

	for _, d := range v.Days {
		if d.Date == "2025-03-18" {
			assert.Equal(t, []string{"Feriado local"}, d.Holidays)
		}
	}

	remote.mu.Lock()
	q := remote.queries[len(remote.queries)-1]
	remote.mu.Unlock()
	assert.Equal(t, models.OrderQuery{Statuses: []string{"CRIADO", "PROGRAMADO", "REALIZADO"}, Year: "2025", Month: "03", Team: "Linha Viva"}, q)

	_, ok := b.Order("x")
	assert.False(t, ok, "rows of other teams are dropped")
}

func TestBacklogFilters(t *testing.T) {
	b, _, _ := newFixture(t)
	f := b.Filters()
	f.BacklogSearch = "tr-01"
	require.NoError(t, b.SetFilters(context.Background(), f))
	assert.Equal(t, []string{"a"}, backlogIDs(b.View()))

	f.BacklogSearch = ""
	f.BacklogType = "CORRETIVA"
	require.NoError(t, b.SetFilters(context.Background(), f))
	assert.Empty(t, b.View().Backlog)
}

func TestDropToDay_fromBacklog(t *testing.T) {
	b, remote, journal := newFixture(t)
	err := b.DropToDay(context.Background(), models.DropRequest{OrderID: "a", Source: "backlog", ToDate: "2025-03-19"})
	require.NoError(t, err)

	assert.Equal(t, 1, remote.callCount("assign"))
	require.Len(t, remote.patches, 1)
	p := remote.patches[0]
	assert.Equal(t, "PROGRAMADO", p.Status)
	require.Len(t, p.Slots, 5)
	assert.Equal(t, "2025-03-19", *p.Slots[4])
	for _, n := range []int{1, 2, 3, 5} {
		assert.Nil(t, p.Slots[n])
	}

	o, _ := b.Order("a")
	assert.Equal(t, "PROGRAMADO", o.Status)
	assert.Equal(t, [5]string{"", "", "", "2025-03-19", ""}, o.Slots)
	assert.Equal(t, "S1", o.AssignedTo)
	assert.NotContains(t, backlogIDs(b.View()), "a")
	assert.Equal(t, models.OutcomeOK, journal.last().Outcome)
}

func TestDropToDay_pastAndHolidayMakeNoCalls(t *testing.T) {
	b, remote, journal := newFixture(t)
	before := b.View()

	for _, date := range []string{"2025-03-10", "2025-02-25"} {
		err := b.DropToDay(context.Background(), models.DropRequest{OrderID: "a", ToDate: date})
		assert.ErrorIs(t, err, ErrPastDate, date)
	}
	err := b.DropToDay(context.Background(), models.DropRequest{OrderID: "a", ToDate: "2025-03-18"})
	assert.ErrorIs(t, err, ErrHoliday)
	err = b.DropToDay(context.Background(), models.DropRequest{OrderID: "a", ToDate: "2025-04-15"})
	assert.ErrorIs(t, err, ErrOutsideGrid)

	assert.Equal(t, 0, remote.networkCalls())
	assert.Equal(t, before.Backlog, b.View().Backlog)
	assert.Equal(t, models.OutcomeRejected, journal.last().Outcome)
}

func TestDropToDay_conflictLeavesStateUntouched(t *testing.T) {
	b, remote, _ := newFixture(t)
	remote.assignErr = &client.APIError{Status: http.StatusConflict, Message: "OS ja alocada em outra equipe."}

	err := b.DropToDay(context.Background(), models.DropRequest{OrderID: "a", ToDate: "2025-03-19"})
	require.Error(t, err)
	assert.ErrorIs(t, err, client.ErrConflict)
	assert.Equal(t, 0, remote.callCount("patch"), "patch never follows a conflict")

	o, _ := b.Order("a")
	assert.Equal(t, "CRIADO", o.Status)
	assert.Empty(t, o.AssignedTo)
}

func TestDropToDay_patchFailureLeavesStateUntouched(t *testing.T) {
	b, remote, _ := newFixture(t)
	remote.patchErr = errors.New("Erro ao atualizar OS.")
	err := b.DropToDay(context.Background(), models.DropRequest{OrderID: "a", ToDate: "2025-03-19"})
	require.Error(t, err)
	o, _ := b.Order("a")
	assert.Equal(t, "CRIADO", o.Status)
}

func TestDropToDay_realizedAndUnknown(t *testing.T) {
	b, remote, _ := newFixture(t)
	err := b.DropToDay(context.Background(), models.DropRequest{OrderID: "d", Source: "calendar", FromDate: "2025-03-05", ToDate: "2025-03-20"})
	assert.ErrorIs(t, err, ErrRealized)
	err = b.DropToDay(context.Background(), models.DropRequest{OrderID: "zzz", ToDate: "2025-03-20"})
	assert.ErrorIs(t, err, ErrUnknownOrder)
	err = b.DropToDay(context.Background(), models.DropRequest{OrderID: "a", Source: "nowhere", ToDate: "2025-03-20"})
	assert.ErrorIs(t, err, ErrBadSource)
	assert.Equal(t, 0, remote.networkCalls())
}

func TestDropToDay_overdueWeek1(t *testing.T) {
	b, remote, _ := newFixture(t)

	err := b.DropToDay(context.Background(), models.DropRequest{OrderID: "c", Source: "calendar", FromDate: "2025-03-01", ToDate: "2025-03-20"})
	assert.ErrorIs(t, err, ErrFrozenWeek1)
	err = b.DropToDay(context.Background(), models.DropRequest{OrderID: "c", Source: "calendar", ToDate: "2025-03-20"})
	assert.ErrorIs(t, err, ErrFrozenWeek1)
	assert.Equal(t, 0, remote.networkCalls())

	// From the backlog, an overdue order keeps slot 1 and only rewrites slots 2-5.
	require.NoError(t, b.DropToDay(context.Background(), models.DropRequest{OrderID: "c", Source: "backlog", ToDate: "2025-03-20"}))
	p := remote.patches[len(remote.patches)-1]
	_, touched := p.Slots[1]
	assert.False(t, touched)
	assert.Equal(t, "2025-03-20", *p.Slots[4])

	o, _ := b.Order("c")
	assert.Equal(t, [5]string{"2025-03-01", "", "", "2025-03-20", ""}, o.Slots)
	assert.NotContains(t, backlogIDs(b.View()), "c", "rescheduled overdue orders leave the backlog")
}

func TestDropToDay_overdueOntoWeek1(t *testing.T) {
	b, remote, _ := newFixture(t)
	f := b.Filters()
	f.Month = "2025-04" // grid week 1 is 2025-03-31..2025-04-06
	require.NoError(t, b.SetFilters(context.Background(), f))

	err := b.DropToDay(context.Background(), models.DropRequest{OrderID: "c", Source: "backlog", ToDate: "2025-04-01"})
	assert.ErrorIs(t, err, ErrWeek1Target)
	assert.Equal(t, 0, remote.networkCalls())
}

func TestDropToDay_requiresSelection(t *testing.T) {
	b, remote, _ := newFixture(t)
	b.mu.Lock()
	b.filters.SubTeam = ""
	b.mu.Unlock()
	err := b.DropToDay(context.Background(), models.DropRequest{OrderID: "a", ToDate: "2025-03-19"})
	assert.ErrorIs(t, err, ErrSelection)
	assert.Equal(t, 0, remote.networkCalls())
}

func TestDropToDay_busy(t *testing.T) {
	b, remote, _ := newFixture(t)
	remote.block = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		done <- b.DropToDay(context.Background(), models.DropRequest{OrderID: "a", ToDate: "2025-03-19"})
	}()
	require.Eventually(t, func() bool { return remote.callCount("assign") == 1 }, time.Second, 5*time.Millisecond)

	err := b.DropToDay(context.Background(), models.DropRequest{OrderID: "a", ToDate: "2025-03-20"})
	assert.ErrorIs(t, err, ErrBusy)

	close(remote.block)
	require.NoError(t, <-done)
	o, _ := b.Order("a")
	assert.Equal(t, "2025-03-19", o.Slots[3])
}

func TestReset(t *testing.T) {
	b, remote, _ := newFixture(t)

	require.NoError(t, b.Reset(context.Background(), models.CellRequest{OrderID: "b", Date: "2025-03-14"}))
	p := remote.patches[len(remote.patches)-1]
	assert.Equal(t, "CRIADO", p.Status)
	assert.Len(t, p.Slots, 5)
	assert.Equal(t, 1, remote.callCount("unassign"), "a non-overdue reset drops the assignment")
	o, _ := b.Order("b")
	assert.Equal(t, "CRIADO", o.Status)
	assert.Equal(t, [5]string{}, o.Slots)

	err := b.Reset(context.Background(), models.CellRequest{OrderID: "c", Date: "2025-03-01"})
	assert.ErrorIs(t, err, ErrFrozenWeek1)
	err = b.Reset(context.Background(), models.CellRequest{OrderID: "d", Date: "2025-03-05"})
	assert.ErrorIs(t, err, ErrRealized)
	err = b.Reset(context.Background(), models.CellRequest{OrderID: "a", Date: "2025-03-05"})
	assert.ErrorIs(t, err, ErrNotScheduled)
}

func TestDropToBacklog_overdueKeepsStatusAndSlot1(t *testing.T) {
	b, remote, _ := newFixture(t)
	require.NoError(t, b.DropToDay(context.Background(), models.DropRequest{OrderID: "c", Source: "backlog", ToDate: "2025-03-20"}))

	require.NoError(t, b.Drop(context.Background(), models.DropRequest{OrderID: "c", Source: "calendar", FromDate: "2025-03-20"}))
	p := remote.patches[len(remote.patches)-1]
	assert.Empty(t, p.Status)
	_, touched := p.Slots[1]
	assert.False(t, touched)
	assert.Equal(t, 0, remote.callCount("unassign"), "overdue orders keep their assignment")

	o, _ := b.Order("c")
	assert.Equal(t, "PROGRAMADO", o.Status)
	assert.Equal(t, [5]string{"2025-03-01", "", "", "", ""}, o.Slots)
	assert.Contains(t, backlogIDs(b.View()), "c")
}

func TestDropToBacklog_realized(t *testing.T) {
	b, remote, _ := newFixture(t)
	err := b.Drop(context.Background(), models.DropRequest{OrderID: "d", Source: "calendar", FromDate: "2025-03-05"})
	assert.ErrorIs(t, err, ErrRealized)
	assert.Equal(t, "OS realizada nao pode voltar para o backlog.", err.Error())
	assert.True(t, IsRejection(err))
	assert.Equal(t, 0, remote.networkCalls())
}

func TestAnnotations_lockBlocksResetAndColor(t *testing.T) {
	b, remote, _ := newFixture(t)
	ctx := context.Background()
	cell := models.CellRequest{OrderID: "b", Date: "2025-03-14"}

	locked, err := b.ToggleLock(ctx, cell)
	require.NoError(t, err)
	assert.True(t, locked)

	assert.ErrorIs(t, b.Reset(ctx, cell), ErrLocked)
	assert.ErrorIs(t, b.SetColor(ctx, models.ColorRequest{OrderID: "b", Date: "2025-03-14", Color: "#FF0000"}), ErrLocked)
	err = b.Drop(ctx, models.DropRequest{OrderID: "b", Source: "calendar", FromDate: "2025-03-14", ToDate: "2025-03-20"})
	assert.ErrorIs(t, err, ErrLocked)
	require.NoError(t, b.SetNote(ctx, models.NoteRequest{OrderID: "b", Date: "2025-03-14", Text: "  trocar isolador "}))
	assert.Equal(t, 0, remote.networkCalls())

	locked, err = b.ToggleLock(ctx, cell)
	require.NoError(t, err)
	assert.False(t, locked)
	require.NoError(t, b.SetColor(ctx, models.ColorRequest{OrderID: "b", Date: "2025-03-14", Color: "#FF0000"}))

	entry := entriesOn(b.View(), "2025-03-14")[0]
	assert.Equal(t, "trocar isolador", entry.Note)
	assert.Equal(t, "#ff0000", entry.Accent)
	assert.False(t, entry.Locked)

	assert.ErrorIs(t, b.SetColor(ctx, models.ColorRequest{OrderID: "b", Date: "2025-03-14", Color: "red"}), ErrBadColor)
}

func TestAnnotations_readOnlyEntries(t *testing.T) {
	b, _, _ := newFixture(t)
	ctx := context.Background()
	_, err := b.ToggleLock(ctx, models.CellRequest{OrderID: "d", Date: "2025-03-05"})
	assert.ErrorIs(t, err, ErrReadOnly)
	err = b.SetNote(ctx, models.NoteRequest{OrderID: "c", Date: "2025-03-01", Text: "x"})
	assert.ErrorIs(t, err, ErrReadOnly)
	err = b.SetNote(ctx, models.NoteRequest{OrderID: "b", Date: "2025-03-15", Text: "x"})
	assert.ErrorIs(t, err, ErrUnknownOrder, "no entry on that date")
}

func TestWeekComments(t *testing.T) {
	b, remote, _ := newFixture(t)
	ctx := context.Background()

	targets := b.WeekTargets(3)
	require.Len(t, targets, 1)
	assert.Equal(t, "b::2025-03-14", targets[0].Key)

	assert.ErrorIs(t, b.AddWeekComment(ctx, models.WeekCommentRequest{Week: 3, Text: "x"}), ErrNoTarget)
	assert.ErrorIs(t, b.AddWeekComment(ctx, models.WeekCommentRequest{Week: 3, Target: "a::2025-03-14", Text: "x"}), ErrNoTarget)
	assert.ErrorIs(t, b.AddWeekComment(ctx, models.WeekCommentRequest{Week: 3, Target: "b::2025-03-14", Text: "  "}), ErrEmptyText)
	assert.ErrorIs(t, b.AddWeekComment(ctx, models.WeekCommentRequest{Week: 9, Target: "b::2025-03-14", Text: "x"}), ErrBadWeek)

	require.NoError(t, b.AddWeekComment(ctx, models.WeekCommentRequest{Week: 3, Target: "b::2025-03-14", Text: "material ok"}))
	require.NoError(t, b.AddWeekComment(ctx, models.WeekCommentRequest{Week: 3, Target: "b::2025-03-14", Text: "equipe confirmada"}))

	week, err := b.Week(3)
	require.NoError(t, err)
	require.Len(t, week.Notes, 1)
	assert.Equal(t, "material ok | equipe confirmada", week.Notes[0].Note)
	assert.Equal(t, int64(2), week.Notes[0].Number)

	require.NoError(t, b.FlushConfig(ctx))
	assert.Equal(t, 1, remote.callCount("save"), "edits coalesce into one save")
	assert.Equal(t, "material ok | equipe confirmada", remote.saved.NoteMap["b::2025-03-14"])
}

func TestOtherSubTeamAssignmentHidesEntries(t *testing.T) {
	b, remote, _ := newFixture(t)
	remote.assignments = []models.Assignment{{OrderID: "b", Coordination: "C1", TeamID: "E1", SubTeam: "S2"}}
	remote.orders = append(remote.orders, models.WorkOrder{ID: "e", Number: 6, Status: "CRIADO", Team: "Linha Viva"})
	remote.assignments = append(remote.assignments, models.Assignment{OrderID: "e", SubTeam: "S2"})
	require.NoError(t, b.Load(context.Background()))

	v := b.View()
	assert.Empty(t, entriesOn(v, "2025-03-14"))
	assert.NotContains(t, backlogIDs(v), "e")
}

func TestRestoreAndPersistFilters(t *testing.T) {
	prefs := &memPrefs{}
	raw, _ := json.Marshal(models.Filters{Month: "2025-03", Coordination: "C1", TeamID: "E1", BacklogSearch: "tr"})
	require.NoError(t, prefs.SaveFilters(context.Background(), models.FiltersKey, raw))

	b := New(Options{Remote: &fakeRemote{}, Prefs: prefs, Now: func() time.Time { return fixedNow }})
	require.NoError(t, b.Restore(context.Background()))
	assert.Equal(t, "tr", b.Filters().BacklogSearch)

	// Loading against a remote with no structure clears the invalid selection and persists it.
	require.NoError(t, b.Load(context.Background()))
	assert.Empty(t, b.Filters().Coordination)
	stored, err := prefs.LoadFilters(context.Background(), models.FiltersKey)
	require.NoError(t, err)
	var got models.Filters
	require.NoError(t, json.Unmarshal(stored, &got))
	assert.Empty(t, got.TeamID)
	assert.Equal(t, "tr", got.BacklogSearch)
}

func TestSetFilters_invalidMonth(t *testing.T) {
	b := New(Options{Remote: &fakeRemote{}, Now: func() time.Time { return fixedNow }})
	assert.Error(t, b.SetFilters(context.Background(), models.Filters{Month: "2025-13"}))
}

func TestEntriesOrderedByLoad(t *testing.T) {
	b, _, _ := newFixture(t)
	b.mu.Lock()
	entries := b.entriesLocked()
	b.mu.Unlock()
	var ids []string
	for _, e := range entries {
		ids = append(ids, e.OrderID)
	}
	assert.Equal(t, []string{"b", "c", "d"}, ids)
	assert.Equal(t, workorder.Done, entries[2].Variant)
}

func TestCounts(t *testing.T) {
	b, _, _ := newFixture(t)
	byStatus, backlog := b.Counts()
	assert.EqualValues(t, 2, backlog)
	assert.GreaterOrEqual(t, byStatus["CRIADO"], int64(2))
	assert.GreaterOrEqual(t, byStatus["REALIZADO"], int64(1))
}

func TestLoad_structureFailureKeepsSavedSelection(t *testing.T) {
	b, remote, _ := newFixture(t)
	want := b.Filters()
	require.Equal(t, "S1", want.SubTeam)

	remote.structureErr = errors.New("estrutura indisponivel")
	require.NoError(t, b.Load(context.Background()))

	v := b.View()
	assert.True(t, v.Loaded)
	assert.NotEmpty(t, v.Warnings)
	assert.Equal(t, want, v.Filters)
	assert.Equal(t, "Linha Viva", v.TeamLabel, "last known structure stands in")
	assert.Len(t, entriesOn(v, "2025-03-14"), 1)

	restarted := New(Options{Remote: &fakeRemote{}, Prefs: b.prefs, Now: func() time.Time { return fixedNow }})
	require.NoError(t, restarted.Restore(context.Background()))
	got := restarted.Filters()
	assert.Equal(t, "C1", got.Coordination)
	assert.Equal(t, "E1", got.TeamID)
	assert.Equal(t, "S1", got.SubTeam)
}

func TestLoad_subTeamFailureKeepsSelection(t *testing.T) {
	b, remote, _ := newFixture(t)
	want := b.Filters()

	remote.subTeamsErr = errors.New("sub-equipes indisponiveis")
	require.NoError(t, b.Load(context.Background()))

	v := b.View()
	assert.True(t, v.Loaded)
	assert.NotEmpty(t, v.Warnings)
	assert.Equal(t, want, v.Filters)
}

func TestLoad_holidayFailureDegrades(t *testing.T) {
	b, remote, _ := newFixture(t)
	remote.holidaysErr = errors.New("feriados indisponiveis")
	require.NoError(t, b.Load(context.Background()))

	v := b.View()
	assert.True(t, v.Loaded)
	assert.Empty(t, v.Error)
	assert.NotEmpty(t, v.Warnings)
	for _, d := range v.Days {
		assert.Empty(t, d.Holidays)
	}
	assert.Equal(t, []string{"a", "c"}, backlogIDs(v))
}

func TestLoad_newerLoadDiscardsOlder(t *testing.T) {
	b, remote, _ := newFixture(t)

	started := make(chan struct{})
	olderErr := make(chan error, 1)
	remote.mu.Lock()
	remote.ordersOnce = func(ctx context.Context) ([]models.WorkOrder, error) {
		close(started)
		<-ctx.Done()
		olderErr <- ctx.Err()
		return []models.WorkOrder{{ID: "stale", Number: 99, Status: "CRIADO", Team: "Linha Viva"}}, nil
	}
	remote.mu.Unlock()

	first := make(chan error, 1)
	go func() { first <- b.Load(context.Background()) }()
	<-started

	require.NoError(t, b.Load(context.Background()))
	require.NoError(t, <-first)
	assert.ErrorIs(t, <-olderErr, context.Canceled)

	_, ok := b.Order("stale")
	assert.False(t, ok, "the older result never reaches the board")
	_, ok = b.Order("a")
	assert.True(t, ok)
	assert.True(t, b.View().Loaded)
}

func TestLoad_canceledByCallerKeepsBoard(t *testing.T) {
	b, remote, _ := newFixture(t)

	started := make(chan struct{})
	remote.mu.Lock()
	remote.ordersOnce = func(ctx context.Context) ([]models.WorkOrder, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	}
	remote.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Load(ctx) }()
	<-started
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	v := b.View()
	assert.True(t, v.Loaded)
	assert.Empty(t, v.Error)
	_, ok := b.Order("a")
	assert.True(t, ok)
}

func TestNormalizeFilters_clearsEscalaWithCoordination(t *testing.T) {
	f, _ := NormalizeFilters(nil, nil, models.Filters{Month: "2025-03", Coordination: "C9", TeamID: "E1", Escala: "A", SubTeam: "S1"})
	assert.Equal(t, models.Filters{Month: "2025-03"}, f)
}
