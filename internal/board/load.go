package board

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ankittk/osboard/internal/calendar"
	"github.com/ankittk/osboard/internal/workorder"
	"github.com/ankittk/osboard/pkg/models"
)

// loadStatuses are the work order statuses the board asks for.
var loadStatuses = []string{models.StatusCreated, models.StatusScheduled, models.StatusRealized}

type loadResult struct {
	filters  models.Filters
	degraded bool // reference data missing; filters kept as requested
	ref      refData
	data     boardData
	grid     calendar.Grid
	today    string
	warnings []string
}

// Load re-fetches everything for the current selection. A newer Load cancels an older
// one; the older result is discarded. A load canceled by its caller keeps the current
// board. Failures of the reference lists degrade to a warning: the last known org
// structure stands in and the selection is neither normalized nor persisted. A failed
// work order fetch fails the load.
func (b *Board) Load(ctx context.Context) error {
	start := time.Now()
	b.mu.Lock()
	if b.loadCancel != nil {
		b.loadCancel()
	}
	b.loadGen++
	gen := b.loadGen
	ctx, cancel := context.WithCancel(ctx)
	b.loadCancel = cancel
	f := b.filters
	b.mu.Unlock()
	defer cancel()

	res, err := b.fetch(ctx, f)

	b.mu.Lock()
	if gen != b.loadGen {
		b.mu.Unlock()
		b.logger.Debug("board: discarded stale load", "gen", gen)
		return nil
	}
	b.loadCancel = nil
	if err != nil && (errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled)) {
		// The caller went away; keep the board it already had.
		b.mu.Unlock()
		b.logger.Info("board: load canceled", "gen", gen)
		return err
	}
	if err != nil {
		b.loadErr = err.Error()
		b.loaded = false
		b.data = emptyData()
		b.mu.Unlock()
		b.record(ctx, models.Activity{Action: "load", Outcome: models.OutcomeFailed, Detail: err.Error()}, time.Since(start))
		b.changed("load")
		return err
	}
	// Keep the backlog filters the caller may have changed meanwhile.
	res.filters.BacklogType, res.filters.BacklogSearch = b.filters.BacklogType, b.filters.BacklogSearch
	normalized := !res.degraded && res.filters != b.filters
	b.filters = res.filters
	b.ref = res.ref
	b.data = res.data
	b.grid = res.grid
	b.today = res.today
	b.warnings = res.warnings
	b.loadErr = ""
	b.loaded = true
	filters := b.filters
	b.mu.Unlock()

	if normalized {
		b.saveFilters(ctx, filters)
	}
	if err := b.config.Load(ctx, filters.ConfigKey()); err != nil {
		b.logger.Warn("board: config load failed", "err", err)
		b.mu.Lock()
		if gen == b.loadGen {
			b.warnings = append(b.warnings, err.Error())
		}
		b.mu.Unlock()
		if isAuth(err) {
			return err
		}
	}

	b.logger.Info("board: loaded", "month", filters.Month, "team", filters.TeamID, "sub_team", filters.SubTeam,
		"orders", len(res.data.ids), "duration_ms", time.Since(start).Milliseconds())
	b.record(ctx, models.Activity{Action: "load", Outcome: models.OutcomeOK,
		Detail: fmt.Sprintf("%d OS", len(res.data.ids))}, time.Since(start))
	b.changed("load")
	return nil
}

func (b *Board) fetch(ctx context.Context, f models.Filters) (loadResult, error) {
	res := loadResult{data: emptyData(), today: calendar.DateKey(b.now())}
	if _, err := calendar.ParseMonth(f.Month); err != nil {
		f.Month = calendar.MonthToken(b.now())
	}
	grid, err := calendar.Build(f.Month, res.today)
	if err != nil {
		return res, err
	}
	res.grid = grid

	warn := func(what string, err error) {
		b.logger.Warn("board: reference data unavailable", "what", what, "err", err)
		res.warnings = append(res.warnings, err.Error())
	}

	structureOK := true
	rows, err := b.remote.Structure(ctx)
	if err != nil {
		if isAuth(err) || ctx.Err() != nil {
			return res, err
		}
		warn("estrutura", err)
		structureOK = false
	}
	res.ref.structure = activeStructure(rows)
	if !structureOK {
		res.ref.structure = b.knownStructure()
	}

	if structureOK && f.Coordination != "" && !contains(BuildOptions(res.ref.structure, nil, f).Coordinations, f.Coordination) {
		f.Coordination = ""
	}
	subsOK := true
	if f.Coordination != "" {
		subs, err := b.remote.SubTeamConfigs(ctx, f.Coordination)
		if err != nil {
			if isAuth(err) || ctx.Err() != nil {
				return res, err
			}
			warn("sub-equipes", err)
			subsOK = false
		}
		res.ref.subTeams = subs
	}
	if structureOK && subsOK {
		f, res.ref.options = NormalizeFilters(res.ref.structure, res.ref.subTeams, f)
	} else {
		// Only normalize against reference data that actually loaded.
		res.degraded = true
		res.ref.options = BuildOptions(res.ref.structure, res.ref.subTeams, f)
	}
	res.filters = f
	res.ref.teamLabel = teamLabel(res.ref.structure, f.TeamID)

	// Without a team label the order query would span every team.
	if f.TeamID == "" || (!structureOK && res.ref.teamLabel == "") {
		return res, nil
	}

	if f.Coordination != "" {
		list, err := b.remote.Assignments(ctx, f.Coordination, f.TeamID)
		if err != nil {
			if isAuth(err) || ctx.Err() != nil {
				return res, err
			}
			warn("alocacoes", err)
		}
		for _, a := range list {
			res.data.assignments[a.OrderID] = a
		}
	}

	holidays, err := b.remote.Holidays(ctx, f.TeamID)
	if err != nil {
		if isAuth(err) || ctx.Err() != nil {
			return res, err
		}
		warn("feriados", err)
	}
	for _, h := range holidays {
		if key := calendar.NormalizeDate(h.Date); key != "" {
			res.data.holidays[key] = append(res.data.holidays[key], h)
		}
	}

	year, month, _ := strings.Cut(f.Month, "-")
	rowsOS, err := b.remote.WorkOrders(ctx, models.OrderQuery{
		Statuses: loadStatuses,
		Year:     year,
		Month:    month,
		Team:     res.ref.teamLabel,
	})
	if err != nil {
		return res, err
	}
	for _, w := range rowsOS {
		if res.ref.teamLabel != "" && w.Team != res.ref.teamLabel {
			continue
		}
		o, err := workorder.Normalize(w)
		if err != nil {
			b.logger.Warn("board: skipping work order", "err", err)
			continue
		}
		if _, dup := res.data.orders[o.ID]; dup {
			continue
		}
		res.data.ids = append(res.data.ids, o.ID)
		res.data.orders[o.ID] = o
	}
	return res, nil
}

// knownStructure returns the org structure of the last successful load.
func (b *Board) knownStructure() []models.Structure {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ref.structure
}
