package board

import (
	"sort"

	"github.com/ankittk/osboard/pkg/models"
)

// activeStructure keeps the org rows that are active and executing.
func activeStructure(rows []models.Structure) []models.Structure {
	var out []models.Structure
	for _, r := range rows {
		if r.Status == models.FlagActive && r.Execution == models.FlagExecution {
			out = append(out, r)
		}
	}
	return out
}

func teamLabel(structure []models.Structure, teamID string) string {
	for _, r := range structure {
		if r.ID == teamID {
			return r.Team
		}
	}
	return ""
}

func uniq(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}

// BuildOptions derives the option lists for the selection in f from the active org
// structure and the sub-team configs of the selected coordination.
func BuildOptions(structure []models.Structure, subTeams []models.SubTeamConfig, f models.Filters) models.FilterOptions {
	var opts models.FilterOptions
	coords := make([]string, 0, len(structure))
	for _, r := range structure {
		coords = append(coords, r.Coordination)
	}
	opts.Coordinations = uniq(coords)
	if f.Coordination == "" {
		return opts
	}

	var teamIDs []string
	for _, c := range subTeams {
		if c.Coordination == f.Coordination && c.Status == models.FlagActive {
			teamIDs = append(teamIDs, c.TeamID)
		}
	}
	for _, id := range uniq(teamIDs) {
		label := teamLabel(structure, id)
		if label == "" {
			label = id
		}
		opts.Teams = append(opts.Teams, models.TeamOption{ID: id, Label: label})
	}
	sort.SliceStable(opts.Teams, func(i, j int) bool { return opts.Teams[i].Label < opts.Teams[j].Label })
	if f.TeamID == "" {
		return opts
	}

	var escalas, subs []string
	for _, c := range subTeams {
		if c.Coordination != f.Coordination || c.TeamID != f.TeamID || c.Status != models.FlagActive {
			continue
		}
		escalas = append(escalas, c.Escala)
		if f.Escala == "" || c.Escala == f.Escala {
			subs = append(subs, c.SubTeam)
		}
	}
	opts.Escalas = uniq(escalas)
	opts.SubTeams = uniq(subs)
	return opts
}

// NormalizeFilters clears selections that are no longer valid and defaults escala and
// sub-team to their first option. It iterates until the selection is stable, since
// each level narrows the options of the next.
func NormalizeFilters(structure []models.Structure, subTeams []models.SubTeamConfig, f models.Filters) (models.Filters, models.FilterOptions) {
	for i := 0; i < 4; i++ {
		opts := BuildOptions(structure, subTeams, f)
		next := f

		if next.Coordination != "" && !contains(opts.Coordinations, next.Coordination) {
			next.Coordination = ""
		}
		if next.TeamID != "" && !hasTeam(opts.Teams, next.TeamID) {
			next.TeamID = ""
		}
		if next.Coordination == "" {
			next.Escala = ""
		} else {
			switch {
			case len(opts.Escalas) == 0:
				next.Escala = ""
			case !contains(opts.Escalas, next.Escala):
				next.Escala = opts.Escalas[0]
			}
		}
		switch {
		case next.Coordination == "" || next.TeamID == "" || len(opts.SubTeams) == 0:
			next.SubTeam = ""
		case !contains(opts.SubTeams, next.SubTeam):
			next.SubTeam = opts.SubTeams[0]
		}

		if next == f {
			return f, opts
		}
		f = next
	}
	return f, BuildOptions(structure, subTeams, f)
}

func hasTeam(teams []models.TeamOption, id string) bool {
	for _, t := range teams {
		if t.ID == id {
			return true
		}
	}
	return false
}
