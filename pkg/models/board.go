package models

import "time"

// Filters is the persisted board selection. JSON names match the stored filter blob.
type Filters struct {
	Month         string `json:"monthValue"`
	Coordination  string `json:"selectedCoordenacao"`
	TeamID        string `json:"selectedEquipeId"`
	Escala        string `json:"selectedEscala"`
	SubTeam       string `json:"selectedSubEquipe"`
	BacklogType   string `json:"backlogType"`
	BacklogSearch string `json:"backlogSearch"`
}

// ConfigKey returns the config tuple selected by f.
func (f Filters) ConfigKey() ConfigKey {
	return ConfigKey{Month: f.Month, Coordination: f.Coordination, TeamID: f.TeamID, SubTeam: f.SubTeam}
}

// TeamOption is a selectable team.
type TeamOption struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// FilterOptions lists the valid choices for each filter level.
type FilterOptions struct {
	Coordinations []string     `json:"coordinations"`
	Teams         []TeamOption `json:"teams"`
	Escalas       []string     `json:"escalas"`
	SubTeams      []string     `json:"sub_teams"`
}

// BoardOrder is a normalized work order as shown on the board.
type BoardOrder struct {
	ID               string            `json:"id"`
	Number           int64             `json:"number"`
	Type             string            `json:"type"`
	Status           string            `json:"status"`
	Slots            [SlotCount]string `json:"slots"`
	RealizedOn       string            `json:"realized_on,omitempty"`
	AssetCode        string            `json:"asset_code"`
	AssetDescription string            `json:"asset_description"`
	Team             string            `json:"team"`
	AssignedTo       string            `json:"assigned_to,omitempty"`
	OverdueWeek1     bool              `json:"overdue_week1"`
}

// BoardEntry is one work order occurrence in a calendar cell.
type BoardEntry struct {
	Key          string `json:"key"`
	OrderID      string `json:"os_id"`
	Number       int64  `json:"number"`
	Type         string `json:"type"`
	AssetCode    string `json:"asset_code"`
	Date         string `json:"date_key"`
	Week         int    `json:"week"`
	Variant      string `json:"variant"`
	Color        string `json:"color"`
	OverdueWeek1 bool   `json:"overdue_week1"`
	Locked       bool   `json:"locked"`
	Note         string `json:"note,omitempty"`
	Accent       string `json:"accent,omitempty"`
	ReadOnly     bool   `json:"read_only"`
}

// BoardDay is one grid cell with its holidays and entries.
type BoardDay struct {
	Date     string       `json:"date_key"`
	Week     int          `json:"week"`
	InMonth  bool         `json:"in_month"`
	Past     bool         `json:"past"`
	Holidays []string     `json:"holidays,omitempty"`
	Entries  []BoardEntry `json:"entries,omitempty"`
}

// BoardView is the full board state rendered for clients.
type BoardView struct {
	Month        string          `json:"month"`
	Today        string          `json:"today"`
	Filters      Filters         `json:"filters"`
	Options      FilterOptions   `json:"options"`
	TeamLabel    string          `json:"team_label,omitempty"`
	Loaded       bool            `json:"loaded"`
	ConfigLoaded bool            `json:"config_loaded"`
	Error        string          `json:"error,omitempty"`
	Warnings     []string        `json:"warnings,omitempty"`
	Days         []BoardDay      `json:"days"`
	Backlog      []BoardOrder    `json:"backlog"`
	BacklogTypes []string        `json:"backlog_types"`
	Config       SchedulerConfig `json:"config"`
}

// Drop sources.
const (
	SourceBacklog  = "backlog"
	SourceCalendar = "calendar"
)

// DropRequest moves a work order. An empty ToDate drops it on the backlog.
type DropRequest struct {
	OrderID  string `json:"os_id"`
	Source   string `json:"source"`
	FromDate string `json:"from_date,omitempty"`
	ToDate   string `json:"to_date,omitempty"`
}

// CellRequest addresses one (work order, date) cell.
type CellRequest struct {
	OrderID string `json:"os_id"`
	Date    string `json:"date_key"`
}

// NoteRequest sets the note of a cell.
type NoteRequest struct {
	OrderID string `json:"os_id"`
	Date    string `json:"date_key"`
	Text    string `json:"text"`
}

// ColorRequest sets the accent color of a work order from one of its cells.
type ColorRequest struct {
	OrderID string `json:"os_id"`
	Date    string `json:"date_key"`
	Color   string `json:"color"`
}

// WeekCommentRequest appends text to the note of Target (a lock key) in Week.
type WeekCommentRequest struct {
	Week   int    `json:"week"`
	Target string `json:"target"`
	Text   string `json:"text"`
}

// WeekTarget is a cell that can receive a week comment.
type WeekTarget struct {
	Key     string `json:"key"`
	OrderID string `json:"os_id"`
	Number  int64  `json:"number"`
	Date    string `json:"date_key"`
}

// WeekNote is a non-empty note of a cell in the week.
type WeekNote struct {
	Key     string `json:"key"`
	OrderID string `json:"os_id"`
	Number  int64  `json:"number"`
	Date    string `json:"date_key"`
	Note    string `json:"note"`
}

// WeekView gathers the comment targets and notes of one grid week.
type WeekView struct {
	Week    int          `json:"week"`
	Targets []WeekTarget `json:"targets"`
	Notes   []WeekNote   `json:"notes"`
}

// Activity outcomes.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// Activity is one journaled board action.
type Activity struct {
	ID      string    `json:"id"`
	At      time.Time `json:"at"`
	Action  string    `json:"action"`
	OrderID string    `json:"os_id,omitempty"`
	Date    string    `json:"date_key,omitempty"`
	Outcome string    `json:"outcome"`
	Detail  string    `json:"detail,omitempty"`
}
