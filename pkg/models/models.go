// Package models provides the wire types of the maintenance API consumed by the scheduler board.
// Field names and JSON tags mirror the remote API rows; pkg/client decodes into them and
// internal/workorder normalizes them into typed records.
package models

// WorkOrder is a work order row as returned by GET /os.
type WorkOrder struct {
	ID               string  `json:"id"`
	Number           int64   `json:"os_numero"`
	Type             string  `json:"os_tipo"`
	Status           string  `json:"os_status"`
	Programado1      *string `json:"os_programado1"`
	Programado2      *string `json:"os_programado2"`
	Programado3      *string `json:"os_programado3"`
	Programado4      *string `json:"os_programado4"`
	Programado5      *string `json:"os_programado5"`
	RealizedAt       *string `json:"os_realizado_em"`
	AssetCode        string  `json:"ATIVO_CODPE"`
	AssetDescription string  `json:"ATIVO_DESCRITIVO_OS"`
	Team             string  `json:"ATIVO_EQUIPE"`
}

// Slots returns the five proposed-date slots in order.
func (w WorkOrder) Slots() [SlotCount]*string {
	return [SlotCount]*string{w.Programado1, w.Programado2, w.Programado3, w.Programado4, w.Programado5}
}

// Structure is one row of the org hierarchy (coordination -> team).
type Structure struct {
	ID           string `json:"id"`
	Coordination string `json:"coordenacao"`
	Team         string `json:"equipe"`
	CostCenter   string `json:"cc"`
	Execution    string `json:"execucao,omitempty"`
	Status       string `json:"status"`
}

// SubTeamConfig declares a sub-team and its rotation for a coordination/team.
type SubTeamConfig struct {
	Coordination string  `json:"coordenacao"`
	TeamID       string  `json:"equipe_id"`
	SubTeam      string  `json:"sub_equipe"`
	Escala       string  `json:"escala"`
	Status       string  `json:"status"`
	Note         *string `json:"observacao"`
}

// Assignment maps a work order to the sub-team responsible for scheduling it.
type Assignment struct {
	OrderID      string `json:"os_id"`
	Coordination string `json:"coordenacao"`
	TeamID       string `json:"equipe_id"`
	SubTeam      string `json:"sub_equipe"`
}

// Holiday blocks scheduling on Date for TeamID.
type Holiday struct {
	ID     string `json:"id"`
	TeamID string `json:"equipe_id"`
	Label  string `json:"feriado"`
	Date   string `json:"data"`
}

// SchedulerConfig is the cosmetic config bag stored per (month, coordination, team, sub-team).
type SchedulerConfig struct {
	ColorMap     map[string]string   `json:"colorMap"`
	LockMap      map[string]bool     `json:"lockMap"`
	NoteMap      map[string]string   `json:"noteMap"`
	WeekComments map[string][]string `json:"weekComments"`
}

// ConfigKey identifies one scheduler config bag.
type ConfigKey struct {
	Month        string `json:"mes"`
	Coordination string `json:"coordenacao"`
	TeamID       string `json:"equipe_id"`
	SubTeam      string `json:"sub_equipe"`
}

// Complete reports whether every part of the key is set.
func (k ConfigKey) Complete() bool {
	return k.Month != "" && k.Coordination != "" && k.TeamID != "" && k.SubTeam != ""
}

// OrderQuery filters GET /os.
type OrderQuery struct {
	Statuses []string
	Year     string
	Month    string
	Team     string
}
