package models

import (
	"encoding/json"
	"strconv"
)

// OrderPatch is a partial update for PATCH /os. Status empty leaves the status untouched.
// Slots maps slot numbers (1..5) to the new value; a nil value is sent as JSON null
// and a missing slot is not sent at all.
type OrderPatch struct {
	ID     string
	Status string
	Slots  map[int]*string
}

// MarshalJSON renders the patch with the API field names.
func (p OrderPatch) MarshalJSON() ([]byte, error) {
	body := map[string]any{"id": p.ID}
	if p.Status != "" {
		body["os_status"] = p.Status
	}
	for n, v := range p.Slots {
		if n < 1 || n > SlotCount {
			continue
		}
		field := "os_programado" + strconv.Itoa(n)
		if v == nil {
			body[field] = nil
			continue
		}
		body[field] = *v
	}
	return json.Marshal(body)
}
