package workorder

import (
	"fmt"

	"github.com/ankittk/osboard/pkg/models"
)

// Status is the closed set of work order states.
type Status int

const (
	Created Status = iota + 1
	Scheduled
	Realized
	Cancelled
)

// ParseStatus maps an API status string to a Status.
func ParseStatus(s string) (Status, error) {
	switch s {
	case models.StatusCreated:
		return Created, nil
	case models.StatusScheduled:
		return Scheduled, nil
	case models.StatusRealized:
		return Realized, nil
	case models.StatusCancelled:
		return Cancelled, nil
	}
	return 0, fmt.Errorf("unknown work order status %q", s)
}

// String returns the API spelling of s.
func (s Status) String() string {
	switch s {
	case Created:
		return models.StatusCreated
	case Scheduled:
		return models.StatusScheduled
	case Realized:
		return models.StatusRealized
	case Cancelled:
		return models.StatusCancelled
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// MarshalText encodes s with its API spelling.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses the API spelling.
func (s *Status) UnmarshalText(b []byte) error {
	v, err := ParseStatus(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
