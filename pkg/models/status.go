package models

// Work order statuses as sent by the API.
const (
	StatusCreated   = "CRIADO"
	StatusScheduled = "PROGRAMADO"
	StatusRealized  = "REALIZADO"
	StatusCancelled = "CANCELADO"
)

// Reference data flags.
const (
	FlagActive    = "ativo"
	FlagExecution = "sim"
)

// SlotCount is the number of proposed-date slots on a work order.
const SlotCount = 5

// Defaults shared by the client and the board.
const (
	DefaultAPIURL          = "http://localhost:8787"
	DefaultFlushDelayMs    = 600
	DefaultActivityLimit   = 200
	DefaultRequestTimeout  = 30 // seconds
	DefaultMaxRequestBytes = 1 << 20
	DefaultSSEBuffer       = 256
	FiltersKey             = "os_scheduler_filters"
)
