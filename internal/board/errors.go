package board

import "errors"

// Rejections raised before any network call. Their messages are shown to the user as is.
var (
	ErrPastDate     = errors.New("Nao e permitido programar em data passada.")
	ErrHoliday      = errors.New("Nao e permitido programar em dia de feriado.")
	ErrOutsideGrid  = errors.New("Data fora do calendario do mes.")
	ErrUnknownOrder = errors.New("OS nao encontrada no quadro.")
	ErrRealized     = errors.New("OS realizada nao pode ser alterada.")
	ErrCancelled    = errors.New("OS cancelada nao pode ser programada.")
	ErrFrozenWeek1  = errors.New("OS com semana 1 nao realizada nao pode ser alterada.")
	ErrWeek1Target  = errors.New("Semana 1 nao realizada nao pode ser alterada.")
	ErrNotScheduled = errors.New("Apenas OS programada pode ser resetada.")
	ErrLocked       = errors.New("Dia bloqueado para esta OS.")
	ErrReadOnly     = errors.New("Esta entrada nao aceita alteracoes.")
	ErrSelection    = errors.New("Selecione coordenacao, equipe e sub-equipe.")
	ErrBusy         = errors.New("OS com alteracao em andamento. Aguarde.")
	ErrNoTarget     = errors.New("Selecione uma OS da semana.")
	ErrEmptyText    = errors.New("Informe o texto do comentario.")
	ErrBadColor     = errors.New("Cor invalida; use #RRGGBB.")
	ErrBadWeek      = errors.New("Semana invalida.")
	ErrBadSource    = errors.New("Origem invalida; use backlog ou calendar.")
)

// rejection carries a context-specific message while matching a sentinel.
type rejection struct {
	msg  string
	kind error
}

func (r *rejection) Error() string { return r.msg }
func (r *rejection) Unwrap() error { return r.kind }

func reject(kind error, msg string) error {
	return &rejection{msg: msg, kind: kind}
}

// IsRejection reports whether err is a validation failure (no network call was made).
func IsRejection(err error) bool {
	for _, s := range []error{
		ErrPastDate, ErrHoliday, ErrOutsideGrid, ErrUnknownOrder, ErrRealized, ErrCancelled,
		ErrFrozenWeek1, ErrWeek1Target, ErrNotScheduled, ErrLocked, ErrReadOnly, ErrSelection,
		ErrBusy, ErrNoTarget, ErrEmptyText, ErrBadColor, ErrBadWeek, ErrBadSource,
	} {
		if errors.Is(err, s) {
			return true
		}
	}
	return false
}
