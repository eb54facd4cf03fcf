package datatype

// Standard SECoP status codes. The status parameter of every module is a
// tuple of a status code enum and a free-text string.
const (
	StatusDisabled int64 = 0
	StatusIdle     int64 = 100
	StatusWarn     int64 = 200
	StatusBusy     int64 = 300
	StatusError    int64 = 400
)

// NewStatusEnum creates the enum of the standard status codes.
func NewStatusEnum() *Enum {
	return MustEnum(map[string]int64{
		"disabled": StatusDisabled,
		"idle":     StatusIdle,
		"warn":     StatusWarn,
		"busy":     StatusBusy,
		"error":    StatusError,
	})
}

// NewStatusType creates the datatype of the status parameter: a tuple of
// the status code enum and a status text.
func NewStatusType() *Tuple {
	return MustTuple(NewStatusEnum(), NewText())
}

// StatusValue builds a typed status tuple value.
func StatusValue(code int64, text string) []any {
	return []any{code, text}
}
