package utils

const (
	DefaultLimit = 100
	MaxLimit     = 100
)

// NormalizeSkipLimit clamps skip/limit query values.
func NormalizeSkipLimit(skip, limit int) (int, int) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return skip, limit
}
