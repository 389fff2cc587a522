package types

const (
	NO_PAGINATION uint64 = 0
)

const (
	DEFAULT_TIME_FORMAT = "2006-01-02 15:04"
)
