package dto

// SequenceNextRequest asks for the next value of a named counter.
// Allocation through this endpoint always takes the counter lock.
type SequenceNextRequest struct {
	Owner  string `json:"owner" binding:"required"`
	Table  string `json:"table" binding:"required"`
	Series string `json:"series" binding:"required"`

	// Prefix, when set, also renders a formatted number (PREFIX-YEAR-NNNNN).
	Prefix string `json:"prefix"`
}

// SequenceNextResponse carries the allocated value.
type SequenceNextResponse struct {
	Value     int64  `json:"value"`
	Formatted string `json:"formatted,omitempty"`
}
