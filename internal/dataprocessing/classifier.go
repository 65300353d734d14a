package dataprocessing

// Status is the completion state of one production row.
type Status string

const (
	StatusComplete Status = "complete"
	StatusPending  Status = "pending"
)

// Classify marks a row complete when its pending quantity is exactly zero.
// A missing, blank, negative or non-numeric pending value is pending.
func Classify(row Row, pendingColumn string) Status {
	v, ok := row.Get(CanonicalKey(pendingColumn))
	if !ok {
		return StatusPending
	}
	if n, ok := numericOf(v); ok && n == 0 {
		return StatusComplete
	}
	return StatusPending
}

// ClassifyFunc binds Classify to a pending column.
func ClassifyFunc(pendingColumn string) func(Row) Status {
	return func(row Row) Status { return Classify(row, pendingColumn) }
}
