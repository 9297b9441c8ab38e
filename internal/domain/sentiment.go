package domain

// SentimentColumns is the declared column order of the sentiment table.
// The last column is only present in rows whose source item carried it.
var SentimentColumns = []string{"value", "value_classification", "timestamp", "time_until_update"}

// SentimentRecord is one Fear & Greed index snapshot.
type SentimentRecord struct {
	Value          int
	Classification string
	// Timestamp is unix seconds, or a formatted date when a date format was requested.
	Timestamp string
	// TimeUntilUpdate is only reported for the most recent record.
	TimeUntilUpdate *string
	// HasTimeUntilUpdate marks the key as present even when its value was null.
	HasTimeUntilUpdate bool
}

// Row returns three cells, or four when the source item carried
// time_until_update. An explicit null becomes a nil fourth cell.
func (r SentimentRecord) Row() []any {
	row := []any{r.Value, r.Classification, r.Timestamp}
	switch {
	case r.TimeUntilUpdate != nil:
		row = append(row, *r.TimeUntilUpdate)
	case r.HasTimeUntilUpdate:
		row = append(row, nil)
	}
	return row
}

func SentimentTable(records []SentimentRecord) Table {
	rows := make([][]any, 0, len(records))
	for _, r := range records {
		rows = append(rows, r.Row())
	}
	return Table{Columns: SentimentColumns, Data: rows}
}
