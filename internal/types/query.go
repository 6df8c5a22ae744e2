package types

// QueryResult is a fully materialized result set. Columns preserves the
// select-list order that the row maps cannot.
type QueryResult struct {
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
}

// AuditRecord is one executed-or-failed SQL attempt. Relevance, clarify,
// and off-topic short-circuits never produce a record.
type AuditRecord struct {
	Question     string `json:"question"`
	SQLQuery     string `json:"sql_query"`
	Success      bool   `json:"success"`
	ErrorMessage string `json:"error_message,omitempty"`
}
