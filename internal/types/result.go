package types

// Kind discriminates the terminal pipeline outcomes
type Kind string

const (
	KindOffTopic      Kind = "off_topic"
	KindClarification Kind = "clarification"
	KindNoResults     Kind = "no_results"
	KindError         Kind = "error"
	KindSuccess       Kind = "success"
)

// Default texts applied when the oracle cannot provide one
const (
	DefaultOffTopicMessage = "I can only answer questions about the connected database."
	DefaultNoResultsText   = "The query executed successfully but returned no results."
	DefaultSummary         = "No summary available."
)

// ChartSpec is the advisory visualization decision for a result set
type ChartSpec struct {
	ChartNeeded bool   `json:"chart_needed"`
	ChartType   string `json:"chart_type,omitempty"` // bar, line, pie
	XColumn     string `json:"x_column,omitempty"`
	YColumn     string `json:"y_column,omitempty"`
}

// Response is the wire-level pipeline result. Exactly one variant is
// produced per request; Kind selects which of the optional fields apply.
type Response struct {
	Kind         Kind             `json:"kind"`
	Message      string           `json:"message,omitempty"`
	SQLQuery     string           `json:"sql_query,omitempty"`
	Summary      string           `json:"summary,omitempty"`
	Rows         []map[string]any `json:"rows,omitempty"`
	Chart        *ChartSpec       `json:"chart,omitempty"`
	Error        string           `json:"error,omitempty"`
	SuggestedFix string           `json:"suggested_fix,omitempty"`
}

// NewOffTopic builds the off-topic terminal response
func NewOffTopic() *Response {
	return &Response{Kind: KindOffTopic, Message: DefaultOffTopicMessage}
}

// NewClarification builds a clarification request back to the user
func NewClarification(question string) *Response {
	return &Response{Kind: KindClarification, Message: question}
}

// NewNoResults builds the empty-result explanation response
func NewNoResults(explanation, sqlQuery string) *Response {
	return &Response{Kind: KindNoResults, Message: explanation, SQLQuery: sqlQuery}
}

// NewErrorResult builds the failed-execution response with its one-shot
// repair suggestion. The suggestion is advisory and never re-executed.
func NewErrorResult(errMessage, suggestedFix, sqlQuery string) *Response {
	return &Response{
		Kind:         KindError,
		Error:        errMessage,
		SuggestedFix: suggestedFix,
		SQLQuery:     sqlQuery,
	}
}

// NewSuccess builds the enriched success response
func NewSuccess(sqlQuery, summary string, rows []map[string]any, chart *ChartSpec) *Response {
	return &Response{
		Kind:     KindSuccess,
		SQLQuery: sqlQuery,
		Summary:  summary,
		Rows:     rows,
		Chart:    chart,
	}
}

// Cacheable reports whether the response may be memoized. Off-topic and
// clarification outcomes are never cached: a later turn can supply the
// missing detail and must be evaluated fresh.
func (r *Response) Cacheable(includeNoResults bool) bool {
	switch r.Kind {
	case KindSuccess:
		return true
	case KindNoResults:
		return includeNoResults
	default:
		return false
	}
}
