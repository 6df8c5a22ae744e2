// Package prompt builds the oracle prompts. Everything here is pure string
// construction; no I/O and no state.
package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aisavvy/aisavvy/internal/types"
)

// RenderHistory renders every turn except the last for use as grounding
// context. User turns render as text. Assistant turns render only when they
// carry a rows result; clarifications, errors, and off-topic notices are
// dropped because they hold no data the next query could build on.
func RenderHistory(turns []types.Turn) string {
	if len(turns) <= 1 {
		return ""
	}

	var sb strings.Builder

	for _, turn := range turns[:len(turns)-1] {
		switch {
		case turn.Role == types.RoleUser && turn.Result == nil:
			sb.WriteString("User: " + turn.Text + "\n")
		case turn.Role == types.RoleAssistant && turn.HasRows():
			rows, err := json.Marshal(turn.Result.Rows)
			if err != nil {
				continue
			}

			sb.WriteString("Assistant(Result): " + string(rows) + "\n")
		}
	}

	return sb.String()
}

// Relevance asks whether the question can be answered from the schema at all
func Relevance(schemaString, question string) string {
	return fmt.Sprintf(`You are a gatekeeper for a database assistant. Decide whether the question below can be answered using only the tables in the schema.

Answer with a single word: YES if the question is about the data in this schema, NO if it is about anything else.

### Database Schema:
%s
### Question:
%q

### Answer:`, schemaString, question)
}

// Synthesis asks for a single SQL query, or a clarification request when the
// question is ambiguous
func Synthesis(schemaString, hintsString, history, question string) string {
	var sb strings.Builder

	sb.WriteString(`You are an expert SQL assistant. Convert the final question into a single SQL query based on the provided database schema.

### Instructions:
1. Carefully examine the table signatures below and use the exact table and column names they contain.
2. Only use the tables and columns provided in the schema. Do not hallucinate or guess any table or column names.
3. Output only a single, valid SQL query and nothing else.
4. If the question is ambiguous or missing a detail you need, output exactly: CLARIFY: <your question to the user>

### Database Schema:
`)
	sb.WriteString(schemaString)

	if hintsString != "" {
		sb.WriteString("\n### Known Column Values:\n")
		sb.WriteString(hintsString)
	}

	sb.WriteString(`
### Example (Very Important!):
If the question is about a department's manager, the answer is in the 'manager' column of the 'departments' table.
Question: "Who is the manager of the Engineering department?"
SQL Query: SELECT manager FROM departments WHERE department_name = 'Engineering';
`)

	if history != "" {
		sb.WriteString("\n### Conversation So Far:\n")
		sb.WriteString(history)
	}

	sb.WriteString(fmt.Sprintf(`
### Your Task:
Question: %q

### SQL Query:
`, question))

	return strings.TrimSpace(sb.String())
}

// Repair asks for one corrected query after a failed execution. The answer
// is surfaced as a suggestion only and never executed automatically.
func Repair(schemaString, failingSQL, dbError, question string) string {
	return fmt.Sprintf(`The SQL query below failed. Propose a corrected query for the same question.

### Database Schema:
%s
### Question:
%q

### Failing Query:
%s

### Database Error:
%s

### Instructions:
Output only the corrected SQL query and nothing else.

### Corrected SQL Query:`, schemaString, question, failingSQL, dbError)
}

// NoResults asks for a one-sentence explanation of an empty result set
func NoResults(question, sqlQuery string) string {
	return fmt.Sprintf(`The query below executed successfully but returned no rows.

Question: %q
SQL Query: %s

In one sentence, explain to the user why there might be no matching data. Output only that sentence.`, question, sqlQuery)
}

// Summary asks for a one-sentence summary of the result rows
func Summary(question string, rows []map[string]any) string {
	rowsJSON, err := json.Marshal(rows)
	if err != nil {
		rowsJSON = []byte("[]")
	}

	return fmt.Sprintf(`Summarize the query result below in one short sentence answering the user's question. Output only that sentence.

Question: %q
Result rows (JSON): %s`, question, rowsJSON)
}

// Visualization asks for a strict-JSON chart decision for the result columns
func Visualization(question string, columns []string) string {
	return fmt.Sprintf(`Decide whether the result of the question below should be visualized as a chart.

Question: %q
Result columns: %s

Respond with only a JSON object, no prose, in exactly this shape:
{"chart_needed": true|false, "chart_type": "bar"|"line"|"pie", "x_column": "<column>", "y_column": "<column>"}

Use chart_needed=false when the result is a single scalar or not chartable, and omit no keys.`, question, strings.Join(columns, ", "))
}
