package pipeline

import (
	"context"
	"encoding/json"
	"strings"

	apperrors "github.com/aisavvy/aisavvy/internal/errors"
	"github.com/aisavvy/aisavvy/internal/logging"
	"github.com/aisavvy/aisavvy/internal/oracle"
	"github.com/aisavvy/aisavvy/internal/prompt"
	"github.com/aisavvy/aisavvy/internal/schema"
	"github.com/aisavvy/aisavvy/internal/types"
)

// Executor runs one SQL statement and materializes its result set
type Executor interface {
	Execute(ctx context.Context, sqlQuery string) (*types.QueryResult, error)
}

// Cache memoizes completed pipeline outcomes by key
type Cache interface {
	Get(ctx context.Context, key string) (*types.Response, bool, error)
	Put(ctx context.Context, key string, response *types.Response) error
}

// Audit records every executed-or-failed SQL attempt
type Audit interface {
	Append(ctx context.Context, record types.AuditRecord) error
}

// Options carries the pipeline policy knobs
type Options struct {
	CacheEnabled   bool
	CacheNoResults bool
}

// Orchestrator is the per-request state machine. Each request runs the
// stages strictly in order: relevance check, cache lookup, synthesis,
// execution, enrichment, cache store. Instances are safe for concurrent
// use; the snapshot is read-only and all other collaborators manage their
// own synchronization.
type Orchestrator struct {
	oracle   oracle.Service
	executor Executor
	cache    Cache
	audit    Audit
	snapshot *schema.Snapshot
	logger   *logging.Logger
	options  Options
}

// NewOrchestrator wires the pipeline collaborators together
func NewOrchestrator(
	oracleSvc oracle.Service,
	executor Executor,
	cache Cache,
	audit Audit,
	snapshot *schema.Snapshot,
	logger *logging.Logger,
	options Options,
) *Orchestrator {
	return &Orchestrator{
		oracle:   oracleSvc,
		executor: executor,
		cache:    cache,
		audit:    audit,
		snapshot: snapshot,
		logger:   logger,
		options:  options,
	}
}

// Handle runs one conversation through the pipeline and returns exactly one
// terminal response. Validation and oracle failures during the mandatory
// stages surface as errors; execution failures return an error-kind response
// with a one-shot repair suggestion that is never re-executed.
func (o *Orchestrator) Handle(ctx context.Context, turns []types.Turn) (*types.Response, error) {
	if len(turns) == 0 {
		return nil, apperrors.New(apperrors.ErrTypeValidation, "history must not be empty")
	}

	last := turns[len(turns)-1]
	if !last.IsUserText() {
		return nil, apperrors.New(apperrors.ErrTypeValidation,
			"last turn must be a user turn with text content")
	}

	question := strings.TrimSpace(last.Text)

	// RELEVANCE_CHECK runs before everything, including the cache lookup
	answer, err := o.oracle.Generate(ctx, prompt.Relevance(o.snapshot.SchemaString, question))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrTypeOracle, "relevance check failed")
	}

	if decodeRelevance(answer) {
		o.logger.Debugf("question rejected as off-topic: %s", question)
		return types.NewOffTopic(), nil
	}

	// CACHE_LOOKUP: the only path with zero oracle and database calls after
	// the gate. A read failure degrades to a miss.
	key := CacheKey(turns, o.snapshot.Hash)

	if o.options.CacheEnabled {
		cached, ok, err := o.cache.Get(ctx, key)
		if err != nil {
			o.logger.WithError(err).Warn("cache read failed, treating as miss")
		} else if ok {
			o.logger.Debugf("cache hit for key %s", key)
			return cached, nil
		}
	}

	// SYNTHESIZE
	raw, err := o.oracle.Generate(ctx, prompt.Synthesis(
		o.snapshot.SchemaString,
		o.snapshot.HintsString,
		prompt.RenderHistory(turns),
		question,
	))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrTypeOracle, "query synthesis failed")
	}

	extraction := ExtractSQL(raw)
	if extraction.Clarify {
		return types.NewClarification(extraction.Question), nil
	}

	sqlQuery := extraction.SQL

	// EXECUTE
	result, execErr := o.executor.Execute(ctx, sqlQuery)
	if execErr != nil {
		o.appendAudit(ctx, types.AuditRecord{
			Question:     question,
			SQLQuery:     sqlQuery,
			Success:      false,
			ErrorMessage: execErr.Error(),
		})

		fix := o.suggestFix(ctx, sqlQuery, execErr.Error(), question)

		return types.NewErrorResult(execErr.Error(), fix, sqlQuery), nil
	}

	o.appendAudit(ctx, types.AuditRecord{
		Question: question,
		SQLQuery: sqlQuery,
		Success:  true,
	})

	var response *types.Response

	if len(result.Rows) == 0 {
		response = types.NewNoResults(o.explainNoResults(ctx, question, sqlQuery), sqlQuery)
	} else {
		// ENRICH: both calls degrade silently, never aborting the request
		summary := o.summarize(ctx, question, result.Rows)
		chart := o.chartSpec(ctx, question, result.Columns)
		response = types.NewSuccess(sqlQuery, summary, result.Rows, chart)
	}

	// CACHE_STORE: idempotent upsert of a deterministic value, so concurrent
	// writers racing on the same key are harmless
	if o.options.CacheEnabled && response.Cacheable(o.options.CacheNoResults) {
		if err := o.cache.Put(ctx, key, response); err != nil {
			o.logger.WithError(err).Warn("cache write failed")
		}
	}

	return response, nil
}

// appendAudit records an execution attempt; audit store failures never
// abort the request
func (o *Orchestrator) appendAudit(ctx context.Context, record types.AuditRecord) {
	if err := o.audit.Append(ctx, record); err != nil {
		o.logger.WithError(err).Warn("audit append failed")
	}
}

// suggestFix produces at most one repair suggestion for a failing query.
// The suggestion is advisory: it is returned to the caller and never
// executed. An oracle failure here degrades to an empty suggestion.
func (o *Orchestrator) suggestFix(ctx context.Context, failingSQL, dbError, question string) string {
	raw, err := o.oracle.Generate(ctx, prompt.Repair(o.snapshot.SchemaString, failingSQL, dbError, question))
	if err != nil {
		o.logger.WithError(err).Warn("repair suggestion failed")
		return ""
	}

	return ExtractSQL(raw).SQL
}

// explainNoResults asks for a one-sentence empty-result explanation,
// degrading to a fixed text on failure
func (o *Orchestrator) explainNoResults(ctx context.Context, question, sqlQuery string) string {
	answer, err := o.oracle.Generate(ctx, prompt.NoResults(question, sqlQuery))
	if err != nil || strings.TrimSpace(answer) == "" {
		return types.DefaultNoResultsText
	}

	return strings.TrimSpace(answer)
}

// summarize asks for a one-sentence result summary, degrading to a
// placeholder on failure
func (o *Orchestrator) summarize(ctx context.Context, question string, rows []map[string]any) string {
	answer, err := o.oracle.Generate(ctx, prompt.Summary(question, rows))
	if err != nil || strings.TrimSpace(answer) == "" {
		return types.DefaultSummary
	}

	return strings.TrimSpace(answer)
}

// chartSpec asks for a visualization decision and parses it strictly as
// JSON. Any parse or call failure degrades to chart_needed=false.
func (o *Orchestrator) chartSpec(ctx context.Context, question string, columns []string) *types.ChartSpec {
	noChart := &types.ChartSpec{ChartNeeded: false}

	answer, err := o.oracle.Generate(ctx, prompt.Visualization(question, columns))
	if err != nil {
		o.logger.WithError(err).Debug("visualization call failed")
		return noChart
	}

	var spec types.ChartSpec
	if err := json.Unmarshal([]byte(strings.TrimSpace(answer)), &spec); err != nil {
		o.logger.Debugf("visualization answer was not valid JSON: %v", err)
		return noChart
	}

	if !spec.ChartNeeded {
		return noChart
	}

	switch spec.ChartType {
	case "bar", "line", "pie":
		return &spec
	default:
		return noChart
	}
}
