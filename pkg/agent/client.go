// Package agent drives the tool-using conversation between a language model
// and the browser. A Client runs one action at a time: it sends the system
// prompt and the instruction, executes every tool call the model requests,
// records a step per call in its run context, and validates the final JSON
// payload once the model stops calling tools.
package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/antiwork/shortest/pkg/agent/prompts"
	"github.com/antiwork/shortest/pkg/agent/tools"
	"github.com/antiwork/shortest/pkg/llm"
	"github.com/antiwork/shortest/pkg/llm/tokenizer"
	"github.com/antiwork/shortest/pkg/logging"
	"github.com/antiwork/shortest/pkg/run"
	"github.com/antiwork/shortest/pkg/types"
)

const (
	// DefaultMaxRetries bounds the attempts of one action.
	DefaultMaxRetries = 3
	// DefaultMaxTurns bounds the model calls of one attempt.
	DefaultMaxTurns = 40
)

var agentLog *logging.Logger

func init() {
	var err error
	agentLog, err = logging.NewLogger("agent")
	if err != nil {
		agentLog.Warnf("Failed to initialize agent logger, using stderr fallback: %v", err)
	}
}

// Config holds the limits of a Client.
type Config struct {
	MaxRetries int
	MaxTurns   int
}

// DefaultConfig returns the default limits.
func DefaultConfig() Config {
	return Config{MaxRetries: DefaultMaxRetries, MaxTurns: DefaultMaxTurns}
}

// Metadata accompanies a successful action.
type Metadata struct {
	Usage    types.Usage `json:"usage"`
	Attempts int         `json:"attempts"`
	Turns    int         `json:"turns"`
}

// ActionResult is the validated payload of an action. Response is a
// *Verdict, *ExplorerResult or *CrawlerResult depending on the run mode.
type ActionResult struct {
	Response interface{}
	Metadata Metadata
}

// Verdict returns the test verdict of the result.
func (r *ActionResult) Verdict() (*Verdict, bool) {
	v, ok := r.Response.(*Verdict)
	return v, ok
}

// ExplorerFlows returns the flows reported by an explorer action.
func (r *ActionResult) ExplorerFlows() []run.ExplorerFlow {
	if res, ok := r.Response.(*ExplorerResult); ok {
		return res.Flows
	}
	return nil
}

// CrawlerFlows returns the flows reported by a crawler action.
func (r *ActionResult) CrawlerFlows() []run.CrawlerFlow {
	if res, ok := r.Response.(*CrawlerResult); ok {
		return res.Flows
	}
	return nil
}

// TurnInfo describes one completed tool turn.
type TurnInfo struct {
	ToolCalls   []types.ToolCall
	ToolResults []types.ToolResult
	Usage       types.Usage
	Turn        int
}

// Client runs actions against a provider using a fixed tool registry.
type Client struct {
	provider     llm.Provider
	registry     *tools.Registry
	recorder     run.Recorder
	classifier   ErrorClassifier
	extractor    ResultExtractor
	tokenizer    *tokenizer.Tokenizer
	promptBuild  *prompts.PromptBuilder
	eventHandler func(*types.AgentEvent)
	turnHandler  func(TurnInfo)
	retry        RetryPolicy
	systemPrompt string
	config       Config
	mode         types.RunMode
	runContexts  int
	optErr       error
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithTestRun records steps into a test run and selects the test prompt.
func WithTestRun(tr *run.TestRun) ClientOption {
	return func(c *Client) {
		if tr == nil {
			c.optErr = errors.New("test run cannot be nil")
			return
		}
		c.setRunContext(types.RunModeTest, tr)
	}
}

// WithExplorerRun records steps into an explorer run and selects the
// explorer prompt.
func WithExplorerRun(er *run.ExplorerRun) ClientOption {
	return func(c *Client) {
		if er == nil {
			c.optErr = errors.New("explorer run cannot be nil")
			return
		}
		c.setRunContext(types.RunModeExplorer, er)
	}
}

// WithCrawlerRun records steps into a crawler run and selects the crawler
// prompt.
func WithCrawlerRun(cr *run.CrawlerRun) ClientOption {
	return func(c *Client) {
		if cr == nil {
			c.optErr = errors.New("crawler run cannot be nil")
			return
		}
		c.setRunContext(types.RunModeCrawler, cr)
	}
}

// WithConfig sets the retry and turn limits.
func WithConfig(cfg Config) ClientOption {
	return func(c *Client) {
		c.config = cfg
	}
}

// WithMaxRetries sets the number of attempts per action.
func WithMaxRetries(n int) ClientOption {
	return func(c *Client) {
		c.config.MaxRetries = n
	}
}

// WithMaxTurns sets the number of model calls per attempt.
func WithMaxTurns(n int) ClientOption {
	return func(c *Client) {
		c.config.MaxTurns = n
	}
}

// WithClassifier replaces the retry classifier.
func WithClassifier(classifier ErrorClassifier) ClientOption {
	return func(c *Client) {
		c.classifier = classifier
	}
}

// WithRetryPolicy replaces the delay policy between attempts.
func WithRetryPolicy(policy RetryPolicy) ClientOption {
	return func(c *Client) {
		c.retry = policy
	}
}

// WithExtractor replaces the final payload extractor.
func WithExtractor(extractor ResultExtractor) ClientOption {
	return func(c *Client) {
		c.extractor = extractor
	}
}

// WithTokenizer estimates usage when a provider reports none.
func WithTokenizer(tok *tokenizer.Tokenizer) ClientOption {
	return func(c *Client) {
		c.tokenizer = tok
	}
}

// WithPromptBuilder sets the builder of the system prompt.
func WithPromptBuilder(pb *prompts.PromptBuilder) ClientOption {
	return func(c *Client) {
		c.promptBuild = pb
	}
}

// WithEventHandler receives the events of every action.
func WithEventHandler(handler func(*types.AgentEvent)) ClientOption {
	return func(c *Client) {
		c.eventHandler = handler
	}
}

// WithTurnHandler is called after each tool turn.
func WithTurnHandler(handler func(TurnInfo)) ClientOption {
	return func(c *Client) {
		c.turnHandler = handler
	}
}

func (c *Client) setRunContext(mode types.RunMode, rec run.Recorder) {
	c.runContexts++
	c.mode = mode
	c.recorder = rec
}

// NewClient creates a client. At most one run context may be supplied; the
// run mode it implies is fixed for the lifetime of the client.
func NewClient(provider llm.Provider, registry *tools.Registry, opts ...ClientOption) (*Client, error) {
	if provider == nil {
		return nil, errors.New("provider is required")
	}
	if registry == nil {
		return nil, errors.New("tool registry is required")
	}

	c := &Client{
		provider:   provider,
		registry:   registry,
		recorder:   run.NoopRecorder{},
		classifier: DefaultClassifier{},
		extractor:  JSONExtractor{},
		retry:      DefaultRetryPolicy(),
		config:     DefaultConfig(),
		mode:       types.RunModeNone,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.runContexts > 1 {
		return nil, errors.New("only one of test run, explorer run or crawler run may be supplied")
	}
	if c.optErr != nil {
		return nil, c.optErr
	}
	if c.config.MaxRetries < 1 {
		return nil, fmt.Errorf("max retries must be at least 1, got %d", c.config.MaxRetries)
	}
	if c.config.MaxTurns < 1 {
		return nil, fmt.Errorf("max turns must be at least 1, got %d", c.config.MaxTurns)
	}
	if c.promptBuild == nil {
		c.promptBuild = prompts.NewPromptBuilder()
	}
	c.systemPrompt = c.promptBuild.Build(c.mode)

	return c, nil
}

// Mode returns the run mode of the client.
func (c *Client) Mode() types.RunMode {
	return c.mode
}

// SystemPrompt returns the system prompt sent with every request.
func (c *Client) SystemPrompt() string {
	return c.systemPrompt
}

// RunAction executes prompt with retries. Retryable failures restart the
// conversation from scratch; steps recorded by failed attempts are kept.
func (c *Client) RunAction(ctx context.Context, prompt string) (*ActionResult, error) {
	var lastErr error
	for attempt := 1; attempt <= c.config.MaxRetries; attempt++ {
		result, err := c.runConversation(ctx, prompt)
		if err == nil {
			result.Metadata.Attempts = attempt
			return result, nil
		}

		if !c.classifier.IsRetryable(err) {
			agentLog.Debugf("Action failed with non-retryable error: %v", err)
			c.emitEvent(types.NewErrorEvent(err))
			return nil, err
		}

		lastErr = err
		if attempt == c.config.MaxRetries {
			break
		}

		agentLog.Debugf("Attempt %d/%d failed: %v", attempt, c.config.MaxRetries, err)
		c.emitEvent(types.NewRetryEvent(attempt, err))
		if err := c.retry.Wait(ctx, attempt); err != nil {
			return nil, err
		}
	}

	err := NewAIError(ErrorTypeMaxRetries, MessageMaxRetries, lastErr)
	c.emitEvent(types.NewErrorEvent(err))
	return nil, err
}

// runConversation performs a single attempt.
func (c *Client) runConversation(ctx context.Context, prompt string) (*ActionResult, error) {
	conv := newConversation(types.NewUserMessage(prompt))
	descriptors := c.registry.Descriptors()

	var total types.Usage
	for turn := 1; ; turn++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if turn > c.config.MaxTurns {
			return nil, NewAIError(ErrorTypeMaxTurns,
				fmt.Sprintf("Max turns reached (%d)", c.config.MaxTurns), nil)
		}

		c.emitEvent(types.NewAPICallStartEvent(c.provider.Name(), turn))
		req := &llm.Request{
			System:   c.systemPrompt,
			Messages: conv.all(),
			Tools:    descriptors,
		}
		resp, err := c.provider.Generate(ctx, req)
		if err != nil {
			return nil, err
		}
		c.emitEvent(types.NewAPICallEndEvent(c.provider.Name(), resp.FinishReason))

		reply := resp.Messages
		if len(reply) == 0 {
			reply = []*types.Message{types.NewAssistantMessage(resp.Text, resp.ToolCalls...)}
		}

		usage := resp.Usage
		if usage.IsZero() && c.tokenizer != nil {
			usage = c.tokenizer.Estimate(c.systemPrompt, req.Messages, reply)
		}
		total = total.Add(usage)
		c.emitEvent(types.NewTokenUsageEvent(usage))

		conv.add(reply...)

		switch resp.FinishReason {
		case types.FinishReasonToolCalls:
			if len(resp.ToolCalls) == 0 {
				return nil, NewAIError(ErrorTypeUnknown, MessageUnknown, errors.New("tool-calls finish without tool calls"))
			}
			c.processToolTurn(ctx, conv, turn, resp.ToolCalls, usage)

		case types.FinishReasonStop:
			payload, err := c.extractor.Extract(resp.Text, c.mode)
			if err != nil {
				agentLog.Debugf("Final response could not be parsed: %v", err)
				return nil, err
			}
			return &ActionResult{
				Response: payload,
				Metadata: Metadata{Usage: total, Turns: turn},
			}, nil

		case types.FinishReasonContentFilter:
			return nil, NewAIError(ErrorTypeUnsafeContent, MessageUnsafeContent, nil)

		case types.FinishReasonLength:
			return nil, NewAIError(ErrorTypeTokenLimit, MessageTokenLimit, nil)

		default:
			return nil, NewAIError(ErrorTypeUnknown, MessageUnknown, fmt.Errorf("finish reason %q", resp.FinishReason))
		}
	}
}

// processToolTurn executes the calls of one turn in order. Every call gets
// exactly one tool message and exactly one recorded step.
func (c *Client) processToolTurn(ctx context.Context, conv *conversation, turn int, calls []types.ToolCall, usage types.Usage) {
	results := make([]types.ToolResult, 0, len(calls))
	for _, call := range calls {
		c.emitEvent(types.NewToolCallEvent(call.Name, call.Arguments))

		result := c.registry.Dispatch(ctx, call)
		if result.Failed() {
			c.emitEvent(types.NewToolResultErrorEvent(call.Name, errors.New(result.Error)))
		} else {
			c.emitEvent(types.NewToolResultEvent(call.Name, result.Output))
		}

		conv.add(types.NewToolMessage(call, result))
		c.recorder.AddStep(types.NewStep(call, result))
		results = append(results, result)
	}

	if c.turnHandler != nil {
		c.turnHandler(TurnInfo{
			ToolCalls:   calls,
			ToolResults: results,
			Usage:       usage,
			Turn:        turn,
		})
	}
	c.emitEvent(types.NewTurnEndEvent(len(calls)))
}

func (c *Client) emitEvent(event *types.AgentEvent) {
	if c.eventHandler != nil {
		c.eventHandler(event)
	}
}
