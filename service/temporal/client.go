package temporal

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.temporal.io/sdk/client"
)

// Client wraps the Temporal SDK client with launch-specific helpers.
type Client struct {
	client    client.Client
	taskQueue string
	logger    *slog.Logger
}

// NewClient creates a new Temporal client.
func NewClient(host, namespace, taskQueue string, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("connecting to temporal",
		"host", host,
		"namespace", namespace,
		"task_queue", taskQueue,
	)

	c, err := client.Dial(client.Options{
		HostPort:  host,
		Namespace: namespace,
		Logger:    newTemporalLogger(logger),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Temporal: %w", err)
	}

	logger.Info("connected to temporal successfully")

	return &Client{
		client:    c,
		taskQueue: taskQueue,
		logger:    logger,
	}, nil
}

// StartTokenLaunch starts a TokenLaunchWorkflow execution and returns the
// running handle. Callers wait on the handle for the synchronous launch
// endpoint, or store the workflow id for later status queries.
func (c *Client) StartTokenLaunch(ctx context.Context, input TokenLaunchInput) (client.WorkflowRun, error) {
	workflowID := fmt.Sprintf("token-launch-%s", uuid.New().String())

	c.logger.Info("starting token launch workflow",
		"workflow_id", workflowID,
		"wallet_id", input.WalletID,
		"symbol", input.TokenSymbol,
	)

	run, err := c.client.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        workflowID,
		TaskQueue: c.taskQueue,
	}, TokenLaunchWorkflow, input)
	if err != nil {
		return nil, fmt.Errorf("failed to start token launch workflow %q: %w", workflowID, err)
	}

	return run, nil
}

// LaunchStatus describes one workflow execution.
type LaunchStatus struct {
	WorkflowID string `json:"workflow_id"`
	RunID      string `json:"run_id"`
	Status     string `json:"status"`
}

// DescribeLaunch reports the execution status of a launch workflow.
func (c *Client) DescribeLaunch(ctx context.Context, workflowID string) (*LaunchStatus, error) {
	resp, err := c.client.DescribeWorkflowExecution(ctx, workflowID, "")
	if err != nil {
		return nil, fmt.Errorf("failed to describe workflow %q: %w", workflowID, err)
	}

	info := resp.GetWorkflowExecutionInfo()
	return &LaunchStatus{
		WorkflowID: workflowID,
		RunID:      info.GetExecution().GetRunId(),
		Status:     info.GetStatus().String(),
	}, nil
}

// SDKClient returns the underlying Temporal SDK client for direct workflow operations.
func (c *Client) SDKClient() client.Client {
	return c.client
}

// TaskQueue returns the configured task queue for this client.
func (c *Client) TaskQueue() string {
	return c.taskQueue
}

// Close closes the Temporal client connection.
func (c *Client) Close() {
	c.logger.Info("closing temporal client")
	c.client.Close()
}

// temporalLogger adapts slog.Logger to Temporal's logger interface.
type temporalLogger struct {
	logger *slog.Logger
}

func newTemporalLogger(logger *slog.Logger) *temporalLogger {
	return &temporalLogger{logger: logger}
}

func (l *temporalLogger) Debug(msg string, keyvals ...interface{}) {
	l.logger.Debug(msg, keyvals...)
}

func (l *temporalLogger) Info(msg string, keyvals ...interface{}) {
	l.logger.Info(msg, keyvals...)
}

func (l *temporalLogger) Warn(msg string, keyvals ...interface{}) {
	l.logger.Warn(msg, keyvals...)
}

func (l *temporalLogger) Error(msg string, keyvals ...interface{}) {
	l.logger.Error(msg, keyvals...)
}
