package server

import (
	"context"
	"log/slog"
	"sync"

	"github.com/jpmorgenthal/gmail-mcp-server/internal/classify"
	"github.com/jpmorgenthal/gmail-mcp-server/internal/gmail"
	"github.com/jpmorgenthal/gmail-mcp-server/internal/instrumentation"
	"github.com/jpmorgenthal/gmail-mcp-server/internal/logging"
)

// ServerContext holds the shared state of the MCP server.
type ServerContext struct {
	ctx          context.Context
	cancel       context.CancelFunc
	gmailClients map[string]*gmail.Client // Maps account name to Gmail client
	classifier   classify.Classifier
	logger       *slog.Logger
	metrics      *instrumentation.Metrics
	auditLogger  *instrumentation.AuditLogger
	mu           sync.RWMutex
	shutdown     bool
}

// NewServerContext creates a new server context. A nil logger falls back
// to slog.Default.
func NewServerContext(ctx context.Context, logger *slog.Logger) (*ServerContext, error) {
	shutdownCtx, cancel := context.WithCancel(ctx)

	if logger == nil {
		logger = slog.Default()
	}

	gmailClients := make(map[string]*gmail.Client)

	// Try to create the default Gmail client, but don't fail if the token
	// is missing. Clients are lazily initialized when first needed.
	if gmail.HasToken() {
		gmailClient, err := gmail.NewClient(shutdownCtx)
		if err != nil {
			logger.Warn("failed to create Gmail client for default account",
				logging.Account("default"),
				logging.Err(err))
		} else {
			gmailClients["default"] = gmailClient
		}
	}

	return &ServerContext{
		ctx:          shutdownCtx,
		cancel:       cancel,
		gmailClients: gmailClients,
		logger:       logger,
	}, nil
}

// Context returns the server context
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Logger returns the server logger
func (sc *ServerContext) Logger() *slog.Logger {
	return sc.logger
}

// GmailClientForAccount returns the Gmail client for a specific account.
// Creates and caches the client if it doesn't exist yet.
// Returns nil if the account has no token.
func (sc *ServerContext) GmailClientForAccount(account string) *gmail.Client {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if client, ok := sc.gmailClients[account]; ok {
		return client
	}

	if !gmail.HasTokenForAccount(account) {
		return nil
	}

	client, err := gmail.NewClientForAccount(sc.ctx, account)
	if err != nil {
		sc.logger.Warn("failed to create Gmail client",
			logging.Account(account),
			logging.Err(err))
		return nil
	}

	sc.gmailClients[account] = client
	return client
}

// GmailClient returns the Gmail client for the default account
func (sc *ServerContext) GmailClient() *gmail.Client {
	return sc.GmailClientForAccount("default")
}

// SetGmailClientForAccount sets the Gmail client for a specific account
func (sc *ServerContext) SetGmailClientForAccount(account string, client *gmail.Client) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.gmailClients[account] = client
}

// SetGmailClient sets the Gmail client for the default account
func (sc *ServerContext) SetGmailClient(client *gmail.Client) {
	sc.SetGmailClientForAccount("default", client)
}

// SetClassifier sets the classification oracle used by the triage tool
func (sc *ServerContext) SetClassifier(c classify.Classifier) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.classifier = c
}

// Classifier returns the configured classification oracle, or nil
func (sc *ServerContext) Classifier() classify.Classifier {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.classifier
}

// SetMetrics sets the metrics recorder for tool instrumentation
func (sc *ServerContext) SetMetrics(m *instrumentation.Metrics) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.metrics = m
}

// Metrics returns the metrics recorder, or nil if not configured
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.metrics
}

// SetAuditLogger sets the audit logger for tool invocations
func (sc *ServerContext) SetAuditLogger(al *instrumentation.AuditLogger) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.auditLogger = al
}

// AuditLogger returns the audit logger, or nil if not configured
func (sc *ServerContext) AuditLogger() *instrumentation.AuditLogger {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.auditLogger
}

// IsShutdown returns whether the server has been shutdown
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown shuts down the server context
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	return nil
}
