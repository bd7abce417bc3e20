// Package logging provides structured logging with OpenTelemetry integration.
//
// # Overview
//
// The package wraps Zap with:
//   - A Trace level (-2, below Debug) for raw model payloads
//   - Stdout/stderr output teed with an OpenTelemetry log bridge
//   - Automatic context field injection (trace_id, conversation, turn, agent, step)
//   - Secret redaction for provider API keys
//   - Level-aware sampling (errors never sampled)
//
// # Usage
//
//	cfg := logging.NewDefaultConfig()
//	logger, err := logging.NewLogger(cfg, otelProvider)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer logger.Sync()
//
//	ctx = logging.WithConversationID(ctx, conversationID)
//	ctx = logging.WithTurnID(ctx, turnID)
//	logger.Info(ctx, "turn completed", zap.Int("steps", n))
//
// Output includes the correlation fields:
//
//	{
//	  "ts": "2026-03-02T10:15:30Z",
//	  "level": "info",
//	  "msg": "turn completed",
//	  "conversation.id": "7d4b...",
//	  "turn.id": "a1c9...",
//	  "steps": 9
//	}
package logging
