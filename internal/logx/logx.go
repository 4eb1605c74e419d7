package logx

import (
	"context"

	"pkt.systems/glkbridge/schema"
	"pkt.systems/pslog"
)

type contextKey int

const (
	sessionKey contextKey = iota
	storyKey
)

// WithSession annotates the context logger with the session id unless the
// context already carries it.
func WithSession(ctx context.Context, sessionID schema.SessionID) pslog.Logger {
	log := pslog.Ctx(ctx)
	if sessionID != "" {
		if current, ok := ctx.Value(sessionKey).(schema.SessionID); ok && current == sessionID {
			return log
		}
		log = log.With("session", sessionID)
	}
	return log
}

// WithSessionStory annotates the logger with session and story.
func WithSessionStory(ctx context.Context, sessionID schema.SessionID, story schema.StoryName) pslog.Logger {
	log := WithSession(ctx, sessionID)
	if story != "" {
		if current, ok := ctx.Value(storyKey).(schema.StoryName); ok && current == story {
			return log
		}
		log = log.With("story", story)
	}
	return log
}

// WithStory annotates log with story metadata when available.
func WithStory(log pslog.Logger, story schema.Story) pslog.Logger {
	if story.Name != "" {
		log = log.With("story", story.Name)
	}
	if story.Interpreter != "" {
		log = log.With("interpreter", story.Interpreter)
	}
	return log
}

// ContextWithSession stores the session marker on the context for log de-duplication.
func ContextWithSession(ctx context.Context, sessionID schema.SessionID) context.Context {
	if ctx == nil || sessionID == "" {
		return ctx
	}
	return context.WithValue(ctx, sessionKey, sessionID)
}

// ContextWithStory stores the story marker on the context for log de-duplication.
func ContextWithStory(ctx context.Context, story schema.StoryName) context.Context {
	if ctx == nil || story == "" {
		return ctx
	}
	return context.WithValue(ctx, storyKey, story)
}

// ContextWithSessionLogger attaches the logger and session marker to the context.
func ContextWithSessionLogger(ctx context.Context, log pslog.Logger, sessionID schema.SessionID) context.Context {
	ctx = pslog.ContextWithLogger(ctx, log)
	return ContextWithSession(ctx, sessionID)
}

// ContextWithSessionStoryLogger attaches the logger and session/story markers to the context.
func ContextWithSessionStoryLogger(ctx context.Context, log pslog.Logger, sessionID schema.SessionID, story schema.StoryName) context.Context {
	return ContextWithStory(ContextWithSessionLogger(ctx, log, sessionID), story)
}
