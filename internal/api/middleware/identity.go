package middleware

import (
	"context"
	"net/http"
	"strings"
)

const (
	// HeaderSessionID идентификатор сессии пользователя, заполняющего форму
	HeaderSessionID = "X-Session-ID"

	// HeaderUserGUID внешний идентификатор пользователя, если он известен
	HeaderUserGUID = "X-User-GUID"
)

type contextKey string

const (
	sessionIDKey contextKey = "session_id"
	userGUIDKey  contextKey = "user_guid"
)

// Identity переносит сессию и пользователя из заголовков в контекст.
// Запросы без заголовков не отклоняются: каждому handler'у виднее, что ему обязательно.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if sid := strings.TrimSpace(r.Header.Get(HeaderSessionID)); sid != "" {
			ctx = WithSessionID(ctx, sid)
		}
		if guid := strings.TrimSpace(r.Header.Get(HeaderUserGUID)); guid != "" {
			ctx = WithUserGUID(ctx, guid)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// WithSessionID кладет сессию в контекст
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionIDKey, sessionID)
}

// WithUserGUID кладет пользователя в контекст
func WithUserGUID(ctx context.Context, guid string) context.Context {
	return context.WithValue(ctx, userGUIDKey, guid)
}

// GetSessionID извлекает сессию из контекста
func GetSessionID(ctx context.Context) (string, bool) {
	sid, ok := ctx.Value(sessionIDKey).(string)
	return sid, ok && sid != ""
}

// GetUserGUID извлекает пользователя из контекста, nil для анонимного запроса
func GetUserGUID(ctx context.Context) *string {
	guid, ok := ctx.Value(userGUIDKey).(string)
	if !ok || guid == "" {
		return nil
	}
	return &guid
}
