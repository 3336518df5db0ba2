package middleware

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"credlio-backend/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

const (
	HeaderRequestID = "Ax-Request-Id"
	HeaderRequestAt = "Ax-Request-At"

	// pendingTTL bounds how long an unfinished request blocks its id.
	pendingTTL   = 60 * time.Second
	maxClockSkew = 10 * time.Minute
	storeTimeout = 2 * time.Second
)

// teeWriter copies the response body while passing it through.
type teeWriter struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (w *teeWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *teeWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Idempotency replays the stored response when a caller repeats a write with
// the same Ax-Request-Id on the same path. It must run after JWTAuth.
func Idempotency(rdb redis.Cmdable, ttl time.Duration, log *logger.Logger) echo.MiddlewareFunc {
	if log == nil {
		log = logger.Nop()
	}
	store := replayStore{rdb: rdb, pendingTTL: pendingTTL, ttl: ttl}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			switch req.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				return next(c)
			}

			claims := ClaimsFrom(c)
			if claims == nil {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing credentials"})
			}

			reqID := strings.TrimSpace(req.Header.Get(HeaderRequestID))
			switch {
			case reqID == "":
				return c.JSON(http.StatusBadRequest, map[string]string{"error": "missing " + HeaderRequestID})
			case !validRequestID(reqID):
				return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid " + HeaderRequestID + " format"})
			}

			reqAt, err := parseRequestAt(req.Header.Get(HeaderRequestAt))
			if err != nil {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
			}
			now := time.Now().UTC()
			if reqAt.Before(now.Add(-maxClockSkew)) || reqAt.After(now.Add(maxClockSkew)) {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": HeaderRequestAt + " too skewed"})
			}

			var body []byte
			if req.Body != nil {
				body, _ = io.ReadAll(req.Body)
			}
			req.Body = io.NopCloser(bytes.NewReader(body))
			bodyDigest := digest(body)

			key := replayKey(req.Method, req.URL.Path, claims.UserID(), reqID)
			ctx := log.WithField(req.Context(), "idempotency_id", reqID)
			storeCtx, cancel := context.WithTimeout(ctx, storeTimeout)
			defer cancel()

			reserved, err := store.reserve(storeCtx, key, storedResponse{
				Pending:    true,
				BodyDigest: bodyDigest,
				RequestAt:  reqAt,
				StoredAt:   now,
			})
			if err != nil {
				log.Error(ctx, "idempotency store unavailable", err)
				return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "idempotency store unavailable"})
			}
			if !reserved {
				return replay(storeCtx, c, store, key, bodyDigest, log)
			}

			tee := &teeWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK}
			c.Response().Writer = tee
			if err := next(c); err != nil {
				c.Error(err)
			}

			// server errors are not remembered so the client can retry
			if tee.status >= http.StatusInternalServerError {
				if err := store.release(context.Background(), key); err != nil {
					log.Warn(ctx, "idempotency release failed: "+err.Error())
				}
				return nil
			}
			err = store.commit(context.Background(), key, storedResponse{
				Status:     tee.status,
				Body:       tee.body.Bytes(),
				BodyDigest: bodyDigest,
				RequestAt:  reqAt,
				StoredAt:   time.Now().UTC(),
			})
			if err != nil {
				log.Warn(ctx, "idempotency save failed: "+err.Error())
			}
			return nil
		}
	}
}

func replay(ctx context.Context, c echo.Context, store replayStore, key, bodyDigest string, log *logger.Logger) error {
	prev, err := store.load(ctx, key)
	if err != nil {
		log.Warn(ctx, "idempotency entry unreadable: "+err.Error())
	}
	if prev.BodyDigest != "" && prev.BodyDigest != bodyDigest {
		return c.JSON(http.StatusConflict, map[string]string{"error": HeaderRequestID + " reused with a different body"})
	}
	if !prev.Pending && prev.Status != 0 && len(prev.Body) > 0 {
		return c.Blob(prev.Status, echo.MIMEApplicationJSON, prev.Body)
	}
	return c.JSON(http.StatusConflict, map[string]string{"error": "request is already in progress"})
}
