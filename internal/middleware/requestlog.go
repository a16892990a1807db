package middleware

import (
    "log/slog"
    "time"

    "github.com/google/uuid"
    "github.com/labstack/echo/v4"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

// RequestLogger assigns every request an id, echoes it in the response
// and writes one structured line when the request completes.
func RequestLogger(log *slog.Logger) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            start := time.Now()
            rid := c.Request().Header.Get(RequestIDHeader)
            if rid == "" {
                rid = uuid.NewString()
            }
            c.Set("request_id", rid)
            c.Response().Header().Set(RequestIDHeader, rid)

            err := next(c)
            if err != nil {
                c.Error(err)
            }

            status := c.Response().Status
            attrs := []any{
                "request_id", rid,
                "method", c.Request().Method,
                "path", c.Request().URL.Path,
                "route", c.Path(),
                "status", status,
                "duration_ms", time.Since(start).Milliseconds(),
                "user", userID(c),
            }
            switch {
            case status >= 500:
                log.Error("request", append(attrs, "err", err)...)
            case status >= 400:
                log.Warn("request", attrs...)
            default:
                log.Info("request", attrs...)
            }
            return nil
        }
    }
}
