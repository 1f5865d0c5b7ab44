package middleware

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// RequestLogger は1リクエスト1行でzapに出す
func RequestLogger(lg *zap.Logger) echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("request_id", v.RequestID),
			}
			if uid, ok := c.Get(CtxUserIDKey).(int64); ok {
				fields = append(fields, zap.Int64("user_id", uid))
			}

			//handlerがJSONで返したエラーの原因
			err := v.Error
			if herr, ok := c.Get(CtxErrorKey).(error); ok && err == nil {
				err = herr
			}

			switch {
			case v.Status >= 500:
				lg.Error("request", append(fields, zap.Error(err))...)
			case err != nil:
				lg.Info("request", append(fields, zap.NamedError("reason", err))...)
			default:
				lg.Info("request", fields...)
			}
			return nil
		},
	})
}
