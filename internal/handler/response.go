package handler

import (
	"net/http"
	"strconv"

	"grocerystore/internal/domain/model"
	"grocerystore/internal/middleware"
	"grocerystore/internal/usecase"

	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// usecaseのエラー種別をHTTPステータスに変換する。原因は返さない
func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	//原因はリクエストログにだけ残す
	c.Set(middleware.CtxErrorKey, err)

	if ue, ok := usecase.AsError(err); ok {
		return c.JSON(statusFor(ue.Kind), ErrorResponse{Error: ue.Message, Code: ue.Code})
	}
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error", Code: "internal"})
}

func statusFor(k usecase.Kind) int {
	switch k {
	case usecase.KindInvalidInput:
		return http.StatusBadRequest
	case usecase.KindUnauthorized:
		return http.StatusUnauthorized
	case usecase.KindForbidden:
		return http.StatusForbidden
	case usecase.KindNotFound:
		return http.StatusNotFound
	case usecase.KindConflict:
		return http.StatusConflict
	case usecase.KindExpired:
		return http.StatusGone
	case usecase.KindPreconditionFailed:
		return http.StatusPreconditionFailed
	case usecase.KindExternalService:
		return http.StatusBadGateway
	case usecase.KindInvalidTransition:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg, Code: "invalid_input"})
}

// bindAndValidate はbodyを読み、validateタグで検証する。
// 失敗はInvalidInputとして返すのでwriteErrorにそのまま渡せる
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return usecase.NewError(usecase.KindInvalidInput, "invalid_input", "invalid body")
	}
	if err := c.Validate(req); err != nil {
		return usecase.NewError(usecase.KindInvalidInput, "invalid_input", err.Error())
	}
	return nil
}

// AuthJWTが入れた値からActorを作る
func actorFromContext(c echo.Context) (usecase.Actor, bool) {
	id, ok := c.Get(middleware.CtxUserIDKey).(int64)
	if !ok || id <= 0 {
		return usecase.Actor{}, false
	}
	role, _ := c.Get(middleware.CtxUserRoleKey).(string)
	return usecase.Actor{UserID: id, Role: model.Role(role)}, true
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Code: "unauthorized"})
}

func pathID(c echo.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func queryInt(c echo.Context, name string, def int) (int, bool) {
	v := c.QueryParam(name)
	if v == "" {
		return def, true
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}
