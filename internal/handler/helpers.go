// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/bloggy/internal/middleware"
	"github.com/hitoshi/bloggy/internal/model"
)

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}

// parseIDParam はURLパラメータからIDを取得する。
func parseIDParam(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

// statusForAPIError はAPIErrorのコードをHTTPステータスコードにマップする。
func statusForAPIError(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeInvalidCredential, model.ErrCodeNotAuthenticated:
		return http.StatusUnauthorized
	case model.ErrCodeDuplicateEmail:
		return http.StatusConflict
	case model.ErrCodeForbidden:
		return http.StatusForbidden
	case model.ErrCodePostNotFound, model.ErrCodeUserNotFound:
		return http.StatusNotFound
	case model.ErrCodeInvalidInput:
		return http.StatusBadRequest
	case model.ErrCodeStorageUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError はサービス層のエラーをHTTPレスポンスに変換する。
// ユーザー向けのAPIErrorはそのまま返し、それ以外（ストレージ障害等）は
// 詳細をログのみに記録してStorageUnavailableとして返す（フェイルクローズ）。
func writeServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		middleware.WriteErrorResponse(w, statusForAPIError(apiErr), apiErr)
		return
	}

	slog.Error("service error", slog.String("error", err.Error()))
	middleware.WriteErrorResponse(w, http.StatusServiceUnavailable, model.NewStorageUnavailableError())
}
