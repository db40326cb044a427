package gateway

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nao1215/mp3converter/internal/auth"
)

// Kind はエラーの分類。分類ごとに応答ステータスが決まる。
type Kind int

const (
	// KindInternal は分類できない内部エラー。
	KindInternal Kind = iota
	// KindValidation は入力の欠落や形式不正。
	KindValidation
	// KindAuth は資格情報の欠落、不正、権限不足。
	KindAuth
	// KindNotFound は指定したオブジェクトが存在しないこと。
	KindNotFound
	// KindUnavailable は依存サービスに到達できないこと。
	KindUnavailable
)

// Status は分類に対応するHTTPステータスコードを返す。
func (k Kind) Status() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuth:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Error はハンドラが返す分類済みのエラー。Messageは応答本文になる。
type Error struct {
	// Kind はエラーの分類。
	Kind Kind
	// Message は応答本文。
	Message string
	// Err はログに残す原因。
	Err error
}

// Error はerrorインターフェースを実装する。
func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap は原因のエラーを返す。
func (e *Error) Unwrap() error {
	return e.Err
}

// newError は分類済みのエラーを生成する。
func newError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// 応答本文の定型文。
const (
	msgInternal      = "internal server error"
	msgNotAuthorized = "not authorized"
	msgFileCount     = "exactly 1 file required"
	msgFileTooLarge  = "file too large"
	msgFIDRequired   = "fid is required"
	msgInvalidFID    = "invalid fid"
	msgNotFound      = "not found"
	msgQueueDown     = "queue unavailable"
)

// fail はerrを応答ステータスと本文に変換して書き込み、後続のハンドラを中断する。
// 認証サービスが返したエラーはステータスと本文をそのまま中継する。
func (s *Server) fail(c *gin.Context, err error) {
	status, message := http.StatusInternalServerError, msgInternal

	var gwErr *Error
	if authErr := auth.AsError(err); authErr != nil {
		status, message = authErr.Status, authErr.Message
	} else if errors.As(err, &gwErr) {
		status, message = gwErr.Kind.Status(), gwErr.Message
	}

	logger := s.requestLogger(c)
	ev := logger.Warn()
	if status >= http.StatusInternalServerError {
		ev = logger.Error()
	}
	ev.Err(err).Int("status", status).Str("path", c.Request.URL.Path).Msg("リクエストを拒否しました")

	c.Abort()
	c.String(status, message)
}
