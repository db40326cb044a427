package gateway

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nao1215/mp3converter/internal/auth"
)

// contextKeyClaims はGinコンテキストに検証済みクレームを格納するキー。
const contextKeyClaims = "claims"

// requireAdmin はトークンを検証し、管理者以外を401で拒否するミドルウェアを返す。
// 拒否した場合はストアやキューへのI/Oは一切発生しない。
func (s *Server) requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := s.validator.Validate(c.Request.Context(), c.GetHeader("Authorization"))
		if err != nil {
			s.fail(c, err)
			return
		}
		if !claims.Authorize() {
			s.fail(c, newError(KindAuth, msgNotAuthorized, nil))
			return
		}

		c.Set(contextKeyClaims, claims)
		c.Next()
	}
}

// getClaims はrequireAdminが設定したクレームを取得する。
func getClaims(c *gin.Context) *auth.Claims {
	v, _ := c.Get(contextKeyClaims)
	claims, _ := v.(*auth.Claims)
	return claims
}

// handleLogin はBasic認証の資格情報を認証サービスに転送し、発行されたトークンを返す。
func (s *Server) handleLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		username, password, ok := c.Request.BasicAuth()
		if !ok {
			s.fail(c, auth.ErrMissingCredentials)
			return
		}

		token, err := s.login.Login(c.Request.Context(), username, password)
		if err != nil {
			s.fail(c, err)
			return
		}
		c.String(http.StatusOK, token)
	}
}
