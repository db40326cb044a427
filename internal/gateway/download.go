package gateway

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nao1215/mp3converter/internal/blobstore"
)

// defaultAudioContentType は音声オブジェクトにContent-Typeがない場合の値。
const defaultAudioContentType = "audio/mpeg"

// handleDownload は変換済み音声をファイルとして返すハンドラを返す。
// fidクエリパラメータが必須で、音声ストアから <fid>.mp3 として配信する。
func (s *Server) handleDownload() gin.HandlerFunc {
	return func(c *gin.Context) {
		fid := c.Query("fid")
		if fid == "" {
			s.fail(c, newError(KindValidation, msgFIDRequired, nil))
			return
		}

		obj, err := s.mp3s.Get(c.Request.Context(), fid)
		switch {
		case errors.Is(err, blobstore.ErrInvalidID):
			s.fail(c, newError(KindValidation, msgInvalidFID, err))
			return
		case errors.Is(err, blobstore.ErrNotFound):
			s.fail(c, newError(KindNotFound, msgNotFound, err))
			return
		case err != nil:
			s.fail(c, newError(KindInternal, msgInternal, err))
			return
		}
		defer obj.Close()

		contentType := obj.ContentType
		if contentType == "" {
			contentType = defaultAudioContentType
		}

		logger := s.requestLogger(c)
		logger.Info().Str("fid", fid).Int64("size", obj.Size).Msg("音声ファイルを配信します")
		c.DataFromReader(http.StatusOK, obj.Size, contentType, obj, map[string]string{
			"Content-Disposition": fmt.Sprintf(`attachment; filename="%s.mp3"`, fid),
		})
	}
}
