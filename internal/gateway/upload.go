package gateway

import (
	"errors"
	"mime/multipart"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/nao1215/mp3converter/internal/blobstore"
	"github.com/nao1215/mp3converter/internal/ledger"
	"github.com/nao1215/mp3converter/pkg/job"
)

// multipartOverhead はファイル本体以外のマルチパートの境界やヘッダーに許す余裕。
const multipartOverhead = 1 << 20

// handleUpload は動画ファイルのアップロードを処理するハンドラを返す。
// ファイルがちょうど1つであることを確認してから動画ストアに書き込み、
// 書き込み後に変換ジョブをキューへ発行する。
func (s *Server) handleUpload() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := getClaims(c)
		if claims == nil {
			s.fail(c, newError(KindAuth, msgNotAuthorized, nil))
			return
		}

		fh, err := s.singleFile(c)
		if err != nil {
			s.fail(c, err)
			return
		}

		// チャネルがなければ発行は必ず失敗するため、書き込み前に拒否する。
		if !s.broker.Ready() {
			s.fail(c, newError(KindUnavailable, msgQueueDown, nil))
			return
		}

		logger := s.requestLogger(c)
		logger.Info().Str("username", claims.Username).Str("filename", fh.Filename).Int64("size", fh.Size).Msg("アップロードを受け付けました")

		file, err := fh.Open()
		if err != nil {
			s.fail(c, newError(KindInternal, msgInternal, err))
			return
		}
		defer file.Close()

		ctx := c.Request.Context()
		fid, err := s.videos.Put(ctx, file, fh.Size, blobstore.Metadata{
			Filename:    filepath.Base(fh.Filename),
			ContentType: fh.Header.Get("Content-Type"),
		})
		if err != nil {
			s.fail(c, newError(KindInternal, msgInternal, err))
			return
		}

		entry := ledger.Entry{
			ObjectID: fid,
			Username: claims.Username,
			Filename: filepath.Base(fh.Filename),
			Size:     fh.Size,
			Status:   ledger.StatusPublished,
		}

		body, err := job.NewVideoJob(fid, claims.Username, claims.Admin).Encode()
		if err == nil {
			err = s.broker.Publish(ctx, s.videoQueue, body)
		}
		if err != nil {
			// オブジェクトは書き込み済みのまま残る。台帳に記録して呼び出し元には失敗を返す。
			entry.Status = ledger.StatusOrphaned
			entry.Error = err.Error()
			s.record(c, entry)
			s.fail(c, newError(KindInternal, msgInternal, err))
			return
		}

		s.record(c, entry)
		logger.Info().Str("fid", fid).Str("queue", s.videoQueue).Msg("変換ジョブを発行しました")
		c.String(http.StatusOK, "success!")
	}
}

// singleFile はマルチパートフォームからファイルを1つだけ取り出す。
// フォームでない場合やファイル数が1でない場合はストアに触れる前にエラーを返す。
func (s *Server) singleFile(c *gin.Context) (*multipart.FileHeader, error) {
	if s.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxUploadBytes+multipartOverhead)
	}

	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, newError(KindValidation, msgFileTooLarge, err)
		}
		return nil, newError(KindValidation, msgFileCount, err)
	}

	var files []*multipart.FileHeader
	for _, fhs := range form.File {
		files = append(files, fhs...)
	}
	if len(files) != 1 {
		return nil, newError(KindValidation, msgFileCount, nil)
	}
	if s.maxUploadBytes > 0 && files[0].Size > s.maxUploadBytes {
		return nil, newError(KindValidation, msgFileTooLarge, nil)
	}
	return files[0], nil
}

// record は台帳にアップロード結果を記録する。失敗しても応答には影響させない。
func (s *Server) record(c *gin.Context, e ledger.Entry) {
	if s.ledger == nil {
		return
	}
	if err := s.ledger.Record(c.Request.Context(), e); err != nil {
		logger := s.requestLogger(c)
		logger.Error().Err(err).Str("fid", e.ObjectID).Msg("アップロード記録の保存に失敗")
	}
}
