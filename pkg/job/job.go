package job

import (
	"encoding/json"
	"errors"
	"fmt"
)

// VideoJob は動画から音声への変換ジョブ。
type VideoJob struct {
	// VideoFID はアップロード動画のオブジェクトID。
	VideoFID string `json:"video_fid"`
	// MP3FID は変換済み音声のオブジェクトID。変換前はnil。
	MP3FID *string `json:"mp3_fid"`
	// Username はアップロードした利用者名。
	Username string `json:"username"`
	// Admin はアップロードした利用者の管理者権限。
	Admin bool `json:"admin"`
}

// NewVideoJob は変換前のVideoJobを生成する。
func NewVideoJob(videoFID, username string, admin bool) *VideoJob {
	return &VideoJob{VideoFID: videoFID, Username: username, Admin: admin}
}

// Encode はジョブをJSONにシリアライズする。VideoFIDが空の場合はエラーを返す。
func (j *VideoJob) Encode() ([]byte, error) {
	if j.VideoFID == "" {
		return nil, errors.New("video_fidが空です")
	}
	body, err := json.Marshal(j)
	if err != nil {
		return nil, fmt.Errorf("ジョブのシリアライズに失敗: %w", err)
	}
	return body, nil
}

// Decode はJSONからVideoJobをデシリアライズする。
func Decode(body []byte) (*VideoJob, error) {
	var j VideoJob
	if err := json.Unmarshal(body, &j); err != nil {
		return nil, fmt.Errorf("ジョブのデシリアライズに失敗: %w", err)
	}
	return &j, nil
}
