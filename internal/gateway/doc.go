// Package gateway は動画から音声への変換パイプラインのHTTP入口を提供する。
//
// リクエストの認証と管理者権限の確認、動画のストアへの書き込みと変換ジョブの発行、
// 変換済み音声の配信、依存サービスのヘルスチェックを担当する。
// ログインとトークン検証は認証サービスに、変換そのものは下流のワーカーに委ねる。
package gateway
