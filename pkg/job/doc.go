// Package job は変換パイプラインのキューに流すジョブメッセージを定義する。
//
// Gatewayはアップロードされた動画ごとにVideoJobを1件だけ"video"キューへ発行する。
// メッセージは保存済みオブジェクトのIDを参照するだけで、バイナリ本体は含まない。
// MP3FIDは変換ワーカーが埋めるため、Gatewayが発行する時点では常にnullとなる。
package job
