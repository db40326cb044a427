// Package blobstore はアップロード動画と変換済み音声を保存するバイナリストアを提供する。
//
// 1つのStoreは1つの名前空間（MinIOのバケット）に対応する。オブジェクトIDは
// ストアが採番する24桁の16進文字列で、Gatewayは書き込み後にオブジェクトを更新・削除しない。
package blobstore
