// Package middleware はGinベースのHTTP APIで使用する共通ミドルウェアを提供する。
//
// リクエストIDの付与、zerologによるアクセスログ、パニックリカバリを含む。
package middleware
