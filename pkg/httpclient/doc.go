// Package httpclient は外部サービスとのHTTP通信を行うクライアントを提供する。
//
// Gatewayが認証サービスの /login と /validate を呼び出す際に使用する。
// 応答のステータスコードと本文をそのまま呼び出し元へ返し、解釈は呼び出し元に任せる。
package httpclient
