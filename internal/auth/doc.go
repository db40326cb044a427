// Package auth はGatewayが利用する認証サービスとのやり取りを提供する。
//
// トークンの検証（認証サービスへの委譲または共有鍵によるローカル検証）と
// ログインの転送を担当する。検証済みトークンは型付きのClaimsとして返し、
// 下流の処理はトークン文字列そのものを参照しない。
package auth
