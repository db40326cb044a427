// Package broker はRabbitMQへの接続とジョブメッセージの発行を提供する。
//
// 起動時に固定間隔で接続を試行し、成功すれば永続キューを宣言してチャネルを保持する。
// 試行回数を使い切った場合もプロセスは起動を続け、以後の発行はErrUnavailableで即座に失敗する。
// 接続とチャネルはプロセス全体で1つだけ生成し、再接続は行わない。
package broker
