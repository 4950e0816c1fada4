// Package transport 定义消息传输边界。
// 传输层负责平台协议和用户身份，核心只看到不透明的用户键和文本。
package transport

import "context"

// Handler 处理一条入站消息。ok 为 false 表示不回复（沉默）。
// 结构化错误从不跨越这条边界。
type Handler func(ctx context.Context, userKey, text string) (reply string, ok bool)

// Transport 一种消息传输方式
type Transport interface {
	// Start 启动传输并把入站消息交给 handler 处理
	Start(h Handler) error
	// Close 停止传输
	Close() error
}
