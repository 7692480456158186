package service

import "context"

type requestInfoKey struct{}

// RequestInfo 请求来源信息,供审计日志使用
type RequestInfo struct {
	RequestID string
	IP        string
	UserAgent string
}

// WithRequestInfo 将请求信息写入 context
func WithRequestInfo(ctx context.Context, info RequestInfo) context.Context {
	return context.WithValue(ctx, requestInfoKey{}, info)
}

// RequestInfoFrom 从 context 读取请求信息
func RequestInfoFrom(ctx context.Context) RequestInfo {
	info, _ := ctx.Value(requestInfoKey{}).(RequestInfo)
	return info
}

