// Package dto Defines data transfer objects (request parameters and response structs)
// Package dto 定义数据传输对象（请求参数和响应结构体）
package dto

// WSLockAcquireRequest WebSocket 获取字段锁的负载
// 工作区与操作者取自连接状态，负载只携带字段与 TTL
type WSLockAcquireRequest struct {
	Field string `json:"field" validate:"required"`
	TTL   int    `json:"ttl"`
}

// WSLockReleaseRequest WebSocket 释放字段锁的负载
type WSLockReleaseRequest struct {
	Field string `json:"field" validate:"required"`
}

// WSVersionCommitRequest WebSocket 提交新版本的负载
type WSVersionCommitRequest struct {
	Message            string                 `json:"message"`
	PromptText         *string                `json:"promptText"`
	ModelConfiguration map[string]interface{} `json:"modelConfiguration"`
	Tools              []string               `json:"tools"`
	Scratchpad         *string                `json:"scratchpad"`
}

// StateResyncResponse 状态快照响应
// 断线重连后客户端以此快照重建本地状态，事件不回放
type StateResyncResponse struct {
	Workspace    interface{} `json:"workspace"`
	Head         interface{} `json:"head,omitempty"`
	Locks        interface{} `json:"locks"`
	Presence     interface{} `json:"presence"`
	LastEventSeq int64       `json:"lastEventSeq"`
}
