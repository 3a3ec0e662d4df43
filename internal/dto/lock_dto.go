// Package dto Defines data transfer objects (request parameters and response structs)
// Package dto 定义数据传输对象（请求参数和响应结构体）
package dto

// LockAcquireRequest Request parameters for acquiring a field lock
// 获取字段锁的请求参数
type LockAcquireRequest struct {
	WorkspaceID string `json:"workspaceId" form:"workspaceId" binding:"required"`
	Field       string `json:"field" form:"field" binding:"required"` // Field name // 字段名
	TTL         int    `json:"ttl" form:"ttl" binding:"gte=0"`        // TTL in seconds, 0 means default // TTL 秒数，0 表示默认值
}

// LockRenewRequest Request parameters for renewing a held lock
// 续期已持有锁的请求参数
type LockRenewRequest struct {
	WorkspaceID string `json:"workspaceId" form:"workspaceId" binding:"required"`
	Field       string `json:"field" form:"field" binding:"required"`
	TTL         int    `json:"ttl" form:"ttl" binding:"gte=0"`
}

// LockReleaseRequest Request parameters for releasing a lock
// 释放锁的请求参数
type LockReleaseRequest struct {
	WorkspaceID string `json:"workspaceId" form:"workspaceId" binding:"required"`
	Field       string `json:"field" form:"field" binding:"required"`
}

// LockListRequest Request parameters for listing workspace locks
// 获取工作区锁列表的请求参数
type LockListRequest struct {
	WorkspaceID string `form:"workspaceId" binding:"required"`
}
