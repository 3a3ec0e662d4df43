// Package dto Defines data transfer objects (request parameters and response structs)
// Package dto 定义数据传输对象（请求参数和响应结构体）
package dto

// CommentAddRequest Request parameters for adding a comment
// 添加评论的请求参数
type CommentAddRequest struct {
	WorkspaceID string `json:"workspaceId" form:"workspaceId" binding:"required"`
	Field       string `json:"field" form:"field"` // Optional field anchor // 可选的字段锚点
	Body        string `json:"body" form:"body" binding:"required,max=4096"`
}

// CommentResolveRequest Request parameters for resolving a comment
// 标记评论已解决的请求参数
type CommentResolveRequest struct {
	WorkspaceID string `json:"workspaceId" form:"workspaceId" binding:"required"`
	CommentID   string `json:"commentId" form:"commentId" binding:"required"`
}

// CommentListRequest Request parameters for listing comments
// 获取评论列表的请求参数
type CommentListRequest struct {
	WorkspaceID string `form:"workspaceId" binding:"required"`
}
