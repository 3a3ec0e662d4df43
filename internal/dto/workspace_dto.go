// Package dto Defines data transfer objects (request parameters and response structs)
// Package dto 定义数据传输对象（请求参数和响应结构体）
package dto

// WorkspaceCreateRequest Request parameters for creating a workspace
// 创建工作区的请求参数
type WorkspaceCreateRequest struct {
	Name        string `json:"name" form:"name" binding:"required,min=1,max=128"` // Workspace name // 工作区名称
	Description string `json:"description" form:"description" binding:"max=1024"` // Description // 描述
}

// WorkspaceUpdateRequest Request parameters for updating a workspace
// 更新工作区的请求参数
type WorkspaceUpdateRequest struct {
	ID          string `json:"id" form:"id" binding:"required"`
	Name        string `json:"name" form:"name" binding:"required,min=1,max=128"`
	Description string `json:"description" form:"description" binding:"max=1024"`
}

// WorkspaceGetRequest Request parameters for retrieving a workspace
// 获取工作区的请求参数
type WorkspaceGetRequest struct {
	ID string `form:"id" binding:"required"` // Workspace ID // 工作区 ID
}

// ReadOnlySetRequest Request parameters for toggling the read-only gate
// 切换只读开关的请求参数
type ReadOnlySetRequest struct {
	ID       string `json:"id" form:"id" binding:"required"`
	ReadOnly *bool  `json:"readOnly" form:"readOnly" binding:"required"`
}
