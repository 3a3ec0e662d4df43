// Package dto Defines data transfer objects (request parameters and response structs)
// Package dto 定义数据传输对象（请求参数和响应结构体）
package dto

// VersionCommitRequest Request parameters for committing a new version
// 提交新版本的请求参数
// 指针字段为 nil 表示该字段沿用头版本内容
type VersionCommitRequest struct {
	WorkspaceID        string                 `json:"workspaceId" form:"workspaceId" binding:"required"`
	Message            string                 `json:"message" form:"message" binding:"max=1024"`
	PromptText         *string                `json:"promptText"`
	ModelConfiguration map[string]interface{} `json:"modelConfiguration"`
	Tools              []string               `json:"tools"`
	Scratchpad         *string                `json:"scratchpad"`
}

// VersionGetRequest Request parameters for retrieving a version
// 获取版本的请求参数
type VersionGetRequest struct {
	WorkspaceID string `form:"workspaceId" binding:"required"`
	VersionID   string `form:"versionId"`
	Seq         int64  `form:"seq"`
}

// VersionListRequest Request parameters for listing versions
// 获取版本列表的请求参数
type VersionListRequest struct {
	WorkspaceID string `form:"workspaceId" binding:"required"`
}

// VersionDiffRequest Request parameters for diffing two versions
// 版本差异比较的请求参数
type VersionDiffRequest struct {
	WorkspaceID string `form:"workspaceId" binding:"required"`
	From        string `form:"from" binding:"required"` // From version ID // 起始版本 ID
	To          string `form:"to" binding:"required"`   // To version ID // 目标版本 ID
}

// VersionRevertRequest Request parameters for reverting to a historical version
// 回滚到历史版本的请求参数
type VersionRevertRequest struct {
	WorkspaceID string `json:"workspaceId" form:"workspaceId" binding:"required"`
	VersionID   string `json:"versionId" form:"versionId" binding:"required"`
	Message     string `json:"message" form:"message" binding:"max=1024"`
}

// OptimizationExamplePayload One optimization example pair
// 单条优化示例
type OptimizationExamplePayload struct {
	InputText      string `json:"inputText" binding:"required"`
	ExpectedOutput string `json:"expectedOutput" binding:"required"`
}

// OptimizeRequest Request parameters for prompt optimization
// 提示词优化的请求参数
type OptimizeRequest struct {
	WorkspaceID string                       `json:"workspaceId" form:"workspaceId" binding:"required"`
	Examples    []OptimizationExamplePayload `json:"examples" binding:"required,min=1,dive"`
	Iterations  int                          `json:"iterations" binding:"gte=0,lte=50"`
}
