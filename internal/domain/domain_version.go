package domain

import "time"

// Version 版本领域模型
// 版本不可变：一旦提交，内容与序号永不改变
type Version struct {
	ID              string
	WorkspaceID     string
	Seq             int64
	ParentVersionID string
	ActorID         string
	Message         string
	Content         Content
	CreatedAt       time.Time
}

// IsRoot 判断是否为工作区的首个版本
func (v *Version) IsRoot() bool {
	return v.ParentVersionID == ""
}
