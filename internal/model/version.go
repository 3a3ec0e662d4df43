package model

import "github.com/haierkeys/prompt-workspace-service/pkg/timex"

const TableNameVersion = "version"

// Version mapped from table <version>
// (workspace_id, seq) 唯一索引保证同一工作区内序号不重复
type Version struct {
	ID                 string     `gorm:"column:id;primaryKey" json:"id" form:"id"`
	WorkspaceID        string     `gorm:"column:workspace_id;not null;uniqueIndex:idx_workspace_seq,priority:1" json:"workspaceId" form:"workspaceId"`
	Seq                int64      `gorm:"column:seq;not null;uniqueIndex:idx_workspace_seq,priority:2" json:"seq" form:"seq"`
	ParentVersionID    string     `gorm:"column:parent_version_id" json:"parentVersionId" form:"parentVersionId"`
	ActorID            string     `gorm:"column:actor_id;not null" json:"actorId" form:"actorId"`
	Message            string     `gorm:"column:message" json:"message" form:"message"`
	PromptText         string     `gorm:"column:prompt_text" json:"promptText" form:"promptText"`
	ModelConfiguration string     `gorm:"column:model_configuration" json:"modelConfiguration" form:"modelConfiguration"`
	Tools              string     `gorm:"column:tools" json:"tools" form:"tools"`
	Scratchpad         string     `gorm:"column:scratchpad" json:"scratchpad" form:"scratchpad"`
	CreatedAt          timex.Time `gorm:"column:created_at;type:datetime;default:NULL;autoCreateTime:false" json:"createdAt" form:"createdAt"`
}

// TableName Version's table name
func (*Version) TableName() string {
	return TableNameVersion
}
