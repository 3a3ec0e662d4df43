// Package domain 定义领域模型和接口
package domain

import "time"

// Content 工作区可编辑字段的完整快照
// PromptText 为行级文本，ModelConfiguration 为键值配置
type Content struct {
	PromptText         string
	ModelConfiguration map[string]interface{}
	Tools              []string
	Scratchpad         string
}

// Field 可加锁的工作区字段
type Field string

const (
	FieldPromptText         Field = "prompt_text"
	FieldModelConfiguration Field = "model_configuration"
	FieldTools              Field = "tools"
	FieldScratchpad         Field = "scratchpad"
)

// KnownFields 全部可加锁字段
var KnownFields = []Field{
	FieldPromptText,
	FieldModelConfiguration,
	FieldTools,
	FieldScratchpad,
}

// IsKnownField 判断字段名是否合法
func IsKnownField(f string) bool {
	for _, k := range KnownFields {
		if string(k) == f {
			return true
		}
	}
	return false
}

// Workspace 工作区领域模型
// HeadVersionID / HeadSeq 指向当前已提交的最新版本
type Workspace struct {
	ID            string
	Name          string
	Description   string
	HeadVersionID string
	HeadSeq       int64
	ReadOnly      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// HasHead 判断工作区是否已有提交版本
func (w *Workspace) HasHead() bool {
	return w.HeadVersionID != ""
}
