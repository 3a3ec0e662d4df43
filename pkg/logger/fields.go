package logger

// Unified log field name constants
// 统一的日志字段命名常量
// Keeps field naming consistent across the project for log querying
// 用于确保整个项目中日志字段命名的一致性，便于日志查询和分析
const (
	// FieldTraceID trace id field // 追踪 ID 字段
	FieldTraceID = "traceId"

	// FieldWorkspace workspace id field // 工作区 ID 字段
	FieldWorkspace = "workspaceId"

	// FieldField editable field name // 可编辑字段名
	FieldField = "field"

	// FieldActor actor id field // 操作者 ID 字段
	FieldActor = "actorId"

	// FieldVersion version id field // 版本 ID 字段
	FieldVersion = "versionId"

	// FieldSeq version sequence number field // 版本序号字段
	FieldSeq = "seq"

	// FieldMethod method name field // 方法名称字段
	FieldMethod = "method"

	// FieldDuration elapsed time field // 耗时字段
	FieldDuration = "duration"

	// FieldEvent realtime event type field // 实时事件类型字段
	FieldEvent = "event"

	// FieldTTL lock ttl field // 锁 TTL 字段
	FieldTTL = "ttl"
)
