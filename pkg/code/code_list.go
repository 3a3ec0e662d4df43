package code

// Common codes // 通用状态码
var (
	Success             = NewSuss(200, lang{en: "Success", zh_cn: "成功"})
	ErrorInvalidParams  = NewError(400, lang{en: "Invalid request parameters", zh_cn: "请求参数错误"})
	ErrorNotActorID     = NewError(401, lang{en: "Missing actor identity", zh_cn: "缺少操作者身份"})
	ErrorNotFound       = NewError(404, lang{en: "Resource not found", zh_cn: "资源未找到"})
	ErrorInternal       = NewError(500, lang{en: "Internal server error", zh_cn: "服务内部错误"})
	ErrorTooManyRequest = NewError(429, lang{en: "Too many requests", zh_cn: "请求过于频繁"})
	ErrorDBQuery        = NewError(10001, lang{en: "Database query error", zh_cn: "数据库查询错误"})
	ErrorWorkspaceExist = NewError(10002, lang{en: "Workspace already exists", zh_cn: "工作区已存在"})
)

// Workspace and version codes // 工作区与版本状态码
var (
	ErrorWorkspaceNotFound = NewError(20001, lang{en: "Workspace not found", zh_cn: "工作区不存在"})
	ErrorVersionNotFound   = NewError(20002, lang{en: "Version not found", zh_cn: "版本不存在"})
	ErrorReadOnlyMode      = NewError(20003, lang{en: "Service is in read-only mode, commits are rejected", zh_cn: "服务处于只读模式，提交被拒绝"})
	ErrorSequenceConflict  = NewError(20004, lang{en: "Version sequence conflict, please retry", zh_cn: "版本序号冲突，请重试"})
	ErrorCommentNotFound   = NewError(20005, lang{en: "Comment not found", zh_cn: "评论不存在"})
)

// Lock and presence codes // 锁与在线状态码
var (
	ErrorLockDenied            = NewError(30001, lang{en: "Field is locked by another actor", zh_cn: "字段已被其他操作者锁定"})
	ErrorLockOwnershipMismatch = NewError(30002, lang{en: "Lock is not held by this actor", zh_cn: "当前操作者未持有该锁"})
	ErrorSubstrateUnavailable  = NewError(30003, lang{en: "Lock substrate unavailable, editing is disabled", zh_cn: "锁存储不可用，编辑已禁用"})
	ErrorLockRequired          = NewError(30004, lang{en: "Field lock must be held to commit this change", zh_cn: "提交该修改前必须持有字段锁"})
)

// Optimization codes // 优化状态码
var (
	ErrorOptimizeFailed = NewError(40001, lang{en: "Prompt optimization failed", zh_cn: "提示词优化失败"})
)
