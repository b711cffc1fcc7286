package code

// 通用结果码
var (
	Success         = NewSuss(200, lang{en: "Success", zh_cn: "成功"})
	SuccessNoChange = NewSuss(201, lang{en: "Success, nothing changed", zh_cn: "成功，无变更"})
	Failed          = NewError(400, lang{en: "Failed", zh_cn: "失败"})

	ErrorInvalidParams   = NewError(10001, lang{en: "Invalid request parameters", zh_cn: "请求参数错误"})
	ErrorServerInternal  = NewError(10002, lang{en: "Internal server error", zh_cn: "服务内部错误"})
	ErrorNotFound        = NewError(10003, lang{en: "Resource not found", zh_cn: "资源不存在"})
	ErrorDBQuery         = NewError(10004, lang{en: "Database query error", zh_cn: "数据库查询错误"})
	ErrorNotFoundAPI     = NewError(10005, lang{en: "API not found", zh_cn: "接口不存在"})
	ErrorTooManyRequests = NewError(10006, lang{en: "Too many requests", zh_cn: "请求过于频繁"})
	ErrorRegisterClosed  = NewError(10007, lang{en: "Registration is disabled", zh_cn: "注册功能未开放"})
)

// 用户与会话
var (
	ErrorNotUserAuthToken        = NewError(20001, lang{en: "Missing auth token", zh_cn: "缺少认证Token"})
	ErrorInvalidUserAuthToken    = NewError(20002, lang{en: "Invalid auth token", zh_cn: "认证Token无效"})
	ErrorUserNotFound            = NewError(20003, lang{en: "User not found", zh_cn: "用户不存在"})
	ErrorUserAlreadyExists       = NewError(20004, lang{en: "Username already exists", zh_cn: "用户名已存在"})
	ErrorUserUsernameNotValid    = NewError(20005, lang{en: "Username is not valid", zh_cn: "用户名不合法"})
	ErrorUserPasswordNotMatch    = NewError(20006, lang{en: "Passwords do not match", zh_cn: "两次密码不一致"})
	ErrorUserLoginPasswordFailed = NewError(20007, lang{en: "Wrong username or password", zh_cn: "用户名或密码错误"})
	ErrorPasswordNotValid        = NewError(20008, lang{en: "Password is not valid", zh_cn: "密码不合法"})
	ErrorSessionNotFound         = NewError(20009, lang{en: "Session expired or not found", zh_cn: "会话已过期或不存在"})
)

// 笔记与分类
var (
	ErrorNoteNotFound        = NewError(30001, lang{en: "Note not found", zh_cn: "笔记不存在"})
	ErrorCategoryNotFound    = NewError(30002, lang{en: "Category not found", zh_cn: "分类不存在"})
	ErrorCategoryNameExists  = NewError(30003, lang{en: "Category name already exists", zh_cn: "分类名称已存在"})
	ErrorImportFormat        = NewError(30004, lang{en: "Import document format not recognized", zh_cn: "导入文档格式无法识别"})
	ErrorExportFailed        = NewError(30005, lang{en: "Export failed", zh_cn: "导出失败"})
)

// 持久层与缓存
var (
	ErrorStorageQuota       = NewError(40001, lang{en: "Primary store write failed (quota or IO)", zh_cn: "主存储写入失败（容量或IO）"})
	ErrorStorageMirror      = NewError(40002, lang{en: "Mirror store write failed", zh_cn: "镜像存储写入失败"})
	ErrorInvalidStorageType = NewError(40003, lang{en: "Invalid storage type", zh_cn: "存储类型无效"})
	ErrorCacheEntryNotFound = NewError(40004, lang{en: "Cache entry not found", zh_cn: "缓存条目不存在"})
	ErrorResourceOffline    = NewError(40005, lang{en: "Resource unavailable offline", zh_cn: "离线状态下资源不可用"})
)

// 跨实例消息
var (
	ErrorUnknownMessageType = NewError(50001, lang{en: "Unknown control message type", zh_cn: "未知的控制消息类型"})
	ErrorCacheClearFailed   = NewError(50002, lang{en: "Cache purge failed", zh_cn: "缓存清除失败"})
)
