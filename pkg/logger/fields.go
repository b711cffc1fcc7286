package logger

// 统一的日志字段命名常量
// 用于确保整个项目中日志字段命名的一致性，便于日志查询和分析
const (
	// FieldTraceID 追踪 ID 字段
	FieldTraceID = "traceId"

	// FieldUID 用户 ID 字段
	FieldUID = "uid"

	// FieldUsername 用户名字段
	FieldUsername = "username"

	// FieldAction 操作类型字段
	FieldAction = "action"

	// FieldNoteID 笔记 ID 字段
	FieldNoteID = "noteId"

	// FieldKey 持久化键字段
	FieldKey = "key"

	// FieldGeneration 缓存代字段
	FieldGeneration = "generation"

	// FieldURL 请求地址字段
	FieldURL = "url"

	// FieldClass 请求分类字段
	FieldClass = "class"

	// FieldDuration 耗时字段
	FieldDuration = "duration"

	// FieldMethod 方法名称字段
	FieldMethod = "method"

	// FieldError 错误信息字段
	FieldError = "error"

	// FieldSize 内容大小字段
	FieldSize = "size"

	// FieldBucket 存储桶名称字段
	FieldBucket = "bucket"
)
