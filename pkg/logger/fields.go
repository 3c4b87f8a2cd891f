package logger

// 统一的日志字段命名常量
// 用于确保整个项目中日志字段命名的一致性，便于日志查询和分析
const (
	// FieldTraceID 追踪 ID 字段
	FieldTraceID = "traceId"

	// FieldUID 工作区 ID 字段
	FieldUID = "uid"

	// FieldMethod 方法名称字段
	FieldMethod = "method"

	// FieldKey 存储键字段
	FieldKey = "key"

	// FieldSurface 界面区域字段（analysis / links / qa ...）
	FieldSurface = "surface"

	// FieldKind 失败类型字段
	FieldKind = "kind"

	// FieldModel 模型名称字段
	FieldModel = "model"

	// FieldDuration 耗时字段
	FieldDuration = "duration"

	// FieldStatus HTTP 状态码字段
	FieldStatus = "status"

	// FieldBucket 存储桶名称字段
	FieldBucket = "bucket"

	// FieldFileKey 文件键字段
	FieldFileKey = "fileKey"
)
