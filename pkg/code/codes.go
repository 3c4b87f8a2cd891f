package code

// 成功码
var (
	Success       = NewSuss(1, lang{en: "Success", zh_cn: "成功"})
	SuccessCreate = NewSuss(2, lang{en: "Created successfully", zh_cn: "创建成功"})
	SuccessUpdate = NewSuss(3, lang{en: "Updated successfully", zh_cn: "更新成功"})
	SuccessDelete = NewSuss(4, lang{en: "Deleted successfully", zh_cn: "删除成功"})
)

// 通用错误码
var (
	Failed                     = NewError(300, lang{en: "Failed", zh_cn: "失败"})
	ErrorServerInternal        = NewError(500, lang{en: "Internal server error", zh_cn: "服务器内部错误"})
	ErrorInvalidParams         = NewError(501, lang{en: "Invalid params", zh_cn: "参数错误"})
	ErrorNotFoundAPI           = NewError(502, lang{en: "API not found", zh_cn: "接口不存在"})
	ErrorTooManyRequests       = NewError(503, lang{en: "Too many requests", zh_cn: "请求过多"})
	ErrorNotUserAuthToken      = NewError(504, lang{en: "Auth token is required", zh_cn: "缺少授权令牌"})
	ErrorInvalidUserAuthToken  = NewError(505, lang{en: "Invalid auth token", zh_cn: "授权令牌无效"})
	ErrorDBQuery               = NewError(506, lang{en: "Database query failed", zh_cn: "数据库查询失败"})
	ErrorStaleResponse         = NewError(507, lang{en: "A newer request replaced this one", zh_cn: "请求已被更新的请求取代"})
	ErrorRequestCanceled       = NewError(508, lang{en: "Request was canceled", zh_cn: "请求已取消"})
	ErrorInvalidStorageType    = NewError(509, lang{en: "Invalid storage type", zh_cn: "无效的存储类型"})
	ErrorExportDisabled        = NewError(510, lang{en: "Export storage is not enabled", zh_cn: "导出存储未启用"})
	ErrorExportFailed          = NewError(511, lang{en: "Export failed", zh_cn: "导出失败"})
	ErrorWebsocketUpgradeError = NewError(512, lang{en: "Websocket upgrade failed", zh_cn: "Websocket 升级失败"})
)

// 凭证与模型调用
var (
	ErrorAPIKeyMissing     = NewError(601, lang{en: "API key not found. Please set your Mistral API key in the settings.", zh_cn: "未找到 API 密钥，请在设置中填写 Mistral API 密钥。"})
	ErrorAPIKeyInvalid     = NewError(602, lang{en: "Invalid API key. Please check your Mistral API key in the settings.", zh_cn: "API 密钥无效，请在设置中检查 Mistral API 密钥。"})
	ErrorAPIKeyRejected    = NewError(603, lang{en: "The API key you provided is not valid. Please check and try again.", zh_cn: "提供的 API 密钥无效，请检查后重试。"})
	ErrorProvider          = NewError(604, lang{en: "Failed to get response from Mistral AI", zh_cn: "无法获取 Mistral AI 的响应"})
	ErrorProviderNetwork   = NewError(605, lang{en: "Unable to reach Mistral AI", zh_cn: "无法连接 Mistral AI"})
	ErrorMalformedResponse = NewError(606, lang{en: "The model returned an unreadable response", zh_cn: "模型返回的内容无法解析"})
	ErrorModelUnknown      = NewError(607, lang{en: "Unknown model", zh_cn: "未知模型"})
)

// 笔记与图谱
var (
	ErrorNoteEmpty      = NewError(701, lang{en: "Note content is empty", zh_cn: "笔记内容为空"})
	ErrorNoNotes        = NewError(702, lang{en: "No notes available", zh_cn: "没有可用的笔记"})
	ErrorNoValidContent = NewError(703, lang{en: "No valid content found in the file", zh_cn: "文件中没有有效内容"})
	ErrorGraphLoad      = NewError(704, lang{en: "Failed to load graph data", zh_cn: "加载图谱数据失败"})
)

// 主题
var (
	ErrorThemeNameRequired = NewError(801, lang{en: "Theme name is required", zh_cn: "主题名称不能为空"})
	ErrorThemeInvalidFile  = NewError(802, lang{en: "Invalid theme file format", zh_cn: "主题文件格式无效"})
	ErrorThemeMissingName  = NewError(803, lang{en: "Invalid theme format: missing name", zh_cn: "主题格式无效：缺少名称"})
	ErrorThemeBuiltin      = NewError(804, lang{en: "Built-in themes cannot be deleted", zh_cn: "内置主题不能删除"})
	ErrorThemeNotFound     = NewError(805, lang{en: "Theme not found", zh_cn: "主题不存在"})
)

// 插件
var (
	ErrorPluginNameRequired     = NewError(901, lang{en: "Plugin name is required", zh_cn: "插件名称不能为空"})
	ErrorPluginInvalidType      = NewError(902, lang{en: "Invalid plugin type", zh_cn: "插件类型无效"})
	ErrorPluginInvalidVersion   = NewError(903, lang{en: "Plugin version must be semantic (x.y.z)", zh_cn: "插件版本必须符合语义化版本 (x.y.z)"})
	ErrorPluginMissingLifecycle = NewError(904, lang{en: "Plugin must implement both activate() and deactivate() methods", zh_cn: "插件必须同时实现 activate() 与 deactivate() 方法"})
	ErrorPluginSyntax           = NewError(905, lang{en: "Plugin code has a syntax error", zh_cn: "插件代码存在语法错误"})
	ErrorPluginNotFound         = NewError(906, lang{en: "Plugin not found", zh_cn: "插件不存在"})
)
