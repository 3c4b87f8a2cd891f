package domain

// DefaultModel 未设置模型时使用的模型
const DefaultModel = "mistral-small-latest"

// Credential Mistral 凭证
type Credential struct {
	APIKey string
	Model  string
	// Valid 为 nil 表示尚未校验
	Valid *bool
}

// ModelOption 可选模型
type ModelOption struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Models 固定的模型列表
var Models = []ModelOption{
	{ID: "mistral-small-latest", Name: "Mistral Small (Latest)"},
	{ID: "pixtral-12b-2409", Name: "Pixtral 12B"},
	{ID: "open-codestral-mamba", Name: "Open Codestral Mamba"},
	{ID: "open-mistral-nemo", Name: "Open Mistral Nemo"},
}

// IsKnownModel 判断模型 ID 是否在列表中
func IsKnownModel(id string) bool {
	for _, m := range Models {
		if m.ID == id {
			return true
		}
	}
	return false
}

// CredentialStatus 凭证状态
type CredentialStatus struct {
	HasKey bool
	Valid  bool
	// Checked 表示 Valid 来自已完成的校验
	Checked bool
	// Revalidating 表示已在后台重新校验之前判定无效的密钥
	Revalidating bool
	Model        string
}
