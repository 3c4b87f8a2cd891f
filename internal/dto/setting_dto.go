package dto

// CredentialSaveRequest Request parameters for saving the Mistral key and model
// 保存 Mistral 密钥与模型参数
type CredentialSaveRequest struct {
	APIKey string `json:"apiKey" form:"apiKey"`
	Model  string `json:"model" form:"model" binding:"omitempty,oneof=mistral-small-latest pixtral-12b-2409 open-codestral-mamba open-mistral-nemo"`
}

// CredentialValidateRequest Parameters for validating a key without saving it
// 校验密钥参数
type CredentialValidateRequest struct {
	APIKey string `json:"apiKey" form:"apiKey"`
}

// CredentialDTO credential with the key masked
// CredentialDTO 凭证，密钥已打码
type CredentialDTO struct {
	APIKey string `json:"apiKey"`
	Model  string `json:"model"`
	Valid  *bool  `json:"valid"`
}

// CredentialStatusDTO key status shown by the settings panel
// CredentialStatusDTO 设置面板中的密钥状态
type CredentialStatusDTO struct {
	HasKey       bool   `json:"hasKey"`
	Valid        bool   `json:"valid"`
	Checked      bool   `json:"checked"`
	Revalidating bool   `json:"revalidating"`
	Model        string `json:"model"`
}

// CredentialValidDTO validation result
// CredentialValidDTO 校验结果
type CredentialValidDTO struct {
	Valid bool `json:"valid"`
}

// ModelOptionDTO selectable model
// ModelOptionDTO 可选模型
type ModelOptionDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
