package code

import (
	"errors"
	"sync/atomic"
)

// lang stores the English and Chinese text of a code
// lang 存储错误码的英文和中文文本
type lang struct {
	en    string // English // 英文
	zh_cn string // Chinese // 中文
}

const FALLBACK_LNG = "en"

var supportedLanguages = []string{"en", "zh_cn"}

// Default language is English // 默认语言为英文
var lng atomic.Value

func init() {
	lng.Store(FALLBACK_LNG)
}

// GetMessage returns the message in the global language, falling back to English
// GetMessage 按全局语言返回消息，缺失时回退到英文
func (l lang) GetMessage() string {
	if GetGlobalDefaultLang() == "zh_cn" && l.zh_cn != "" {
		return l.zh_cn
	}
	return l.en
}

// GetSupportedLanguages returns all supported language names
// GetSupportedLanguages 返回支持的语言列表
func GetSupportedLanguages() []string {
	return append([]string{}, supportedLanguages...)
}

// SetGlobalDefaultLang sets the global language, unknown values reset to English
// SetGlobalDefaultLang 设置全局语言，不支持的语言重置为英文
func SetGlobalDefaultLang(language string) error {
	for _, l := range supportedLanguages {
		if l == language {
			lng.Store(language)
			return nil
		}
	}
	lng.Store(FALLBACK_LNG)
	return errors.New("unsupported language type, set defaulting to " + FALLBACK_LNG)
}

// GetGlobalDefaultLang gets the global language
// GetGlobalDefaultLang 获取全局语言
func GetGlobalDefaultLang() string {
	return lng.Load().(string)
}
