package util

const (
	DateFormat = "2006-01-02"
	TimeFormat = "2006-01-02 15:04:05"
)

// Cookie 名称
const (
	SessionCookie  = "pulse_session"
	RedirectCookie = "redirectTo"
)

// 语音合成默认参数
const (
	DefaultTTSVoiceID = "1qEiC6qsybMkmnNdVMbK"
	DefaultTTSModelID = "eleven_turbo_v2_5"
)

var SupportedLanguages = []string{"English", "Hindi", "Tamil", "Bangla", "Gujarati", "Kannada"}
