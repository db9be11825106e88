package form

// Messages is the set of user-facing validation texts for one locale.
type Messages struct {
	Required     string
	InvalidEmail string
	EmailTaken   string
}

var locales = map[string]Messages{
	"en": {
		Required:     "This field is required",
		InvalidEmail: "Must be a valid email",
		EmailTaken:   "Email already registered",
	},
	"ja": {
		Required:     "必須項目です",
		InvalidEmail: "有効なメールアドレスを入力してください",
		EmailTaken:   "このメールアドレスは既に登録されています",
	},
}

// MessagesFor returns the messages for locale, falling back to English.
func MessagesFor(locale string) Messages {
	if m, ok := locales[locale]; ok {
		return m
	}
	return locales["en"]
}
