// Package i18n holds the English and Japanese strings the API returns to the
// site, and picks one of them from an Accept-Language header.
package i18n

import (
	"strings"

	"golang.org/x/text/language"
)

// Locale is a supported response language.
type Locale string

const (
	English  Locale = "en"
	Japanese Locale = "ja"
)

// DefaultLocale is used when nothing in Accept-Language matches.
const DefaultLocale = English

var matcher = language.NewMatcher([]language.Tag{
	language.English, // first entry is the fallback
	language.Japanese,
})

// Match picks the best supported locale for an Accept-Language header value.
func Match(acceptLanguage string) Locale {
	if strings.TrimSpace(acceptLanguage) == "" {
		return DefaultLocale
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return DefaultLocale
	}
	_, index, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return DefaultLocale
	}
	if index == 1 {
		return Japanese
	}
	return English
}

var labels = map[Locale]map[string]string{
	English: {
		"name":              "Name",
		"organization":      "Organization",
		"email":             "Email",
		"message":           "Message",
		"backgroundPurpose": "Background / Purpose",
		"dataType":          "Data Type",
		"dataDetails":       "Data Details",
		"dataVolume":        "Data Volume",
		"deadline":          "Deadline",
		"budget":            "Budget",
		"otherRequirements": "Other Requirements",
		"from":              "From",
		"to":                "To",
		"element":           "Element",
		"timestamp":         "Timestamp",
	},
	Japanese: {
		"name":              "お名前",
		"organization":      "ご所属",
		"email":             "メールアドレス",
		"message":           "お問い合わせ内容",
		"backgroundPurpose": "ご依頼の背景や目的",
		"dataType":          "必要なデータ種別",
		"dataDetails":       "データの詳細",
		"dataVolume":        "必要なデータ量",
		"deadline":          "ご希望の納期",
		"budget":            "ご予算目安",
		"otherRequirements": "その他、詳細やご要望",
		"from":              "遷移元",
		"to":                "遷移先",
		"element":           "要素",
		"timestamp":         "タイムスタンプ",
	},
}

// Label returns the display label of a form field, or the field name itself.
func Label(loc Locale, field string) string {
	if l, ok := labels[loc][field]; ok {
		return l
	}
	if l, ok := labels[DefaultLocale][field]; ok {
		return l
	}
	return field
}

// Message keys understood by Message.
const (
	MsgRequired    = "required"
	MsgMaxLength   = "max"
	MsgEmail       = "email"
	MsgDataType    = "datatype"
	MsgInvalidType = "type"
	MsgInvalid     = "invalid"
)

var messages = map[Locale]map[string]string{
	English: {
		MsgRequired:    "{field} is required",
		MsgMaxLength:   "{field} must be at most {max} characters",
		MsgEmail:       "Invalid email address",
		MsgDataType:    "Invalid data type",
		MsgInvalidType: "{field} has an invalid type",
		MsgInvalid:     "{field} is invalid",
	},
	Japanese: {
		MsgRequired:    "{field}は必須です",
		MsgMaxLength:   "{field}は{max}文字以内で入力してください",
		MsgEmail:       "無効なメールアドレスです",
		MsgDataType:    "無効なデータ種別です",
		MsgInvalidType: "{field}の形式が正しくありません",
		MsgInvalid:     "{field}が正しくありません",
	},
}

// Message renders a validation message for field. param fills {max}.
func Message(loc Locale, key, field, param string) string {
	tmpl, ok := messages[loc][key]
	if !ok {
		tmpl, ok = messages[DefaultLocale][key]
		if !ok {
			tmpl = messages[DefaultLocale][MsgInvalid]
		}
	}
	return strings.NewReplacer(
		"{field}", Label(loc, field),
		"{max}", param,
	).Replace(tmpl)
}
