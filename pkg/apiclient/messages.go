package apiclient

import (
	"errors"
	"net/http"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// User-facing messages. The English text doubles as the catalog key.
const (
	MsgInvalidData   = "The submitted data is invalid. Please check it and try again."
	MsgUnauthorized  = "Your session has expired or you are not allowed to do this. Please sign in again."
	MsgNotFound      = "The requested data was not found."
	MsgServerError   = "The server ran into a problem. Please try again later."
	MsgCannotConnect = "Cannot connect to the server. Please check your connection."
	MsgUnknown       = "Something went wrong. Please try again."
)

var thaiMessages = map[string]string{
	MsgInvalidData:   "ข้อมูลไม่ถูกต้อง กรุณาตรวจสอบแล้วลองใหม่อีกครั้ง",
	MsgUnauthorized:  "เซสชันหมดอายุหรือไม่มีสิทธิ์เข้าถึง กรุณาเข้าสู่ระบบใหม่",
	MsgNotFound:      "ไม่พบข้อมูลที่ต้องการ",
	MsgServerError:   "เซิร์ฟเวอร์เกิดข้อผิดพลาด กรุณาลองใหม่ภายหลัง",
	MsgCannotConnect: "ไม่สามารถเชื่อมต่อเซิร์ฟเวอร์ได้ กรุณาตรวจสอบการเชื่อมต่อ",
	MsgUnknown:       "เกิดข้อผิดพลาดที่ไม่ทราบสาเหตุ กรุณาลองใหม่อีกครั้ง",
}

var (
	supportedLanguages = []language.Tag{language.English, language.Thai}
	languageMatcher    = language.NewMatcher(supportedLanguages)
	messageCatalog     = buildCatalog()
)

func buildCatalog() catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for key, th := range thaiMessages {
		_ = b.SetString(language.English, key, key)
		_ = b.SetString(language.Thai, key, th)
	}
	return b
}

// ParseLanguage maps a locale string such as "th" or "en-US" to one of the
// supported languages, defaulting to English.
func ParseLanguage(s string) language.Tag {
	tag, err := language.Parse(s)
	if err != nil {
		return language.English
	}
	_, idx, _ := languageMatcher.Match(tag)
	return supportedLanguages[idx]
}

// HandleAPIError turns any error from the client into an English message
// suitable for showing to the user.
func HandleAPIError(err error) string {
	return HandleAPIErrorIn(err, language.English)
}

// HandleAPIErrorIn is HandleAPIError in the given language. The result is
// never empty. A message sent by the server wins over the generic ones.
func HandleAPIErrorIn(err error, tag language.Tag) string {
	key := MsgUnknown

	var apiErr *APIError
	var netErr *NetworkError
	switch {
	case errors.As(err, &apiErr) && apiErr != nil:
		if apiErr.Message != "" {
			return apiErr.Message
		}
		key = messageForStatus(apiErr.StatusCode)
	case errors.As(err, &netErr) && netErr != nil:
		key = MsgCannotConnect
	}

	return Localize(tag, key)
}

func messageForStatus(status int) string {
	switch {
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return MsgInvalidData
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return MsgUnauthorized
	case status == http.StatusNotFound:
		return MsgNotFound
	case status >= http.StatusInternalServerError:
		return MsgServerError
	default:
		return MsgUnknown
	}
}

// Localize returns the translation of key, falling back to the English key
// itself.
func Localize(tag language.Tag, key string) string {
	_, idx, _ := languageMatcher.Match(tag)
	p := message.NewPrinter(supportedLanguages[idx], message.Catalog(messageCatalog))
	if msg := p.Sprintf(key); msg != "" {
		return msg
	}
	if key != "" {
		return key
	}
	return MsgUnknown
}
