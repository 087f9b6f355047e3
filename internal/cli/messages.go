package cli

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

const (
	msgSignedIn        = "Signed in as %s."
	msgSignedOut       = "You have been signed out."
	msgSessionExpired  = "Your session has expired. Please sign in again."
	msgRedirect        = "Redirecting to %s."
	msgLoginSuspended  = "Too many failed attempts. Login is temporarily suspended. Try again in %d seconds."
	msgLoginFailed     = "Sign-in failed: %s"
	msgAttemptsLeft    = "%d attempts left before login is suspended."
	msgLockCountdown   = "Login available in %d seconds."
	msgLoginAvailable  = "You can sign in again."
	msgPasswordPrompt  = "Password: "
	msgNoTerminal      = "No terminal to read the password from. Use --password-stdin."
	msgStatusState     = "Login throttle: %s"
	msgStatusFailures  = "Failed attempts: %d"
	msgStatusRemaining = "Suspended for another %d seconds"
	msgStatusSession   = "Session cookies stored: %d"
	msgStorageDegraded = "Attempt tracking is not persisted on this machine."
)

var thaiMessages = map[string]string{
	msgSignedIn:        "เข้าสู่ระบบในชื่อ %s แล้ว",
	msgSignedOut:       "ออกจากระบบเรียบร้อยแล้ว",
	msgSessionExpired:  "เซสชันหมดอายุ กรุณาเข้าสู่ระบบใหม่",
	msgRedirect:        "กำลังเปลี่ยนหน้าไปที่ %s",
	msgLoginSuspended:  "พยายามเข้าสู่ระบบผิดหลายครั้งเกินไป ระงับการเข้าสู่ระบบชั่วคราว กรุณาลองใหม่ในอีก %d วินาที",
	msgLoginFailed:     "เข้าสู่ระบบไม่สำเร็จ: %s",
	msgAttemptsLeft:    "เหลืออีก %d ครั้งก่อนถูกระงับการเข้าสู่ระบบ",
	msgLockCountdown:   "เข้าสู่ระบบได้อีกครั้งในอีก %d วินาที",
	msgLoginAvailable:  "สามารถเข้าสู่ระบบได้อีกครั้งแล้ว",
	msgPasswordPrompt:  "รหัสผ่าน: ",
	msgNoTerminal:      "ไม่พบเทอร์มินัลสำหรับอ่านรหัสผ่าน กรุณาใช้ --password-stdin",
	msgStatusState:     "สถานะการจำกัดการเข้าสู่ระบบ: %s",
	msgStatusFailures:  "จำนวนครั้งที่ผิดพลาด: %d",
	msgStatusRemaining: "ถูกระงับอีก %d วินาที",
	msgStatusSession:   "คุกกี้เซสชันที่บันทึกไว้: %d",
	msgStorageDegraded: "ไม่สามารถบันทึกจำนวนครั้งที่พยายามไว้ในเครื่องนี้ได้",
}

var cliCatalog = buildCatalog()

func buildCatalog() catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for key, th := range thaiMessages {
		_ = b.SetString(language.English, key, key)
		_ = b.SetString(language.Thai, key, th)
	}
	return b
}

func newPrinter(tag language.Tag) *message.Printer {
	return message.NewPrinter(tag, message.Catalog(cliCatalog))
}
