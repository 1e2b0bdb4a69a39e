package gemini

// Gemini status codes. The engine emits 20, 50, 53 and 59 itself; any other code
// supplied by an application is written verbatim.
const (
	StatusInput                     = 10
	StatusSensitiveInput            = 11
	StatusSuccess                   = 20
	StatusRedirectTemporary         = 30
	StatusRedirectPermanent         = 31
	StatusTemporaryFailure          = 40
	StatusServerUnavailable         = 41
	StatusCGIError                  = 42
	StatusProxyError                = 43
	StatusSlowDown                  = 44
	StatusPermanentFailure          = 50
	StatusNotFound                  = 51
	StatusGone                      = 52
	StatusProxyRequestRefused       = 53
	StatusBadRequest                = 59
	StatusClientCertificateRequired = 60
	StatusCertificateNotAuthorized  = 61
	StatusCertificateNotValid       = 62
)

// Category groups status codes by their leading digit.
type Category string

const (
	CategoryInput       Category = "input"
	CategorySuccess     Category = "success"
	CategoryRedirect    Category = "redirect"
	CategoryTemporary   Category = "temporary_failure"
	CategoryPermanent   Category = "permanent_failure"
	CategoryCertificate Category = "certificate_required"
	CategoryUnknown     Category = "unknown"
)

func CategoryOf(status int) Category {
	if status < 10 || status > 69 {
		return CategoryUnknown
	}
	switch status / 10 {
	case 1:
		return CategoryInput
	case 2:
		return CategorySuccess
	case 3:
		return CategoryRedirect
	case 4:
		return CategoryTemporary
	case 5:
		return CategoryPermanent
	case 6:
		return CategoryCertificate
	default:
		return CategoryUnknown
	}
}
