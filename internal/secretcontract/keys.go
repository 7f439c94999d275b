package secretcontract

import "strings"

var sensitiveKeyMarkers = []string{
	"SECRET",
	"PASSWORD",
	"PASSWD",
	"TOKEN",
	"PRIVATE",
	"CREDENTIAL",
	"API_KEY",
	"APIKEY",
	"ACCESS_KEY",
	"SERVICE_ROLE",
	"DSN",
}

var publicKeyPrefixes = []string{
	"NEXT_PUBLIC_",
	"VITE_",
	"PUBLIC_",
	"EXPO_PUBLIC_",
}

// IsSensitiveKey guesses whether an environment variable name holds a credential.
// It drives the default answer of the "mark as secret" prompt.
func IsSensitiveKey(key string) bool {
	upper := strings.ToUpper(key)
	for _, prefix := range publicKeyPrefixes {
		if strings.HasPrefix(upper, prefix) {
			return false
		}
	}
	for _, part := range strings.Split(upper, "_") {
		switch part {
		case "KEY", "PASS", "PWD":
			return true
		}
	}
	for _, marker := range sensitiveKeyMarkers {
		if strings.Contains(upper, marker) {
			return true
		}
	}
	return false
}
