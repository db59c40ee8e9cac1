package notify

import (
	"encoding/base64"
	"encoding/json"
)

// flashToast is the compact form of a toast carried across a redirect.
type flashToast struct {
	Level   Level  `json:"l"`
	Message string `json:"m"`
}

// EncodeFlash encodes toasts to a base64 string suitable for a cookie value.
func EncodeFlash(toasts []Toast) string {
	if len(toasts) == 0 {
		return ""
	}
	data := make([]flashToast, 0, len(toasts))
	for _, t := range toasts {
		data = append(data, flashToast{Level: t.Level, Message: t.Message})
	}
	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return ""
	}
	return base64.URLEncoding.EncodeToString(jsonBytes)
}

// DecodeFlash decodes a flash cookie value and pushes its toasts on q.
func DecodeFlash(value string, q *Queue) error {
	if value == "" {
		return nil
	}

	decoded, err := base64.URLEncoding.DecodeString(value)
	if err != nil {
		return err
	}

	var data []flashToast
	if err := json.Unmarshal(decoded, &data); err != nil {
		return err
	}
	for _, t := range data {
		q.Push(t.Level, t.Message)
	}
	return nil
}
