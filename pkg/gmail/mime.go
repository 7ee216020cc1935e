package gmail

import (
	"bytes"
	"encoding/base64"

	"github.com/rotisserie/eris"
	"gopkg.in/gomail.v2"
)

// BuildRawMessage assembles a multipart MIME message and encodes it
// base64url as the drafts endpoint expects. textBody is optional; when
// present the HTML part is attached as the alternative.
func BuildRawMessage(from, to, subject, htmlBody, textBody string) (string, error) {
	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)

	if textBody != "" {
		m.SetBody("text/plain", textBody)
		m.AddAlternative("text/html", htmlBody)
	} else {
		m.SetBody("text/html", htmlBody)
	}

	var buf bytes.Buffer
	if _, err := m.WriteTo(&buf); err != nil {
		return "", eris.Wrap(err, "gmail: write mime message")
	}

	return base64.URLEncoding.EncodeToString(buf.Bytes()), nil
}
