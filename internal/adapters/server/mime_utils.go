package server

import (
	"bytes"
	"encoding/base64"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"net/textproto"
	"regexp"
	"strings"
)

var linkPattern = regexp.MustCompile(`(?i)https?://[^\s<>"'()\[\]{}]+`)

// extractTextFromMessage extracts the text and HTML content from an email message.
// Nested multiparts are walked and attachments skipped.
func extractTextFromMessage(msg *mail.Message) (string, error) {
	var text bytes.Buffer
	header := textproto.MIMEHeader(msg.Header)
	if err := collectText(&text, header, msg.Body); err != nil {
		if text.Len() > 0 {
			// Keep what was readable before the broken part
			return text.String(), nil
		}
		return "", err
	}
	return text.String(), nil
}

func collectText(out *bytes.Buffer, header textproto.MIMEHeader, body io.Reader) error {
	mediaType, params, err := mime.ParseMediaType(header.Get("Content-Type"))
	if err != nil {
		// Missing or unparsable Content-Type is treated as plain text
		mediaType = "text/plain"
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		boundary, ok := params["boundary"]
		if !ok {
			return readPart(out, header, body)
		}
		mr := multipart.NewReader(body, boundary)
		for {
			part, err := mr.NextPart()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return err
			}
			if err := collectText(out, part.Header, part); err != nil {
				return err
			}
		}
	}

	if !strings.HasPrefix(mediaType, "text/") {
		return nil
	}
	if strings.HasPrefix(strings.ToLower(header.Get("Content-Disposition")), "attachment") {
		return nil
	}
	return readPart(out, header, body)
}

func readPart(out *bytes.Buffer, header textproto.MIMEHeader, body io.Reader) error {
	switch strings.ToLower(strings.TrimSpace(header.Get("Content-Transfer-Encoding"))) {
	case "base64":
		body = base64.NewDecoder(base64.StdEncoding, body)
	case "quoted-printable":
		body = quotedprintable.NewReader(body)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	out.Write(data)
	out.WriteString("\n")
	return nil
}

// extractLinks returns the unique http(s) links in text in order of
// appearance, at most limit of them
func extractLinks(text string, limit int) []string {
	seen := make(map[string]bool)
	links := make([]string, 0)
	for _, link := range linkPattern.FindAllString(text, -1) {
		link = strings.TrimRight(link, ".,;:!?")
		if seen[link] {
			continue
		}
		seen[link] = true
		links = append(links, link)
		if limit > 0 && len(links) == limit {
			break
		}
	}
	return links
}
