// Package digest renders the unread notifications of an identity as a
// MIME mail message, suitable for piping into sendmail or saving as .eml.
package digest

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"

	"github.com/nhle/notification-sync/internal/model"
	"github.com/nhle/notification-sync/internal/store"
)

// fromAddress is the sender of every digest.
var fromAddress = &mail.Address{Name: "Notifications", Address: "notifications@notifysync.local"}

// Subject returns the digest subject line for n unread notifications.
func Subject(n int) string {
	switch n {
	case 0:
		return "No unread notifications"
	case 1:
		return "1 unread notification"
	default:
		return fmt.Sprintf("%d unread notifications", n)
	}
}

// Write renders the unread records as a multipart/alternative message
// addressed to the identity. Read records are ignored.
func Write(w io.Writer, identity model.Identity, records []model.Notification, now time.Time) error {
	unread, _ := store.Partition(records)

	var h mail.Header
	h.SetDate(now)
	h.SetAddressList("From", []*mail.Address{fromAddress})
	h.SetAddressList("To", []*mail.Address{{Name: identity.UserID, Address: identity.UserID + "@notifysync.local"}})
	h.SetSubject(Subject(len(unread)))
	if err := h.GenerateMessageID(); err != nil {
		return fmt.Errorf("generating message id: %w", err)
	}

	mw, err := mail.CreateWriter(w, h)
	if err != nil {
		return fmt.Errorf("creating digest writer: %w", err)
	}

	tw, err := mw.CreateInline()
	if err != nil {
		return fmt.Errorf("creating inline part: %w", err)
	}

	if err := writePart(tw, "text/plain", plainBody(unread)); err != nil {
		return err
	}
	if err := writePart(tw, "text/html", htmlBody(unread)); err != nil {
		return err
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("closing inline part: %w", err)
	}
	return mw.Close()
}

func writePart(tw *mail.InlineWriter, contentType, body string) error {
	var ph mail.InlineHeader
	ph.SetContentType(contentType, map[string]string{"charset": "utf-8"})

	pw, err := tw.CreatePart(ph)
	if err != nil {
		return fmt.Errorf("creating %s part: %w", contentType, err)
	}
	if _, err := io.WriteString(pw, body); err != nil {
		pw.Close()
		return fmt.Errorf("writing %s part: %w", contentType, err)
	}
	return pw.Close()
}

func plainBody(unread []model.Notification) string {
	if len(unread) == 0 {
		return "You are all caught up.\n"
	}

	var b strings.Builder
	for _, n := range unread {
		fmt.Fprintf(&b, "* [%s] %s\n", n.Kind, n.Title)
		if n.Message != "" {
			fmt.Fprintf(&b, "  %s\n", n.Message)
		}
		if n.HasRelatedEntity() {
			fmt.Fprintf(&b, "  ref: %s\n", n.RelatedEntityRef)
		}
		fmt.Fprintf(&b, "  %s\n", n.CreatedAt.UTC().Format(time.RFC1123))
	}
	return b.String()
}

func htmlBody(unread []model.Notification) string {
	if len(unread) == 0 {
		return "<p>You are all caught up.</p>\n"
	}

	var b strings.Builder
	b.WriteString("<ul>\n")
	for _, n := range unread {
		fmt.Fprintf(&b, "<li><strong>%s</strong>", html.EscapeString(n.Title))
		if n.Message != "" {
			fmt.Fprintf(&b, "<br>%s", html.EscapeString(n.Message))
		}
		b.WriteString("</li>\n")
	}
	b.WriteString("</ul>\n")
	return b.String()
}

// Parsed is a digest read back by Read.
type Parsed struct {
	Subject string
	Text    string
	HTML    string
}

// Read parses a digest produced by Write.
func Read(r io.Reader) (Parsed, error) {
	mr, err := mail.CreateReader(r)
	if err != nil {
		return Parsed{}, fmt.Errorf("reading digest: %w", err)
	}
	defer mr.Close()

	var out Parsed
	out.Subject, err = mr.Header.Subject()
	if err != nil {
		return Parsed{}, fmt.Errorf("reading subject: %w", err)
	}

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Parsed{}, fmt.Errorf("reading part: %w", err)
		}

		h, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		contentType, _, _ := h.ContentType()

		var body bytes.Buffer
		if _, err := io.Copy(&body, part.Body); err != nil {
			return Parsed{}, fmt.Errorf("reading %s body: %w", contentType, err)
		}

		switch contentType {
		case "text/plain":
			out.Text = body.String()
		case "text/html":
			out.HTML = body.String()
		}
	}

	return out, nil
}
