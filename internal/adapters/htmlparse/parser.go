package htmlparse

import (
	"bytes"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	nethtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/mikey/phishing-detector/internal/core"
)

// Parser extracts forms and visible text from HTML documents
type Parser struct {
	policy *bluemonday.Policy
}

// New creates a new HTML parser
func New() *Parser {
	policy := bluemonday.StrictPolicy()
	policy.AddSpaceWhenStrippingTag(true)
	return &Parser{policy: policy}
}

// ExtractForms returns each form with its fields; inputs outside any form
// end up in one trailing form with no action
func (p *Parser) ExtractForms(body []byte) ([]core.Form, error) {
	doc, err := nethtml.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, core.BadData("parse html: %v", err)
	}

	var forms []core.Form
	var orphans []core.FormInput

	var walk func(n *nethtml.Node, form *core.Form)
	walk = func(n *nethtml.Node, form *core.Form) {
		if n.Type == nethtml.ElementNode {
			switch n.DataAtom {
			case atom.Form:
				forms = append(forms, core.Form{
					Action: attr(n, "action"),
					Method: strings.ToUpper(attr(n, "method")),
				})
				idx := len(forms) - 1
				for c := n.FirstChild; c != nil; c = c.NextSibling {
					walk(c, &forms[idx])
				}
				return
			case atom.Input, atom.Select, atom.Textarea:
				in := core.FormInput{Type: fieldType(n), Name: attr(n, "name")}
				if form != nil {
					form.Inputs = append(form.Inputs, in)
				} else {
					orphans = append(orphans, in)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, form)
		}
	}
	walk(doc, nil)

	if len(orphans) > 0 {
		forms = append(forms, core.Form{Inputs: orphans})
	}
	return forms, nil
}

// ExtractText returns the visible text of the document with whitespace collapsed
func (p *Parser) ExtractText(body []byte) (string, error) {
	stripped := p.policy.SanitizeBytes(dropInvisible(body))
	text := html.UnescapeString(string(stripped))
	return strings.Join(strings.Fields(text), " "), nil
}

// dropInvisible removes script and style contents so they do not read as page text
func dropInvisible(body []byte) []byte {
	doc, err := nethtml.Parse(bytes.NewReader(body))
	if err != nil {
		return body
	}

	var remove []*nethtml.Node
	var walk func(n *nethtml.Node)
	walk = func(n *nethtml.Node) {
		if n.Type == nethtml.ElementNode {
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Noscript, atom.Template:
				remove = append(remove, n)
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	for _, n := range remove {
		n.Parent.RemoveChild(n)
	}

	var buf bytes.Buffer
	if err := nethtml.Render(&buf, doc); err != nil {
		return body
	}
	return buf.Bytes()
}

func fieldType(n *nethtml.Node) string {
	switch n.DataAtom {
	case atom.Select:
		return "select"
	case atom.Textarea:
		return "textarea"
	}
	t := strings.ToLower(strings.TrimSpace(attr(n, "type")))
	if t == "" {
		return "text"
	}
	return t
}

func attr(n *nethtml.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
