package scraper

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/v0xg/hatter/internal/selector"
)

// Extract walks an HTML document and returns its form controls in document
// order: every input except hidden ones, textareas, selects and submit
// buttons.
func Extract(r io.Reader) (*Result, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Title:  collapse(doc.Find("title").First().Text()),
		Fields: []FormField{},
	}
	doc.Find("*").Each(func(_ int, s *goquery.Selection) {
		if f, ok := field(doc, s); ok {
			res.Fields = append(res.Fields, f)
		}
	})
	return res, nil
}

func field(doc *goquery.Document, s *goquery.Selection) (FormField, bool) {
	tag := goquery.NodeName(s)
	typ := strings.ToLower(strings.TrimSpace(s.AttrOr("type", "")))

	f := FormField{TagName: tag}
	switch tag {
	case "input":
		if typ == "hidden" {
			return f, false
		}
		if typ == "" {
			typ = "text"
		}
		f.Type = typ
		f.Value = s.AttrOr("value", "")
	case "textarea":
		f.Type = "textarea"
		f.Value = s.Text()
	case "select":
		f.Type = "select-one"
		if _, multi := s.Attr("multiple"); multi {
			f.Type = "select-multiple"
		}
		f.Options = options(s)
	case "button":
		if typ != "" && typ != "submit" {
			return f, false
		}
		f.Type = "submit"
		f.Value = s.AttrOr("value", "")
	default:
		return f, false
	}

	f.ID = s.AttrOr("id", "")
	f.Name = s.AttrOr("name", "")
	f.Placeholder = s.AttrOr("placeholder", "")
	_, f.Required = s.Attr("required")
	f.Selector = selectorFor(s, tag)
	f.Label = labelFor(doc, s, f)
	return f, true
}

func options(s *goquery.Selection) []Option {
	var opts []Option
	s.Find("option").Each(func(_ int, o *goquery.Selection) {
		text := strings.TrimSpace(o.Text())
		value, ok := o.Attr("value")
		if !ok {
			value = text
		}
		opts = append(opts, Option{Value: value, Text: text})
	})
	return opts
}

// selectorFor picks the most stable selector available: id, then name,
// then placeholder, then the first usable class, then position.
func selectorFor(s *goquery.Selection, tag string) string {
	if id := s.AttrOr("id", ""); id != "" {
		if validIdent(id) {
			return "#" + id
		}
		return selector.AttributeEquals("id", id)
	}
	if name := s.AttrOr("name", ""); name != "" {
		return tag + selector.AttributeEquals("name", name)
	}
	if ph := s.AttrOr("placeholder", ""); ph != "" {
		return tag + selector.AttributeEquals("placeholder", ph)
	}
	for _, cls := range strings.Fields(s.AttrOr("class", "")) {
		if validIdent(cls) {
			return tag + "." + cls
		}
	}

	pos := s.PrevAllFiltered(tag).Length() + 1
	if typ, ok := s.Attr("type"); ok {
		return fmt.Sprintf("%s%s:nth-of-type(%d)", tag, selector.AttributeEquals("type", typ), pos)
	}
	return fmt.Sprintf("%s:nth-of-type(%d)", tag, pos)
}

// validIdent reports whether s can be used after # or . without escaping.
func validIdent(s string) bool {
	if s == "" {
		return false
	}
	if isDigit(s[0]) || (len(s) > 1 && s[0] == '-' && isDigit(s[1])) {
		return false
	}
	return !strings.ContainsAny(s, ".:#[]()>~+*/\\\"' \t\n,=!$^|@%&{};?<`")
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// labelFor resolves a human label: label[for=id], an enclosing label,
// aria-label, then the placeholder.
func labelFor(doc *goquery.Document, s *goquery.Selection, f FormField) string {
	if f.ID != "" {
		var text string
		doc.Find("label").EachWithBreak(func(_ int, l *goquery.Selection) bool {
			if l.AttrOr("for", "") != f.ID {
				return true
			}
			text = collapse(l.Text())
			return false
		})
		if text != "" {
			return text
		}
	}
	if l := s.Closest("label"); l.Length() > 0 {
		c := l.Clone()
		c.Find("input, select, textarea, button").Remove()
		if text := collapse(c.Text()); text != "" {
			return text
		}
	}
	if aria := collapse(s.AttrOr("aria-label", "")); aria != "" {
		return aria
	}
	return f.Placeholder
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
