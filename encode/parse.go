package encode

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/beevik/etree"
	"github.com/gbv/daia"
)

// ParseXML reads a DAIA XML document, with or without namespace. Unknown
// elements are ignored.
func ParseXML(r io.Reader) (*daia.Response, error) {
	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("parse xml: %w", err)
	}
	root := doc.Root()
	if root == nil || root.Tag != "daia" {
		return nil, fmt.Errorf("parse xml: missing daia root element")
	}
	resp := &daia.Response{Version: root.SelectAttrValue("version", "")}
	if ts := root.SelectAttrValue("timestamp", ""); ts != "" {
		t, err := time.Parse(time.RFC3339, ts)
		if err != nil {
			return nil, fmt.Errorf("parse xml: timestamp: %w", err)
		}
		resp.Timestamp = t
	}
	for _, el := range root.ChildElements() {
		switch el.Tag {
		case "institution":
			resp.Institution = parseElement(el)
		case "message":
			m, err := parseMessage(el)
			if err != nil {
				return nil, err
			}
			resp.Messages = append(resp.Messages, m)
		case "document":
			d, err := parseDocument(el)
			if err != nil {
				return nil, err
			}
			resp.Documents = append(resp.Documents, d)
		}
	}
	return resp, nil
}

func parseElement(el *etree.Element) *daia.Element {
	return &daia.Element{
		Content: el.Text(),
		ID:      el.SelectAttrValue("id", ""),
		Href:    el.SelectAttrValue("href", ""),
	}
}

func parseMessage(el *etree.Element) (daia.Message, error) {
	m := daia.Message{Content: el.Text(), Lang: el.SelectAttrValue("lang", "")}
	if v := el.SelectAttrValue("errno", ""); v != "" {
		errno, err := strconv.Atoi(v)
		if err != nil {
			return m, fmt.Errorf("parse xml: errno: %w", err)
		}
		m.Errno = errno
	}
	return m, nil
}

func parseDocument(el *etree.Element) (*daia.Document, error) {
	d := daia.NewDocument(el.SelectAttrValue("id", ""), el.SelectAttrValue("href", ""))
	for _, child := range el.ChildElements() {
		switch child.Tag {
		case "message":
			m, err := parseMessage(child)
			if err != nil {
				return nil, err
			}
			d.AddMessage(m)
		case "item":
			it, err := parseItem(child)
			if err != nil {
				return nil, err
			}
			d.AddItems(it)
		}
	}
	return d, nil
}

func parseItem(el *etree.Element) (*daia.Item, error) {
	it := &daia.Item{
		ID:       el.SelectAttrValue("id", ""),
		Href:     el.SelectAttrValue("href", ""),
		Fragment: el.SelectAttrValue("fragment", ""),
	}
	for _, child := range el.ChildElements() {
		switch child.Tag {
		case "message":
			m, err := parseMessage(child)
			if err != nil {
				return nil, err
			}
			it.AddMessage(m)
		case "label":
			it.Label = child.Text()
		case "department":
			it.Department = parseElement(child)
		case "storage":
			it.Storage = parseElement(child)
		case "available", "unavailable":
			s, err := daia.ParseService(child.SelectAttrValue("service", ""))
			if err != nil {
				return nil, fmt.Errorf("parse xml: %w", err)
			}
			a, err := parseAvailability(child)
			if err != nil {
				return nil, err
			}
			it.SetAvailability(s, a)
		}
	}
	return it, nil
}

func parseAvailability(el *etree.Element) (daia.Availability, error) {
	var (
		messages    []daia.Message
		limitations []daia.Element
	)
	for _, child := range el.ChildElements() {
		switch child.Tag {
		case "message":
			m, err := parseMessage(child)
			if err != nil {
				return nil, err
			}
			messages = append(messages, m)
		case "limitation":
			limitations = append(limitations, *parseElement(child))
		}
	}
	href := el.SelectAttrValue("href", "")
	if el.Tag == "available" {
		return &daia.Available{
			Href:        href,
			Messages:    messages,
			Limitations: limitations,
			Delay:       el.SelectAttrValue("delay", ""),
		}, nil
	}
	u := &daia.Unavailable{
		Href:        href,
		Messages:    messages,
		Limitations: limitations,
		Expected:    el.SelectAttrValue("expected", ""),
	}
	if v := el.SelectAttrValue("queue", ""); v != "" {
		q, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("parse xml: queue: %w", err)
		}
		u.Queue = &q
	}
	return u, nil
}
