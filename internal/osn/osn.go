// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package osn reads OpenStreetMap Notes (.osn) exports and converts them
// into note records. The whole document is held in memory.
//
// Conversion is lazy about field formats: coordinates and timestamps are kept
// as source text and only parsed by the filter stages that need them.
package osn

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/osn-filter/pkg/types"
)

// Extension is the only accepted input file extension.
const Extension = ".osn"

var (
	// ErrExtension is returned when the input path does not end in .osn.
	ErrExtension = errors.New("input must be an OpenStreetMap Notes file with .osn extension")

	// ErrRead is returned when the input file cannot be read.
	ErrRead = errors.New("cannot read input")

	// ErrDecode is returned when the input is not an osm-notes document.
	ErrDecode = errors.New("cannot parse input")
)

// Document is the decoded container: an osm-notes root holding note elements.
type Document struct {
	XMLName xml.Name  `xml:"osm-notes"`
	Notes   []Element `xml:"note"`
}

// Element is a note element as it appears in the document.
type Element struct {
	ID        string     `xml:"id,attr"`
	Lat       string     `xml:"lat,attr"`
	Lon       string     `xml:"lon,attr"`
	CreatedAt string     `xml:"created_at,attr"`
	ClosedAt  string     `xml:"closed_at,attr"`
	Other     []xml.Attr `xml:",any,attr"`
	Comments  []struct {
		Action    string `xml:"action,attr"`
		Timestamp string `xml:"timestamp,attr"`
		UID       string `xml:"uid,attr"`
		User      string `xml:"user,attr"`
		Text      string `xml:",chardata"`
	} `xml:"comment"`
}

// CheckExtension rejects any path whose extension is not exactly .osn.
func CheckExtension(path string) error {
	if filepath.Ext(path) != Extension {
		return fmt.Errorf("%s: %w", path, ErrExtension)
	}
	return nil
}

// ReadFile reads the whole input file.
func ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrRead, path, err)
	}
	return data, nil
}

// Decode parses an osm-notes document. The input must hold exactly one
// root element, osm-notes; text or further elements outside it are decode
// errors. Processing instructions, comments and directives are allowed.
func Decode(r io.Reader) (*Document, error) {
	d := xml.NewDecoder(r)

	var doc *Document
	for {
		tok, err := d.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecode, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if doc != nil {
				return nil, fmt.Errorf("%w: unexpected element <%s> after root", ErrDecode, t.Name.Local)
			}
			doc = &Document{}
			if err := d.DecodeElement(doc, &t); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrDecode, err)
			}
		case xml.CharData:
			if len(bytes.TrimSpace(t)) > 0 {
				return nil, fmt.Errorf("%w: text outside root element", ErrDecode)
			}
		}
	}

	if doc == nil {
		return nil, fmt.Errorf("%w: no root element", ErrDecode)
	}
	return doc, nil
}

// Convert turns a decoded document into note records in document order.
// A nil document or one without note elements yields an empty collection.
func Convert(doc *Document) []types.Note {
	if doc == nil || len(doc.Notes) == 0 {
		return []types.Note{}
	}

	notes := make([]types.Note, 0, len(doc.Notes))
	for _, el := range doc.Notes {
		n := types.Note{
			ID:        el.ID,
			Lat:       el.Lat,
			Lon:       el.Lon,
			CreatedAt: el.CreatedAt,
			ClosedAt:  el.ClosedAt,
		}
		if len(el.Other) > 0 {
			n.Attrs = make(map[string]string, len(el.Other))
			for _, a := range el.Other {
				n.Attrs[a.Name.Local] = a.Value
			}
		}
		for _, c := range el.Comments {
			n.Comments = append(n.Comments, types.Comment{
				Action:    c.Action,
				Timestamp: c.Timestamp,
				UID:       c.UID,
				User:      c.User,
				Text:      strings.TrimSpace(c.Text),
			})
		}
		notes = append(notes, n)
	}
	return notes
}

// Load checks the extension, reads and decodes path, and converts it.
func Load(path string) ([]types.Note, error) {
	if err := CheckExtension(path); err != nil {
		return nil, err
	}
	data, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return Convert(doc), nil
}
