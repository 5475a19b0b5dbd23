package docxtemplate

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strconv"
)

const twipsPerInch = 1440.0

// Page is the body section's page geometry in inches.
type Page struct {
	Width        float64
	Height       float64
	Landscape    bool
	MarginTop    float64
	MarginBottom float64
	MarginLeft   float64
	MarginRight  float64
}

// Page reads w:pgSz and w:pgMar from the final body-level w:sectPr. ok is
// false when the document does not declare a page size.
func (d *Document) Page() (page Page, ok bool, err error) {
	dec := xml.NewDecoder(bytes.NewReader(d.DocumentXML()))

	var stack []xml.Name
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Page{}, false, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			stack = append(stack, t.Name)
			depth := len(stack)
			if depth != 4 || !isWord(stack[1], "body") || !isWord(stack[2], "sectPr") {
				continue
			}
			switch {
			case isWord(t.Name, "pgSz"):
				page.Width = twipsAttr(t, "w")
				page.Height = twipsAttr(t, "h")
				page.Landscape = wordAttr(t, "orient") == "landscape" || page.Width > page.Height
				ok = page.Width > 0 && page.Height > 0
			case isWord(t.Name, "pgMar"):
				page.MarginTop = twipsAttr(t, "top")
				page.MarginBottom = twipsAttr(t, "bottom")
				page.MarginLeft = twipsAttr(t, "left")
				page.MarginRight = twipsAttr(t, "right")
			}
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}
	return page, ok, nil
}

func twipsAttr(el xml.StartElement, local string) float64 {
	v, err := strconv.ParseFloat(wordAttr(el, local), 64)
	if err != nil || v < 0 {
		return 0
	}
	return v / twipsPerInch
}
