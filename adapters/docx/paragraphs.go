package docxtemplate

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strconv"
)

// Paragraph is a flattened body paragraph.
type Paragraph struct {
	Align string
	Runs  []TextRun
}

// Text joins the paragraph's run text.
func (p Paragraph) Text() string {
	var buf bytes.Buffer
	for _, r := range p.Runs {
		buf.WriteString(r.Text)
	}
	return buf.String()
}

// TextRun is a run of text with the formatting renderers care about.
type TextRun struct {
	Text      string
	Font      string
	SizePt    float64
	Bold      bool
	Italic    bool
	Underline bool
	Color     string
}

// Paragraphs returns the body paragraphs in document order. Tables, headers
// and drawings are not included.
func (d *Document) Paragraphs() ([]Paragraph, error) {
	dec := xml.NewDecoder(bytes.NewReader(d.DocumentXML()))

	var (
		out   []Paragraph
		stack []xml.Name
		para  *Paragraph
		run   *TextRun
		inRPr bool
	)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			stack = append(stack, t.Name)
			depth := len(stack)

			if depth == 3 && isWord(t.Name, "p") && isWord(stack[1], "body") {
				out = append(out, Paragraph{})
				para = &out[len(out)-1]
				continue
			}
			if para == nil || t.Name.Space != wordNamespace {
				continue
			}

			switch t.Name.Local {
			case "jc":
				if run == nil && isWord(stack[depth-2], "pPr") {
					para.Align = wordAttr(t, "val")
				}
			case "r":
				para.Runs = append(para.Runs, TextRun{})
				run = &para.Runs[len(para.Runs)-1]
			case "rPr":
				inRPr = run != nil
			case "rFonts":
				if inRPr {
					run.Font = wordAttr(t, "ascii")
				}
			case "sz":
				if inRPr {
					if half, err := strconv.ParseFloat(wordAttr(t, "val"), 64); err == nil {
						run.SizePt = half / 2
					}
				}
			case "b":
				if inRPr {
					run.Bold = toggle(t)
				}
			case "i":
				if inRPr {
					run.Italic = toggle(t)
				}
			case "u":
				if inRPr {
					run.Underline = wordAttr(t, "val") != "none"
				}
			case "color":
				if inRPr {
					run.Color = wordAttr(t, "val")
				}
			case "tab":
				if run != nil && !inRPr {
					run.Text += "\t"
				}
			case "br", "cr":
				if run != nil {
					run.Text += "\n"
				}
			}
		case xml.CharData:
			if run != nil && len(stack) > 0 && isWord(stack[len(stack)-1], "t") {
				run.Text += string(t)
			}
		case xml.EndElement:
			depth := len(stack)
			if depth == 0 {
				continue
			}
			if isWord(t.Name, "rPr") {
				inRPr = false
			}
			if isWord(t.Name, "r") {
				run = nil
			}
			if depth == 3 && isWord(t.Name, "p") {
				para = nil
				run = nil
			}
			stack = stack[:depth-1]
		}
	}
	return out, nil
}

func wordAttr(el xml.StartElement, local string) string {
	for _, attr := range el.Attr {
		if attr.Name.Local == local && (attr.Name.Space == wordNamespace || attr.Name.Space == "") {
			return attr.Value
		}
	}
	return ""
}

func toggle(el xml.StartElement) bool {
	switch wordAttr(el, "val") {
	case "0", "false", "off":
		return false
	}
	return true
}
