package docxtemplate

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
)

type span struct {
	start int
	end   int
}

type element struct {
	outer       span
	open        span
	close       span
	selfClosing bool
}

type childElement struct {
	local string
	outer span
}

type runLocation struct {
	prefix   string
	run      element
	props    *element
	children []childElement
}

// runPropertyOrder is the CT_RPr child sequence.
var runPropertyOrder = []string{
	"rStyle", "rFonts", "b", "bCs", "i", "iCs", "caps", "smallCaps", "strike",
	"dstrike", "outline", "shadow", "emboss", "imprint", "noProof", "snapToGrid",
	"vanish", "webHidden", "color", "spacing", "w", "kern", "position", "sz",
	"szCs", "highlight", "u", "effect", "bdr", "shd", "fitText", "vertAlign",
	"rtl", "cs", "em", "lang", "eastAsianLayout", "specVanish", "oMath",
}

var replacedProperties = map[string]bool{"rFonts": true, "sz": true, "szCs": true}

func propertyRank(local string) int {
	if local == "rPrChange" {
		return len(runPropertyOrder) + 1
	}
	for i, name := range runPropertyOrder {
		if name == local {
			return i
		}
	}
	return len(runPropertyOrder)
}

func isWord(name xml.Name, local string) bool {
	return name.Space == wordNamespace && name.Local == local
}

// locateRun finds the first w:r directly under the first w:p of w:body.
func locateRun(data []byte) (runLocation, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))

	var (
		loc       runLocation
		props     element
		child     childElement
		stack     []xml.Name
		prev      int64
		paraSeen  bool
		inPara    bool
		inRun     bool
		inProps   bool
		haveProps bool
	)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return runLocation{}, err
		}
		start, end := int(prev), int(dec.InputOffset())
		prev = dec.InputOffset()

		switch t := tok.(type) {
		case xml.StartElement:
			stack = append(stack, t.Name)
			depth := len(stack)
			switch {
			case !paraSeen && depth == 3 && isWord(t.Name, "p") &&
				isWord(stack[0], "document") && isWord(stack[1], "body"):
				paraSeen, inPara = true, true
			case inPara && !inRun && depth == 4 && isWord(t.Name, "r"):
				inRun = true
				loc.prefix = tagPrefix(data[start:end])
				loc.run.outer.start = start
				loc.run.open = span{start, end}
			case inRun && !haveProps && depth == 5 && isWord(t.Name, "rPr"):
				inProps, haveProps = true, true
				props.outer.start = start
				props.open = span{start, end}
			case inProps && depth == 6:
				child = childElement{local: t.Name.Local, outer: span{start: start}}
			}
		case xml.EndElement:
			depth := len(stack)
			switch {
			case inProps && depth == 6:
				child.outer.end = end
				loc.children = append(loc.children, child)
			case inProps && depth == 5:
				inProps = false
				props.close = span{start, end}
				props.outer.end = end
				props.selfClosing = start == end
				p := props
				loc.props = &p
			case inRun && depth == 4:
				loc.run.close = span{start, end}
				loc.run.outer.end = end
				loc.run.selfClosing = start == end
				return loc, nil
			case inPara && depth == 3:
				return runLocation{}, ErrNoRun
			}
			if depth > 0 {
				stack = stack[:depth-1]
			}
		}
	}

	if !paraSeen {
		return runLocation{}, ErrNoParagraph
	}
	return runLocation{}, ErrNoRun
}

// tagPrefix reads the namespace prefix from a raw start tag such as "<w:r>".
func tagPrefix(raw []byte) string {
	name := bytes.TrimPrefix(raw, []byte("<"))
	if i := bytes.IndexAny(name, " \t\r\n/>"); i >= 0 {
		name = name[:i]
	}
	if i := bytes.IndexByte(name, ':'); i >= 0 {
		return string(name[:i])
	}
	return ""
}

func qualify(prefix, local string) string {
	if prefix == "" {
		return local
	}
	return prefix + ":" + local
}

func splice(data []byte, at span, replacement string) []byte {
	out := make([]byte, 0, len(data)-(at.end-at.start)+len(replacement))
	out = append(out, data[:at.start]...)
	out = append(out, replacement...)
	out = append(out, data[at.end:]...)
	return out
}

func escapeText(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

// expandRun rewrites a self-closing run as an open/close pair.
func expandRun(data []byte, loc runLocation) []byte {
	if !loc.run.selfClosing {
		return data
	}
	open := bytes.TrimSuffix(data[loc.run.open.start:loc.run.open.end], []byte("/>"))
	open = bytes.TrimRight(open, " \t\r\n")
	tag := qualify(loc.prefix, "r")
	return splice(data, loc.run.open, string(open)+">"+"</"+tag+">")
}

func setRunFont(data []byte, loc runLocation, face string, sizePt float64) []byte {
	q := func(local string) string { return qualify(loc.prefix, local) }
	halfPoints := strconv.Itoa(int(math.Round(sizePt * 2)))
	faceAttr := escapeText(face)

	type segment struct {
		local string
		raw   string
	}
	var segments []segment
	for _, c := range loc.children {
		if replacedProperties[c.local] {
			continue
		}
		segments = append(segments, segment{c.local, string(data[c.outer.start:c.outer.end])})
	}
	segments = append(segments,
		segment{"rFonts", "<" + q("rFonts") +
			" " + q("ascii") + `="` + faceAttr + `"` +
			" " + q("hAnsi") + `="` + faceAttr + `"` +
			" " + q("cs") + `="` + faceAttr + `"/>`},
		segment{"sz", "<" + q("sz") + " " + q("val") + `="` + halfPoints + `"/>`},
		segment{"szCs", "<" + q("szCs") + " " + q("val") + `="` + halfPoints + `"/>`},
	)
	sort.SliceStable(segments, func(i, j int) bool {
		return propertyRank(segments[i].local) < propertyRank(segments[j].local)
	})

	var b strings.Builder
	if loc.props != nil && !loc.props.selfClosing {
		b.Write(data[loc.props.open.start:loc.props.open.end])
	} else {
		b.WriteString("<" + q("rPr") + ">")
	}
	for _, s := range segments {
		b.WriteString(s.raw)
	}
	b.WriteString("</" + q("rPr") + ">")

	if loc.props != nil {
		return splice(data, loc.props.outer, b.String())
	}
	return splice(data, span{loc.run.open.end, loc.run.open.end}, b.String())
}

func appendRunText(data []byte, loc runLocation, text string) []byte {
	t := qualify(loc.prefix, "t")
	fragment := "<" + t + ` xml:space="preserve">` + escapeText(text) + "</" + t + ">"
	return splice(data, span{loc.run.close.start, loc.run.close.start}, fragment)
}

// placeholderRun edits the name run in place.
type placeholderRun struct {
	doc *Document
}

func (r *placeholderRun) SetFont(face string, sizePt float64) {
	r.doc.edit(expandRun)
	r.doc.edit(func(data []byte, loc runLocation) []byte {
		return setRunFont(data, loc, face, sizePt)
	})
}

func (r *placeholderRun) AppendText(text string) {
	r.doc.edit(expandRun)
	r.doc.edit(func(data []byte, loc runLocation) []byte {
		return appendRunText(data, loc, text)
	})
}
