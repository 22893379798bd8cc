package svgclip

import (
	"encoding/xml"
	"errors"
	"io"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/Eryk-dev/svg-crop-api/svgpath"
)

var errNotSVG = errors.New("svgclip: document contains no svg element")

// percentage references, against the nearest enclosing viewport
type percentRef uint8

const (
	widthPercentage percentRef = iota
	heightPercentage
	diagPercentage
)

// frame is one entry of the traversal stack, indexed by document
// depth. Ancestor composition is root-to-leaf:
// effective = parent.effective · local.
type frame struct {
	m        svgpath.Matrix2D // effective transform at this element
	vpW, vpH float64          // nearest viewport dimensions
	ref      *pendingRef      // set when this element references a clipPath
}

// pendingRef is an element carrying a clip-path attribute, waiting to
// be paired with its definition once the whole document is read.
type pendingRef struct {
	clipID string
	m      svgpath.Matrix2D // effective transform at the referencing element
	image  *ImageRef        // owning image: the element itself or its first descendant image
}

// clipDef is a clipPath definition collected from the document.
type clipDef struct {
	id    string
	units ClipUnits
	rule  FillRule
	path  svgpath.Path
}

type docCursor struct {
	doc     *Document
	baseURL *url.URL

	stack []frame

	defs     map[string]*clipDef
	defOrder []string
	refs     []*pendingRef

	// clipPath definition being read, with its local transform stack
	curClip   *clipDef
	clipStack []svgpath.Matrix2D
}

func readDocument(stream io.Reader, baseURL string) (*Document, error) {
	c := &docCursor{
		doc:  &Document{},
		defs: make(map[string]*clipDef),
	}
	if baseURL != "" {
		u, err := url.Parse(baseURL)
		if err == nil {
			c.baseURL = u
		}
	}
	decoder := xml.NewDecoder(stream)
	decoder.CharsetReader = charset.NewReaderLabel
	seenSVG := false
	for {
		t, err := decoder.Token()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		switch se := t.(type) {
		case xml.StartElement:
			if se.Name.Local == "svg" {
				seenSVG = true
			}
			c.pushElement(se)
		case xml.EndElement:
			c.popElement(se)
		}
	}
	if !seenSVG {
		return nil, errNotSVG
	}
	c.buildRegions()
	return c.doc, nil
}

func (c *docCursor) top() frame {
	if len(c.stack) == 0 {
		return frame{m: svgpath.Identity, vpW: c.doc.Width, vpH: c.doc.Height}
	}
	return c.stack[len(c.stack)-1]
}

func attrValue(attrs []xml.Attr, name string) (string, bool) {
	for _, a := range attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

func (c *docCursor) pushElement(se xml.StartElement) {
	if c.curClip != nil {
		c.pushClipChild(se)
		return
	}

	parent := c.top()
	f := frame{m: parent.m, vpW: parent.vpW, vpH: parent.vpH}

	// Malformed or missing transform data resolves to identity
	// rather than failing the whole document.
	if v, ok := attrValue(se.Attr, "transform"); ok {
		if m, err := svgpath.ParseTransform(parent.m, v); err == nil {
			f.m = m
		}
	}

	switch se.Name.Local {
	case "svg":
		f = c.applyViewport(f, se.Attr, len(c.stack) == 0)
	case "clipPath":
		c.startClipDef(se.Attr, f)
	case "image":
		img := c.readImage(se.Attr, f)
		if img != nil {
			c.doc.Images = append(c.doc.Images, img)
			// the image belongs to the nearest open referencing
			// element that does not own one yet
			for i := len(c.stack) - 1; i >= 0; i-- {
				if r := c.stack[i].ref; r != nil && r.image == nil {
					r.image = img
					break
				}
			}
		}
	}

	if id, ok := clipRefID(se.Attr); ok && c.curClip == nil {
		ref := &pendingRef{clipID: id, m: f.m}
		if se.Name.Local == "image" && len(c.doc.Images) > 0 {
			ref.image = c.doc.Images[len(c.doc.Images)-1]
		}
		f.ref = ref
		c.refs = append(c.refs, ref)
	}

	c.stack = append(c.stack, f)
}

func (c *docCursor) popElement(se xml.EndElement) {
	if c.curClip != nil {
		if se.Name.Local == "clipPath" {
			c.finishClipDef()
			// fall through to pop the clipPath element frame
		} else {
			if len(c.clipStack) > 0 {
				c.clipStack = c.clipStack[:len(c.clipStack)-1]
			}
			return
		}
	}
	if len(c.stack) > 0 {
		c.stack = c.stack[:len(c.stack)-1]
	}
}

// applyViewport folds the viewBox to viewport mapping into the frame,
// at the document root and at any nested svg element.
func (c *docCursor) applyViewport(f frame, attrs []xml.Attr, isRoot bool) frame {
	var width, height float64
	var vb []float64
	if v, ok := attrValue(attrs, "width"); ok {
		width, _ = parseBasicFloat(v)
	}
	if v, ok := attrValue(attrs, "height"); ok {
		height, _ = parseBasicFloat(v)
	}
	if v, ok := attrValue(attrs, "viewBox"); ok {
		pts, err := svgpath.ParsePoints(v)
		if err == nil && len(pts) == 4 {
			vb = pts
		}
	}
	if !isRoot {
		// nested viewports are placed at x, y
		var x, y float64
		if v, ok := attrValue(attrs, "x"); ok {
			x, _ = parseBasicFloat(v)
		}
		if v, ok := attrValue(attrs, "y"); ok {
			y, _ = parseBasicFloat(v)
		}
		f.m = f.m.Translate(x, y)
	}

	if vb != nil {
		if width == 0 {
			width = vb[2]
		}
		if height == 0 {
			height = vb[3]
		}
		if vb[2] > 0 && vb[3] > 0 {
			f.m = f.m.Scale(width/vb[2], height/vb[3]).Translate(-vb[0], -vb[1])
		}
		f.vpW, f.vpH = vb[2], vb[3]
	} else {
		f.vpW, f.vpH = width, height
	}

	if isRoot {
		c.doc.Width, c.doc.Height = width, height
		if vb != nil {
			c.doc.ViewBox = Bounds{vb[0], vb[1], vb[2], vb[3]}
		} else {
			c.doc.ViewBox = Bounds{0, 0, width, height}
		}
		if c.doc.Width == 0 {
			c.doc.Width = c.doc.ViewBox.W
		}
		if c.doc.Height == 0 {
			c.doc.Height = c.doc.ViewBox.H
		}
	}
	return f
}

func (c *docCursor) readImage(attrs []xml.Attr, f frame) *ImageRef {
	img := &ImageRef{Transform: f.m}
	for _, attr := range attrs {
		var err error
		switch attr.Name.Local {
		case "href":
			// covers both href and xlink:href
			if img.Href == "" || attr.Name.Space != "" {
				img.Href = c.resolveHref(attr.Value)
			}
		case "x":
			img.X, err = c.parseUnit(attr.Value, f, widthPercentage)
		case "y":
			img.Y, err = c.parseUnit(attr.Value, f, heightPercentage)
		case "width":
			img.Width, err = c.parseUnit(attr.Value, f, widthPercentage)
		case "height":
			img.Height, err = c.parseUnit(attr.Value, f, heightPercentage)
		}
		if err != nil {
			return nil
		}
	}
	if img.Href == "" {
		return nil
	}
	return img
}

func (c *docCursor) resolveHref(href string) string {
	href = strings.TrimSpace(href)
	if c.baseURL == nil {
		return href
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	return c.baseURL.ResolveReference(u).String()
}

// clipRefID extracts the definition id from a clip-path="url(#id)"
// attribute.
func clipRefID(attrs []xml.Attr) (string, bool) {
	v, ok := attrValue(attrs, "clip-path")
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	if !strings.HasPrefix(v, "url(") || !strings.HasSuffix(v, ")") {
		return "", false
	}
	ref := strings.TrimSpace(v[4 : len(v)-1])
	if !strings.HasPrefix(ref, "#") || len(ref) < 2 {
		return "", false
	}
	return ref[1:], true
}

func (c *docCursor) startClipDef(attrs []xml.Attr, f frame) {
	def := &clipDef{units: UserSpaceOnUse, rule: NonZero}
	for _, attr := range attrs {
		switch attr.Name.Local {
		case "id":
			def.id = attr.Value
		case "clipPathUnits":
			if strings.TrimSpace(attr.Value) == "objectBoundingBox" {
				def.units = ObjectBoundingBox
			}
		case "clip-rule":
			if strings.TrimSpace(attr.Value) == "evenodd" {
				def.rule = EvenOdd
			}
		}
	}
	c.curClip = def
	// the clipPath element's own transform applies to its children
	base := svgpath.Identity
	if v, ok := attrValue(attrs, "transform"); ok {
		if m, err := svgpath.ParseTransform(svgpath.Identity, v); err == nil {
			base = m
		}
	}
	c.clipStack = []svgpath.Matrix2D{base}
}

func (c *docCursor) finishClipDef() {
	def := c.curClip
	c.curClip = nil
	c.clipStack = nil
	if def.id == "" {
		return
	}
	if _, dup := c.defs[def.id]; !dup {
		c.defs[def.id] = def
		c.defOrder = append(c.defOrder, def.id)
	}
}

// pushClipChild converts one shape inside a clipPath definition to
// path commands, folding the child's transform into the geometry.
func (c *docCursor) pushClipChild(se xml.StartElement) {
	local := svgpath.Identity
	if len(c.clipStack) > 0 {
		local = c.clipStack[len(c.clipStack)-1]
	}
	if v, ok := attrValue(se.Attr, "transform"); ok {
		if m, err := svgpath.ParseTransform(local, v); err == nil {
			local = m
		}
	}
	c.clipStack = append(c.clipStack, local)

	if v, ok := attrValue(se.Attr, "clip-rule"); ok {
		if strings.TrimSpace(v) == "evenodd" {
			c.curClip.rule = EvenOdd
		}
	}

	f := c.top()
	var p svgpath.Path
	switch se.Name.Local {
	case "rect":
		var x, y, w, h, rx, ry float64
		var err error
		for _, attr := range se.Attr {
			switch attr.Name.Local {
			case "x":
				x, err = c.parseUnit(attr.Value, f, widthPercentage)
			case "y":
				y, err = c.parseUnit(attr.Value, f, heightPercentage)
			case "width":
				w, err = c.parseUnit(attr.Value, f, widthPercentage)
			case "height":
				h, err = c.parseUnit(attr.Value, f, heightPercentage)
			case "rx":
				rx, err = c.parseUnit(attr.Value, f, widthPercentage)
			case "ry":
				ry, err = c.parseUnit(attr.Value, f, heightPercentage)
			}
			if err != nil {
				return
			}
		}
		if w == 0 || h == 0 {
			return
		}
		p.AddRoundRect(x, y, x+w, y+h, rx, ry)
	case "circle", "ellipse":
		var cx, cy, rx, ry float64
		var err error
		for _, attr := range se.Attr {
			switch attr.Name.Local {
			case "cx":
				cx, err = c.parseUnit(attr.Value, f, widthPercentage)
			case "cy":
				cy, err = c.parseUnit(attr.Value, f, heightPercentage)
			case "r":
				rx, err = c.parseUnit(attr.Value, f, diagPercentage)
				ry = rx
			case "rx":
				rx, err = c.parseUnit(attr.Value, f, widthPercentage)
			case "ry":
				ry, err = c.parseUnit(attr.Value, f, heightPercentage)
			}
			if err != nil {
				return
			}
		}
		if rx == 0 || ry == 0 { // not drawn, but not an error
			return
		}
		p.AddEllipse(cx, cy, rx, ry)
	case "polygon", "polyline":
		v, ok := attrValue(se.Attr, "points")
		if !ok {
			return
		}
		pts, err := svgpath.ParsePoints(v)
		if err != nil || len(pts)%2 != 0 {
			return
		}
		p.AddPolygon(pts, se.Name.Local == "polygon")
	case "path":
		v, ok := attrValue(se.Attr, "d")
		if !ok {
			return
		}
		var err error
		p, err = svgpath.CompilePath(v)
		if err != nil {
			return
		}
	default:
		return
	}
	c.curClip.path = append(c.curClip.path, applyMatrix(p, local)...)
}

// parseUnit converts a length attribute, resolving percentages
// against the nearest enclosing viewport dimension.
func (c *docCursor) parseUnit(v string, f frame, ref percentRef) (float64, error) {
	v = strings.TrimSpace(v)
	if strings.HasSuffix(v, "%") {
		n, err := parseBasicFloat(strings.TrimSuffix(v, "%"))
		if err != nil {
			return 0, err
		}
		switch ref {
		case widthPercentage:
			return n / 100 * f.vpW, nil
		case heightPercentage:
			return n / 100 * f.vpH, nil
		default:
			return n / 100 * (f.vpW + f.vpH) / 2, nil
		}
	}
	return parseBasicFloat(v)
}

func parseBasicFloat(v string) (float64, error) {
	v = strings.TrimSpace(v)
	for _, suffix := range [...]string{"px", "pt", "cm", "mm", "em"} {
		v = strings.TrimSuffix(v, suffix)
	}
	return strconv.ParseFloat(strings.TrimSpace(v), 64)
}
