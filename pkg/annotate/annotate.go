// Package annotate adds internal link annotations to a PDF and writes the
// result.
package annotate

import (
	"fmt"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/pyhub-apps/pdflinker/pkg/pdf"
)

// NewConfiguration returns a pdfcpu configuration tolerant of the minor
// defects common in published documents
func NewConfiguration() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// Output is a document opened for adding links
type Output struct {
	ctx   *model.Context
	links int
}

// Open reads and validates a PDF. A nil conf uses NewConfiguration.
func Open(r io.ReadSeeker, conf *model.Configuration) (*Output, error) {
	if conf == nil {
		conf = NewConfiguration()
	}

	ctx, err := api.ReadContext(r, conf)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF context: %w", err)
	}

	if err := api.ValidateContext(ctx); err != nil {
		return nil, fmt.Errorf("invalid PDF: %w", err)
	}

	return &Output{ctx: ctx}, nil
}

// PageCount returns the total number of pages
func (o *Output) PageCount() int {
	return o.ctx.PageCount
}

// LinkCount returns the number of links added so far
func (o *Output) LinkCount() int {
	return o.links
}

// MediaBox returns the boundaries of the page at index (0-based)
func (o *Output) MediaBox(index int) (pdf.Rect, error) {
	_, _, attrs, err := o.pageDict(index)
	if err != nil {
		return pdf.Rect{}, err
	}
	if attrs == nil || attrs.MediaBox == nil {
		return pdf.Rect{X0: 0, Y0: 0, X1: 612, Y1: 792}, nil
	}
	box := attrs.MediaBox
	return pdf.NewRect(box.LL.X, box.LL.Y, box.UR.X, box.UR.Y), nil
}

func (o *Output) pageDict(index int) (types.Dict, *types.IndirectRef, *model.InheritedPageAttrs, error) {
	if index < 0 || index >= o.ctx.PageCount {
		return nil, nil, nil, fmt.Errorf("%w: %d not in [0, %d)", ErrPageOutOfRange, index, o.ctx.PageCount)
	}

	pageDict, pageRef, attrs, err := o.ctx.PageDict(index+1, false)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to get page dict: %w", err)
	}
	if pageDict == nil || pageRef == nil {
		return nil, nil, nil, fmt.Errorf("page %d not found", index+1)
	}
	return pageDict, pageRef, attrs, nil
}

// AddLink places a link over rect on page from that jumps to page to. The
// view is positioned at the top-left corner of dest, or left unchanged
// when dest is zero.
func (o *Output) AddLink(from int, rect pdf.Rect, to int, dest pdf.Rect) error {
	if rect.IsZero() {
		return ErrNotLinkable
	}

	pageDict, _, _, err := o.pageDict(from)
	if err != nil {
		return err
	}
	_, targetRef, _, err := o.pageDict(to)
	if err != nil {
		return err
	}

	annotRef, err := o.ctx.IndRefForNewObject(linkDict(rect, *targetRef, dest))
	if err != nil {
		return fmt.Errorf("failed to add annotation object: %w", err)
	}

	annots, err := o.annots(pageDict)
	if err != nil {
		return err
	}
	pageDict["Annots"] = append(annots, *annotRef)

	o.links++
	return nil
}

// annots returns a copy of the page's annotation array, resolving an
// indirect reference if needed
func (o *Output) annots(pageDict types.Dict) (types.Array, error) {
	obj, found := pageDict["Annots"]
	if !found || obj == nil {
		return types.Array{}, nil
	}

	arr, err := o.ctx.DereferenceArray(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to dereference annotations: %w", err)
	}

	annots := make(types.Array, len(arr), len(arr)+1)
	copy(annots, arr)
	return annots, nil
}

// linkDict builds an invisible link annotation with an explicit /XYZ destination
func linkDict(rect pdf.Rect, target types.IndirectRef, dest pdf.Rect) types.Dict {
	var left, top types.Object
	if !dest.IsZero() {
		left = types.Float(dest.X0)
		top = types.Float(dest.Y1)
	}

	return types.Dict(map[string]types.Object{
		"Type":    types.Name("Annot"),
		"Subtype": types.Name("Link"),
		"Rect":    types.NewNumberArray(rect.X0, rect.Y0, rect.X1, rect.Y1),
		"F":       types.Integer(4),
		"Border":  types.NewIntegerArray(0, 0, 0),
		"H":       types.Name("I"),
		"Dest":    types.Array{target, types.Name("XYZ"), left, top, nil},
	})
}

// Write serializes the document with its new annotations
func (o *Output) Write(w io.Writer) error {
	if err := api.WriteContext(o.ctx, w); err != nil {
		return fmt.Errorf("failed to write PDF: %w", err)
	}
	return nil
}
