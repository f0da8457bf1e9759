package imaging

import (
	"fmt"
	"image"

	"pixview/raster"
)

// View is a rectangular window on an image, addressed in local
// coordinates. Views share the image's pixels; the root view of an Image
// covers all of it.
type View struct {
	ctx    *Context
	buf    *raster.Buffer
	parent *View
	bounds image.Rectangle // in the parent's coordinates; unused for the root
}

func (v *View) isRoot() bool {
	return v.parent == nil
}

// Dimensions returns the declared size of the view. It stays available
// after the image is disposed.
func (v *View) Dimensions() (int, int) {
	if v.isRoot() {
		return v.buf.Width(), v.buf.Height()
	}
	return v.bounds.Dx(), v.bounds.Dy()
}

func (v *View) Width() int {
	w, _ := v.Dimensions()
	return w
}

func (v *View) Height() int {
	_, h := v.Dimensions()
	return h
}

// Bounds returns the view's rectangle in its parent's coordinates; for the
// root view that is the whole image.
func (v *View) Bounds() image.Rectangle {
	if v.isRoot() {
		return v.buf.Bounds()
	}
	return v.bounds
}

// ToAbsolute maps a local position to image coordinates.
func (v *View) ToAbsolute(p image.Point) image.Point {
	if v.isRoot() {
		return p
	}
	return v.parent.ToAbsolute(p.Add(v.bounds.Min))
}

// InBounds reports whether p lies inside the view and the image. It is
// false once the image has been disposed.
func (v *View) InBounds(p image.Point) bool {
	w, h := v.Dimensions()
	if p.X < 0 || p.Y < 0 || p.X >= w || p.Y >= h || v.buf.Disposed() {
		return false
	}
	abs := v.ToAbsolute(p)
	return v.buf.InBounds(abs.X, abs.Y)
}

// GetPixel returns a handle on the pixel at local position p. Only the
// image bounds are checked, so p may lie outside the view's own size where
// InBounds reports false; the view's size limits iteration, not access.
func (v *View) GetPixel(p image.Point) (*Pixel, error) {
	if v.buf.Disposed() {
		return nil, ErrDisposed
	}
	abs := v.ToAbsolute(p)
	if !v.buf.InBounds(abs.X, abs.Y) {
		return nil, fmt.Errorf("%w: %v maps to %v", raster.ErrOutOfBounds, p, abs)
	}
	return &Pixel{
		ctx:   v.ctx,
		color: v.buf.Descriptor(),
		src:   imageSource{buf: v.buf, x: abs.X, y: abs.Y},
	}, nil
}

// PutPixel copies the channels of px to local position p.
func (v *View) PutPixel(p image.Point, px *Pixel) error {
	ch, err := px.Channels()
	if err != nil {
		return err
	}
	dst, err := v.GetPixel(p)
	if err != nil {
		return err
	}
	return dst.SetChannels(ch)
}

// SubImage returns a view on r, given in local coordinates. Pixels are
// shared, not copied. r is not checked against the view's own size.
func (v *View) SubImage(r image.Rectangle) (*View, error) {
	if v.buf.Disposed() {
		return nil, ErrDisposed
	}
	if r.Min.X < 0 || r.Min.Y < 0 || r.Dx() <= 0 || r.Dy() <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBounds, r)
	}
	return &View{ctx: v.ctx, buf: v.buf, parent: v, bounds: r}, nil
}

// absRect is the view's rectangle in image coordinates.
func (v *View) absRect() image.Rectangle {
	w, h := v.Dimensions()
	origin := v.ToAbsolute(image.Point{})
	return image.Rect(origin.X, origin.Y, origin.X+w, origin.Y+h)
}

// ToImage copies the view into a new image of the same color type.
func (v *View) ToImage() (*Image, error) {
	if v.buf.Disposed() {
		return nil, ErrDisposed
	}
	w, h := v.Dimensions()
	img, err := v.ctx.NewImage(v.buf.ColorType(), w, h)
	if err != nil {
		return nil, err
	}
	if err := img.buf.CopyRegion(v.buf, v.absRect(), image.Point{}); err != nil {
		return nil, fmt.Errorf("could not copy view: %w", err)
	}
	return img, nil
}

// CopyWithin copies the local rectangle src to local position dst of the
// same image. Nothing is copied if either rectangle falls outside the image.
func (v *View) CopyWithin(src image.Rectangle, dst image.Point) error {
	abs := src.Add(v.ToAbsolute(src.Min).Sub(src.Min))
	ok, err := v.buf.CopyWithin(abs, v.ToAbsolute(dst))
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: cannot copy %v to %v", ErrDimensionMismatch, src, dst)
	}
	return nil
}

// CopyFrom copies all of other into v with its top-left corner at local
// position dst. other must fit inside v.
func (v *View) CopyFrom(other *View, dst image.Point) error {
	if v.buf.Disposed() || other.buf.Disposed() {
		return ErrDisposed
	}
	w, h := v.Dimensions()
	ow, oh := other.Dimensions()
	if dst.X < 0 || dst.Y < 0 || dst.X+ow > w || dst.Y+oh > h {
		return fmt.Errorf("%w: %dx%d at %v does not fit in %dx%d", ErrDimensionMismatch, ow, oh, dst, w, h)
	}
	if err := v.buf.CopyRegion(other.buf, other.absRect(), v.ToAbsolute(dst)); err != nil {
		return fmt.Errorf("could not copy view: %w", err)
	}
	return nil
}

// Pixels iterates over the view in row-major order.
func (v *View) Pixels() *PixelIterator {
	w, h := v.Dimensions()
	if w <= 0 {
		h = 0
	}
	return &PixelIterator{view: v, w: w, h: h}
}

// PixelIterator walks a view row by row. It is not restartable.
//
//	it := view.Pixels()
//	for it.Next() {
//		px := it.Pixel()
//		...
//	}
//	if err := it.Err(); err != nil {
//		...
//	}
type PixelIterator struct {
	view *View
	w, h int
	next image.Point
	pos  image.Point
	cur  *Pixel
	err  error
}

// Next advances to the next pixel. It returns false at the end of the view
// or on error.
func (it *PixelIterator) Next() bool {
	if it.err != nil || it.next.Y >= it.h {
		it.cur = nil
		return false
	}

	px, err := it.view.GetPixel(it.next)
	if err != nil {
		it.err, it.cur = err, nil
		return false
	}
	it.cur, it.pos = px, it.next

	it.next.X++
	if it.next.X == it.w {
		it.next.X = 0
		it.next.Y++
	}
	return true
}

func (it *PixelIterator) Pixel() *Pixel {
	return it.cur
}

// Position returns the local position of the current pixel.
func (it *PixelIterator) Position() image.Point {
	return it.pos
}

func (it *PixelIterator) Err() error {
	return it.err
}
