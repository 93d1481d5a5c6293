package pagination

const (
	// DefaultSize is the standard page size when one is not provided.
	DefaultSize = 20
	// MaxSize caps how many rows any list query can request.
	MaxSize = 100
)

// Params holds page/size pagination inputs from controllers or services.
type Params struct {
	Page int
	Size int
}

// Normalize enforces the configured defaults and maximum size.
func (p Params) Normalize() Params {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.Size <= 0 {
		p.Size = DefaultSize
	}
	if p.Size > MaxSize {
		p.Size = MaxSize
	}
	return p
}

// Limit returns the row limit for the normalized page.
func (p Params) Limit() int {
	return p.Normalize().Size
}

// Offset returns the row offset for the normalized page.
func (p Params) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.Size
}
