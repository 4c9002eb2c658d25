package device

import (
	"fmt"
	"sync"
)

const (
	// MinorBits is the width of the minor part of a Dev.
	MinorBits = 20
	// MaxMajor is the largest major number a Region may hand out.
	MaxMajor = 511

	minorMask = 1<<MinorBits - 1
)

// Dev is a device number: major in the high bits, minor in the low MinorBits.
type Dev uint32

// MkDev builds a device number.
func MkDev(major, minor uint32) Dev {
	return Dev(major<<MinorBits | minor&minorMask)
}

// Major returns the major part.
func (d Dev) Major() uint32 { return uint32(d) >> MinorBits }

// Minor returns the minor part.
func (d Dev) Minor() uint32 { return uint32(d) & minorMask }

// String formats the number as "major:minor".
func (d Dev) String() string {
	return fmt.Sprintf("%d:%d", d.Major(), d.Minor())
}

// Region allocates major numbers from the window [base, base+count).
// Allocation starts at the top of the window and works down.
type Region struct {
	mu    sync.Mutex
	base  uint32
	count uint32
	owner map[uint32]string
}

// NewRegion creates an allocator over count majors starting at base.
func NewRegion(base, count uint32) (*Region, error) {
	if base == 0 || count == 0 || uint64(base)+uint64(count)-1 > MaxMajor {
		return nil, fmt.Errorf("%w: base %d count %d", ErrInvalidRegion, base, count)
	}
	return &Region{
		base:  base,
		count: count,
		owner: make(map[uint32]string),
	}, nil
}

// Alloc reserves a free major for name and returns its first device number.
func (r *Region) Alloc(name string) (Dev, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for major := r.base + r.count - 1; major >= r.base; major-- {
		if _, taken := r.owner[major]; !taken {
			r.owner[major] = name
			return MkDev(major, 0), nil
		}
	}
	return 0, fmt.Errorf("%w in %d..%d", ErrRegionExhausted, r.base, r.base+r.count-1)
}

// Unregister returns the major of dev to the pool.
func (r *Region) Unregister(dev Dev) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.owner[dev.Major()]; !ok {
		return fmt.Errorf("%w: major %d", ErrNotRegistered, dev.Major())
	}
	delete(r.owner, dev.Major())
	return nil
}

// Owner reports which name holds a major.
func (r *Region) Owner(major uint32) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name, ok := r.owner[major]
	return name, ok
}
