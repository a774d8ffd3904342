package capture

import (
	"fmt"
	"strings"
)

// HeaderPolicy decides what happens to the pre-declared header when a
// recording ends before reaching its target size.
type HeaderPolicy int

const (
	// HeaderPolicyPredeclared never touches the header after it was written,
	// so an aborted file keeps declaring the full target size.
	HeaderPolicyPredeclared = HeaderPolicy(iota)
	// HeaderPolicyRewriteOnAbort seeks back to offset 0 before closing an
	// aborted file and declares the bytes actually written.
	HeaderPolicyRewriteOnAbort
)

func (p HeaderPolicy) String() string {
	switch p {
	case HeaderPolicyPredeclared:
		return "predeclared"
	case HeaderPolicyRewriteOnAbort:
		return "rewrite-on-abort"
	default:
		return fmt.Sprintf("<unexpected_header_policy_%d>", int(p))
	}
}

func ParseHeaderPolicy(s string) (HeaderPolicy, error) {
	for _, p := range []HeaderPolicy{HeaderPolicyPredeclared, HeaderPolicyRewriteOnAbort} {
		if strings.EqualFold(s, p.String()) {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown header policy %q", s)
}

func (p HeaderPolicy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *HeaderPolicy) UnmarshalText(b []byte) error {
	v, err := ParseHeaderPolicy(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

type Buffering int

const (
	// BufferingSingle reads into one buffer and writes it out before the next
	// read; the peripheral must absorb the latency of one storage write.
	BufferingSingle = Buffering(iota)
	// BufferingDouble fills one buffer while the other one is being written.
	BufferingDouble
)

func (b Buffering) String() string {
	switch b {
	case BufferingSingle:
		return "single"
	case BufferingDouble:
		return "double"
	default:
		return fmt.Sprintf("<unexpected_buffering_%d>", int(b))
	}
}

func ParseBuffering(s string) (Buffering, error) {
	for _, b := range []Buffering{BufferingSingle, BufferingDouble} {
		if strings.EqualFold(s, b.String()) {
			return b, nil
		}
	}
	return 0, fmt.Errorf("unknown buffering mode %q", s)
}

func (b Buffering) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

func (b *Buffering) UnmarshalText(text []byte) error {
	v, err := ParseBuffering(string(text))
	if err != nil {
		return err
	}
	*b = v
	return nil
}

// Set and Type make the options usable as pflag values.

func (p *HeaderPolicy) Set(s string) error {
	return p.UnmarshalText([]byte(s))
}

func (*HeaderPolicy) Type() string {
	return "header-policy"
}

func (b *Buffering) Set(s string) error {
	return b.UnmarshalText([]byte(s))
}

func (*Buffering) Type() string {
	return "buffering"
}
