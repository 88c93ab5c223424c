package jwt

// Header parameter names, RFC 7515 section 4.1
const (
	HeaderAlgorithm   = "alg"
	HeaderType        = "typ"
	HeaderKeyID       = "kid"
	HeaderContentType = "cty"
)

// Header is the JOSE header of a token
type Header struct {
	*Map
}

// NewHeader returns a header with typ=JWT and the algorithm
func NewHeader(alg Algorithm) *Header {
	h := &Header{Map: NewMap()}
	h.Set(HeaderAlgorithm, String(alg.String()))
	h.Set(HeaderType, String("JWT"))
	return h
}

// ParseHeader parses JSON encoded header
func ParseHeader(b []byte) (*Header, error) {
	m, err := ParseMap(b)
	if err != nil {
		return nil, err
	}
	return &Header{Map: m}, nil
}

// Algorithm returns the alg parameter
func (h *Header) Algorithm() (string, bool) {
	return h.str(HeaderAlgorithm)
}

// Type returns the typ parameter
func (h *Header) Type() (string, bool) {
	return h.str(HeaderType)
}

// KeyID returns the kid parameter
func (h *Header) KeyID() (string, bool) {
	return h.str(HeaderKeyID)
}

// ContentType returns the cty parameter
func (h *Header) ContentType() (string, bool) {
	return h.str(HeaderContentType)
}

// Clone returns a deep copy
func (h *Header) Clone() *Header {
	return &Header{Map: h.Map.Clone()}
}

func (h *Header) str(name string) (string, bool) {
	if h == nil {
		return "", false
	}
	v, ok := h.Get(name)
	if !ok {
		return "", false
	}
	return v.AsString()
}
