package petri

var _ Object = (*Token)(nil)

// DefaultToken is the token type arcs use when they declare no weights.
const DefaultToken = "Default"

// Token is a token type. It only scopes weights and markings: every place holds
// one count per token type.
type Token struct {
	Name string
}

func NewToken(name string) *Token {
	return &Token{Name: name}
}

func (t *Token) Kind() Kind { return TokenObject }

func (t *Token) String() string { return t.Name }
