package token

import (
	"fmt"
	"strconv"
	"time"
)

// Token is one lexical value read from a record.
type Token struct {
	Value  string // unquoted value
	Quoted bool   // written quoted or as a text field
}

// Bare returns an unquoted token.
func Bare(v string) Token { return Token{Value: v} }

// IsUnknown reports whether t is the bare unknown sentinel.
func (t Token) IsUnknown() bool {
	return !t.Quoted && t.Value == Unknown
}

func (t Token) String() string {
	if t.Quoted {
		return strconv.Quote(t.Value)
	}
	return t.Value
}

// MalformedValue reports a token that does not match its declared kind.
type MalformedValue struct {
	Kind   Kind
	Token  string
	Reason string
}

func (e *MalformedValue) Error() string {
	return fmt.Sprintf("malformed %s value %q: %s", e.Kind, e.Token, e.Reason)
}

func malformed(kind Kind, t Token, reason string) *MalformedValue {
	return &MalformedValue{Kind: kind, Token: t.Value, Reason: reason}
}

// ParseString returns the value of a required string field.
func ParseString(t Token) (string, error) {
	if t.IsUnknown() {
		return "", malformed(KindString, t, "required value is unknown")
	}
	return t.Value, nil
}

// ParseOptionalString returns nil for the unknown sentinel.
func ParseOptionalString(t Token) (*string, error) {
	if t.IsUnknown() {
		return nil, nil
	}
	v := t.Value
	return &v, nil
}

// ParseInt returns the value of a required integer field.
func ParseInt(t Token) (int, error) {
	if t.IsUnknown() {
		return 0, malformed(KindInt, t, "required value is unknown")
	}
	n, err := strconv.Atoi(t.Value)
	if err != nil {
		return 0, malformed(KindInt, t, "not an integer")
	}
	return n, nil
}

// ParseOptionalInt returns nil for the unknown sentinel.
func ParseOptionalInt(t Token) (*int, error) {
	if t.IsUnknown() {
		return nil, nil
	}
	n, err := ParseInt(t)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// ParseFloat returns the value of a required float field.
func ParseFloat(t Token) (float64, error) {
	if t.IsUnknown() {
		return 0, malformed(KindFloat, t, "required value is unknown")
	}
	f, err := strconv.ParseFloat(t.Value, 64)
	if err != nil {
		return 0, malformed(KindFloat, t, "not a number")
	}
	return f, nil
}

// ParseOptionalFloat returns nil for the unknown sentinel.
func ParseOptionalFloat(t Token) (*float64, error) {
	if t.IsUnknown() {
		return nil, nil
	}
	f, err := ParseFloat(t)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// ParseDate returns the value of a required YYYY-MM-DD field in UTC.
func ParseDate(t Token) (time.Time, error) {
	if t.IsUnknown() {
		return time.Time{}, malformed(KindDate, t, "required value is unknown")
	}
	d, err := time.Parse(DateLayout, t.Value)
	if err != nil {
		return time.Time{}, malformed(KindDate, t, "expected YYYY-MM-DD")
	}
	return d, nil
}

// ParseOptionalDate returns nil for the unknown sentinel.
func ParseOptionalDate(t Token) (*time.Time, error) {
	if t.IsUnknown() {
		return nil, nil
	}
	d, err := ParseDate(t)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// ParseEnum returns the value when it is one of options.
func ParseEnum(t Token, options []string) (string, error) {
	if t.IsUnknown() {
		return "", malformed(KindEnum, t, "required value is unknown")
	}
	for _, o := range options {
		if t.Value == o {
			return t.Value, nil
		}
	}
	return "", malformed(KindEnum, t, fmt.Sprintf("expected one of %v", options))
}
