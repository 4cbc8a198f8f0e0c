package vpic

import (
	"net/url"
	"sort"
	"strings"
)

// Param is a single query or form field.
type Param struct {
	Key   string
	Value string
}

// Params is an insertion-ordered list of fields. Set replaces the first entry for
// a key in place and drops any later ones, so the encoded order only depends on
// when a key was first added.
type Params []Param

// ParamsFromMap converts a map into Params with keys in lexical order.
func ParamsFromMap(m map[string]string) Params {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(Params, 0, len(keys))
	for _, k := range keys {
		out = append(out, Param{Key: k, Value: m[k]})
	}
	return out
}

// Get returns the value for key.
func (p Params) Get(key string) (string, bool) {
	for _, kv := range p {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return "", false
}

// Set writes key=value, last write wins. Afterwards key appears exactly once.
func (p *Params) Set(key, value string) {
	out := (*p)[:0]
	found := false
	for _, kv := range *p {
		if kv.Key != key {
			out = append(out, kv)
			continue
		}
		if !found {
			out = append(out, Param{Key: key, Value: value})
			found = true
		}
	}
	if !found {
		out = append(out, Param{Key: key, Value: value})
	}
	*p = out
}

// Clone returns an independent copy.
func (p Params) Clone() Params {
	if p == nil {
		return nil
	}
	out := make(Params, len(p))
	copy(out, p)
	return out
}

// Encode renders the fields as application/x-www-form-urlencoded text in insertion order.
func (p Params) Encode() string {
	if len(p) == 0 {
		return ""
	}
	var b strings.Builder
	for i, kv := range p {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(kv.Key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(kv.Value))
	}
	return b.String()
}
