// Package strlist provides the ordered list-of-strings type used for
// expedition team members and report photos. Clients historically sent
// this field as a string, a number or nothing at all; the coercion rule
// is applied once here instead of in every handler: anything that is
// not a JSON array of strings becomes the empty list.
package strlist

import "encoding/json"

type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	var items []string
	if err := json.Unmarshal(data, &items); err != nil || items == nil {
		*l = StringList{}
		return nil
	}
	*l = StringList(items)
	return nil
}

// MarshalJSON never emits null; an empty list renders as [].
func (l StringList) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(l))
}

// Decode coerces a raw JSON column value. Used when scanning jsonb
// columns through the generic Querier.
func Decode(raw []byte) StringList {
	var l StringList
	if len(raw) == 0 {
		return StringList{}
	}
	_ = l.UnmarshalJSON(raw)
	return l
}

// Encode renders the list for a jsonb column, defaulting nil to [].
func Encode(l StringList) []byte {
	data, _ := l.MarshalJSON()
	return data
}
