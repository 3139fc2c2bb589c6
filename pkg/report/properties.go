package report

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Property is a single key/value pair of a node.
type Property struct {
	Name  string
	Value string
}

// Properties is an ordered mapping decoded from a JSON object. Key order
// of the source document is preserved.
type Properties []Property

// Get returns the value of the named property.
func (p Properties) Get(name string) (string, bool) {
	for _, prop := range p {
		if prop.Name == name {
			return prop.Value, true
		}
	}

	return "", false
}

// UnmarshalJSON reads a JSON object token by token to keep key order.
// Non-string values (null included) are kept as their JSON text.
func (p *Properties) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*p = nil

		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}

	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("properties: expected object, got %v", tok)
	}

	props := make(Properties, 0, 4)

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}

		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("properties: expected key, got %v", keyTok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("properties: value of %q: %w", key, err)
		}

		value := string(raw)
		if len(raw) > 0 && raw[0] == '"' {
			if err := json.Unmarshal(raw, &value); err != nil {
				return fmt.Errorf("properties: value of %q: %w", key, err)
			}
		}

		props = append(props, Property{Name: key, Value: value})
	}

	if _, err := dec.Token(); err != nil {
		return err
	}

	*p = props

	return nil
}

// MarshalJSON writes the properties as a JSON object in order.
func (p Properties) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte('{')

	for i, prop := range p {
		if i > 0 {
			buf.WriteByte(',')
		}

		key, err := json.Marshal(prop.Name)
		if err != nil {
			return nil, err
		}

		value, err := json.Marshal(prop.Value)
		if err != nil {
			return nil, err
		}

		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}
