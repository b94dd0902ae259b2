package program

import "gopkg.in/yaml.v3"

func unmarshalYAMLString(doc string, v any) error {
	return yaml.Unmarshal([]byte(doc), v)
}
